// Package orchard implements the Orchard note-encryption domain: viewing
// key material, and trial decryption of action ciphertexts.
//
// The Pallas-curve arithmetic behind key agreement, nullifier derivation
// and diversified-address recovery is supplied by a Cryptosystem
// implementation wrapping a protocol library; this package owns the
// symmetric layer (KDF and AEAD) and the note-plaintext format, which
// are plain BLAKE2b and ChaCha20-Poly1305.
package orchard

import "fmt"

// Sizes of the raw Orchard key encodings used in unified containers.
const (
	// FullViewingKeySize is the serialized FVK: ak || nk || rivk.
	FullViewingKeySize = 96
	// IncomingViewingKeySize is the serialized IVK: dk || ivk.
	IncomingViewingKeySize = 64
	// ReceiverSize is the raw diversified address: d || pk_d.
	ReceiverSize = 43
)

// Scope selects the key tree a diversified address belongs to.
// External addresses are handed out to counterparties; internal
// addresses receive change.
type Scope uint8

const (
	External Scope = 0
	Internal Scope = 1
)

// FullViewingKey is the serialized Orchard full viewing key. It can
// see incoming notes, recover their recipients, and derive the
// nullifiers that mark them spent.
type FullViewingKey struct {
	bytes [FullViewingKeySize]byte
}

// FullViewingKeyFromBytes validates the serialized length and wraps the
// raw key material.
func FullViewingKeyFromBytes(b []byte) (*FullViewingKey, error) {
	if len(b) != FullViewingKeySize {
		return nil, fmt.Errorf("orchard full viewing key must be %d bytes, got %d", FullViewingKeySize, len(b))
	}
	fvk := &FullViewingKey{}
	copy(fvk.bytes[:], b)
	return fvk, nil
}

// Bytes returns the serialized key.
func (fvk *FullViewingKey) Bytes() [FullViewingKeySize]byte {
	return fvk.bytes
}

// IncomingViewingKey is the serialized Orchard incoming viewing key.
// It can decrypt notes sent to its addresses but cannot derive
// nullifiers, so it never learns when those notes are spent.
type IncomingViewingKey struct {
	bytes [IncomingViewingKeySize]byte
}

// IncomingViewingKeyFromBytes validates the serialized length and wraps
// the raw key material.
func IncomingViewingKeyFromBytes(b []byte) (*IncomingViewingKey, error) {
	if len(b) != IncomingViewingKeySize {
		return nil, fmt.Errorf("orchard incoming viewing key must be %d bytes, got %d", IncomingViewingKeySize, len(b))
	}
	ivk := &IncomingViewingKey{}
	copy(ivk.bytes[:], b)
	return ivk, nil
}

// Bytes returns the serialized key.
func (ivk *IncomingViewingKey) Bytes() [IncomingViewingKeySize]byte {
	return ivk.bytes
}

// Cryptosystem supplies the curve-level operations of the Orchard
// protocol. Implementations wrap a shielded protocol library; the
// package contains no curve arithmetic of its own.
type Cryptosystem interface {
	// DeriveIncomingViewingKey derives the incoming viewing key for
	// one scope of a full viewing key.
	DeriveIncomingViewingKey(fvk *FullViewingKey, scope Scope) (*IncomingViewingKey, error)

	// SharedSecret performs note-encryption key agreement between an
	// incoming viewing key and an action's ephemeral key. ok is false
	// when the ephemeral key is not a valid curve point.
	SharedSecret(ivk *IncomingViewingKey, ephemeralKey [32]byte) (secret [32]byte, ok bool)

	// DeriveNullifier computes the nullifier of a decrypted note under
	// a full viewing key.
	DeriveNullifier(fvk *FullViewingKey, note *Note) ([32]byte, error)

	// Receiver recovers the raw diversified address (d || pk_d) that a
	// decrypted note was sent to.
	Receiver(ivk *IncomingViewingKey, diversifier [11]byte) ([ReceiverSize]byte, error)
}
