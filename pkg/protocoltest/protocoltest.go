// Package protocoltest provides deterministic stand-ins for the
// curve-level collaborators the wallet and scanner depend on. Every
// operation is a personalized BLAKE2b derivation, so key material,
// receivers and ciphertexts are reproducible across runs without any
// elliptic-curve backend. Nothing here is cryptographically sound;
// the package exists so the deterministic plumbing around the curve
// boundary can be exercised end to end.
package protocoltest

import (
	"encoding/binary"

	blake2b "github.com/minio/blake2b-simd"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/LeakIX/zcash-web-wallet/pkg/keys"
	"github.com/LeakIX/zcash-web-wallet/pkg/orchard"
	"github.com/LeakIX/zcash-web-wallet/pkg/tx"
)

func prf(person string, size int, parts ...[]byte) []byte {
	h, err := blake2b.New(&blake2b.Config{
		Size:   uint8(size),
		Person: []byte(person),
	})
	if err != nil {
		panic("protocoltest: bad blake2b config: " + err.Error())
	}
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// Cryptosystem is a hash-based stand-in for the Orchard curve
// operations.
type Cryptosystem struct{}

func (Cryptosystem) DeriveIncomingViewingKey(fvk *orchard.FullViewingKey, scope orchard.Scope) (*orchard.IncomingViewingKey, error) {
	raw := fvk.Bytes()
	return orchard.IncomingViewingKeyFromBytes(
		prf("ZWTestOrchardIVK", 64, raw[:], []byte{byte(scope)}),
	)
}

func (Cryptosystem) SharedSecret(ivk *orchard.IncomingViewingKey, ephemeralKey [32]byte) (secret [32]byte, ok bool) {
	raw := ivk.Bytes()
	copy(secret[:], prf("ZWTestOrchardDH_", 32, raw[:], ephemeralKey[:]))
	return secret, true
}

func (Cryptosystem) DeriveNullifier(fvk *orchard.FullViewingKey, note *orchard.Note) ([32]byte, error) {
	raw := fvk.Bytes()
	var nf [32]byte
	copy(nf[:], prf("ZWTestOrchardNf_", 32, raw[:], note.Rho[:], note.Rseed[:]))
	return nf, nil
}

func (Cryptosystem) Receiver(ivk *orchard.IncomingViewingKey, diversifier [11]byte) ([orchard.ReceiverSize]byte, error) {
	raw := ivk.Bytes()
	var recv [orchard.ReceiverSize]byte
	copy(recv[:11], diversifier[:])
	copy(recv[11:], prf("ZWTestOrchardPkd", 32, raw[:], diversifier[:]))
	return recv, nil
}

// KeyDeriver is a hash-based stand-in for the shielded key derivation
// backend.
type KeyDeriver struct{}

func (KeyDeriver) OrchardFullViewingKey(sk keys.OrchardSpendingKey) (*orchard.FullViewingKey, error) {
	raw := make([]byte, 0, orchard.FullViewingKeySize)
	for i := byte(0); i < 3; i++ {
		raw = append(raw, prf("ZWTestOrchardFVK", 32, sk.Bytes(), []byte{i})...)
	}
	return orchard.FullViewingKeyFromBytes(raw)
}

func (d KeyDeriver) OrchardReceiver(fvk *orchard.FullViewingKey) ([orchard.ReceiverSize]byte, error) {
	ivk, err := Cryptosystem{}.DeriveIncomingViewingKey(fvk, orchard.External)
	if err != nil {
		return [orchard.ReceiverSize]byte{}, err
	}
	return Cryptosystem{}.Receiver(ivk, DefaultDiversifier(fvk))
}

func (KeyDeriver) SaplingDiversifiableFullViewingKey(seed []byte, coinType, account uint32) ([128]byte, error) {
	var input []byte
	input = append(input, seed...)
	input = binary.LittleEndian.AppendUint32(input, coinType)
	input = binary.LittleEndian.AppendUint32(input, account)

	var dfvk [128]byte
	copy(dfvk[:64], prf("ZWTestSaplingFVK", 64, input, []byte{0}))
	copy(dfvk[64:], prf("ZWTestSaplingFVK", 64, input, []byte{1}))
	return dfvk, nil
}

func (KeyDeriver) SaplingReceiver(dfvk [128]byte) ([43]byte, error) {
	var recv [43]byte
	copy(recv[:], prf("ZWTestSaplingAdr", 43, dfvk[:]))
	return recv, nil
}

// DefaultDiversifier is the diversifier the stand-in deriver hands out
// for an account's default address.
func DefaultDiversifier(fvk *orchard.FullViewingKey) [11]byte {
	raw := fvk.Bytes()
	var d [11]byte
	copy(d[:], prf("ZWTestOrchardDiv", 11, raw[:]))
	return d
}

// EncryptNote seals a note to an incoming viewing key and wraps it in
// an action the scanner can trial-decrypt. The ephemeral key is
// derived from the note's rseed so fixtures stay reproducible.
func EncryptNote(ivk *orchard.IncomingViewingKey, note *orchard.Note) tx.OrchardAction {
	var epk [32]byte
	copy(epk[:], prf("ZWTestOrchardEpk", 32, note.Rseed[:]))

	secret, _ := Cryptosystem{}.SharedSecret(ivk, epk)
	key := orchard.NoteEncryptionKey(secret, epk)

	plaintext := make([]byte, 0, 564)
	plaintext = append(plaintext, 0x02)
	plaintext = append(plaintext, note.Diversifier[:]...)
	plaintext = binary.LittleEndian.AppendUint64(plaintext, note.Value)
	plaintext = append(plaintext, note.Rseed[:]...)
	plaintext = append(plaintext, note.Memo[:]...)

	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		panic("protocoltest: " + err.Error())
	}
	var nonce [chacha20poly1305.NonceSize]byte
	sealed := aead.Seal(nil, nonce[:], plaintext, nil)

	action := tx.OrchardAction{
		Nullifier:    note.Rho,
		EphemeralKey: epk,
	}
	copy(action.EncCiphertext[:], sealed)
	copy(action.CV[:], prf("ZWTestOrchardEpk", 32, note.Rseed[:], []byte("cv")))
	copy(action.Rk[:], prf("ZWTestOrchardEpk", 32, note.Rseed[:], []byte("rk")))
	copy(action.Cmx[:], prf("ZWTestOrchardEpk", 32, note.Rseed[:], []byte("cm")))
	return action
}
