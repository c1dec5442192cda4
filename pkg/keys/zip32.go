package keys

import (
	"encoding/binary"
	"fmt"

	"github.com/minio/blake2b-simd"
)

const (
	// hardenedOffset marks a hardened child index.
	hardenedOffset = uint32(1) << 31

	// orchardPurpose is the shielded derivation purpose (ZIP 32).
	orchardPurpose = uint32(32)

	masterPersonalization = "ZcashIP32Orchard"
	expandPersonalization = "Zcash_ExpandSeed"
)

// OrchardSpendingKey holds the 32-byte Orchard spending key for one
// account, derived along m/32'/coin'/account'.
type OrchardSpendingKey [32]byte

// Bytes returns the key as a slice.
func (k OrchardSpendingKey) Bytes() []byte { return k[:] }

// DeriveOrchardSpendingKey walks the hardened path
// m/32'/coinType'/account' from a seed. Every step is a BLAKE2b PRF
// expansion; no elliptic-curve math is involved until the spending key
// is turned into viewing material.
func DeriveOrchardSpendingKey(seed []byte, coinType, account uint32) (OrchardSpendingKey, error) {
	var key OrchardSpendingKey
	if len(seed) < 32 || len(seed) > 252 {
		return key, fmt.Errorf("seed must be 32..252 bytes, got %d", len(seed))
	}

	sk, chain, err := masterKey(seed)
	if err != nil {
		return key, err
	}
	for _, i := range []uint32{
		hardenedOffset + orchardPurpose,
		hardenedOffset + coinType,
		hardenedOffset + account,
	} {
		sk, chain, err = childKey(sk, chain, i)
		if err != nil {
			return key, err
		}
	}
	copy(key[:], sk)
	return key, nil
}

func masterKey(seed []byte) (sk, chain []byte, err error) {
	h, err := blake2b.New(&blake2b.Config{
		Size:   64,
		Person: []byte(masterPersonalization),
	})
	if err != nil {
		return nil, nil, err
	}
	h.Write(seed)
	i := h.Sum(nil)
	return i[:32], i[32:], nil
}

// childKey computes CKD for a hardened index via
// PRF^expand(chain, [0x81] || sk || I2LEOSP(i)).
func childKey(sk, chain []byte, index uint32) ([]byte, []byte, error) {
	h, err := blake2b.New(&blake2b.Config{
		Size:   64,
		Person: []byte(expandPersonalization),
	})
	if err != nil {
		return nil, nil, err
	}
	var le [4]byte
	binary.LittleEndian.PutUint32(le[:], index)
	h.Write(chain)
	h.Write([]byte{0x81})
	h.Write(sk)
	h.Write(le[:])
	i := h.Sum(nil)
	return i[:32], i[32:], nil
}
