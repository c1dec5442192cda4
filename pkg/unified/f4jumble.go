// Package unified implements the ZIP 316 unified container encoding.
//
// Unified addresses and unified viewing keys are typed-item containers:
// each item is a (typecode, data) pair, the items are concatenated in
// ascending typecode order with a padded human-readable part appended,
// the whole buffer is passed through the F4Jumble permutation, and the
// result is carried as bech32m.
//
// Reference: ZIP 316: https://zips.z.cash/zip-0316
package unified

import (
	"fmt"

	blake2b "github.com/minio/blake2b-simd"
)

const (
	// f4MinLen and f4MaxLen bound the message sizes F4Jumble is defined
	// over (ZIP 316).
	f4MinLen = 48
	f4MaxLen = 4194368
)

// f4jumble applies the ZIP 316 F4Jumble permutation: an unkeyed 4-round
// Feistel construction over personalized BLAKE2b.
func f4jumble(m []byte) ([]byte, error) {
	lL, lR, err := f4split(len(m))
	if err != nil {
		return nil, err
	}
	a, b := m[:lL], m[lL:]

	x := xorBytes(b, gRound(0, a, lR))
	y := xorBytes(a, hRound(0, x, lL))
	d := xorBytes(x, gRound(1, y, lR))
	e := xorBytes(y, hRound(1, d, lL))

	return append(e, d...), nil
}

// f4jumbleInv inverts f4jumble.
func f4jumbleInv(m []byte) ([]byte, error) {
	lL, lR, err := f4split(len(m))
	if err != nil {
		return nil, err
	}
	e, d := m[:lL], m[lL:]

	y := xorBytes(e, hRound(1, d, lL))
	x := xorBytes(d, gRound(1, y, lR))
	a := xorBytes(y, hRound(0, x, lL))
	b := xorBytes(x, gRound(0, a, lR))

	return append(a, b...), nil
}

func f4split(n int) (lL, lR int, err error) {
	if n < f4MinLen || n > f4MaxLen {
		return 0, 0, fmt.Errorf("message length %d outside F4Jumble range", n)
	}
	lL = n / 2
	if lL > 64 {
		lL = 64
	}
	return lL, n - lL, nil
}

// gRound expands u to lR bytes using BLAKE2b-512 in counter mode with
// personalization "UA_F4Jumble_G" || i || j.
func gRound(i byte, u []byte, lR int) []byte {
	out := make([]byte, 0, lR)
	for j := 0; len(out) < lR; j++ {
		person := make([]byte, 16)
		copy(person, "UA_F4Jumble_G")
		person[13] = i
		person[14] = byte(j)
		person[15] = byte(j >> 8)

		h, err := blake2b.New(&blake2b.Config{Size: 64, Person: person})
		if err != nil {
			panic("unified: bad blake2b config: " + err.Error())
		}
		h.Write(u)
		out = append(out, h.Sum(nil)...)
	}
	return out[:lR]
}

// hRound compresses u to lL bytes with personalization
// "UA_F4Jumble_H" || i || 0 || 0.
func hRound(i byte, u []byte, lL int) []byte {
	person := make([]byte, 16)
	copy(person, "UA_F4Jumble_H")
	person[13] = i

	h, err := blake2b.New(&blake2b.Config{Size: uint8(lL), Person: person})
	if err != nil {
		panic("unified: bad blake2b config: " + err.Error())
	}
	h.Write(u)
	return h.Sum(nil)
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}
