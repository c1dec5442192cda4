package tx

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTxHex(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err, "reading fixture %s", name)
	return strings.TrimSpace(string(data))
}

func TestDecodeV5(t *testing.T) {
	txHex := loadTxHex(t, "v5_tx.hex")

	tx, err := DecodeHex(txHex)
	require.NoError(t, err)

	assert.Equal(t, NU6, tx.Branch)
	assert.True(t, tx.IsV5())
	assert.Equal(t, uint32(0x26A7270A), tx.VersionGroupID)
	assert.Equal(t, uint32(0), tx.LockTime)
	assert.Equal(t, uint32(2_500_000), tx.ExpiryHeight)

	require.NotNil(t, tx.Transparent)
	require.Len(t, tx.Transparent.Inputs, 1)
	require.Len(t, tx.Transparent.Outputs, 2)
	in := tx.Transparent.Inputs[0]
	assert.Equal(t, "024d15b10a808ffd3b96ab827defcc9dd4554d0979c059d7e4ef6b6304818f76",
		hex.EncodeToString(in.PrevoutTxID[:]))
	assert.Equal(t, uint32(7), in.PrevoutIndex)
	assert.Equal(t, uint32(0xFFFFFFFE), in.Sequence)
	assert.Len(t, in.ScriptSig, 25)
	assert.Equal(t, uint64(50000), tx.Transparent.Outputs[0].Value)
	assert.Equal(t, uint64(120000), tx.Transparent.Outputs[1].Value)

	require.NotNil(t, tx.Sapling)
	require.Len(t, tx.Sapling.Spends, 1)
	require.Len(t, tx.Sapling.Outputs, 1)
	assert.Equal(t, "acc85d11cdb3f055ad8a74f9405cebf45e255f81a2b5e69953a2dde713faa935",
		hex.EncodeToString(tx.Sapling.Spends[0].Nullifier[:]))
	assert.Equal(t, int64(-10000), tx.Sapling.ValueBalance)

	require.NotNil(t, tx.Orchard)
	require.Len(t, tx.Orchard.Actions, 2)
	assert.Equal(t, "c88de39656893aea010ab9f14c3290b9f1b6c0b70345cf21add8bf8041df5fa5",
		hex.EncodeToString(tx.Orchard.Actions[0].Nullifier[:]))
	assert.Equal(t, "61d8129ec0a32a4b398438f22633ec528c32be8813486c8239329b1fba047480",
		hex.EncodeToString(tx.Orchard.Actions[1].Nullifier[:]))
	assert.Equal(t, uint8(3), tx.Orchard.Flags)
	assert.Equal(t, int64(5000), tx.Orchard.ValueBalance)
	assert.Len(t, tx.Orchard.Proof, 100)

	assert.Nil(t, tx.Sprout)
}

func TestDecodeV4(t *testing.T) {
	txHex := loadTxHex(t, "v4_tx.hex")

	tx, err := DecodeHex(txHex)
	require.NoError(t, err)

	// v4 carries no branch ID, so the newest v4-capable candidate wins.
	assert.Equal(t, Canopy, tx.Branch)
	assert.False(t, tx.IsV5())
	assert.Equal(t, uint32(0x892F2085), tx.VersionGroupID)
	assert.Equal(t, uint32(1_900_000), tx.ExpiryHeight)

	require.NotNil(t, tx.Transparent)
	require.Len(t, tx.Transparent.Inputs, 1)
	require.Len(t, tx.Transparent.Outputs, 1)
	assert.Equal(t, uint64(75000), tx.Transparent.Outputs[0].Value)

	require.NotNil(t, tx.Sapling)
	require.Len(t, tx.Sapling.Spends, 1)
	require.Len(t, tx.Sapling.Outputs, 1)
	assert.Equal(t, int64(-2500), tx.Sapling.ValueBalance)
	assert.Equal(t, "acc85d11cdb3f055ad8a74f9405cebf45e255f81a2b5e69953a2dde713faa935",
		hex.EncodeToString(tx.Sapling.Spends[0].Nullifier[:]))

	assert.Nil(t, tx.Sprout)
	assert.Nil(t, tx.Orchard)
}

func TestDecodeHexRejectsNonHex(t *testing.T) {
	_, err := DecodeHex("not hex at all")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  []byte
	}{
		{"empty", nil},
		{"short", []byte{0x05, 0x00, 0x00}},
		{"not overwintered", []byte{0x05, 0x00, 0x00, 0x00, 0x0A, 0x27, 0xA7, 0x26}},
		{"random", []byte("this is definitely not a transaction, not even close")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.raw)
			assert.ErrorIs(t, err, ErrUnknownBranch)
		})
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	txHex := loadTxHex(t, "v5_tx.hex")
	raw, err := hex.DecodeString(txHex)
	require.NoError(t, err)

	_, err = Decode(append(raw, 0x00))
	assert.ErrorIs(t, err, ErrUnknownBranch)
}

func TestDecodeRejectsTruncated(t *testing.T) {
	txHex := loadTxHex(t, "v5_tx.hex")
	raw, err := hex.DecodeString(txHex)
	require.NoError(t, err)

	_, err = Decode(raw[:len(raw)-1])
	assert.ErrorIs(t, err, ErrUnknownBranch)
}

func TestDecodeRejectsBranchMismatch(t *testing.T) {
	txHex := loadTxHex(t, "v5_tx.hex")
	raw, err := hex.DecodeString(txHex)
	require.NoError(t, err)

	// Corrupt the embedded consensus branch ID. No candidate can match
	// it, so the whole trial loop must fail.
	raw[8] ^= 0xFF
	_, err = Decode(raw)
	assert.ErrorIs(t, err, ErrUnknownBranch)
}

func TestReadCompactSize(t *testing.T) {
	for _, tc := range []struct {
		name    string
		data    []byte
		want    uint64
		wantErr bool
	}{
		{"single byte", []byte{0x2A}, 42, false},
		{"uint16", []byte{0xFD, 0x00, 0x01}, 256, false},
		{"uint32", []byte{0xFE, 0x00, 0x00, 0x01, 0x00}, 1 << 16, false},
		{"non-canonical uint16", []byte{0xFD, 0x10, 0x00}, 0, true},
		{"truncated", []byte{0xFD, 0x01}, 0, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := readCompactSize(bytes.NewReader(tc.data))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReadCountRejectsOversizedClaim(t *testing.T) {
	// Claims 65535 elements of 41 bytes with only 2 bytes behind it.
	_, err := readCount(bytes.NewReader([]byte{0xFD, 0xFF, 0xFF}), 41)
	require.Error(t, err)
}
