package orchard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeakIX/zcash-web-wallet/pkg/keys"
	"github.com/LeakIX/zcash-web-wallet/pkg/orchard"
	"github.com/LeakIX/zcash-web-wallet/pkg/protocoltest"
)

func fixtureKeys(t *testing.T, tag byte) (*orchard.FullViewingKey, *orchard.IncomingViewingKey) {
	t.Helper()
	var sk keys.OrchardSpendingKey
	for i := range sk {
		sk[i] = tag
	}
	fvk, err := protocoltest.KeyDeriver{}.OrchardFullViewingKey(sk)
	require.NoError(t, err)
	ivk, err := protocoltest.Cryptosystem{}.DeriveIncomingViewingKey(fvk, orchard.External)
	require.NoError(t, err)
	return fvk, ivk
}

func fixtureNote(memo string) *orchard.Note {
	note := &orchard.Note{Value: 123456}
	for i := range note.Diversifier {
		note.Diversifier[i] = byte(i)
	}
	for i := range note.Rho {
		note.Rho[i] = 0x42
	}
	for i := range note.Rseed {
		note.Rseed[i] = 0x17
	}
	copy(note.Memo[:], memo)
	return note
}

func TestTryDecryptRecoversNote(t *testing.T) {
	_, ivk := fixtureKeys(t, 1)
	note := fixtureNote("thanks for lunch")
	action := protocoltest.EncryptNote(ivk, note)

	pivk := orchard.PrepareIncomingViewingKey(protocoltest.Cryptosystem{}, ivk)
	got, ok := pivk.TryDecrypt(&action)
	require.True(t, ok)

	assert.Equal(t, note.Diversifier, got.Diversifier)
	assert.Equal(t, note.Value, got.Value)
	assert.Equal(t, note.Rseed, got.Rseed)
	assert.Equal(t, note.Memo, got.Memo)
	// Rho comes from the action, not the plaintext.
	assert.Equal(t, action.Nullifier, got.Rho)
}

func TestTryDecryptWrongKey(t *testing.T) {
	_, ivk := fixtureKeys(t, 1)
	_, other := fixtureKeys(t, 2)
	action := protocoltest.EncryptNote(ivk, fixtureNote("hi"))

	pivk := orchard.PrepareIncomingViewingKey(protocoltest.Cryptosystem{}, other)
	_, ok := pivk.TryDecrypt(&action)
	assert.False(t, ok)
}

func TestTryDecryptTamperedCiphertext(t *testing.T) {
	_, ivk := fixtureKeys(t, 1)
	action := protocoltest.EncryptNote(ivk, fixtureNote("hi"))
	action.EncCiphertext[100] ^= 0x01

	pivk := orchard.PrepareIncomingViewingKey(protocoltest.Cryptosystem{}, ivk)
	_, ok := pivk.TryDecrypt(&action)
	assert.False(t, ok)
}

func TestTryDecryptTamperedEphemeralKey(t *testing.T) {
	_, ivk := fixtureKeys(t, 1)
	action := protocoltest.EncryptNote(ivk, fixtureNote("hi"))
	action.EphemeralKey[0] ^= 0x01

	pivk := orchard.PrepareIncomingViewingKey(protocoltest.Cryptosystem{}, ivk)
	_, ok := pivk.TryDecrypt(&action)
	assert.False(t, ok)
}

func TestTrimMemo(t *testing.T) {
	var memo [orchard.MemoSize]byte
	assert.Empty(t, orchard.TrimMemo(memo))

	copy(memo[:], "hello")
	assert.Equal(t, []byte("hello"), orchard.TrimMemo(memo))

	// An interior zero survives; only the trailing run is stripped.
	memo = [orchard.MemoSize]byte{}
	copy(memo[:], "a\x00b")
	assert.Equal(t, []byte("a\x00b"), orchard.TrimMemo(memo))
}

func TestViewingKeyLengthValidation(t *testing.T) {
	_, err := orchard.FullViewingKeyFromBytes(make([]byte, 95))
	assert.Error(t, err)
	_, err = orchard.FullViewingKeyFromBytes(make([]byte, 96))
	assert.NoError(t, err)

	_, err = orchard.IncomingViewingKeyFromBytes(make([]byte, 65))
	assert.Error(t, err)
	_, err = orchard.IncomingViewingKeyFromBytes(make([]byte, 64))
	assert.NoError(t, err)
}
