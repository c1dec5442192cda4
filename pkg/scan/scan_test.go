package scan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeakIX/zcash-web-wallet/pkg/keys"
	"github.com/LeakIX/zcash-web-wallet/pkg/network"
	"github.com/LeakIX/zcash-web-wallet/pkg/orchard"
	"github.com/LeakIX/zcash-web-wallet/pkg/protocoltest"
	"github.com/LeakIX/zcash-web-wallet/pkg/tx"
)

func scanKeys(t *testing.T, tag byte) (*orchard.FullViewingKey, *orchard.IncomingViewingKey) {
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

func noteFor(memo string, value uint64, rho, rseed byte) *orchard.Note {
	note := &orchard.Note{Value: value}
	for i := range note.Diversifier {
		note.Diversifier[i] = byte(i + 1)
	}
	for i := range note.Rho {
		note.Rho[i] = rho
	}
	for i := range note.Rseed {
		note.Rseed[i] = rseed
	}
	copy(note.Memo[:], memo)
	return note
}

// fixtureTx builds a v5 transaction touching all three pools: two
// transparent outputs, one Sapling spend and output, and the given
// Orchard actions.
func fixtureTx(actions ...tx.OrchardAction) *tx.Transaction {
	t := &tx.Transaction{
		Version:        0x80000005,
		VersionGroupID: 0x26A7270A,
		Branch:         tx.NU6,
		ExpiryHeight:   2_400_000,
		Transparent: &tx.TransparentBundle{
			Outputs: []tx.TxOut{
				{Value: 10_000, ScriptPubKey: []byte{0x76, 0xA9}},
				{Value: 32_000, ScriptPubKey: []byte{0x76, 0xA9}},
			},
		},
		Sapling: &tx.SaplingBundle{
			Spends:  make([]tx.SaplingSpend, 1),
			Outputs: make([]tx.SaplingOutput, 1),
		},
	}
	t.Sapling.Spends[0].Nullifier[0] = 0xAB
	if len(actions) > 0 {
		t.Orchard = &tx.OrchardBundle{Actions: actions}
	}
	return t
}

func TestScanWithFullViewingKey(t *testing.T) {
	fvk, ivk := scanKeys(t, 1)
	_, foreignIVK := scanKeys(t, 9)

	mine := noteFor("note to self", 700_000, 0x21, 0x31)
	theirs := noteFor("someone else's", 1, 0x22, 0x32)
	transaction := fixtureTx(
		protocoltest.EncryptNote(ivk, mine),
		protocoltest.EncryptNote(foreignIVK, theirs),
	)

	vk := &keys.ViewingKey{
		Kind:         keys.KindUnifiedFull,
		Capabilities: keys.Capabilities{Transparent: true, Sapling: true, Orchard: true},
		OrchardFVK:   fvk,
	}
	res, err := New(network.Testnet, vk, protocoltest.Cryptosystem{}).Scan(transaction)
	require.NoError(t, err)

	assert.Equal(t, uint64(42_000), res.TransparentValue)
	require.Len(t, res.TransparentOutputs, 2)

	// One Sapling output (enumerated, undecrypted) plus two Orchard
	// actions.
	require.Len(t, res.Notes, 3)

	saplingNote := res.Notes[0]
	assert.Equal(t, PoolSapling, saplingNote.Pool)
	assert.False(t, saplingNote.Decrypted)
	assert.Zero(t, saplingNote.Value)
	assert.Equal(t, transaction.Sapling.Outputs[0].Cmu[:], saplingNote.Commitment)

	myNote := res.Notes[1]
	assert.Equal(t, PoolOrchard, myNote.Pool)
	assert.True(t, myNote.Decrypted)
	assert.Equal(t, uint64(700_000), myNote.Value)
	assert.Equal(t, "note to self", myNote.Memo)
	assert.Equal(t, transaction.Orchard.Actions[0].Cmx[:], myNote.Commitment)
	assert.True(t, strings.HasPrefix(myNote.Recipient, "utest1"))
	assert.NotEmpty(t, myNote.Nullifier)

	foreignNote := res.Notes[2]
	assert.False(t, foreignNote.Decrypted)
	assert.Zero(t, foreignNote.Value)
	assert.Equal(t, transaction.Orchard.Actions[1].Cmx[:], foreignNote.Commitment)
	assert.Empty(t, foreignNote.Nullifier)

	// One Sapling spend plus both action nullifiers.
	require.Len(t, res.Spends, 3)
	assert.Equal(t, PoolSapling, res.Spends[0].Pool)
	assert.Equal(t, PoolOrchard, res.Spends[1].Pool)
	assert.Equal(t, PoolOrchard, res.Spends[2].Pool)
}

func TestScanWithIncomingViewingKey(t *testing.T) {
	_, ivk := scanKeys(t, 1)
	transaction := fixtureTx(protocoltest.EncryptNote(ivk, noteFor("incoming", 5_000, 0x41, 0x51)))

	vk := &keys.ViewingKey{
		Kind:         keys.KindUnifiedIncoming,
		Capabilities: keys.Capabilities{Orchard: true},
		OrchardIVK:   ivk,
	}
	res, err := New(network.Testnet, vk, protocoltest.Cryptosystem{}).Scan(transaction)
	require.NoError(t, err)

	require.Len(t, res.Notes, 1)
	note := res.Notes[0]
	assert.True(t, note.Decrypted)
	assert.Equal(t, uint64(5_000), note.Value)
	// Incoming keys cannot derive the nullifier of a received note,
	// but on-chain nullifiers are public and reported regardless.
	assert.Empty(t, note.Nullifier)
	require.Len(t, res.Spends, 2)
	assert.Equal(t, PoolSapling, res.Spends[0].Pool)
	assert.Equal(t, PoolOrchard, res.Spends[1].Pool)

	// Without transparent capability the visible outputs stay out of
	// the result.
	assert.Empty(t, res.TransparentOutputs)
	assert.Zero(t, res.TransparentValue)
}

func TestScanSkipsNotesWithoutCapability(t *testing.T) {
	_, ivk := scanKeys(t, 1)
	transaction := fixtureTx(
		protocoltest.EncryptNote(ivk, noteFor("hidden", 9, 0x61, 0x71)),
		protocoltest.EncryptNote(ivk, noteFor("hidden too", 9, 0x62, 0x72)),
	)

	vk := &keys.ViewingKey{
		Kind:         keys.KindLegacySapling,
		Capabilities: keys.Capabilities{Sapling: true},
	}
	res, err := New(network.Testnet, vk, protocoltest.Cryptosystem{}).Scan(transaction)
	require.NoError(t, err)

	for _, note := range res.Notes {
		assert.Equal(t, PoolSapling, note.Pool)
	}
	assert.Empty(t, res.TransparentOutputs)

	// Nullifiers are not subject to the capability gate: a key that
	// cannot see the Orchard pool still observes its spends.
	require.Len(t, res.Spends, 3)
	assert.Equal(t, PoolSapling, res.Spends[0].Pool)
	assert.Equal(t, PoolOrchard, res.Spends[1].Pool)
	assert.Equal(t, PoolOrchard, res.Spends[2].Pool)
	assert.Equal(t, ExtractNullifiers(transaction), res.Spends)
}

func TestScanWithoutCryptosystem(t *testing.T) {
	fvk, ivk := scanKeys(t, 1)
	transaction := fixtureTx(protocoltest.EncryptNote(ivk, noteFor("opaque", 77, 0x81, 0x91)))

	vk := &keys.ViewingKey{
		Kind:         keys.KindUnifiedFull,
		Capabilities: keys.Capabilities{Orchard: true},
		OrchardFVK:   fvk,
	}
	res, err := New(network.Testnet, vk, nil).Scan(transaction)
	require.NoError(t, err)

	// Actions are enumerated but cannot be decrypted.
	require.Len(t, res.Notes, 1)
	assert.False(t, res.Notes[0].Decrypted)
	assert.NotEmpty(t, res.Notes[0].Commitment)
	// Spend and action nullifiers are still plaintext in the bundle.
	require.Len(t, res.Spends, 2)
}

func TestScanManyActionsAllDecrypt(t *testing.T) {
	fvk, ivk := scanKeys(t, 1)

	var actions []tx.OrchardAction
	for i := 0; i < 16; i++ {
		actions = append(actions,
			protocoltest.EncryptNote(ivk, noteFor("n", uint64(i+1), byte(i), byte(100+i))))
	}
	transaction := fixtureTx(actions...)

	vk := &keys.ViewingKey{
		Kind:         keys.KindUnifiedFull,
		Capabilities: keys.Capabilities{Orchard: true},
		OrchardFVK:   fvk,
	}
	res, err := New(network.Testnet, vk, protocoltest.Cryptosystem{}).Scan(transaction)
	require.NoError(t, err)

	require.Len(t, res.Notes, 16)
	for i, note := range res.Notes {
		assert.Equal(t, i, note.Index)
		assert.True(t, note.Decrypted, "action %d", i)
		assert.Equal(t, uint64(i+1), note.Value)
	}
}

func TestScanMemoNotText(t *testing.T) {
	fvk, ivk := scanKeys(t, 1)

	binary := noteFor("", 11, 0xA1, 0xB1)
	copy(binary.Memo[:], []byte{0xFF, 0xFE, 0xFD, 0x01})
	blank := noteFor("", 22, 0xA2, 0xB2)
	transaction := fixtureTx(
		protocoltest.EncryptNote(ivk, binary),
		protocoltest.EncryptNote(ivk, blank),
	)

	vk := &keys.ViewingKey{
		Kind:         keys.KindUnifiedFull,
		Capabilities: keys.Capabilities{Orchard: true},
		OrchardFVK:   fvk,
	}
	res, err := New(network.Testnet, vk, protocoltest.Cryptosystem{}).Scan(transaction)
	require.NoError(t, err)
	require.Len(t, res.Notes, 2)

	// A memo that is not valid UTF-8 decrypts but renders as empty.
	assert.True(t, res.Notes[0].Decrypted)
	assert.Equal(t, uint64(11), res.Notes[0].Value)
	assert.Empty(t, res.Notes[0].Memo)

	// An all-zero memo is padding only.
	assert.True(t, res.Notes[1].Decrypted)
	assert.Equal(t, uint64(22), res.Notes[1].Value)
	assert.Empty(t, res.Notes[1].Memo)
}

func TestExtractNullifiers(t *testing.T) {
	_, ivk := scanKeys(t, 1)
	transaction := fixtureTx(
		protocoltest.EncryptNote(ivk, noteFor("a", 1, 0x01, 0x02)),
		protocoltest.EncryptNote(ivk, noteFor("b", 2, 0x03, 0x04)),
	)

	spends := ExtractNullifiers(transaction)
	require.Len(t, spends, 3)
	assert.Equal(t, PoolSapling, spends[0].Pool)
	assert.Equal(t, PoolOrchard, spends[1].Pool)
	assert.Equal(t, PoolOrchard, spends[2].Pool)
	for _, s := range spends {
		assert.Len(t, s.Nullifier, 32)
	}
}

func TestExtractNullifiersEmptyTx(t *testing.T) {
	assert.Empty(t, ExtractNullifiers(&tx.Transaction{}))
}
