// Package tx decodes raw Zcash transactions.
//
// Zcash has shipped several transaction formats. The v5 format (ZIP 225,
// NU5 onward) embeds its consensus branch ID; the v4 Sapling-era format
// does not, so the branch a transaction belongs to cannot always be read
// from the bytes alone. Decode therefore trial-parses under an ordered
// list of known branches, newest first, and keeps the first branch whose
// layout consumes the buffer exactly.
//
// References:
//   - ZIP 225 (Version 5 Transaction Format): https://zips.z.cash/zip-0225
//   - Zcash protocol spec §7.1 (v4 format)
package tx

import "fmt"

// BranchID is a consensus branch identifier. Each network upgrade
// activates a new branch ID, which selects the transaction layout and
// the ZIP 244 digest personalization.
type BranchID uint32

const (
	// NU6 is the sixth network upgrade (v5 format).
	NU6 BranchID = 0xC8E71055
	// NU5 is the fifth network upgrade (v5 format, introduced Orchard).
	NU5 BranchID = 0xC2D6D0B4
	// Canopy is the Canopy upgrade (v4 format).
	Canopy BranchID = 0xE9FF75A6
	// Heartwood is the Heartwood upgrade (v4 format).
	Heartwood BranchID = 0xF5B9230B
)

// branchOrder is the trial-decode order: newest first, so current-era
// transactions decode on the first attempt.
var branchOrder = []BranchID{NU6, NU5, Canopy, Heartwood}

// String returns the upgrade name for known branches, and the raw hex
// ID otherwise.
func (b BranchID) String() string {
	switch b {
	case NU6:
		return "NU6"
	case NU5:
		return "NU5"
	case Canopy:
		return "Canopy"
	case Heartwood:
		return "Heartwood"
	}
	return fmt.Sprintf("%08x", uint32(b))
}

const (
	// overwinteredFlag is bit 31 of the header version field.
	overwinteredFlag = uint32(1) << 31

	// v4VersionGroupID identifies the Sapling v4 transaction format.
	v4VersionGroupID = 0x892F2085
	// v5VersionGroupID identifies the ZIP 225 v5 transaction format.
	v5VersionGroupID = 0x26A7270A
)

// Transaction is a structurally decoded Zcash transaction. Bundle
// pointers are nil when the corresponding pool is absent: a v4
// transaction never carries an Orchard bundle, and any transaction may
// omit pools it does not touch.
type Transaction struct {
	// Version is the raw header version field, including the
	// overwintered flag in bit 31.
	Version        uint32
	VersionGroupID uint32
	// Branch is the consensus branch the transaction decoded under.
	Branch       BranchID
	LockTime     uint32
	ExpiryHeight uint32

	Transparent *TransparentBundle
	Sapling     *SaplingBundle
	Sprout      *SproutBundle
	Orchard     *OrchardBundle

	// raw retains the serialized bytes for legacy (v4) txid computation.
	raw []byte
}

// IsV5 reports whether the transaction uses the ZIP 225 v5 layout.
func (t *Transaction) IsV5() bool {
	return t.Version&^overwinteredFlag == 5
}

// TransparentBundle holds the Bitcoin-style inputs and outputs.
type TransparentBundle struct {
	Inputs  []TxIn
	Outputs []TxOut
}

// TxIn is a transparent input.
type TxIn struct {
	PrevoutTxID  [32]byte
	PrevoutIndex uint32
	ScriptSig    []byte
	Sequence     uint32
}

// TxOut is a transparent output. Its value is plaintext on-chain.
type TxOut struct {
	Value        uint64
	ScriptPubKey []byte
}

// SaplingBundle holds the Sapling spends and outputs.
type SaplingBundle struct {
	Spends       []SaplingSpend
	Outputs      []SaplingOutput
	ValueBalance int64
	BindingSig   [64]byte
}

// SaplingSpend is a Sapling spend description. The v5 format stores a
// single anchor per bundle; it is copied into each spend here so that
// v4 and v5 spends carry the same fields.
type SaplingSpend struct {
	CV           [32]byte
	Anchor       [32]byte
	Nullifier    [32]byte
	Rk           [32]byte
	Proof        [192]byte
	SpendAuthSig [64]byte
}

// SaplingOutput is a Sapling output description.
type SaplingOutput struct {
	CV            [32]byte
	Cmu           [32]byte
	EphemeralKey  [32]byte
	EncCiphertext [580]byte
	OutCiphertext [80]byte
	Proof         [192]byte
}

// SproutBundle holds the legacy JoinSplit descriptions found in v4
// transactions. They are parsed so the buffer position stays correct;
// the scanner does not interpret them.
type SproutBundle struct {
	JoinSplits   []JoinSplit
	JoinSplitSig [64]byte
	PubKey       [32]byte
}

// JoinSplit is a Sprout JoinSplit description (Groth16 era).
type JoinSplit struct {
	VPubOld      uint64
	VPubNew      uint64
	Anchor       [32]byte
	Nullifiers   [2][32]byte
	Commitments  [2][32]byte
	EphemeralKey [32]byte
	RandomSeed   [32]byte
	Macs         [2][32]byte
	Proof        [192]byte
	Ciphertexts  [2][601]byte
}

// OrchardBundle holds the Orchard actions.
type OrchardBundle struct {
	Actions      []OrchardAction
	Flags        uint8
	ValueBalance int64
	Anchor       [32]byte
	Proof        []byte
	BindingSig   [64]byte
}

// OrchardAction is a single Orchard action. Every action is both a
// spend (nullifier, rk) and an output (cmx, ciphertexts).
type OrchardAction struct {
	CV            [32]byte
	Nullifier     [32]byte
	Rk            [32]byte
	Cmx           [32]byte
	EphemeralKey  [32]byte
	EncCiphertext [580]byte
	OutCiphertext [80]byte
	SpendAuthSig  [64]byte
}
