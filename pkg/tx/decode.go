package tx

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// Decode errors. Both are terminal: there is no retry beyond the ordered
// branch trial built into Decode itself.
var (
	// ErrInvalidEncoding is returned when the input is not valid hex.
	ErrInvalidEncoding = errors.New("transaction is not valid hex")

	// ErrUnknownBranch is returned when no known consensus branch can
	// parse the transaction bytes.
	ErrUnknownBranch = errors.New("transaction does not parse under any known consensus branch")
)

// DecodeHex decodes a hex-encoded transaction.
func DecodeHex(txHex string) (*Transaction, error) {
	raw, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return Decode(raw)
}

// Decode parses raw transaction bytes, trying each known consensus
// branch newest-to-oldest and returning the first structural parse that
// consumes the buffer exactly.
func Decode(raw []byte) (*Transaction, error) {
	for _, branch := range branchOrder {
		t, err := decodeBranch(raw, branch)
		if err == nil {
			return t, nil
		}
	}
	return nil, ErrUnknownBranch
}

// decodeBranch attempts a structural parse under a single branch.
// NU5-family branches use the v5 layout, which embeds the branch ID;
// the embedded value must match the candidate. Older branches use the
// v4 layout.
func decodeBranch(raw []byte, branch BranchID) (*Transaction, error) {
	r := bytes.NewReader(raw)

	var t *Transaction
	var err error
	switch branch {
	case NU6, NU5:
		t, err = parseV5(r, branch)
	default:
		t, err = parseV4(r, branch)
	}
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after transaction", r.Len())
	}

	t.raw = raw
	return t, nil
}

// parseV5 parses the ZIP 225 v5 transaction layout.
func parseV5(r *bytes.Reader, branch BranchID) (*Transaction, error) {
	t := &Transaction{Branch: branch}

	if err := binary.Read(r, binary.LittleEndian, &t.Version); err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}
	if t.Version&overwinteredFlag == 0 {
		return nil, fmt.Errorf("not an overwintered transaction (version=0x%08x)", t.Version)
	}
	if t.Version&^overwinteredFlag != 5 {
		return nil, fmt.Errorf("not a v5 transaction (version=%d)", t.Version&^overwinteredFlag)
	}

	if err := binary.Read(r, binary.LittleEndian, &t.VersionGroupID); err != nil {
		return nil, fmt.Errorf("reading version group id: %w", err)
	}
	if t.VersionGroupID != v5VersionGroupID {
		return nil, fmt.Errorf("bad v5 version group id 0x%08x", t.VersionGroupID)
	}

	var embedded uint32
	if err := binary.Read(r, binary.LittleEndian, &embedded); err != nil {
		return nil, fmt.Errorf("reading consensus branch id: %w", err)
	}
	if BranchID(embedded) != branch {
		return nil, fmt.Errorf("embedded branch id 0x%08x does not match 0x%08x", embedded, uint32(branch))
	}

	if err := binary.Read(r, binary.LittleEndian, &t.LockTime); err != nil {
		return nil, fmt.Errorf("reading lock time: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &t.ExpiryHeight); err != nil {
		return nil, fmt.Errorf("reading expiry height: %w", err)
	}

	var err error
	if t.Transparent, err = parseTransparentBundle(r); err != nil {
		return nil, fmt.Errorf("parsing transparent bundle: %w", err)
	}
	if t.Sapling, err = parseSaplingBundleV5(r); err != nil {
		return nil, fmt.Errorf("parsing sapling bundle: %w", err)
	}
	if t.Orchard, err = parseOrchardBundle(r); err != nil {
		return nil, fmt.Errorf("parsing orchard bundle: %w", err)
	}

	return t, nil
}

// parseTransparentBundle reads the transparent inputs and outputs.
// Returns nil when the transaction has neither.
func parseTransparentBundle(r *bytes.Reader) (*TransparentBundle, error) {
	numInputs, err := readCount(r, 41)
	if err != nil {
		return nil, fmt.Errorf("reading input count: %w", err)
	}

	b := &TransparentBundle{}
	b.Inputs = make([]TxIn, numInputs)
	for i := range b.Inputs {
		if err := parseTxIn(r, &b.Inputs[i]); err != nil {
			return nil, fmt.Errorf("parsing input %d: %w", i, err)
		}
	}

	numOutputs, err := readCount(r, 9)
	if err != nil {
		return nil, fmt.Errorf("reading output count: %w", err)
	}
	b.Outputs = make([]TxOut, numOutputs)
	for i := range b.Outputs {
		if err := parseTxOut(r, &b.Outputs[i]); err != nil {
			return nil, fmt.Errorf("parsing output %d: %w", i, err)
		}
	}

	if numInputs == 0 && numOutputs == 0 {
		return nil, nil
	}
	return b, nil
}

// parseTxIn reads a single transparent input.
func parseTxIn(r *bytes.Reader, txin *TxIn) error {
	if _, err := io.ReadFull(r, txin.PrevoutTxID[:]); err != nil {
		return fmt.Errorf("reading prevout txid: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &txin.PrevoutIndex); err != nil {
		return fmt.Errorf("reading prevout index: %w", err)
	}

	scriptLen, err := readCount(r, 1)
	if err != nil {
		return fmt.Errorf("reading scriptSig length: %w", err)
	}
	txin.ScriptSig = make([]byte, scriptLen)
	if _, err := io.ReadFull(r, txin.ScriptSig); err != nil {
		return fmt.Errorf("reading scriptSig: %w", err)
	}

	if err := binary.Read(r, binary.LittleEndian, &txin.Sequence); err != nil {
		return fmt.Errorf("reading sequence: %w", err)
	}
	return nil
}

// parseTxOut reads a single transparent output.
func parseTxOut(r *bytes.Reader, txout *TxOut) error {
	if err := binary.Read(r, binary.LittleEndian, &txout.Value); err != nil {
		return fmt.Errorf("reading value: %w", err)
	}

	scriptLen, err := readCount(r, 1)
	if err != nil {
		return fmt.Errorf("reading scriptPubKey length: %w", err)
	}
	txout.ScriptPubKey = make([]byte, scriptLen)
	if _, err := io.ReadFull(r, txout.ScriptPubKey); err != nil {
		return fmt.Errorf("reading scriptPubKey: %w", err)
	}
	return nil
}

// parseSaplingBundleV5 reads the v5 Sapling bundle. Unlike v4, the v5
// layout stores compact spend descriptors, a single shared anchor, and
// all proofs and signatures after the descriptors.
func parseSaplingBundleV5(r *bytes.Reader) (*SaplingBundle, error) {
	numSpends, err := readCount(r, 96)
	if err != nil {
		return nil, fmt.Errorf("reading spend count: %w", err)
	}

	b := &SaplingBundle{}
	b.Spends = make([]SaplingSpend, numSpends)
	for i := range b.Spends {
		spend := &b.Spends[i]
		if _, err := io.ReadFull(r, spend.CV[:]); err != nil {
			return nil, fmt.Errorf("reading spend cv: %w", err)
		}
		if _, err := io.ReadFull(r, spend.Nullifier[:]); err != nil {
			return nil, fmt.Errorf("reading spend nullifier: %w", err)
		}
		if _, err := io.ReadFull(r, spend.Rk[:]); err != nil {
			return nil, fmt.Errorf("reading spend rk: %w", err)
		}
	}

	numOutputs, err := readCount(r, 756)
	if err != nil {
		return nil, fmt.Errorf("reading output count: %w", err)
	}
	b.Outputs = make([]SaplingOutput, numOutputs)
	for i := range b.Outputs {
		out := &b.Outputs[i]
		if _, err := io.ReadFull(r, out.CV[:]); err != nil {
			return nil, fmt.Errorf("reading output cv: %w", err)
		}
		if _, err := io.ReadFull(r, out.Cmu[:]); err != nil {
			return nil, fmt.Errorf("reading output cmu: %w", err)
		}
		if _, err := io.ReadFull(r, out.EphemeralKey[:]); err != nil {
			return nil, fmt.Errorf("reading output ephemeral key: %w", err)
		}
		if _, err := io.ReadFull(r, out.EncCiphertext[:]); err != nil {
			return nil, fmt.Errorf("reading output enc ciphertext: %w", err)
		}
		if _, err := io.ReadFull(r, out.OutCiphertext[:]); err != nil {
			return nil, fmt.Errorf("reading output out ciphertext: %w", err)
		}
	}

	if numSpends == 0 && numOutputs == 0 {
		return nil, nil
	}

	if err := binary.Read(r, binary.LittleEndian, &b.ValueBalance); err != nil {
		return nil, fmt.Errorf("reading value balance: %w", err)
	}

	// Shared anchor, present only when there are spends. It is copied
	// into each spend so v4 and v5 bundles look alike downstream.
	if numSpends > 0 {
		var anchor [32]byte
		if _, err := io.ReadFull(r, anchor[:]); err != nil {
			return nil, fmt.Errorf("reading anchor: %w", err)
		}
		for i := range b.Spends {
			b.Spends[i].Anchor = anchor
		}
	}

	for i := range b.Spends {
		if _, err := io.ReadFull(r, b.Spends[i].Proof[:]); err != nil {
			return nil, fmt.Errorf("reading spend proof: %w", err)
		}
	}
	for i := range b.Spends {
		if _, err := io.ReadFull(r, b.Spends[i].SpendAuthSig[:]); err != nil {
			return nil, fmt.Errorf("reading spend auth sig: %w", err)
		}
	}
	for i := range b.Outputs {
		if _, err := io.ReadFull(r, b.Outputs[i].Proof[:]); err != nil {
			return nil, fmt.Errorf("reading output proof: %w", err)
		}
	}
	if _, err := io.ReadFull(r, b.BindingSig[:]); err != nil {
		return nil, fmt.Errorf("reading binding sig: %w", err)
	}

	return b, nil
}

// parseOrchardBundle reads the Orchard actions. Returns nil when the
// transaction has none.
func parseOrchardBundle(r *bytes.Reader) (*OrchardBundle, error) {
	numActions, err := readCount(r, 820)
	if err != nil {
		return nil, fmt.Errorf("reading action count: %w", err)
	}
	if numActions == 0 {
		return nil, nil
	}

	b := &OrchardBundle{}
	b.Actions = make([]OrchardAction, numActions)
	for i := range b.Actions {
		action := &b.Actions[i]
		if _, err := io.ReadFull(r, action.CV[:]); err != nil {
			return nil, fmt.Errorf("reading action cv: %w", err)
		}
		if _, err := io.ReadFull(r, action.Nullifier[:]); err != nil {
			return nil, fmt.Errorf("reading action nullifier: %w", err)
		}
		if _, err := io.ReadFull(r, action.Rk[:]); err != nil {
			return nil, fmt.Errorf("reading action rk: %w", err)
		}
		if _, err := io.ReadFull(r, action.Cmx[:]); err != nil {
			return nil, fmt.Errorf("reading action cmx: %w", err)
		}
		if _, err := io.ReadFull(r, action.EphemeralKey[:]); err != nil {
			return nil, fmt.Errorf("reading action ephemeral key: %w", err)
		}
		if _, err := io.ReadFull(r, action.EncCiphertext[:]); err != nil {
			return nil, fmt.Errorf("reading action enc ciphertext: %w", err)
		}
		if _, err := io.ReadFull(r, action.OutCiphertext[:]); err != nil {
			return nil, fmt.Errorf("reading action out ciphertext: %w", err)
		}
	}

	flags, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading flags: %w", err)
	}
	b.Flags = flags

	if err := binary.Read(r, binary.LittleEndian, &b.ValueBalance); err != nil {
		return nil, fmt.Errorf("reading value balance: %w", err)
	}
	if _, err := io.ReadFull(r, b.Anchor[:]); err != nil {
		return nil, fmt.Errorf("reading anchor: %w", err)
	}

	proofLen, err := readCount(r, 1)
	if err != nil {
		return nil, fmt.Errorf("reading proof length: %w", err)
	}
	b.Proof = make([]byte, proofLen)
	if _, err := io.ReadFull(r, b.Proof); err != nil {
		return nil, fmt.Errorf("reading proof: %w", err)
	}

	for i := range b.Actions {
		if _, err := io.ReadFull(r, b.Actions[i].SpendAuthSig[:]); err != nil {
			return nil, fmt.Errorf("reading action spend auth sig: %w", err)
		}
	}
	if _, err := io.ReadFull(r, b.BindingSig[:]); err != nil {
		return nil, fmt.Errorf("reading binding sig: %w", err)
	}

	return b, nil
}
