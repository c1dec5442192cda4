// ZIP 244 transaction identifiers.
//
// v5 transactions take their txid from a tree of personalized BLAKE2b-256
// digests over the parsed bundles (ZIP 244); v4 transactions use the
// legacy double-SHA256 of the raw serialization. Txids are displayed
// byte-reversed, Bitcoin style.
//
// Reference: ZIP 244: https://zips.z.cash/zip-0244
package tx

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"

	blake2b "github.com/minio/blake2b-simd"
)

// ZIP 244 personalization strings.
const (
	txHashPersonalizationPrefix = "ZcashTxHash_"

	headerDigestPersonalization      = "ZTxIdHeadersHash"
	transparentDigestPersonalization = "ZTxIdTranspaHash"
	saplingDigestPersonalization     = "ZTxIdSaplingHash"
	orchardDigestPersonalization     = "ZTxIdOrchardHash"

	prevoutDigestPersonalization  = "ZTxIdPrevoutHash"
	sequenceDigestPersonalization = "ZTxIdSequencHash"
	outputsDigestPersonalization  = "ZTxIdOutputsHash"

	saplingSpendsDigestPersonalization      = "ZTxIdSSpendsHash"
	saplingSpendsCompactPersonalization     = "ZTxIdSSpendCHash"
	saplingSpendsNoncompactPersonalization  = "ZTxIdSSpendNHash"
	saplingOutputsDigestPersonalization     = "ZTxIdSOutputHash"
	saplingOutputsCompactPersonalization    = "ZTxIdSOutC__Hash"
	saplingOutputsMemosPersonalization      = "ZTxIdSOutM__Hash"
	saplingOutputsNoncompactPersonalization = "ZTxIdSOutN__Hash"

	orchardActionsCompactPersonalization    = "ZTxIdOrcActCHash"
	orchardActionsMemosPersonalization      = "ZTxIdOrcActMHash"
	orchardActionsNoncompactPersonalization = "ZTxIdOrcActNHash"
)

// blake2bNew256 creates a BLAKE2b-256 hash with the given ZIP 244
// personalization. The personalization is a distinct BLAKE2b parameter,
// not a key.
func blake2bNew256(personalization string) hash.Hash {
	h, err := blake2b.New(&blake2b.Config{
		Size:   32,
		Person: []byte(personalization),
	})
	if err != nil {
		panic("tx: bad blake2b personalization: " + err.Error())
	}
	return h
}

func finish(h hash.Hash) [32]byte {
	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

// TxID computes the transaction identifier. The result is in internal
// byte order; use TxIDString for the conventional reversed display form.
func (t *Transaction) TxID() [32]byte {
	if t.IsV5() {
		return t.txidV5()
	}
	// Legacy txid: double SHA-256 over the raw serialization.
	first := sha256.Sum256(t.raw)
	return sha256.Sum256(first[:])
}

// TxIDString returns the txid as byte-reversed hex, the form block
// explorers and RPC interfaces use.
func (t *Transaction) TxIDString() string {
	id := t.TxID()
	for i, j := 0, len(id)-1; i < j; i, j = i+1, j-1 {
		id[i], id[j] = id[j], id[i]
	}
	return hex.EncodeToString(id[:])
}

// txidV5 computes the ZIP 244 txid:
// BLAKE2b-256("ZcashTxHash_" || branch, header || transparent || sapling || orchard).
func (t *Transaction) txidV5() [32]byte {
	personalization := make([]byte, 16)
	copy(personalization, txHashPersonalizationPrefix)
	binary.LittleEndian.PutUint32(personalization[12:], uint32(t.Branch))

	h, err := blake2b.New(&blake2b.Config{Size: 32, Person: personalization})
	if err != nil {
		panic("tx: bad blake2b personalization: " + err.Error())
	}

	header := t.headerDigest()
	transparent := t.transparentDigest()
	sapling := t.saplingDigest()
	orchard := t.orchardDigest()

	h.Write(header[:])
	h.Write(transparent[:])
	h.Write(sapling[:])
	h.Write(orchard[:])
	return finish(h)
}

// headerDigest computes T.1: the digest over the five header fields.
func (t *Transaction) headerDigest() [32]byte {
	h := blake2bNew256(headerDigestPersonalization)
	binary.Write(h, binary.LittleEndian, t.Version)
	binary.Write(h, binary.LittleEndian, t.VersionGroupID)
	binary.Write(h, binary.LittleEndian, uint32(t.Branch))
	binary.Write(h, binary.LittleEndian, t.LockTime)
	binary.Write(h, binary.LittleEndian, t.ExpiryHeight)
	return finish(h)
}

// transparentDigest computes T.2. An absent transparent bundle hashes
// to the bare personalized empty digest.
func (t *Transaction) transparentDigest() [32]byte {
	h := blake2bNew256(transparentDigestPersonalization)
	if t.Transparent == nil {
		return finish(h)
	}

	prevouts := blake2bNew256(prevoutDigestPersonalization)
	sequence := blake2bNew256(sequenceDigestPersonalization)
	for _, in := range t.Transparent.Inputs {
		prevouts.Write(in.PrevoutTxID[:])
		binary.Write(prevouts, binary.LittleEndian, in.PrevoutIndex)
		binary.Write(sequence, binary.LittleEndian, in.Sequence)
	}

	outputs := blake2bNew256(outputsDigestPersonalization)
	for _, out := range t.Transparent.Outputs {
		binary.Write(outputs, binary.LittleEndian, out.Value)
		writeCompactSize(outputs, uint64(len(out.ScriptPubKey)))
		outputs.Write(out.ScriptPubKey)
	}

	for _, sub := range []hash.Hash{prevouts, sequence, outputs} {
		d := finish(sub)
		h.Write(d[:])
	}
	return finish(h)
}

// saplingDigest computes T.3 from the parsed Sapling bundle.
func (t *Transaction) saplingDigest() [32]byte {
	h := blake2bNew256(saplingDigestPersonalization)
	if t.Sapling == nil {
		return finish(h)
	}

	spends := t.saplingSpendsDigest()
	outputs := t.saplingOutputsDigest()
	h.Write(spends[:])
	h.Write(outputs[:])
	binary.Write(h, binary.LittleEndian, t.Sapling.ValueBalance)
	return finish(h)
}

func (t *Transaction) saplingSpendsDigest() [32]byte {
	h := blake2bNew256(saplingSpendsDigestPersonalization)
	if len(t.Sapling.Spends) == 0 {
		return finish(h)
	}

	compact := blake2bNew256(saplingSpendsCompactPersonalization)
	noncompact := blake2bNew256(saplingSpendsNoncompactPersonalization)
	for _, spend := range t.Sapling.Spends {
		compact.Write(spend.Nullifier[:])
		noncompact.Write(spend.CV[:])
		noncompact.Write(spend.Anchor[:])
		noncompact.Write(spend.Rk[:])
	}

	c := finish(compact)
	n := finish(noncompact)
	h.Write(c[:])
	h.Write(n[:])
	return finish(h)
}

func (t *Transaction) saplingOutputsDigest() [32]byte {
	h := blake2bNew256(saplingOutputsDigestPersonalization)
	if len(t.Sapling.Outputs) == 0 {
		return finish(h)
	}

	compact := blake2bNew256(saplingOutputsCompactPersonalization)
	memos := blake2bNew256(saplingOutputsMemosPersonalization)
	noncompact := blake2bNew256(saplingOutputsNoncompactPersonalization)
	for _, out := range t.Sapling.Outputs {
		compact.Write(out.Cmu[:])
		compact.Write(out.EphemeralKey[:])
		compact.Write(out.EncCiphertext[:52])
		memos.Write(out.EncCiphertext[52:564])
		noncompact.Write(out.CV[:])
		noncompact.Write(out.EncCiphertext[564:])
		noncompact.Write(out.OutCiphertext[:])
	}

	for _, sub := range []hash.Hash{compact, memos, noncompact} {
		d := finish(sub)
		h.Write(d[:])
	}
	return finish(h)
}

// orchardDigest computes T.4:
// BLAKE2b-256("ZTxIdOrchardHash", compact || memos || noncompact ||
// flags || valueBalance || anchor).
func (t *Transaction) orchardDigest() [32]byte {
	h := blake2bNew256(orchardDigestPersonalization)
	if t.Orchard == nil {
		return finish(h)
	}

	compact := blake2bNew256(orchardActionsCompactPersonalization)
	memos := blake2bNew256(orchardActionsMemosPersonalization)
	noncompact := blake2bNew256(orchardActionsNoncompactPersonalization)
	for _, action := range t.Orchard.Actions {
		compact.Write(action.Nullifier[:])
		compact.Write(action.Cmx[:])
		compact.Write(action.EphemeralKey[:])
		compact.Write(action.EncCiphertext[:52])
		memos.Write(action.EncCiphertext[52:564])
		noncompact.Write(action.CV[:])
		noncompact.Write(action.Rk[:])
		noncompact.Write(action.EncCiphertext[564:])
		noncompact.Write(action.OutCiphertext[:])
	}

	for _, sub := range []hash.Hash{compact, memos, noncompact} {
		d := finish(sub)
		h.Write(d[:])
	}
	h.Write([]byte{t.Orchard.Flags})
	binary.Write(h, binary.LittleEndian, t.Orchard.ValueBalance)
	h.Write(t.Orchard.Anchor[:])
	return finish(h)
}
