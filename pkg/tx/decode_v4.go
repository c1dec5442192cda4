package tx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// parseV4 parses the Sapling-era v4 transaction layout (protocol spec
// §7.1). The v4 format carries no consensus branch ID; the caller's
// trial branch is recorded on the result.
//
// Layout: header | transparent | lock_time | expiry | value_balance |
// spends | outputs | joinsplits | [joinsplit sig] | [binding sig].
// Unlike v5, spend descriptors are self-contained (per-spend anchor,
// inline proof and signature).
func parseV4(r *bytes.Reader, branch BranchID) (*Transaction, error) {
	t := &Transaction{Branch: branch}

	if err := binary.Read(r, binary.LittleEndian, &t.Version); err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}
	if t.Version&overwinteredFlag == 0 {
		return nil, fmt.Errorf("not an overwintered transaction (version=0x%08x)", t.Version)
	}
	if t.Version&^overwinteredFlag != 4 {
		return nil, fmt.Errorf("not a v4 transaction (version=%d)", t.Version&^overwinteredFlag)
	}

	if err := binary.Read(r, binary.LittleEndian, &t.VersionGroupID); err != nil {
		return nil, fmt.Errorf("reading version group id: %w", err)
	}
	if t.VersionGroupID != v4VersionGroupID {
		return nil, fmt.Errorf("bad v4 version group id 0x%08x", t.VersionGroupID)
	}

	var err error
	if t.Transparent, err = parseTransparentBundle(r); err != nil {
		return nil, fmt.Errorf("parsing transparent bundle: %w", err)
	}

	if err := binary.Read(r, binary.LittleEndian, &t.LockTime); err != nil {
		return nil, fmt.Errorf("reading lock time: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &t.ExpiryHeight); err != nil {
		return nil, fmt.Errorf("reading expiry height: %w", err)
	}

	if t.Sapling, err = parseSaplingBundleV4(r); err != nil {
		return nil, fmt.Errorf("parsing sapling bundle: %w", err)
	}
	if t.Sprout, err = parseSproutBundle(r); err != nil {
		return nil, fmt.Errorf("parsing joinsplits: %w", err)
	}

	if t.Sapling != nil {
		if _, err := io.ReadFull(r, t.Sapling.BindingSig[:]); err != nil {
			return nil, fmt.Errorf("reading binding sig: %w", err)
		}
	}

	return t, nil
}

// parseSaplingBundleV4 reads the v4 Sapling value balance, spends and
// outputs. The trailing binding signature is read by the caller because
// it comes after the JoinSplit section.
func parseSaplingBundleV4(r *bytes.Reader) (*SaplingBundle, error) {
	b := &SaplingBundle{}
	if err := binary.Read(r, binary.LittleEndian, &b.ValueBalance); err != nil {
		return nil, fmt.Errorf("reading value balance: %w", err)
	}

	numSpends, err := readCount(r, 384)
	if err != nil {
		return nil, fmt.Errorf("reading spend count: %w", err)
	}
	b.Spends = make([]SaplingSpend, numSpends)
	for i := range b.Spends {
		spend := &b.Spends[i]
		if _, err := io.ReadFull(r, spend.CV[:]); err != nil {
			return nil, fmt.Errorf("reading spend cv: %w", err)
		}
		if _, err := io.ReadFull(r, spend.Anchor[:]); err != nil {
			return nil, fmt.Errorf("reading spend anchor: %w", err)
		}
		if _, err := io.ReadFull(r, spend.Nullifier[:]); err != nil {
			return nil, fmt.Errorf("reading spend nullifier: %w", err)
		}
		if _, err := io.ReadFull(r, spend.Rk[:]); err != nil {
			return nil, fmt.Errorf("reading spend rk: %w", err)
		}
		if _, err := io.ReadFull(r, spend.Proof[:]); err != nil {
			return nil, fmt.Errorf("reading spend proof: %w", err)
		}
		if _, err := io.ReadFull(r, spend.SpendAuthSig[:]); err != nil {
			return nil, fmt.Errorf("reading spend auth sig: %w", err)
		}
	}

	numOutputs, err := readCount(r, 948)
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
		if _, err := io.ReadFull(r, out.Proof[:]); err != nil {
			return nil, fmt.Errorf("reading output proof: %w", err)
		}
	}

	if numSpends == 0 && numOutputs == 0 {
		if b.ValueBalance != 0 {
			return nil, fmt.Errorf("nonzero value balance without sapling descriptors")
		}
		return nil, nil
	}
	return b, nil
}

// parseSproutBundle reads the legacy JoinSplit section of a v4
// transaction. Returns nil when there are none.
func parseSproutBundle(r *bytes.Reader) (*SproutBundle, error) {
	numJoinSplits, err := readCount(r, 1698)
	if err != nil {
		return nil, fmt.Errorf("reading joinsplit count: %w", err)
	}
	if numJoinSplits == 0 {
		return nil, nil
	}

	b := &SproutBundle{}
	b.JoinSplits = make([]JoinSplit, numJoinSplits)
	for i := range b.JoinSplits {
		js := &b.JoinSplits[i]
		if err := binary.Read(r, binary.LittleEndian, &js.VPubOld); err != nil {
			return nil, fmt.Errorf("reading vpub_old: %w", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &js.VPubNew); err != nil {
			return nil, fmt.Errorf("reading vpub_new: %w", err)
		}
		if _, err := io.ReadFull(r, js.Anchor[:]); err != nil {
			return nil, fmt.Errorf("reading anchor: %w", err)
		}
		for j := range js.Nullifiers {
			if _, err := io.ReadFull(r, js.Nullifiers[j][:]); err != nil {
				return nil, fmt.Errorf("reading nullifier: %w", err)
			}
		}
		for j := range js.Commitments {
			if _, err := io.ReadFull(r, js.Commitments[j][:]); err != nil {
				return nil, fmt.Errorf("reading commitment: %w", err)
			}
		}
		if _, err := io.ReadFull(r, js.EphemeralKey[:]); err != nil {
			return nil, fmt.Errorf("reading ephemeral key: %w", err)
		}
		if _, err := io.ReadFull(r, js.RandomSeed[:]); err != nil {
			return nil, fmt.Errorf("reading random seed: %w", err)
		}
		for j := range js.Macs {
			if _, err := io.ReadFull(r, js.Macs[j][:]); err != nil {
				return nil, fmt.Errorf("reading mac: %w", err)
			}
		}
		if _, err := io.ReadFull(r, js.Proof[:]); err != nil {
			return nil, fmt.Errorf("reading proof: %w", err)
		}
		for j := range js.Ciphertexts {
			if _, err := io.ReadFull(r, js.Ciphertexts[j][:]); err != nil {
				return nil, fmt.Errorf("reading ciphertext: %w", err)
			}
		}
	}

	if _, err := io.ReadFull(r, b.PubKey[:]); err != nil {
		return nil, fmt.Errorf("reading joinsplit pubkey: %w", err)
	}
	if _, err := io.ReadFull(r, b.JoinSplitSig[:]); err != nil {
		return nil, fmt.Errorf("reading joinsplit sig: %w", err)
	}

	return b, nil
}
