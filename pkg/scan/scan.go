// Package scan runs viewing keys over decoded transactions and reports
// everything they can see: received notes, spent nullifiers and
// transparent outputs.
package scan

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/LeakIX/zcash-web-wallet/pkg/keys"
	"github.com/LeakIX/zcash-web-wallet/pkg/network"
	"github.com/LeakIX/zcash-web-wallet/pkg/orchard"
	"github.com/LeakIX/zcash-web-wallet/pkg/tx"
	"github.com/LeakIX/zcash-web-wallet/pkg/unified"
)

// Pool names a value pool inside a transaction.
type Pool string

const (
	PoolTransparent Pool = "transparent"
	PoolSapling     Pool = "sapling"
	PoolOrchard     Pool = "orchard"
)

// Note is one shielded output the viewing key could see. The
// commitment is plaintext in the bundle and always present; Value and
// Memo are only populated when the output actually decrypted, so a
// Sapling output enumerated without decryption capability reports a
// zero value.
type Note struct {
	Pool       Pool   `json:"pool"`
	Index      int    `json:"index"`
	Value      uint64 `json:"value"`
	Commitment []byte `json:"commitment"`
	Recipient  string `json:"recipient,omitempty"`
	Memo       string `json:"memo,omitempty"`
	Nullifier  []byte `json:"nullifier,omitempty"`
	Decrypted  bool   `json:"decrypted"`
}

// Spend is a nullifier revealed by the transaction. It marks some note
// as spent without identifying the note.
type Spend struct {
	Pool      Pool   `json:"pool"`
	Index     int    `json:"index"`
	Nullifier []byte `json:"nullifier"`
}

// TransparentOutput is one visible output.
type TransparentOutput struct {
	Index  int    `json:"index"`
	Value  uint64 `json:"value"`
	Script []byte `json:"script"`
}

// Result is everything one scan pass produced for one transaction.
type Result struct {
	TxID               string              `json:"txid"`
	Notes              []Note              `json:"notes"`
	Spends             []Spend             `json:"spends"`
	TransparentOutputs []TransparentOutput `json:"transparent_outputs,omitempty"`
	TransparentValue   uint64              `json:"transparent_value"`
}

// Scanner applies one resolved viewing key to transactions. The
// Cryptosystem is optional: without it Orchard actions are enumerated
// but never decrypted, mirroring the Sapling behavior.
type Scanner struct {
	net network.Network
	vk  *keys.ViewingKey
	cs  orchard.Cryptosystem
}

// New builds a scanner for one viewing key. cs may be nil.
func New(net network.Network, vk *keys.ViewingKey, cs orchard.Cryptosystem) *Scanner {
	return &Scanner{net: net, vk: vk, cs: cs}
}

// Scan collects notes and transparent outputs for every pool the
// viewing key has capability for. Nullifiers are public chain data
// and are reported for every shielded pool regardless of what the key
// can see.
func (s *Scanner) Scan(t *tx.Transaction) (*Result, error) {
	res := &Result{
		TxID:   t.TxIDString(),
		Notes:  []Note{},
		Spends: []Spend{},
	}
	if spends := ExtractNullifiers(t); spends != nil {
		res.Spends = spends
	}

	if s.vk.Capabilities.Transparent {
		s.scanTransparent(t, res)
	}
	if s.vk.Capabilities.Sapling {
		s.scanSapling(t, res)
	}
	if s.vk.Capabilities.Orchard {
		if err := s.scanOrchard(t, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (s *Scanner) scanTransparent(t *tx.Transaction, res *Result) {
	if t.Transparent == nil {
		return
	}
	for i, out := range t.Transparent.Outputs {
		res.TransparentOutputs = append(res.TransparentOutputs, TransparentOutput{
			Index:  i,
			Value:  out.Value,
			Script: out.ScriptPubKey,
		})
		res.TransparentValue += out.Value
	}
}

// scanSapling enumerates outputs without decrypting. Sapling trial
// decryption needs Jubjub arithmetic this module does not carry, so
// outputs are surfaced with zero value for the caller to resolve.
func (s *Scanner) scanSapling(t *tx.Transaction, res *Result) {
	if t.Sapling == nil {
		return
	}
	for i := range t.Sapling.Outputs {
		res.Notes = append(res.Notes, Note{
			Pool:       PoolSapling,
			Index:      i,
			Commitment: append([]byte(nil), t.Sapling.Outputs[i].Cmu[:]...),
		})
	}
}

func (s *Scanner) scanOrchard(t *tx.Transaction, res *Result) error {
	if t.Orchard == nil {
		return nil
	}

	ivk, fvk := s.orchardKeys()
	if ivk == nil || s.cs == nil {
		// No usable decryption material: enumerate actions so the
		// caller still learns the transaction touches the pool.
		for i := range t.Orchard.Actions {
			res.Notes = append(res.Notes, Note{
				Pool:       PoolOrchard,
				Index:      i,
				Commitment: append([]byte(nil), t.Orchard.Actions[i].Cmx[:]...),
			})
		}
		return nil
	}

	pivk := orchard.PrepareIncomingViewingKey(s.cs, ivk)

	// Trial decryption is independent per action, so actions fan out
	// to goroutines and land in a preallocated slice by index.
	notes := make([]*orchard.Note, len(t.Orchard.Actions))
	var wg sync.WaitGroup
	for i := range t.Orchard.Actions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if n, ok := pivk.TryDecrypt(&t.Orchard.Actions[i]); ok {
				notes[i] = n
			}
		}(i)
	}
	wg.Wait()

	for i, n := range notes {
		entry := Note{
			Pool:       PoolOrchard,
			Index:      i,
			Commitment: append([]byte(nil), t.Orchard.Actions[i].Cmx[:]...),
		}
		if n != nil {
			entry.Decrypted = true
			entry.Value = n.Value
			entry.Memo = decodeMemo(n.Memo)
			if addr, err := s.orchardRecipient(ivk, n.Diversifier); err == nil {
				entry.Recipient = addr
			}
			if fvk != nil {
				nf, err := s.cs.DeriveNullifier(fvk, n)
				if err != nil {
					return fmt.Errorf("deriving nullifier for action %d: %w", i, err)
				}
				entry.Nullifier = nf[:]
			}
		}
		res.Notes = append(res.Notes, entry)
	}

	return nil
}

// orchardKeys resolves the incoming viewing key to decrypt with, and
// the full viewing key when nullifier derivation is possible.
func (s *Scanner) orchardKeys() (*orchard.IncomingViewingKey, *orchard.FullViewingKey) {
	if s.vk.OrchardFVK != nil {
		if s.cs == nil {
			return nil, s.vk.OrchardFVK
		}
		ivk, err := s.cs.DeriveIncomingViewingKey(s.vk.OrchardFVK, orchard.External)
		if err != nil {
			return nil, s.vk.OrchardFVK
		}
		return ivk, s.vk.OrchardFVK
	}
	return s.vk.OrchardIVK, nil
}

// orchardRecipient re-derives the receiver the note was addressed to
// and renders it as a single-item unified address.
func (s *Scanner) orchardRecipient(ivk *orchard.IncomingViewingKey, d [11]byte) (string, error) {
	recv, err := s.cs.Receiver(ivk, d)
	if err != nil {
		return "", err
	}
	return unified.Encode(s.net.AddressHRP(), []unified.Item{
		{Typecode: unified.TypecodeOrchard, Data: recv[:]},
	})
}

// decodeMemo strips trailing zero padding and returns the memo as text
// when it is valid UTF-8, empty otherwise.
func decodeMemo(memo [orchard.MemoSize]byte) string {
	trimmed := orchard.TrimMemo(memo)
	if len(trimmed) == 0 || !utf8.Valid(trimmed) {
		return ""
	}
	return string(trimmed)
}

// ExtractNullifiers collects every nullifier a transaction reveals,
// across all shielded pools, without needing a viewing key.
func ExtractNullifiers(t *tx.Transaction) []Spend {
	var spends []Spend
	if t.Sapling != nil {
		for i, sp := range t.Sapling.Spends {
			spends = append(spends, Spend{
				Pool:      PoolSapling,
				Index:     i,
				Nullifier: append([]byte(nil), sp.Nullifier[:]...),
			})
		}
	}
	if t.Orchard != nil {
		for i, a := range t.Orchard.Actions {
			spends = append(spends, Spend{
				Pool:      PoolOrchard,
				Index:     i,
				Nullifier: append([]byte(nil), a.Nullifier[:]...),
			})
		}
	}
	return spends
}
