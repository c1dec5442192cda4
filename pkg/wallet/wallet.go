// Package wallet derives deterministic multi-pool credentials from a
// BIP-39 seed phrase: a transparent address, shielded receivers, a
// unified address and a unified full viewing key.
package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"github.com/LeakIX/zcash-web-wallet/pkg/keys"
	"github.com/LeakIX/zcash-web-wallet/pkg/network"
)

var (
	// ErrInvalidSeedPhrase marks a phrase that fails BIP-39 word-list
	// or checksum validation.
	ErrInvalidSeedPhrase = errors.New("invalid seed phrase")
	// ErrMnemonicGeneration marks rejected or unusable entropy.
	ErrMnemonicGeneration = errors.New("mnemonic generation failed")
	// ErrSpendingKeyDerivation marks a failure anywhere along a key
	// derivation chain.
	ErrSpendingKeyDerivation = errors.New("spending key derivation failed")
	// ErrAddressGeneration marks a failure to encode a derived key
	// into an address.
	ErrAddressGeneration = errors.New("address generation failed")
)

// Info is the full credential set for one wallet account. Shielded
// fields are empty when no key deriver was supplied; the transparent
// address is empty when the transparent leg could not be derived.
type Info struct {
	Mnemonic              string `json:"mnemonic"`
	Network               string `json:"network"`
	Account               uint32 `json:"account"`
	TransparentAddress    string `json:"transparent_address,omitempty"`
	SaplingAddress        string `json:"sapling_address,omitempty"`
	UnifiedAddress        string `json:"unified_address,omitempty"`
	UnifiedFullViewingKey string `json:"unified_full_viewing_key,omitempty"`
}

// Wallet derives credentials on one network. The Deriver supplies the
// curve arithmetic for the shielded pools and may be nil, in which
// case only transparent credentials come out.
type Wallet struct {
	net     network.Network
	deriver keys.Deriver
}

// New builds a wallet deriver for a network.
func New(net network.Network, deriver keys.Deriver) *Wallet {
	return &Wallet{net: net, deriver: deriver}
}

// Generate turns 32 bytes of caller-supplied entropy into a 24-word
// phrase and derives account 0 from it. The same entropy always yields
// the same wallet.
func (w *Wallet) Generate(entropy []byte) (*Info, error) {
	if len(entropy) != 32 {
		return nil, fmt.Errorf("%w: need 32 bytes of entropy, got %d", ErrMnemonicGeneration, len(entropy))
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMnemonicGeneration, err)
	}
	return w.derive(mnemonic, 0)
}

// Restore validates an existing phrase and derives account 0 from it.
// Surrounding and internal whitespace is normalized before validation
// so phrases survive copy-paste.
func (w *Wallet) Restore(phrase string) (*Info, error) {
	mnemonic := strings.Join(strings.Fields(phrase), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidSeedPhrase
	}
	return w.derive(mnemonic, 0)
}

// derive turns a validated mnemonic into the account's credentials.
func (w *Wallet) derive(mnemonic string, account uint32) (*Info, error) {
	seed := bip39.NewSeed(mnemonic, "")

	info := &Info{
		Mnemonic: mnemonic,
		Network:  w.net.String(),
		Account:  account,
	}

	// The transparent leg is optional: if BIP-32 derivation or the
	// address encoding fails, the wallet comes out shielded-only with
	// the transparent address absent.
	t, err := deriveTransparent(seed, w.net.CoinType(), account)
	if err != nil {
		t = nil
	} else if addr, err := encodeTransparentAddress(w.net, t.receivePubKey); err == nil {
		info.TransparentAddress = addr
	}

	if w.deriver == nil {
		return info, nil
	}
	if err := w.deriveShielded(seed, account, t, info); err != nil {
		return nil, err
	}
	return info, nil
}
