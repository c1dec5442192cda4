// Package keys resolves viewing-key strings and derives deterministic
// key material for wallet accounts.
//
// A viewing key arrives as text in one of three formats: a unified full
// viewing key container, a unified incoming viewing key container, or a
// legacy Sapling extended viewing key. The formats are incompatible but
// describe the same logical thing — which pools a wallet may look into —
// so parsing produces a single Capabilities value plus whatever Orchard
// key material the container carried.
package keys

import (
	"errors"
	"fmt"
	"strings"

	"github.com/LeakIX/zcash-web-wallet/pkg/network"
	"github.com/LeakIX/zcash-web-wallet/pkg/orchard"
	"github.com/LeakIX/zcash-web-wallet/pkg/unified"
)

// ErrUnrecognizedViewingKey is returned when a viewing-key string
// matches none of the supported formats.
var ErrUnrecognizedViewingKey = errors.New("unrecognized viewing key format")

// Kind identifies which textual format a viewing key was parsed from.
type Kind int

const (
	// KindUnifiedFull is a unified full viewing key container.
	KindUnifiedFull Kind = iota
	// KindUnifiedIncoming is a unified incoming viewing key container.
	// Incoming keys decrypt received notes but cannot derive
	// nullifiers.
	KindUnifiedIncoming
	// KindLegacySapling is a bare Sapling extended full viewing key.
	KindLegacySapling
)

// Capabilities is the set of pools a viewing key grants visibility
// into. It is built once per parse and never mutated.
type Capabilities struct {
	Transparent bool
	Sapling     bool
	Orchard     bool
}

// ViewingKey is a resolved viewing key: its capability set and any
// Orchard material usable for trial decryption.
type ViewingKey struct {
	Kind         Kind
	Capabilities Capabilities

	// OrchardFVK is set when a unified full viewing key carried an
	// Orchard item. It enables both decryption and nullifier
	// derivation.
	OrchardFVK *orchard.FullViewingKey

	// OrchardIVK is set when a unified incoming viewing key carried an
	// Orchard item. Decryption only; spent-note visibility stays off.
	OrchardIVK *orchard.IncomingViewingKey
}

// ParseViewingKey resolves a viewing-key string against a network,
// trying the unified full container, the unified incoming container,
// and the legacy Sapling prefix, in that order.
func ParseViewingKey(s string, net network.Network) (*ViewingKey, error) {
	s = strings.TrimSpace(s)

	if c, err := unified.Decode(net.FVKHRP(), s); err == nil {
		return resolveUnifiedFull(c)
	}
	if c, err := unified.Decode(net.IVKHRP(), s); err == nil {
		return resolveUnifiedIncoming(c)
	}
	if strings.HasPrefix(s, net.SaplingViewingKeyHRP()) {
		return &ViewingKey{
			Kind:         KindLegacySapling,
			Capabilities: Capabilities{Sapling: true},
		}, nil
	}

	return nil, ErrUnrecognizedViewingKey
}

// resolveUnifiedFull maps container items to capabilities. Unknown
// typecodes are skipped: unified containers are explicitly extensible
// and a newer item type must not make older software reject the key.
func resolveUnifiedFull(c *unified.Container) (*ViewingKey, error) {
	vk := &ViewingKey{Kind: KindUnifiedFull}
	for _, item := range c.Items {
		switch item.Typecode {
		case unified.TypecodeP2PKH, unified.TypecodeP2SH:
			vk.Capabilities.Transparent = true
		case unified.TypecodeSapling:
			vk.Capabilities.Sapling = true
		case unified.TypecodeOrchard:
			fvk, err := orchard.FullViewingKeyFromBytes(item.Data)
			if err != nil {
				return nil, fmt.Errorf("parsing orchard item: %w", err)
			}
			vk.Capabilities.Orchard = true
			vk.OrchardFVK = fvk
		}
	}
	return vk, nil
}

func resolveUnifiedIncoming(c *unified.Container) (*ViewingKey, error) {
	vk := &ViewingKey{Kind: KindUnifiedIncoming}
	for _, item := range c.Items {
		switch item.Typecode {
		case unified.TypecodeP2PKH, unified.TypecodeP2SH:
			vk.Capabilities.Transparent = true
		case unified.TypecodeSapling:
			vk.Capabilities.Sapling = true
		case unified.TypecodeOrchard:
			ivk, err := orchard.IncomingViewingKeyFromBytes(item.Data)
			if err != nil {
				return nil, fmt.Errorf("parsing orchard item: %w", err)
			}
			vk.Capabilities.Orchard = true
			vk.OrchardIVK = ivk
		}
	}
	return vk, nil
}
