// Package network defines the Zcash network parameters used for address
// and key encoding.
//
// Every textual encoding in Zcash is network-parameterized: unified
// containers carry a network-specific human-readable part (ZIP 316),
// transparent addresses carry a two-byte base58check version prefix, and
// shielded key derivation uses the network's SLIP-44 coin type.
package network

import "fmt"

// Network identifies a Zcash network.
type Network int

const (
	// Mainnet is the Zcash production network.
	Mainnet Network = iota
	// Testnet is the Zcash test network.
	Testnet
)

// Parse converts a network name ("main"/"mainnet" or "test"/"testnet")
// into a Network.
func Parse(s string) (Network, error) {
	switch s {
	case "main", "mainnet":
		return Mainnet, nil
	case "test", "testnet":
		return Testnet, nil
	}
	return 0, fmt.Errorf("unknown network %q", s)
}

// String returns the canonical network name.
func (n Network) String() string {
	if n == Mainnet {
		return "mainnet"
	}
	return "testnet"
}

// CoinType returns the SLIP-44 coin type used in derivation paths.
// Zcash mainnet is 133; all testnets share coin type 1.
func (n Network) CoinType() uint32 {
	if n == Mainnet {
		return 133
	}
	return 1
}

// AddressHRP returns the bech32m human-readable part for unified
// addresses (ZIP 316).
func (n Network) AddressHRP() string {
	if n == Mainnet {
		return "u"
	}
	return "utest"
}

// FVKHRP returns the human-readable part for unified full viewing keys.
func (n Network) FVKHRP() string {
	if n == Mainnet {
		return "uview"
	}
	return "uviewtest"
}

// IVKHRP returns the human-readable part for unified incoming viewing
// keys.
func (n Network) IVKHRP() string {
	if n == Mainnet {
		return "uivk"
	}
	return "uivktest"
}

// SaplingHRP returns the bech32 human-readable part for Sapling payment
// addresses.
func (n Network) SaplingHRP() string {
	if n == Mainnet {
		return "zs"
	}
	return "ztestsapling"
}

// SaplingViewingKeyHRP returns the human-readable part for legacy
// Sapling extended full viewing keys.
func (n Network) SaplingViewingKeyHRP() string {
	if n == Mainnet {
		return "zxviews"
	}
	return "zxviewtestsapling"
}

// P2PKHPrefix returns the two-byte base58check version prefix for
// transparent pay-to-public-key-hash addresses ("t1..." on mainnet,
// "tm..." on testnet).
func (n Network) P2PKHPrefix() [2]byte {
	if n == Mainnet {
		return [2]byte{0x1C, 0xB8}
	}
	return [2]byte{0x1D, 0x25}
}
