package keys

import "github.com/LeakIX/zcash-web-wallet/pkg/orchard"

// Deriver turns deterministic key material into the curve-level keys
// and receivers the shielded pools need. The arithmetic behind it
// (Pallas for Orchard, Jubjub for Sapling) lives outside this module,
// so wallet code takes it as a collaborator. A nil Deriver yields
// transparent-only credentials.
type Deriver interface {
	// OrchardFullViewingKey derives the 96-byte full viewing key for a
	// spending key.
	OrchardFullViewingKey(sk OrchardSpendingKey) (*orchard.FullViewingKey, error)

	// OrchardReceiver derives the account's default 43-byte Orchard
	// receiver from its full viewing key.
	OrchardReceiver(fvk *orchard.FullViewingKey) ([orchard.ReceiverSize]byte, error)

	// SaplingDiversifiableFullViewingKey derives the 128-byte Sapling
	// DFVK for an account from the wallet seed.
	SaplingDiversifiableFullViewingKey(seed []byte, coinType, account uint32) ([128]byte, error)

	// SaplingReceiver derives the account's default 43-byte Sapling
	// receiver from its DFVK.
	SaplingReceiver(dfvk [128]byte) ([43]byte, error)
}
