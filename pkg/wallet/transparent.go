package wallet

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/tyler-smith/go-bip32"
	"golang.org/x/crypto/ripemd160"

	"github.com/LeakIX/zcash-web-wallet/pkg/network"
)

// purposeBIP44 is the transparent derivation purpose.
const purposeBIP44 = uint32(44)

// transparentKeys holds the BIP-44 material the rest of the wallet
// needs: the account node (its chain code and public key go into the
// unified full viewing key) and the first external receive key.
type transparentKeys struct {
	accountChainCode []byte
	accountPubKey    []byte
	receivePubKey    []byte
}

// deriveTransparent walks m/44'/coin'/account' and then the external
// /0/0 receive slot.
func deriveTransparent(seed []byte, coinType, account uint32) (*transparentKeys, error) {
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpendingKeyDerivation, err)
	}
	acct := master
	for _, i := range []uint32{
		bip32.FirstHardenedChild + purposeBIP44,
		bip32.FirstHardenedChild + coinType,
		bip32.FirstHardenedChild + account,
	} {
		acct, err = acct.NewChildKey(i)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSpendingKeyDerivation, err)
		}
	}

	external, err := acct.NewChildKey(0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpendingKeyDerivation, err)
	}
	receive, err := external.NewChildKey(0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpendingKeyDerivation, err)
	}

	return &transparentKeys{
		accountChainCode: acct.ChainCode,
		accountPubKey:    compressedPubKey(acct.Key),
		receivePubKey:    compressedPubKey(receive.Key),
	}, nil
}

func compressedPubKey(privKey []byte) []byte {
	priv := secp256k1.PrivKeyFromBytes(privKey)
	return priv.PubKey().SerializeCompressed()
}

// transparentFVKItem is the 65-byte unified container payload for the
// transparent pool: account chain code followed by the compressed
// account public key.
func (t *transparentKeys) transparentFVKItem() []byte {
	item := make([]byte, 0, 65)
	item = append(item, t.accountChainCode...)
	item = append(item, t.accountPubKey...)
	return item
}

// encodeTransparentAddress renders a P2PKH address: a two-byte network
// prefix over HASH160 of the public key, base58check encoded.
func encodeTransparentAddress(net network.Network, pubKey []byte) (string, error) {
	prefix := net.P2PKHPrefix()
	payload := append(prefix[:], hash160(pubKey)...)
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return base58.Encode(append(payload, second[:4]...)), nil
}

func hash160(b []byte) []byte {
	sha := sha256.Sum256(b)
	h := ripemd160.New()
	h.Write(sha[:])
	return h.Sum(nil)
}
