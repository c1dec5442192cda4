package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/LeakIX/zcash-web-wallet/pkg/keys"
	"github.com/LeakIX/zcash-web-wallet/pkg/unified"
)

// deriveShielded fills in the Sapling and Orchard credentials plus the
// unified containers that tie the pools together. t may be nil when
// the transparent leg failed to derive; the containers then carry the
// shielded items only.
func (w *Wallet) deriveShielded(seed []byte, account uint32, t *transparentKeys, info *Info) error {
	coinType := w.net.CoinType()

	sk, err := keys.DeriveOrchardSpendingKey(seed, coinType, account)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpendingKeyDerivation, err)
	}
	orchardFVK, err := w.deriver.OrchardFullViewingKey(sk)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpendingKeyDerivation, err)
	}
	orchardReceiver, err := w.deriver.OrchardReceiver(orchardFVK)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAddressGeneration, err)
	}

	saplingDFVK, err := w.deriver.SaplingDiversifiableFullViewingKey(seed, coinType, account)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpendingKeyDerivation, err)
	}
	saplingReceiver, err := w.deriver.SaplingReceiver(saplingDFVK)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAddressGeneration, err)
	}

	saplingAddr, err := encodeSaplingAddress(w.net.SaplingHRP(), saplingReceiver)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAddressGeneration, err)
	}
	info.SaplingAddress = saplingAddr

	orchardFVKBytes := orchardFVK.Bytes()
	fvkItems := []unified.Item{
		{Typecode: unified.TypecodeSapling, Data: saplingDFVK[:]},
		{Typecode: unified.TypecodeOrchard, Data: orchardFVKBytes[:]},
	}
	addrItems := []unified.Item{
		{Typecode: unified.TypecodeSapling, Data: saplingReceiver[:]},
		{Typecode: unified.TypecodeOrchard, Data: orchardReceiver[:]},
	}
	if t != nil {
		fvkItems = append(fvkItems,
			unified.Item{Typecode: unified.TypecodeP2PKH, Data: t.transparentFVKItem()})
		addrItems = append(addrItems,
			unified.Item{Typecode: unified.TypecodeP2PKH, Data: hash160(t.receivePubKey)})
	}

	ufvk, err := unified.Encode(w.net.FVKHRP(), fvkItems)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAddressGeneration, err)
	}
	info.UnifiedFullViewingKey = ufvk

	ua, err := unified.Encode(w.net.AddressHRP(), addrItems)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAddressGeneration, err)
	}
	info.UnifiedAddress = ua

	return nil
}

// encodeSaplingAddress renders a 43-byte Sapling receiver with classic
// bech32, as the standalone address format predates bech32m.
func encodeSaplingAddress(hrp string, receiver [43]byte) (string, error) {
	converted, err := bech32.ConvertBits(receiver[:], 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, converted)
}
