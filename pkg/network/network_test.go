package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Network
	}{
		{"main", Mainnet},
		{"mainnet", Mainnet},
		{"test", Testnet},
		{"testnet", Testnet},
	} {
		got, err := Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, err := Parse("regtest")
	assert.Error(t, err)
	_, err = Parse("")
	assert.Error(t, err)
}

func TestNetworkParameters(t *testing.T) {
	assert.Equal(t, uint32(133), Mainnet.CoinType())
	assert.Equal(t, uint32(1), Testnet.CoinType())

	assert.Equal(t, "u", Mainnet.AddressHRP())
	assert.Equal(t, "utest", Testnet.AddressHRP())
	assert.Equal(t, "uview", Mainnet.FVKHRP())
	assert.Equal(t, "uviewtest", Testnet.FVKHRP())
	assert.Equal(t, "uivk", Mainnet.IVKHRP())
	assert.Equal(t, "uivktest", Testnet.IVKHRP())

	assert.Equal(t, [2]byte{0x1C, 0xB8}, Mainnet.P2PKHPrefix())
	assert.Equal(t, [2]byte{0x1D, 0x25}, Testnet.P2PKHPrefix())

	assert.Equal(t, "mainnet", Mainnet.String())
	assert.Equal(t, "testnet", Testnet.String())
}
