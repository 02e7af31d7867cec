package btcwire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestChainMagic pins the magic value and default port of each chain.
func TestChainMagic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		chain Chain
		name  string
		magic uint32
		port  string
	}{
		{Regtest, "regtest", 0xdab5bffa, "18444"},
		{Testnet3, "testnet3", 0x0709110b, "18333"},
		{Mainnet, "mainnet", 0xd9b4bef9, "8333"},
		{Simnet, "simnet", 0x12141c16, "18555"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.magic, test.chain.Magic())
			require.Equal(t, test.port, test.chain.DefaultPort())
			require.Equal(t, test.name, test.chain.String())

			parsed, err := ParseChain(test.name)
			require.NoError(t, err)
			require.Equal(t, test.chain, parsed)

			fromMagic, ok := ChainFromMagic(test.magic)
			require.True(t, ok)
			require.Equal(t, test.chain, fromMagic)
		})
	}
}

// TestChainUnknown checks how values outside the enum are handled.
func TestChainUnknown(t *testing.T) {
	t.Parallel()

	unknown := Chain(42)
	require.Nil(t, unknown.Params())
	require.Zero(t, unknown.Magic())
	require.Empty(t, unknown.DefaultPort())

	_, err := ParseChain("signet")
	require.Error(t, err)

	_, ok := ChainFromMagic(0xdeadbeef)
	require.False(t, ok)

	chain, err := ParseChain(" Testnet ")
	require.NoError(t, err)
	require.Equal(t, Testnet3, chain)
}
