package btcwire

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

// Chain identifies the bitcoin network a peer belongs to. Every chain maps to
// one fixed magic value which prefixes all of its messages.
type Chain uint8

const (
	// Regtest is the local regression test network.
	Regtest Chain = iota

	// Testnet3 is the public test network.
	Testnet3

	// Mainnet is the main bitcoin network.
	Mainnet

	// Simnet is the btcd simulation test network.
	Simnet
)

// Params returns the btcd chain parameters for the chain. Unknown chains
// resolve to nil.
func (c Chain) Params() *chaincfg.Params {
	switch c {
	case Regtest:
		return &chaincfg.RegressionNetParams
	case Testnet3:
		return &chaincfg.TestNet3Params
	case Mainnet:
		return &chaincfg.MainNetParams
	case Simnet:
		return &chaincfg.SimNetParams
	default:
		return nil
	}
}

// Magic returns the 4 byte network identifier written at the front of every
// message on this chain.
func (c Chain) Magic() uint32 {
	params := c.Params()
	if params == nil {
		return 0
	}

	return uint32(params.Net)
}

// DefaultPort returns the peer to peer port nodes on this chain listen on by
// default.
func (c Chain) DefaultPort() string {
	params := c.Params()
	if params == nil {
		return ""
	}

	return params.DefaultPort
}

// String returns the name used for the chain on the command line.
func (c Chain) String() string {
	switch c {
	case Regtest:
		return "regtest"
	case Testnet3:
		return "testnet3"
	case Mainnet:
		return "mainnet"
	case Simnet:
		return "simnet"
	default:
		return fmt.Sprintf("<unknown chain %d>", uint8(c))
	}
}

// ParseChain looks a chain up by the name returned from String.
func ParseChain(name string) (Chain, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "regtest":
		return Regtest, nil
	case "testnet3", "testnet":
		return Testnet3, nil
	case "mainnet":
		return Mainnet, nil
	case "simnet":
		return Simnet, nil
	default:
		return 0, fmt.Errorf("unknown chain %q", name)
	}
}

// ChainFromMagic returns the chain whose magic value is magic.
func ChainFromMagic(magic uint32) (Chain, bool) {
	for _, c := range []Chain{Regtest, Testnet3, Mainnet, Simnet} {
		if c.Magic() == magic {
			return c, true
		}
	}

	return 0, false
}
