package handshake

import (
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/btcshake/btcwire"
	"github.com/lightningnetwork/lnd/clock"
)

const (
	// DefaultProtocolVersion is the protocol version announced when none
	// is configured.
	DefaultProtocolVersion = 60002

	// DefaultMaxIgnoredMessages is the number of messages with unknown
	// commands tolerated during a full exchange.
	DefaultMaxIgnoredMessages = 16
)

// Config holds the parameters of a handshake attempt.
type Config struct {
	// Chain selects the network magic our messages are framed with and
	// the magic expected on the peer's messages.
	Chain btcwire.Chain

	// ProtocolVersion is the protocol version we announce.
	ProtocolVersion int32

	// Services is the set of services we announce, also used for the
	// receiver address.
	Services wire.ServiceFlag

	// UserAgent is announced in our version message. It may be empty.
	UserAgent string

	// StartHeight is the best block height we announce.
	StartHeight int32

	// Relay is the transaction relay preference we announce.
	Relay bool

	// Clock provides the timestamp of our version message.
	Clock clock.Clock

	// Nonce returns the random nonce for our version message.
	Nonce func() (uint64, error)

	// Timeout bounds the whole attempt when the transport supports
	// deadlines. Zero means no limit beyond the context's.
	Timeout time.Duration

	// FullExchange makes the session wait for the peer's version and
	// verack, answering the version with a verack of our own. Without it
	// the handshake completes as soon as the peer's reply header names a
	// version message.
	FullExchange bool

	// MaxIgnoredMessages bounds the number of messages with unknown
	// commands skipped during a full exchange.
	MaxIgnoredMessages int

	// MinProtocolVersion is the lowest protocol version accepted from the
	// peer during a full exchange. Zero accepts any version.
	MinProtocolVersion int32
}

// DefaultConfig returns a Config for a regtest node announcing NODE_NETWORK
// with the default protocol version.
func DefaultConfig() Config {
	return Config{
		Chain:              btcwire.Regtest,
		ProtocolVersion:    DefaultProtocolVersion,
		Services:           wire.SFNodeNetwork,
		Clock:              clock.NewDefaultClock(),
		Nonce:              wire.RandomUint64,
		MaxIgnoredMessages: DefaultMaxIgnoredMessages,
	}
}

// validate checks the config and fills in the collaborators left nil.
func (c *Config) validate() error {
	if c.Chain.Params() == nil {
		return fmt.Errorf("unknown chain %v", c.Chain)
	}
	if c.ProtocolVersion <= 0 {
		return fmt.Errorf("invalid protocol version %d",
			c.ProtocolVersion)
	}
	if len(c.UserAgent) > wire.MaxUserAgentLen {
		return fmt.Errorf("%w: %d bytes", btcwire.ErrUserAgentTooLong,
			len(c.UserAgent))
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if c.MaxIgnoredMessages < 0 {
		return errors.New("max ignored messages must not be negative")
	}

	if c.Clock == nil {
		c.Clock = clock.NewDefaultClock()
	}
	if c.Nonce == nil {
		c.Nonce = wire.RandomUint64
	}

	return nil
}
