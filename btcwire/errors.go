package btcwire

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrTruncatedInput is returned when a parser needs more bytes than
	// remain in its buffer. It wraps io.ErrUnexpectedEOF so callers that
	// only care about end of stream conditions can test for that instead.
	ErrTruncatedInput = fmt.Errorf("btcwire: truncated input: %w",
		io.ErrUnexpectedEOF)

	// ErrInvalidAddressFamily is returned when an address that isn't IPv4
	// is given to, or found by, the network address codec.
	ErrInvalidAddressFamily = errors.New("btcwire: address is not IPv4")

	// ErrInvalidCommand is returned when a command name is longer than
	// CommandSize bytes or contains non printable ASCII.
	ErrInvalidCommand = errors.New("btcwire: invalid command name")

	// ErrWrongNetwork is returned when a message header carries the magic
	// of a network other than the one expected.
	ErrWrongNetwork = errors.New("btcwire: message from wrong network")

	// ErrChecksumMismatch is returned when a payload does not hash to the
	// checksum carried in its header.
	ErrChecksumMismatch = errors.New("btcwire: payload checksum mismatch")

	// ErrPayloadTooLarge is returned when a message declares or carries a
	// payload longer than MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("btcwire: payload too large")

	// ErrUserAgentTooLong is returned when a user agent exceeds
	// wire.MaxUserAgentLen bytes.
	ErrUserAgentTooLong = errors.New("btcwire: user agent too long")
)

// UnknownCommandError is returned by ReadMessage for a well formed message
// whose command this package has no payload codec for. The payload has been
// consumed from the stream when this error is returned.
type UnknownCommandError struct {
	// Command is the command found in the message header.
	Command Command
}

// Error returns a human readable string describing the error.
//
// This is part of the error interface.
func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("btcwire: unknown command %q", e.Command)
}
