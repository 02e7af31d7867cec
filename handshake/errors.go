package handshake

import (
	"errors"
	"fmt"

	"github.com/lightningnetwork/btcshake/btcwire"
)

var (
	// ErrSelfConnection is returned when the peer's version message
	// carries the nonce we sent, meaning we dialed ourselves.
	ErrSelfConnection = errors.New("handshake: connected to self")

	// ErrTooManyMessages is returned when the peer sends more messages we
	// don't understand than Config.MaxIgnoredMessages allows before
	// completing the handshake.
	ErrTooManyMessages = errors.New("handshake: too many unexpected " +
		"messages")

	// ErrDuplicateVersion is returned when the peer sends a second version
	// message.
	ErrDuplicateVersion = errors.New("handshake: duplicate version message")

	// ErrObsoletePeer is returned when the peer's protocol version is below
	// Config.MinProtocolVersion.
	ErrObsoletePeer = errors.New("handshake: peer protocol version too old")

	// ErrSessionUsed is returned when Run is called on a session that
	// has already run.
	ErrSessionUsed = errors.New("handshake: session already used")
)

// CommandMismatchError is returned when the peer answers with a message other
// than the one the handshake expects next.
type CommandMismatchError struct {
	// Expected is the command that was expected.
	Expected string

	// Got is the command found in the peer's message header.
	Got btcwire.Command
}

// Error returns a human readable string describing the error.
//
// This is part of the error interface.
func (e *CommandMismatchError) Error() string {
	return fmt.Sprintf("handshake: expected %q message, got %q",
		e.Expected, e.Got)
}

// TransportError is returned when reading from or writing to the transport
// fails. It unwraps to the underlying I/O error.
type TransportError struct {
	// Op is the failed operation, such as "read" or "write".
	Op string

	// Err is the error returned by the transport.
	Err error
}

// Error returns a human readable string describing the error.
//
// This is part of the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("handshake: transport %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *TransportError) Unwrap() error {
	return e.Err
}
