package handshake

import "fmt"

// State is the stage a handshake attempt has reached.
type State uint8

const (
	// StateInit is the state of a session that hasn't written anything.
	StateInit State = iota

	// StateVersionSent is entered once our version message has been
	// written to the transport.
	StateVersionSent

	// StateAwaitingAck is entered once the version message has been
	// flushed and we are waiting on the peer's answer.
	StateAwaitingAck

	// StateEstablished is the terminal state of a successful handshake.
	StateEstablished

	// StateFailed is the terminal state of a failed handshake. The cause
	// is available from Session.Err.
	StateFailed
)

// String returns a human readable name for the state.
func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateVersionSent:
		return "VersionSent"
	case StateAwaitingAck:
		return "AwaitingAck"
	case StateEstablished:
		return "Established"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("<unknown state %d>", uint8(s))
	}
}

// IsTerminal returns true if no further transitions can happen from s.
func (s State) IsTerminal() bool {
	return s == StateEstablished || s == StateFailed
}
