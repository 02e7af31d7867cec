package btcwire

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// CommandSize is the fixed width of the command field of a message header.
const CommandSize = wire.CommandSize

// The command names of the messages this package can encode and decode.
const (
	CmdVersion = wire.CmdVersion
	CmdVerAck  = wire.CmdVerAck
)

// Command is the 12 byte, zero padded ASCII name in a message header that
// identifies what the payload holds.
type Command [CommandSize]byte

// NewCommand returns the zero padded wire form of name. The name must be at
// most CommandSize bytes of printable ASCII.
func NewCommand(name string) (Command, error) {
	var c Command
	if len(name) > CommandSize {
		return c, fmt.Errorf("%w: %q is longer than %d bytes",
			ErrInvalidCommand, name, CommandSize)
	}
	for i := 0; i < len(name); i++ {
		if name[i] < 0x21 || name[i] > 0x7e {
			return c, fmt.Errorf("%w: %q has a non printable byte "+
				"at %d", ErrInvalidCommand, name, i)
		}
	}
	copy(c[:], name)

	return c, nil
}

// mustCommand is NewCommand for names known to be valid at compile time.
func mustCommand(name string) Command {
	c, err := NewCommand(name)
	if err != nil {
		panic(err)
	}

	return c
}

var (
	// VersionCommand is the padded header command of a version message.
	VersionCommand = mustCommand(CmdVersion)

	// VerAckCommand is the padded header command of a verack message.
	VerAckCommand = mustCommand(CmdVerAck)
)

// String returns the command name without its zero padding.
func (c Command) String() string {
	return string(bytes.TrimRight(c[:], "\x00"))
}
