package btcwire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
)

// Message is a payload that can be carried in an Envelope. Each message type
// owns its payload encoding independently.
type Message interface {
	// Decode parses the message from its payload bytes.
	Decode(payload []byte) error

	// Encode writes the message payload to w.
	Encode(w *bytes.Buffer) error

	// Command returns the header command the message is sent under.
	Command() Command
}

// makeEmptyMessage creates a new empty message of the proper concrete type
// based on the passed command.
func makeEmptyMessage(cmd Command) (Message, error) {
	var msg Message

	switch cmd.String() {
	case CmdVersion:
		msg = &MsgVersion{}
	case CmdVerAck:
		msg = &MsgVerAck{}
	default:
		return nil, &UnknownCommandError{Command: cmd}
	}

	return msg, nil
}

// WriteMessage frames msg for chain and writes it to w in a single Write
// call. It returns the number of bytes written.
func WriteMessage(w io.Writer, chain Chain, msg Message) (int, error) {
	env, err := NewEnvelope(chain, msg)
	if err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	if err := env.Encode(&buf); err != nil {
		return 0, err
	}

	log.Tracef("Writing %v message (%d byte payload, checksum %x)",
		env.Command, env.Length, env.Checksum)

	return w.Write(buf.Bytes())
}

// ReadMessage reads the next complete message from r and checks it against
// chain. The magic must match, the declared length must not exceed
// MaxPayloadSize and the payload must hash to the header checksum. Messages
// with a command this package doesn't know are read in full and reported
// with an *UnknownCommandError along with their envelope.
func ReadMessage(r io.Reader, chain Chain) (*Envelope, Message, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, nil, err
	}

	env, _, err := DecodeHeader(header[:])
	if err != nil {
		return nil, nil, err
	}

	if env.Magic != chain.Magic() {
		return env, nil, fmt.Errorf("%w: got magic %#08x, %v uses "+
			"%#08x", ErrWrongNetwork, env.Magic, chain,
			chain.Magic())
	}
	if env.Length > MaxPayloadSize {
		return env, nil, fmt.Errorf("%w: header declares %d bytes, "+
			"max is %d", ErrPayloadTooLarge, env.Length,
			MaxPayloadSize)
	}

	payload := make([]byte, env.Length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return env, nil, err
	}
	env.Payload = payload

	if err := VerifyChecksum(payload, env.Checksum); err != nil {
		return env, nil, err
	}

	msg, err := makeEmptyMessage(env.Command)
	if err != nil {
		return env, nil, err
	}
	if err := msg.Decode(payload); err != nil {
		return env, nil, fmt.Errorf("unable to decode %v payload: %w",
			env.Command, err)
	}

	log.Tracef("Read %v message (%d byte payload): %v", env.Command,
		env.Length, newLogClosure(func() string {
			return spew.Sdump(msg)
		}))

	return env, msg, nil
}
