package btcwire

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

const (
	// HeaderSize is the size of the fixed header in front of every
	// payload: magic, command, length and checksum.
	HeaderSize = wire.MessageHeaderSize

	// MaxPayloadSize is the largest payload a header may announce.
	MaxPayloadSize = wire.MaxMessagePayload
)

// Envelope is a framed message as it travels on the wire.
type Envelope struct {
	// Magic identifies the network the message belongs to.
	Magic uint32

	// Command names the payload type.
	Command Command

	// Length is the payload size in bytes.
	Length uint32

	// Checksum is the first ChecksumSize bytes of the double SHA-256 of
	// the payload.
	Checksum [ChecksumSize]byte

	// Payload is the message body. It is nil for an envelope returned
	// from DecodeHeader.
	Payload []byte
}

// NewEnvelope encodes msg and frames it for chain, filling in the length and
// checksum from the encoded payload.
func NewEnvelope(chain Chain, msg Message) (*Envelope, error) {
	if chain.Params() == nil {
		return nil, fmt.Errorf("cannot frame message for %v", chain)
	}

	var payload bytes.Buffer
	if err := msg.Encode(&payload); err != nil {
		return nil, fmt.Errorf("unable to encode %v payload: %w",
			msg.Command(), err)
	}
	if payload.Len() > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %v payload is %d bytes, max is %d",
			ErrPayloadTooLarge, msg.Command(), payload.Len(),
			MaxPayloadSize)
	}

	return &Envelope{
		Magic:    chain.Magic(),
		Command:  msg.Command(),
		Length:   uint32(payload.Len()),
		Checksum: PayloadChecksum(payload.Bytes()),
		Payload:  payload.Bytes(),
	}, nil
}

// Encode writes the header followed by the payload to w. The length field is
// written as stored, so callers building envelopes by hand must keep it in
// step with the payload.
func (e *Envelope) Encode(w *bytes.Buffer) error {
	if len(e.Payload) > MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge,
			len(e.Payload))
	}

	if err := WriteLE(w, e.Magic); err != nil {
		return err
	}
	if err := WriteBytes(w, e.Command[:]); err != nil {
		return err
	}
	if err := WriteLE(w, e.Length); err != nil {
		return err
	}
	if err := WriteBytes(w, e.Checksum[:]); err != nil {
		return err
	}

	return WriteBytes(w, e.Payload)
}

// Bytes returns the encoded envelope.
func (e *Envelope) Bytes() ([]byte, error) {
	var b bytes.Buffer
	if err := e.Encode(&b); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// DecodeHeader parses the HeaderSize byte header at the front of buf and
// returns it as an envelope without a payload, along with the bytes after
// the header. No field is validated here.
func DecodeHeader(buf []byte) (*Envelope, []byte, error) {
	header, rest, err := Take(buf, HeaderSize)
	if err != nil {
		return nil, buf, err
	}

	var env Envelope

	env.Magic, header, _ = TakeLE[uint32](header)
	cmd, header, _ := Take(header, CommandSize)
	copy(env.Command[:], cmd)
	env.Length, header, _ = TakeLE[uint32](header)
	copy(env.Checksum[:], header)

	return &env, rest, nil
}
