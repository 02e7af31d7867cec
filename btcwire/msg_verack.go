package btcwire

import (
	"bytes"
)

// MsgVerAck acknowledges a version message. It has an empty payload.
type MsgVerAck struct{}

// A compile time check to ensure MsgVerAck implements the Message interface.
var _ Message = (*MsgVerAck)(nil)

// Command returns the command the message is sent under.
//
// This is part of the Message interface.
func (m *MsgVerAck) Command() Command {
	return VerAckCommand
}

// Encode writes nothing, a verack has no payload.
//
// This is part of the Message interface.
func (m *MsgVerAck) Encode(w *bytes.Buffer) error {
	return nil
}

// Decode accepts any payload. Peers are not expected to attach one, and
// anything they do attach carries no meaning.
//
// This is part of the Message interface.
func (m *MsgVerAck) Decode(payload []byte) error {
	return nil
}
