package btcwire

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// MinVersionPayloadSize is the size of the fields every version message
// carries. The user agent, start height and relay flag that follow were
// added by later protocol versions and may be absent.
const MinVersionPayloadSize = 4 + 8 + 8 + 2*NetAddressSize + 8

// MsgVersion is the first message a node sends on a new connection. It
// announces the protocol version and services of the sender along with
// enough state for the receiver to decide whether to keep talking.
type MsgVersion struct {
	// ProtocolVersion is the highest protocol version the sender speaks.
	ProtocolVersion int32

	// Services is the set of services the sender offers.
	Services wire.ServiceFlag

	// Timestamp is the sender's clock in unix seconds.
	Timestamp int64

	// AddrRecv is the address of the node the message is sent to.
	AddrRecv NetAddress

	// AddrFrom is the address of the sender. A zero value is encoded as
	// 26 zero bytes, which is what peers that don't know their own address
	// send.
	AddrFrom NetAddress

	// Nonce is a random value used to detect connections to self.
	Nonce uint64

	// UserAgent identifies the sender's software. It may be empty.
	UserAgent string

	// StartHeight is the height of the sender's best block.
	StartHeight int32

	// Relay is the sender's transaction relay preference. It is None when
	// the field was absent from a decoded message, and is encoded as 0 when
	// None.
	Relay fn.Option[bool]
}

// A compile time check to ensure MsgVersion implements the Message interface.
var _ Message = (*MsgVersion)(nil)

// NewMsgVersion returns a version message addressed to addrRecv. The
// receiving address advertises the same services as the sender, the start
// height is zero and the relay flag is encoded as false.
func NewMsgVersion(protocolVersion int32, services wire.ServiceFlag,
	timestamp int64, addrRecv NetAddress, nonce uint64) *MsgVersion {

	addrRecv.Services = services

	return &MsgVersion{
		ProtocolVersion: protocolVersion,
		Services:        services,
		Timestamp:       timestamp,
		AddrRecv:        addrRecv,
		Nonce:           nonce,
		Relay:           fn.None[bool](),
	}
}

// Command returns the command the message is sent under.
//
// This is part of the Message interface.
func (m *MsgVersion) Command() Command {
	return VersionCommand
}

// Encode writes the version payload to w.
//
// This is part of the Message interface.
func (m *MsgVersion) Encode(w *bytes.Buffer) error {
	if len(m.UserAgent) > wire.MaxUserAgentLen {
		return fmt.Errorf("%w: %d bytes, max is %d",
			ErrUserAgentTooLong, len(m.UserAgent),
			wire.MaxUserAgentLen)
	}

	if err := WriteLE(w, m.ProtocolVersion); err != nil {
		return err
	}
	if err := WriteLE(w, m.Services); err != nil {
		return err
	}
	if err := WriteLE(w, m.Timestamp); err != nil {
		return err
	}
	if err := m.AddrRecv.Encode(w); err != nil {
		return fmt.Errorf("addr_recv: %w", err)
	}

	if m.AddrFrom.AddrPort.IsValid() {
		if err := m.AddrFrom.Encode(w); err != nil {
			return fmt.Errorf("addr_from: %w", err)
		}
	} else {
		var zero [NetAddressSize]byte
		if err := WriteBytes(w, zero[:]); err != nil {
			return err
		}
	}

	if err := WriteLE(w, m.Nonce); err != nil {
		return err
	}

	// The protocol version argument is unused by WriteVarString, an empty
	// string is written as the single byte 0x00.
	if err := wire.WriteVarString(w, 0, m.UserAgent); err != nil {
		return err
	}

	if err := WriteLE(w, m.StartHeight); err != nil {
		return err
	}

	var relay uint8
	if m.Relay.UnwrapOr(false) {
		relay = 1
	}

	return WriteUint8(w, relay)
}

// Decode parses a version payload. Fields added after the nonce are optional;
// any that are missing keep their zero value and Relay is left as None.
// Bytes past the relay flag are ignored.
//
// This is part of the Message interface.
func (m *MsgVersion) Decode(payload []byte) error {
	var (
		msg  MsgVersion
		rest = payload
		err  error
	)

	msg.ProtocolVersion, rest, err = TakeLE[int32](rest)
	if err != nil {
		return fmt.Errorf("protocol version: %w", err)
	}
	msg.Services, rest, err = TakeLE[wire.ServiceFlag](rest)
	if err != nil {
		return fmt.Errorf("services: %w", err)
	}
	msg.Timestamp, rest, err = TakeLE[int64](rest)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	msg.AddrRecv, rest, err = DecodeNetAddress(rest)
	if err != nil {
		return fmt.Errorf("addr_recv: %w", err)
	}
	msg.AddrFrom, rest, err = DecodeNetAddress(rest)
	if err != nil {
		return fmt.Errorf("addr_from: %w", err)
	}
	msg.Nonce, rest, err = TakeLE[uint64](rest)
	if err != nil {
		return fmt.Errorf("nonce: %w", err)
	}
	msg.Relay = fn.None[bool]()

	if len(rest) == 0 {
		*m = msg
		return nil
	}
	msg.UserAgent, rest, err = takeUserAgent(rest)
	if err != nil {
		return fmt.Errorf("user agent: %w", err)
	}

	if len(rest) == 0 {
		*m = msg
		return nil
	}
	msg.StartHeight, rest, err = TakeLE[int32](rest)
	if err != nil {
		return fmt.Errorf("start height: %w", err)
	}

	if len(rest) > 0 {
		msg.Relay = fn.Some(rest[0] != 0)
	}

	*m = msg

	return nil
}

// takeUserAgent reads a var_str user agent from the front of buf.
func takeUserAgent(buf []byte) (string, []byte, error) {
	length, rest, err := TakeVarInt(buf)
	if err != nil {
		return "", buf, err
	}
	if length > wire.MaxUserAgentLen {
		return "", buf, fmt.Errorf("%w: %d bytes, max is %d",
			ErrUserAgentTooLong, length, wire.MaxUserAgentLen)
	}

	ua, rest, err := Take(rest, int(length))
	if err != nil {
		return "", buf, err
	}

	return string(ua), rest, nil
}
