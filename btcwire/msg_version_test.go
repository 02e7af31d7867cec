package btcwire

import (
	"bytes"
	"net"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

const (
	// testTimestamp is a fixed unix time, 0x6553f100.
	testTimestamp = 1700000000

	// testNonce is a fixed nonce with distinct bytes so byte order mistakes
	// show up.
	testNonce = 0x0102030405060708

	// testProtocolVersion is the protocol version regtest nodes are
	// addressed with.
	testProtocolVersion = 60002
)

// testVersionPayload is the exact encoding of newTestVersion.
var testVersionPayload = []byte{
	// Protocol version 60002.
	0x62, 0xea, 0x00, 0x00,

	// Services, NODE_NETWORK.
	0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,

	// Timestamp.
	0x00, 0xf1, 0x53, 0x65, 0x00, 0x00, 0x00, 0x00,

	// addr_recv: services, ::ffff:127.0.0.1, port 18445.
	0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0xff, 0xff, 0x7f, 0x00, 0x00, 0x01,
	0x48, 0x0d,

	// addr_from placeholder.
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00,

	// Nonce.
	0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,

	// Empty user agent.
	0x00,

	// Start height.
	0x00, 0x00, 0x00, 0x00,

	// Relay.
	0x00,
}

func newTestVersion(t *testing.T) *MsgVersion {
	t.Helper()

	addr, err := NewNetAddress(
		0, netip.MustParseAddrPort("127.0.0.1:18445"),
	)
	require.NoError(t, err)

	return NewMsgVersion(
		testProtocolVersion, wire.SFNodeNetwork, testTimestamp, addr,
		testNonce,
	)
}

// TestMsgVersionEncodeLayout checks the version payload byte for byte,
// including the zero regions.
func TestMsgVersionEncodeLayout(t *testing.T) {
	t.Parallel()

	msg := newTestVersion(t)
	require.Equal(t, wire.SFNodeNetwork, msg.AddrRecv.Services)

	var b bytes.Buffer
	require.NoError(t, msg.Encode(&b))
	require.Equal(t, testVersionPayload, b.Bytes())
	require.Len(t, b.Bytes(), MinVersionPayloadSize+6)
}

// TestMsgVersionEnvelopeLayout checks the framed version message.
func TestMsgVersionEnvelopeLayout(t *testing.T) {
	t.Parallel()

	env, err := NewEnvelope(Regtest, newTestVersion(t))
	require.NoError(t, err)

	raw, err := env.Bytes()
	require.NoError(t, err)
	require.Len(t, raw, HeaderSize+len(testVersionPayload))

	sum := PayloadChecksum(testVersionPayload)

	var want []byte
	want = append(want, 0xfa, 0xbf, 0xb5, 0xda)
	want = append(want, "version\x00\x00\x00\x00\x00"...)
	want = append(want, 0x56, 0x00, 0x00, 0x00)
	want = append(want, sum[:]...)
	want = append(want, testVersionPayload...)
	require.Equal(t, want, raw)
}

// TestMsgVersionBtcdDecode makes sure btcd's reference codec accepts our
// version message and reads back every field.
func TestMsgVersionBtcdDecode(t *testing.T) {
	t.Parallel()

	var b bytes.Buffer
	_, err := WriteMessage(&b, Regtest, newTestVersion(t))
	require.NoError(t, err)

	msg, _, err := wire.ReadMessage(&b, wire.ProtocolVersion, wire.TestNet)
	require.NoError(t, err)
	require.Zero(t, b.Len())

	version, ok := msg.(*wire.MsgVersion)
	require.True(t, ok)
	require.EqualValues(t, testProtocolVersion, version.ProtocolVersion)
	require.Equal(t, wire.SFNodeNetwork, version.Services)
	require.Equal(t, int64(testTimestamp), version.Timestamp.Unix())
	require.True(t, version.AddrYou.IP.Equal(net.ParseIP("127.0.0.1")))
	require.EqualValues(t, 18445, version.AddrYou.Port)
	require.Equal(t, wire.SFNodeNetwork, version.AddrYou.Services)
	require.True(t, version.AddrMe.IP.Equal(net.IPv6zero))
	require.Zero(t, version.AddrMe.Port)
	require.EqualValues(t, testNonce, version.Nonce)
	require.Empty(t, version.UserAgent)
	require.Zero(t, version.LastBlock)
	require.True(t, version.DisableRelayTx)
}

// TestMsgVersionFromBtcd decodes a version message produced by btcd.
func TestMsgVersionFromBtcd(t *testing.T) {
	t.Parallel()

	you := wire.NewNetAddressIPPort(
		net.ParseIP("127.0.0.1"), 18445, wire.SFNodeNetwork,
	)
	me := wire.NewNetAddressIPPort(
		net.ParseIP("10.1.2.3"), 18444, wire.SFNodeWitness,
	)
	ref := wire.NewMsgVersion(me, you, 0xdeadbeef, 812)
	ref.Timestamp = time.Unix(testTimestamp, 0)

	var b bytes.Buffer
	require.NoError(t, wire.WriteMessage(
		&b, ref, wire.ProtocolVersion, wire.TestNet,
	))

	env, msg, err := ReadMessage(&b, Regtest)
	require.NoError(t, err)
	require.Equal(t, CmdVersion, env.Command.String())

	version, ok := msg.(*MsgVersion)
	require.True(t, ok)
	require.Equal(t, ref.ProtocolVersion, version.ProtocolVersion)
	require.Equal(t, ref.Services, version.Services)
	require.Equal(t, int64(testTimestamp), version.Timestamp)
	require.Equal(t, "127.0.0.1:18445", version.AddrRecv.String())
	require.Equal(t, wire.SFNodeNetwork, version.AddrRecv.Services)
	require.Equal(t, "10.1.2.3:18444", version.AddrFrom.String())
	require.Equal(t, wire.SFNodeWitness, version.AddrFrom.Services)
	require.Equal(t, uint64(0xdeadbeef), version.Nonce)
	require.Equal(t, ref.UserAgent, version.UserAgent)
	require.Equal(t, int32(812), version.StartHeight)
	require.Equal(t, fn.Some(true), version.Relay)
}

// TestMsgVersionRoundTrip checks that every field, including a sender
// address and user agent, survives encoding.
func TestMsgVersionRoundTrip(t *testing.T) {
	t.Parallel()

	msg := newTestVersion(t)
	msg.AddrFrom = NetAddress{
		Services: wire.SFNodeNetwork | wire.SFNodeWitness,
		AddrPort: netip.MustParseAddrPort("192.168.1.20:18444"),
	}
	msg.UserAgent = "/btcshake:0.1.0/"
	msg.StartHeight = -1
	msg.Relay = fn.Some(true)

	var b bytes.Buffer
	require.NoError(t, msg.Encode(&b))

	var decoded MsgVersion
	require.NoError(t, decoded.Decode(b.Bytes()))
	require.Equal(t, *msg, decoded)
}

// TestMsgVersionOptionalFields checks that the fields after the nonce may be
// left off, and that a field cut in half is an error.
func TestMsgVersionOptionalFields(t *testing.T) {
	t.Parallel()

	payload := bytes.Clone(testVersionPayload)
	payload[len(payload)-1] = 0x01

	tests := []struct {
		name   string
		length int
		relay  fn.Option[bool]
		err    error
	}{
		{"no user agent", MinVersionPayloadSize, fn.None[bool](), nil},
		{"no start height", MinVersionPayloadSize + 1, fn.None[bool](), nil},
		{
			"half start height", MinVersionPayloadSize + 3,
			fn.None[bool](), ErrTruncatedInput,
		},
		{"no relay", MinVersionPayloadSize + 5, fn.None[bool](), nil},
		{"relay", MinVersionPayloadSize + 6, fn.Some(true), nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var msg MsgVersion
			err := msg.Decode(payload[:test.length])
			if test.err != nil {
				require.ErrorIs(t, err, test.err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, uint64(testNonce), msg.Nonce)
			require.Empty(t, msg.UserAgent)
			require.Zero(t, msg.StartHeight)
			require.Equal(t, test.relay, msg.Relay)
		})
	}
}

// TestMsgVersionTruncated checks that every cut before the end of the nonce
// is reported as truncated input.
func TestMsgVersionTruncated(t *testing.T) {
	t.Parallel()

	for n := 0; n < MinVersionPayloadSize; n++ {
		var msg MsgVersion
		err := msg.Decode(testVersionPayload[:n])
		require.ErrorIs(t, err, ErrTruncatedInput, "length %d", n)
	}
}

// TestMsgVersionUserAgentLimit checks the user agent length bound on both
// sides of the codec.
func TestMsgVersionUserAgentLimit(t *testing.T) {
	t.Parallel()

	msg := newTestVersion(t)
	msg.UserAgent = strings.Repeat("a", wire.MaxUserAgentLen)

	var b bytes.Buffer
	require.NoError(t, msg.Encode(&b))

	var decoded MsgVersion
	require.NoError(t, decoded.Decode(b.Bytes()))
	require.Equal(t, msg.UserAgent, decoded.UserAgent)

	msg.UserAgent += "a"
	b.Reset()
	require.ErrorIs(t, msg.Encode(&b), ErrUserAgentTooLong)

	// Splice an oversized length prefix in after the nonce.
	payload := append(
		bytes.Clone(testVersionPayload[:MinVersionPayloadSize]),
		0xfd, 0x01, 0x01,
	)
	require.ErrorIs(t, decoded.Decode(payload), ErrUserAgentTooLong)
}

// TestMsgVersionInvalidAddress checks that a receiver address that isn't
// IPv4 fails both encoding and decoding.
func TestMsgVersionInvalidAddress(t *testing.T) {
	t.Parallel()

	msg := newTestVersion(t)
	msg.AddrRecv.AddrPort = netip.MustParseAddrPort("[::1]:18445")

	var b bytes.Buffer
	require.ErrorIs(t, msg.Encode(&b), ErrInvalidAddressFamily)

	payload := bytes.Clone(testVersionPayload)
	payload[20+8+10] = 0x00
	var decoded MsgVersion
	require.ErrorIs(t, decoded.Decode(payload), ErrInvalidAddressFamily)
}
