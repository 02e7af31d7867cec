package handshake

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/btcshake/btcwire"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"
)

const (
	// testNonce is the nonce every test session sends.
	testNonce = 0x0102030405060708

	// testTimestamp is the time of the test clock, in unix seconds.
	testTimestamp = 1700000000
)

// testPeer is the address of the peer in every test.
var testPeer = netip.MustParseAddrPort("127.0.0.1:18445")

// newTestConfig returns a config with a fixed clock and nonce.
func newTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Clock = clock.NewTestClock(time.Unix(testTimestamp, 0))
	cfg.Nonce = func() (uint64, error) {
		return testNonce, nil
	}

	return cfg
}

// newTestSession returns a session built from cfg.
func newTestSession(t *testing.T, cfg Config) *Session {
	t.Helper()

	sess, err := NewSession(cfg)
	require.NoError(t, err)

	return sess
}

// scriptedTransport replays canned input and records everything written to
// it.
type scriptedTransport struct {
	in       *bytes.Reader
	reader   io.Reader
	out      bytes.Buffer
	writeErr error
	flushes  int
}

func newScriptedTransport(in []byte) *scriptedTransport {
	return &scriptedTransport{in: bytes.NewReader(in)}
}

// withReader makes the transport read through wrap(in), for readers that
// change how the canned input is delivered.
func (s *scriptedTransport) withReader(
	wrap func(io.Reader) io.Reader) *scriptedTransport {

	s.reader = wrap(s.in)
	return s
}

func (s *scriptedTransport) Read(p []byte) (int, error) {
	if s.reader != nil {
		return s.reader.Read(p)
	}

	return s.in.Read(p)
}

func (s *scriptedTransport) Write(p []byte) (int, error) {
	if s.writeErr != nil {
		return 0, s.writeErr
	}

	return s.out.Write(p)
}

func (s *scriptedTransport) Flush() error {
	s.flushes++
	return nil
}

// header returns a 24 byte regtest message header carrying cmd.
func header(cmd btcwire.Command) []byte {
	env := &btcwire.Envelope{
		Magic:    btcwire.Regtest.Magic(),
		Command:  cmd,
		Checksum: btcwire.PayloadChecksum(nil),
	}

	var b bytes.Buffer
	if err := env.Encode(&b); err != nil {
		panic(err)
	}

	return b.Bytes()
}

// btcdPeer plays the remote side of a handshake over a pipe using btcd's
// wire package.
type btcdPeer struct {
	t    *testing.T
	conn net.Conn
}

// newPipe returns our end of a pipe and a peer driving the other end. Both
// ends are closed when the test ends.
func newPipe(t *testing.T) (net.Conn, *btcdPeer) {
	t.Helper()

	local, remote := net.Pipe()
	t.Cleanup(func() {
		_ = local.Close()
		_ = remote.Close()
	})

	return local, &btcdPeer{t: t, conn: remote}
}

// run executes script in a goroutine and returns a channel carrying its
// result.
func (p *btcdPeer) run(script func(p *btcdPeer) error) <-chan error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- script(p)
	}()

	return errChan
}

// read reads one message.
func (p *btcdPeer) read() (wire.Message, error) {
	msg, _, err := wire.ReadMessage(p.conn, wire.ProtocolVersion, wire.TestNet)
	return msg, err
}

// write writes one message.
func (p *btcdPeer) write(msg wire.Message) error {
	return wire.WriteMessage(p.conn, msg, wire.ProtocolVersion, wire.TestNet)
}

// version returns a version message from the peer with the given nonce.
func (p *btcdPeer) version(nonce uint64) *wire.MsgVersion {
	me := wire.NewNetAddressIPPort(
		net.ParseIP("127.0.0.1"), 18445, wire.SFNodeNetwork,
	)
	you := wire.NewNetAddressIPPort(
		net.ParseIP("127.0.0.1"), 50000, wire.SFNodeNetwork,
	)
	msg := wire.NewMsgVersion(me, you, nonce, 144)
	msg.Services = wire.SFNodeNetwork | wire.SFNodeWitness

	return msg
}

// handshake plays a well behaved peer: it reads our version, answers with its
// own, reads our verack, sends noise the session must skip and acknowledges.
func (p *btcdPeer) handshake(noise ...wire.Message) error {
	msg, err := p.read()
	if err != nil {
		return err
	}
	if _, ok := msg.(*wire.MsgVersion); !ok {
		return io.ErrUnexpectedEOF
	}

	if err := p.write(p.version(0xcafe)); err != nil {
		return err
	}

	msg, err = p.read()
	if err != nil {
		return err
	}
	if _, ok := msg.(*wire.MsgVerAck); !ok {
		return io.ErrUnexpectedEOF
	}

	for _, m := range noise {
		if err := p.write(m); err != nil {
			return err
		}
	}

	return p.write(wire.NewMsgVerAck())
}

// waitPeer returns the result of a peer script, failing the test if it
// doesn't finish.
func waitPeer(t *testing.T, errChan <-chan error) error {
	t.Helper()

	select {
	case err := <-errChan:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("peer script did not finish")
		return nil
	}
}

// testContext returns a context that is cancelled when the test ends.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return ctx
}
