package handshake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"time"

	"github.com/btcsuite/btclog/v2"
	"github.com/davecgh/go-spew/spew"
	"github.com/lightningnetwork/btcshake/btcwire"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// aLongTimeAgo is a deadline in the past, used to unblock pending I/O when
// the context of a handshake is cancelled.
var aLongTimeAgo = time.Unix(1, 0)

// Flusher is implemented by buffered transports. The session flushes after
// each message it writes.
type Flusher interface {
	Flush() error
}

// Deadliner is implemented by transports that can bound blocking I/O, such as
// net.Conn.
type Deadliner interface {
	SetDeadline(t time.Time) error
}

// Session is a single outbound handshake attempt. A session is owned by one
// goroutine and is not reused: once Run returns it stays in its terminal
// state.
type Session struct {
	cfg Config

	state State
	err   error

	nonce       uint64
	sentAt      time.Time
	ackSeen     bool
	peerVersion fn.Option[*btcwire.MsgVersion]

	log btclog.Logger
}

// NewSession validates cfg and returns a session in StateInit.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid handshake config: %w", err)
	}

	return &Session{
		cfg:         cfg,
		state:       StateInit,
		peerVersion: fn.None[*btcwire.MsgVersion](),
		log:         log,
	}, nil
}

// State returns the state the session has reached.
func (s *Session) State() State {
	return s.state
}

// Err returns the error that moved the session to StateFailed, or nil.
func (s *Session) Err() error {
	return s.err
}

// LocalNonce returns the nonce of the version message we sent.
func (s *Session) LocalNonce() uint64 {
	return s.nonce
}

// SentAt returns the time our version message was stamped with.
func (s *Session) SentAt() time.Time {
	return s.sentAt
}

// AckSeen reports whether the peer's answer was accepted: the version header
// in the default mode, or the peer's verack in a full exchange.
func (s *Session) AckSeen() bool {
	return s.ackSeen
}

// PeerVersion returns the version message the peer sent during a full
// exchange.
func (s *Session) PeerVersion() fn.Option[*btcwire.MsgVersion] {
	return s.peerVersion
}

// Run performs the handshake over rw with the peer at addr, which must be an
// IPv4 address. It blocks until the session reaches a terminal state and
// returns the error that failed it, if any.
//
// If rw implements Deadliner, the context deadline and Config.Timeout bound
// the attempt and cancelling the context aborts pending I/O. The deadline is
// cleared again before Run returns.
func (s *Session) Run(ctx context.Context, rw io.ReadWriter,
	addr netip.AddrPort) error {

	if s.state != StateInit {
		return ErrSessionUsed
	}
	s.log = log.WithPrefix(fmt.Sprintf("Peer(%v):", addr))

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	err := s.run(ctx, rw, addr)
	if err != nil {
		s.log.ErrorS(ctx, "Handshake failed", err,
			"state", s.state.String())

		s.err = err
		s.transition(StateFailed)

		return err
	}

	s.transition(StateEstablished)
	s.log.InfoS(ctx, "Handshake complete",
		"full_exchange", s.cfg.FullExchange,
		"elapsed", s.cfg.Clock.Now().Sub(s.sentAt))

	return nil
}

func (s *Session) run(ctx context.Context, rw io.ReadWriter,
	addr netip.AddrPort) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	recv, err := btcwire.NewNetAddress(s.cfg.Services, addr)
	if err != nil {
		return err
	}

	release, err := s.guardDeadline(ctx, rw)
	if err != nil {
		return err
	}
	defer release()

	if err := s.sendVersion(ctx, rw, recv); err != nil {
		return err
	}

	if s.cfg.FullExchange {
		return s.exchange(ctx, rw)
	}

	return s.awaitVersionHeader(ctx, rw)
}

// transition moves the session to next.
func (s *Session) transition(next State) {
	s.log.Debugf("%v -> %v", s.state, next)
	s.state = next
}

// guardDeadline applies the context deadline to rw and arranges for pending
// I/O to fail once the context is done. The returned function undoes both.
func (s *Session) guardDeadline(ctx context.Context,
	rw io.ReadWriter) (func(), error) {

	d, ok := rw.(Deadliner)
	if !ok {
		return func() {}, nil
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := d.SetDeadline(deadline); err != nil {
			return nil, &TransportError{Op: "set deadline", Err: err}
		}
	}

	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		_ = d.SetDeadline(aLongTimeAgo)
	})

	return func() {
		if !stop() {
			<-fired
		}
		_ = d.SetDeadline(time.Time{})
	}, nil
}

// transportErr wraps an I/O failure, adding the context error when the
// failure was caused by cancellation.
func (s *Session) transportErr(ctx context.Context, op string,
	err error) error {

	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}

	return &TransportError{Op: op, Err: err}
}

// sendVersion writes our version message addressed to recv.
func (s *Session) sendVersion(ctx context.Context, w io.Writer,
	recv btcwire.NetAddress) error {

	nonce, err := s.cfg.Nonce()
	if err != nil {
		return fmt.Errorf("unable to generate nonce: %w", err)
	}
	now := s.cfg.Clock.Now()

	msg := btcwire.NewMsgVersion(
		s.cfg.ProtocolVersion, s.cfg.Services, now.Unix(), recv, nonce,
	)
	msg.UserAgent = s.cfg.UserAgent
	msg.StartHeight = s.cfg.StartHeight
	msg.Relay = fn.Some(s.cfg.Relay)

	if err := s.write(ctx, w, msg); err != nil {
		return err
	}
	s.nonce = nonce
	s.sentAt = now
	s.transition(StateVersionSent)

	if err := s.flush(ctx, w); err != nil {
		return err
	}
	s.transition(StateAwaitingAck)

	return nil
}

// write frames msg and writes it to w in one call.
func (s *Session) write(ctx context.Context, w io.Writer,
	msg btcwire.Message) error {

	env, err := btcwire.NewEnvelope(s.cfg.Chain, msg)
	if err != nil {
		return err
	}
	raw, err := env.Bytes()
	if err != nil {
		return err
	}

	if _, err := w.Write(raw); err != nil {
		return s.transportErr(ctx, "write", err)
	}

	s.log.DebugS(ctx, "Sent message",
		"cmd", env.Command.String(),
		"bytes", len(raw),
		btclog.Hex6("checksum", env.Checksum[:]))

	return nil
}

// flush flushes w if it buffers writes.
func (s *Session) flush(ctx context.Context, w io.Writer) error {
	f, ok := w.(Flusher)
	if !ok {
		return nil
	}

	if err := f.Flush(); err != nil {
		return s.transportErr(ctx, "flush", err)
	}

	return nil
}

// awaitVersionHeader reads exactly one message header and accepts it if its
// command is version. The payload is left unread.
func (s *Session) awaitVersionHeader(ctx context.Context, r io.Reader) error {
	var header [btcwire.HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return s.transportErr(ctx, "read", err)
	}

	env, _, err := btcwire.DecodeHeader(header[:])
	if err != nil {
		return err
	}

	s.log.DebugS(ctx, "Received header",
		"cmd", env.Command.String(),
		"payload_bytes", env.Length)

	if env.Command != btcwire.VersionCommand {
		return &CommandMismatchError{
			Expected: btcwire.CmdVersion,
			Got:      env.Command,
		}
	}
	s.ackSeen = true

	return nil
}

// recordingReader remembers the last error returned by the transport so
// that I/O failures can be told apart from codec failures coming out of the
// same ReadMessage call. A reader may return io.EOF together with the final
// bytes, so a recorded error alone doesn't fail a read.
type recordingReader struct {
	r   io.Reader
	err error
}

// isTransportErr reports whether err, returned by ReadMessage, stems from the
// transport rather than from the bytes that were read.
func (r *recordingReader) isTransportErr(err error) bool {
	switch {
	case err == nil || r.err == nil:
		return false

	case errors.Is(err, r.err):
		return true

	// ReadFull turns an EOF after a partial header or payload into
	// io.ErrUnexpectedEOF. Truncated payloads reported by the codec wrap
	// it too, but those were read in full.
	case errors.Is(err, btcwire.ErrTruncatedInput):
		return false

	default:
		return errors.Is(err, io.ErrUnexpectedEOF)
	}
}

// Read reads from the underlying transport.
func (r *recordingReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err != nil {
		r.err = err
	}

	return n, err
}

// exchange reads the peer's version and verack, answering the version with
// a verack of our own. Messages with unknown commands are skipped.
func (s *Session) exchange(ctx context.Context, rw io.ReadWriter) error {
	r := &recordingReader{r: rw}

	var ignored int
	for !s.ackSeen {
		r.err = nil
		env, msg, err := btcwire.ReadMessage(r, s.cfg.Chain)

		var unknownErr *btcwire.UnknownCommandError
		switch {
		case r.isTransportErr(err):
			return s.transportErr(ctx, "read", err)

		case errors.As(err, &unknownErr):
			ignored++
			if ignored > s.cfg.MaxIgnoredMessages {
				return fmt.Errorf("%w: skipped %d", ErrTooManyMessages,
					ignored)
			}

			s.log.DebugS(ctx, "Ignoring message",
				"cmd", unknownErr.Command.String(),
				"payload_bytes", env.Length)

			continue

		case err != nil:
			return err
		}

		switch m := msg.(type) {
		case *btcwire.MsgVersion:
			if err := s.handlePeerVersion(ctx, rw, m); err != nil {
				return err
			}

		case *btcwire.MsgVerAck:
			if !s.peerVersion.IsSome() {
				return &CommandMismatchError{
					Expected: btcwire.CmdVersion,
					Got:      env.Command,
				}
			}
			s.ackSeen = true
		}
	}

	return nil
}

// handlePeerVersion checks the peer's version message and acknowledges it.
func (s *Session) handlePeerVersion(ctx context.Context, w io.Writer,
	msg *btcwire.MsgVersion) error {

	if s.peerVersion.IsSome() {
		return ErrDuplicateVersion
	}

	// A peer echoing our nonce is us.
	if msg.Nonce == s.nonce {
		return ErrSelfConnection
	}

	if s.cfg.MinProtocolVersion > 0 &&
		msg.ProtocolVersion < s.cfg.MinProtocolVersion {

		return fmt.Errorf("%w: peer announced %d, need %d",
			ErrObsoletePeer, msg.ProtocolVersion,
			s.cfg.MinProtocolVersion)
	}

	s.peerVersion = fn.Some(msg)

	s.log.InfoS(ctx, "Received peer version",
		"protocol", msg.ProtocolVersion,
		"services", msg.Services.String(),
		"user_agent", msg.UserAgent,
		"start_height", msg.StartHeight)
	s.log.Tracef("Peer version: %v", newLogClosure(func() string {
		return spew.Sdump(msg)
	}))

	if err := s.write(ctx, w, &btcwire.MsgVerAck{}); err != nil {
		return err
	}

	return s.flush(ctx, w)
}
