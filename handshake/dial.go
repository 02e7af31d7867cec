package handshake

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/btcsuite/go-socks/socks"
	"github.com/lightningnetwork/btcshake/btcwire"
)

// DefaultConnectTimeout bounds the TCP connect when DialConfig doesn't.
const DefaultConnectTimeout = 30 * time.Second

// DialConfig describes how to reach a peer.
type DialConfig struct {
	// ConnectTimeout bounds establishing the connection. The handshake
	// itself is bounded by Config.Timeout.
	ConnectTimeout time.Duration

	// Proxy is the host:port of a SOCKS5 proxy to connect through. An
	// empty string connects directly.
	Proxy string

	// ProxyUser and ProxyPass authenticate with the proxy.
	ProxyUser string
	ProxyPass string

	// TorIsolation requests a fresh circuit per connection when the proxy
	// is Tor.
	TorIsolation bool
}

// dial opens a TCP connection to addr, through the proxy if one is set.
func (d *DialConfig) dial(ctx context.Context,
	addr netip.AddrPort) (net.Conn, error) {

	timeout := d.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	if d.Proxy == "" {
		dialer := net.Dialer{Timeout: timeout}
		return dialer.DialContext(ctx, "tcp", addr.String())
	}

	proxy := &socks.Proxy{
		Addr:         d.Proxy,
		Username:     d.ProxyUser,
		Password:     d.ProxyPass,
		TorIsolation: d.TorIsolation,
	}

	// The proxy dialer can't be interrupted, so the context is only
	// honoured by giving up on the result.
	type result struct {
		conn net.Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := proxy.DialTimeout("tcp", addr.String(), timeout)
		done <- result{conn, err}
	}()

	select {
	case res := <-done:
		return res.conn, res.err

	case <-ctx.Done():
		go func() {
			if res := <-done; res.conn != nil {
				_ = res.conn.Close()
			}
		}()

		return nil, ctx.Err()
	}
}

// Dial connects to the peer at addr and runs a handshake over the new
// connection. On success the connection is returned with its deadline
// cleared, ready for further use. On failure the connection is closed and the
// failed session is returned for inspection when one was started.
func Dial(ctx context.Context, cfg Config, dialCfg DialConfig,
	addr netip.AddrPort) (net.Conn, *Session, error) {

	sess, err := NewSession(cfg)
	if err != nil {
		return nil, nil, err
	}

	// Only IPv4 peers can be addressed in our version message, so don't
	// bother connecting to anything else.
	if !addr.Addr().Unmap().Is4() {
		return nil, nil, fmt.Errorf("%w: %v",
			btcwire.ErrInvalidAddressFamily, addr)
	}

	log.Debugf("Connecting to %v (proxy=%q)", addr, dialCfg.Proxy)

	conn, err := dialCfg.dial(ctx, addr)
	if err != nil {
		return nil, nil, &TransportError{Op: "dial", Err: err}
	}

	if err := sess.Run(ctx, conn, addr); err != nil {
		_ = conn.Close()
		return nil, sess, err
	}

	return conn, sess, nil
}
