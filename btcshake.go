// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Copyright (C) 2015-2022 The Lightning Network Developers

package btcshake

import (
	"context"
	"fmt"
	"net"

	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/btcshake/btcwire"
	"github.com/lightningnetwork/btcshake/build"
	"github.com/lightningnetwork/btcshake/handshake"
	"github.com/lightningnetwork/btcshake/signal"
)

// Main is the true entry point for btcshake. It connects to the configured
// peer, performs the version handshake and reports the outcome. This function
// is required since defers created in the top-level scope of a main method
// aren't executed if os.Exit() is called.
func Main(cfg *Config, interceptor signal.Interceptor) error {
	defer func() {
		btshLog.Info("Shutdown complete")
		err := cfg.LogRotator.Close()
		if err != nil {
			btshLog.Errorf("Could not close log rotator: %v", err)
		}
	}()

	// Show version at startup.
	btshLog.Infof("Version: %s commit=%s, build=%s, logging=%s, "+
		"debuglevel=%s", build.Version(), build.Commit,
		build.Deployment, build.LoggingType, cfg.DebugLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Abort the handshake as soon as a shutdown is requested.
	go func() {
		select {
		case <-interceptor.ShutdownChannel():
			cancel()
		case <-ctx.Done():
		}
	}()

	btshLog.Infof("Active chain: %v (magic=0x%08x), peer=%v",
		cfg.ActiveChain, cfg.ActiveChain.Magic(), cfg.PeerAddr)

	conn, sess, err := handshake.Dial(
		ctx, cfg.HandshakeConfig(), cfg.DialConfig(), cfg.PeerAddr,
	)
	if err != nil {
		if sess != nil {
			btshLog.Errorf("Handshake with %v failed in state %v: "+
				"%v", cfg.PeerAddr, sess.State(), err)
		}

		return fmt.Errorf("unable to handshake with %v: %w",
			cfg.PeerAddr, err)
	}
	defer conn.Close()

	logHandshake(conn, sess)

	return nil
}

// logHandshake reports the result of a completed handshake.
func logHandshake(conn net.Conn, sess *handshake.Session) {
	btshLog.Infof("Handshake with %v established (nonce=%d, sent=%v, "+
		"acknowledged=%v)", conn.RemoteAddr(), sess.LocalNonce(),
		sess.SentAt(), sess.AckSeen())

	sess.PeerVersion().WhenSome(func(v *btcwire.MsgVersion) {
		btshLog.Infof("Peer announced protocol=%d, user_agent=%q, "+
			"services=%v, height=%d, relay=%v",
			v.ProtocolVersion, v.UserAgent, v.Services,
			v.StartHeight, v.Relay.UnwrapOr(true))

		if v.Services&wire.SFNodeWitness == 0 {
			btshLog.Debugf("Peer %v doesn't advertise witness "+
				"support", conn.RemoteAddr())
		}
	})
}
