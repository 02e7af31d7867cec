package build

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btclog/v2"
	"github.com/stretchr/testify/require"
)

// TestParseAndSetDebugLevels checks global and per subsystem levels.
func TestParseAndSetDebugLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	mgr := NewSubLoggerManager(
		btclog.NewDefaultHandler(&buf, btclog.WithNoTimestamp()),
	)
	wire := mgr.GenSubLogger("WIRE", nil)
	hshk := mgr.GenSubLogger("HSHK", nil)

	require.Equal(t, []string{"HSHK", "WIRE"}, mgr.SupportedSubsystems())

	err := ParseAndSetDebugLevels("warn,HSHK=debug", mgr)
	require.NoError(t, err)
	require.Equal(t, btclog.LevelWarn, wire.Level())
	require.Equal(t, btclog.LevelDebug, hshk.Level())

	hshk.Debugf("shown %d", 1)
	wire.Infof("hidden %d", 2)
	require.Contains(t, buf.String(), "shown 1")
	require.NotContains(t, buf.String(), "hidden 2")

	// A lone subsystem assignment leaves the others untouched.
	require.NoError(t, ParseAndSetDebugLevels("WIRE=trace", mgr))
	require.Equal(t, btclog.LevelTrace, wire.Level())
	require.Equal(t, btclog.LevelDebug, hshk.Level())

	badLevels := []string{
		"loud",
		"info,WIRE",
		"info,WIRE=debug=trace",
		"info,NOPE=debug",
		"info,WIRE=loud",
	}
	for _, level := range badLevels {
		require.Error(
			t, ParseAndSetDebugLevels(level, mgr), "level %q", level,
		)
	}
}

// TestShutdownLogger checks that critical messages request a shutdown.
func TestShutdownLogger(t *testing.T) {
	t.Parallel()

	var (
		buf       bytes.Buffer
		shutdowns int
	)
	mgr := NewSubLoggerManager(btclog.NewDefaultHandler(&buf))
	logger := mgr.GenSubLogger("SGNL", func() { shutdowns++ })

	logger.Errorf("not critical")
	require.Zero(t, shutdowns)

	logger.Criticalf("critical %v", "failure")
	logger.Critical("again")
	require.Equal(t, 2, shutdowns)
	require.Contains(t, buf.String(), "critical failure")

	// A nil shutdown function only logs.
	NewShutdownLogger(btclog.Disabled, nil).Critical("ignored")
}

// TestHandlerSet checks that records reach every handler of the set.
func TestHandlerSet(t *testing.T) {
	t.Parallel()

	var console, file bytes.Buffer
	mgr := NewSubLoggerManager(
		btclog.NewDefaultHandler(&console),
		btclog.NewDefaultHandler(&file),
	)
	logger := mgr.GenSubLogger("BTSH", nil).WithPrefix("Peer(1.2.3.4):")
	logger.Infof("hello")

	for _, out := range []string{console.String(), file.String()} {
		require.Contains(t, out, "Peer(1.2.3.4):")
		require.Contains(t, out, "hello")
		require.Contains(t, out, "BTSH")
	}
}
