package build

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btclog/v2"
	"github.com/stretchr/testify/require"
)

// TestConsoleStyle checks that the style option colors the level tag of
// console lines and leaves plain output untouched otherwise.
func TestConsoleStyle(t *testing.T) {
	t.Parallel()

	logLine := func(style bool) string {
		cfg := DefaultLogConfig().Console
		cfg.Style = style
		cfg.NoTimestamps = true

		var buf bytes.Buffer
		handler := btclog.NewDefaultHandler(&buf, cfg.HandlerOptions()...)
		btclog.NewSLogger(handler.SubSystem("BTSH")).Warnf("careful")

		return buf.String()
	}

	plain := logLine(false)
	require.Contains(t, plain, "[WRN] BTSH")
	require.Contains(t, plain, "careful")
	require.NotContains(t, plain, "\x1b[")

	styled := logLine(true)
	require.Contains(t, styled, "\x1b[1;33m[WRN]\x1b[0m BTSH")
	require.Contains(t, styled, "careful")
}

// TestStyleString checks the escape sequences around styled text.
func TestStyleString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "plain", styleString("plain"))
	require.Equal(t, "\x1b[2mkey\x1b[0m", styleString("key", faintSeq))
	require.Equal(t, redSeq, levelColor(btclog.LevelError))
	require.Equal(t, magentaSeq, levelColor(btclog.LevelCritical))
}
