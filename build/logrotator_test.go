package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRotatingLogWriter checks that written lines end up in the log file
// once the writer is closed.
func TestRotatingLogWriter(t *testing.T) {
	t.Parallel()

	for _, compressor := range []string{Gzip, Zstd} {
		compressor := compressor
		t.Run(compressor, func(t *testing.T) {
			t.Parallel()

			logFile := filepath.Join(t.TempDir(), "logs", "test.log")
			cfg := DefaultLogConfig().File
			cfg.Compressor = compressor

			w := NewRotatingLogWriter()
			require.NoError(t, w.InitLogRotator(cfg, logFile))

			_, err := w.Write([]byte("first line\n"))
			require.NoError(t, err)
			require.NoError(t, w.Close())

			// Closing twice is harmless.
			require.NoError(t, w.Close())

			content, err := os.ReadFile(logFile)
			require.NoError(t, err)
			require.Equal(t, "first line\n", string(content))
		})
	}
}

// TestRotatingLogWriterUninitialized checks that writes before the rotator is
// set up are dropped.
func TestRotatingLogWriterUninitialized(t *testing.T) {
	t.Parallel()

	w := NewRotatingLogWriter()
	n, err := w.Write([]byte("dropped\n"))
	require.NoError(t, err)
	require.Equal(t, 8, n)
	require.NoError(t, w.Close())
}

// TestLogConfigValidate checks the rotation option validation.
func TestLogConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultLogConfig()
	require.NoError(t, cfg.Validate())
	require.True(t, SupportedLogCompressor(Zstd))

	cfg.File.MaxLogFiles = -1
	require.Error(t, cfg.Validate())

	cfg = DefaultLogConfig()
	cfg.File.MaxLogFileSize = 0
	require.Error(t, cfg.Validate())

	cfg = DefaultLogConfig()
	cfg.File.Compressor = "lz4"
	require.Error(t, cfg.Validate())
	require.False(t, SupportedLogCompressor("lz4"))
}
