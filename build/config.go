package build

import (
	"errors"
	"fmt"
	"strings"

	btclogv1 "github.com/btcsuite/btclog"
	"github.com/btcsuite/btclog/v2"
)

const (
	callSiteOff   = "off"
	callSiteShort = "short"
	callSiteLong  = "long"

	defaultLogCompressor = Gzip

	// DefaultMaxLogFiles is the number of rotated log files kept unless
	// configured otherwise. A handshake run produces little output, so a
	// few files cover many runs.
	DefaultMaxLogFiles = 3

	// DefaultMaxLogFileSize is the size in MB at which the log file is
	// rotated.
	DefaultMaxLogFileSize = 10
)

// LogConfig groups the options of the two log handlers, the console and the
// rotating log file.
//
//nolint:lll
type LogConfig struct {
	Console *consoleLoggerCfg `group:"console" namespace:"console" description:"The logger writing to stdout and stderr."`
	File    *FileLoggerConfig `group:"file" namespace:"file" description:"The logger writing to the btcshake log file."`
}

// DefaultLogConfig returns a LogConfig with both handlers enabled. Call
// sites are printed on the console only.
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Console: &consoleLoggerCfg{
			LoggerConfig: LoggerConfig{CallSite: callSiteShort},
		},
		File: &FileLoggerConfig{
			LoggerConfig:   LoggerConfig{CallSite: callSiteOff},
			Compressor:     defaultLogCompressor,
			MaxLogFiles:    DefaultMaxLogFiles,
			MaxLogFileSize: DefaultMaxLogFileSize,
		},
	}
}

// Validate checks the file rotation options.
func (c *LogConfig) Validate() error {
	if !SupportedLogCompressor(c.File.Compressor) {
		return fmt.Errorf("invalid log compressor: %v",
			c.File.Compressor)
	}
	if c.File.MaxLogFiles < 0 {
		return errors.New("max-files must not be negative")
	}
	if c.File.MaxLogFileSize <= 0 {
		return errors.New("max-file-size must be positive")
	}

	return nil
}

// LoggerConfig holds the options shared by both handlers.
//
//nolint:lll
type LoggerConfig struct {
	Disable      bool   `long:"disable" description:"Disable this logger."`
	NoTimestamps bool   `long:"no-timestamps" description:"Omit timestamps from log lines."`
	CallSite     string `long:"call-site" description:"Include the call-site of each log line." choice:"off" choice:"short" choice:"long"`
}

// HandlerOptions translates the config into btclog handler options.
func (cfg *LoggerConfig) HandlerOptions() []btclog.HandlerOption {
	// Records pass through the handlerSet before reaching a handler, one
	// frame more than btclog's default skip depth of 6 accounts for.
	opts := []btclog.HandlerOption{btclog.WithCallSiteSkipDepth(7)}

	if cfg.NoTimestamps {
		opts = append(opts, btclog.WithNoTimestamp())
	}

	switch cfg.CallSite {
	case callSiteShort:
		opts = append(opts, btclog.WithCallerFlags(btclog.Lshortfile))

	case callSiteLong:
		opts = append(opts, btclog.WithCallerFlags(btclog.Llongfile))
	}

	return opts
}

// consoleLoggerCfg adds the console only Style option.
//
//nolint:lll
type consoleLoggerCfg struct {
	LoggerConfig
	Style bool `long:"style" description:"If set, the output will be styled with color and fonts"`
}

// HandlerOptions returns the shared options plus styled output if requested.
func (cfg *consoleLoggerCfg) HandlerOptions() []btclog.HandlerOption {
	opts := cfg.LoggerConfig.HandlerOptions()
	if !cfg.Style {
		return opts
	}

	return append(opts,
		btclog.WithStyledLevel(func(l btclogv1.Level) string {
			return styleString(
				fmt.Sprintf("[%s]", l), boldSeq, levelColor(l),
			)
		}),
		btclog.WithStyledCallSite(func(file string, line int) string {
			return styleString(fmt.Sprintf("%s:%d", file, line),
				faintSeq)
		}),
		btclog.WithStyledKeys(func(key string) string {
			return styleString(key, faintSeq)
		}),
	)
}

// ANSI select graphic rendition parameters used by the styled console.
const (
	resetSeq   = "0"
	boldSeq    = "1"
	faintSeq   = "2"
	redSeq     = "31"
	yellowSeq  = "33"
	blueSeq    = "34"
	magentaSeq = "35"
	cyanSeq    = "36"

	csi = "\x1b["
)

// levelColor returns the color a level tag is printed in.
func levelColor(l btclogv1.Level) string {
	switch l {
	case btclog.LevelTrace, btclog.LevelDebug:
		return cyanSeq
	case btclog.LevelInfo:
		return blueSeq
	case btclog.LevelWarn:
		return yellowSeq
	case btclog.LevelError:
		return redSeq
	default:
		return magentaSeq
	}
}

// styleString wraps s in the given graphic rendition parameters and resets
// them afterwards.
func styleString(s string, styles ...string) string {
	if len(styles) == 0 {
		return s
	}

	return csi + strings.Join(styles, ";") + "m" + s + csi + resetSeq +
		"m"
}

// FileLoggerConfig adds the rotation options of the log file.
//
//nolint:lll
type FileLoggerConfig struct {
	LoggerConfig
	Compressor     string `long:"compressor" description:"Compression algorithm to use when rotating logs." choice:"gzip" choice:"zstd"`
	MaxLogFiles    int    `long:"max-files" description:"Maximum logfiles to keep (0 for no rotation)"`
	MaxLogFileSize int    `long:"max-file-size" description:"Maximum logfile size in MB"`
}
