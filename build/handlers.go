package build

import (
	"os"

	"github.com/btcsuite/btclog/v2"
)

// NewDefaultLogHandlers returns the standard console logger and rotating log
// writer handlers that we generally want to use. It also applies the various
// config options to the loggers. Disabled loggers are left out.
func NewDefaultLogHandlers(cfg *LogConfig,
	rotator *RotatingLogWriter) []btclog.Handler {

	var handlers []btclog.Handler

	maybeAddLogger := func(cmdOptionDisable bool, handler func() btclog.Handler) {
		if !cmdOptionDisable {
			handlers = append(handlers, handler())
		}
	}
	maybeAddLogger(
		cfg.Console.Disable, func() btclog.Handler {
			return btclog.NewDefaultHandler(
				os.Stdout, cfg.Console.HandlerOptions()...,
			)
		},
	)
	maybeAddLogger(
		cfg.File.Disable, func() btclog.Handler {
			return btclog.NewDefaultHandler(
				rotator, cfg.File.HandlerOptions()...,
			)
		},
	)

	return handlers
}
