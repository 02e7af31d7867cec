// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Copyright (C) 2015-2022 The Lightning Network Developers

package btcshake

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	flags "github.com/jessevdk/go-flags"
	"github.com/lightningnetwork/btcshake/btcwire"
	"github.com/lightningnetwork/btcshake/build"
	"github.com/lightningnetwork/btcshake/handshake"
	"github.com/lightningnetwork/btcshake/signal"
)

const (
	defaultConfigFilename = "btcshake.conf"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "btcshake.log"
	defaultLogLevel       = "info"

	// defaultPeer is the regtest node a handshake is attempted with when
	// no peer is configured.
	defaultPeer = "127.0.0.1:18445"

	// defaultHandshakeTimeout bounds the exchange of messages once the
	// connection is up.
	defaultHandshakeTimeout = time.Minute
)

var (
	// DefaultBtcshakeDir is the default directory where btcshake tries to
	// find its configuration file and store its data. This is a directory
	// in the user's application data, for example:
	//   C:\Users\<username>\AppData\Local\Btcshake on Windows
	//   ~/.btcshake on Linux
	//   ~/Library/Application Support/Btcshake on MacOS
	DefaultBtcshakeDir = btcutil.AppDataDir("btcshake", false)

	// DefaultConfigFile is the default full path of btcshake's
	// configuration file.
	DefaultConfigFile = filepath.Join(
		DefaultBtcshakeDir, defaultConfigFilename,
	)

	defaultLogDir = filepath.Join(DefaultBtcshakeDir, defaultLogDirname)
)

// Config defines the configuration options for btcshake.
//
// See LoadConfig for further details regarding the configuration
// loading+parsing process.
//
//nolint:lll
type Config struct {
	ShowVersion bool `short:"V" long:"version" description:"Display version information and exit"`

	BtcshakeDir string `long:"btcshakedir" description:"The base directory that contains btcshake's configuration file and logs"`
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	LogDir      string `long:"logdir" description:"Directory to log output."`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <global-level>,<subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`

	Chain string `long:"chain" description:"The network the peer is on" choice:"regtest" choice:"testnet3" choice:"testnet" choice:"mainnet" choice:"simnet"`
	Peer  string `long:"peer" description:"The host:port of the peer to handshake with. The port defaults to the chain's default port"`

	Proxy        string `long:"proxy" description:"Connect via SOCKS5 proxy (eg. 127.0.0.1:9050)"`
	ProxyUser    string `long:"proxyuser" description:"Username for proxy server"`
	ProxyPass    string `long:"proxypass" default-mask:"-" description:"Password for proxy server"`
	TorIsolation bool   `long:"torisolation" description:"Enable Tor stream isolation by randomizing user credentials for each connection"`

	ProtocolVersion    int32  `long:"protocolversion" description:"The protocol version announced to the peer"`
	UserAgent          string `long:"useragent" description:"The user agent announced to the peer"`
	StartHeight        int32  `long:"startheight" description:"The best block height announced to the peer"`
	Relay              bool   `long:"relay" description:"Ask the peer to relay transactions"`
	FullHandshake      bool   `long:"fullhandshake" description:"Wait for the peer's version and verack instead of stopping at the header of its reply"`
	MinPeerVersion     int32  `long:"minpeerversion" description:"Reject peers announcing a lower protocol version during a full handshake. 0 accepts any version"`
	MaxIgnoredMessages int    `long:"maxignoredmessages" description:"The number of unexpected messages tolerated during a full handshake"`

	ConnectTimeout   time.Duration `long:"connecttimeout" description:"The timeout for establishing the connection to the peer, as a Go duration (eg. 30s)"`
	HandshakeTimeout time.Duration `long:"handshaketimeout" description:"The timeout for the message exchange once connected. 0 disables it"`

	LogConfig *build.LogConfig `group:"logging" namespace:"logging"`

	// ActiveChain is the chain selected by the Chain option.
	ActiveChain btcwire.Chain

	// PeerAddr is the resolved address of the Peer option.
	PeerAddr netip.AddrPort

	// LogRotator is the log file writer the file handler writes to.
	LogRotator *build.RotatingLogWriter

	// SubLogMgr is the root logger that all the subsystem loggers are
	// registered with.
	SubLogMgr *build.SubLoggerManager

	// lookupHost resolves peer host names. It is only replaced in tests.
	lookupHost func(ctx context.Context, host string) ([]netip.Addr, error)
}

// DefaultConfig returns all default values for the Config struct.
func DefaultConfig() Config {
	return Config{
		BtcshakeDir:        DefaultBtcshakeDir,
		ConfigFile:         DefaultConfigFile,
		LogDir:             defaultLogDir,
		DebugLevel:         defaultLogLevel,
		Chain:              btcwire.Regtest.String(),
		Peer:               defaultPeer,
		ProtocolVersion:    handshake.DefaultProtocolVersion,
		UserAgent:          build.UserAgent("btcshake"),
		MaxIgnoredMessages: handshake.DefaultMaxIgnoredMessages,
		ConnectTimeout:     handshake.DefaultConnectTimeout,
		HandshakeTimeout:   defaultHandshakeTimeout,
		LogConfig:          build.DefaultLogConfig(),
		LogRotator:         build.NewRotatingLogWriter(),
	}
}

// LoadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
func LoadConfig(args []string, interceptor signal.Interceptor) (*Config,
	error) {

	// Pre-parse the command line options to pick up an alternative config
	// file.
	preCfg := DefaultConfig()
	if _, err := flags.NewParser(&preCfg, flags.Default).ParseArgs(
		args,
	); err != nil {
		return nil, err
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", build.Version(),
			"commit="+build.Commit)
		os.Exit(0)
	}

	// If the config file path has not been modified by the user, then we'll
	// use the default config file path. However, if the user has modified
	// their btcshakedir, then we should assume they intend to use the
	// config file within it.
	configFileDir := CleanAndExpandPath(preCfg.BtcshakeDir)
	configFilePath := CleanAndExpandPath(preCfg.ConfigFile)
	if configFileDir != DefaultBtcshakeDir {
		if configFilePath == DefaultConfigFile {
			configFilePath = filepath.Join(
				configFileDir, defaultConfigFilename,
			)
		}
	}

	// Next, load any additional configuration options from the file.
	var configFileError error
	cfg := preCfg
	if err := flags.IniParse(configFilePath, &cfg); err != nil {
		// If it's a parsing related error, then we'll return
		// immediately, otherwise we can proceed as possibly the config
		// file doesn't exist which is OK.
		var iniErr *flags.IniError
		if errors.As(err, &iniErr) {
			return nil, err
		}

		configFileError = err
	}

	// Finally, parse the remaining command line options again to ensure
	// they take precedence.
	if _, err := flags.NewParser(&cfg, flags.Default).ParseArgs(
		args,
	); err != nil {
		return nil, err
	}

	// Make sure everything we just loaded makes sense.
	cleanCfg, err := ValidateConfig(cfg, usageMessage, interceptor)
	if err != nil {
		return nil, err
	}

	// Warn about missing config file only after all other configuration is
	// done. This prevents the warning on help messages and invalid
	// options. Note this should go directly before the return.
	if configFileError != nil {
		btshLog.Warnf("%v", configFileError)
	}

	return cleanCfg, nil
}

// ValidateConfig check the given configuration to be sane. This makes sure no
// illegal values or combination of values are set. All file system paths are
// normalized. The cleaned up config is returned on success.
func ValidateConfig(cfg Config, usageMessage string,
	interceptor signal.Interceptor) (*Config, error) {

	// If the provided btcshake directory is not the default, we'll modify
	// the path to all of the files and directories that will live within
	// it.
	btcshakeDir := CleanAndExpandPath(cfg.BtcshakeDir)
	if btcshakeDir != DefaultBtcshakeDir && cfg.LogDir == defaultLogDir {
		cfg.LogDir = filepath.Join(btcshakeDir, defaultLogDirname)
	}

	funcName := "ValidateConfig"
	mkErr := func(format string, args ...interface{}) error {
		return fmt.Errorf(funcName+": "+format, args...)
	}
	makeDirectory := func(dir string) error {
		err := os.MkdirAll(dir, 0700)
		if err != nil {
			// Show a nicer error message if it's because a symlink
			// is linked to a directory that does not exist
			// (probably because it's not mounted).
			var e *os.PathError
			if errors.As(err, &e) && os.IsExist(err) {
				link, lerr := os.Readlink(e.Path)
				if lerr == nil {
					str := "is symlink %s -> %s mounted?"
					err = fmt.Errorf(str, e.Path, link)
				}
			}

			str := "%s: Failed to create btcshake directory: %v"
			err := fmt.Errorf(str, funcName, err)
			_, _ = fmt.Fprintln(os.Stderr, err)
			return err
		}

		return nil
	}

	// As soon as we're done parsing configuration options, ensure all paths
	// to directories and files are cleaned and expanded before attempting
	// to use them later on.
	cfg.BtcshakeDir = btcshakeDir
	cfg.ConfigFile = CleanAndExpandPath(cfg.ConfigFile)
	cfg.LogDir = CleanAndExpandPath(cfg.LogDir)

	chain, err := btcwire.ParseChain(cfg.Chain)
	if err != nil {
		return nil, mkErr("%v", err)
	}
	cfg.ActiveChain = chain

	if cfg.ProtocolVersion <= 0 {
		return nil, mkErr("protocolversion must be positive, got %d",
			cfg.ProtocolVersion)
	}
	if cfg.MinPeerVersion < 0 {
		return nil, mkErr("minpeerversion must not be negative")
	}
	if cfg.MaxIgnoredMessages < 0 {
		return nil, mkErr("maxignoredmessages must not be negative")
	}
	if len(cfg.UserAgent) > wire.MaxUserAgentLen {
		return nil, mkErr("useragent is %d bytes, the limit is %d",
			len(cfg.UserAgent), wire.MaxUserAgentLen)
	}
	if cfg.ConnectTimeout <= 0 {
		return nil, mkErr("connecttimeout must be positive")
	}
	if cfg.HandshakeTimeout < 0 {
		return nil, mkErr("handshaketimeout must not be negative")
	}
	if cfg.Proxy == "" && (cfg.ProxyUser != "" || cfg.ProxyPass != "" ||
		cfg.TorIsolation) {

		return nil, mkErr("proxy credentials and torisolation " +
			"require a proxy")
	}

	lookup := cfg.lookupHost
	if lookup == nil {
		lookup = func(ctx context.Context,
			host string) ([]netip.Addr, error) {

			return net.DefaultResolver.LookupNetIP(ctx, "ip4", host)
		}
	}
	cfg.PeerAddr, err = resolvePeer(
		cfg.Peer, chain.DefaultPort(), lookup,
	)
	if err != nil {
		return nil, mkErr("invalid peer %q: %v", cfg.Peer, err)
	}

	if err := cfg.LogConfig.Validate(); err != nil {
		return nil, mkErr("error validating logging config: %w", err)
	}

	// Create the log directory if the file logger is going to need it.
	if !cfg.LogConfig.File.Disable {
		if err := makeDirectory(cfg.LogDir); err != nil {
			return nil, err
		}
	}

	if cfg.LogRotator == nil {
		cfg.LogRotator = build.NewRotatingLogWriter()
	}

	// A log writer must be passed in, otherwise we can't function and would
	// run into a panic later on.
	cfg.SubLogMgr = build.NewSubLoggerManager(build.NewDefaultLogHandlers(
		cfg.LogConfig, cfg.LogRotator,
	)...)

	// Initialize logging at the default logging level.
	SetupLoggers(cfg.SubLogMgr, interceptor)

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems",
			cfg.SubLogMgr.SupportedSubsystems())
		os.Exit(0)
	}

	// Initialize log rotation. After the log rotation has been initialized,
	// the logger variables may be used.
	if !cfg.LogConfig.File.Disable {
		err = cfg.LogRotator.InitLogRotator(
			cfg.LogConfig.File,
			filepath.Join(cfg.LogDir, defaultLogFilename),
		)
		if err != nil {
			str := "log rotation setup failed: %v"
			return nil, mkErr(str, err)
		}
	}

	// Parse, validate, and set debug log level(s).
	err = build.ParseAndSetDebugLevels(cfg.DebugLevel, cfg.SubLogMgr)
	if err != nil {
		str := "error parsing debug level: %v"
		_ = cfg.LogRotator.Close()
		_, _ = fmt.Fprintln(os.Stderr, usageMessage)

		return nil, mkErr(str, err)
	}

	return &cfg, nil
}

// HandshakeConfig returns the handshake parameters selected by the config.
func (c *Config) HandshakeConfig() handshake.Config {
	hsCfg := handshake.DefaultConfig()
	hsCfg.Chain = c.ActiveChain
	hsCfg.ProtocolVersion = c.ProtocolVersion
	hsCfg.UserAgent = c.UserAgent
	hsCfg.StartHeight = c.StartHeight
	hsCfg.Relay = c.Relay
	hsCfg.Timeout = c.HandshakeTimeout
	hsCfg.FullExchange = c.FullHandshake
	hsCfg.MaxIgnoredMessages = c.MaxIgnoredMessages
	hsCfg.MinProtocolVersion = c.MinPeerVersion

	return hsCfg
}

// DialConfig returns the connection parameters selected by the config.
func (c *Config) DialConfig() handshake.DialConfig {
	return handshake.DialConfig{
		ConnectTimeout: c.ConnectTimeout,
		Proxy:          c.Proxy,
		ProxyUser:      c.ProxyUser,
		ProxyPass:      c.ProxyPass,
		TorIsolation:   c.TorIsolation,
	}
}

// resolvePeer turns a host[:port] string into the IPv4 address of the peer.
// The default port is used when none is given.
func resolvePeer(peer, defaultPort string,
	lookup func(context.Context, string) ([]netip.Addr, error)) (
	netip.AddrPort, error) {

	host, port, err := net.SplitHostPort(peer)
	if err != nil {
		// Assume the port is missing.
		host, port = peer, defaultPort
	}
	if host == "" {
		return netip.AddrPort{}, errors.New("missing host")
	}

	portNum, err := net.LookupPort("tcp", port)
	if err != nil {
		return netip.AddrPort{}, err
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		ctx, cancel := context.WithTimeout(
			context.Background(), 10*time.Second,
		)
		defer cancel()

		addrs, err := lookup(ctx, host)
		if err != nil {
			return netip.AddrPort{}, err
		}

		// Only IPv4 peers can be described in a version message.
		addr = netip.Addr{}
		for _, a := range addrs {
			if a.Unmap().Is4() {
				addr = a.Unmap()
				break
			}
		}
		if !addr.IsValid() {
			return netip.AddrPort{}, fmt.Errorf("no IPv4 address "+
				"for %v", host)
		}
	}

	addr = addr.Unmap()
	if !addr.Is4() {
		return netip.AddrPort{}, fmt.Errorf("%w: %v",
			btcwire.ErrInvalidAddressFamily, addr)
	}

	return netip.AddrPortFrom(addr, uint16(portNum)), nil
}

// CleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
// This function is taken from https://github.com/btcsuite/btcd
func CleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
