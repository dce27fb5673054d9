// Package config parses the session engine's server configuration from
// flags and environment variable overrides, following the flag-set-plus-env
// idiom used throughout this module.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/magicmirror/mm-server/pkg/hostport"
)

// version is injected at build time with
// -ldflags "-X github.com/magicmirror/mm-server/internal/config.version=...".
var version = "dev"

// AppConfig holds per-application settings, keyed by application id in
// Config.Apps.
type AppConfig struct {
	// Command is the container entrypoint to spawn for this application.
	Command []string
	// SessionTimeout is how long a session may sit detached (no attached
	// clients) before the idle-cleanup tick ends it. Zero disables the
	// timeout.
	SessionTimeout time.Duration
}

// Config is the fully parsed, validated server configuration.
type Config struct {
	ListenHost      string
	ListenPort      uint16
	LogLevel        string
	MaxSessions     int
	DefaultFramerate uint32
	FECRatio        float64
	MTU             int
	Apps            map[string]AppConfig
	ShowVersion     bool
}

// appsFlag implements flag.Value, accepting repeated
// "app_id=command[:timeout]" assignments; the command is split on
// whitespace.
type appsFlag map[string]AppConfig

func (a appsFlag) String() string {
	ids := make([]string, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	return strings.Join(ids, ",")
}

func (a appsFlag) Set(value string) error {
	// Format: app_id=command args here:timeout, e.g.
	// "steam=/usr/bin/steam -bigpicture:30m"
	idx := strings.IndexByte(value, '=')
	if idx < 0 {
		return fmt.Errorf("invalid -app %q, expected app_id=command[:timeout]", value)
	}
	id, rest := value[:idx], value[idx+1:]
	if id == "" {
		return fmt.Errorf("invalid -app %q: empty app id", value)
	}

	command := rest
	var timeout time.Duration
	if colon := strings.LastIndexByte(rest, ':'); colon >= 0 {
		if d, err := time.ParseDuration(rest[colon+1:]); err == nil {
			command = rest[:colon]
			timeout = d
		}
	}

	a[id] = AppConfig{
		Command:        strings.Fields(command),
		SessionTimeout: timeout,
	}
	return nil
}

// Parse parses args into a Config, applying environment variable overrides
// for anything not explicitly set on the command line.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("mm-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	cfg := &Config{}
	var listen string
	apps := make(appsFlag)

	fs.StringVar(&listen, "listen", envOr("MM_LISTEN_ADDR", ":7599"), "listen address for control connections (e.g. :7599 or [::1]:7599)")
	fs.StringVar(&cfg.LogLevel, "log-level", envOr("MM_LOG_LEVEL", "info"), "log level: debug|info|warn|error")
	fs.IntVar(&cfg.MaxSessions, "max-sessions", envIntOr("MM_MAX_SESSIONS", 8), "maximum concurrent sessions")
	fs.Float64Var(&cfg.FECRatio, "fec-ratio", envFloatOr("MM_FEC_RATIO", 0.0), "forward error correction repair ratio (0 disables FEC)")
	fs.IntVar(&cfg.MTU, "mtu", envIntOr("MM_MTU", 1200), "datagram shipper MTU in bytes")
	fs.Var(apps, "app", "application definition app_id=command[:session_timeout], can be repeated")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	host, port, err := hostport.Split(listen)
	if err != nil {
		return nil, fmt.Errorf("invalid -listen: %w", err)
	}
	cfg.ListenHost = host
	if port != nil {
		cfg.ListenPort = *port
	} else {
		cfg.ListenPort = 7599
	}

	cfg.Apps = apps
	cfg.DefaultFramerate = 60

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level %q", cfg.LogLevel)
	}
	if cfg.MaxSessions <= 0 {
		return errors.New("max-sessions must be positive")
	}
	if cfg.FECRatio < 0 || cfg.FECRatio >= 1 {
		return errors.New("fec-ratio must be in [0, 1)")
	}
	if cfg.MTU <= 0 || cfg.MTU > 65507 {
		return errors.New("mtu must be between 1 and 65507")
	}
	return nil
}

// Version returns the build version string.
func Version() string { return version }

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}
