// Package config loads soul.toml, the ambient configuration for every
// long-running Soul Protocol process.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration shape, mirroring soul.toml.
type Config struct {
	Soul      SoulConfig      `toml:"soul"`
	Fabric    FabricConfig    `toml:"fabric"`
	Chain     ChainConfig     `toml:"chain"`
	Guard     GuardConfig     `toml:"guard"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// SoulConfig identifies and locates the soul directory.
type SoulConfig struct {
	Path         string `toml:"path"`          // defaults to SOUL_PATH env or parent of binary
	PreferGerman bool   `toml:"prefer_german"` // synonym choice when founding a new soul
}

// FabricConfig configures the Activity Fabric.
type FabricConfig struct {
	NATSURL         string `toml:"nats_url"`          // optional, empty disables NATS publish
	DebounceMillis  int    `toml:"debounce_millis"`   // watcher debounce window
	EventsRetainDays int   `toml:"events_retain_days"`
}

// ChainConfig configures the Peer Chain daemon.
type ChainConfig struct {
	Transport       string `toml:"transport"` // "lan" or "tailscale"
	PollSeconds     int    `toml:"poll_seconds"`
	StatusRefreshS  int    `toml:"status_refresh_seconds"`
	MaxInFlight     int    `toml:"max_in_flight"`
	TailscaleAuthKeyEnv string `toml:"tailscale_authkey_env"`
}

// GuardConfig configures the Session Lifecycle Guard.
type GuardConfig struct {
	GoodbyePhrasesPath string `toml:"goodbye_phrases_path"` // optional override of the default phrase list
}

// TelemetryConfig configures otel tracing.
type TelemetryConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
	Protocol string `toml:"protocol"` // otlp, stdout, noop
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Fabric: FabricConfig{
			DebounceMillis:   200,
			EventsRetainDays: 30,
		},
		Chain: ChainConfig{
			Transport:      "lan",
			PollSeconds:    5,
			StatusRefreshS: 30,
			MaxInFlight:    64,
		},
		Telemetry: TelemetryConfig{
			Protocol: "noop",
		},
	}
}

// Default is an alias for New, matching the teacher's naming.
func Default() *Config {
	return New()
}

// LoadFile loads configuration from a TOML file, starting from defaults.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads soul.toml from the current directory, or returns
// defaults if it doesn't exist.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	path := filepath.Join(cwd, "soul.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}
	return LoadFile(path)
}

// ResolvedSoulPath returns the effective soul directory: config value, else
// SOUL_PATH env, else the parent of the running binary's directory.
func (c *Config) ResolvedSoulPath() (string, error) {
	if c.Soul.Path != "" {
		return c.Soul.Path, nil
	}
	if v := os.Getenv("SOUL_PATH"); v != "" {
		return v, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve soul path: %w", err)
	}
	return filepath.Dir(filepath.Dir(exe)), nil
}
