package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	c := New()
	if c.Fabric.DebounceMillis != 200 {
		t.Errorf("DebounceMillis = %d, want 200", c.Fabric.DebounceMillis)
	}
	if c.Chain.Transport != "lan" {
		t.Errorf("Transport = %q, want lan", c.Chain.Transport)
	}
	if c.Chain.MaxInFlight != 64 {
		t.Errorf("MaxInFlight = %d, want 64", c.Chain.MaxInFlight)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "soul.toml")
	toml := `
[soul]
path = "/tmp/my-soul"
prefer_german = true

[chain]
transport = "tailscale"
poll_seconds = 10
`
	if err := os.WriteFile(path, []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Soul.Path != "/tmp/my-soul" {
		t.Errorf("Soul.Path = %q", cfg.Soul.Path)
	}
	if !cfg.Soul.PreferGerman {
		t.Error("PreferGerman = false, want true")
	}
	if cfg.Chain.Transport != "tailscale" {
		t.Errorf("Transport = %q, want tailscale", cfg.Chain.Transport)
	}
	if cfg.Chain.PollSeconds != 10 {
		t.Errorf("PollSeconds = %d, want 10", cfg.Chain.PollSeconds)
	}
	// Untouched defaults should survive partial TOML overrides.
	if cfg.Chain.MaxInFlight != 64 {
		t.Errorf("MaxInFlight = %d, want 64 (default preserved)", cfg.Chain.MaxInFlight)
	}
}

func TestResolvedSoulPathPrefersConfig(t *testing.T) {
	cfg := New()
	cfg.Soul.Path = "/configured/path"
	t.Setenv("SOUL_PATH", "/env/path")

	path, err := cfg.ResolvedSoulPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != "/configured/path" {
		t.Errorf("ResolvedSoulPath = %q, want /configured/path", path)
	}
}

func TestResolvedSoulPathFallsBackToEnv(t *testing.T) {
	cfg := New()
	t.Setenv("SOUL_PATH", "/env/path")

	path, err := cfg.ResolvedSoulPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != "/env/path" {
		t.Errorf("ResolvedSoulPath = %q, want /env/path", path)
	}
}
