package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/soulproto/soul/internal/chain"
	"github.com/soulproto/soul/internal/config"
	"github.com/soulproto/soul/internal/tree"
)

// ConfigError marks a failure that should exit with status 1, per
// spec.md §6's "0 success, 1 configuration error, 2 runtime error".
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

func configErrorf(format string, args ...any) error {
	return &ConfigError{Err: fmt.Errorf(format, args...)}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, configErrorf("load config: %w", err)
	}
	return cfg, nil
}

func openDir(path string) (*tree.Dir, error) {
	dir, err := tree.Open(path)
	if err != nil {
		return nil, configErrorf("open soul directory %s: %w", path, err)
	}
	return dir, nil
}

// pidFilePath is the soulchain-process-local pid file the start/stop
// commands coordinate through.
func pidFilePath(dir *tree.Dir) string {
	return dir.Path(".soulchain.pid")
}

// tokenFilePath is where init/join persist the adopted swarm token. It
// lives alongside the soul directory rather than inside it: the
// mnemonic is operator-held swarm-join material, not soul state (spec.md's
// "a chain mnemonic persisted outside the soul directory by operator
// choice").
func tokenFilePath(dir *tree.Dir) string {
	return dir.Path(".soul-chain-token")
}

// readToken loads the previously adopted swarm token.
func readToken(dir *tree.Dir) ([]string, error) {
	data, err := os.ReadFile(tokenFilePath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, configErrorf("no swarm token adopted yet; run `soulchain init` or `soulchain join <token>` first")
		}
		return nil, err
	}
	return chain.Split(strings.TrimSpace(string(data))), nil
}

// writeToken validates and persists a swarm token.
func writeToken(dir *tree.Dir, words []string) error {
	if err := chain.Validate(words); err != nil {
		return configErrorf("%w", err)
	}
	return tree.AtomicWriteFile(tokenFilePath(dir), []byte(chain.Normalize(words)), 0o600)
}

// buildTransport constructs the configured Transport implementation.
func buildTransport(cfg *config.Config) (chain.Transport, error) {
	switch cfg.Chain.Transport {
	case "", "lan":
		return chain.NewLANTransport(":0"), nil
	case "tailscale":
		hostname := "soulchain"
		if h, err := os.Hostname(); err == nil {
			hostname = h
		}
		return chain.NewTailscaleTransport(hostname, cfg.Chain.TailscaleAuthKeyEnv, os.TempDir()), nil
	default:
		return nil, configErrorf("unknown chain.transport %q (want \"lan\" or \"tailscale\")", cfg.Chain.Transport)
	}
}
