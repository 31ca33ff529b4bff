package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/soulproto/soul/internal/config"
	"github.com/soulproto/soul/internal/fabric"
	"github.com/soulproto/soul/internal/guard"
	"github.com/soulproto/soul/internal/seed"
	"github.com/soulproto/soul/internal/soullog"
	"github.com/soulproto/soul/internal/tree"
)

// ConfigError marks a failure that should exit with status 1 (per
// spec.md §6's "0 success, 1 configuration error, 2 runtime error").
// Anything else ctx.Run() returns is treated as a runtime error.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

func configErrorf(format string, args ...any) error {
	return &ConfigError{Err: fmt.Errorf(format, args...)}
}

// loadConfig loads soul.toml from the current directory, falling back
// to defaults, per internal/config's LoadDefault.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, configErrorf("load config: %w", err)
	}
	return cfg, nil
}

// openDir opens an existing soul directory at path.
func openDir(path string) (*tree.Dir, error) {
	dir, err := tree.Open(path)
	if err != nil {
		return nil, configErrorf("open soul directory %s: %w", path, err)
	}
	return dir, nil
}

// goodbyePhrases returns the configured phrase list, or
// guard.DefaultGoodbyePhrases if no override file is set.
func goodbyePhrases(cfg *config.Config) ([]string, error) {
	if cfg.Guard.GoodbyePhrasesPath == "" {
		return guard.DefaultGoodbyePhrases, nil
	}
	f, err := os.Open(cfg.Guard.GoodbyePhrasesPath)
	if err != nil {
		return nil, fmt.Errorf("open goodbye phrases file: %w", err)
	}
	defer f.Close()

	var phrases []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		phrases = append(phrases, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return phrases, nil
}

// newGuard builds a Guard ready for Wake/Goodbye against dir, wiring the
// configured phrase list and a Bus that mirrors to NATS when configured.
func newGuard(dir *tree.Dir, cfg *config.Config, log *soullog.Logger) (*guard.Guard, *fabric.Bus, error) {
	phrases, err := goodbyePhrases(cfg)
	if err != nil {
		return nil, nil, configErrorf("%w", err)
	}
	detector, err := guard.NewGoodbyeDetector(phrases)
	if err != nil {
		return nil, nil, configErrorf("build goodbye detector: %w", err)
	}

	bus := fabric.NewBus(nil)
	if cfg.Fabric.NATSURL != "" {
		if err := bus.ConnectNATS(cfg.Fabric.NATSURL); err != nil {
			log.Warn("NATS mirror unavailable, continuing in-process only", map[string]any{"err": err.Error()})
		}
	}

	engine := seed.NewEngine(dir)
	g := guard.New(dir, engine, detector, bus, log)
	return g, bus, nil
}

// pidFilePath is the soul-process-local pid file the start/stop commands
// coordinate through. It lives alongside the soul directory rather than
// inside it, since it is a CLI operational detail, not soul state.
func pidFilePath(dir *tree.Dir) string {
	return dir.Path(".soul.pid")
}
