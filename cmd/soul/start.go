package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/soulproto/soul/internal/runtime"
	"github.com/soulproto/soul/internal/soullog"
)

// shutdownGrace bounds the final consolidation Phase A-C runs through
// after a stop signal arrives.
const shutdownGrace = 30 * time.Second

// Run wakes the Session Guard and blocks, running the runtime loop until
// a stop signal arrives, then consolidates one last time before exiting.
func (c *StartCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir, err := openDir(c.Path)
	if err != nil {
		return err
	}

	log := soullog.Default()

	g, bus, err := newGuard(dir, cfg, log)
	if err != nil {
		return err
	}

	pidPath := pidFilePath(dir)
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	loop := runtime.New(runtime.Config{
		Dir:   dir,
		Guard: g,
		Bus:   bus,
		Log:   log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loop.Start(ctx); err != nil {
		return fmt.Errorf("start runtime loop: %w", err)
	}

	log.Info("soul awake", map[string]any{"path": c.Path})
	<-ctx.Done()
	log.Info("soul stopping", nil)

	loop.Stop()

	consolidateCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := g.Consolidate(consolidateCtx); err != nil {
		return fmt.Errorf("final consolidation: %w", err)
	}

	return nil
}
