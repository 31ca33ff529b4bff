package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/soulproto/soul/internal/chain"
	"github.com/soulproto/soul/internal/fabric"
	"github.com/soulproto/soul/internal/runtime"
	"github.com/soulproto/soul/internal/soullog"
)

// Run joins the adopted swarm and syncs until a stop signal arrives.
func (c *StartCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir, err := openDir(c.Path)
	if err != nil {
		return err
	}

	words, err := readToken(dir)
	if err != nil {
		return err
	}
	encryptionKey, topic, err := chain.DeriveKeys(words)
	if err != nil {
		return configErrorf("derive swarm keys: %w", err)
	}

	transport, err := buildTransport(cfg)
	if err != nil {
		return err
	}
	defer transport.Close()

	log := soullog.Default()
	bus := fabric.NewBus(nil)
	if cfg.Fabric.NATSURL != "" {
		if err := bus.ConnectNATS(cfg.Fabric.NATSURL); err != nil {
			log.Warn("NATS mirror unavailable, continuing in-process only", map[string]any{"err": err.Error()})
		}
	}

	daemon := chain.NewDaemon(dir, transport, encryptionKey, topic, bus)

	pidPath := pidFilePath(dir)
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	loop := runtime.New(runtime.Config{
		Dir:    dir,
		Bus:    bus,
		Daemon: daemon,
		Log:    log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loop.Start(ctx); err != nil {
		return fmt.Errorf("start runtime loop: %w", err)
	}

	log.Info("soulchain joined swarm", map[string]any{"path": c.Path, "peer": chain.ShortID(topic)})
	<-ctx.Done()
	log.Info("soulchain stopping", nil)

	loop.Stop()
	return nil
}
