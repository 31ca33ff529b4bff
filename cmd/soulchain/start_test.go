package main

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/soulproto/soul/internal/chain"
	"github.com/soulproto/soul/internal/tree"
)

func TestStartCmd_WritesPidFileAndExitsOnSIGTERM(t *testing.T) {
	root := t.TempDir()
	dir, err := tree.Open(root)
	if err != nil {
		t.Fatal(err)
	}
	words, err := chain.Generate()
	if err != nil {
		t.Fatal(err)
	}
	if err := writeToken(dir, words); err != nil {
		t.Fatal(err)
	}

	c := &StartCmd{Path: root}
	done := make(chan error, 1)
	go func() {
		done <- c.Run()
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(pidFilePath(dir)); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("pid file was never written")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("StartCmd.Run returned an error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("soulchain process did not stop after SIGTERM")
	}

	if _, err := os.Stat(pidFilePath(dir)); !os.IsNotExist(err) {
		t.Error("expected pid file to be removed after shutdown")
	}
}

func TestStartCmd_MissingTokenIsConfigError(t *testing.T) {
	root := t.TempDir()
	c := &StartCmd{Path: root}
	done := make(chan error, 1)
	go func() { done <- c.Run() }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error when no token has been adopted")
		}
		if _, ok := err.(*ConfigError); !ok {
			t.Errorf("expected a *ConfigError, got %T: %v", err, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("StartCmd.Run should fail fast without a token")
	}
}
