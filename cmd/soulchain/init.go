package main

import (
	"fmt"
	"strings"

	"github.com/soulproto/soul/internal/chain"
)

// Run mints a fresh swarm token, adopts it for this soul, and prints it
// so the operator can hand it to a peer via `soulchain join`.
func (c *InitCmd) Run() error {
	dir, err := openDir(c.Path)
	if err != nil {
		return err
	}

	words, err := chain.Generate()
	if err != nil {
		return fmt.Errorf("generate swarm token: %w", err)
	}
	if err := writeToken(dir, words); err != nil {
		return err
	}

	fmt.Println(strings.Join(words, " "))
	return nil
}
