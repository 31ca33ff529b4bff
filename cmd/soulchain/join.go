package main

import "github.com/soulproto/soul/internal/chain"

// Run validates c.Token and adopts it, so the next start dials into the
// swarm it identifies rather than minting a new one.
func (c *JoinCmd) Run() error {
	dir, err := openDir(c.Path)
	if err != nil {
		return err
	}

	words := chain.Split(c.Token)
	return writeToken(dir, words)
}
