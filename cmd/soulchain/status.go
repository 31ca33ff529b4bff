package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/soulproto/soul/internal/chain"
)

// Run prints the last-written Peer Chain status, or reports that the
// daemon has never run if no status file exists yet.
func (c *StatusCmd) Run() error {
	dir, err := openDir(c.Path)
	if err != nil {
		return err
	}

	status, err := chain.ReadStatus(dir)
	if err != nil {
		return fmt.Errorf("read chain status: %w", err)
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if status == nil {
			return enc.Encode(map[string]any{"active": false})
		}
		return enc.Encode(status)
	}

	if status == nil {
		fmt.Println("soulchain: never started")
		return nil
	}
	fmt.Printf("soulchain: %s (active=%v)\n", status.Health, status.Active)
	fmt.Printf("  peers: %d, total synced: %d, since: %s\n", len(status.Peers), status.TotalSynced, status.Since)
	return nil
}
