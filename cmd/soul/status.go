package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/soulproto/soul/internal/chain"
	"github.com/soulproto/soul/internal/fabric"
)

type statusReport struct {
	State       string     `json:"state"`
	Session     int        `json:"session,omitempty"`
	Since       *time.Time `json:"since,omitempty"`
	ChainHealth string     `json:"chainHealth,omitempty"`
	ChainPeers  int        `json:"chainPeers,omitempty"`
}

// Run reports whether the soul at c.Path is active or quiescent, plus
// Peer Chain health if a chain daemon has ever reported status there.
func (c *StatusCmd) Run() error {
	dir, err := openDir(c.Path)
	if err != nil {
		return err
	}

	marker, err := fabric.ReadSessionMarker(dir)
	if err != nil {
		return fmt.Errorf("read session marker: %w", err)
	}

	report := statusReport{State: "quiescent"}
	if marker != nil {
		report.State = "active"
		report.Session = marker.Session
		start := marker.Start
		report.Since = &start
	}

	if cs, err := chain.ReadStatus(dir); err == nil && cs != nil {
		report.ChainHealth = cs.Health
		report.ChainPeers = len(cs.Peers)
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("soul: %s\n", report.State)
	if marker != nil {
		fmt.Printf("  session %d, since %s\n", report.Session, marker.Start.Format(time.RFC3339))
	}
	if report.ChainHealth != "" {
		fmt.Printf("chain: %s (%d peers)\n", report.ChainHealth, report.ChainPeers)
	}
	return nil
}
