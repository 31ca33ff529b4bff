package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/soulproto/soul/internal/soullog"
)

// hookRequest is the JSON object HookCmd reads from stdin. LastMessage
// is the agent's candidate final message for the stop event being
// evaluated.
type hookRequest struct {
	LastMessage string `json:"last_message"`
}

// hookResponse is written to stdout: the goodbye-detector's decision.
type hookResponse struct {
	Block  bool   `json:"block"`
	Reason string `json:"reason,omitempty"`
}

// Run reads a hookRequest from stdin, evaluates it against the
// goodbye-detector, and writes a hookResponse to stdout. It always
// returns nil on a successful read/evaluate/write cycle: the decision
// itself, not the process exit code, is how the caller learns whether
// to block.
func (c *HookCmd) Run() error {
	var req hookRequest
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		return fmt.Errorf("decode hook request: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir, err := openDir(c.Path)
	if err != nil {
		return err
	}

	g, _, err := newGuard(dir, cfg, soullog.Default())
	if err != nil {
		return err
	}

	decision := g.Goodbye(req.LastMessage)

	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(hookResponse{Block: decision.Block, Reason: decision.Reason})
}
