package main

import (
	"fmt"

	"github.com/soulproto/soul/internal/founding"
)

// Run starts the interactive founding wizard rooted at c.Path.
func (c *InitCmd) Run() error {
	if err := founding.Run(c.Path); err != nil {
		return fmt.Errorf("founding wizard: %w", err)
	}
	return nil
}
