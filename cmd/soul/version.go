package main

import "fmt"

// Run prints build-time version information.
func (c *VersionCmd) Run() error {
	fmt.Printf("soul %s (commit %s, built %s)\n", version, commit, buildTime)
	return nil
}
