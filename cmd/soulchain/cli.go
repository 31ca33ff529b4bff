// Package main is the entry point for the soulchain process: the Peer
// Chain daemon that synchronizes one soul's Activity Fabric and Seed
// state with the rest of its swarm.
package main

import "github.com/alecthomas/kong"

// CLI defines the command-line interface.
type CLI struct {
	Start   StartCmd   `cmd:"" help:"Join the swarm and sync until stopped"`
	Stop    StopCmd    `cmd:"" help:"Signal a running soulchain process to shut down"`
	Status  StatusCmd  `cmd:"" help:"Report Peer Chain health"`
	Init    InitCmd    `cmd:"" help:"Generate a new swarm token and print it"`
	Join    JoinCmd    `cmd:"" help:"Validate a swarm token and adopt it"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// StartCmd joins the swarm identified by the adopted token and syncs
// until a stop signal arrives.
type StartCmd struct {
	Path string `arg:"" optional:"" default:"." help:"Soul directory"`
}

// StopCmd asks a running soulchain process (found via its pid file) to
// shut down.
type StopCmd struct {
	Path string `arg:"" optional:"" default:"." help:"Soul directory"`
}

// StatusCmd reports the last-written Peer Chain status.
type StatusCmd struct {
	Path string `arg:"" optional:"" default:"." help:"Soul directory"`
	JSON bool   `help:"Print machine-readable JSON instead of text"`
}

// InitCmd generates a fresh 16-word mnemonic, the swarm token for a
// brand-new swarm of one, and persists it for the subsequent start.
type InitCmd struct {
	Path string `arg:"" optional:"" default:"." help:"Soul directory"`
}

// JoinCmd validates an existing swarm's token and persists it, so a
// subsequent start dials into that swarm instead of minting a new one.
type JoinCmd struct {
	Token string `arg:"" help:"Swarm token: 16 space-separated mnemonic words"`
	Path  string `arg:"" optional:"" default:"." help:"Soul directory"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

// kongVars supplies template variables kong substitutes into help text.
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}
