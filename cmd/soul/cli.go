// Package main is the entry point for the soul agent process: the
// binary that owns one soul directory's Session Guard and keeps it
// alive between founding and shutdown.
package main

import "github.com/alecthomas/kong"

// CLI defines the command-line interface.
type CLI struct {
	Start   StartCmd   `cmd:"" help:"Wake the Session Guard and run the event loop until stopped"`
	Stop    StopCmd    `cmd:"" help:"Signal a running soul process to shut down gracefully"`
	Status  StatusCmd  `cmd:"" help:"Report Session Guard state"`
	Init    InitCmd    `cmd:"" help:"Found a new soul via the interactive wizard"`
	Hook    HookCmd    `cmd:"" help:"Goodbye-detector hook entry point"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// StartCmd wakes the Session Guard and runs the runtime loop until a
// stop signal or the stop command's SIGTERM arrives.
type StartCmd struct {
	Path string `arg:"" optional:"" default:"." help:"Soul directory"`
}

// StopCmd asks a running soul process (found via its pid file) to shut
// down, giving the Session Guard a chance to consolidate first.
type StopCmd struct {
	Path string `arg:"" optional:"" default:"." help:"Soul directory"`
}

// StatusCmd reports whether the Guard is active or quiescent.
type StatusCmd struct {
	Path string `arg:"" optional:"" default:"." help:"Soul directory"`
	JSON bool   `help:"Print machine-readable JSON instead of text"`
}

// InitCmd founds a brand-new soul at Path.
type InitCmd struct {
	Path string `arg:"" optional:"" default:"." help:"Directory to found the soul in"`
}

// HookCmd is the goodbye-detector's hook entry point: it reads a single
// JSON object from stdin and writes a decision to stdout.
type HookCmd struct {
	Path string `help:"Soul directory" default:"."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

// kongVars supplies template variables kong substitutes into help text.
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}
