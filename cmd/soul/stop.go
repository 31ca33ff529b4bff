package main

import (
	"os"
	"strconv"
	"strings"
	"syscall"
)

// Run signals a running soul process to shut down gracefully, via the
// pid file start writes.
func (c *StopCmd) Run() error {
	dir, err := openDir(c.Path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(pidFilePath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return configErrorf("no running soul process found at %s (missing pid file)", c.Path)
		}
		return err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return configErrorf("pid file is corrupt: %w", err)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return err
	}
	return nil
}
