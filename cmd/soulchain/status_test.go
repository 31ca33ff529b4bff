package main

import "testing"

func TestStatusCmd_NeverStarted(t *testing.T) {
	root := t.TempDir()
	c := &StatusCmd{Path: root}
	if err := c.Run(); err != nil {
		t.Fatal(err)
	}
}

func TestStatusCmd_MissingDirectoryErrors(t *testing.T) {
	c := &StatusCmd{Path: t.TempDir() + "/does-not-exist"}
	if err := c.Run(); err == nil {
		t.Error("expected an error opening a path that does not exist")
	}
}
