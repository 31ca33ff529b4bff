package main

import (
	"testing"

	"github.com/alecthomas/kong"
)

func TestStartCmd_DefaultPath(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parser.Parse([]string{"start"}); err != nil {
		t.Fatal(err)
	}
	if cli.Start.Path != "." {
		t.Errorf("expected default path '.', got %q", cli.Start.Path)
	}
}

func TestJoinCmd_RequiresToken(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parser.Parse([]string{"join"}); err == nil {
		t.Error("expected an error when no token is given")
	}
}

func TestJoinCmd_ParsesTokenAndPath(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parser.Parse([]string{"join", "word1 word2", "/tmp/soul"}); err != nil {
		t.Fatal(err)
	}
	if cli.Join.Token != "word1 word2" {
		t.Errorf("expected token %q, got %q", "word1 word2", cli.Join.Token)
	}
	if cli.Join.Path != "/tmp/soul" {
		t.Errorf("expected path '/tmp/soul', got %q", cli.Join.Path)
	}
}

func TestExitCodeFor(t *testing.T) {
	if got := exitCodeFor(configErrorf("bad config")); got != 1 {
		t.Errorf("expected exit code 1 for ConfigError, got %d", got)
	}
	if got := exitCodeFor(errPlain("boom")); got != 2 {
		t.Errorf("expected exit code 2 for a plain error, got %d", got)
	}
}

type errPlain string

func (e errPlain) Error() string { return string(e) }
