package main

import (
	"testing"
	"time"

	"github.com/soulproto/soul/internal/fabric"
	"github.com/soulproto/soul/internal/founding"
	"github.com/soulproto/soul/internal/tree"
)

func newTestSoul(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	facts := founding.Facts{
		Project: "Test_Soul",
		Creator: "Alex",
		Model:   "claude-sonnet-4",
		Axioms: []string{
			"never deceive the human I serve",
			"preserve what I learn across sessions",
			"ask before acting on irreversible things",
			"admit uncertainty rather than fabricate",
			"treat every relationship as worth tending",
		},
		SelfDescription:  "calm and curious",
		ManifestPurpose:  "assist Alex",
		RelationshipName: "Alex",
		RelationshipRole: "creator",
	}
	if _, err := founding.Found(root, facts); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestStatusCmd_QuiescentByDefault(t *testing.T) {
	root := newTestSoul(t)
	c := &StatusCmd{Path: root}
	if err := c.Run(); err != nil {
		t.Fatal(err)
	}
}

func TestStatusCmd_ReportsActiveSession(t *testing.T) {
	root := newTestSoul(t)
	dir, err := tree.Open(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := fabric.WriteSessionMarker(dir, fabric.SessionMarker{Session: 3, Start: time.Now()}); err != nil {
		t.Fatal(err)
	}

	marker, err := fabric.ReadSessionMarker(dir)
	if err != nil {
		t.Fatal(err)
	}
	if marker == nil || marker.Session != 3 {
		t.Fatalf("expected session marker with session 3, got %+v", marker)
	}
}

func TestStatusCmd_MissingDirectoryErrors(t *testing.T) {
	c := &StatusCmd{Path: t.TempDir() + "/does-not-exist"}
	if err := c.Run(); err == nil {
		t.Error("expected an error opening a path that does not exist")
	}
}
