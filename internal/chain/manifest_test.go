package chain

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/soulproto/soul/internal/tree"
)

func newManifestTestDir(t *testing.T) *tree.Dir {
	t.Helper()
	root := t.TempDir()
	dir, err := tree.Found(root, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, dir.Seele), 0o755); err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, dir.KernPath(), "1. be_honest\n")
	writeTestFile(t, dir.Path(tree.SeedFile), "#SEED v1.0\n")
	writeTestFile(t, dir.Path(tree.KnowledgeFile), `{"type":"entity","name":"alice"}`+"\n")
	writeTestFile(t, dir.Path(tree.EnvFile), "SECRET=1\n")
	writeTestFile(t, dir.Path(tree.McpFile), "{}")
	writeTestFile(t, dir.SeelePath(".env"), "SECRET=2\n")
	return dir
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildIncludesTrackedFiles(t *testing.T) {
	dir := newManifestTestDir(t)
	m, err := Build(dir)
	if err != nil {
		t.Fatal(err)
	}

	byPath := make(map[string]bool)
	for _, f := range m.Files {
		byPath[f.Path] = true
	}
	if !byPath[tree.SeedFile] {
		t.Error("expected SEED.md in manifest")
	}
	if !byPath[tree.KnowledgeFile] {
		t.Error("expected knowledge-graph.jsonl in manifest")
	}
	kern := filepath.ToSlash(filepath.Join(dir.Seele, dir.Kern))
	if !byPath[kern] {
		t.Errorf("expected %s in manifest, got %+v", kern, m.Files)
	}
}

func TestBuildIgnoresEnvAndMcp(t *testing.T) {
	dir := newManifestTestDir(t)
	m, err := Build(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range m.Files {
		if f.Path == tree.EnvFile || f.Path == tree.McpFile {
			t.Errorf("expected %s to be excluded from the manifest", f.Path)
		}
	}
	envInSeele := filepath.ToSlash(filepath.Join(dir.Seele, ".env"))
	for _, f := range m.Files {
		if f.Path == envInSeele {
			t.Errorf("expected %s to be excluded from the manifest", envInSeele)
		}
	}
}

func TestDiffRequestsNewerRemoteFiles(t *testing.T) {
	local := &Manifest{Files: []FileEntry{
		{Path: "SEED.md", Hash: "aaaa", MtimeMS: 1000},
	}}
	remote := &Manifest{Files: []FileEntry{
		{Path: "SEED.md", Hash: "bbbb", MtimeMS: 2000},
		{Path: "SOUL.md", Hash: "cccc", MtimeMS: 500},
	}}
	need := Diff(local, remote)
	wantSet := map[string]bool{"SEED.md": true, "SOUL.md": true}
	if len(need) != 2 {
		t.Fatalf("need = %v, want 2 entries", need)
	}
	for _, p := range need {
		if !wantSet[p] {
			t.Errorf("unexpected need for %s", p)
		}
	}
}

func TestDiffLeavesExactTieToLocal(t *testing.T) {
	local := &Manifest{Files: []FileEntry{{Path: "SEED.md", Hash: "aaaa", MtimeMS: 1000}}}
	remote := &Manifest{Files: []FileEntry{{Path: "SEED.md", Hash: "bbbb", MtimeMS: 1000}}}
	if need := Diff(local, remote); len(need) != 0 {
		t.Errorf("expected no need on an exact mtime tie, got %v", need)
	}
}

func TestClampMtimePreventsFutureDating(t *testing.T) {
	now := time.Now().UnixMilli()
	if got := ClampMtime(now, now+1_000_000); got != now {
		t.Errorf("ClampMtime = %d, want %d", got, now)
	}
	if got := ClampMtime(now, now-500); got != now-500 {
		t.Errorf("ClampMtime should pass through past timestamps unchanged, got %d", got)
	}
}
