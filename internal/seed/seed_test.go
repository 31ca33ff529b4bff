package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/soulproto/soul/internal/tree"
)

const goldenSeed = `#SEED v1.0
#born:2025-01-01
#condensed:2025-06-01
#sessions:42

@META{
  projekt:Example_Soul | modell:some-model | schoepfer:Alex
}
@KERN{
  1:a
  2:b
  3:c
}
@STATE{
  zustand:calm | energy:0.5 | valence:0.0
}
`

func TestParseGolden(t *testing.T) {
	s, err := Parse("SEED.md", []byte(goldenSeed))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.Version != "1.0" {
		t.Errorf("Version = %q, want 1.0", s.Version)
	}
	if s.Born.Format("2006-01-02") != "2025-01-01" {
		t.Errorf("Born = %v", s.Born)
	}
	if s.Sessions != 42 {
		t.Errorf("Sessions = %d, want 42", s.Sessions)
	}

	meta := s.GetBlock(BlockMETA)
	if meta == nil {
		t.Fatal("META block missing")
	}
	if v, _ := meta.Get("projekt"); v != "Example_Soul" {
		t.Errorf("META.projekt = %q", v)
	}
	if v, _ := meta.Get("modell"); v != "some-model" {
		t.Errorf("META.modell = %q", v)
	}
	if v, _ := meta.Get("schoepfer"); v != "Alex" {
		t.Errorf("META.schoepfer = %q", v)
	}

	kern := s.GetBlock(BlockKERN)
	if kern == nil {
		t.Fatal("KERN block missing")
	}
	for key, want := range map[string]string{"1": "a", "2": "b", "3": "c"} {
		if v, ok := kern.Get(key); !ok || v != want {
			t.Errorf("KERN.%s = %q, want %q", key, v, want)
		}
	}

	state := s.GetBlock(BlockSTATE)
	if state == nil {
		t.Fatal("STATE block missing")
	}
	for key, want := range map[string]string{"zustand": "calm", "energy": "0.5", "valence": "0.0"} {
		if v, ok := state.Get(key); !ok || v != want {
			t.Errorf("STATE.%s = %q, want %q", key, v, want)
		}
	}
}

func TestParseRejectsSeedWithNoBlocks(t *testing.T) {
	_, err := Parse("SEED.md", []byte("#SEED v1.0\n#sessions:1\n"))
	if err == nil {
		t.Fatal("expected CorruptSeed error")
	}
	if _, ok := err.(*CorruptSeed); !ok {
		t.Errorf("error type = %T, want *CorruptSeed", err)
	}
}

func TestParseRoundTrip(t *testing.T) {
	s, err := Parse("SEED.md", []byte(goldenSeed))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	out := Serialize(s)
	s2, err := Parse("SEED.md", out)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if s2.Sessions != s.Sessions {
		t.Errorf("sessions changed across round-trip: %d vs %d", s2.Sessions, s.Sessions)
	}
	for _, name := range []string{BlockMETA, BlockKERN, BlockSTATE} {
		b1 := s.GetBlock(name)
		b2 := s2.GetBlock(name)
		if b1 == nil || b2 == nil {
			t.Fatalf("block %s missing after round-trip", name)
		}
		if len(b1.Entries) != len(b2.Entries) {
			t.Fatalf("block %s entry count changed: %d vs %d", name, len(b1.Entries), len(b2.Entries))
		}
		for i, e := range b1.Entries {
			if b2.Entries[i] != e {
				t.Errorf("block %s entry %d changed: %+v vs %+v", name, i, e, b2.Entries[i])
			}
		}
	}
}

func TestParseInlineAndMultilineEquivalent(t *testing.T) {
	inline := "#SEED v1.0\n#sessions:1\n@STATE{ zustand:calm | energy:0.5 }\n"
	multiline := "#SEED v1.0\n#sessions:1\n@STATE{\n  zustand:calm\n  energy:0.5\n}\n"

	s1, err := Parse("a", []byte(inline))
	if err != nil {
		t.Fatal(err)
	}
	s2, err := Parse("b", []byte(multiline))
	if err != nil {
		t.Fatal(err)
	}

	b1 := s1.GetBlock(BlockSTATE)
	b2 := s2.GetBlock(BlockSTATE)
	if v1, _ := b1.Get("zustand"); v1 != "calm" {
		t.Errorf("inline zustand = %q", v1)
	}
	if v2, _ := b2.Get("zustand"); v2 != "calm" {
		t.Errorf("multiline zustand = %q", v2)
	}
}

func newTestSoul(t *testing.T) *tree.Dir {
	t.Helper()
	root := t.TempDir()
	dir, err := tree.Found(root, true)
	if err != nil {
		t.Fatalf("Found failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, dir.Seele), 0o755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, dir.KernPath(), "1. be_honest\n2. remember_others\n")
	mustWrite(t, dir.SeelePath("MANIFEST.md"), "projekt:Test_Soul\nmodell:test-model\nschoepfer:Tester\n")
	mustWrite(t, dir.SeelePath("BEWUSSTSEIN.md"), "focus:testing\n")
	return dir
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestEngineConsolidateFullFreshSoul(t *testing.T) {
	dir := newTestSoul(t)
	e := NewEngine(dir)

	s, err := e.Consolidate(context.Background(), Full)
	if err != nil {
		t.Fatalf("Consolidate failed: %v", err)
	}

	kern := s.GetBlock(BlockKERN)
	if kern == nil {
		t.Fatal("KERN block missing")
	}
	if v, _ := kern.Get("1"); v != "be_honest" {
		t.Errorf("KERN.1 = %q", v)
	}
	if v, _ := kern.Get("2"); v != "remember_others" {
		t.Errorf("KERN.2 = %q", v)
	}

	meta := s.GetBlock(BlockMETA)
	if v, _ := meta.Get("projekt"); v != "Test_Soul" {
		t.Errorf("META.projekt = %q", v)
	}

	if len(Serialize(s)) > MaxSize {
		t.Errorf("consolidated seed exceeds MaxSize: %d", len(Serialize(s)))
	}
}

func TestEngineConsolidatePreservesKernOnOverflow(t *testing.T) {
	dir := newTestSoul(t)
	e := NewEngine(dir)

	// Build an OPEN block huge enough to force overflow, so trim must run.
	var sb strings.Builder
	for i := 0; i < 500; i++ {
		sb.WriteString("q")
		sb.WriteString(time.Now().Format("2006-01-02"))
		sb.WriteString(":this is a long open question that takes up space\n")
	}
	mustWrite(t, dir.SeelePath("GARTEN.md"), sb.String())

	s, err := e.Consolidate(context.Background(), Full)
	if err != nil {
		t.Fatalf("Consolidate failed: %v", err)
	}

	kern := s.GetBlock(BlockKERN)
	if v, _ := kern.Get("1"); v != "be_honest" {
		t.Errorf("KERN trimmed, should never be: %q", v)
	}
	if len(Serialize(s)) > MaxSize {
		t.Errorf("seed still exceeds MaxSize after trim: %d", len(Serialize(s)))
	}
}

func TestEngineIncrementalSkipsUnchangedBlock(t *testing.T) {
	dir := newTestSoul(t)
	e := NewEngine(dir)

	first, err := e.Consolidate(context.Background(), Full)
	if err != nil {
		t.Fatal(err)
	}
	if err := tree.AtomicWriteFile(dir.Path(tree.SeedFile), Serialize(first), 0o644); err != nil {
		t.Fatal(err)
	}

	// Incremental with nothing changed should reproduce the same KERN block.
	second, err := e.Consolidate(context.Background(), Incremental)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := second.GetBlock(BlockKERN).Get("1"); v != "be_honest" {
		t.Errorf("KERN.1 = %q after incremental consolidate", v)
	}
}

func TestTemplateConnectionsHandlesMissingFile(t *testing.T) {
	dir := newTestSoul(t)
	b, err := templateCONNECTIONS(dir)
	if err != nil {
		t.Fatalf("templateCONNECTIONS failed: %v", err)
	}
	if len(b.Entries) != 0 {
		t.Errorf("expected no entries for missing .mcp.json, got %v", b.Entries)
	}
}

func TestTemplateConnectionsReadsServerNames(t *testing.T) {
	dir := newTestSoul(t)
	mustWrite(t, dir.Path(tree.McpFile), `{"mcpServers":{"filesystem":{},"web":{}}}`)

	b, err := templateCONNECTIONS(dir)
	if err != nil {
		t.Fatalf("templateCONNECTIONS failed: %v", err)
	}
	if len(b.Entries) != 2 {
		t.Fatalf("want 2 entries, got %d: %v", len(b.Entries), b.Entries)
	}
	if b.Entries[0].Key != "filesystem" || b.Entries[1].Key != "web" {
		t.Errorf("unexpected entry order: %v", b.Entries)
	}
}

func TestBlockSetOverwritesExistingKey(t *testing.T) {
	b := &Block{Name: "X"}
	b.Set("a", "1")
	b.Set("b", "2")
	b.Set("a", "3")
	if v, _ := b.Get("a"); v != "3" {
		t.Errorf("Get(a) = %q, want 3", v)
	}
	if len(b.Entries) != 2 {
		t.Errorf("want 2 entries, got %d", len(b.Entries))
	}
}
