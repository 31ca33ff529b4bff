// Package tree implements the Soul Directory: canonical paths, atomic I/O,
// and the invariants the rest of the protocol depends on.
package tree

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir is a rooted Soul Directory. It resolves the German/English synonym
// pairs once at load time so every other package can use a single path.
type Dir struct {
	Root string

	// Seele is either "seele" or "soul" — whichever exists on disk.
	// Founding picks one (config-driven) when neither exists yet.
	Seele string

	// Erinnerungen is either "erinnerungen" or "memories".
	Erinnerungen string

	// Zustandslog is either "zustandslog" or "statelog".
	Zustandslog string

	// Kern is either "KERN.md" or "CORE.md", inside Seele.
	Kern string
}

// Canonical top-level entries, relative to Root.
const (
	SeedFile      = "SEED.md"
	SoulFile      = "SOUL.md"
	McpFile       = ".mcp.json"
	EnvFile       = ".env"
	EnvEncFile    = ".env.enc"
	KnowledgeFile = "knowledge-graph.jsonl"

	PulseFile          = ".soul-pulse"
	MoodFile           = ".soul-mood"
	EventsDir          = ".soul-events"
	EventsCurrentFile  = EventsDir + "/current.jsonl"
	SessionActiveFile  = ".session-active"
	SessionWritesFile  = ".session-writes"
	ImpulseStateFile   = ".soul-impulse-state"
	ImpulseLogFile     = ".soul-impulse-log"
	ChainDir           = ".soul-chain"
	ChainStatusFile    = ".soul-chain-status"
	HeartbeatDir       = "heartbeat"
	MemoryDir          = "memory"
	LanguageFile       = ".language"
	StateTickFile      = ".soul-state-tick"
)

// Open resolves synonym directories against an existing soul directory.
// It never creates anything; use Found for a brand-new soul.
func Open(root string) (*Dir, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("soul path %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("soul path %s is not a directory", root)
	}

	d := &Dir{Root: root}
	d.Seele = pickSynonym(root, "seele", "soul")
	d.Erinnerungen = pickSynonym(root, "erinnerungen", "memories")
	d.Zustandslog = pickSynonym(root, "zustandslog", "statelog")
	d.Kern = pickSynonym(filepath.Join(root, d.Seele), "KERN.md", "CORE.md")
	return d, nil
}

// Found resolves synonyms for a brand-new soul, preferring the given
// (German-first by default) names when neither exists yet.
func Found(root string, preferGerman bool) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create soul path %s: %w", root, err)
	}
	d := &Dir{Root: root}
	d.Seele = pickOrDefault(root, "seele", "soul", preferGerman)
	d.Erinnerungen = pickOrDefault(root, "erinnerungen", "memories", preferGerman)
	d.Zustandslog = pickOrDefault(root, "zustandslog", "statelog", preferGerman)
	d.Kern = pickOrDefault(filepath.Join(root, d.Seele), "KERN.md", "CORE.md", preferGerman)
	return d, nil
}

func pickSynonym(root, german, english string) string {
	if _, err := os.Stat(filepath.Join(root, german)); err == nil {
		return german
	}
	return english
}

func pickOrDefault(root, german, english string, preferGerman bool) string {
	gOK := exists(filepath.Join(root, german))
	eOK := exists(filepath.Join(root, english))
	switch {
	case gOK && !eOK:
		return german
	case eOK && !gOK:
		return english
	case preferGerman:
		return german
	default:
		return english
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Path joins a relative path onto the soul root.
func (d *Dir) Path(rel string) string {
	return filepath.Join(d.Root, rel)
}

// SeelePath joins a relative path onto the resolved seele/soul directory.
func (d *Dir) SeelePath(rel string) string {
	return filepath.Join(d.Root, d.Seele, rel)
}

// ErinnerungenPath joins a relative path onto the resolved memory-layer directory.
func (d *Dir) ErinnerungenPath(layer, rel string) string {
	return filepath.Join(d.Root, d.Erinnerungen, layer, rel)
}

// ZustandslogPath joins a relative path onto the resolved state-log directory.
func (d *Dir) ZustandslogPath(rel string) string {
	return filepath.Join(d.Root, d.Zustandslog, rel)
}

// KernPath returns the absolute path of the immutable axioms file.
func (d *Dir) KernPath() string {
	return filepath.Join(d.Root, d.Seele, d.Kern)
}

// BeziehungenDir returns the relationships directory under Seele.
func (d *Dir) BeziehungenDir() string {
	return filepath.Join(d.Root, d.Seele, "beziehungen")
}
