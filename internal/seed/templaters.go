package seed

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/soulproto/soul/internal/tree"
)

// Templater reads one or more typed source files and produces the block
// body for a single block name. Same inputs must always produce a
// byte-identical block: the Engine relies on this for incremental mode's
// change detection and for the round-trip testable property.
type Templater func(dir *tree.Dir) (*Block, error)

// mechanicalTemplaters maps block name to its source-reading function. Only
// blocks with a pure file-in/string-out source belong here; STATE and MEM
// are LLM-assisted and go through Summarizer instead.
var mechanicalTemplaters = map[string]Templater{
	BlockMETA:        templateMETA,
	BlockKERN:        templateKERN,
	BlockSELF:        templateSELF,
	BlockSHADOW:      templateSHADOW,
	BlockOPEN:        templateOPEN,
	BlockINTERESTS:   templateINTERESTS,
	BlockCONNECTIONS: templateCONNECTIONS,
	BlockGROWTH:      templateGROWTH,
	BlockDREAMS:      templateDREAMS,
	BlockBONDS:       templateBONDS,
	BlockVORSCHLAG:   templateVORSCHLAG,
}

// readKeyValueFile reads a file of key:value lines (one per line, blank
// lines and lines starting with '#' ignored) in stable source order.
func readKeyValueFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		entries = append(entries, Entry{
			Key:   strings.TrimSpace(line[:idx]),
			Value: strings.TrimSpace(line[idx+1:]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func templateMETA(dir *tree.Dir) (*Block, error) {
	entries, err := readKeyValueFile(dir.SeelePath("MANIFEST.md"))
	if err != nil {
		return nil, &BlockTemplateFailed{Block: BlockMETA, Err: err}
	}
	return &Block{Name: BlockMETA, Entries: entries}, nil
}

// templateKERN reads the immutable axioms file, a numbered list ("1. text"
// or "1:text" per line), and carries each numbered axiom through unchanged.
// KERN is never trimmed by consolidation.
func templateKERN(dir *tree.Dir) (*Block, error) {
	f, err := os.Open(dir.KernPath())
	if err != nil {
		return nil, &BlockTemplateFailed{Block: BlockKERN, Err: err}
	}
	defer f.Close()

	var entries []Entry
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		line = strings.TrimPrefix(line, "#")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		text := stripListMarker(line)
		if text == "" {
			continue
		}
		n++
		entries = append(entries, Entry{Key: fmt.Sprintf("%d", n), Value: text})
	}
	if err := sc.Err(); err != nil {
		return nil, &BlockTemplateFailed{Block: BlockKERN, Err: err}
	}
	return &Block{Name: BlockKERN, Entries: entries}, nil
}

// stripListMarker removes a leading "1. ", "1) ", or "1:" list marker.
func stripListMarker(line string) string {
	for i, r := range line {
		if r >= '0' && r <= '9' {
			continue
		}
		if i == 0 {
			return line
		}
		rest := strings.TrimLeft(line[i:], ".): ")
		return strings.TrimSpace(rest)
	}
	return ""
}

func templateSELF(dir *tree.Dir) (*Block, error) {
	entries, err := readKeyValueFile(dir.SeelePath("BEWUSSTSEIN.md"))
	if err != nil {
		return nil, &BlockTemplateFailed{Block: BlockSELF, Err: err}
	}
	return &Block{Name: BlockSELF, Entries: entries}, nil
}

func templateSHADOW(dir *tree.Dir) (*Block, error) {
	entries, err := readKeyValueFile(dir.SeelePath("SCHATTEN.md"))
	if err != nil {
		return nil, &BlockTemplateFailed{Block: BlockSHADOW, Err: err}
	}
	return &Block{Name: BlockSHADOW, Entries: entries}, nil
}

// templateOPEN reads the open-questions facet. Its tail is the first thing
// consolidation trims on overflow.
func templateOPEN(dir *tree.Dir) (*Block, error) {
	entries, err := readKeyValueFile(dir.SeelePath("GARTEN.md"))
	if err != nil {
		return nil, &BlockTemplateFailed{Block: BlockOPEN, Err: err}
	}
	return &Block{Name: BlockOPEN, Entries: entries}, nil
}

func templateINTERESTS(dir *tree.Dir) (*Block, error) {
	entries, err := readKeyValueFile(dir.SeelePath("INTERESSEN.md"))
	if err != nil {
		return nil, &BlockTemplateFailed{Block: BlockINTERESTS, Err: err}
	}
	return &Block{Name: BlockINTERESTS, Entries: entries}, nil
}

// templateCONNECTIONS reads .mcp.json. This is the one block whose source
// format is genuinely JSON rather than the seed's own key:value grammar, so
// it uses encoding/json directly rather than a library — there is no
// superior third-party JSON library in the example pack for a simple,
// already-typed config file read.
func templateCONNECTIONS(dir *tree.Dir) (*Block, error) {
	path := dir.Path(tree.McpFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Block{Name: BlockCONNECTIONS}, nil
	}
	if err != nil {
		return nil, &BlockTemplateFailed{Block: BlockCONNECTIONS, Err: err}
	}

	var cfg struct {
		McpServers map[string]json.RawMessage `json:"mcpServers"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &BlockTemplateFailed{Block: BlockCONNECTIONS, Err: err}
	}

	names := make([]string, 0, len(cfg.McpServers))
	for name := range cfg.McpServers {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, Entry{Key: name, Value: "connected"})
	}
	return &Block{Name: BlockCONNECTIONS, Entries: entries}, nil
}

func templateGROWTH(dir *tree.Dir) (*Block, error) {
	entries, err := readKeyValueFile(dir.SeelePath("WACHSTUM.md"))
	if err != nil {
		return nil, &BlockTemplateFailed{Block: BlockGROWTH, Err: err}
	}
	return &Block{Name: BlockGROWTH, Entries: entries}, nil
}

// templateDREAMS reads entries keyed by an ISO date, so consolidation can
// trim entries older than 30 days by key alone.
func templateDREAMS(dir *tree.Dir) (*Block, error) {
	entries, err := readKeyValueFile(dir.SeelePath("TRAEUME.md"))
	if err != nil {
		return nil, &BlockTemplateFailed{Block: BlockDREAMS, Err: err}
	}
	return &Block{Name: BlockDREAMS, Entries: entries}, nil
}

// templateBONDS reads one entry per relationship file under the
// relationships directory, keyed by the file's base name (minus extension),
// valued by its "status" key (active/inactive).
func templateBONDS(dir *tree.Dir) (*Block, error) {
	relDir := dir.BeziehungenDir()
	files, err := os.ReadDir(relDir)
	if os.IsNotExist(err) {
		return &Block{Name: BlockBONDS}, nil
	}
	if err != nil {
		return nil, &BlockTemplateFailed{Block: BlockBONDS, Err: err}
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		if f.IsDir() || tree.IsTmpSibling(f.Name()) {
			continue
		}
		names = append(names, f.Name())
	}
	sort.Strings(names)

	var entries []Entry
	for _, name := range names {
		kv, err := readKeyValueFile(filepath.Join(relDir, name))
		if err != nil {
			continue
		}
		status := "active"
		for _, e := range kv {
			if e.Key == "status" {
				status = e.Value
			}
		}
		key := strings.TrimSuffix(name, filepath.Ext(name))
		entries = append(entries, Entry{Key: key, Value: status})
	}
	return &Block{Name: BlockBONDS, Entries: entries}, nil
}

func templateVORSCHLAG(dir *tree.Dir) (*Block, error) {
	entries, err := readKeyValueFile(dir.SeelePath("EVOLUTION.md"))
	if err != nil {
		return nil, &BlockTemplateFailed{Block: BlockVORSCHLAG, Err: err}
	}
	return &Block{Name: BlockVORSCHLAG, Entries: entries}, nil
}

// dreamIsOld reports whether a DREAMS entry keyed by an ISO date is older
// than 30 days relative to now. Entries with unparseable keys are kept.
func dreamIsOld(key string, now time.Time) bool {
	t, err := time.Parse("2006-01-02", key)
	if err != nil {
		return false
	}
	return now.Sub(t) > 30*24*time.Hour
}
