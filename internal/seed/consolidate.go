package seed

import (
	"context"
	"os"
	"time"

	"github.com/soulproto/soul/internal/tree"
)

// Mode selects how much of the seed consolidate re-templates.
type Mode int

const (
	// Full re-emits every block regardless of whether its source changed.
	Full Mode = iota
	// Incremental re-emits only blocks whose backing files changed since
	// the previous consolidation.
	Incremental
)

// sourcePaths maps a block name to the backing file(s) whose mtime gates
// incremental re-templating. Blocks with no listed source (none, currently)
// are always re-templated.
func sourcePaths(dir *tree.Dir, name string) []string {
	switch name {
	case BlockMETA:
		return []string{dir.SeelePath("MANIFEST.md")}
	case BlockKERN:
		return []string{dir.KernPath()}
	case BlockSELF:
		return []string{dir.SeelePath("BEWUSSTSEIN.md")}
	case BlockSHADOW:
		return []string{dir.SeelePath("SCHATTEN.md")}
	case BlockOPEN:
		return []string{dir.SeelePath("GARTEN.md")}
	case BlockINTERESTS:
		return []string{dir.SeelePath("INTERESSEN.md")}
	case BlockCONNECTIONS:
		return []string{dir.Path(tree.McpFile)}
	case BlockGROWTH:
		return []string{dir.SeelePath("WACHSTUM.md")}
	case BlockDREAMS:
		return []string{dir.SeelePath("TRAEUME.md")}
	case BlockBONDS:
		return []string{dir.BeziehungenDir()}
	case BlockVORSCHLAG:
		return []string{dir.SeelePath("EVOLUTION.md")}
	default:
		return nil
	}
}

func changedSince(paths []string, since time.Time) bool {
	if since.IsZero() {
		return true
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.ModTime().After(since) {
			return true
		}
	}
	return false
}

// Engine consolidates SEED.md: it combines the mechanical templaters with a
// Summarizer for the LLM-assisted blocks and enforces the size invariant.
type Engine struct {
	Dir        *tree.Dir
	Summarizer Summarizer
	Now        func() time.Time
}

// NewEngine returns an Engine using NullSummarizer and time.Now unless
// overridden.
func NewEngine(dir *tree.Dir) *Engine {
	return &Engine{
		Dir:        dir,
		Summarizer: NullSummarizer{},
		Now:        time.Now,
	}
}

// Consolidate loads the previous SEED.md (if any), re-templates per mode,
// trims on overflow, and returns the new seed. It never writes the file;
// callers persist the result via tree.AtomicWriteFile.
func (e *Engine) Consolidate(ctx context.Context, mode Mode) (*Seed, error) {
	prev, prevErr := e.loadPrevious()

	next := NewSeed()
	if prev != nil {
		next.Version = prev.Version
		next.Born = prev.Born
		next.Sessions = prev.Sessions
	}
	now := e.now()
	next.Condensed = now

	for _, name := range BlockOrder {
		var prevBlock *Block
		if prev != nil {
			prevBlock = prev.GetBlock(name)
		}

		if mode == Incremental && prevBlock != nil && prevErr == nil {
			paths := sourcePaths(e.Dir, name)
			if paths != nil && !changedSince(paths, prev.Condensed) {
				next.SetBlock(prevBlock)
				continue
			}
		}

		block, err := e.templateBlock(ctx, name, prevBlock)
		if err != nil {
			if prevBlock != nil {
				next.SetBlock(prevBlock)
				continue
			}
			next.SetBlock(&Block{Name: name})
			continue
		}
		next.SetBlock(block)
	}

	// Carry forward any unrecognized blocks verbatim.
	if prev != nil {
		for _, name := range prev.blockOrder {
			if _, known := mechanicalTemplaters[name]; known {
				continue
			}
			if llmAssisted[name] {
				continue
			}
			next.SetBlock(prev.GetBlock(name))
		}
	}

	if err := e.trim(next, now); err != nil {
		return nil, err
	}

	return next, nil
}

func (e *Engine) templateBlock(ctx context.Context, name string, prevBlock *Block) (*Block, error) {
	if tmpl, ok := mechanicalTemplaters[name]; ok {
		return tmpl(e.Dir)
	}
	if llmAssisted[name] {
		block, err := e.Summarizer.Summarize(ctx, name, prevBlock, nil)
		if err != nil {
			return nil, err
		}
		return block, nil
	}
	if prevBlock != nil {
		return prevBlock, nil
	}
	return &Block{Name: name}, nil
}

func (e *Engine) loadPrevious() (*Seed, error) {
	data, err := os.ReadFile(e.Dir.Path(tree.SeedFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(e.Dir.Path(tree.SeedFile), data)
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// trim enforces the size invariant, trimming in the mandated order: OPEN
// tail, MEM oldest entries, BONDS inactive, DREAMS older than 30 days. KERN
// is never trimmed. Returns *SeedOverflow if the limit still can't be met.
func (e *Engine) trim(s *Seed, now time.Time) error {
	if len(Serialize(s)) <= MaxSize {
		return nil
	}

	if b := s.GetBlock(BlockOPEN); b != nil {
		for len(b.Entries) > 0 && len(Serialize(s)) > MaxSize {
			b.Entries = b.Entries[:len(b.Entries)-1]
		}
	}
	if len(Serialize(s)) <= MaxSize {
		return nil
	}

	if b := s.GetBlock(BlockMEM); b != nil {
		for len(b.Entries) > 0 && len(Serialize(s)) > MaxSize {
			b.Entries = b.Entries[1:]
		}
	}
	if len(Serialize(s)) <= MaxSize {
		return nil
	}

	if b := s.GetBlock(BlockBONDS); b != nil {
		kept := b.Entries[:0]
		for _, entry := range b.Entries {
			if entry.Value == "inactive" {
				continue
			}
			kept = append(kept, entry)
		}
		b.Entries = kept
	}
	if len(Serialize(s)) <= MaxSize {
		return nil
	}

	if b := s.GetBlock(BlockDREAMS); b != nil {
		kept := b.Entries[:0]
		for _, entry := range b.Entries {
			if dreamIsOld(entry.Key, now) {
				continue
			}
			kept = append(kept, entry)
		}
		b.Entries = kept
	}

	size := len(Serialize(s))
	if size > MaxSize {
		return &SeedOverflow{Cause: &SeedTooLarge{Size: size}}
	}
	return nil
}
