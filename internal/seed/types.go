// Package seed implements the Seed Engine: parsing, consolidating, and
// writing SEED.md, the compact block-structured identity artifact.
package seed

import "time"

// MaxSize is the hard ceiling on a consolidated SEED.md, in bytes.
const MaxSize = 5120

// Recognized block names, in canonical emission order.
const (
	BlockMETA        = "META"
	BlockKERN        = "KERN"
	BlockSELF        = "SELF"
	BlockSTATE       = "STATE"
	BlockINTERESTS   = "INTERESTS"
	BlockDREAMS      = "DREAMS"
	BlockBONDS       = "BONDS"
	BlockMEM         = "MEM"
	BlockSHADOW      = "SHADOW"
	BlockCONNECTIONS = "CONNECTIONS"
	BlockGROWTH      = "GROWTH"
	BlockOPEN        = "OPEN"
	BlockVORSCHLAG   = "VORSCHLAG"
)

// BlockOrder is the canonical order blocks are emitted in during consolidation.
var BlockOrder = []string{
	BlockMETA, BlockKERN, BlockSELF, BlockSTATE, BlockINTERESTS,
	BlockDREAMS, BlockBONDS, BlockMEM, BlockSHADOW, BlockCONNECTIONS,
	BlockGROWTH, BlockOPEN, BlockVORSCHLAG,
}

// llmAssisted names the blocks whose content comes from a Summarizer rather
// than a pure mechanical templater.
var llmAssisted = map[string]bool{
	BlockSTATE: true,
	BlockMEM:   true,
}

// Entry is a single key:value pair inside a block, in source order.
type Entry struct {
	Key   string
	Value string
}

// Block is one @NAME{ ... } section. Raw holds the exact bytes between the
// braces as they appeared in the source, so templaters that carry a block
// forward unmodified can reproduce it byte-for-byte.
type Block struct {
	Name    string
	Entries []Entry
	Raw     string
}

// Get returns the value for key and whether it was present.
func (b *Block) Get(key string) (string, bool) {
	for _, e := range b.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Set overwrites the value for key, appending it if not already present.
func (b *Block) Set(key, value string) {
	for i, e := range b.Entries {
		if e.Key == key {
			b.Entries[i].Value = value
			return
		}
	}
	b.Entries = append(b.Entries, Entry{Key: key, Value: value})
}

// Seed is the parsed structured view of a SEED.md, plus enough of the
// original bytes for templaters to preserve what they don't touch.
type Seed struct {
	Version   string
	Born      time.Time
	Condensed time.Time
	Sessions  int

	// Blocks indexed by name. At most one instance of each name exists,
	// per invariant 2.
	Blocks map[string]*Block

	// blockOrder preserves the order blocks were encountered in the source,
	// for seeds that came from parse() rather than from consolidation.
	blockOrder []string
}

// NewSeed returns an empty seed with sessions 0 and the current version.
func NewSeed() *Seed {
	return &Seed{
		Version: "1.0",
		Blocks:  make(map[string]*Block),
	}
}

// GetBlock returns the named block, or nil if absent.
func (s *Seed) GetBlock(name string) *Block {
	return s.Blocks[name]
}

// SetBlock installs or replaces a block, tracking first-seen order.
func (s *Seed) SetBlock(b *Block) {
	if _, ok := s.Blocks[b.Name]; !ok {
		s.blockOrder = append(s.blockOrder, b.Name)
	}
	s.Blocks[b.Name] = b
}

// OrderedBlockNames returns block names in canonical emission order,
// appending any unrecognized names (preserved verbatim) at the end in the
// order they were first seen.
func (s *Seed) OrderedBlockNames() []string {
	seen := make(map[string]bool, len(s.Blocks))
	var out []string
	for _, name := range BlockOrder {
		if _, ok := s.Blocks[name]; ok {
			out = append(out, name)
			seen[name] = true
		}
	}
	for _, name := range s.blockOrder {
		if !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}
	return out
}
