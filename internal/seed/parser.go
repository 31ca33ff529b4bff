package seed

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse is a tolerant parser: it fails only when no recognizable @ block is
// found anywhere in src. Unknown blocks and unknown keys are preserved
// verbatim in Raw/Entries so round-tripping an unmodified block is lossless.
func Parse(path string, src []byte) (*Seed, error) {
	toks := lex(string(src))

	s := NewSeed()
	foundBlock := false

	i := 0
	for i < len(toks) {
		t := toks[i]
		switch t.kind {
		case tokHeader:
			parseHeader(s, t.text)
			i++
		case tokBlockOpen:
			foundBlock = true
			block, next := parseBlock(toks, i)
			s.SetBlock(block)
			i = next
		default:
			i++
		}
	}

	if !foundBlock {
		return nil, &CorruptSeed{Path: path, Reason: "no @ block found"}
	}
	return s, nil
}

func parseHeader(s *Seed, line string) {
	switch {
	case strings.HasPrefix(line, "#SEED"):
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			s.Version = strings.TrimPrefix(fields[1], "v")
		}
	case hasDirective(line, "born") || hasDirective(line, "geboren"):
		s.Born = parseDate(directiveValue(line))
	case hasDirective(line, "condensed") || hasDirective(line, "verdichtet"):
		s.Condensed = parseDate(directiveValue(line))
	case hasDirective(line, "sessions"):
		n, err := strconv.Atoi(strings.TrimSpace(directiveValue(line)))
		if err == nil {
			s.Sessions = n
		}
	}
}

func hasDirective(line, name string) bool {
	return strings.HasPrefix(line, "#"+name+":")
}

func directiveValue(line string) string {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(line[idx+1:])
}

func parseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseBlock consumes tokens starting at a tokBlockOpen and returns the
// parsed block along with the index of the first token after its close.
func parseBlock(toks []token, start int) (*Block, int) {
	open := toks[start]
	b := &Block{Name: open.name}

	var rawLines []string
	if open.body != "" {
		rawLines = append(rawLines, open.body)
		parseEntries(b, open.body)
	}

	// Inline single-line blocks (`@NAME{ body }`) have their matching close
	// token emitted immediately after open by the lexer.
	if start+1 < len(toks) && toks[start+1].kind == tokBlockClose {
		b.Raw = strings.Join(rawLines, "\n")
		return b, start + 2
	}

	i := start + 1
	for i < len(toks) {
		t := toks[i]
		if t.kind == tokBlockClose {
			i++
			break
		}
		if t.kind == tokContent {
			rawLines = append(rawLines, t.text)
			parseEntries(b, t.text)
		}
		i++
	}

	b.Raw = strings.Join(rawLines, "\n")
	return b, i
}

// parseEntries parses either newline-separated or pipe-separated key:value
// pairs from a single chunk of block body text.
func parseEntries(b *Block, text string) {
	parts := strings.Split(text, "|")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.Index(part, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(part[:idx])
		val := strings.TrimSpace(part[idx+1:])
		b.Set(key, val)
	}
}

// Serialize renders a Seed back into SEED.md bytes using the canonical
// block order and pipe-separated single-line bodies.
func Serialize(s *Seed) []byte {
	var sb strings.Builder

	fmt.Fprintf(&sb, "#SEED v%s\n", s.Version)
	if !s.Born.IsZero() {
		fmt.Fprintf(&sb, "#born:%s\n", s.Born.Format("2006-01-02"))
	}
	if !s.Condensed.IsZero() {
		fmt.Fprintf(&sb, "#condensed:%s\n", s.Condensed.Format("2006-01-02"))
	}
	fmt.Fprintf(&sb, "#sessions:%d\n", s.Sessions)
	sb.WriteString("\n")

	for _, name := range s.OrderedBlockNames() {
		b := s.Blocks[name]
		sb.WriteString("@" + name + "{\n")
		for _, e := range b.Entries {
			fmt.Fprintf(&sb, "  %s:%s\n", e.Key, e.Value)
		}
		sb.WriteString("}\n")
	}

	return []byte(sb.String())
}
