package seed

import "strings"

// tokenKind classifies a single line of a SEED.md source.
type tokenKind int

const (
	tokHeader tokenKind = iota
	tokBlockOpen
	tokBlockClose
	tokContent
	tokBlank
)

type token struct {
	kind tokenKind
	line int
	text string // raw line, trimmed of trailing \r
	name string // block name, only set for tokBlockOpen
	body string // inline body, only set when tokBlockOpen carries `{ ... }` on one line
}

// lex splits raw seed source into a flat token stream. The Seed grammar has
// no nesting, so a single line-oriented pass is enough; there is no need for
// the recursive-descent machinery a nested DSL would require.
func lex(src string) []token {
	lines := strings.Split(src, "\n")
	toks := make([]token, 0, len(lines))

	for i, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		lineNo := i + 1

		switch {
		case trimmed == "":
			toks = append(toks, token{kind: tokBlank, line: lineNo})
		case strings.HasPrefix(trimmed, "#"):
			toks = append(toks, token{kind: tokHeader, line: lineNo, text: trimmed})
		case strings.HasPrefix(trimmed, "@"):
			name, body, inline := parseBlockOpen(trimmed)
			tok := token{kind: tokBlockOpen, line: lineNo, name: name, body: body}
			toks = append(toks, tok)
			if inline {
				toks = append(toks, token{kind: tokBlockClose, line: lineNo})
			}
		case trimmed == "}":
			toks = append(toks, token{kind: tokBlockClose, line: lineNo})
		default:
			toks = append(toks, token{kind: tokContent, line: lineNo, text: trimmed})
		}
	}
	return toks
}

// parseBlockOpen parses a line starting with '@'. It recognizes both
// `@NAME{` (body continues on following lines until a lone `}`) and
// `@NAME{ body }` (single-line inline form), returning inline=true for the
// latter along with the body text.
func parseBlockOpen(line string) (name, body string, inline bool) {
	brace := strings.Index(line, "{")
	if brace < 0 {
		return strings.TrimPrefix(line, "@"), "", false
	}
	name = strings.TrimSpace(strings.TrimPrefix(line[:brace], "@"))
	rest := line[brace+1:]
	if close := strings.LastIndex(rest, "}"); close >= 0 {
		return name, strings.TrimSpace(rest[:close]), true
	}
	return name, strings.TrimSpace(rest), false
}
