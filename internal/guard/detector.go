// Package guard implements the Session Lifecycle Guard: the
// quiescent/active state machine, the goodbye-phrase detector that blocks
// premature session termination, and crash recovery.
package guard

import (
	"strings"
	"unicode"

	"github.com/coregx/ahocorasick"
)

// GoodbyeDetector matches an agent's final utterance against a configurable
// set of goodbye phrases. Matching is canonicalization-aware so punctuation,
// case, and whitespace variation don't defeat detection, grounded on the
// same canonicalize-then-scan approach used for entity matching.
type GoodbyeDetector struct {
	ac *ahocorasick.Automaton
}

// NewGoodbyeDetector compiles phrases into a single Aho-Corasick automaton.
// Phrases are canonicalized with the same function used to canonicalize
// scanned text, so pattern and haystack always agree.
func NewGoodbyeDetector(phrases []string) (*GoodbyeDetector, error) {
	patterns := make([]string, 0, len(phrases))
	for _, p := range phrases {
		c := canonicalize(p)
		if c != "" {
			patterns = append(patterns, c)
		}
	}

	automaton, err := ahocorasick.NewBuilder().
		AddStrings(patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	return &GoodbyeDetector{ac: automaton}, nil
}

// Matches reports whether message contains any configured goodbye phrase.
func (d *GoodbyeDetector) Matches(message string) bool {
	if d.ac == nil {
		return false
	}
	haystack := []byte(canonicalize(message))
	return len(d.ac.FindAllOverlapping(haystack)) > 0
}

// canonicalize lowercases, preserves letters/digits/apostrophes/hyphens,
// and collapses every other run of characters into a single space.
func canonicalize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	lastWasSpace := true

	for _, r := range s {
		c := unicode.ToLower(r)
		switch c {
		case '’', '‘':
			c = '\''
		case '–', '—':
			c = '-'
		}
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '\'' || c == '-' {
			sb.WriteRune(c)
			lastWasSpace = false
			continue
		}
		if !lastWasSpace {
			sb.WriteRune(' ')
			lastWasSpace = true
		}
	}
	return strings.TrimSpace(sb.String())
}
