package chain

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/crypto/hkdf"
)

// EntropyLen is the raw entropy of a 16-word mnemonic: 16 words * 8 bits
// (log2(256)) = 128 bits = 16 bytes.
const EntropyLen = 16

// WordCount is the fixed mnemonic length the spec requires.
const WordCount = 16

// InvalidToken reports a malformed mnemonic: wrong word count or a word
// absent from Wordlist.
type InvalidToken struct {
	Reason string
}

func (e *InvalidToken) Error() string {
	return fmt.Sprintf("invalid mnemonic token: %s", e.Reason)
}

var (
	wordIndexOnce sync.Once
	wordIndex     map[string]byte
)

func buildWordIndex() {
	wordIndex = make(map[string]byte, len(Wordlist))
	for i, w := range Wordlist {
		wordIndex[w] = byte(i)
	}
}

// IndexOf returns word's position in Wordlist, case-insensitively.
func IndexOf(word string) (byte, bool) {
	wordIndexOnce.Do(buildWordIndex)
	i, ok := wordIndex[strings.ToLower(word)]
	return i, ok
}

// Validate checks that words is exactly WordCount entries, each present in
// Wordlist. Input is case-insensitive; callers should normalize to
// lowercase before persisting (spec.md's storage-normalization rule).
func Validate(words []string) error {
	if len(words) != WordCount {
		return &InvalidToken{Reason: fmt.Sprintf("want %d words, got %d", WordCount, len(words))}
	}
	for _, w := range words {
		if _, ok := IndexOf(w); !ok {
			return &InvalidToken{Reason: fmt.Sprintf("word %q is not in the wordlist", w)}
		}
	}
	return nil
}

// Split parses a space-separated mnemonic string into its words, trimming
// surrounding whitespace but performing no further normalization.
func Split(token string) []string {
	return strings.Fields(token)
}

// Normalize lowercases and re-joins a validated mnemonic for storage.
func Normalize(words []string) string {
	lower := make([]string, len(words))
	for i, w := range words {
		lower[i] = strings.ToLower(w)
	}
	return strings.Join(lower, " ")
}

// Entropy packs each word's Wordlist index into one byte, yielding the
// mnemonic's EntropyLen-byte raw secret. Validate must be called first.
func Entropy(words []string) ([]byte, error) {
	if err := Validate(words); err != nil {
		return nil, err
	}
	entropy := make([]byte, EntropyLen)
	for i, w := range words {
		idx, _ := IndexOf(w)
		entropy[i] = idx
	}
	return entropy, nil
}

// Generate returns a fresh 16-word mnemonic drawn from Wordlist using a
// cryptographically secure source, for `soulchain init`'s "start a new
// swarm" path.
func Generate() ([]string, error) {
	raw := make([]byte, WordCount)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate mnemonic: %w", err)
	}
	words := make([]string, WordCount)
	for i, b := range raw {
		words[i] = Wordlist[b]
	}
	return words, nil
}

// Info labels distinguish the two HKDF outputs derived from the same
// entropy. See DESIGN.md's Open Question resolution on the KDF substitution.
const (
	infoEncryptionKey = "soul-chain-v1:enc"
	infoTopic         = "soul-chain-v1:topic"
)

// DeriveKeys expands a mnemonic's entropy into the 32-byte encryption_key
// and topic values via HKDF-SHA256 with distinct info labels.
func DeriveKeys(words []string) (encryptionKey, topic [32]byte, err error) {
	entropy, err := Entropy(words)
	if err != nil {
		return encryptionKey, topic, err
	}
	if err := expand(entropy, infoEncryptionKey, encryptionKey[:]); err != nil {
		return encryptionKey, topic, err
	}
	if err := expand(entropy, infoTopic, topic[:]); err != nil {
		return encryptionKey, topic, err
	}
	return encryptionKey, topic, nil
}

func expand(secret []byte, info string, out []byte) error {
	r := hkdf.New(sha256.New, secret, nil, []byte(info))
	_, err := io.ReadFull(r, out)
	return err
}
