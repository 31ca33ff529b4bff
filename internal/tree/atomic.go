package tree

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AtomicWriteFile writes data to path via write-temp/fsync/rename, per the
// Soul Protocol's single-file atomic-replace rule. The temp sibling carries
// the writer's pid and a random suffix so concurrent writers never collide.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, tmpName(filepath.Base(path)))
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create temp %s: %w", tmp, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("fsync temp %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s -> %s: %w", tmp, path, err)
	}
	return nil
}

func tmpName(base string) string {
	var buf [4]byte
	rand.Read(buf[:])
	return fmt.Sprintf("%s.tmp-%d-%s", base, os.Getpid(), hex.EncodeToString(buf[:]))
}

// IsTmpSibling reports whether name looks like an atomic-write temp file,
// so readers directory-scanning the soul tree can skip it.
func IsTmpSibling(name string) bool {
	return strings.Contains(name, ".tmp-")
}

// AppendLine appends line (with a trailing newline) to path, creating parent
// directories as needed, and fsyncs before returning. Used by every
// append-only surface in the soul tree.
func AppendLine(path string, line string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append %s: %w", path, err)
	}
	return f.Sync()
}

// ReadFileTolerant reads path and, if the trailing bytes look like a partial
// write (no trailing newline on a line-oriented file), discards them rather
// than failing the whole read. Used for knowledge-graph.jsonl readers per
// the spec's "readers may see partial last-line" rule.
func ReadFileTolerant(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}
