package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/soulproto/soul/internal/tree"
)

// FileEntry is one tracked path in a Manifest.
type FileEntry struct {
	Path    string `json:"path"`
	Hash    string `json:"hash"`
	MtimeMS int64  `json:"mtime"`
}

// Manifest is the set of tracked paths and their content state, exchanged
// with peers on connect and on every local change (poll interval 5s).
type Manifest struct {
	Files []FileEntry `json:"files"`
}

// syncDirs lists the recursive sync directories, resolved against dir's
// chosen German/English synonyms.
func syncDirs(dir *tree.Dir) []string {
	return []string{
		filepath.Join(dir.Root, dir.Seele),
		filepath.Join(dir.Root, dir.Erinnerungen),
		filepath.Join(dir.Root, dir.Zustandslog),
		dir.Path(tree.HeartbeatDir),
		dir.Path(tree.MemoryDir),
		dir.Path("conversations"),
	}
}

// syncFiles lists the single files tracked outside the recursive dirs.
func syncFiles(dir *tree.Dir) []string {
	return []string{
		tree.SeedFile,
		tree.SoulFile,
		tree.LanguageFile,
		tree.ImpulseStateFile,
		tree.ImpulseLogFile,
		tree.StateTickFile,
		tree.KnowledgeFile,
	}
}

// ignoredNames never appear in a manifest even if they'd otherwise fall
// under a sync directory.
var ignoredNames = map[string]bool{
	tree.EnvFile:    true,
	tree.EnvEncFile: true,
	tree.McpFile:    true,
	".git":          true,
	".claude":       true,
}

func isIgnoredBase(name string) bool {
	if ignoredNames[name] {
		return true
	}
	if tree.IsTmpSibling(name) {
		return true
	}
	// Dotfiles are ignored except the explicit single-file allowlist,
	// which is matched by full relative path, not basename, by the caller.
	return strings.HasPrefix(name, ".") && name != tree.LanguageFile
}

// Build walks the sync set and computes a fresh Manifest.
func Build(dir *tree.Dir) (*Manifest, error) {
	var files []FileEntry
	seen := make(map[string]bool)

	for _, root := range syncDirs(dir) {
		entries, err := walkDir(dir.Root, root)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, e := range entries {
			if !seen[e.Path] {
				seen[e.Path] = true
				files = append(files, e)
			}
		}
	}

	for _, rel := range syncFiles(dir) {
		abs := dir.Path(rel)
		info, err := os.Stat(abs)
		if err != nil {
			continue
		}
		entry, err := entryFor(abs, rel, info)
		if err != nil {
			continue
		}
		if !seen[entry.Path] {
			seen[entry.Path] = true
			files = append(files, entry)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return &Manifest{Files: files}, nil
}

func walkDir(root, dirRoot string) ([]FileEntry, error) {
	if _, err := os.Stat(dirRoot); err != nil {
		return nil, err
	}
	var out []FileEntry
	err := filepath.WalkDir(dirRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries, never abort the whole walk
		}
		base := d.Name()
		if d.IsDir() {
			if isIgnoredBase(base) && path != dirRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if isIgnoredBase(base) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		entry, err := entryFor(path, filepath.ToSlash(rel), info)
		if err != nil {
			return nil
		}
		out = append(out, entry)
		return nil
	})
	return out, err
}

func entryFor(absPath, relPath string, info os.FileInfo) (FileEntry, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return FileEntry{}, err
	}
	sum := sha256.Sum256(data)
	return FileEntry{
		Path:    relPath,
		Hash:    hex.EncodeToString(sum[:])[:16],
		MtimeMS: info.ModTime().UnixMilli(),
	}, nil
}

// Diff reports which of remote's files the local side should request: the
// remote has a different hash and a strictly newer mtime. Ties resolve
// toward the local copy (a peer should never lose an in-flight local edit
// to a sync that raced it).
func Diff(local, remote *Manifest) []string {
	localByPath := make(map[string]FileEntry, len(local.Files))
	for _, f := range local.Files {
		localByPath[f.Path] = f
	}

	var need []string
	for _, rf := range remote.Files {
		lf, ok := localByPath[rf.Path]
		if !ok {
			need = append(need, rf.Path)
			continue
		}
		if lf.Hash != rf.Hash && rf.MtimeMS > lf.MtimeMS {
			need = append(need, rf.Path)
		}
	}
	return need
}
