package fabric

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/soulproto/soul/internal/tree"
)

// Event is a single append-only activity record.
type Event struct {
	Timestamp time.Time      `json:"ts"`
	Type      string         `json:"type"`
	Source    string         `json:"source"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// AppendEvent appends ev to .soul-events/current.jsonl, rolling the file to
// a dated sibling first if the last append happened on a previous day.
func AppendEvent(dir *tree.Dir, ev Event, now time.Time) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = now
	}
	if err := rollEventsIfNeeded(dir, now); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return tree.AppendLine(dir.Path(tree.EventsCurrentFile), string(data))
}

// rollEventsIfNeeded renames current.jsonl to a dated sibling
// (events-YYYY-MM-DD.jsonl) if its last modification happened on a
// different calendar day than now.
func rollEventsIfNeeded(dir *tree.Dir, now time.Time) error {
	path := dir.Path(tree.EventsCurrentFile)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if sameDay(info.ModTime(), now) {
		return nil
	}
	rolled := filepath.Join(filepath.Dir(path), fmt.Sprintf("events-%s.jsonl", info.ModTime().Format("2006-01-02")))
	return os.Rename(path, rolled)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Cursor tracks a single consumer's read position in current.jsonl by byte
// offset, so repeated polls only see newly appended lines.
type Cursor struct {
	Offset int64
}

// ReadNew returns events appended since the cursor's offset, and advances
// the cursor. A rolled-over file (offset beyond the new file's size) resets
// the cursor to the start of the new file rather than erroring.
func (c *Cursor) ReadNew(dir *tree.Dir) ([]Event, error) {
	path := dir.Path(tree.EventsCurrentFile)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if c.Offset > info.Size() {
		c.Offset = 0
	}
	if _, err := f.Seek(c.Offset, 0); err != nil {
		return nil, err
	}

	var events []Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	var read int64
	for sc.Scan() {
		line := sc.Bytes()
		read += int64(len(line)) + 1
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			// Partial trailing write; stop here, don't advance past it.
			break
		}
		events = append(events, ev)
	}
	c.Offset += read
	return events, nil
}
