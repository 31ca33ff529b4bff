package fabric

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/soulproto/soul/internal/tree"
)

// SessionMarker is the parsed contents of .session-active.
type SessionMarker struct {
	Session int
	Start   time.Time
}

// WriteSessionMarker atomically creates .session-active. The Session Guard
// is the sole owner of this file's lifecycle.
func WriteSessionMarker(dir *tree.Dir, m SessionMarker) error {
	body := fmt.Sprintf("session:%d\nstart:%s\n", m.Session, m.Start.Format(time.RFC3339))
	return tree.AtomicWriteFile(dir.Path(tree.SessionActiveFile), []byte(body), 0o644)
}

// ReadSessionMarker reads and parses .session-active. Returns
// (nil, nil) if the file does not exist — presence, not content validity,
// is the signal.
func ReadSessionMarker(dir *tree.Dir) (*SessionMarker, error) {
	data, err := os.ReadFile(dir.Path(tree.SessionActiveFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	m := &SessionMarker{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key, val := line[:idx], strings.TrimSpace(line[idx+1:])
		switch key {
		case "session":
			n, err := strconv.Atoi(val)
			if err == nil {
				m.Session = n
			}
		case "start":
			t, err := time.Parse(time.RFC3339, val)
			if err == nil {
				m.Start = t
			}
		}
	}
	return m, nil
}

// DeleteSessionMarker removes .session-active, ending the session's
// lifecycle. Removing an already-absent marker is not an error.
func DeleteSessionMarker(dir *tree.Dir) error {
	err := os.Remove(dir.Path(tree.SessionActiveFile))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
