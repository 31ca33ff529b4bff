// Package fabric implements the Activity Fabric: the four runtime channels
// (pulse, mood, events, session marker) through which the rest of the
// protocol observes what a soul is doing right now.
package fabric

import (
	"encoding/json"
	"strings"

	"github.com/soulproto/soul/internal/tree"
)

// Pulse is a single activity observation. Label is optional.
type Pulse struct {
	Activity string `json:"activity"`
	Label    string `json:"label,omitempty"`
}

// WritePulse overwrites .soul-pulse with a single observation. Last-write-wins.
func WritePulse(dir *tree.Dir, p Pulse) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return tree.AtomicWriteFile(dir.Path(tree.PulseFile), data, 0o644)
}

// ReadPulse parses .soul-pulse. The wire format accepts either a JSON
// object or a plain "type:label" line; JSON is tried first.
func ReadPulse(data []byte) (Pulse, error) {
	var p Pulse
	if err := json.Unmarshal(data, &p); err == nil {
		return p, nil
	}
	line := strings.TrimSpace(string(data))
	if idx := strings.Index(line, ":"); idx >= 0 {
		return Pulse{Activity: strings.TrimSpace(line[:idx]), Label: strings.TrimSpace(line[idx+1:])}, nil
	}
	return Pulse{Activity: line}, nil
}
