package fabric

import (
	"encoding/json"
	"fmt"

	"github.com/soulproto/soul/internal/tree"
)

// Mood is the current affective state, last-write-wins.
type Mood struct {
	Valence float64 `json:"valence"` // [-1, 1]
	Energy  float64 `json:"energy"`  // [0, 1]
	Label   string  `json:"label,omitempty"`
}

// Clamp bounds Valence and Energy to their documented ranges.
func (m *Mood) Clamp() {
	m.Valence = clampFloat(m.Valence, -1, 1)
	m.Energy = clampFloat(m.Energy, 0, 1)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WriteMood overwrites .soul-mood with the given mood, after clamping.
func WriteMood(dir *tree.Dir, m Mood) error {
	m.Clamp()
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return tree.AtomicWriteFile(dir.Path(tree.MoodFile), data, 0o644)
}

// ReadMood parses .soul-mood.
func ReadMood(data []byte) (Mood, error) {
	var m Mood
	if err := json.Unmarshal(data, &m); err != nil {
		return Mood{}, fmt.Errorf("fabric: parse mood: %w", err)
	}
	m.Clamp()
	return m, nil
}
