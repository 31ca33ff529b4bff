package chain

import (
	"encoding/json"
	"os"
	"time"

	"github.com/soulproto/soul/internal/tree"
)

// PeerStatus is one peer's row in the status file.
type PeerStatus struct {
	ID                    string    `json:"id"`
	ConnectedAt           time.Time `json:"connectedAt"`
	FilesReceived         int       `json:"filesReceived"`
	FilesSent             int       `json:"filesSent"`
	LastSync              time.Time `json:"lastSync"`
	LastManifestExchange  time.Time `json:"lastManifestExchange"`
}

// Status is the full shape of .soul-chain-status.
type Status struct {
	Active       bool         `json:"active"`
	Health       string       `json:"health"`
	Peers        []PeerStatus `json:"peers"`
	TotalSynced  int          `json:"totalSynced"`
	Since        time.Time    `json:"since"`
	LastUpdate   time.Time    `json:"lastUpdate"`
}

// WriteStatus atomically replaces .soul-chain-status.
func WriteStatus(dir *tree.Dir, s Status) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return tree.AtomicWriteFile(dir.Path(tree.ChainStatusFile), data, 0o644)
}

// ReadStatus reads .soul-chain-status, if present.
func ReadStatus(dir *tree.Dir) (*Status, error) {
	data, err := os.ReadFile(dir.Path(tree.ChainStatusFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var s Status
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
