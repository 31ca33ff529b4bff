package chain

import (
	"sync"
	"time"
)

// Health is the Peer Chain's aggregate connection status.
type Health int

const (
	Offline Health = iota
	Stale
	Idle
	Synced
	Syncing
)

func (h Health) String() string {
	switch h {
	case Offline:
		return "offline"
	case Stale:
		return "stale"
	case Idle:
		return "idle"
	case Synced:
		return "synced"
	case Syncing:
		return "syncing"
	default:
		return "unknown"
	}
}

// PeerActivity tracks the timestamps a single peer connection needs to
// compute health: last manifest exchange, and last file transfer.
type PeerActivity struct {
	mu                  sync.Mutex
	lastManifest        time.Time
	lastTransfer        time.Time
	connectedAt         time.Time
	filesReceived       int
	filesSent           int
}

// NewPeerActivity records a freshly connected peer.
func NewPeerActivity(now time.Time) *PeerActivity {
	return &PeerActivity{connectedAt: now}
}

func (p *PeerActivity) RecordManifest(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastManifest = now
}

func (p *PeerActivity) RecordFileSent(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastTransfer = now
	p.filesSent++
}

func (p *PeerActivity) RecordFileReceived(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastTransfer = now
	p.filesReceived++
}

func (p *PeerActivity) snapshot() (lastManifest, lastTransfer, connectedAt time.Time, sent, received int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastManifest, p.lastTransfer, p.connectedAt, p.filesSent, p.filesReceived
}

// Health computes the per-connection health for this peer at now, per
// spec.md's five-state table.
func (p *PeerActivity) Health(now time.Time) Health {
	lastManifest, lastTransfer, _, _, _ := p.snapshot()

	if !lastTransfer.IsZero() && now.Sub(lastTransfer) <= 60*time.Second {
		return Syncing
	}
	if lastManifest.IsZero() {
		return Stale
	}
	switch {
	case now.Sub(lastManifest) <= 5*time.Minute:
		return Synced
	case now.Sub(lastManifest) <= 30*time.Minute:
		return Idle
	default:
		return Stale
	}
}

// Aggregate computes the chain-wide health across all current peers:
// offline with zero peers, otherwise the "best" (most active) state among
// them — syncing beats synced beats idle beats stale, matching the
// precedence a reader of the state table would expect.
func Aggregate(peers []*PeerActivity, now time.Time) Health {
	if len(peers) == 0 {
		return Offline
	}
	best := Stale
	for _, p := range peers {
		h := p.Health(now)
		if rank(h) > rank(best) {
			best = h
		}
	}
	return best
}

func rank(h Health) int {
	switch h {
	case Offline:
		return 0
	case Stale:
		return 1
	case Idle:
		return 2
	case Synced:
		return 3
	case Syncing:
		return 4
	default:
		return -1
	}
}
