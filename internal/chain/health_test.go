package chain

import (
	"testing"
	"time"
)

func TestAggregateOfflineWithNoPeers(t *testing.T) {
	if got := Aggregate(nil, time.Now()); got != Offline {
		t.Errorf("Aggregate(nil) = %v, want Offline", got)
	}
}

func TestPeerHealthTransitions(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewPeerActivity(base)
	p.RecordManifest(base)
	p.RecordFileSent(base)

	if got := p.Health(base.Add(30 * time.Second)); got != Syncing {
		t.Errorf("at +30s = %v, want Syncing", got)
	}
	if got := p.Health(base.Add(90 * time.Second)); got != Synced {
		t.Errorf("at +90s = %v, want Synced", got)
	}
	if got := p.Health(base.Add(10 * time.Minute)); got != Idle {
		t.Errorf("at +10m = %v, want Idle", got)
	}
	if got := p.Health(base.Add(31 * time.Minute)); got != Stale {
		t.Errorf("at +31m = %v, want Stale", got)
	}
}

func TestPeerHealthStaleBeforeAnyManifest(t *testing.T) {
	p := NewPeerActivity(time.Now())
	if got := p.Health(time.Now()); got != Stale {
		t.Errorf("fresh connection before any manifest = %v, want Stale", got)
	}
}

func TestAggregateReportsOfflineOnDisconnect(t *testing.T) {
	now := time.Now()
	p := NewPeerActivity(now)
	p.RecordManifest(now)
	if got := Aggregate([]*PeerActivity{p}, now); got != Synced {
		t.Errorf("Aggregate with one fresh peer = %v, want Synced", got)
	}
	if got := Aggregate(nil, now); got != Offline {
		t.Errorf("Aggregate after the peer disconnects = %v, want Offline", got)
	}
}
