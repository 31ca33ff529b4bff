package fabric

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/soulproto/soul/internal/tree"
)

func newTestDir(t *testing.T) *tree.Dir {
	t.Helper()
	root := t.TempDir()
	dir, err := tree.Found(root, true)
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestPulseRoundTripJSON(t *testing.T) {
	dir := newTestDir(t)
	if err := WritePulse(dir, Pulse{Activity: "research", Label: "EV trends"}); err != nil {
		t.Fatalf("WritePulse failed: %v", err)
	}
	data, err := os.ReadFile(dir.Path(tree.PulseFile))
	if err != nil {
		t.Fatal(err)
	}
	p, err := ReadPulse(data)
	if err != nil {
		t.Fatal(err)
	}
	if p.Activity != "research" || p.Label != "EV trends" {
		t.Errorf("got %+v", p)
	}
}

func TestPulseReadsPlainForm(t *testing.T) {
	p, err := ReadPulse([]byte("code:refactor parser"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Activity != "code" || p.Label != "refactor parser" {
		t.Errorf("got %+v", p)
	}
}

func TestPulseLastWriteWins(t *testing.T) {
	dir := newTestDir(t)
	WritePulse(dir, Pulse{Activity: "think"})
	WritePulse(dir, Pulse{Activity: "dream"})

	data, _ := os.ReadFile(dir.Path(tree.PulseFile))
	p, _ := ReadPulse(data)
	if p.Activity != "dream" {
		t.Errorf("Activity = %q, want dream", p.Activity)
	}
}

func TestMoodClampsRange(t *testing.T) {
	dir := newTestDir(t)
	if err := WriteMood(dir, Mood{Valence: 5, Energy: -3}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(dir.Path(tree.MoodFile))
	m, err := ReadMood(data)
	if err != nil {
		t.Fatal(err)
	}
	if m.Valence != 1 {
		t.Errorf("Valence = %v, want clamped to 1", m.Valence)
	}
	if m.Energy != 0 {
		t.Errorf("Energy = %v, want clamped to 0", m.Energy)
	}
}

func TestAppendEventAndReadNew(t *testing.T) {
	dir := newTestDir(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	if err := AppendEvent(dir, Event{Type: "wake", Source: "guard"}, now); err != nil {
		t.Fatal(err)
	}
	if err := AppendEvent(dir, Event{Type: "think", Source: "guard"}, now.Add(time.Second)); err != nil {
		t.Fatal(err)
	}

	var cursor Cursor
	events, err := cursor.ReadNew(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("want 2 events, got %d", len(events))
	}
	if events[0].Type != "wake" || events[1].Type != "think" {
		t.Errorf("unexpected order: %+v", events)
	}

	// A second read with no new writes should return nothing.
	more, err := cursor.ReadNew(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(more) != 0 {
		t.Errorf("expected no new events, got %d", len(more))
	}

	if err := AppendEvent(dir, Event{Type: "sleep", Source: "guard"}, now.Add(2*time.Second)); err != nil {
		t.Fatal(err)
	}
	more, err = cursor.ReadNew(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(more) != 1 || more[0].Type != "sleep" {
		t.Errorf("got %+v", more)
	}
}

func TestEventsRollOverOnNewDay(t *testing.T) {
	dir := newTestDir(t)
	day1 := time.Date(2026, 1, 1, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2026, 1, 2, 0, 1, 0, 0, time.UTC)

	if err := AppendEvent(dir, Event{Type: "wake"}, day1); err != nil {
		t.Fatal(err)
	}
	os.Chtimes(dir.Path(tree.EventsCurrentFile), day1, day1)

	if err := AppendEvent(dir, Event{Type: "sleep"}, day2); err != nil {
		t.Fatal(err)
	}

	rolled := filepath.Join(filepath.Dir(dir.Path(tree.EventsCurrentFile)), "events-2026-01-01.jsonl")
	if _, err := os.Stat(rolled); err != nil {
		t.Errorf("expected rolled file %s to exist: %v", rolled, err)
	}

	var cursor Cursor
	events, err := cursor.ReadNew(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Type != "sleep" {
		t.Errorf("current.jsonl should contain only the new day's event, got %+v", events)
	}
}

func TestFacetsForKnownAndUnknown(t *testing.T) {
	if got := FacetsFor("wake"); len(got) != 3 {
		t.Errorf("wake facets = %v", got)
	}
	if got := FacetsFor("nonexistent"); got != nil {
		t.Errorf("unknown activity should have no facets, got %v", got)
	}
}

func TestWeightDecayPhases(t *testing.T) {
	pulseAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	phase, w := Weight(pulseAt, pulseAt.Add(2*time.Second))
	if phase != PhaseFull || w != 1.0 {
		t.Errorf("at +2s: phase=%v weight=%v, want Full/1.0", phase, w)
	}

	phase, w = Weight(pulseAt, pulseAt.Add(6*time.Second+1*time.Second))
	if phase != PhaseAfterglow {
		t.Errorf("at +7s: phase=%v, want Afterglow", phase)
	}
	if w <= 0 || w >= 0.5 {
		t.Errorf("at +7s: weight=%v, want in (0, 0.5)", w)
	}

	phase, w = Weight(pulseAt, pulseAt.Add(30*time.Second))
	if phase != PhaseIdle || w != 0 {
		t.Errorf("at +30s: phase=%v weight=%v, want Idle/0", phase, w)
	}
}

func TestIsWorkingWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC)
	last := now.Add(-10 * time.Second)
	if !IsWorking(last, now) {
		t.Error("expected working within 20s window")
	}
	last = now.Add(-25 * time.Second)
	if IsWorking(last, now) {
		t.Error("expected not working beyond 20s window")
	}
	if IsWorking(time.Time{}, now) {
		t.Error("zero-value last pulse should not count as working")
	}
}

func TestSessionMarkerLifecycle(t *testing.T) {
	dir := newTestDir(t)

	m, err := ReadSessionMarker(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m != nil {
		t.Fatal("expected no marker before session starts")
	}

	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	if err := WriteSessionMarker(dir, SessionMarker{Session: 5, Start: start}); err != nil {
		t.Fatal(err)
	}

	m, err = ReadSessionMarker(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m == nil {
		t.Fatal("expected marker to exist")
	}
	if m.Session != 5 {
		t.Errorf("Session = %d, want 5", m.Session)
	}
	if !m.Start.Equal(start) {
		t.Errorf("Start = %v, want %v", m.Start, start)
	}

	if err := DeleteSessionMarker(dir); err != nil {
		t.Fatal(err)
	}
	m, err = ReadSessionMarker(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m != nil {
		t.Fatal("expected marker gone after delete")
	}

	// Deleting again must not error.
	if err := DeleteSessionMarker(dir); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
}

func TestBusPublishesToSubscribers(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	got := make(chan Pulse, 1)
	bus.SubscribePulse(func(p Pulse) { got <- p })
	bus.PublishPulse(Pulse{Activity: "wake"})

	select {
	case p := <-got:
		if p.Activity != "wake" {
			t.Errorf("got %+v", p)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for pulse")
	}
}
