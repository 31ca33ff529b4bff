package fabric

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
)

// Subject names when publishing to NATS.
const (
	SubjectPulse  = "soul.pulse"
	SubjectMood   = "soul.mood"
	SubjectEvents = "soul.events"
)

// Bus is the in-process fan-out of fabric observations to subscribers
// within this one process, with an optional best-effort mirror onto NATS
// subjects for cross-process consumers. The files remain the source of
// truth in all cases: a NATS publish failure never blocks or fails the
// caller, matching the "Transient I/O" error class in the error taxonomy.
type Bus struct {
	log *slog.Logger

	mu          sync.RWMutex
	pulseSubs   []func(Pulse)
	moodSubs    []func(Mood)
	eventSubs   []func(Event)

	nc *nats.Conn
}

// NewBus returns a Bus with no NATS connection. Call ConnectNATS to enable
// the optional cross-process mirror.
func NewBus(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{log: log}
}

// ConnectNATS dials url and enables best-effort publish mirroring. A dial
// failure is returned to the caller but does not prevent the Bus from
// working in pure in-process mode.
func (b *Bus) ConnectNATS(url string) error {
	nc, err := nats.Connect(url)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.nc = nc
	b.mu.Unlock()
	return nil
}

// Close disconnects the optional NATS connection, if any.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.nc != nil {
		b.nc.Close()
		b.nc = nil
	}
}

func (b *Bus) SubscribePulse(fn func(Pulse)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pulseSubs = append(b.pulseSubs, fn)
}

func (b *Bus) SubscribeMood(fn func(Mood)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.moodSubs = append(b.moodSubs, fn)
}

func (b *Bus) SubscribeEvents(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.eventSubs = append(b.eventSubs, fn)
}

func (b *Bus) PublishPulse(p Pulse) {
	b.mu.RLock()
	subs := append([]func(Pulse){}, b.pulseSubs...)
	nc := b.nc
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(p)
	}
	b.mirror(nc, SubjectPulse, p)
}

func (b *Bus) PublishMood(m Mood) {
	b.mu.RLock()
	subs := append([]func(Mood){}, b.moodSubs...)
	nc := b.nc
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(m)
	}
	b.mirror(nc, SubjectMood, m)
}

func (b *Bus) PublishEvent(ev Event) {
	b.mu.RLock()
	subs := append([]func(Event){}, b.eventSubs...)
	nc := b.nc
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
	b.mirror(nc, SubjectEvents, ev)
}

func (b *Bus) mirror(nc *nats.Conn, subject string, payload any) {
	if nc == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		b.log.Warn("fabric bus: marshal for NATS mirror failed", "subject", subject, "err", err)
		return
	}
	if err := nc.Publish(subject, data); err != nil {
		b.log.Warn("fabric bus: NATS publish failed", "subject", subject, "err", err)
	}
}
