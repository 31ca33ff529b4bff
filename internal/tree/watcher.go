package tree

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// Event is a single debounced filesystem change delivered to subscribers.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Handler receives debounced events for paths it subscribed to.
type Handler func(Event)

// Watcher multiplexes one fsnotify.Watcher across many subscribers, coalescing
// bursts of writes to the same path into a single callback per debounce window.
type Watcher struct {
	debounce time.Duration
	log      *slog.Logger

	fsw *fsnotify.Watcher

	mu       sync.Mutex
	subs     map[uuid.UUID]subscription
	pending  map[string]*time.Timer
	watching map[string]int // dir -> refcount
}

type subscription struct {
	path string
	fn   Handler
}

// NewWatcher starts an fsnotify-backed watcher with the given debounce window.
// Callers must call Close when done.
func NewWatcher(debounce time.Duration, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	w := &Watcher{
		debounce: debounce,
		log:      log,
		fsw:      fsw,
		subs:     make(map[uuid.UUID]subscription),
		pending:  make(map[string]*time.Timer),
		watching: make(map[string]int),
	}
	go w.loop()
	return w, nil
}

// Subscribe registers fn to be called (debounced) when path changes. It
// returns a handle that Unsubscribe accepts; calling Unsubscribe more than
// once with the same handle is a no-op.
func (w *Watcher) Subscribe(path string, fn Handler) (uuid.UUID, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return uuid.UUID{}, err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watching[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return uuid.UUID{}, err
		}
	}
	w.watching[dir]++

	id := uuid.New()
	w.subs[id] = subscription{path: abs, fn: fn}
	return id, nil
}

// Unsubscribe removes a previously registered handle. Idempotent.
func (w *Watcher) Unsubscribe(id uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	sub, ok := w.subs[id]
	if !ok {
		return
	}
	delete(w.subs, id)

	dir := filepath.Dir(sub.path)
	w.watching[dir]--
	if w.watching[dir] <= 0 {
		delete(w.watching, dir)
		w.fsw.Remove(dir)
	}
}

// Close stops the underlying fsnotify watcher and all pending timers.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for _, t := range w.pending {
		t.Stop()
	}
	w.pending = make(map[string]*time.Timer)
	w.mu.Unlock()
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if IsTmpSibling(filepath.Base(ev.Name)) {
				continue
			}
			w.schedule(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", "err", err)
		}
	}
}

func (w *Watcher) schedule(ev fsnotify.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[ev.Name]; ok {
		t.Stop()
	}
	w.pending[ev.Name] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, ev.Name)
		var handlers []Handler
		for _, sub := range w.subs {
			if sub.path == ev.Name {
				handlers = append(handlers, sub.fn)
			}
		}
		w.mu.Unlock()

		for _, fn := range handlers {
			fn(Event{Path: ev.Name, Op: ev.Op})
		}
	})
}
