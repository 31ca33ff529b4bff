package guard

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/soulproto/soul/internal/fabric"
	"github.com/soulproto/soul/internal/seed"
	"github.com/soulproto/soul/internal/soullog"
	"github.com/soulproto/soul/internal/telemetry"
	"github.com/soulproto/soul/internal/tree"
)

// State is the Guard's lifecycle state.
type State int

const (
	Quiescent State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "quiescent"
}

// PhaseAHook appends heartbeat, evolution, memory, and knowledge-graph
// updates for the ending session. It is caller-supplied because what gets
// appended depends on session content the Guard itself does not track.
type PhaseAHook func(ctx context.Context) error

// Decision is the outcome of a goodbye-detector check: whether the stop
// event should be blocked, and if so, the instructional reason to return
// to the agent.
type Decision struct {
	Block  bool
	Reason string
}

// Guard implements the Session Lifecycle Guard: wake/goodbye/consolidate/
// recover, backed by the Seed Engine for consolidation and the Activity
// Fabric's session marker for state.
type Guard struct {
	dir      *tree.Dir
	engine   *seed.Engine
	detector *GoodbyeDetector
	bus      *fabric.Bus
	log      *soullog.Logger
	now      func() time.Time

	PhaseA PhaseAHook

	mu      sync.Mutex
	reentry bool
}

// New constructs a Guard over dir, using engine for consolidation and
// detector for goodbye-phrase matching. bus and log may be nil.
func New(dir *tree.Dir, engine *seed.Engine, detector *GoodbyeDetector, bus *fabric.Bus, log *soullog.Logger) *Guard {
	if log == nil {
		log = soullog.Default()
	}
	return &Guard{
		dir:      dir,
		engine:   engine,
		detector: detector,
		bus:      bus,
		log:      log,
		now:      time.Now,
		PhaseA:   func(context.Context) error { return nil },
	}
}

// State returns the Guard's current state by checking for .session-active.
func (g *Guard) State() (State, error) {
	m, err := fabric.ReadSessionMarker(g.dir)
	if err != nil {
		return Quiescent, err
	}
	if m == nil {
		return Quiescent, nil
	}
	return Active, nil
}

// Wake transitions quiescent -> active. If a marker already exists (a
// previous session crashed without completing Phase C), it first runs
// Recover.
func (g *Guard) Wake(ctx context.Context) error {
	marker, err := fabric.ReadSessionMarker(g.dir)
	if err != nil {
		return fmt.Errorf("guard: read session marker: %w", err)
	}
	if marker != nil {
		if err := g.Recover(ctx); err != nil {
			return fmt.Errorf("guard: recover crashed session: %w", err)
		}
	}

	g.mu.Lock()
	g.reentry = false
	g.mu.Unlock()

	session := 1
	if prev, err := g.currentSessions(); err == nil {
		session = prev + 1
	}

	return fabric.WriteSessionMarker(g.dir, fabric.SessionMarker{
		Session: session,
		Start:   g.now(),
	})
}

// currentSessions reads #sessions from the last committed SEED.md.
func (g *Guard) currentSessions() (int, error) {
	data, err := readFileOrEmpty(g.dir.Path(tree.SeedFile))
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, nil
	}
	s, err := seed.Parse(g.dir.Path(tree.SeedFile), data)
	if err != nil {
		return 0, err
	}
	return s.Sessions, nil
}

// Goodbye evaluates a candidate final assistant message against the
// goodbye-phrase detector. While active, a match yields a blocking
// Decision instructing the agent to run Phase A, B, C before retrying. The
// re-entry flag prevents the same stop cycle from blocking twice.
func (g *Guard) Goodbye(message string) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.reentry {
		return Decision{Block: false}
	}

	state, err := g.State()
	if err != nil || state != Active {
		return Decision{Block: false}
	}

	if !g.detector.Matches(message) {
		return Decision{Block: false}
	}

	g.reentry = true
	return Decision{
		Block:  true,
		Reason: "session is still active; run Phase A (append heartbeat/evolution/memory/knowledge-graph updates), Phase B (full Seed consolidation), then Phase C (clear the session marker) before saying goodbye again",
	}
}

// ResetReentry clears the re-entry flag at the start of a new stop cycle.
func (g *Guard) ResetReentry() {
	g.mu.Lock()
	g.reentry = false
	g.mu.Unlock()
}

// Consolidate runs Phase A, B, C in order. All three phases must complete;
// if any fails, the Guard remains active and the error is returned.
func (g *Guard) Consolidate(ctx context.Context) error {
	return g.runPhases(ctx, seed.Full)
}

// Recover retroactively runs Phase A-C using the Seed Engine's incremental
// mode, treating a previously-crashed session as if it were ending now. No
// new LLM call is needed; incremental mode is sufficient per the recovery
// contract.
func (g *Guard) Recover(ctx context.Context) error {
	return g.runPhases(ctx, seed.Incremental)
}

func (g *Guard) runPhases(ctx context.Context, mode seed.Mode) error {
	tracer := telemetry.GetTracer()

	// Phase A: append heartbeat/evolution/memory/knowledge-graph updates.
	start := time.Now()
	ctxA, spanA := tracer.StartGuardSpan(ctx, "A")
	err := g.PhaseA(ctxA)
	spanA.End()
	g.log.PhaseComplete("A", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("guard: phase A: %w", err)
	}

	// Phase B: full (or incremental, during recovery) Seed consolidation.
	start = time.Now()
	ctxB, spanB := tracer.StartGuardSpan(ctx, "B")
	next, err := g.engine.Consolidate(ctxB, mode)
	spanB.End()
	if err != nil {
		g.log.PhaseComplete("B", time.Since(start), err)
		return fmt.Errorf("guard: phase B: %w", err)
	}
	next.Sessions++
	if err := tree.AtomicWriteFile(g.dir.Path(tree.SeedFile), seed.Serialize(next), 0o644); err != nil {
		g.log.PhaseComplete("B", time.Since(start), err)
		return fmt.Errorf("guard: phase B: write seed: %w", err)
	}
	g.log.PhaseComplete("B", time.Since(start), nil)

	// Phase C: delete the session marker.
	start = time.Now()
	_, spanC := tracer.StartGuardSpan(ctx, "C")
	err = fabric.DeleteSessionMarker(g.dir)
	spanC.End()
	g.log.PhaseComplete("C", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("guard: phase C: %w", err)
	}

	if g.bus != nil {
		g.bus.PublishEvent(fabric.Event{Type: "sleep", Source: "guard", Timestamp: g.now()})
	}

	g.mu.Lock()
	g.reentry = false
	g.mu.Unlock()
	return nil
}

func readFileOrEmpty(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}
