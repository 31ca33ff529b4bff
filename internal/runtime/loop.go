// Package runtime hosts the long-lived event loop a soul process runs
// between founding and shutdown: it multiplexes soul-directory watcher
// callbacks, the heartbeat and chain-status timers, and a bounded queue
// of deferred LLM-assisted summarization jobs.
//
// Grounded on internal/executor/executor.go's shape (a central struct
// dispatching to phase-specific methods), generalized from "run one
// workflow" to "multiplex watcher callbacks, timers, and the
// summarizer queue".
package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/soulproto/soul/internal/chain"
	"github.com/soulproto/soul/internal/fabric"
	"github.com/soulproto/soul/internal/guard"
	"github.com/soulproto/soul/internal/soullog"
	"github.com/soulproto/soul/internal/tree"
)

// SummarizeJob is a deferred unit of LLM-assisted work, e.g. "re-derive
// the STATE block from the impulse log since the last consolidation".
// Loop never performs the summarization itself — it only drains the
// queue on a timer and calls Summarize, which the caller wires to
// whatever LLM binding (if any) it has available.
type SummarizeJob struct {
	BlockName string
	Deltas    []string
}

// Summarize is called once per drained SummarizeJob. A nil Summarize
// hook (the default) makes the queue a no-op sink: jobs are submitted
// and coalesced but never acted on, which is a valid configuration for
// a soul that has no LLM binding configured.
type SummarizeFunc func(ctx context.Context, job SummarizeJob)

// Config holds everything a Loop needs to run. Only Dir and Guard are
// required; a nil Bus, Watcher, Daemon, or Summarize hook simply
// disables that facet.
type Config struct {
	Dir     *tree.Dir
	Guard   *guard.Guard
	Bus     *fabric.Bus
	Watcher *tree.Watcher
	Daemon  *chain.Daemon
	Log     *soullog.Logger

	HeartbeatInterval time.Duration // default 1 minute
	StatusInterval    time.Duration // default 30 seconds
	SummarizeInterval time.Duration // default 10 seconds
	Summarize         SummarizeFunc
}

// Loop is the central dispatcher. It owns no state the other packages
// don't already own; it only schedules calls into them.
type Loop struct {
	cfg   Config
	log   *soullog.Logger
	queue *Queue[SummarizeJob]

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Loop from cfg, filling in defaults for zero-valued
// intervals.
func New(cfg Config) *Loop {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = time.Minute
	}
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = 30 * time.Second
	}
	if cfg.SummarizeInterval <= 0 {
		cfg.SummarizeInterval = 10 * time.Second
	}
	log := cfg.Log
	if log == nil {
		log = soullog.Default()
	}
	return &Loop{cfg: cfg, log: log, queue: NewQueue[SummarizeJob]()}
}

// SubmitSummarize enqueues a summarization job, replacing any pending
// job for the same block name. Safe to call from watcher callbacks.
func (l *Loop) SubmitSummarize(job SummarizeJob) {
	l.queue.Submit(job.BlockName, job)
}

// Start runs the loop's timers in background goroutines. It returns
// immediately; call Stop to shut everything down.
func (l *Loop) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	if l.cfg.Guard != nil {
		if err := l.cfg.Guard.Wake(ctx); err != nil {
			cancel()
			return err
		}
	}

	if l.cfg.Daemon != nil {
		if err := l.cfg.Daemon.Start(ctx); err != nil {
			cancel()
			return err
		}
	}

	l.spawn(ctx, l.heartbeatLoop)
	l.spawn(ctx, l.summarizeLoop)
	if l.cfg.Bus != nil {
		l.spawn(ctx, l.eventMirrorLoop)
	}

	return nil
}

// Stop cancels every background goroutine and waits for them to exit.
func (l *Loop) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()
}

func (l *Loop) spawn(ctx context.Context, fn func(context.Context)) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		fn(ctx)
	}()
}

// heartbeatLoop writes a pulse at a fixed cadence, keeping the Activity
// Fabric's pulse file fresh even during otherwise quiet sessions.
func (l *Loop) heartbeatLoop(ctx context.Context) {
	t := time.NewTicker(l.cfg.HeartbeatInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if l.cfg.Dir == nil {
				continue
			}
			if err := fabric.WritePulse(l.cfg.Dir, fabric.Pulse{Activity: "heartbeat"}); err != nil {
				l.log.Warn("heartbeat pulse write failed", map[string]any{"err": err.Error()})
			}
		}
	}
}

// summarizeLoop drains the bounded summarizer queue and hands each job
// to the caller-supplied hook, if any.
func (l *Loop) summarizeLoop(ctx context.Context) {
	t := time.NewTicker(l.cfg.SummarizeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if l.cfg.Summarize == nil {
				l.queue.Drain()
				continue
			}
			for _, job := range l.queue.Drain() {
				l.cfg.Summarize(ctx, job)
			}
		}
	}
}

// eventMirrorLoop subscribes to the Activity Fabric's in-process event
// stream and appends each one to the on-disk event log, so anything
// published over NATS (another process in the same soul) still lands
// in this soul's own .soul-events ledger.
func (l *Loop) eventMirrorLoop(ctx context.Context) {
	events := make(chan fabric.Event, 64)
	l.cfg.Bus.SubscribeEvents(func(ev fabric.Event) {
		select {
		case events <- ev:
		default:
			l.log.Warn("event mirror channel full, dropping event", map[string]any{"type": ev.Type})
		}
	})

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if l.cfg.Dir == nil {
				continue
			}
			if err := fabric.AppendEvent(l.cfg.Dir, ev, time.Now()); err != nil {
				l.log.Warn("event mirror append failed", map[string]any{"err": err.Error()})
			}
		}
	}
}
