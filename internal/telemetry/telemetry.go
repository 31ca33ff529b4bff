// Package telemetry provides the shared otel tracer accessor used by Seed
// consolidation, Session Guard phases, and Peer Chain sync.
package telemetry

import (
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func attrString(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

const instrumentationName = "github.com/soulproto/soul"

var (
	debugEnabled atomic.Bool
	tracerOnce   sync.Once
	tracer       *Tracer
)

// Tracer wraps an otel trace.Tracer with the start/end span helper shape
// used throughout the codebase, and a Debug flag gating verbose attributes.
type Tracer struct {
	inner trace.Tracer
}

// GetTracer returns the process-wide Tracer, initializing it from the
// globally configured otel TracerProvider on first use.
func GetTracer() *Tracer {
	tracerOnce.Do(func() {
		tracer = &Tracer{inner: otel.Tracer(instrumentationName)}
	})
	return tracer
}

// SetDebug toggles whether verbose span attributes (large payload bodies)
// are recorded. Off by default.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// Debug reports whether verbose span attributes should be recorded.
func (t *Tracer) Debug() bool {
	return debugEnabled.Load()
}

// StartSpan starts a span named name as a child of ctx.
func (t *Tracer) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.inner.Start(ctx, name)
}

// StartSeedSpan starts a span for a Seed Engine consolidation phase.
func (t *Tracer) StartSeedSpan(ctx context.Context, mode string) (context.Context, trace.Span) {
	ctx, span := t.inner.Start(ctx, "seed.consolidate")
	span.SetAttributes(attrString("seed.mode", mode))
	return ctx, span
}

// StartGuardSpan starts a span for a Session Guard phase (A, B, or C).
func (t *Tracer) StartGuardSpan(ctx context.Context, phase string) (context.Context, trace.Span) {
	ctx, span := t.inner.Start(ctx, "guard.phase."+phase)
	span.SetAttributes(attrString("guard.phase", phase))
	return ctx, span
}

// StartChainSpan starts a span for a Peer Chain sync round.
func (t *Tracer) StartChainSpan(ctx context.Context, peerID string) (context.Context, trace.Span) {
	ctx, span := t.inner.Start(ctx, "chain.sync")
	span.SetAttributes(attrString("chain.peer", peerID))
	return ctx, span
}
