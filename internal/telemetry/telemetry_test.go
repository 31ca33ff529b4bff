package telemetry

import (
	"context"
	"testing"
)

func TestGetTracerIsSingleton(t *testing.T) {
	a := GetTracer()
	b := GetTracer()
	if a != b {
		t.Error("GetTracer returned different instances")
	}
}

func TestDebugDefaultsOff(t *testing.T) {
	SetDebug(false)
	if GetTracer().Debug() {
		t.Error("Debug should default to false")
	}
	SetDebug(true)
	if !GetTracer().Debug() {
		t.Error("Debug should be true after SetDebug(true)")
	}
	SetDebug(false)
}

func TestStartSpansDoNotPanic(t *testing.T) {
	ctx := context.Background()
	tr := GetTracer()

	_, span := tr.StartSeedSpan(ctx, "full")
	span.End()

	_, span = tr.StartGuardSpan(ctx, "A")
	span.End()

	_, span = tr.StartChainSpan(ctx, "peer-1")
	span.End()
}
