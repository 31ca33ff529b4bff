// Package soullog provides the structured, phase-aware logger used by every
// long-running Soul Protocol process. It reimplements the call shape
// observed at the supervisor's logging call sites (PhaseStart/
// PhaseComplete, event-with-fields logging) on top of log/slog, since the
// backing logger package itself lives in an external, unreadable module.
package soullog

import (
	"log/slog"
	"os"
	"time"
)

// Logger wraps an slog.Logger with phase-lifecycle helpers.
type Logger struct {
	inner *slog.Logger
}

// New returns a Logger writing structured text to stderr at the given level.
func New(level slog.Level) *Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{inner: slog.New(h)}
}

// Default returns a Logger at Info level.
func Default() *Logger {
	return New(slog.LevelInfo)
}

func (l *Logger) Debug(msg string, fields map[string]any) {
	l.inner.Debug(msg, flatten(fields)...)
}

func (l *Logger) Info(msg string, fields map[string]any) {
	l.inner.Info(msg, flatten(fields)...)
}

func (l *Logger) Warn(msg string, fields map[string]any) {
	l.inner.Warn(msg, flatten(fields)...)
}

func (l *Logger) Error(msg string, err error, fields map[string]any) {
	args := flatten(fields)
	if err != nil {
		args = append(args, "err", err.Error())
	}
	l.inner.Error(msg, args...)
}

// PhaseStart logs the beginning of a named lifecycle phase (Seed
// consolidation, a Session Guard phase, a Peer Chain sync round).
func (l *Logger) PhaseStart(phase string, fields map[string]any) {
	args := append(flatten(fields), "phase", phase, "event", "start")
	l.inner.Info("phase start", args...)
}

// PhaseComplete logs the end of a named lifecycle phase, including duration
// and outcome.
func (l *Logger) PhaseComplete(phase string, dur time.Duration, err error) {
	args := []any{"phase", phase, "event", "complete", "duration_ms", dur.Milliseconds()}
	if err != nil {
		args = append(args, "err", err.Error())
		l.inner.Warn("phase complete", args...)
		return
	}
	l.inner.Info("phase complete", args...)
}

// With returns a Logger that always includes the given fields.
func (l *Logger) With(fields map[string]any) *Logger {
	return &Logger{inner: l.inner.With(flatten(fields)...)}
}

func flatten(fields map[string]any) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
