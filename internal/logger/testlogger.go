// Package logger provides internal logging utilities for tests.
package logger

import (
	"fmt"
	"sync"
	"testing"

	"github.com/braintrustdata/prompteval-go/logger"
)

// FailTestLogger is a logger that fails tests when the application emits warnings or errors.
// Use this in tests to assert that application code doesn't produce unexpected warnings/errors.
type FailTestLogger struct {
	t *testing.T
}

// NewFailTestLogger creates a new test logger that fails on errors or warnings.
func NewFailTestLogger(t *testing.T) logger.Logger {
	t.Helper()
	return &FailTestLogger{t: t}
}

// Debug forwards to t.Logf.
func (l *FailTestLogger) Debug(msg string, args ...any) {
	l.t.Helper()
	l.t.Logf("[DEBUG] %s %v", msg, args)
}

// Info forwards to t.Logf.
func (l *FailTestLogger) Info(msg string, args ...any) {
	l.t.Helper()
	l.t.Logf("[INFO] %s %v", msg, args)
}

// Warn fails the test. Application code should not emit warnings during tests.
// Errorf is used instead of Fatalf since warnings may be emitted from worker goroutines.
func (l *FailTestLogger) Warn(msg string, args ...any) {
	l.t.Helper()
	l.t.Errorf("[WARN] %s %v", msg, args)
}

// Error fails the test. Application code should not emit errors during tests.
func (l *FailTestLogger) Error(msg string, args ...any) {
	l.t.Helper()
	l.t.Errorf("[ERROR] %s %v", msg, args)
}

// Entry is one captured log call.
type Entry struct {
	Level string
	Msg   string
	Args  map[string]any
}

// Recorder captures log entries so tests can assert on them. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(level, msg string, args []any) {
	kv := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		kv[fmt.Sprint(args[i])] = args[i+1]
	}
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Level: level, Msg: msg, Args: kv})
	r.mu.Unlock()
}

// Debug records a debug entry.
func (r *Recorder) Debug(msg string, args ...any) { r.record("debug", msg, args) }

// Info records an info entry.
func (r *Recorder) Info(msg string, args ...any) { r.record("info", msg, args) }

// Warn records a warn entry.
func (r *Recorder) Warn(msg string, args ...any) { r.record("warn", msg, args) }

// Error records an error entry.
func (r *Recorder) Error(msg string, args ...any) { r.record("error", msg, args) }

// Entries returns a copy of the captured entries, optionally filtered by level.
func (r *Recorder) Entries(level string) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, e := range r.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
