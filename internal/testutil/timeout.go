package testutil

import (
	"context"
	"testing"
	"time"
)

// Timeouts for tests that start external processes.
const (
	// ScriptTimeout bounds a single script or CLI invocation.
	ScriptTimeout = 30 * time.Second

	// SchedulerTimeout bounds a scheduler run.
	SchedulerTimeout = 10 * time.Second

	// CleanupBuffer is kept free before the go test deadline so deferred
	// cleanup still runs when a context expires.
	CleanupBuffer = 10 * time.Second
)

// ContextWithTestDeadline returns a context that expires after fallback,
// or earlier when the go test deadline minus CleanupBuffer comes first.
// The context is also cancelled when the test ends.
func ContextWithTestDeadline(t *testing.T, fallback time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()

	testDeadline, ok := t.Deadline()
	deadline := contextDeadline(time.Now(), testDeadline, ok, fallback)

	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	t.Cleanup(cancel)
	return ctx, cancel
}

// contextDeadline picks the earlier of now+fallback and the test deadline
// less CleanupBuffer. A test deadline already inside the buffer is ignored.
func contextDeadline(now, testDeadline time.Time, hasDeadline bool, fallback time.Duration) time.Time {
	limit := now.Add(fallback)
	if !hasDeadline {
		return limit
	}
	adjusted := testDeadline.Add(-CleanupBuffer)
	if adjusted.After(now) && adjusted.Before(limit) {
		return adjusted
	}
	return limit
}

// ScriptExecutionContext returns a context for running a script or the
// quanta binary, bounded by ScriptTimeout.
func ScriptExecutionContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadline(t, ScriptTimeout)
}

// SchedulerContext returns a context for a bounded scheduler run.
func SchedulerContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadline(t, SchedulerTimeout)
}
