// Package gate implements the persisted timeout marker that keeps the
// scheduler from re-running a failing pipeline in a tight loop.
//
// The marker's existence and modification time are its only state. There
// is no failure counter, so repeated trips extend a flat window rather than
// escalating it.
package gate

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/thruflo/quanta/internal/logging"
)

// markerContent is written to the marker file. Readers ignore it.
const markerContent = "timeout"

// Options holds configuration for creating a Gate.
type Options struct {
	Path     string
	Duration time.Duration
	Now      func() time.Time // For testing
	Logger   *logging.Logger
}

// Gate is a file-backed timeout gate.
type Gate struct {
	path     string
	duration time.Duration
	now      func() time.Time
	log      *logging.Logger
}

// New creates a Gate with the given options.
func New(opts Options) *Gate {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}
	return &Gate{
		path:     opts.Path,
		duration: opts.Duration,
		now:      now,
		log:      log,
	}
}

// Path returns the marker file path.
func (g *Gate) Path() string {
	return g.path
}

// Duration returns the timeout window.
func (g *Gate) Duration() time.Duration {
	return g.duration
}

// Status describes the marker without changing it.
type Status struct {
	Tripped   bool          // marker exists
	Active    bool          // marker exists and is younger than the window
	TrippedAt time.Time     // marker modification time
	Remaining time.Duration // time until expiry when Active
}

// Status reads the marker without deleting an expired one.
func (g *Gate) Status() (Status, error) {
	info, err := os.Stat(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Status{}, nil
		}
		return Status{}, fmt.Errorf("failed to stat timeout marker: %w", err)
	}

	st := Status{Tripped: true, TrippedAt: info.ModTime()}
	age := g.now().Sub(st.TrippedAt)
	if age < g.duration {
		st.Active = true
		st.Remaining = g.duration - age
	}
	return st, nil
}

// ShouldSkip reports whether the current cycle must be skipped. An expired
// marker is deleted, so expiry is observed exactly once.
func (g *Gate) ShouldSkip() (bool, error) {
	st, err := g.Status()
	if err != nil {
		return false, err
	}
	if !st.Tripped {
		return false, nil
	}

	if st.Active {
		g.log.Info("Timeout marker active. Skipping task execution.", "remaining", st.Remaining.Round(time.Second))
		return true, nil
	}

	if err := g.remove(); err != nil {
		return false, err
	}
	g.log.Info("Timeout expired. Removing marker file.")
	return false, nil
}

// Trip creates or refreshes the marker with the current time.
func (g *Gate) Trip() error {
	if dir := filepath.Dir(g.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create marker directory: %w", err)
		}
	}

	if err := os.WriteFile(g.path, []byte(markerContent), 0o644); err != nil {
		return fmt.Errorf("failed to write timeout marker: %w", err)
	}

	now := g.now()
	if err := os.Chtimes(g.path, now, now); err != nil {
		return fmt.Errorf("failed to stamp timeout marker: %w", err)
	}

	g.log.Info("Timeout marker updated.")
	return nil
}

// Clear removes the marker if present.
func (g *Gate) Clear() error {
	if err := g.remove(); err != nil {
		return err
	}
	g.log.Info("Timeout marker cleared.")
	return nil
}

func (g *Gate) remove() error {
	if err := os.Remove(g.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove timeout marker: %w", err)
	}
	return nil
}
