package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thruflo/quanta/internal/logging"
	"github.com/thruflo/quanta/internal/pipeline"
	"github.com/thruflo/quanta/internal/prompt"
	"github.com/thruflo/quanta/internal/task"
)

// ExitReason indicates why the loop stopped.
type ExitReason int

const (
	ExitReasonUnknown   ExitReason = iota
	ExitReasonMaxCycles            // Ran the requested number of cycles
	ExitReasonCancelled            // Context cancelled
)

// String returns a human-readable description of the exit reason.
func (r ExitReason) String() string {
	switch r {
	case ExitReasonMaxCycles:
		return "max cycles"
	case ExitReasonCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Gate is the timeout gate consulted before and tripped after a cycle.
type Gate interface {
	ShouldSkip() (bool, error)
	Trip() error
}

// Runner runs one task through the pipeline.
type Runner interface {
	Run(ctx context.Context, prompt string, t task.Task) (pipeline.Outcome, error)
}

// Options holds configuration for creating a Loop.
type Options struct {
	Gate         Gate
	Runner       Runner
	TaskFile     string
	PollInterval time.Duration
	Priorities   map[string]int // Optional: reported in task logs
	Logger       *logging.Logger
	Wake         <-chan struct{} // Optional: ends a sleep early
	NewID        func() string   // For testing
}

// Loop is the polling scheduler.
type Loop struct {
	gate       Gate
	runner     Runner
	taskFile   string
	interval   time.Duration
	priorities map[string]int
	log        *logging.Logger
	wake       <-chan struct{}
	newID      func() string
}

// New creates a Loop with the given options.
func New(opts Options) *Loop {
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Loop{
		gate:       opts.Gate,
		runner:     opts.Runner,
		taskFile:   opts.TaskFile,
		interval:   opts.PollInterval,
		priorities: opts.Priorities,
		log:        log,
		wake:       opts.Wake,
		newID:      newID,
	}
}

// Result contains the outcome of a loop execution.
type Result struct {
	Reason ExitReason
	Cycles int
}

// CycleResult summarises one poll.
type CycleResult struct {
	ID       string
	Skipped  bool // gate was active
	Ran      int  // tasks that reached a terminal state
	Accepted int
	Rejected int
	Invalid  int   // tasks skipped by validation
	Tripped  bool  // the gate was tripped by this cycle
	Err      error // the failure that tripped the gate
}

// Run polls until the context is cancelled or maxCycles cycles have run.
// maxCycles <= 0 means no limit.
func (l *Loop) Run(ctx context.Context, maxCycles int) Result {
	cycles := 0
	for {
		if ctx.Err() != nil {
			return Result{Reason: ExitReasonCancelled, Cycles: cycles}
		}

		l.RunCycle(ctx)
		cycles++

		if maxCycles > 0 && cycles >= maxCycles {
			return Result{Reason: ExitReasonMaxCycles, Cycles: cycles}
		}

		if !l.sleep(ctx) {
			return Result{Reason: ExitReasonCancelled, Cycles: cycles}
		}
	}
}

// RunCycle performs a single poll. Tasks run in document order, and the
// first pipeline fault trips the gate and abandons the tasks after it in
// this cycle. Invalid tasks and rejected responses do not stop the cycle.
func (l *Loop) RunCycle(ctx context.Context) CycleResult {
	res := CycleResult{ID: l.newID()}
	log := l.log.With("cycle", res.ID)
	log.Info("Polling loop triggered.")

	skip, err := l.gate.ShouldSkip()
	if err != nil {
		// An unreadable marker cannot be trusted to expire; treat it as active.
		log.Error("Failed to check timeout marker", "error", err)
		res.Skipped = true
		return res
	}
	if skip {
		log.Info("System is in timeout. Awaiting next poll...")
		res.Skipped = true
		return res
	}

	tasks, err := task.ParseFile(l.taskFile)
	if err != nil {
		log.Error("Failed to read task document", "path", l.taskFile, "error", err)
		l.trip(log, &res, err)
		return res
	}
	log.Debug("Parsed task document", "tasks", len(tasks))

	for _, t := range tasks {
		if ctx.Err() != nil {
			log.Info("Shutdown requested, leaving remaining tasks for the next run")
			break
		}

		if err := t.Validate(); err != nil {
			log.Warn("Skipping invalid task", "error", err, "description", t.Description)
			res.Invalid++
			continue
		}

		taskLog := log.With("task", t.ID)
		if level, ok := l.priorities[t.ID]; ok {
			taskLog = taskLog.With("priority_level", level)
		}
		taskLog.Info("Running task")

		// A run in flight completes even if shutdown is requested.
		out, err := l.runner.Run(context.WithoutCancel(ctx), prompt.Render(t), t)
		if err != nil {
			var fault *pipeline.Fault
			if errors.As(err, &fault) {
				taskLog.Error("Pipeline failed, abandoning cycle", "state", fault.State, "error", fault.Err)
			} else {
				taskLog.Error("Pipeline failed, abandoning cycle", "error", err)
			}
			l.trip(log, &res, fmt.Errorf("task %s: %w", t.ID, err))
			return res
		}

		res.Ran++
		if out.Accepted() {
			res.Accepted++
			taskLog.Info("Task accepted", "reflected", out.Reflected)
		} else {
			res.Rejected++
			taskLog.Warn("Task rejected", "reflections", out.Reflections)
		}
	}

	log.Info("Cycle complete", "accepted", res.Accepted, "rejected", res.Rejected, "invalid", res.Invalid)
	return res
}

func (l *Loop) trip(log *logging.Logger, res *CycleResult, cause error) {
	res.Err = cause
	if err := l.gate.Trip(); err != nil {
		log.Error("Failed to update timeout marker", "error", err)
		return
	}
	res.Tripped = true
}

// sleep waits for the poll interval, a wake signal or cancellation. It
// reports false when the context was cancelled.
func (l *Loop) sleep(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	case <-l.wake:
		l.log.Debug("Task document changed, polling early")
		return true
	}
}
