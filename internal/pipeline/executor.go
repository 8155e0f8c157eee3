// Package pipeline runs a single task through generation, evaluation and
// bounded reflection.
//
// The state machine is:
//
//	Generating -> Evaluating -> Accepted
//	                         -> Reflecting -> Regenerating -> Reevaluating -> Accepted
//	                                                                       -> Reflecting (while reflections remain)
//	                                                                       -> Rejected
//
// With the default bound of one reflection, a task is generated at most
// twice. Every transition is logged with the task id and state.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/thruflo/quanta/internal/logging"
	"github.com/thruflo/quanta/internal/task"
)

// DefaultMaxReflections is the number of reflection passes per task.
const DefaultMaxReflections = 1

// State is a pipeline state.
type State int

const (
	StateUnknown State = iota
	StateGenerating
	StateEvaluating
	StateReflecting
	StateRegenerating
	StateReevaluating
	StateAccepted // terminal
	StateRejected // terminal
)

// String returns the state name used in log lines.
func (s State) String() string {
	switch s {
	case StateGenerating:
		return "generating"
	case StateEvaluating:
		return "evaluating"
	case StateReflecting:
		return "reflecting"
	case StateRegenerating:
		return "regenerating"
	case StateReevaluating:
		return "reevaluating"
	case StateAccepted:
		return "accepted"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == StateAccepted || s == StateRejected
}

// Outcome is the result of a pipeline run that reached a terminal state.
type Outcome struct {
	TaskID      string
	State       State
	Response    string
	Reflected   bool
	Reflections int
	Transitions []State
}

// Accepted reports whether the final response passed evaluation.
func (o Outcome) Accepted() bool {
	return o.State == StateAccepted
}

// Fault wraps a capability failure with the task and state it happened in.
type Fault struct {
	TaskID string
	State  State
	Err    error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("pipeline fault: task %s: %s: %v", f.TaskID, f.State, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// IsFault checks if an error is a pipeline Fault.
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}

// Options holds configuration for creating an Executor.
type Options struct {
	Generator      Generator
	Evaluator      Evaluator
	Reflector      Reflector // nil rejects without reflecting
	MaxReflections int       // 0 means DefaultMaxReflections
	Logger         *logging.Logger
}

// Executor drives one task at a time through the pipeline.
type Executor struct {
	gen            Generator
	eval           Evaluator
	reflect        Reflector
	maxReflections int
	log            *logging.Logger
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts Options) *Executor {
	maxReflections := opts.MaxReflections
	if maxReflections <= 0 {
		maxReflections = DefaultMaxReflections
	}
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}
	return &Executor{
		gen:            opts.Generator,
		eval:           opts.Evaluator,
		reflect:        opts.Reflector,
		maxReflections: maxReflections,
		log:            log,
	}
}

// MaxReflections returns the reflection bound in effect.
func (e *Executor) MaxReflections() int {
	return e.maxReflections
}

// Run executes the pipeline for t starting from prompt. A nil error means
// the returned Outcome is terminal; a rejection is not an error. Capability
// failures are returned as *Fault together with the partial Outcome.
func (e *Executor) Run(ctx context.Context, prompt string, t task.Task) (Outcome, error) {
	run := &pipelineRun{
		out: Outcome{TaskID: t.ID},
		log: e.log.With("task", t.ID),
	}

	run.enter(StateGenerating)
	response, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		return run.out, run.fault(err)
	}
	run.out.Response = response

	run.enter(StateEvaluating)
	accepted, err := e.eval.Evaluate(ctx, response)
	if err != nil {
		return run.out, run.fault(err)
	}

	current := prompt
	for !accepted {
		if e.reflect == nil || run.out.Reflections >= e.maxReflections {
			run.enter(StateRejected)
			return run.out, nil
		}

		run.enter(StateReflecting)
		run.out.Reflected = true
		run.out.Reflections++
		revised, err := e.reflect.Reflect(ctx, current, response)
		if err != nil {
			return run.out, run.fault(err)
		}
		current = revised

		run.enter(StateRegenerating)
		response, err = e.gen.Generate(ctx, current)
		if err != nil {
			return run.out, run.fault(err)
		}
		run.out.Response = response

		run.enter(StateReevaluating)
		accepted, err = e.eval.Evaluate(ctx, response)
		if err != nil {
			return run.out, run.fault(err)
		}
	}

	run.enter(StateAccepted)
	return run.out, nil
}

// pipelineRun holds the local variables of one Run.
type pipelineRun struct {
	out   Outcome
	state State
	log   *logging.Logger
}

func (r *pipelineRun) enter(s State) {
	r.state = s
	r.out.State = s
	r.out.Transitions = append(r.out.Transitions, s)
	r.log.Info("Pipeline state", "state", s.String())
}

func (r *pipelineRun) fault(err error) error {
	r.log.Error("Pipeline fault", "state", r.state.String(), "error", err)
	return &Fault{TaskID: r.out.TaskID, State: r.state, Err: err}
}
