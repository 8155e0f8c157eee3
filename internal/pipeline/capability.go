package pipeline

import "context"

// Generator turns a prompt into a response. An error is an unrecoverable
// fault for the current task.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Evaluator is the acceptance predicate over a response. Implementations
// that can fail report it through the error, which is treated as a fault.
type Evaluator interface {
	Evaluate(ctx context.Context, response string) (bool, error)
}

// Reflector produces a revised prompt from the prompt that led to a
// rejected response and the response itself.
type Reflector interface {
	Reflect(ctx context.Context, prompt, response string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f(ctx, prompt).
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, response string) (bool, error)

// Evaluate calls f(ctx, response).
func (f EvaluatorFunc) Evaluate(ctx context.Context, response string) (bool, error) {
	return f(ctx, response)
}

// ReflectorFunc adapts a function to the Reflector interface.
type ReflectorFunc func(ctx context.Context, prompt, response string) (string, error)

// Reflect calls f(ctx, prompt, response).
func (f ReflectorFunc) Reflect(ctx context.Context, prompt, response string) (string, error) {
	return f(ctx, prompt, response)
}

// Predicate wraps an infallible acceptance check as an Evaluator.
func Predicate(accept func(response string) bool) Evaluator {
	return EvaluatorFunc(func(_ context.Context, response string) (bool, error) {
		return accept(response), nil
	})
}
