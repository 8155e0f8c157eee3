package runner

import (
	"context"
	"fmt"
	"strings"
)

// FailureLister names the acceptance rules a response failed.
type FailureLister interface {
	Failures(response string) ([]string, error)
}

// TemplateReflector builds a revised prompt without an external script by
// appending the rejected response and the failed rules to the prompt.
type TemplateReflector struct {
	Rules FailureLister // optional
}

// Reflect composes the revised prompt.
func (r *TemplateReflector) Reflect(_ context.Context, prompt, response string) (string, error) {
	var failed []string
	if r.Rules != nil {
		var err error
		failed, err = r.Rules.Failures(response)
		if err != nil {
			return "", fmt.Errorf("failed to list rule failures: %w", err)
		}
	}

	var sb strings.Builder
	sb.WriteString(prompt)
	if !strings.HasSuffix(prompt, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("Previous response:\n")
	sb.WriteString(strings.TrimSpace(response))
	sb.WriteString("\n")
	if len(failed) > 0 {
		sb.WriteString("Failed checks:\n")
		for _, name := range failed {
			sb.WriteString("- ")
			sb.WriteString(name)
			sb.WriteString("\n")
		}
	}
	sb.WriteString("Revise the response so that every criterion is met.\n")
	return sb.String(), nil
}
