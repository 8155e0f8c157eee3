// Package prompt renders task records into the text handed to the
// generation script.
package prompt

import (
	"strings"

	"github.com/thruflo/quanta/internal/task"
)

// Section headers. Changing them changes every rendered prompt.
const (
	taskHeader     = "Task: "
	commandsHeader = "Commands:"
	criteriaHeader = "Criteria:"
	itemPrefix     = "- "
)

// Render produces the prompt for a task: the description, then the
// commands and criteria as labeled lists. Empty lists keep their header.
func Render(t task.Task) string {
	var sb strings.Builder

	sb.WriteString(taskHeader)
	sb.WriteString(t.Description)
	sb.WriteString("\n")

	writeList(&sb, commandsHeader, t.Commands)
	writeList(&sb, criteriaHeader, t.Criteria)

	return sb.String()
}

func writeList(sb *strings.Builder, header string, items []string) {
	sb.WriteString(header)
	sb.WriteString("\n")
	for _, item := range items {
		sb.WriteString(itemPrefix)
		sb.WriteString(item)
		sb.WriteString("\n")
	}
}
