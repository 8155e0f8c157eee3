package testutil

import "github.com/thruflo/quanta/internal/task"

// SampleDocument is a task document with two tasks, T1 then T2.
const SampleDocument = `<tasks>
<task id="T1" type="summarize" priority="high" status="pending" created="2025-06-01">
  <description>Summarize the project README</description>
  <commands>
    <command>read README.md</command>
    <command>write summary.md</command>
  </commands>
  <criteria>
    <criterion>under 200 words</criterion>
  </criteria>
  <notes>first pass</notes>
</task>
<task id="T2" type="review" priority="low" status="pending" created="2025-06-02">
  <description>Review the scheduler loop</description>
  <commands>
    <command>read internal/scheduler</command>
  </commands>
  <criteria>
    <criterion>lists at least one risk</criterion>
    <criterion>no speculative rewrites</criterion>
  </criteria>
</task>
</tasks>
`

// SampleRules is a rules file accepting responses that contain DONE and
// do not apologise.
const SampleRules = `rules:
  - name: non-empty
    type: min_length
    value: "1"
  - name: reports-done
    type: contains
    value: DONE
  - name: no-apology
    type: not_contains
    value: "I'm sorry"
`

// SamplePriorities is a priority file in "name level" form.
const SamplePriorities = `# task level
T1 2
T2 5
`

// SampleTasks returns the tasks SampleDocument parses to.
// Returns a new slice each time to prevent test interference.
func SampleTasks() []task.Task {
	return []task.Task{
		{
			ID:          "T1",
			Kind:        "summarize",
			Priority:    "high",
			Status:      "pending",
			CreatedAt:   "2025-06-01",
			Description: "Summarize the project README",
			Commands:    []string{"read README.md", "write summary.md"},
			Criteria:    []string{"under 200 words"},
			Notes:       "first pass",
		},
		{
			ID:          "T2",
			Kind:        "review",
			Priority:    "low",
			Status:      "pending",
			CreatedAt:   "2025-06-02",
			Description: "Review the scheduler loop",
			Commands:    []string{"read internal/scheduler"},
			Criteria:    []string{"lists at least one risk", "no speculative rewrites"},
		},
	}
}
