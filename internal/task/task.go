// Package task defines task records and the tolerant parser that extracts
// them from a task document.
//
// A task document is a flat sequence of blocks:
//
//	<task id="T1" type="summarize" priority="high" status="pending" created="2025-01-01">
//	  <description>Summarize the README</description>
//	  <commands>
//	    <command>read README.md</command>
//	  </commands>
//	  <criteria>
//	    <criterion>under 200 words</criterion>
//	  </criteria>
//	  <notes>optional</notes>
//	</task>
//
// The document is not schema-validated. Malformed blocks produce empty or
// partial fields, or end the scan, never an error.
package task

import "errors"

// Task is one unit of work read from the task document.
// A Task is treated as immutable once parsed.
type Task struct {
	ID          string   `yaml:"id"`
	Kind        string   `yaml:"kind,omitempty"`
	Priority    string   `yaml:"priority,omitempty"`
	Status      string   `yaml:"status,omitempty"`
	CreatedAt   string   `yaml:"created_at,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Commands    []string `yaml:"commands,omitempty"`
	Criteria    []string `yaml:"criteria,omitempty"`
	Notes       string   `yaml:"notes,omitempty"`
}

// ErrMissingID is returned by Validate for a task without an id attribute.
var ErrMissingID = errors.New("task has no id")

// Validate reports whether the task can be scheduled.
func (t Task) Validate() error {
	if t.ID == "" {
		return ErrMissingID
	}
	return nil
}
