package task

import (
	"fmt"
	"os"
	"strings"
)

const (
	openMarker  = "<task"
	closeMarker = "</task>"
)

// Section element names inside a task block.
const (
	sectionDescription = "description"
	sectionCommands    = "commands"
	sectionCriteria    = "criteria"
	sectionNotes       = "notes"
	itemCommand        = "command"
	itemCriterion      = "criterion"
)

// Parse extracts tasks from a task document in document order.
// It never fails: blocks it cannot fully read yield partial records, and a
// block missing its closing marker ends the scan. An opening tag that runs
// into its closing marker yields the attributes read up to that marker.
func Parse(doc string) []Task {
	tasks := []Task{}

	pos := 0
	for {
		start := findOpenMarker(doc, pos)
		if start == -1 {
			break
		}

		tagEnd := indexFrom(doc, ">", start)
		end := indexFrom(doc, closeMarker, start)
		if tagEnd == -1 || end == -1 {
			break
		}
		if tagEnd > end {
			tasks = append(tasks, parseAttributes(doc[start:end]))
			pos = end + len(closeMarker)
			continue
		}

		t := parseAttributes(doc[start:tagEnd])
		inner := doc[tagEnd+1 : end]

		t.Description = strings.TrimSpace(firstSection(inner, sectionDescription))
		t.Commands = allSections(firstSection(inner, sectionCommands), itemCommand)
		t.Criteria = allSections(firstSection(inner, sectionCriteria), itemCriterion)
		t.Notes = strings.TrimSpace(firstSection(inner, sectionNotes))

		tasks = append(tasks, t)

		// Always advance past the closing marker.
		pos = end + len(closeMarker)
	}

	return tasks
}

// ParseFile reads and parses a task document from disk.
// Only an unreadable file is an error.
func ParseFile(path string) ([]Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task document: %w", err)
	}
	return Parse(string(data)), nil
}

// findOpenMarker returns the offset of the next "<task" that is followed by
// whitespace, '/' or '>', so wrappers such as "<tasks>" are not taken as tasks.
func findOpenMarker(doc string, pos int) int {
	for {
		idx := indexFrom(doc, openMarker, pos)
		if idx == -1 {
			return -1
		}
		next := idx + len(openMarker)
		if next >= len(doc) {
			return idx
		}
		switch doc[next] {
		case ' ', '\t', '\n', '\r', '\f', '\v', '>', '/':
			return idx
		}
		pos = next
	}
}

// parseAttributes reads key="value" pairs from an opening tag such as
// `<task id="T1" type="x"`. Both '=' and '"' act as separators and the
// remaining tokens are paired in order, so values cannot contain spaces.
func parseAttributes(tag string) Task {
	var t Task

	tokens := strings.FieldsFunc(tag, func(r rune) bool {
		switch r {
		case '=', '"', ' ', '\t', '\n', '\r', '\f', '\v':
			return true
		}
		return false
	})
	if len(tokens) == 0 {
		return t
	}

	// tokens[0] is the "<task" marker itself.
	for i := 1; i+1 < len(tokens); i += 2 {
		key, value := tokens[i], tokens[i+1]
		switch key {
		case "id":
			t.ID = value
		case "type", "kind":
			t.Kind = value
		case "priority":
			t.Priority = value
		case "status":
			t.Status = value
		case "created", "createdAt", "created_at":
			t.CreatedAt = value
		}
	}
	return t
}

// firstSection returns the raw content of the first <name>...</name> in s,
// or "" if either marker is missing.
func firstSection(s, name string) string {
	startTag := "<" + name + ">"
	endTag := "</" + name + ">"

	start := strings.Index(s, startTag)
	if start == -1 {
		return ""
	}
	start += len(startTag)

	end := indexFrom(s, endTag, start)
	if end == -1 {
		return ""
	}
	return s[start:end]
}

// allSections returns the trimmed content of every <name>...</name> in s,
// in document order. An unterminated element ends the scan.
func allSections(s, name string) []string {
	startTag := "<" + name + ">"
	endTag := "</" + name + ">"

	items := []string{}
	pos := 0
	for {
		start := indexFrom(s, startTag, pos)
		if start == -1 {
			break
		}
		start += len(startTag)

		end := indexFrom(s, endTag, start)
		if end == -1 {
			break
		}
		items = append(items, strings.TrimSpace(s[start:end]))
		pos = end + len(endTag)
	}
	return items
}

// indexFrom is strings.Index starting at offset from.
func indexFrom(s, substr string, from int) int {
	if from > len(s) {
		return -1
	}
	idx := strings.Index(s[from:], substr)
	if idx == -1 {
		return -1
	}
	return from + idx
}
