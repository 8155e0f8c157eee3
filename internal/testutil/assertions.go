package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thruflo/quanta/internal/task"
)

// AssertTaskIDs checks that tasks carry exactly the given ids, in order.
func AssertTaskIDs(t *testing.T, tasks []task.Task, ids ...string) {
	t.Helper()
	got := make([]string, 0, len(tasks))
	for _, tk := range tasks {
		got = append(got, tk.ID)
	}
	if ids == nil {
		ids = []string{}
	}
	assert.Equal(t, ids, got, "task ids")
}

// AssertLogContains checks that each fragment appears in logText, and that
// they appear in the given order.
func AssertLogContains(t *testing.T, logText string, fragments ...string) {
	t.Helper()
	offset := 0
	for _, fragment := range fragments {
		idx := strings.Index(logText[offset:], fragment)
		if !assert.GreaterOrEqual(t, idx, 0, "log should contain %q after offset %d:\n%s", fragment, offset, logText) {
			return
		}
		offset += idx + len(fragment)
	}
}
