package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestEnv describes the files created by SetupTestDir.
type TestEnv struct {
	Dir           string
	ConfigPath    string
	LogFile       string
	PromptFile    string
	TimeoutMarker string
	RulesFile     string
	PriorityFile  string
	LLMScript     string
}

// SetupTestDir creates a temporary directory holding an environment file
// with absolute paths, the sample task document, rules and priorities, and
// a generation script that answers DONE. The directory is cleaned up when
// the test completes.
func SetupTestDir(t *testing.T) *TestEnv {
	t.Helper()

	dir := t.TempDir()
	env := &TestEnv{
		Dir:           dir,
		ConfigPath:    filepath.Join(dir, "config", "environment.txt"),
		LogFile:       filepath.Join(dir, "logs", "quanta.log"),
		PromptFile:    filepath.Join(dir, "rules", "tasks.pql"),
		TimeoutMarker: filepath.Join(dir, "state", "timeout.marker"),
		RulesFile:     filepath.Join(dir, "rules", "rules.yaml"),
		PriorityFile:  filepath.Join(dir, "config", "priorities.txt"),
		LLMScript:     filepath.Join(dir, "scripts", "run_llm.sh"),
	}

	WriteTestFile(t, dir, "rules/tasks.pql", SampleDocument)
	WriteTestFile(t, dir, "rules/rules.yaml", SampleRules)
	WriteTestFile(t, dir, "config/priorities.txt", SamplePriorities)
	WriteScript(t, dir, "scripts/run_llm.sh", "cat >/dev/null\necho DONE\n")

	content := fmt.Sprintf(`# test environment
LOG_FILE=%s
PROMPT_FILE=%s
TIMEOUT_MARKER=%s
RULES_FILE=%s
PRIORITY_FILE=%s
LLM_SCRIPT=%s
POLL_INTERVAL_SEC=1
TIMEOUT_DURATION_SEC=60
`, env.LogFile, env.PromptFile, env.TimeoutMarker, env.RulesFile, env.PriorityFile, env.LLMScript)
	WriteTestFile(t, dir, "config/environment.txt", content)

	return env
}

// WriteTestFile writes content to base/path, creating parent directories.
func WriteTestFile(t *testing.T, base, path, content string) string {
	t.Helper()
	fullPath := filepath.Join(base, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
	require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	return fullPath
}

// WriteScript writes an executable bash script with the given body.
func WriteScript(t *testing.T, base, path, body string) string {
	t.Helper()
	fullPath := WriteTestFile(t, base, path, "#!/usr/bin/env bash\n"+body)
	require.NoError(t, os.Chmod(fullPath, 0o755))
	return fullPath
}
