package cli

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/thruflo/quanta/internal/prompt"
	"github.com/thruflo/quanta/internal/task"
	"github.com/thruflo/quanta/internal/testutil"
)

// setupCLI points the command tree at a fresh test environment and routes
// command output to the returned buffer.
func setupCLI(t *testing.T, cmds ...*cobra.Command) (*testutil.TestEnv, *bytes.Buffer) {
	t.Helper()

	env := testutil.SetupTestDir(t)
	configPath = env.ConfigPath
	dotenvPath = ""
	verbose = false
	runCycles = 1
	runWatch = false
	tasksFormat = "table"

	var buf bytes.Buffer
	for _, c := range cmds {
		c.SetOut(&buf)
		c.SetErr(&buf)
	}

	t.Cleanup(func() {
		configPath = ""
		runCycles = 0
		for _, c := range cmds {
			c.SetOut(nil)
			c.SetErr(nil)
		}
	})
	return env, &buf
}

func readLog(t *testing.T, env *testutil.TestEnv) string {
	t.Helper()
	data, err := os.ReadFile(env.LogFile)
	require.NoError(t, err)
	return string(data)
}

func TestRootCommand_Subcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"run", "tasks", "prompt", "gate", "check"} {
		assert.Contains(t, names, want)
	}
}

func TestRunCommand_OneCycle(t *testing.T) {
	env, _ := setupCLI(t, runCmd)

	require.NoError(t, runRun(runCmd, nil))

	logText := readLog(t, env)
	testutil.AssertLogContains(t, logText,
		"Loaded rules | count=3",
		"Loaded priority items | count=2",
		"Scheduler started",
		"Polling loop triggered.",
		"task=T1",
		"state=accepted",
		"task=T2",
		"state=accepted",
		"Scheduler stopped",
	)

	assert.Contains(t, logText, "max_reflections=1")
	assert.Contains(t, logText, "timeout=1m0s")

	_, err := os.Stat(env.TimeoutMarker)
	assert.True(t, os.IsNotExist(err), "no marker after a clean cycle")
}

func TestRunCommand_DebugListsRules(t *testing.T) {
	env, _ := setupCLI(t, runCmd)
	content, err := os.ReadFile(env.ConfigPath)
	require.NoError(t, err)
	testutil.WriteTestFile(t, env.Dir, "config/environment.txt", string(content)+"LOG_LEVEL=debug\n")

	require.NoError(t, runRun(runCmd, nil))

	testutil.AssertLogContains(t, readLog(t, env),
		"Loaded rules | count=3",
		"Rule active | rule=non-empty",
		"Rule active | rule=reports-done",
		"Rule active | rule=no-apology",
		"Scheduler started",
	)
}

func TestRunCommand_FaultTripsMarker(t *testing.T) {
	env, _ := setupCLI(t, runCmd)
	testutil.WriteScript(t, env.Dir, "scripts/run_llm.sh", "cat >/dev/null\necho unavailable >&2\nexit 1\n")

	require.NoError(t, runRun(runCmd, nil), "faults are absorbed by the scheduler")

	data, err := os.ReadFile(env.TimeoutMarker)
	require.NoError(t, err)
	assert.Equal(t, "timeout", string(data))

	logText := readLog(t, env)
	assert.Contains(t, logText, "Pipeline fault")
	assert.Contains(t, logText, "Timeout marker updated.")
	assert.NotContains(t, logText, "task=T2", "cycle abandoned after the fault")
}

func TestRunCommand_SkipsWhileTripped(t *testing.T) {
	env, _ := setupCLI(t, runCmd, gateTripCmd)

	require.NoError(t, runGateTrip(gateTripCmd, nil))
	require.NoError(t, runRun(runCmd, nil))

	logText := readLog(t, env)
	testutil.AssertLogContains(t, logText,
		"Timeout marker updated.",
		"Polling loop triggered.",
		"System is in timeout. Awaiting next poll...",
	)
	assert.NotContains(t, logText, "task=T1")
}

func TestRunCommand_MissingRulesAcceptsAll(t *testing.T) {
	env, _ := setupCLI(t, runCmd)
	require.NoError(t, os.Remove(env.RulesFile))
	testutil.WriteScript(t, env.Dir, "scripts/run_llm.sh", "cat >/dev/null\necho anything\n")

	require.NoError(t, runRun(runCmd, nil))

	logText := readLog(t, env)
	testutil.AssertLogContains(t, logText,
		"Rules file not found, accepting all responses",
		"Loaded rules | count=0",
		"state=accepted",
	)
}

func TestRunCommand_ReflectScript(t *testing.T) {
	env, _ := setupCLI(t, runCmd)

	// First answer fails the rules; the revised prompt carries REVISED.
	testutil.WriteScript(t, env.Dir, "scripts/run_llm.sh",
		"input=$(cat)\ncase \"$input\" in *REVISED*) echo DONE ;; *) echo pending ;; esac\n")
	reflect := testutil.WriteScript(t, env.Dir, "scripts/reflect.sh", "cat\necho REVISED\n")
	content, err := os.ReadFile(env.ConfigPath)
	require.NoError(t, err)
	testutil.WriteTestFile(t, env.Dir, "config/environment.txt",
		string(content)+"REFLECT_SCRIPT="+reflect+"\n")

	require.NoError(t, runRun(runCmd, nil))

	testutil.AssertLogContains(t, readLog(t, env),
		"state=reflecting",
		"state=regenerating",
		"state=reevaluating",
		"state=accepted",
	)
}

func TestRunCommand_MissingConfig(t *testing.T) {
	setupCLI(t, runCmd)
	configPath = "/nonexistent/environment.txt"

	err := runRun(runCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestRunCommand_InvalidConfig(t *testing.T) {
	env, _ := setupCLI(t, runCmd)
	content, err := os.ReadFile(env.ConfigPath)
	require.NoError(t, err)
	testutil.WriteTestFile(t, env.Dir, "config/environment.txt",
		strings.Replace(string(content), "POLL_INTERVAL_SEC=1", "POLL_INTERVAL_SEC=soon", 1))

	err = runRun(runCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POLL_INTERVAL_SEC")
}

func TestTasksCommand_Table(t *testing.T) {
	_, buf := setupCLI(t, tasksCmd)

	require.NoError(t, runTasks(tasksCmd, nil))

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "T1")
	assert.Contains(t, out, "summarize")
	assert.Contains(t, out, "Review the scheduler loop")
	assert.Less(t, strings.Index(out, "T1"), strings.Index(out, "T2"), "document order")
}

func TestTasksCommand_YAML(t *testing.T) {
	_, buf := setupCLI(t, tasksCmd)
	tasksFormat = "yaml"

	require.NoError(t, runTasks(tasksCmd, nil))

	var got []task.Task
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, testutil.SampleTasks(), got)
}

func TestTasksCommand_Empty(t *testing.T) {
	env, buf := setupCLI(t, tasksCmd)
	testutil.WriteTestFile(t, env.Dir, "rules/tasks.pql", "no tasks yet\n")

	require.NoError(t, runTasks(tasksCmd, nil))
	assert.Contains(t, buf.String(), "No tasks found.")
}

func TestTasksCommand_UnknownFormat(t *testing.T) {
	setupCLI(t, tasksCmd)
	tasksFormat = "xml"

	err := runTasks(tasksCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestPromptCommand(t *testing.T) {
	_, buf := setupCLI(t, promptCmd)

	require.NoError(t, runPrompt(promptCmd, []string{"T2"}))
	assert.Equal(t, prompt.Render(testutil.SampleTasks()[1]), buf.String())
}

func TestPromptCommand_NotFound(t *testing.T) {
	setupCLI(t, promptCmd)

	err := runPrompt(promptCmd, []string{"T99"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task not found: T99")
}

func TestGateCommands(t *testing.T) {
	env, buf := setupCLI(t, gateStatusCmd, gateTripCmd, gateClearCmd)

	require.NoError(t, runGateStatus(gateStatusCmd, nil))
	assert.Contains(t, buf.String(), "Window:  1m0s")
	assert.Contains(t, buf.String(), "Status:  clear")

	buf.Reset()
	require.NoError(t, runGateTrip(gateTripCmd, nil))
	assert.Contains(t, buf.String(), "Timeout marker set for 1m0s.")
	_, err := os.Stat(env.TimeoutMarker)
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, runGateStatus(gateStatusCmd, nil))
	assert.Contains(t, buf.String(), "Status:  active")

	buf.Reset()
	require.NoError(t, runGateClear(gateClearCmd, nil))
	assert.Contains(t, buf.String(), "Timeout marker cleared.")
	_, err = os.Stat(env.TimeoutMarker)
	assert.True(t, os.IsNotExist(err))

	testutil.AssertLogContains(t, readLog(t, env),
		"Timeout marker updated.",
		"Timeout marker cleared.",
	)
}

func TestCheckCommand(t *testing.T) {
	env, buf := setupCLI(t, checkCmd)

	good := testutil.WriteTestFile(t, env.Dir, "responses/good.txt", "All DONE.\n")
	require.NoError(t, runCheck(checkCmd, []string{good}))
	assert.Contains(t, buf.String(), "accepted (3 rules)")

	buf.Reset()
	bad := testutil.WriteTestFile(t, env.Dir, "responses/bad.txt", "I'm sorry, I could not finish.\n")
	err := runCheck(checkCmd, []string{bad})
	assert.ErrorIs(t, err, errRejected)
	assert.Contains(t, buf.String(), "rejected")
	assert.Contains(t, buf.String(), "- reports-done")
	assert.Contains(t, buf.String(), "- no-apology")
}

func TestCheckCommand_Stdin(t *testing.T) {
	_, buf := setupCLI(t, checkCmd)
	checkCmd.SetIn(strings.NewReader("DONE"))
	t.Cleanup(func() { checkCmd.SetIn(nil) })

	require.NoError(t, runCheck(checkCmd, []string{"-"}))
	assert.Contains(t, buf.String(), "accepted")
}

func TestCheckCommand_MissingResponse(t *testing.T) {
	setupCLI(t, checkCmd)

	err := runCheck(checkCmd, []string{"/nonexistent/response.txt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read response")
}
