//go:build e2e

// cli_harness_test.go provides a test harness for E2E testing of the quanta
// binary.
//
// The CLIHarness builds cmd/quanta once per test and runs it against an
// isolated environment created by testutil.SetupTestDir.
package integration

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thruflo/quanta/internal/testutil"
)

// CLIHarness manages a quanta binary for E2E testing.
type CLIHarness struct {
	// BinaryPath is the path to the built quanta binary.
	BinaryPath string

	// Env describes the test environment the binary is pointed at.
	Env *testutil.TestEnv

	// EnvVars are added to the process environment of every command.
	EnvVars map[string]string

	t *testing.T
}

// CLIResult contains the output from a CLI command execution.
type CLIResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Success returns true if the command completed with exit code 0.
func (r *CLIResult) Success() bool {
	return r.ExitCode == 0 && r.Err == nil
}

// NewCLIHarness builds the quanta binary and creates a test environment.
func NewCLIHarness(t *testing.T) *CLIHarness {
	t.Helper()

	projectRoot := findProjectRoot(t)
	require.NotEmpty(t, projectRoot, "could not find project root (directory containing go.mod)")

	binaryPath := filepath.Join(t.TempDir(), "quanta")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/quanta")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build quanta binary: %s", output)

	return &CLIHarness{
		BinaryPath: binaryPath,
		Env:        testutil.SetupTestDir(t),
		EnvVars:    make(map[string]string),
		t:          t,
	}
}

// SetEnv sets an environment variable for subsequent command executions.
func (h *CLIHarness) SetEnv(key, value string) {
	h.EnvVars[key] = value
}

// Run executes a quanta command bounded by testutil.ScriptTimeout. The
// --config flag is prepended so commands use the harness environment.
func (h *CLIHarness) Run(args ...string) *CLIResult {
	h.t.Helper()

	ctx, cancel := testutil.ScriptExecutionContext(h.t)
	defer cancel()
	return h.RunWithContext(ctx, args...)
}

// RunWithContext executes a quanta command with the given context.
func (h *CLIHarness) RunWithContext(ctx context.Context, args ...string) *CLIResult {
	h.t.Helper()
	return h.wait(h.start(ctx, args...))
}

// Start launches a long-running command, such as run, and returns it so
// the caller can signal it. Call Wait to collect the result.
func (h *CLIHarness) Start(ctx context.Context, args ...string) *RunningCommand {
	h.t.Helper()
	return h.start(ctx, args...)
}

// RunningCommand is a started quanta process.
type RunningCommand struct {
	cmd    *exec.Cmd
	stdout bytes.Buffer
	stderr bytes.Buffer
}

// Signal sends sig to the process.
func (r *RunningCommand) Signal(sig os.Signal) error {
	return r.cmd.Process.Signal(sig)
}

// Wait waits for the process to exit.
func (h *CLIHarness) Wait(r *RunningCommand) *CLIResult {
	h.t.Helper()
	return h.wait(r)
}

func (h *CLIHarness) start(ctx context.Context, args ...string) *RunningCommand {
	r := &RunningCommand{}
	r.cmd = exec.CommandContext(ctx, h.BinaryPath, append([]string{"--config", h.Env.ConfigPath}, args...)...)
	r.cmd.Dir = h.Env.Dir
	r.cmd.Env = h.buildEnv()
	r.cmd.Stdout = &r.stdout
	r.cmd.Stderr = &r.stderr
	r.cmd.WaitDelay = time.Second
	require.NoError(h.t, r.cmd.Start())
	return r
}

func (h *CLIHarness) wait(r *RunningCommand) *CLIResult {
	err := r.cmd.Wait()
	result := &CLIResult{
		Stdout: r.stdout.String(),
		Stderr: r.stderr.String(),
	}
	if err != nil {
		result.Err = err
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
	}
	return result
}

// buildEnv returns the current environment plus the harness variables.
func (h *CLIHarness) buildEnv() []string {
	env := os.Environ()
	for k, v := range h.EnvVars {
		env = append(env, k+"="+v)
	}
	return env
}

// ReadLog returns the scheduler log written so far.
func (h *CLIHarness) ReadLog() string {
	h.t.Helper()
	data, err := os.ReadFile(h.Env.LogFile)
	require.NoError(h.t, err)
	return string(data)
}

// RequireSuccess fails the test if the command result indicates failure.
func (h *CLIHarness) RequireSuccess(result *CLIResult, msg string) {
	h.t.Helper()
	if !result.Success() {
		h.t.Fatalf("%s: exit=%d err=%v\nstdout: %s\nstderr: %s",
			msg, result.ExitCode, result.Err, result.Stdout, result.Stderr)
	}
}

// RequireFailure fails the test if the command result indicates success.
func (h *CLIHarness) RequireFailure(result *CLIResult, msg string) {
	h.t.Helper()
	if result.Success() {
		h.t.Fatalf("%s: command succeeded unexpectedly\nstdout: %s\nstderr: %s",
			msg, result.Stdout, result.Stderr)
	}
}

// findProjectRoot walks up from the current directory to the directory
// holding go.mod.
func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err, "failed to get working directory")

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
