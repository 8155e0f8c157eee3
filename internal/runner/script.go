// Package runner is the boundary to the external scripts that do the real
// generation and reflection work.
package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/thruflo/quanta/internal/logging"
)

// ErrScriptFailed is returned when a script exits with a non-zero status.
var ErrScriptFailed = errors.New("script failed")

// waitDelay bounds how long Run waits for output pipes after the script
// is killed. Children of the script may hold them open.
const waitDelay = time.Second

// Result is the outcome of one script invocation.
type Result struct {
	ExitCode int
	Stdout   string
}

// Script runs an executable through a shell.
type Script struct {
	Shell  string // defaults to bash
	Path   string
	Dir    string // working directory, empty for the current one
	Logger *logging.Logger
}

// Run executes the script with stdin attached and returns its stdout. A
// non-zero exit is reported both in the Result and as ErrScriptFailed.
// Stderr lines are forwarded to the logger at debug level.
func (s *Script) Run(ctx context.Context, stdin io.Reader, args ...string) (Result, error) {
	if s.Path == "" {
		return Result{}, fmt.Errorf("no script specified")
	}

	shell := s.Shell
	if shell == "" {
		shell = "bash"
	}
	log := s.Logger
	if log == nil {
		log = logging.Default()
	}

	cmd := exec.CommandContext(ctx, shell, append([]string{s.Path}, args...)...)
	cmd.Dir = s.Dir
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("failed to start %s: %w", s.Path, err)
	}

	waitErr := cmd.Wait()

	scanner := bufio.NewScanner(&stderr)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		log.Debug("Script stderr", "script", s.Path, "line", scanner.Text())
	}

	res := Result{Stdout: stdout.String()}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, fmt.Errorf("%w: %s exited with code %d", ErrScriptFailed, s.Path, res.ExitCode)
		}
		return res, fmt.Errorf("%s failed: %w", s.Path, waitErr)
	}
	return res, nil
}

// Generator feeds a prompt on stdin to a generation script and returns
// its trimmed stdout.
type Generator struct {
	Script *Script
}

// Generate runs the generation script.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	res, err := g.Script.Run(ctx, strings.NewReader(prompt))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// ReflectSeparator divides the prompt from the rejected response on a
// reflection script's stdin.
const ReflectSeparator = "\n---\n"

// ScriptReflector asks a reflection script for a revised prompt.
type ScriptReflector struct {
	Script *Script
}

// Reflect runs the reflection script. Empty output is an error.
func (r *ScriptReflector) Reflect(ctx context.Context, prompt, response string) (string, error) {
	res, err := r.Script.Run(ctx, strings.NewReader(prompt+ReflectSeparator+response))
	if err != nil {
		return "", err
	}
	revised := strings.TrimSpace(res.Stdout)
	if revised == "" {
		return "", fmt.Errorf("%s produced no revised prompt", r.Script.Path)
	}
	return revised, nil
}
