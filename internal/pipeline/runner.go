// Package pipeline drives a claimed task to a terminal outcome: clone,
// branch, run the code-generation tool, commit, push, open a PR, and report
// back through the claim coordinator exactly once.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Spec describes one external command invocation.
type Spec struct {
	Name    string
	Args    []string
	Dir     string
	Timeout time.Duration
	Stdin   string
}

// Result captures the observable outcome of a command. The pipeline's
// branching depends only on ExitCode, TimedOut, and the output text.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

// Ok reports whether the command completed with exit code zero.
func (r Result) Ok() bool { return r.ExitCode == 0 && !r.TimedOut }

// FailureText summarizes a failed result for last_error.
func (r Result) FailureText() string {
	if r.TimedOut {
		return "command timed out"
	}
	text := strings.TrimSpace(r.Stderr)
	if text == "" {
		text = strings.TrimSpace(r.Stdout)
	}
	if text == "" {
		text = fmt.Sprintf("exit code %d", r.ExitCode)
	}
	return text
}

// CommandRunner is the injectable shell-out capability. A Run error means
// the command could not be executed at all (missing binary, bad dir);
// non-zero exits and timeouts come back in the Result instead.
type CommandRunner interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}

// ExecRunner runs commands with exec.CommandContext. On timeout or
// cancellation the subprocess gets SIGTERM, then SIGKILL after WaitDelay.
type ExecRunner struct {
	// WaitDelay is the grace period between SIGTERM and SIGKILL.
	WaitDelay time.Duration
}

// NewExecRunner returns an ExecRunner with a 10s kill grace period.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{WaitDelay: 10 * time.Second}
}

// Run executes the command described by spec.
func (e *ExecRunner) Run(ctx context.Context, spec Spec) (Result, error) {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}
	if spec.Stdin != "" {
		cmd.Stdin = strings.NewReader(spec.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = e.WaitDelay

	err := cmd.Run()

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
	}

	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if res.TimedOut {
		// Killed by the timeout before producing an exit status.
		res.ExitCode = -1
		return res, nil
	}
	return res, fmt.Errorf("pipeline: run %s: %w", spec.Name, err)
}
