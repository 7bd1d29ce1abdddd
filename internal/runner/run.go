package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// Run executes command by tokenizing it on whitespace -- never through a
// shell -- and enforces timeout as a wall-clock limit. It never returns a
// non-nil error for a normal exit or a timeout; those are reported in the
// Result. Only an unexpected failure to start or wait on the process
// surfaces as *ExecutionError.
func Run(ctx context.Context, command string, timeout time.Duration) (Result, error) {
	fields := strings.Fields(command)
	started := time.Now().UTC()

	if len(fields) == 0 {
		return Result{}, &ExecutionError{Command: command, Err: errors.New("empty command")}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, fields[0], fields[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	finished := time.Now().UTC()

	if runCtx.Err() == context.DeadlineExceeded {
		return Result{
			Command:    command,
			StartedAt:  started,
			FinishedAt: finished,
			ReturnCode: nil,
			Stdout:     "",
			Stderr:     "Execution timed out",
			Timeout:    true,
		}, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			return Result{
				Command:    command,
				StartedAt:  started,
				FinishedAt: finished,
				ReturnCode: &code,
				Stdout:     strings.TrimSpace(stdout.String()),
				Stderr:     strings.TrimSpace(stderr.String()),
				Timeout:    false,
			}, nil
		}
		return Result{}, &ExecutionError{Command: command, Err: err}
	}

	code := 0
	return Result{
		Command:    command,
		StartedAt:  started,
		FinishedAt: finished,
		ReturnCode: &code,
		Stdout:     strings.TrimSpace(stdout.String()),
		Stderr:     strings.TrimSpace(stderr.String()),
		Timeout:    false,
	}, nil
}
