// Package tool runs external executables for the delegating checks.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/ludo-technologies/sdlcguard/domain"
)

// DefaultTimeout applies when an invocation sets none
const DefaultTimeout = 120 * time.Second

// ExecRunner implements domain.ExternalTool with os/exec
type ExecRunner struct {
	lookPath func(string) (string, error)
}

// NewExecRunner creates a runner that resolves tools on PATH
func NewExecRunner() *ExecRunner {
	return &ExecRunner{lookPath: exec.LookPath}
}

// Run executes inv. A non-zero exit code is reported in the result, not as
// an error.
func (r *ExecRunner) Run(ctx context.Context, inv domain.ToolInvocation) (*domain.ToolResult, error) {
	path, err := r.lookPath(inv.Name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", inv.Name, domain.ErrToolMissing)
	}

	timeout := inv.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = append(os.Environ(), inv.Env...)
	// Give the process a moment to exit after the kill signal
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	result := &domain.ToolResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return result, fmt.Errorf("%s after %s: %w", inv.Name, timeout, domain.ErrToolTimeout)
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return result, fmt.Errorf("failed to start %s: %w", inv.Name, runErr)
	}
	return result, nil
}

// Available reports whether name resolves on PATH
func (r *ExecRunner) Available(name string) bool {
	_, err := r.lookPath(name)
	return err == nil
}
