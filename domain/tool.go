package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrToolMissing means the executable was not found on PATH
	ErrToolMissing = errors.New("external tool not installed")

	// ErrToolTimeout means the executable exceeded its time budget
	ErrToolTimeout = errors.New("external tool timed out")
)

// ToolInvocation describes one external process run
type ToolInvocation struct {
	Name    string
	Args    []string
	Dir     string
	Timeout time.Duration
	Env     []string
}

// ToolResult captures the outcome of a finished process
type ToolResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Succeeded reports a zero exit code
func (r *ToolResult) Succeeded() bool {
	return r.ExitCode == 0
}

// Output joins stdout and stderr for diagnostics
func (r *ToolResult) Output() string {
	switch {
	case r.Stdout == "":
		return r.Stderr
	case r.Stderr == "":
		return r.Stdout
	}
	return r.Stdout + "\n" + r.Stderr
}

// ExternalTool runs external executables. A non-zero exit is not an error;
// errors are reserved for ErrToolMissing, ErrToolTimeout and start failures.
type ExternalTool interface {
	Run(ctx context.Context, inv ToolInvocation) (*ToolResult, error)
}
