package domain

import (
	"io"
	"strings"
)

// OutputFormat is a report rendering format
type OutputFormat string

const (
	OutputFormatConsole  OutputFormat = "console"
	OutputFormatJSON     OutputFormat = "json"
	OutputFormatMarkdown OutputFormat = "markdown"
)

// ParseOutputFormat converts a flag value into an OutputFormat
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "console", "text", "":
		return OutputFormatConsole, nil
	case "json":
		return OutputFormatJSON, nil
	case "markdown", "md":
		return OutputFormatMarkdown, nil
	}
	return "", NewUnsupportedFormatError(s)
}

// ResultReporter renders a ValidationRun
type ResultReporter interface {
	Render(run *ValidationRun, format OutputFormat) (string, error)
	Write(run *ValidationRun, format OutputFormat, writer io.Writer) error
}

// ProgressManager manages progress display for long runs
type ProgressManager interface {
	StartTask(description string, total int) TaskProgress
	IsInteractive() bool
	Close()
}

// TaskProgress tracks a single task
type TaskProgress interface {
	Increment(n int)
	Describe(description string)
	Complete()
}
