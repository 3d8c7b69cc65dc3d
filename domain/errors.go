package domain

import (
	"errors"
	"fmt"
)

// Error codes
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeNotARepository    = "NOT_A_REPOSITORY"
	ErrCodeFileNotFound      = "FILE_NOT_FOUND"
	ErrCodeConfigError       = "CONFIG_ERROR"
	ErrCodeCheckExecution    = "CHECK_EXECUTION_ERROR"
	ErrCodeOutputError       = "OUTPUT_ERROR"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
)

// ErrNotARepository is returned when the root is not inside a git work tree
var ErrNotARepository = errors.New("not a git repository")

// DomainError carries a stable code alongside the message
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// NewDomainError creates a DomainError
func NewDomainError(code, message string, cause error) *DomainError {
	return &DomainError{Code: code, Message: message, Cause: cause}
}

// NewInvalidInputError creates an invalid input error
func NewInvalidInputError(message string, cause error) error {
	return NewDomainError(ErrCodeInvalidInput, message, cause)
}

// NewNotARepositoryError wraps ErrNotARepository for path
func NewNotARepositoryError(path string, cause error) error {
	if cause == nil {
		cause = ErrNotARepository
	} else {
		cause = fmt.Errorf("%w: %v", ErrNotARepository, cause)
	}
	return NewDomainError(ErrCodeNotARepository, fmt.Sprintf("cannot validate %s", path), cause)
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string, cause error) error {
	return NewDomainError(ErrCodeFileNotFound, fmt.Sprintf("path not found: %s", path), cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) error {
	return NewDomainError(ErrCodeConfigError, message, cause)
}

// NewCheckExecutionError wraps an unexpected failure inside a check
func NewCheckExecutionError(id CheckID, cause error) error {
	return NewDomainError(ErrCodeCheckExecution, fmt.Sprintf("check %s crashed", id), cause)
}

// NewOutputError creates an output error
func NewOutputError(message string, cause error) error {
	return NewDomainError(ErrCodeOutputError, message, cause)
}

// NewUnsupportedFormatError creates an unsupported format error
func NewUnsupportedFormatError(format string) error {
	return NewDomainError(ErrCodeUnsupportedFormat, fmt.Sprintf("unsupported output format: %s", format), nil)
}

// ErrorCode extracts the code of the first DomainError in the chain
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsHardError reports whether err must abort the whole run
func IsHardError(err error) bool {
	switch ErrorCode(err) {
	case ErrCodeNotARepository, ErrCodeFileNotFound, ErrCodeInvalidInput:
		return true
	}
	return errors.Is(err, ErrNotARepository)
}
