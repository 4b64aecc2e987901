package domain

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies a fatal pipeline failure. Each category maps to
// a distinct process exit status so operators can tell failure modes apart
// from the exit code alone.
type ErrorCategory string

const (
	CategoryDirectory    ErrorCategory = "DIRECTORY"
	CategoryPolicyGap    ErrorCategory = "POLICY_GAP"
	CategoryIncompatible ErrorCategory = "INCOMPATIBLE_REQUEST"
	CategoryResource     ErrorCategory = "RESOURCE"
	CategoryExhaustion   ErrorCategory = "ID_EXHAUSTION"
	CategoryUnmapped     ErrorCategory = "UNMAPPED_SAMPLE"
	CategoryBadFilename  ErrorCategory = "BAD_FILENAME"
	CategoryChecksum     ErrorCategory = "CHECKSUM"
)

// ExitCode returns the process exit status for the category.
func (c ErrorCategory) ExitCode() int {
	switch c {
	case CategoryDirectory:
		return 1
	case CategoryPolicyGap:
		return 2
	case CategoryIncompatible:
		return 3
	case CategoryResource:
		return 4
	case CategoryExhaustion:
		return 5
	case CategoryUnmapped:
		return 6
	case CategoryBadFilename:
		return 7
	case CategoryChecksum:
		return 8
	default:
		return 1
	}
}

// PipelineError is a fatal error carrying its failure category. All fatal
// conditions in the pipeline surface as a PipelineError so the entry point
// can map them to exit statuses.
type PipelineError struct {
	Category ErrorCategory
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewError creates a PipelineError in the given category.
func NewError(category ErrorCategory, format string, args ...any) *PipelineError {
	return &PipelineError{Category: category, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a PipelineError wrapping an underlying cause.
func WrapError(category ErrorCategory, err error, format string, args ...any) *PipelineError {
	return &PipelineError{Category: category, Message: fmt.Sprintf(format, args...), Err: err}
}

// ExitCode returns the exit status for an error: the category's code for a
// PipelineError, 1 for anything else, 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Category.ExitCode()
	}
	return 1
}
