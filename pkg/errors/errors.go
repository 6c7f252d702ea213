package errors

import (
	"fmt"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StepFailure reports that a single formatter step could not transform its input.
// It travels unchanged from the step through the chain to the caller.
type StepFailure struct {
	StepName string
	Cause    error
}

// NewStepFailure constructs a StepFailure for the named step.
func NewStepFailure(stepName string, cause error) error {
	return &StepFailure{StepName: stepName, Cause: cause}
}

func (e *StepFailure) Error() string {
	if e == nil {
		return ""
	}
	if e.StepName != "" {
		return fmt.Sprintf("step %s failed: %v", e.StepName, e.Cause)
	}
	return fmt.Sprintf("step failed: %v", e.Cause)
}

// Unwrap exposes the root cause.
func (e *StepFailure) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// FileError indicates an I/O failure while reading or writing a target file.
type FileError struct {
	Path string
	Op   string
	Err  error
}

// NewFileError constructs a FileError for the given path and operation.
func NewFileError(path, op string, err error) error {
	return &FileError{Path: path, Op: op, Err: err}
}

func (e *FileError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("file error [%s %s]: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("file error [%s]: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying error.
func (e *FileError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
