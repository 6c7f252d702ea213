package main

import (
	"errors"

	fmterrors "github.com/alexisbeaulieu97/fmtcell/pkg/errors"
)

const (
	exitOK          = 0
	exitViolations  = 1
	exitConfigError = 2
	exitRuntime     = 3
)

// exitError carries a process exit code. A nil err means the command already
// reported everything it had to say.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	var parseErr *fmterrors.ParseError
	var validationErr *fmterrors.ValidationError
	if errors.As(err, &parseErr) || errors.As(err, &validationErr) {
		return exitConfigError
	}
	return exitRuntime
}
