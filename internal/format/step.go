package format

import (
	"errors"
	"fmt"

	fmterrors "github.com/alexisbeaulieu97/fmtcell/pkg/errors"
)

// Step is a single named text transform.
//
// Implementations must be pure: the output of Apply may depend only on the
// input text and the step's own configuration. Internal memoisation is fine as
// long as it cannot change the result for a given input. Steps are shared
// across worker goroutines, so Apply must be safe for concurrent use.
type Step interface {
	// Name is the short, human-facing step name used in failures and logs.
	Name() string

	// Identity is a deterministic serialisation of the step's name and
	// configuration. Two steps with equal identities are interchangeable.
	Identity() string

	// Apply transforms text. A returned error is reported to callers as a
	// *errors.StepFailure carrying this step's name.
	Apply(text string) (string, error)
}

// Func is the bare transform signature wrapped by NewStep.
type Func func(text string) (string, error)

type funcStep struct {
	name     string
	identity string
	fn       Func
}

// NewStep wraps fn as a Step. identity should encode every configuration value
// that can influence fn's output; when empty the name is used.
func NewStep(name, identity string, fn Func) Step {
	if identity == "" {
		identity = name
	}
	return &funcStep{name: name, identity: identity, fn: fn}
}

// NewInfallibleStep wraps a transform that cannot fail.
func NewInfallibleStep(name, identity string, fn func(string) string) Step {
	return NewStep(name, identity, func(text string) (string, error) {
		return fn(text), nil
	})
}

func (s *funcStep) Name() string     { return s.name }
func (s *funcStep) Identity() string { return s.identity }

func (s *funcStep) Apply(text string) (string, error) {
	return s.fn(text)
}

// applyStep runs one step, converting both returned errors and panics into a
// StepFailure attributed to that step.
func applyStep(step Step, text string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmterrors.NewStepFailure(step.Name(), fmt.Errorf("panic: %v", r))
		}
	}()

	out, err = step.Apply(text)
	if err != nil {
		var failure *fmterrors.StepFailure
		if errors.As(err, &failure) {
			return "", err
		}
		return "", fmterrors.NewStepFailure(step.Name(), err)
	}
	return out, nil
}
