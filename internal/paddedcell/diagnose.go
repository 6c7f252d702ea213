// Package paddedcell decides whether repeatedly applying a formatter chain to
// a text settles on a fixed point, oscillates, or never settles.
//
// A naive check compares Chain(original) with original. That misreports
// chains that need two passes to settle, and an auto-fixer built on it can
// leave a file in a state the next run still considers dirty. Diagnose
// instead iterates the chain from the original, recording every state it
// produces, until the output stops changing, repeats an earlier state, a step
// fails, or the iteration bound is reached.
package paddedcell

import (
	"fmt"
)

// DefaultMaxIterations bounds how many times Diagnose applies a chain.
const DefaultMaxIterations = 10

// Applier is the capability Diagnose needs from a formatter chain.
type Applier interface {
	Apply(text string) (string, error)
}

// ApplierFunc adapts an ordinary function to Applier.
type ApplierFunc func(text string) (string, error)

// Apply calls f(text).
func (f ApplierFunc) Apply(text string) (string, error) { return f(text) }

type options struct {
	maxIterations int
}

// Option customises a diagnosis.
type Option func(*options)

// WithMaxIterations overrides DefaultMaxIterations. Values below 1 are
// ignored.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// Diagnose classifies original against chain.
//
// The returned error is non-nil only when the very first application of the
// chain to original fails: there is no derived state yet, so the failure is
// the file's own problem rather than an unstable chain. A failure on any
// later state is reported as a Diverged result with ReasonStepFailed.
func Diagnose(chain Applier, original string, opts ...Option) (Result, error) {
	cfg := options{maxIterations: DefaultMaxIterations}
	for _, opt := range opts {
		opt(&cfg)
	}

	first, err := chain.Apply(original)
	if err != nil {
		return Result{}, err
	}
	if first == original {
		return Result{kind: Clean, iterations: 1}, nil
	}

	trace := newTrace(cfg.maxIterations)
	current := original
	for iteration := 1; iteration <= cfg.maxIterations; iteration++ {
		next := first
		if iteration > 1 {
			next, err = chain.Apply(current)
			if err != nil {
				return Result{
					kind:       Diverged,
					reason:     ReasonStepFailed,
					err:        fmt.Errorf("iteration %d: %w", iteration, err),
					trace:      trace.snapshot(),
					iterations: iteration,
				}, nil
			}
		}

		if next == current {
			return Result{
				kind:       Converged,
				value:      next,
				trace:      trace.snapshot(),
				iterations: iteration,
			}, nil
		}

		if idx := trace.indexOf(next); idx >= 0 {
			states := trace.snapshot()
			return Result{
				kind:       Cycle,
				members:    append([]string(nil), states[idx:]...),
				trace:      states,
				iterations: iteration,
			}, nil
		}

		trace.push(next)
		current = next
	}

	return Result{
		kind:       Diverged,
		reason:     ReasonExceededMaxIterations,
		trace:      trace.snapshot(),
		iterations: cfg.maxIterations,
	}, nil
}

// trace is a fixed-capacity record of the states produced while iterating.
// It is allocated once per diagnosis and can never grow past its capacity.
type trace struct {
	states []string
	n      int
}

func newTrace(capacity int) *trace {
	return &trace{states: make([]string, capacity)}
}

func (t *trace) push(state string) {
	if t.n == len(t.states) {
		panic("paddedcell: trace capacity exceeded")
	}
	t.states[t.n] = state
	t.n++
}

func (t *trace) indexOf(state string) int {
	for i := 0; i < t.n; i++ {
		if t.states[i] == state {
			return i
		}
	}
	return -1
}

func (t *trace) snapshot() []string {
	return append([]string(nil), t.states[:t.n]...)
}
