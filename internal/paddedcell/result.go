package paddedcell

import (
	"errors"
	"fmt"
	"slices"
)

// Kind identifies which outcome a Result carries.
type Kind int

const (
	// Clean means applying the chain once leaves the original unchanged.
	Clean Kind = iota
	// Converged means repeated application reached a fixed point that differs
	// from the original.
	Converged
	// Cycle means repeated application oscillates among two or more states.
	Cycle
	// Diverged means neither a fixed point nor a cycle was found, or a step
	// failed on a derived state.
	Diverged
)

func (k Kind) String() string {
	switch k {
	case Clean:
		return "clean"
	case Converged:
		return "converged"
	case Cycle:
		return "cycle"
	case Diverged:
		return "diverged"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Slug is the short form used to name debug dump artefacts.
func (k Kind) Slug() string {
	switch k {
	case Converged:
		return "converge"
	case Diverged:
		return "diverge"
	default:
		return k.String()
	}
}

// Reason distinguishes the two ways a diagnosis can diverge.
type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonStepFailed            Reason = "step failed"
	ReasonExceededMaxIterations Reason = "exceeded max iterations"
)

// Violation classifies a Result for read-only verification.
type Violation int

const (
	// NoViolation: the file is already formatted.
	NoViolation Violation = iota
	// Fixable: the file is unformatted and apply can fix it.
	Fixable
	// Unresolved: the formatter chain is unstable on this input.
	Unresolved
)

func (v Violation) String() string {
	switch v {
	case NoViolation:
		return "none"
	case Fixable:
		return "fixable"
	case Unresolved:
		return "unresolved"
	default:
		return fmt.Sprintf("violation(%d)", int(v))
	}
}

// Result is the immutable outcome of diagnosing one text against one chain.
// Exactly one of its variants is populated, selected by Kind.
type Result struct {
	kind       Kind
	value      string
	members    []string
	reason     Reason
	err        error
	trace      []string
	iterations int
}

// KnownClean is the result for content already known to be clean, for
// instance from an earlier run. Its iteration count is zero since the chain
// was not applied.
func KnownClean() Result { return Result{kind: Clean} }

// Kind returns the outcome variant.
func (r Result) Kind() Kind { return r.kind }

// IsClean reports whether the chain agreed with the original on the first pass.
func (r Result) IsClean() bool { return r.kind == Clean }

// Value returns the fixed point of a Converged result.
func (r Result) Value() (string, bool) {
	if r.kind != Converged {
		return "", false
	}
	return r.value, true
}

// Members returns a copy of the cycle states; the first element is the state
// that was seen again.
func (r Result) Members() []string {
	if r.kind != Cycle {
		return nil
	}
	return append([]string(nil), r.members...)
}

// Reason returns why a Diverged result diverged.
func (r Result) Reason() Reason { return r.reason }

// Err returns the step failure that ended a Diverged(step failed) diagnosis.
func (r Result) Err() error { return r.err }

// Trace returns a copy of every state produced after the original, in order.
func (r Result) Trace() []string {
	return append([]string(nil), r.trace...)
}

// Iterations is the number of chain applications the diagnosis made.
func (r Result) Iterations() int { return r.iterations }

// Canonical returns the content the auto-fixer should write. Converged yields
// its fixed point, Cycle yields its first member. Clean and Diverged yield
// nothing: there is nothing to write, or nothing safe to write.
func (r Result) Canonical() (string, bool) {
	switch r.kind {
	case Converged:
		return r.value, true
	case Cycle:
		if len(r.members) == 0 {
			return "", false
		}
		return r.members[0], true
	default:
		return "", false
	}
}

// Violation classifies the result for verification.
func (r Result) Violation() Violation {
	switch r.kind {
	case Clean:
		return NoViolation
	case Converged:
		return Fixable
	default:
		return Unresolved
	}
}

// Equal reports whether two results carry the same variant and payload.
// Traces and iteration counts are compared too, since diagnosis is
// deterministic.
func (r Result) Equal(other Result) bool {
	if r.kind != other.kind || r.value != other.value || r.reason != other.reason || r.iterations != other.iterations {
		return false
	}
	if (r.err == nil) != (other.err == nil) {
		return false
	}
	if r.err != nil && r.err.Error() != other.err.Error() {
		return false
	}
	return slices.Equal(r.members, other.members) && slices.Equal(r.trace, other.trace)
}

func (r Result) String() string {
	switch r.kind {
	case Converged:
		return fmt.Sprintf("converged after %d iterations", r.iterations)
	case Cycle:
		return fmt.Sprintf("cycle of %d states", len(r.members))
	case Diverged:
		if r.err != nil {
			return fmt.Sprintf("diverged (%s): %v", r.reason, r.err)
		}
		return fmt.Sprintf("diverged (%s after %d iterations)", r.reason, r.iterations)
	default:
		return r.kind.String()
	}
}

// ErrDiverged is matched by errors.Is against the error returned by AsError
// for a Diverged result.
var ErrDiverged = errors.New("formatter chain did not converge")

// ErrCycle is matched by errors.Is against the error returned by AsError for
// a Cycle result.
var ErrCycle = errors.New("formatter chain oscillates")

// AsError returns a descriptive error for unresolved outcomes and nil
// otherwise.
func (r Result) AsError() error {
	switch r.kind {
	case Cycle:
		return fmt.Errorf("%w between %d states", ErrCycle, len(r.members))
	case Diverged:
		if r.err != nil {
			return fmt.Errorf("%w: %s: %w", ErrDiverged, r.reason, r.err)
		}
		return fmt.Errorf("%w: %s (%d)", ErrDiverged, r.reason, r.iterations)
	default:
		return nil
	}
}
