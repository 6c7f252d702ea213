package format

import (
	"strconv"
	"strings"
)

// Formatter is an ordered chain of steps followed by a terminal line-ending
// pass. Applying a Formatter is a pure function of the input text and the
// Formatter's configuration, so a single value can be shared by any number
// of goroutines.
type Formatter struct {
	Name            string
	Steps           []Step
	LineEnding      LineEnding
	TrailingNewline bool
}

// New builds a Formatter with the default platform line ending.
func New(name string, steps ...Step) *Formatter {
	return &Formatter{
		Name:       name,
		Steps:      append([]Step(nil), steps...),
		LineEnding: LineEndingPlatform,
	}
}

// Apply runs every step in order on text, feeding each step's output to the
// next, then applies the line-ending policy. Steps always see "\n"
// separators. If a step fails the whole application fails with a
// *errors.StepFailure; no partial result is returned.
func (f *Formatter) Apply(text string) (string, error) {
	sep := f.LineEnding.Separator(text)

	current := ToUnix(text)
	for _, step := range f.Steps {
		out, err := applyStep(step, current)
		if err != nil {
			return "", err
		}
		current = out
	}

	if f.TrailingNewline && current != "" && !strings.HasSuffix(current, "\n") {
		current += "\n"
	}

	return Convert(ToUnix(current), sep), nil
}

// Identity is a deterministic description of the chain's configuration,
// suitable as a cache or deduplication key.
func (f *Formatter) Identity() string {
	var b strings.Builder
	b.WriteString("line_ending=")
	b.WriteString(string(f.LineEnding))
	b.WriteString(";trailing_newline=")
	b.WriteString(strconv.FormatBool(f.TrailingNewline))
	for i, step := range f.Steps {
		b.WriteString(";")
		b.WriteString(strconv.Itoa(i))
		b.WriteString("=")
		b.WriteString(step.Identity())
	}
	return b.String()
}

// Equal reports whether two formatters produce identical output for every
// input. The name is not part of the comparison.
func (f *Formatter) Equal(other *Formatter) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.Identity() == other.Identity()
}

// StepNames lists the names of the chain's steps in order.
func (f *Formatter) StepNames() []string {
	names := make([]string, len(f.Steps))
	for i, step := range f.Steps {
		names[i] = step.Name()
	}
	return names
}
