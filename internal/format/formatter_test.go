package format

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	fmterrors "github.com/alexisbeaulieu97/fmtcell/pkg/errors"
)

func upper() Step {
	return NewInfallibleStep("upper", "upper", strings.ToUpper)
}

func suffix(s string) Step {
	return NewInfallibleStep("suffix", "suffix:"+s, func(text string) string { return text + s })
}

func failing(name string) Step {
	return NewStep(name, name, func(string) (string, error) {
		return "", errors.New("cannot parse")
	})
}

func TestFormatterAppliesStepsInOrder(t *testing.T) {
	t.Parallel()

	f := New("order", suffix("a"), upper(), suffix("b"))
	f.LineEnding = LineEndingUnix

	out, err := f.Apply("x")
	require.NoError(t, err)
	require.Equal(t, "XAb", out)
}

func TestFormatterWithoutStepsOnlyNormalises(t *testing.T) {
	t.Parallel()

	f := New("empty")
	f.LineEnding = LineEndingUnix

	out, err := f.Apply("a\r\nb\r\n")
	require.NoError(t, err)
	require.Equal(t, "a\nb\n", out)

	out, err = f.Apply("")
	require.NoError(t, err)
	require.Equal(t, "", out)
}

func TestFormatterFailureSurfacesStepName(t *testing.T) {
	t.Parallel()

	calls := 0
	counting := NewInfallibleStep("count", "count", func(text string) string {
		calls++
		return text
	})

	f := New("broken", upper(), failing("json"), counting)
	out, err := f.Apply("{")
	require.Error(t, err)
	require.Empty(t, out)
	require.Zero(t, calls, "steps after a failure must not run")

	var failure *fmterrors.StepFailure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, "json", failure.StepName)
	require.EqualError(t, failure.Cause, "cannot parse")
}

func TestFormatterRecoversPanickingStep(t *testing.T) {
	t.Parallel()

	boom := NewInfallibleStep("boom", "boom", func(string) string { panic("index out of range") })
	f := New("panics", boom)

	_, err := f.Apply("text")

	var failure *fmterrors.StepFailure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, "boom", failure.StepName)
	require.Contains(t, failure.Error(), "index out of range")
}

func TestFormatterDoesNotDoubleWrapStepFailures(t *testing.T) {
	t.Parallel()

	inner := NewStep("outer", "outer", func(string) (string, error) {
		return "", fmterrors.NewStepFailure("inner", errors.New("bad"))
	})

	_, err := New("nested", inner).Apply("x")

	var failure *fmterrors.StepFailure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, "inner", failure.StepName)
}

func TestFormatterStepsSeeUnixLineEndings(t *testing.T) {
	t.Parallel()

	var seen string
	spy := NewInfallibleStep("spy", "spy", func(text string) string {
		seen = text
		return text
	})

	f := New("spy", spy)
	f.LineEnding = LineEndingWindows

	out, err := f.Apply("a\r\nb\r\n")
	require.NoError(t, err)
	require.Equal(t, "a\nb\n", seen)
	require.Equal(t, "a\r\nb\r\n", out)
}

func TestFormatterLineEndingPolicies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		policy LineEnding
		input  string
		want   string
	}{
		{name: "unix", policy: LineEndingUnix, input: "a\r\nb", want: "a\nb"},
		{name: "windows", policy: LineEndingWindows, input: "a\nb", want: "a\r\nb"},
		{name: "preserve crlf", policy: LineEndingPreserve, input: "a\r\nb\nc", want: "a\r\nb\r\nc"},
		{name: "preserve lf", policy: LineEndingPreserve, input: "a\nb\r\nc", want: "a\nb\nc"},
		{name: "preserve without separator", policy: LineEndingPreserve, input: "abc", want: "abc"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := New(tt.name)
			f.LineEnding = tt.policy
			out, err := f.Apply(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.want, out)
		})
	}
}

func TestFormatterTrailingNewline(t *testing.T) {
	t.Parallel()

	f := New("newline")
	f.LineEnding = LineEndingWindows
	f.TrailingNewline = true

	out, err := f.Apply("a\nb")
	require.NoError(t, err)
	require.Equal(t, "a\r\nb\r\n", out)

	out, err = f.Apply("a\n")
	require.NoError(t, err)
	require.Equal(t, "a\r\n", out)

	out, err = f.Apply("")
	require.NoError(t, err)
	require.Equal(t, "", out, "empty text stays empty")
}

func TestFormatterIsIdempotentForIdempotentSteps(t *testing.T) {
	t.Parallel()

	f := New("idempotent", upper())
	f.LineEnding = LineEndingUnix
	f.TrailingNewline = true

	once, err := f.Apply("hello\r\nworld")
	require.NoError(t, err)
	twice, err := f.Apply(once)
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestFormatterIdentity(t *testing.T) {
	t.Parallel()

	a := New("a", upper(), suffix("!"))
	b := New("b", upper(), suffix("!"))
	c := New("c", suffix("!"), upper())
	d := New("d", upper(), suffix("?"))

	require.True(t, a.Equal(b), "names do not participate in identity")
	require.False(t, a.Equal(c), "order is significant")
	require.False(t, a.Equal(d))

	b.TrailingNewline = true
	require.False(t, a.Equal(b))

	var nilFormatter *Formatter
	require.True(t, nilFormatter.Equal(nil))
	require.False(t, a.Equal(nil))
	require.Equal(t, []string{"upper", "suffix"}, a.StepNames())
}

func TestParseLineEnding(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]LineEnding{
		"":         LineEndingPlatform,
		"platform": LineEndingPlatform,
		"UNIX":     LineEndingUnix,
		"windows":  LineEndingWindows,
		"preserve": LineEndingPreserve,
	} {
		got, err := ParseLineEnding(input)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseLineEnding("mac")
	require.Error(t, err)
}

func TestToUnixHandlesLoneCarriageReturns(t *testing.T) {
	t.Parallel()

	require.Equal(t, "a\nb\nc", ToUnix("a\rb\r\nc"))
	require.Equal(t, "plain", ToUnix("plain"))
}
