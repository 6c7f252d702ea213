package steps

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alexisbeaulieu97/fmtcell/internal/format"
	fmterrors "github.com/alexisbeaulieu97/fmtcell/pkg/errors"
)

func init() {
	mustRegister(Definition{
		Type:        "trim_trailing_whitespace",
		Description: "Removes spaces and tabs at the end of every line.",
		Options:     struct{}{},
		Build:       buildTrimTrailingWhitespace,
	})
	mustRegister(Definition{
		Type:        "end_with_newline",
		Description: "Strips trailing blank space at the end of the file and ends it with exactly one newline.",
		Options:     struct{}{},
		Build:       buildEndWithNewline,
	})
	mustRegister(Definition{
		Type:        "indent",
		Description: "Rewrites leading indentation to tabs or spaces.",
		Options:     IndentOptions{},
		Build:       buildIndent,
	})
	mustRegister(Definition{
		Type:        "replace",
		Description: "Replaces every literal occurrence of find with replace.",
		Options:     ReplaceOptions{},
		Build:       buildReplace,
	})
	mustRegister(Definition{
		Type:        "replace_regex",
		Description: "Replaces every match of a regular expression; $1 style references are expanded.",
		Options:     ReplaceRegexOptions{},
		Build:       buildReplaceRegex,
	})
}

func buildTrimTrailingWhitespace(raw map[string]any) (format.Step, error) {
	var opts struct{}
	if err := decodeOptions("trim_trailing_whitespace", raw, &opts); err != nil {
		return nil, err
	}
	return format.NewInfallibleStep("trim_trailing_whitespace", "", trimTrailingWhitespace), nil
}

func trimTrailingWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

func buildEndWithNewline(raw map[string]any) (format.Step, error) {
	var opts struct{}
	if err := decodeOptions("end_with_newline", raw, &opts); err != nil {
		return nil, err
	}
	return format.NewInfallibleStep("end_with_newline", "", endWithNewline), nil
}

func endWithNewline(text string) string {
	return strings.TrimRight(text, " \t\n") + "\n"
}

// IndentOptions configures the indent step.
type IndentOptions struct {
	Style string `mapstructure:"style" json:"style" validate:"required,oneof=spaces tabs"`
	Width int    `mapstructure:"width" json:"width" validate:"min=1,max=16"`
}

func buildIndent(raw map[string]any) (format.Step, error) {
	opts := IndentOptions{Style: "spaces", Width: 4}
	if err := decodeOptions("indent", raw, &opts); err != nil {
		return nil, err
	}
	return format.NewInfallibleStep("indent", identity("indent", opts), func(text string) string {
		return reindent(text, opts)
	}), nil
}

// reindent measures each line's leading whitespace in columns (a tab counts as
// a full indent unit) and rewrites it in the configured style. Columns that do
// not fill a whole tab are kept as spaces.
func reindent(text string, opts IndentOptions) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		body := strings.TrimLeft(line, " \t")
		lead := line[:len(line)-len(body)]
		if lead == "" {
			continue
		}
		cols := 0
		for _, r := range lead {
			if r == '\t' {
				cols += opts.Width - cols%opts.Width
			} else {
				cols++
			}
		}
		if opts.Style == "tabs" {
			lead = strings.Repeat("\t", cols/opts.Width) + strings.Repeat(" ", cols%opts.Width)
		} else {
			lead = strings.Repeat(" ", cols)
		}
		lines[i] = lead + body
	}
	return strings.Join(lines, "\n")
}

// ReplaceOptions configures the replace step.
type ReplaceOptions struct {
	Find    string `mapstructure:"find" json:"find" validate:"required"`
	Replace string `mapstructure:"replace" json:"replace"`
}

func buildReplace(raw map[string]any) (format.Step, error) {
	var opts ReplaceOptions
	if err := decodeOptions("replace", raw, &opts); err != nil {
		return nil, err
	}
	return format.NewInfallibleStep("replace", identity("replace", opts), func(text string) string {
		return strings.ReplaceAll(text, opts.Find, opts.Replace)
	}), nil
}

// ReplaceRegexOptions configures the replace_regex step.
type ReplaceRegexOptions struct {
	Pattern string `mapstructure:"pattern" json:"pattern" validate:"required"`
	Replace string `mapstructure:"replace" json:"replace"`
}

func buildReplaceRegex(raw map[string]any) (format.Step, error) {
	var opts ReplaceRegexOptions
	if err := decodeOptions("replace_regex", raw, &opts); err != nil {
		return nil, err
	}
	re, err := regexp.Compile(opts.Pattern)
	if err != nil {
		return nil, fmterrors.NewValidationError("replace_regex.options.pattern", fmt.Sprintf("invalid pattern: %v", err), err)
	}
	return format.NewInfallibleStep("replace_regex", identity("replace_regex", opts), func(text string) string {
		return re.ReplaceAllString(text, opts.Replace)
	}), nil
}
