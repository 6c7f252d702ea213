package pipeline

import (
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/fmtcell/internal/model"
	"github.com/alexisbeaulieu97/fmtcell/internal/paddedcell"
	"github.com/alexisbeaulieu97/fmtcell/pkg/diff"
)

const (
	// MaxMessageLines caps how many diff lines a check message prints.
	MaxMessageLines = 50
	// MaxFilesToList caps how many files beyond the printed diffs are named.
	MaxFilesToList = 10

	fileIndent = "    "
	diffIndent = "        "
)

// Violation is a file whose content differs from what the formatter chain
// would write.
type Violation struct {
	Result model.FileResult
	// Diff compares the file on disk with the canonical content.
	Diff string
}

// CheckReport classifies diagnosis results for read-only verification.
type CheckReport struct {
	Total int
	Clean int
	// Violations hold converged files: unformatted, and fixable by apply.
	Violations []Violation
	// Unresolved hold cycle and diverged files: the formatter chain itself
	// is unstable on them.
	Unresolved []model.FileResult
	// Errors hold files that could not be read or formatted at all.
	Errors []model.FileResult
}

// NewCheckReport classifies results. Input order is kept inside each group.
func NewCheckReport(results []model.FileResult) *CheckReport {
	report := &CheckReport{Total: len(results)}
	for _, res := range results {
		if res.Error != nil {
			report.Errors = append(report.Errors, res)
			continue
		}

		switch res.Result.Violation() {
		case paddedcell.NoViolation:
			report.Clean++
		case paddedcell.Fixable:
			canonical, _ := res.Result.Canonical()
			report.Violations = append(report.Violations, Violation{
				Result: res,
				Diff:   diff.Unified(res.Original, canonical, "a/"+res.RelPath, "b/"+res.RelPath, diff.DefaultContext),
			})
		default:
			report.Unresolved = append(report.Unresolved, res)
		}
	}
	return report
}

// OK reports whether every file is clean.
func (r *CheckReport) OK() bool {
	return r != nil && len(r.Violations) == 0 && len(r.Unresolved) == 0 && len(r.Errors) == 0
}

// Message renders the report for humans. Diffs are printed until
// MaxMessageLines is reached; remaining files are only named.
func (r *CheckReport) Message() string {
	if r == nil || r.OK() {
		return ""
	}

	var sections []string
	if len(r.Violations) > 0 {
		sections = append(sections, r.violationSection())
	}
	if len(r.Unresolved) > 0 {
		sections = append(sections, unresolvedSection(r.Unresolved))
	}
	if len(r.Errors) > 0 {
		sections = append(sections, errorSection(r.Errors))
	}
	return strings.Join(sections, "\n")
}

func (r *CheckReport) violationSection() string {
	var b strings.Builder
	b.WriteString("The following files had format violations:\n")

	budget := MaxMessageLines
	printed := 0
	for _, v := range r.Violations {
		if budget <= 0 {
			break
		}
		b.WriteString(fileIndent)
		b.WriteString(v.Result.RelPath)
		b.WriteString("\n")

		lines := strings.Split(strings.TrimSuffix(v.Diff, "\n"), "\n")
		// skip the ---/+++ header, the path is already printed
		if len(lines) > 2 {
			lines = lines[2:]
		}
		if len(lines) > budget {
			omitted := len(lines) - budget
			lines = append(lines[:budget], fmt.Sprintf("... (%d more lines that didn't fit)", omitted))
		}
		for _, line := range lines {
			b.WriteString(diffIndent)
			b.WriteString(line)
			b.WriteString("\n")
		}
		budget -= len(lines)
		printed++
	}

	if rest := r.Violations[printed:]; len(rest) > 0 {
		names := make([]string, 0, MaxFilesToList)
		for i, v := range rest {
			if i == MaxFilesToList {
				break
			}
			names = append(names, v.Result.RelPath)
		}
		fmt.Fprintf(&b, "%sViolations also present in:\n", fileIndent)
		for _, name := range names {
			fmt.Fprintf(&b, "%s%s\n", diffIndent, name)
		}
		if len(rest) > MaxFilesToList {
			fmt.Fprintf(&b, "%s... and %d more\n", diffIndent, len(rest)-MaxFilesToList)
		}
	}

	b.WriteString("Run 'fmtcell apply' to fix these violations.\n")
	return b.String()
}

func unresolvedSection(results []model.FileResult) string {
	var b strings.Builder
	b.WriteString("The formatter chain is unstable on the following files:\n")
	for _, res := range results {
		fmt.Fprintf(&b, "%s%s: %s\n", fileIndent, res.RelPath, describe(res.Result))
	}
	b.WriteString("Run 'fmtcell diagnose --out DIR' to inspect every intermediate state.\n")
	return b.String()
}

func errorSection(results []model.FileResult) string {
	var b strings.Builder
	b.WriteString("The following files could not be formatted:\n")
	for _, res := range results {
		fmt.Fprintf(&b, "%s%s: %v\n", fileIndent, res.RelPath, res.Error)
	}
	return b.String()
}

func describe(result paddedcell.Result) string {
	switch result.Kind() {
	case paddedcell.Cycle:
		return fmt.Sprintf("cycles between %d states", len(result.Members()))
	case paddedcell.Diverged:
		if result.Reason() == paddedcell.ReasonStepFailed {
			return fmt.Sprintf("diverged, step failed: %v", result.Err())
		}
		return fmt.Sprintf("diverged, no stable result after %d iterations", result.Iterations())
	default:
		return result.String()
	}
}
