package pipeline

import (
	"strings"

	"github.com/alexisbeaulieu97/fmtcell/internal/fileio"
	"github.com/alexisbeaulieu97/fmtcell/internal/logger"
	"github.com/alexisbeaulieu97/fmtcell/internal/model"
	"github.com/alexisbeaulieu97/fmtcell/internal/paddedcell"
)

// ApplyReport records what the auto-fixer did with each diagnosed file.
type ApplyReport struct {
	Total int
	Clean int
	// Fixed hold converged files rewritten to their fixed point.
	Fixed []model.FileResult
	// Cycles hold oscillating files rewritten to the first cycle member.
	// The chain is still unstable on them.
	Cycles []model.FileResult
	// Diverged hold files left untouched because no safe content exists.
	Diverged []model.FileResult
	// Errors hold files that could not be read, formatted or written.
	Errors []model.FileResult
}

// OK reports whether every file ended up in a stable, formatted state.
func (r *ApplyReport) OK() bool {
	return r != nil && len(r.Cycles) == 0 && len(r.Diverged) == 0 && len(r.Errors) == 0
}

// Written counts the files that were rewritten.
func (r *ApplyReport) Written() int {
	if r == nil {
		return 0
	}
	return len(r.Fixed) + len(r.Cycles)
}

func (r *ApplyReport) merge(other *ApplyReport) {
	r.Total += other.Total
	r.Clean += other.Clean
	r.Fixed = append(r.Fixed, other.Fixed...)
	r.Cycles = append(r.Cycles, other.Cycles...)
	r.Diverged = append(r.Diverged, other.Diverged...)
	r.Errors = append(r.Errors, other.Errors...)
}

// Message lists the files apply could not leave in a stable state.
func (r *ApplyReport) Message() string {
	if r == nil {
		return ""
	}

	var sections []string
	unstable := append(append([]model.FileResult{}, r.Cycles...), r.Diverged...)
	if len(unstable) > 0 {
		sections = append(sections, unresolvedSection(unstable))
	}
	if len(r.Errors) > 0 {
		sections = append(sections, errorSection(r.Errors))
	}
	return strings.Join(sections, "\n")
}

// ApplyResults writes the canonical content of every converged or cycling
// file. Clean and diverged files are never written. A write failure is
// recorded on the file's result.
func ApplyResults(results []model.FileResult, log *logger.Logger) *ApplyReport {
	report := &ApplyReport{Total: len(results)}
	for _, res := range results {
		if res.Error != nil {
			report.Errors = append(report.Errors, res)
			continue
		}

		fileLog := log.ForFile(res.RelPath, res.Format)

		canonical, ok := res.Result.Canonical()
		if !ok {
			if res.Result.Kind() == paddedcell.Diverged {
				fileLog.Warn(res.Result.AsError(), "not writing diverged file")
				report.Diverged = append(report.Diverged, res)
			} else {
				report.Clean++
			}
			continue
		}

		if canonical != res.Original {
			target := &fileio.Target{
				Path:        res.Path,
				Encoding:    res.Encoding,
				Permissions: res.Permissions,
			}
			if err := target.Write(canonical); err != nil {
				res.Error = err
				fileLog.Error(err, "unable to write file")
				report.Errors = append(report.Errors, res)
				continue
			}
		}

		if res.Result.Kind() == paddedcell.Cycle {
			fileLog.Warn(res.Result.AsError(), "wrote first state of a cycle")
			report.Cycles = append(report.Cycles, res)
			continue
		}
		fileLog.Debug("file formatted")
		report.Fixed = append(report.Fixed, res)
	}
	return report
}
