package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alexisbeaulieu97/fmtcell/internal/fileio"
	"github.com/alexisbeaulieu97/fmtcell/internal/model"
	"github.com/alexisbeaulieu97/fmtcell/internal/paddedcell"
)

// DumpReport lists the artifacts written by DumpResults.
type DumpReport struct {
	Artifacts []string
	// Files counts the diagnosed files whose whole trace was written.
	Files int
	// Errors hold files whose trace could not be written; Error carries the
	// cause.
	Errors []model.FileResult
}

// OK reports whether every trace was written.
func (r *DumpReport) OK() bool {
	return r != nil && len(r.Errors) == 0
}

// Message lists the files whose trace could not be written.
func (r *DumpReport) Message() string {
	if r == nil || len(r.Errors) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("The following traces could not be written:\n")
	for _, res := range r.Errors {
		fmt.Fprintf(&b, "%s%s: %v\n", fileIndent, res.RelPath, res.Error)
	}
	return b.String()
}

// ArtifactName names the i-th intermediate state of a file: the file name,
// the outcome slug and a zero based index, e.g. "test.cycle.cycle0".
func ArtifactName(relPath, slug string, index int) string {
	return fmt.Sprintf("%s.%s%d", relPath, slug, index)
}

// DumpResults writes every trace entry of every misbehaving file to
// outDir/<format>/<relpath>.<slug><index>. Clean and failed files produce
// nothing, and neither do files that converged in a single pass since their
// trace holds nothing the check diff does not already show. No formatter is
// invoked: the trace recorded during diagnosis is written as is. A file whose
// trace cannot be written is recorded in Errors and the rest are still
// written.
func DumpResults(results []model.FileResult, outDir string) *DumpReport {
	report := &DumpReport{}
	for _, res := range results {
		if res.Error != nil || res.Result.IsClean() {
			continue
		}
		trace := res.Result.Trace()
		if len(trace) == 0 || res.Result.Kind() == paddedcell.Converged && len(trace) <= 1 {
			continue
		}

		if err := dumpTrace(report, res, trace, outDir); err != nil {
			res.Error = err
			report.Errors = append(report.Errors, res)
			continue
		}
		report.Files++
	}
	return report
}

func dumpTrace(report *DumpReport, res model.FileResult, trace []string, outDir string) error {
	slug := res.Result.Kind().Slug()
	for i, state := range trace {
		path := filepath.Join(outDir, res.Format, filepath.FromSlash(ArtifactName(res.RelPath, slug, i)))
		data, err := fileio.Encode(state, res.Encoding)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		if err := fileio.WriteFileAtomic(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		report.Artifacts = append(report.Artifacts, path)
	}
	return nil
}
