package model

import (
	"os"
	"time"

	"github.com/alexisbeaulieu97/fmtcell/internal/paddedcell"
)

const (
	// StatusClean indicates the file is already formatted.
	StatusClean = "clean"
	// StatusConverged indicates formatting reached a stable result that
	// differs from the file on disk.
	StatusConverged = "converged"
	// StatusCycle indicates the formatter chain oscillates on this file.
	StatusCycle = "cycle"
	// StatusDiverged indicates the formatter chain never settled or failed on
	// one of its own outputs.
	StatusDiverged = "diverged"
	// StatusFailed marks a file that could not be read or formatted at all.
	StatusFailed = "failed"
)

// FileResult captures the diagnosis of a single file against one format.
type FileResult struct {
	Path        string
	RelPath     string
	Format      string
	Encoding    string
	Permissions os.FileMode
	Original    string
	Result      paddedcell.Result
	Error       error
	// Cached is set when the result came from the clean-file cache instead of
	// running the formatter chain.
	Cached    bool
	Duration  time.Duration
	Timestamp time.Time
}

// Status maps the diagnosis onto one of the Status constants.
func (r FileResult) Status() string {
	if r.Error != nil {
		return StatusFailed
	}
	return r.Result.Kind().String()
}

// Failed reports whether the file could not be diagnosed.
func (r FileResult) Failed() bool {
	return r.Error != nil
}

// Dirty reports whether the file needs attention: it is either fixable or
// the formatter is unstable on it.
func (r FileResult) Dirty() bool {
	return r.Error == nil && !r.Result.IsClean()
}
