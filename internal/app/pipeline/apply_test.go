package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/fmtcell/internal/model"
	fmterrors "github.com/alexisbeaulieu97/fmtcell/pkg/errors"
)

func TestApplyResultsRecordsWriteFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file, not a directory"), 0o644))

	res := diagnosed(t, "x.txt", "x", upperCase)
	res.Path = filepath.Join(blocker, "x.txt")
	res.Permissions = 0o644

	report := ApplyResults([]model.FileResult{res}, nil)
	require.False(t, report.OK())
	require.Len(t, report.Errors, 1)
	require.Zero(t, report.Written())

	var fileErr *fmterrors.FileError
	require.ErrorAs(t, report.Errors[0].Error, &fileErr)
	require.Equal(t, "write", fileErr.Op)
}

func TestApplyResultsSkipsCleanAndFailedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clean := filepath.Join(dir, "clean.txt")
	require.NoError(t, os.WriteFile(clean, []byte("A"), 0o600))

	res := diagnosed(t, "clean.txt", "A", upperCase)
	res.Path = clean

	report := ApplyResults([]model.FileResult{
		res,
		{RelPath: "gone.txt", Error: os.ErrNotExist},
	}, nil)

	require.Equal(t, 1, report.Clean)
	require.Len(t, report.Errors, 1)
	require.Zero(t, report.Written())

	info, err := os.Stat(clean)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	var nilReport *ApplyReport
	require.False(t, nilReport.OK())
	require.Zero(t, nilReport.Written())
}

func TestApplyReportMessage(t *testing.T) {
	t.Parallel()

	cycle := diagnosed(t, "c.txt", "CCC", func(s string) (string, error) {
		if s == "A" {
			return "B", nil
		}
		return "A", nil
	})
	report := &ApplyReport{
		Cycles: []model.FileResult{cycle},
		Errors: []model.FileResult{{RelPath: "gone.txt", Error: os.ErrNotExist}},
	}

	require.Equal(t, "The formatter chain is unstable on the following files:\n"+
		"    c.txt: cycles between 2 states\n"+
		"Run 'fmtcell diagnose --out DIR' to inspect every intermediate state.\n"+
		"\n"+
		"The following files could not be formatted:\n"+
		"    gone.txt: file does not exist\n", report.Message())

	require.Empty(t, (&ApplyReport{}).Message())
}
