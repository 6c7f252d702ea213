package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	fmterrors "github.com/alexisbeaulieu97/fmtcell/pkg/errors"
)

const projectConfig = `version: "1.0"
settings:
  line_ending: unix
formats:
  - name: text
    targets: ["**/*.txt"]
    steps:
      - type: trim_trailing_whitespace
      - type: replace
        options:
          find: "aa"
          replace: "a"
`

func newProject(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".fmtcell.yaml"), []byte(projectConfig), 0o644))
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func executeCommand(args ...string) (string, error) {
	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func configFlag(root string) string {
	return "--config=" + filepath.Join(root, ".fmtcell.yaml")
}

func TestCheckCleanProject(t *testing.T) {
	root := newProject(t, map[string]string{"docs/a.txt": "a\n"})

	out, err := executeCommand("check", configFlag(root))
	require.NoError(t, err)
	require.Contains(t, out, "fmtcell • check")
	require.Contains(t, out, "All 1 files are clean.")
}

func TestCheckReportsViolations(t *testing.T) {
	root := newProject(t, map[string]string{
		"a.txt":      "a\n",
		"docs/b.txt": "aaaa  \n",
	})

	out, err := executeCommand("check", configFlag(root))
	require.Error(t, err)
	require.Equal(t, exitViolations, exitCode(err))
	require.EqualError(t, err, "1 of 2 files are not clean")

	require.Contains(t, out, "The following files had format violations:\n    docs/b.txt\n")
	require.Contains(t, out, "        -aaaa  \n        +a\n")
	require.Equal(t, "aaaa  \n", readFile(t, root, "docs/b.txt"))
}

func TestApplyThenCheck(t *testing.T) {
	root := newProject(t, map[string]string{"docs/b.txt": "aaaa  \n"})

	out, err := executeCommand("apply", configFlag(root))
	require.NoError(t, err)
	require.Contains(t, out, "Formatted docs/b.txt")
	require.Contains(t, out, "1 of 1 files written.")
	require.Equal(t, "a\n", readFile(t, root, "docs/b.txt"))

	_, err = executeCommand("check", configFlag(root))
	require.NoError(t, err)
}

func TestApplyExplicitPaths(t *testing.T) {
	root := newProject(t, map[string]string{
		"a.txt": "aa\n",
		"b.txt": "aa\n",
	})

	_, err := executeCommand("apply", configFlag(root), filepath.Join(root, "b.txt"))
	require.NoError(t, err)
	require.Equal(t, "aa\n", readFile(t, root, "a.txt"))
	require.Equal(t, "a\n", readFile(t, root, "b.txt"))
}

func TestDiagnoseWritesTrace(t *testing.T) {
	root := newProject(t, map[string]string{"docs/b.txt": "aaaa\n"})

	out, err := executeCommand("diagnose", configFlag(root), "--out", "inspect")
	require.NoError(t, err)
	require.Contains(t, out, "Wrote 2 states for 1 files to "+filepath.Join(root, "inspect"))

	require.Equal(t, "aa\n", readFile(t, root, "inspect/text/docs/b.txt.converge0"))
	require.Equal(t, "a\n", readFile(t, root, "inspect/text/docs/b.txt.converge1"))
	require.Equal(t, "aaaa\n", readFile(t, root, "docs/b.txt"))
}

func TestDiagnoseNothingToInspect(t *testing.T) {
	root := newProject(t, map[string]string{"docs/b.txt": "aa\n"})

	out, err := executeCommand("diagnose", configFlag(root))
	require.NoError(t, err)
	require.Contains(t, out, "Nothing to inspect")
	_, statErr := os.Stat(filepath.Join(root, defaultDiagnoseDir))
	require.True(t, os.IsNotExist(statErr))
}

func TestMaxIterationsFlag(t *testing.T) {
	root := newProject(t, map[string]string{"docs/b.txt": "aaaaaaaa\n"})

	out, err := executeCommand("check", configFlag(root), "--max-iterations=1")
	require.Error(t, err)
	require.Equal(t, exitViolations, exitCode(err))
	require.Contains(t, out, "docs/b.txt: diverged, no stable result after 1 iterations")
}

func TestConfigErrorsExitWithTwo(t *testing.T) {
	_, err := executeCommand("check", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")
	require.Equal(t, exitConfigError, exitCode(err))

	root := t.TempDir()
	path := filepath.Join(root, ".fmtcell.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1.0\"\nformats: []\n"), 0o644))
	_, err = executeCommand("apply", "--config", path)
	require.Error(t, err)
	require.Equal(t, exitConfigError, exitCode(err))

	_, err = executeCommand("check", "--config", root)
	require.Error(t, err)
	require.Contains(t, err.Error(), "is a directory")
}

func TestStepsCommandListsDefinitions(t *testing.T) {
	out, err := executeCommand("steps")
	require.NoError(t, err)
	require.Contains(t, out, "TYPE")
	require.Contains(t, out, "trim_trailing_whitespace")
	require.Contains(t, out, "find*, replace")
}

func TestVersionCommandOutputsBuildInfo(t *testing.T) {
	originalVersion, originalCommit, originalDate := version, commit, date
	t.Cleanup(func() {
		version, commit, date = originalVersion, originalCommit, originalDate
	})

	version = "1.2.3"
	commit = "abcdef1"
	date = "2026-10-03"

	out, err := executeCommand("version")
	require.NoError(t, err)
	require.Equal(t, "fmtcell 1.2.3\ncommit: abcdef1\nbuilt: 2026-10-03\n", out)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, exitOK, exitCode(nil))
	require.Equal(t, exitViolations, exitCode(&exitError{code: exitViolations}))
	require.Equal(t, exitConfigError, exitCode(fmterrors.NewParseError("x.yaml", 3, errors.New("bad"))))
	require.Equal(t, exitConfigError, exitCode(fmterrors.NewValidationError("formats", "required", nil)))
	require.Equal(t, exitRuntime, exitCode(errors.New("boom")))

	require.Empty(t, (&exitError{code: 1}).Error())
}

func TestValidateRunOptions(t *testing.T) {
	t.Parallel()

	require.ErrorContains(t, validateRunOptions(runOptions{ConfigPath: "  "}), "required")

	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, validateRunOptions(runOptions{ConfigPath: path}))
	require.ErrorContains(t, validateRunOptions(runOptions{ConfigPath: path, MaxIterations: -1}), "max-iterations")
	require.ErrorContains(t, validateRunOptions(runOptions{ConfigPath: path, Workers: -2}), "parallel")
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}
