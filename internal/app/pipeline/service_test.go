package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/fmtcell/internal/format"
	"github.com/alexisbeaulieu97/fmtcell/internal/logger"
	"github.com/alexisbeaulieu97/fmtcell/internal/model"
	"github.com/alexisbeaulieu97/fmtcell/internal/steps"
)

func init() {
	register := func(name string, fn func(string) string) {
		err := steps.Register(steps.Definition{
			Type:        name,
			Description: "test chain",
			Options:     struct{}{},
			Build: func(map[string]any) (format.Step, error) {
				return format.NewInfallibleStep(name, "", fn), nil
			},
		})
		if err != nil {
			panic(err)
		}
	}

	register("test_wellbehaved", func(string) string { return "42" })
	register("test_cycle", func(x string) string {
		if x == "A" {
			return "B"
		}
		return "A"
	})
	register("test_converge", func(x string) string {
		if x == "" {
			return x
		}
		return x[:len(x)-1]
	})
	register("test_diverge", func(x string) string { return x + " " })
}

const bundleConfig = `version: "1.0"
settings:
  line_ending: unix
formats:
  - name: wellbehaved
    targets: ["src/test.wellbehaved"]
    steps: [{type: test_wellbehaved}]
  - name: cycle
    targets: ["src/test.cycle"]
    steps: [{type: test_cycle}]
  - name: converge
    targets: ["src/test.converge"]
    steps: [{type: test_converge}]
  - name: diverge
    targets: ["src/test.diverge"]
    steps: [{type: test_diverge}]
`

var bundleNames = []string{"wellbehaved", "cycle", "converge", "diverge"}

// newBundle lays out a project whose four files all contain "CCC".
func newBundle(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".fmtcell.yaml"), []byte(bundleConfig), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	for _, name := range bundleNames {
		require.NoError(t, os.WriteFile(filepath.Join(root, "src", "test."+name), []byte("CCC"), 0o640))
	}
	return root
}

func prepare(t *testing.T, root string, req PrepareRequest) (*Service, *PreparedPipeline) {
	t.Helper()

	svc := NewService(logger.Nop())
	req.ConfigPath = filepath.Join(root, ".fmtcell.yaml")
	prepared, err := svc.Prepare(req)
	require.NoError(t, err)
	return svc, prepared
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestCheckClassifiesBundle(t *testing.T) {
	t.Parallel()

	root := newBundle(t)
	svc, prepared := prepare(t, root, PrepareRequest{})
	require.Equal(t, 4, prepared.Plan.Len())

	report, err := svc.Check(context.Background(), RunRequest{Prepared: prepared})
	require.NoError(t, err)
	require.False(t, report.OK())
	require.Equal(t, 4, report.Total)
	require.Zero(t, report.Clean)
	require.Empty(t, report.Errors)

	require.Len(t, report.Violations, 2)
	require.Equal(t, "src/test.wellbehaved", report.Violations[0].Result.RelPath)
	require.Equal(t, "src/test.converge", report.Violations[1].Result.RelPath)

	require.Len(t, report.Unresolved, 2)
	require.Equal(t, model.StatusCycle, report.Unresolved[0].Status())
	require.Equal(t, model.StatusDiverged, report.Unresolved[1].Status())

	expected := strings.Join([]string{
		"The following files had format violations:",
		"    src/test.wellbehaved",
		"        @@ -1,1 +1,1 @@",
		"        -CCC",
		`        \ No newline at end of file`,
		"        +42",
		`        \ No newline at end of file`,
		"    src/test.converge",
		"        @@ -1,1 +0,0 @@",
		"        -CCC",
		`        \ No newline at end of file`,
		"Run 'fmtcell apply' to fix these violations.",
		"",
		"The formatter chain is unstable on the following files:",
		"    src/test.cycle: cycles between 2 states",
		"    src/test.diverge: diverged, no stable result after 10 iterations",
		"Run 'fmtcell diagnose --out DIR' to inspect every intermediate state.",
		"",
	}, "\n")
	require.Equal(t, expected, report.Message())
}

func TestApplyBundleThenCheck(t *testing.T) {
	t.Parallel()

	root := newBundle(t)
	svc, prepared := prepare(t, root, PrepareRequest{})

	report, err := svc.Apply(context.Background(), RunRequest{Prepared: prepared, Workers: 2})
	require.NoError(t, err)
	require.False(t, report.OK())
	require.Len(t, report.Fixed, 2)
	require.Len(t, report.Cycles, 1)
	require.Len(t, report.Diverged, 1)
	require.Empty(t, report.Errors)
	require.Equal(t, 3, report.Written())

	require.Equal(t, "42", readFile(t, root, "src/test.wellbehaved"))
	require.Equal(t, "A", readFile(t, root, "src/test.cycle"))
	require.Equal(t, "", readFile(t, root, "src/test.converge"))
	require.Equal(t, "CCC", readFile(t, root, "src/test.diverge"))

	info, err := os.Stat(filepath.Join(root, "src", "test.wellbehaved"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	check, err := svc.Check(context.Background(), RunRequest{Prepared: prepared})
	require.NoError(t, err)
	require.Equal(t, 2, check.Clean)
	require.Empty(t, check.Violations)
	require.Len(t, check.Unresolved, 2, "an unstable chain stays unresolved after apply")
}

func TestDumpBundle(t *testing.T) {
	t.Parallel()

	root := newBundle(t)
	svc, prepared := prepare(t, root, PrepareRequest{})
	out := filepath.Join(root, "build", "diagnose")

	report, err := svc.Dump(context.Background(), RunRequest{Prepared: prepared}, out)
	require.NoError(t, err)
	require.Equal(t, 3, report.Files)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	var dirs []string
	for _, entry := range entries {
		dirs = append(dirs, entry.Name())
	}
	require.Equal(t, []string{"converge", "cycle", "diverge"}, dirs)

	list := func(format string) []string {
		entries, err := os.ReadDir(filepath.Join(out, format, "src"))
		require.NoError(t, err)
		var names []string
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		sort.Strings(names)
		return names
	}

	require.Equal(t, []string{"test.cycle.cycle0", "test.cycle.cycle1"}, list("cycle"))
	require.Equal(t, []string{"test.converge.converge0", "test.converge.converge1", "test.converge.converge2"}, list("converge"))

	diverge := list("diverge")
	require.Len(t, diverge, 10)
	require.Contains(t, diverge, "test.diverge.diverge0")
	require.Contains(t, diverge, "test.diverge.diverge9")

	require.Equal(t, "A", readFile(t, out, "cycle/src/test.cycle.cycle0"))
	require.Equal(t, "B", readFile(t, out, "cycle/src/test.cycle.cycle1"))
	require.Equal(t, "CC", readFile(t, out, "converge/src/test.converge.converge0"))
	require.Equal(t, "CCC ", readFile(t, out, "diverge/src/test.diverge.diverge0"))

	require.Equal(t, "CCC", readFile(t, root, "src/test.cycle"), "dump never touches the sources")
}

func TestPrepareWithExplicitPaths(t *testing.T) {
	t.Parallel()

	root := newBundle(t)
	_, prepared := prepare(t, root, PrepareRequest{Paths: []string{filepath.Join(root, "src", "test.cycle")}})
	require.Equal(t, 1, prepared.Plan.Len())
	require.Equal(t, root, prepared.Root)
}

func TestPrepareRatchet(t *testing.T) {
	t.Parallel()

	root := newBundle(t)
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(".")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "fmtcell", Email: "fmtcell@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "test.converge"), []byte("CCCC"), 0o640))

	_, prepared := prepare(t, root, PrepareRequest{RatchetFrom: "HEAD"})
	require.Equal(t, 1, prepared.Plan.Len())
	require.Equal(t, "converge", prepared.Plan.Levels[2].Format)
	require.Len(t, prepared.Plan.Levels[2].Jobs, 1)

	_, err = NewService(nil).Prepare(PrepareRequest{
		ConfigPath:  filepath.Join(root, ".fmtcell.yaml"),
		RatchetFrom: "missing-ref",
	})
	require.Error(t, err)
}

func TestPrepareMissingConfig(t *testing.T) {
	t.Parallel()

	_, err := NewService(nil).Prepare(PrepareRequest{ConfigPath: filepath.Join(t.TempDir(), ".fmtcell.yaml")})
	require.Error(t, err)

	_, err = NewService(nil).Diagnose(context.Background(), RunRequest{})
	require.Error(t, err)
}

func TestDiagnoseUsesCleanFileCache(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	config := `version: "1.0"
settings:
  cache_file: .cache/fmtcell.json
formats:
  - name: upper
    targets: ["**/*"]
    steps: [{type: test_wellbehaved}]
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ".fmtcell.yaml"), []byte(config), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "clean.txt"), []byte("42"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "dirty.txt"), []byte("41"), 0o644))

	svc, prepared := prepare(t, root, PrepareRequest{})
	require.Equal(t, 3, prepared.Plan.Len(), "config, clean.txt and dirty.txt")

	first, err := svc.Diagnose(context.Background(), RunRequest{Prepared: prepared})
	require.NoError(t, err)
	for _, res := range first {
		require.False(t, res.Cached, res.RelPath)
	}

	_, err = os.Stat(filepath.Join(root, ".cache", "fmtcell.json"))
	require.NoError(t, err)

	_, prepared = prepare(t, root, PrepareRequest{})
	require.Equal(t, 3, prepared.Plan.Len(), "the cache file is never a target")

	second, err := svc.Diagnose(context.Background(), RunRequest{Prepared: prepared})
	require.NoError(t, err)
	cached := map[string]bool{}
	for _, res := range second {
		cached[res.RelPath] = res.Cached
	}
	require.Equal(t, map[string]bool{".fmtcell.yaml": false, "clean.txt": true, "dirty.txt": false}, cached)

	third, err := svc.Diagnose(context.Background(), RunRequest{Prepared: prepared, NoCache: true})
	require.NoError(t, err)
	for _, res := range third {
		require.False(t, res.Cached, res.RelPath)
	}
}

func TestApplyFileSharedByTwoFormats(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	config := `version: "1.0"
settings:
  line_ending: unix
formats:
  - name: trim
    targets: ["*.txt"]
    steps: [{type: trim_trailing_whitespace}]
  - name: squash
    targets: ["*.txt"]
    steps:
      - type: replace
        options: {find: "aa", replace: "a"}
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ".fmtcell.yaml"), []byte(config), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "shared.txt"), []byte("aa  \n"), 0o644))

	svc, prepared := prepare(t, root, PrepareRequest{})
	require.Equal(t, 2, prepared.Plan.Len())

	report, err := svc.Apply(context.Background(), RunRequest{Prepared: prepared})
	require.NoError(t, err)
	require.True(t, report.OK())
	require.Equal(t, 2, report.Total)
	require.Equal(t, 2, report.Written())
	require.Equal(t, "aa\n", report.Fixed[1].Original, "squash reads the file trim wrote")
	require.Equal(t, "a\n", readFile(t, root, "shared.txt"))

	check, err := svc.Check(context.Background(), RunRequest{Prepared: prepared})
	require.NoError(t, err)
	require.True(t, check.OK(), check.Message())
}

func TestDumpKeepsGoingAfterAFailedTrace(t *testing.T) {
	t.Parallel()

	root := newBundle(t)
	svc, prepared := prepare(t, root, PrepareRequest{})
	out := filepath.Join(root, "build", "diagnose")
	require.NoError(t, os.MkdirAll(out, 0o755))
	// a regular file where the cycle format's directory would go
	require.NoError(t, os.WriteFile(filepath.Join(out, "cycle"), nil, 0o644))

	report, err := svc.Dump(context.Background(), RunRequest{Prepared: prepared}, out)
	require.NoError(t, err)
	require.False(t, report.OK())
	require.Equal(t, 2, report.Files)
	require.Len(t, report.Artifacts, 13)

	require.Len(t, report.Errors, 1)
	require.Equal(t, "src/test.cycle", report.Errors[0].RelPath)
	require.Error(t, report.Errors[0].Error)
	require.Contains(t, report.Message(), "The following traces could not be written:\n    src/test.cycle: write ")

	require.Equal(t, "CC", readFile(t, out, "converge/src/test.converge.converge0"))
	require.Equal(t, "CCC ", readFile(t, out, "diverge/src/test.diverge.diverge0"))
}
