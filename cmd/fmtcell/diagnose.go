package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/fmtcell/internal/app/pipeline"
)

const defaultDiagnoseDir = "build/fmtcell-diagnose"

func newDiagnoseCmd(root *rootFlags) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "diagnose [files...]",
		Short: "Write every intermediate state of misbehaving files for inspection",
		Long: `Diagnose records the sequence of states the formatter chain produces for
each file that is not clean, and writes them as
<out>/<format>/<path>.<converge|cycle|diverge><n>. Source files are never
modified. A relative --out is resolved against the project root.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd, newRunOptions(cmd, root, args), outDir)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", defaultDiagnoseDir, "Directory receiving the intermediate states")

	return cmd
}

func runDiagnose(cmd *cobra.Command, opts runOptions, outDir string) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}

	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(s.prepared.Root, outDir)
	}

	var report *pipeline.DumpReport
	err = s.run(cmd.Context(), "diagnose", func(ctx context.Context, req pipeline.RunRequest) error {
		var err error
		report, err = s.svc.Dump(ctx, req, outDir)
		return err
	})
	if err != nil {
		return err
	}

	switch {
	case report.Files > 0:
		fmt.Fprintf(s.out, "Wrote %d states for %d files to %s\n", len(report.Artifacts), report.Files, outDir)
	case report.OK():
		fmt.Fprintln(s.out, "Nothing to inspect: every file is clean or settles in one pass.")
	}

	if report.OK() {
		return nil
	}
	fmt.Fprint(s.out, report.Message())
	return &exitError{
		code: exitRuntime,
		err:  fmt.Errorf("%d traces could not be written", len(report.Errors)),
	}
}
