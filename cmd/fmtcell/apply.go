package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/fmtcell/internal/app/pipeline"
)

func newApplyCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "apply [files...]",
		Short: "Rewrite files to their formatted content",
		Long: `Apply writes the stable result of the formatter chain to every file that
needs it. A file on which the chain cycles is written with the first state
of the cycle; a file on which it diverges is left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, newRunOptions(cmd, root, args))
		},
	}
}

func runApply(cmd *cobra.Command, opts runOptions) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}

	var report *pipeline.ApplyReport
	err = s.run(cmd.Context(), "apply", func(ctx context.Context, req pipeline.RunRequest) error {
		var err error
		report, err = s.svc.Apply(ctx, req)
		return err
	})
	if err != nil {
		return err
	}

	for _, res := range report.Fixed {
		fmt.Fprintf(s.out, "Formatted %s\n", res.RelPath)
	}
	fmt.Fprintf(s.out, "%d of %d files written.\n", report.Written(), report.Total)

	if report.OK() {
		return nil
	}

	fmt.Fprint(s.out, report.Message())
	return &exitError{
		code: exitViolations,
		err: fmt.Errorf("%d files are unstable and %d could not be formatted",
			len(report.Cycles)+len(report.Diverged), len(report.Errors)),
	}
}
