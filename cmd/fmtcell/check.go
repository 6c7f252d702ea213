package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/fmtcell/internal/app/pipeline"
)

func newCheckCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check [files...]",
		Short: "Report files that are not formatted without changing them",
		Long: `Check diagnoses every target file and prints a diff for each file that
apply would rewrite. Files on which the formatter chain cycles or diverges
are listed separately. Exit code 0 means every file is clean, 1 means
violations were found, 2 is a configuration error and 3 a runtime error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, newRunOptions(cmd, root, args))
		},
	}
}

func runCheck(cmd *cobra.Command, opts runOptions) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}

	var report *pipeline.CheckReport
	err = s.run(cmd.Context(), "check", func(ctx context.Context, req pipeline.RunRequest) error {
		var err error
		report, err = s.svc.Check(ctx, req)
		return err
	})
	if err != nil {
		return err
	}

	if report.OK() {
		fmt.Fprintf(s.out, "All %d files are clean.\n", report.Total)
		return nil
	}

	fmt.Fprint(s.out, report.Message())
	return &exitError{
		code: exitViolations,
		err:  fmt.Errorf("%d of %d files are not clean", report.Total-report.Clean, report.Total),
	}
}
