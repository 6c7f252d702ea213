package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/fmtcell/internal/config"
)

type rootFlags struct {
	verbose       bool
	jsonLogs      bool
	configPath    string
	maxIterations int
	parallel      int
	ratchetFrom   string
	noCache       bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "fmtcell",
		Short: "fmtcell runs formatter chains and diagnoses the ones that never settle",
		Long: `fmtcell applies chains of formatting steps to the files of a project.
When a chain is not idempotent on a file, fmtcell keeps applying it and
reports whether the file converges, cycles between a set of states, or
never settles.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.jsonLogs, "json", false, "Write logs as JSON")
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", config.DefaultFileName, "Path to configuration file")
	cmd.PersistentFlags().IntVar(&flags.maxIterations, "max-iterations", 0, "Override settings.max_iterations")
	cmd.PersistentFlags().IntVar(&flags.parallel, "parallel", 0, "Override settings.parallel")
	cmd.PersistentFlags().StringVar(&flags.ratchetFrom, "ratchet-from", "", "Only consider files changed since this git revision")

	cmd.PersistentFlags().BoolVar(&flags.noCache, "no-cache", false, "Diagnose every file even if it was clean last time")

	cmd.AddCommand(newCheckCmd(flags))
	cmd.AddCommand(newApplyCmd(flags))
	cmd.AddCommand(newDiagnoseCmd(flags))
	cmd.AddCommand(newStepsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
