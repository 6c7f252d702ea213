package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	fmterrors "github.com/alexisbeaulieu97/fmtcell/pkg/errors"
)

type runOptions struct {
	ConfigPath     string
	Paths          []string
	RatchetFrom    string
	MaxIterations  int
	Workers        int
	Verbose        bool
	JSONLogs       bool
	NoCache        bool
	NonInteractive bool
}

func newRunOptions(cmd *cobra.Command, root *rootFlags, args []string) runOptions {
	return runOptions{
		ConfigPath:     root.configPath,
		Paths:          args,
		RatchetFrom:    root.ratchetFrom,
		MaxIterations:  root.maxIterations,
		Workers:        root.parallel,
		Verbose:        root.verbose,
		JSONLogs:       root.jsonLogs,
		NoCache:        root.noCache,
		NonInteractive: !isTerminal(cmd),
	}
}

// isTerminal reports whether the command writes to an interactive terminal.
// Redirected output, as in tests, is never a terminal.
func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func validateRunOptions(opts runOptions) error {
	if strings.TrimSpace(opts.ConfigPath) == "" {
		return fmterrors.NewValidationError("config", "config file is required", nil)
	}

	abs, err := filepath.Abs(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmterrors.NewValidationError("config", "config file does not exist", err)
	}
	if info.IsDir() {
		return fmterrors.NewValidationError("config", fmt.Sprintf("config path %s is a directory", abs), nil)
	}

	if opts.MaxIterations < 0 {
		return fmterrors.NewValidationError("max-iterations", "must not be negative", nil)
	}
	if opts.Workers < 0 {
		return fmterrors.NewValidationError("parallel", "must not be negative", nil)
	}
	return nil
}
