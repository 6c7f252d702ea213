package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/fmtcell/internal/steps"
)

func newStepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the available formatter step types",
		Long:  "Steps lists every step type usable in a format's steps. Options marked with * are required.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("TYPE", "OPTIONS", "DESCRIPTION")
			for _, def := range steps.Definitions() {
				options := strings.Join(def.OptionKeys(), ", ")
				if options == "" {
					options = "-"
				}
				t.Row(def.Type, options, def.Description)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return err
		},
	}
}
