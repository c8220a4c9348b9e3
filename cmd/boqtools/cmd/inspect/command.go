// Package inspect provides commands for looking at saved snapshots and masters.
package inspect

import (
	"github.com/spf13/cobra"

	"github.com/TrendsetAM/BOQ-TOOLS/cmd/application"
)

// NewCommand creates the inspect command group.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inspect",
		GroupID: "management",
		Short:   "Inspect saved snapshots and master workbooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(NewLsCommand(app))
	cmd.AddCommand(NewShowCommand(app))
	cmd.AddCommand(NewRmCommand(app))

	return cmd
}
