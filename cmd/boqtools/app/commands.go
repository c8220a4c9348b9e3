package app

import (
	"github.com/spf13/cobra"

	"github.com/TrendsetAM/BOQ-TOOLS/cmd/boqtools/cmd/compare"
	"github.com/TrendsetAM/BOQ-TOOLS/cmd/boqtools/cmd/export"
	"github.com/TrendsetAM/BOQ-TOOLS/cmd/boqtools/cmd/inspect"
	"github.com/TrendsetAM/BOQ-TOOLS/cmd/boqtools/cmd/validate"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(compare.NewCommand(a))
	rootCmd.AddCommand(validate.NewCommand(a))
	rootCmd.AddCommand(export.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(inspect.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(a.CreateVersionCommand())
}

// CreateVersionCommand creates the version command.
func (a *App) CreateVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("boqtools %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
