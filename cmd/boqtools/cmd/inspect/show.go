package inspect

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/TrendsetAM/BOQ-TOOLS/cmd/application"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/cmd/cmdutil"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/cmd/output"
)

// NewShowCommand creates the command printing a master.
func NewShowCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "show <snapshot|file>",
		Short: "Print the rows of a master",
		Long: `Show prints a saved snapshot or a master workbook. The table form lists
the base columns; -o wide adds the five columns of every committed offer.`,
		Example: `  boqtools inspect show tender
  boqtools inspect show tender -o wide
  boqtools inspect show master.xlsx -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Show(cmd.Context(), app, args[0], cmd.OutOrStdout())
		},
	}
}

// Show prints the master named by source.
func Show(ctx context.Context, app application.Application, source string, w io.Writer) error {
	format, err := cmdutil.Format(app)
	if err != nil {
		return err
	}
	ws, err := cmdutil.OpenWorkspace(ctx, app, source)
	if err != nil {
		return err
	}
	master := ws.Master()
	return output.Print(w, format, master, output.MasterTable(master, format == output.FormatWide))
}
