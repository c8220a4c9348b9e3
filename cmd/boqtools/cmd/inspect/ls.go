package inspect

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/TrendsetAM/BOQ-TOOLS/cmd/application"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/cmd/cmdutil"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/cmd/output"
)

// NewLsCommand creates the command listing saved snapshots.
func NewLsCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List saved snapshots",
		Example: `  boqtools inspect ls
  boqtools inspect ls -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return List(cmd.Context(), app, cmd.OutOrStdout())
		},
	}
}

// List prints the snapshots of the configured store.
func List(ctx context.Context, app application.Application, w io.Writer) error {
	format, err := cmdutil.Format(app)
	if err != nil {
		return err
	}
	store, err := app.Store(ctx)
	if err != nil {
		return err
	}
	infos, err := store.List(ctx)
	if err != nil {
		return err
	}
	return output.Print(w, format, infos, output.SnapshotsTable(infos))
}
