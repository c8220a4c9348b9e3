package inspect

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/TrendsetAM/BOQ-TOOLS/cmd/application"
)

// NewRmCommand creates the command deleting saved snapshots.
func NewRmCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <snapshot>...",
		Short:   "Delete saved snapshots",
		Example: `  boqtools inspect rm draft old-tender`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Remove(cmd.Context(), app, args...)
		},
	}
}

// Remove deletes the named snapshots, stopping at the first failure.
func Remove(ctx context.Context, app application.Application, names ...string) error {
	store, err := app.Store(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := store.Delete(ctx, name); err != nil {
			return err
		}
		app.Logger().Info().Str("snapshot", name).Msg("Snapshot deleted")
	}
	return nil
}
