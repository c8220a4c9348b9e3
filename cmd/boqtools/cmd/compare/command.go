// Package compare provides the compare command implementation.
package compare

import (
	"github.com/spf13/cobra"

	"github.com/TrendsetAM/BOQ-TOOLS/cmd/application"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/cmd/alerts"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/cmd/cmdutil"
)

// Flags holds the compare command flags.
type Flags struct {
	Master     *cmdutil.MasterFlags
	Name       string
	Date       string
	Notes      string
	Overrides  string
	Invalidate []int
	Validate   []int
	DryRun     bool
	Save       string
	Export     string
}

// NewCommand creates the compare command using app context.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "compare <offer>",
		GroupID: "core",
		Short:   "Merge a submitted offer into the master",
		Args:    cobra.ExactArgs(1),
		Long: `Compare reads a submitted offer, validates every row and folds the valid
rows into the master:

• Rows whose description matches a master item fill that item's offer columns
• Repeated descriptions pair up by occurrence
• Unknown descriptions are appended as new master items
• Subtotals, blank rows and unparseable numbers are skipped

Operator decisions can flip row validity before the merge, either from a
YAML file (--overrides) or by row number (--invalidate, --validate).

Without --master the offer seeds an empty master.`,
		Example: `  boqtools compare offer.xlsx --master master.xlsx
  boqtools compare offer.csv -m tender --name BidderX --save tender
  boqtools compare offer.xlsx -m tender --invalidate 12,14 --dry-run
  boqtools compare offer.xlsx -m tender --overrides review.yaml --export out/master.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := Execute(cmd.Context(), app, args[0], flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if format, _ := cmdutil.Format(app); format.IsTable() {
				return alerts.NewWriter(cmd.ErrOrStderr(), false).Write(alerts.ForResult(res)...)
			}
			return nil
		},
	}

	flags.Master = cmdutil.AddMasterFlags(cmd)
	cmd.Flags().StringVar(&flags.Name, "name", "", "Offer name (default is the offer file name)")
	cmd.Flags().StringVar(&flags.Date, "date", "", "Offer submission date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.Notes, "notes", "", "Free text notes stored with the offer")
	cmd.Flags().StringVar(&flags.Overrides, "overrides", "", "YAML file of row overrides")
	cmd.Flags().IntSliceVar(&flags.Invalidate, "invalidate", nil, "Rows to exclude from the merge")
	cmd.Flags().IntSliceVar(&flags.Validate, "validate", nil, "Rows to force into the merge")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Preview the outcome without committing")
	cmd.Flags().StringVar(&flags.Save, "save", "", "Save the resulting master as a named snapshot")
	cmd.Flags().StringVar(&flags.Export, "export", "", "Export the resulting master to .xlsx or .csv")

	cmd.MarkFlagsMutuallyExclusive("dry-run", "save")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "export")

	return cmd
}
