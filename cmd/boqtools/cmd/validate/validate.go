// Package validate provides the validate command implementation.
package validate

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	boqtools "github.com/TrendsetAM/BOQ-TOOLS"
	"github.com/TrendsetAM/BOQ-TOOLS/cmd/application"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/cmd/cmdutil"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/cmd/output"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/comparison"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/logging"
)

// Report is the machine-readable output of the validate command.
type Report struct {
	File   string                       `json:"file" yaml:"file"`
	Report *comparison.ValidationReport `json:"report" yaml:"report"`
	Rows   []*boq.ComparisonRow         `json:"rows" yaml:"rows"`
}

// NewCommand creates the validate command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var invalidOnly bool
	var master *cmdutil.MasterFlags

	cmd := &cobra.Command{
		Use:     "validate <offer>",
		GroupID: "core",
		Short:   "Check which offer rows would take part in a comparison",
		Args:    cobra.ExactArgs(1),
		Long: `Validate reads a submitted offer and classifies every row without
touching any master. Rows are rejected when they are empty, look like a
subtotal, lack a description or both quantity and unit price, or carry a
number that does not parse.

With --master the report also counts valid rows whose description is not
yet in the master.`,
		Example: `  boqtools validate offer.xlsx
  boqtools validate offer.csv --master tender --invalid`,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := Run(cmd.Context(), app, args[0], master.Master)
			if err != nil {
				return err
			}
			return Print(app, cmd.OutOrStdout(), report, invalidOnly)
		},
	}

	master = cmdutil.AddMasterFlags(cmd)
	cmd.Flags().BoolVar(&invalidOnly, "invalid", false, "List only the rejected rows")

	return cmd
}

// Run validates the offer at path inside a session that is always discarded.
func Run(ctx context.Context, app application.Application, path, source string) (*Report, error) {
	ctx = logging.WithLogger(ctx, app.Logger())

	reader, err := app.Reader()
	if err != nil {
		return nil, err
	}
	ds, err := reader.ReadComparison(ctx, path)
	if err != nil {
		return nil, err
	}

	var ws boqtools.Workspace
	if source != "" {
		ws, err = cmdutil.OpenWorkspace(ctx, app, source)
	} else {
		ws, err = app.Workspace(ctx, boqtools.WithMaster(&boq.MasterDataset{Columns: ds.Columns}))
	}
	if err != nil {
		return nil, err
	}

	s, err := ws.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Discard(context.WithoutCancel(ctx)) }()

	if err := s.LoadComparison(ctx, ds, boq.OfferInfo{Name: "validate"}); err != nil {
		return nil, err
	}
	report, err := s.ValidateRows(ctx)
	if err != nil {
		return nil, err
	}
	return &Report{File: path, Report: report, Rows: s.Rows()}, nil
}

// Print writes the report in the configured format.
func Print(app application.Application, w io.Writer, report *Report, invalidOnly bool) error {
	format, err := cmdutil.Format(app)
	if err != nil {
		return err
	}

	rows := report.Rows
	if invalidOnly {
		rows = make([]*boq.ComparisonRow, 0, report.Report.Invalid)
		for _, r := range report.Rows {
			if !r.IsValid {
				rows = append(rows, r)
			}
		}
	}
	tables := append(output.ReportTables(report.Report), output.RowsTable(rows))
	return output.Print(w, format, &Report{File: report.File, Report: report.Report, Rows: rows}, tables...)
}
