// Package export provides the export command implementation.
package export

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/TrendsetAM/BOQ-TOOLS/cmd/application"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/cmd/cmdutil"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/sheets"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/constants"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/logging"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/save"
)

// NewCommand creates the export command using app context.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "export <snapshot|file> [path]",
		GroupID: "core",
		Short:   "Write a master to a workbook, CSV or snapshot document",
		Args:    cobra.RangeArgs(1, 2),
		Long: `Export writes the consolidated master: the base columns followed by the
quantity, unit price, total price, manhours and wage of every offer in commit
order. The file type follows the extension of path:

• .xlsx  single-sheet workbook
• .csv   comma-separated values
• .json  snapshot document
• .yaml  snapshot document

Without a path the master is written to <name>-<timestamp>.xlsx.`,
		Example: `  boqtools export tender
  boqtools export tender out/tender.csv
  boqtools export master.xlsx tender.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			_, err := Execute(cmd.Context(), app, args[0], path)
			return err
		},
	}
	return cmd
}

// Execute exports the master named by source to path and returns the path
// written.
func Execute(ctx context.Context, app application.Application, source, path string) (string, error) {
	ctx = logging.WithLogger(ctx, app.Logger())

	ws, err := cmdutil.OpenWorkspace(ctx, app, source)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = DefaultPath(source, time.Now())
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".csv":
		err = sheets.Export(ctx, ws.Master(), path)
	case ".json", ".yaml", ".yml":
		format, perr := save.ParseFormat(strings.TrimPrefix(ext, "."))
		if perr != nil {
			return "", perr
		}
		err = ws.Export(save.WithPath(path), save.WithFormat(format))
	default:
		return "", errors.NewValidationError("path", path, "unsupported export type, expected .xlsx, .csv, .json or .yaml")
	}
	if err != nil {
		return "", err
	}

	app.Logger().Info().Str("path", path).Msg("Export written")
	return path, nil
}

// DefaultPath names the export after the source and the time of the run.
func DefaultPath(source string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return name + "-" + now.Format(constants.TimeFormatFilename) + ".xlsx"
}
