// Package cmdutil provides shared flags and helpers for boqtools commands.
package cmdutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	boqtools "github.com/TrendsetAM/BOQ-TOOLS"
	"github.com/TrendsetAM/BOQ-TOOLS/cmd/application"
	"github.com/TrendsetAM/BOQ-TOOLS/internal/cmd/output"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
)

// MasterFlags selects the master a command works on.
type MasterFlags struct {
	Master string
}

// AddMasterFlags adds the --master flag to a command.
func AddMasterFlags(cmd *cobra.Command) *MasterFlags {
	flags := &MasterFlags{}

	cmd.Flags().StringVarP(&flags.Master, "master", "m", "",
		"Master workbook (.xlsx, .csv) or saved snapshot name")

	return flags
}

// IsSheet reports whether path names a workbook or CSV file.
func IsSheet(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}

// OpenWorkspace returns a workspace holding the master named by source: a
// sheet file when source has a sheet extension or exists on disk, a saved
// snapshot otherwise. An empty source gives a workspace without a master.
func OpenWorkspace(ctx context.Context, app application.Application, source string, opts ...boqtools.Option) (boqtools.Workspace, error) {
	if source == "" {
		return app.Workspace(ctx, opts...)
	}

	if IsSheet(source) || fileExists(source) {
		reader, err := app.Reader()
		if err != nil {
			return nil, err
		}
		master, err := reader.ReadMaster(ctx, source)
		if err != nil {
			return nil, err
		}
		return app.Workspace(ctx, append(opts, boqtools.WithMaster(master))...)
	}

	ws, err := app.Workspace(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if err := ws.Load(ctx, source); err != nil {
		return nil, err
	}
	return ws, nil
}

// Format returns the output format configured for app.
func Format(app application.Application) (output.Format, error) {
	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return "", errors.NewValidationError("format", app.OutputFormat(), err.Error())
	}
	return format, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
