package sheets

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/constants"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/logging"
)

// MasterSheet is the worksheet name of an exported master.
const MasterSheet = "Master"

// Export writes the consolidated master to path as .xlsx or .csv, chosen by
// extension. Base columns come first, then five columns per offer in commit
// order. Blank values are empty cells.
func Export(ctx context.Context, master *boq.MasterDataset, path string) error {
	var write func(io.Writer, *boq.MasterDataset) error
	switch format(path) {
	case "xlsx":
		write = WriteWorkbook
	case "csv":
		write = WriteCSV
	default:
		return errors.NewValidationError("path", path, "unsupported export type, expected .xlsx or .csv")
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := write(f, master); err != nil {
		return errors.WrapResource("export", "master", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.WrapIO("close", path, err)
	}

	logging.FromContext(ctx).Info().Str("path", path).Int("rows", master.Len()).Strs("offers", master.OfferNames()).Msg("Master exported")
	return nil
}

// WriteWorkbook writes master as a single-sheet workbook.
func WriteWorkbook(w io.Writer, master *boq.MasterDataset) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", MasterSheet); err != nil {
		return err
	}
	table := master.Table()

	for i, h := range table.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(MasterSheet, cell, h); err != nil {
			return err
		}
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(MasterSheet, 1, 1, headerStyle); err != nil {
		return err
	}

	for r, row := range table.Rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(MasterSheet, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.SetPanes(MasterSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	if err := f.SetColWidth(MasterSheet, "C", "C", 40); err != nil {
		return err
	}
	return f.Write(w)
}

// WriteCSV writes master as comma separated text with a header line.
func WriteCSV(w io.Writer, master *boq.MasterDataset) error {
	table := master.Table()
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(table.Strings()); err != nil {
		return err
	}
	return cw.Error()
}
