// Package sheets reads bills of quantities from spreadsheets and writes the
// consolidated master back out. Workbooks go through excelize; CSV files
// through encoding/csv.
package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/logging"
)

// headerScanDepth is how many leading rows are searched for a header row.
const headerScanDepth = 25

// Reader loads master and comparison datasets from .xlsx and .csv files.
type Reader struct {
	mapper *Mapper
	sheet  string
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithAliases replaces the header alias table.
func WithAliases(a Aliases) ReaderOption {
	return func(r *Reader) {
		r.mapper = NewMapper(a)
	}
}

// WithSheet selects the worksheet to read instead of the first one.
func WithSheet(name string) ReaderOption {
	return func(r *Reader) {
		r.sheet = name
	}
}

// NewReader creates a reader using DefaultAliases unless configured otherwise.
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{mapper: NewMapper(DefaultAliases)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// grid is a sheet's cells with the located header row.
type grid struct {
	path    string
	rows    [][]string
	lines   []int // spreadsheet row number of each entry in rows
	header  int   // index into rows
	mapping Mapping
}

// cell returns column i of row, empty when the row is short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ReadMaster reads a master bill. Rows without any text or value are skipped.
// A position column, when present, keeps the positions of an exported
// master; offer columns such as "quantity[BidderX]" restore committed offers.
func (r *Reader) ReadMaster(ctx context.Context, path string) (*boq.MasterDataset, error) {
	g, err := r.load(path)
	if err != nil {
		return nil, err
	}

	var rows []*boq.MasterRow
	for i := g.header + 1; i < len(g.rows); i++ {
		line := g.rows[i]
		row := &boq.MasterRow{}
		blank := true
		for col, f := range g.mapping.Fields {
			raw := cell(line, col)
			if raw == "" {
				continue
			}
			blank = false
			if err := setMaster(row, f, raw); err != nil {
				return nil, lineError(path, g.lines[i], err.Error(), err)
			}
		}
		for col, oc := range g.mapping.Offers {
			raw := cell(line, col)
			if raw == "" {
				continue
			}
			v, err := boq.ParseNumber(raw)
			if err != nil {
				return nil, lineError(path, g.lines[i], err.Error(), err)
			}
			if row.Offers == nil {
				row.Offers = make(map[string]boq.OfferValues)
			}
			values := row.Offers[oc.Offer]
			values.Set(oc.Field, v)
			row.Offers[oc.Offer] = values
		}
		if blank {
			continue
		}
		if raw := cell(line, g.mapping.Position); raw != "" {
			pos, err := strconv.Atoi(raw)
			if err != nil || pos <= 0 {
				return nil, lineError(path, g.lines[i], fmt.Sprintf("invalid position %q", raw), err)
			}
			row.Position = pos
		}
		rows = append(rows, row)
	}

	offers := make([]boq.OfferInfo, len(g.mapping.Names))
	for i, name := range g.mapping.Names {
		offers[i] = boq.OfferInfo{Name: name}
	}
	ds, err := boq.NewMasterDataset(g.mapping.Columns, rows, offers...)
	if err != nil {
		return nil, &errors.SchemaError{Dataset: "master", Message: err.Error()}
	}

	logging.FromContext(ctx).Debug().Str("path", path).Int("rows", ds.Len()).Strs("offers", g.mapping.Names).Msg("Master read")
	return ds, nil
}

// ReadComparison reads an offer's bill as raw text cells. Row references are
// the spreadsheet row numbers, so operators can name rows as they see them.
// Rows of empty cells are kept for the validator to reject.
func (r *Reader) ReadComparison(ctx context.Context, path string) (*boq.ComparisonDataset, error) {
	g, err := r.load(path)
	if err != nil {
		return nil, err
	}

	rows := make([]*boq.ComparisonRow, 0, len(g.rows)-g.header-1)
	for i := g.header + 1; i < len(g.rows); i++ {
		row := &boq.ComparisonRow{Ref: g.lines[i]}
		for col, f := range g.mapping.Fields {
			setComparison(row, f, cell(g.rows[i], col))
		}
		rows = append(rows, row)
	}

	ds := boq.NewComparisonDataset(g.mapping.Columns, rows)
	logging.FromContext(ctx).Debug().Str("path", path).Int("rows", len(rows)).Msg("Comparison read")
	return ds, nil
}

// load reads the cells of path and locates the header row.
func (r *Reader) load(path string) (*grid, error) {
	var rows [][]string
	var lines []int
	var err error
	switch format(path) {
	case "xlsx":
		rows, err = r.readWorkbook(path)
		lines = make([]int, len(rows))
		for i := range lines {
			lines[i] = i + 1
		}
	case "csv":
		rows, lines, err = readCSV(path)
	default:
		return nil, errors.NewValidationError("path", path, "unsupported file type, expected .xlsx or .csv")
	}
	if err != nil {
		return nil, err
	}

	best, header := 0, -1
	for i := 0; i < len(rows) && i < headerScanDepth; i++ {
		if s := r.mapper.score(rows[i]); s > best {
			best, header = s, i
		}
	}
	if header < 0 {
		return nil, &errors.SchemaError{
			Dataset: filepath.Base(path),
			Missing: []string{boq.FieldDescription.String()},
			Message: "no header row with a description and a value column",
		}
	}
	return &grid{path: path, rows: rows, lines: lines, header: header, mapping: r.mapper.Map(rows[header])}, nil
}

func (r *Reader) readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	sheet := r.sheet
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, errors.NewNotFoundError("sheet", sheet)
	}
	// Raw values, so a number styled "#,##0" is not read back as "1,500".
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.NewParseError("xlsx", path, "reading sheet "+sheet, err)
	}
	return rows, nil
}

// readCSV reads a comma or semicolon separated file, choosing the separator
// that appears more often in the leading lines. Blank lines are skipped by
// the csv reader, so each record's line number is returned alongside.
func readCSV(path string) ([][]string, []int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.WrapIO("read", path, err)
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = separator(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	var lines []int
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.NewParseError("csv", path, "reading records", err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, record)
		lines = append(lines, line)
	}
	return rows, lines, nil
}

func separator(data []byte) rune {
	lines := bytes.SplitN(data, []byte("\n"), headerScanDepth+1)
	sample := bytes.Join(lines[:min(len(lines), headerScanDepth)], nil)
	if bytes.Count(sample, []byte(";")) > bytes.Count(sample, []byte(",")) {
		return ';'
	}
	return ','
}

func lineError(path string, line int, msg string, err error) *errors.ParseError {
	return &errors.ParseError{Format: format(path), File: path, Line: line, Message: msg, Err: err}
}

func format(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

func setMaster(row *boq.MasterRow, f boq.Field, raw string) error {
	switch f {
	case boq.FieldDescription:
		row.Description = raw
	case boq.FieldCode:
		row.Code = raw
	case boq.FieldUnit:
		row.Unit = raw
	case boq.FieldCategory:
		row.Category = raw
	default:
		v, err := boq.ParseNumber(raw)
		if err != nil {
			return err
		}
		row.Base.Set(f, v)
	}
	return nil
}

func setComparison(row *boq.ComparisonRow, f boq.Field, raw string) {
	switch f {
	case boq.FieldDescription:
		row.Description = raw
	case boq.FieldCode:
		row.Code = raw
	case boq.FieldUnit:
		row.Unit = raw
	case boq.FieldQuantity:
		row.Quantity = raw
	case boq.FieldUnitPrice:
		row.UnitPrice = raw
	case boq.FieldTotalPrice:
		row.TotalPrice = raw
	case boq.FieldManhours:
		row.Manhours = raw
	case boq.FieldWage:
		row.Wage = raw
	}
}
