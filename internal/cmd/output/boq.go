package output

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/TrendsetAM/BOQ-TOOLS/internal/snapshot"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/comparison"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/constants"
)

// Print writes value in format. Table formats render tables instead of value,
// so commands pass both the raw value and its table form.
func Print(w io.Writer, format Format, value any, tables ...Data) error {
	if format.IsTable() && len(tables) > 0 {
		return NewFormatter(FormatTable).Format(w, tables)
	}
	return NewFormatter(format).Format(w, value)
}

// ResultTables renders a pass as a counts table, the row outcomes and, when
// any were raised, the tolerance warnings.
func ResultTables(res *comparison.Result) []Data {
	c := res.Counts
	summary := Data{
		Headers: []string{"Offer", "Total", "Valid", "Invalid", "Merged", "Added", "Errors"},
		Rows: [][]string{{
			res.Offer.Name, strconv.Itoa(c.Total), strconv.Itoa(c.Valid), strconv.Itoa(c.Invalid),
			strconv.Itoa(c.Merged), strconv.Itoa(c.Added), strconv.Itoa(c.Errors),
		}},
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight},
	}

	outcomes := Data{Headers: []string{"Row", "Outcome", "Position", "Reason"}}
	for _, o := range res.Outcomes {
		outcomes.Rows = append(outcomes.Rows, []string{strconv.Itoa(o.Row), string(o.Outcome), position(o.Position), o.Reason})
	}
	tables := []Data{summary, outcomes}

	if len(res.Warnings) > 0 {
		warnings := Data{
			Headers:         []string{"Row", "Position", "Expected", "Actual", "Allowed"},
			ColumnAlignment: []Align{AlignRight, AlignRight, AlignRight, AlignRight, AlignRight},
		}
		for _, w := range res.Warnings {
			warnings.Rows = append(warnings.Rows, []string{
				strconv.Itoa(w.Row), strconv.Itoa(w.Position), money(w.Expected), money(w.Actual), money(w.Allowed),
			})
		}
		tables = append(tables, warnings)
	}
	return tables
}

// ReportTables renders a validation run as a counts table followed by the
// invalid rows per reason.
func ReportTables(report *comparison.ValidationReport) []Data {
	summary := Data{
		Headers: []string{"Total", "Valid", "Invalid", "Unknown Items"},
		Rows: [][]string{{
			strconv.Itoa(report.Total), strconv.Itoa(report.Valid), strconv.Itoa(report.Invalid), strconv.Itoa(report.Unknown),
		}},
		ColumnAlignment: []Align{AlignRight, AlignRight, AlignRight, AlignRight},
	}
	if len(report.ByReason) == 0 {
		return []Data{summary}
	}

	reasons := Data{Headers: []string{"Reason", "Rows"}, ColumnAlignment: []Align{AlignLeft, AlignRight}}
	for _, reason := range slices.Sorted(maps.Keys(report.ByReason)) {
		reasons.Rows = append(reasons.Rows, []string{reason, strconv.Itoa(report.ByReason[reason])})
	}
	return []Data{summary, reasons}
}

// RowsTable renders validated comparison rows for review.
func RowsTable(rows []*boq.ComparisonRow) Data {
	out := Data{Headers: []string{"Row", "Valid", "Description", "Quantity", "Unit Price", "Total Price", "Reason"}}
	for _, r := range rows {
		valid := "no"
		if r.IsValid {
			valid = "yes"
		}
		out.Rows = append(out.Rows, []string{
			strconv.Itoa(r.Ref), valid, r.Description, r.Quantity, r.UnitPrice, r.TotalPrice, r.Reason,
		})
	}
	return out
}

// MasterTable renders the master's rows. The wide form carries the five
// columns of every offer; the narrow form only the base columns.
func MasterTable(master *boq.MasterDataset, wide bool) Data {
	t := master.Table()
	n := len(t.Headers)
	if !wide {
		n = len(boq.BaseHeaders)
	}

	out := Data{Headers: make([]string, n)}
	for i, h := range t.Headers[:n] {
		out.Headers[i] = header(h)
	}
	for _, row := range t.Strings() {
		out.Rows = append(out.Rows, row[:n])
	}
	return out
}

// SnapshotsTable renders stored snapshots.
func SnapshotsTable(infos []snapshot.Info) Data {
	out := Data{Headers: []string{"Name", "Format", "Saved", "Rows", "Offers"}}
	for _, info := range infos {
		out.Rows = append(out.Rows, []string{
			info.Name,
			info.Format.String(),
			info.SavedAt.Local().Format(constants.TimeFormatDisplay),
			strconv.Itoa(info.Rows),
			strings.Join(info.Offers, ", "),
		})
	}
	return out
}

// header titles a master column, keeping offer names as written.
func header(h string) string {
	if f, offer, ok := boq.ParseOfferColumn(h); ok {
		return Title(f.String()) + " [" + offer + "]"
	}
	return Title(h)
}

func position(p int) string {
	if p == 0 {
		return "-"
	}
	return strconv.Itoa(p)
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
