package boq

import "strconv"

// Table is the flattened, uniform view of a master handed to exporters.
// Every row carries a cell for every offer seen so far; absent offer values
// are nil cells, never omitted columns.
type Table struct {
	Headers []string `json:"headers" yaml:"headers"`
	Rows    [][]any  `json:"rows" yaml:"rows"`
}

// BaseHeaders are the leading columns of every exported master.
var BaseHeaders = []string{
	"position", FieldCode.String(), FieldDescription.String(), FieldUnit.String(), FieldCategory.String(),
	FieldQuantity.String(), FieldUnitPrice.String(), FieldTotalPrice.String(), FieldManhours.String(), FieldWage.String(),
}

// Table flattens the master. Text cells are strings, numeric cells are
// float64 or nil when blank.
func (d *MasterDataset) Table() Table {
	offers := d.OfferNames()
	headers := append([]string(nil), BaseHeaders...)
	for _, o := range offers {
		for _, f := range ValueFields {
			headers = append(headers, OfferColumn(f, o))
		}
	}

	rows := make([][]any, 0, len(d.Rows))
	for _, r := range d.Rows {
		row := make([]any, 0, len(headers))
		row = append(row, r.Position, r.Code, r.Description, r.Unit, r.Category)
		row = appendValues(row, r.Base, true)
		for _, o := range offers {
			v, ok := r.Offers[o]
			row = appendValues(row, v, ok)
		}
		rows = append(rows, row)
	}
	return Table{Headers: headers, Rows: rows}
}

func appendValues(row []any, v OfferValues, present bool) []any {
	for _, f := range ValueFields {
		p := v.Get(f)
		if !present || p == nil {
			row = append(row, nil)
			continue
		}
		row = append(row, *p)
	}
	return row
}

// Strings renders the table as text cells, blanks as empty strings.
func (t Table) Strings() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, c := range row {
			switch v := c.(type) {
			case nil:
			case string:
				cells[j] = v
			case int:
				cells[j] = strconv.Itoa(v)
			case float64:
				cells[j] = FormatNumber(&v)
			}
		}
		out[i] = cells
	}
	return out
}
