package boq

import (
	"fmt"
	"strings"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
)

// MasterRef points at a master row by identity. It is a reference only; the
// master row is owned by its dataset.
type MasterRef struct {
	Key           string `json:"key" yaml:"key"`
	InstanceIndex int    `json:"instance_index" yaml:"instance_index"`
	Position      int    `json:"position,omitempty" yaml:"position,omitempty"`
}

// String returns "key#instance".
func (r MasterRef) String() string {
	return fmt.Sprintf("%s#%d", r.Key, r.InstanceIndex)
}

// ComparisonRow is one parsed row of a submitted offer, raw cells plus the
// processing state the engine attaches to it.
type ComparisonRow struct {
	Ref         int    `json:"row" yaml:"row"` // Row identifier used by overrides, 1-based in file order
	Description string `json:"description" yaml:"description"`
	Code        string `json:"code,omitempty" yaml:"code,omitempty"`
	Unit        string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Quantity    string `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	UnitPrice   string `json:"unit_price,omitempty" yaml:"unit_price,omitempty"`
	TotalPrice  string `json:"total_price,omitempty" yaml:"total_price,omitempty"`
	Manhours    string `json:"manhours,omitempty" yaml:"manhours,omitempty"`
	Wage        string `json:"wage,omitempty" yaml:"wage,omitempty"`

	// Processing metadata
	IsValid          bool        `json:"is_valid" yaml:"is_valid"`
	Reason           string      `json:"reason,omitempty" yaml:"reason,omitempty"`
	Values           OfferValues `json:"values" yaml:"values"`
	MatchedMasterKey *MasterRef  `json:"matched_master_key,omitempty" yaml:"matched_master_key,omitempty"`
}

// Key returns the normalized description.
func (r *ComparisonRow) Key() string {
	return NormalizeKey(r.Description)
}

// Raw returns the raw cell of a numeric field.
func (r *ComparisonRow) Raw(f Field) string {
	switch f {
	case FieldQuantity:
		return r.Quantity
	case FieldUnitPrice:
		return r.UnitPrice
	case FieldTotalPrice:
		return r.TotalPrice
	case FieldManhours:
		return r.Manhours
	case FieldWage:
		return r.Wage
	}
	return ""
}

// IsEmpty reports whether every cell of the row is blank.
func (r *ComparisonRow) IsEmpty() bool {
	for _, s := range []string{r.Description, r.Code, r.Unit, r.Quantity, r.UnitPrice, r.TotalPrice, r.Manhours, r.Wage} {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// Clone returns a copy sharing no pointers with r.
func (r *ComparisonRow) Clone() *ComparisonRow {
	out := *r
	out.Values = r.Values.Clone()
	if r.MatchedMasterKey != nil {
		ref := *r.MatchedMasterKey
		out.MatchedMasterKey = &ref
	}
	return &out
}

// ComparisonDataset is a submitted offer's bill, already mapped onto semantic fields.
type ComparisonDataset struct {
	Columns Columns          `json:"columns" yaml:"columns"`
	Rows    []*ComparisonRow `json:"rows" yaml:"rows"`
}

// NewComparisonDataset numbers rows without a Ref in file order.
func NewComparisonDataset(columns Columns, rows []*ComparisonRow) *ComparisonDataset {
	for i, r := range rows {
		if r.Ref == 0 {
			r.Ref = i + 1
		}
	}
	return &ComparisonDataset{Columns: columns, Rows: rows}
}

// CheckColumns reports a SchemaError when nothing in the dataset can be
// matched or priced: description, and quantity or a price column.
func (d *ComparisonDataset) CheckColumns() error {
	var missing []string
	if !d.Columns.Has(FieldDescription) {
		missing = append(missing, FieldDescription.String())
	}
	if !d.Columns.HasAny(FieldQuantity, FieldUnitPrice, FieldTotalPrice) {
		missing = append(missing, "quantity|unit_price|total_price")
	}
	if len(missing) > 0 {
		return errors.NewMissingColumnsError("comparison", missing...)
	}
	refs := make(map[int]struct{}, len(d.Rows))
	for _, r := range d.Rows {
		if _, dup := refs[r.Ref]; dup {
			return &errors.SchemaError{Dataset: "comparison", Message: fmt.Sprintf("duplicate row identifier %d", r.Ref)}
		}
		refs[r.Ref] = struct{}{}
	}
	return nil
}

// Clone returns a deep copy of the dataset.
func (d *ComparisonDataset) Clone() *ComparisonDataset {
	out := &ComparisonDataset{Columns: append(Columns(nil), d.Columns...), Rows: make([]*ComparisonRow, len(d.Rows))}
	for i, r := range d.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}
