// Package boq holds the bill-of-quantities data model shared by the comparison
// engine, the sheet adapters and the snapshot stores: master rows with their
// per-offer value records, parsed comparison rows, and the helpers that turn a
// description into a matching key and a spreadsheet cell into a number.
package boq

import "slices"

// Field is a semantic column of a bill of quantities.
type Field string

// Semantic fields. Column detection happens outside the engine; datasets
// arrive already mapped onto these names.
const (
	FieldDescription Field = "description"
	FieldCode        Field = "code"
	FieldUnit        Field = "unit"
	FieldCategory    Field = "category"
	FieldQuantity    Field = "quantity"
	FieldUnitPrice   Field = "unit_price"
	FieldTotalPrice  Field = "total_price"
	FieldManhours    Field = "manhours"
	FieldWage        Field = "wage"
)

// String returns the string representation of a Field.
func (f Field) String() string {
	return string(f)
}

// ValueFields are the five numeric fields carried per offer, in export order.
var ValueFields = []Field{FieldQuantity, FieldUnitPrice, FieldTotalPrice, FieldManhours, FieldWage}

// AllFields lists every semantic field in canonical order.
var AllFields = []Field{
	FieldCode, FieldDescription, FieldUnit, FieldCategory,
	FieldQuantity, FieldUnitPrice, FieldTotalPrice, FieldManhours, FieldWage,
}

// ParseField returns the Field named s, if any.
func ParseField(s string) (Field, bool) {
	f := Field(s)
	return f, slices.Contains(AllFields, f)
}

// Columns is the set of semantic fields a dataset carries.
type Columns []Field

// Has reports whether f is present.
func (c Columns) Has(f Field) bool {
	return slices.Contains(c, f)
}

// HasAny reports whether at least one of fs is present.
func (c Columns) HasAny(fs ...Field) bool {
	for _, f := range fs {
		if c.Has(f) {
			return true
		}
	}
	return false
}

// Missing returns the required fields absent from c, as strings for error reporting.
func (c Columns) Missing(required ...Field) []string {
	var missing []string
	for _, f := range required {
		if !c.Has(f) {
			missing = append(missing, f.String())
		}
	}
	return missing
}
