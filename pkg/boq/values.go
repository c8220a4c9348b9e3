package boq

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// OfferValues is the fixed-shape value record of one row for one offer.
// A nil field means the cell was blank, which is distinct from zero.
type OfferValues struct {
	Quantity   *float64 `json:"quantity" yaml:"quantity"`
	UnitPrice  *float64 `json:"unit_price" yaml:"unit_price"`
	TotalPrice *float64 `json:"total_price" yaml:"total_price"`
	Manhours   *float64 `json:"manhours" yaml:"manhours"`
	Wage       *float64 `json:"wage" yaml:"wage"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Get returns the value of a numeric field, nil for blank or non-numeric fields.
func (v OfferValues) Get(f Field) *float64 {
	switch f {
	case FieldQuantity:
		return v.Quantity
	case FieldUnitPrice:
		return v.UnitPrice
	case FieldTotalPrice:
		return v.TotalPrice
	case FieldManhours:
		return v.Manhours
	case FieldWage:
		return v.Wage
	}
	return nil
}

// Set assigns a numeric field. Non-numeric fields are ignored.
func (v *OfferValues) Set(f Field, value *float64) {
	switch f {
	case FieldQuantity:
		v.Quantity = value
	case FieldUnitPrice:
		v.UnitPrice = value
	case FieldTotalPrice:
		v.TotalPrice = value
	case FieldManhours:
		v.Manhours = value
	case FieldWage:
		v.Wage = value
	}
}

// Clone returns a copy that shares no pointers with v.
func (v OfferValues) Clone() OfferValues {
	var out OfferValues
	for _, f := range ValueFields {
		if p := v.Get(f); p != nil {
			out.Set(f, Float(*p))
		}
	}
	return out
}

// Equal reports whether both records hold the same values and blanks.
func (v OfferValues) Equal(o OfferValues) bool {
	for _, f := range ValueFields {
		a, b := v.Get(f), o.Get(f)
		if (a == nil) != (b == nil) {
			return false
		}
		if a != nil && *a != *b {
			return false
		}
	}
	return true
}

// IsBlank reports whether every field is blank.
func (v OfferValues) IsBlank() bool {
	for _, f := range ValueFields {
		if v.Get(f) != nil {
			return false
		}
	}
	return true
}

// numberReplacer drops currency symbols, spaces and grouping apostrophes.
var numberReplacer = strings.NewReplacer(
	"$", "", "€", "", "£", "", "¥", "", "₹", "",
	" ", "", "\u00a0", "", "\t", "", "'", "",
)

// thousandsComma matches a single grouping comma, as in "1,500".
var thousandsComma = regexp.MustCompile(`^[-+]?\d{1,3},\d{3}$`)

// ParseNumber converts a spreadsheet cell into a number. Blank input returns
// nil without error. Currency symbols, spaces and NBSP are stripped. When both
// separators appear the last one is the decimal mark. A lone comma followed by
// exactly three digits groups thousands ("1,500"); any other lone comma is a
// decimal comma ("12,5"). Several commas are thousands separators.
func ParseNumber(raw string) (*float64, error) {
	s := numberReplacer.Replace(strings.TrimSpace(raw))
	if s == "" {
		return nil, nil
	}

	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0 && strings.Count(s, ",") == 1 && !thousandsComma.MatchString(s):
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", raw, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("parse %q: not a finite number", raw)
	}
	return &f, nil
}

// FormatNumber renders a value for display, empty for blank.
func FormatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
