package comparison

import (
	"context"
	"fmt"
	"strings"

	"github.com/TrendsetAM/BOQ-TOOLS/internal/matcher"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/logging"
)

// Reasons recorded on automatically invalidated rows.
const (
	ReasonEmpty         = "empty row"
	ReasonSubtotal      = "subtotal row"
	ReasonMissingFields = "missing required fields"
)

// DefaultSubtotalPatterns recognise subtotal, section total and summary lines.
var DefaultSubtotalPatterns = []string{
	"subtotal", "sub total", "sub-total",
	"total for", "total of", "section total", "group total",
	"grand total", "final total", "total project", "project total",
	"overall total", "total amount", "final amount",
	`^\s*totale?\s*:?\s*$`,
}

// Validator classifies comparison rows as structurally usable or not.
// Validity depends on the row alone, never on whether a master counterpart exists.
type Validator struct {
	subtotals *matcher.Set
}

// NewValidator compiles the subtotal patterns.
func NewValidator(patterns []string) (*Validator, error) {
	set, err := matcher.NewSet(patterns)
	if err != nil {
		return nil, errors.NewConfigError("validator", "invalid subtotal pattern", err)
	}
	return &Validator{subtotals: set}, nil
}

// Validate runs the structural checks in order and stops at the first
// failure: empty row, subtotal marker, required fields, numeric fields.
// The row is updated in place and returned.
func (v *Validator) Validate(row *boq.ComparisonRow, _ map[string]struct{}) *boq.ComparisonRow {
	row.IsValid = false
	row.Values = boq.OfferValues{}
	row.MatchedMasterKey = nil

	switch {
	case row.IsEmpty():
		row.Reason = ReasonEmpty
		return row
	case v.isSubtotal(row):
		row.Reason = ReasonSubtotal
		return row
	case blank(row.Description) || (blank(row.Quantity) && blank(row.UnitPrice)):
		row.Reason = ReasonMissingFields
		return row
	}

	values, err := parseValues(row, true)
	if err != nil {
		row.Reason = err.Error()
		return row
	}

	row.IsValid = true
	row.Reason = ""
	row.Values = values
	return row
}

// ValidationReport summarises one validation run.
type ValidationReport struct {
	Total    int            `json:"total" yaml:"total"`
	Valid    int            `json:"valid" yaml:"valid"`
	Invalid  int            `json:"invalid" yaml:"invalid"`
	ByReason map[string]int `json:"by_reason,omitempty" yaml:"by_reason,omitempty"`
	Unknown  int            `json:"unknown" yaml:"unknown"` // valid rows whose key is not in the master
}

// ValidateAll validates every row and aggregates the outcome. Row problems
// never abort the run.
func (v *Validator) ValidateAll(ctx context.Context, rows []*boq.ComparisonRow, masterKeys map[string]struct{}) *ValidationReport {
	report := &ValidationReport{Total: len(rows), ByReason: map[string]int{}}
	for _, row := range rows {
		v.Validate(row, masterKeys)
		if !row.IsValid {
			report.Invalid++
			report.ByReason[reasonClass(row.Reason)]++
			continue
		}
		report.Valid++
		if _, ok := masterKeys[row.Key()]; !ok {
			report.Unknown++
		}
	}

	logging.FromContext(ctx).Debug().
		Int("total", report.Total).
		Int("valid", report.Valid).
		Int("invalid", report.Invalid).
		Int("unknown_items", report.Unknown).
		Msg("Rows validated")
	return report
}

func (v *Validator) isSubtotal(row *boq.ComparisonRow) bool {
	if v.subtotals.Match(row.Description) {
		return true
	}
	return blank(row.Quantity) && blank(row.UnitPrice) && blank(row.Manhours) && blank(row.Wage) &&
		!blank(row.TotalPrice)
}

// parseValues parses the numeric cells. In strict mode the first bad or
// negative value is an error; otherwise unparseable cells are left blank.
func parseValues(row *boq.ComparisonRow, strict bool) (boq.OfferValues, error) {
	var values boq.OfferValues
	for _, f := range boq.ValueFields {
		n, err := boq.ParseNumber(row.Raw(f))
		if err != nil {
			if strict {
				return boq.OfferValues{}, fmt.Errorf("invalid number in %s", f)
			}
			continue
		}
		if strict && n != nil && *n < 0 {
			return boq.OfferValues{}, fmt.Errorf("negative value in %s", f)
		}
		values.Set(f, n)
	}
	return values, nil
}

// reasonClass groups field-specific reasons for reporting.
func reasonClass(reason string) string {
	for _, prefix := range []string{"invalid number", "negative value"} {
		if strings.HasPrefix(reason, prefix) {
			return prefix
		}
	}
	return reason
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
