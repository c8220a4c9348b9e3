package comparison

import (
	"fmt"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/constants"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
)

// Override is an operator decision on one comparison row.
type Override struct {
	Row    int    `json:"row" yaml:"row"`                           // ComparisonRow.Ref
	Valid  bool   `json:"valid" yaml:"valid"`                       // New validity
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"` // Operator note
}

// ApplyOverrides returns a copy of rows with the overrides applied. The input
// is not modified and applying the same overrides twice gives the same rows.
// Invalidating without a note records "manual override"; validating without
// a note clears the reason. A manually validated row keeps whatever numeric
// cells parse, the rest stay blank.
func ApplyOverrides(rows []*boq.ComparisonRow, overrides []Override) ([]*boq.ComparisonRow, error) {
	out := make([]*boq.ComparisonRow, len(rows))
	index := make(map[int]*boq.ComparisonRow, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
		index[r.Ref] = out[i]
	}

	var unknown []int
	for _, o := range overrides {
		row, ok := index[o.Row]
		if !ok {
			unknown = append(unknown, o.Row)
			continue
		}
		if o.Valid {
			if !row.IsValid {
				row.Values, _ = parseValues(row, false)
			}
			row.IsValid = true
			row.Reason = o.Reason
			continue
		}
		row.IsValid = false
		row.Values = boq.OfferValues{}
		row.Reason = o.Reason
		if row.Reason == "" {
			row.Reason = constants.ManualOverrideReason
		}
	}

	if len(unknown) > 0 {
		return nil, errors.NewValidationError("row", unknown, fmt.Sprintf("no comparison row with identifier %v", unknown))
	}
	return out, nil
}
