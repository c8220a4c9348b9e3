package compare

import (
	"os"
	"slices"
	"strconv"

	"github.com/goccy/go-yaml"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/comparison"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
)

// overrideFile is the layout of an --overrides document:
//
//	overrides:
//	  - row: 12
//	    valid: false
//	    reason: provisional sum
type overrideFile struct {
	Overrides []comparison.Override `yaml:"overrides"`
}

// BuildOverrides collects the overrides from the file and the row flags.
// Flags come last, so they win over the file for the same row.
func BuildOverrides(flags *Flags) ([]comparison.Override, error) {
	var overrides []comparison.Override

	if flags.Overrides != "" {
		data, err := os.ReadFile(flags.Overrides)
		if err != nil {
			return nil, errors.WrapIO("read", flags.Overrides, err)
		}
		var doc overrideFile
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.WrapParse("yaml", flags.Overrides, err)
		}
		overrides = append(overrides, doc.Overrides...)
	}

	for _, row := range flags.Invalidate {
		overrides = append(overrides, comparison.Override{Row: row, Valid: false})
	}
	for _, row := range flags.Validate {
		overrides = append(overrides, comparison.Override{Row: row, Valid: true})
	}

	for _, o := range overrides {
		if o.Row <= 0 {
			return nil, errors.NewValidationError("row", o.Row, "override row must be positive")
		}
	}
	for _, row := range flags.Invalidate {
		if slices.Contains(flags.Validate, row) {
			return nil, errors.NewValidationError("row", row, "row "+strconv.Itoa(row)+" is both invalidated and validated")
		}
	}
	return overrides, nil
}
