package boq

import (
	"strings"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
)

// OfferInfo identifies a comparison source.
type OfferInfo struct {
	Name  string `json:"name" yaml:"name"`                       // Unique within a master
	Date  string `json:"date,omitempty" yaml:"date,omitempty"`   // Submission date as supplied by the operator
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"` // Free text
}

// Validate checks the offer name is usable as a column namespace.
func (o OfferInfo) Validate() error {
	switch {
	case strings.TrimSpace(o.Name) == "":
		return errors.NewValidationError("name", o.Name, "offer name is required")
	case strings.ContainsAny(o.Name, "[]"):
		return errors.NewValidationError("name", o.Name, "offer name must not contain brackets")
	}
	return nil
}

// OfferColumn returns the namespaced column of field f for offer, e.g. "quantity[BidderX]".
func OfferColumn(f Field, offer string) string {
	return f.String() + "[" + offer + "]"
}

// ParseOfferColumn splits a namespaced column into its field and offer.
func ParseOfferColumn(column string) (Field, string, bool) {
	open := strings.IndexByte(column, '[')
	if open <= 0 || !strings.HasSuffix(column, "]") {
		return "", "", false
	}
	f, ok := ParseField(column[:open])
	if !ok {
		return "", "", false
	}
	offer := column[open+1 : len(column)-1]
	return f, offer, offer != ""
}
