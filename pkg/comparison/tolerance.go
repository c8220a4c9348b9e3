package comparison

import (
	"github.com/shopspring/decimal"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
)

// Tolerance bounds the drift of a total price from quantity × unit price.
type Tolerance struct {
	Relative float64 `json:"relative" yaml:"relative"`
	Absolute float64 `json:"absolute" yaml:"absolute"`
}

// Check compares the total against quantity × unit price using decimal
// arithmetic. Records missing any of the three values are not checked.
func (t Tolerance) Check(v boq.OfferValues) (expected, actual, allowed float64, ok bool) {
	if v.Quantity == nil || v.UnitPrice == nil || v.TotalPrice == nil {
		return 0, 0, 0, true
	}
	exp := decimal.NewFromFloat(*v.Quantity).Mul(decimal.NewFromFloat(*v.UnitPrice))
	act := decimal.NewFromFloat(*v.TotalPrice)
	lim := exp.Abs().Mul(decimal.NewFromFloat(t.Relative)).Add(decimal.NewFromFloat(t.Absolute))

	expected, _ = exp.Float64()
	actual, _ = act.Float64()
	allowed, _ = lim.Float64()
	return expected, actual, allowed, act.Sub(exp).Abs().LessThanOrEqual(lim)
}
