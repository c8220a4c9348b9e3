package comparison_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/comparison"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/logging"
)

var testColumns = boq.Columns{
	boq.FieldDescription, boq.FieldCode, boq.FieldUnit,
	boq.FieldQuantity, boq.FieldUnitPrice, boq.FieldTotalPrice,
}

// item builds a master row with base quantity and unit price.
func item(desc string, qty, price float64) *boq.MasterRow {
	return &boq.MasterRow{
		Description: desc,
		Unit:        "m3",
		Category:    "Civil",
		Base:        boq.OfferValues{Quantity: boq.Float(qty), UnitPrice: boq.Float(price), TotalPrice: boq.Float(qty * price)},
	}
}

func newMaster(t *testing.T, rows ...*boq.MasterRow) *boq.MasterDataset {
	t.Helper()
	ds, err := boq.NewMasterDataset(testColumns, rows)
	require.NoError(t, err)
	return ds
}

// offerRow builds a raw comparison row.
func offerRow(desc, qty, price, total string) *boq.ComparisonRow {
	return &boq.ComparisonRow{Description: desc, Unit: "m3", Quantity: qty, UnitPrice: price, TotalPrice: total}
}

func newComparison(rows ...*boq.ComparisonRow) *boq.ComparisonDataset {
	return boq.NewComparisonDataset(testColumns, rows)
}

func newSession(t *testing.T, opts ...comparison.Option) *comparison.Session {
	t.Helper()
	logging.DisableLoggingForTest(t)
	s, err := comparison.NewSession(opts...)
	require.NoError(t, err)
	return s
}

// runPass drives a session from EMPTY through Cleanup.
func runPass(t *testing.T, s *comparison.Session, master *boq.MasterDataset, ds *boq.ComparisonDataset, offer string, overrides ...comparison.Override) (*comparison.Result, error) {
	t.Helper()
	ctx := context.Background()
	if err := s.LoadMaster(ctx, master); err != nil {
		return nil, err
	}
	if err := s.LoadComparison(ctx, ds, boq.OfferInfo{Name: offer, Date: "2026-10-01"}); err != nil {
		return nil, err
	}
	_, err := s.ValidateRows(ctx)
	require.NoError(t, err)
	if len(overrides) > 0 {
		require.NoError(t, s.ApplyOverrides(ctx, overrides))
	}
	require.NoError(t, s.ConfirmReview(ctx))
	require.NoError(t, s.ProcessValidRows(ctx))
	return s.Cleanup(ctx)
}

func outcomes(res *comparison.Result) []comparison.Outcome {
	out := make([]comparison.Outcome, len(res.Outcomes))
	for i, o := range res.Outcomes {
		out[i] = o.Outcome
	}
	return out
}
