package comparison_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/comparison"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/logging"
)

func TestSessionMergesMatchedOffer(t *testing.T) {
	master := newMaster(t, item("Concrete", 10, 5))
	s := newSession(t)

	res, err := runPass(t, s, master, newComparison(offerRow("Concrete", "12", "5", "60")), "BidderX")
	require.NoError(t, err)

	assert.Equal(t, comparison.StateFinalized, s.State())
	assert.Equal(t, comparison.Counts{Total: 1, Valid: 1, Merged: 1}, res.Counts)
	assert.Equal(t, []comparison.Outcome{comparison.OutcomeMerged}, outcomes(res))
	assert.True(t, res.IsSuccess())
	assert.False(t, res.HasWarnings())

	require.Equal(t, 1, master.Len())
	row := master.Rows[0]
	assert.Equal(t, 10.0, *row.Base.Quantity, "base values are never touched by a merge")
	offer, ok := row.Offer("BidderX")
	require.True(t, ok)
	assert.Equal(t, 12.0, *offer.Quantity)
	assert.Equal(t, 60.0, *offer.TotalPrice)
	assert.Equal(t, []string{"BidderX"}, master.OfferNames())
	assert.Same(t, master, res.Master)
}

func TestSessionAddsToEmptyMaster(t *testing.T) {
	master := newMaster(t)
	s := newSession(t)

	res, err := runPass(t, s, master, newComparison(offerRow("Fencing", "100", "2", "200")), "BidderY")
	require.NoError(t, err)

	assert.Equal(t, comparison.Counts{Total: 1, Valid: 1, Added: 1}, res.Counts)
	require.Equal(t, 1, master.Len())
	row := master.Rows[0]
	assert.Equal(t, 1, row.Position)
	assert.Equal(t, "fencing", row.Key)
	assert.Equal(t, 100.0, *row.Base.Quantity)
	assert.Empty(t, row.Category)
	_, ok := row.Offer("BidderY")
	assert.True(t, ok)

	o, ok := res.Outcome(1)
	require.True(t, ok)
	assert.Equal(t, 1, o.Position)
}

func TestSessionSkipsInvalidRows(t *testing.T) {
	master := newMaster(t, item("Concrete", 10, 5))
	before := master.Clone()
	s := newSession(t)

	res, err := runPass(t, s, master, newComparison(
		&boq.ComparisonRow{Unit: "m3", UnitPrice: "4"},
		offerRow("Subtotal", "", "", "40"),
	), "BidderZ")
	require.NoError(t, err)

	assert.Equal(t, comparison.Counts{Total: 2, Invalid: 2}, res.Counts)
	assert.Equal(t, []comparison.Outcome{comparison.OutcomeSkippedInvalid, comparison.OutcomeSkippedInvalid}, outcomes(res))
	assert.Equal(t, comparison.ReasonMissingFields, res.Outcomes[0].Reason)
	assert.Equal(t, comparison.ReasonSubtotal, res.Outcomes[1].Reason)

	assert.Equal(t, before.Rows, master.Rows, "invalid rows have no effect on the master")
	assert.True(t, master.HasOffer("BidderZ"), "the offer is registered even when nothing merged")
}

func TestSessionAlignsRepeatedDescriptions(t *testing.T) {
	master := newMaster(t, item("Excavation", 10, 2), item("Concrete", 5, 80), item("Excavation", 20, 2))
	s := newSession(t)

	res, err := runPass(t, s, master, newComparison(
		offerRow("Excavation", "11", "2", "22"),
		offerRow("Excavation", "21", "2", "42"),
		offerRow("Excavation", "31", "2", "62"),
	), "BidderX")
	require.NoError(t, err)

	assert.Equal(t, []comparison.Outcome{comparison.OutcomeMerged, comparison.OutcomeMerged, comparison.OutcomeAdded}, outcomes(res))
	require.Equal(t, 4, master.Len())
	added := master.Rows[3]
	assert.Equal(t, 4, added.Position)
	assert.Equal(t, 2, added.InstanceIndex)
	assert.Equal(t, 31.0, *added.Base.Quantity)
	assert.Equal(t, 3, master.InstanceCount("excavation"))
	require.NoError(t, master.Validate())
}

func TestSessionRowCountProperty(t *testing.T) {
	master := newMaster(t, item("Concrete", 10, 5), item("Steel", 2, 900), item("Gravel", 30, 12))
	s := newSession(t)
	baseBefore := make(map[int]boq.OfferValues)
	for _, r := range master.Rows {
		baseBefore[r.Position] = r.Base.Clone()
	}

	res, err := runPass(t, s, master, newComparison(
		offerRow("Concrete", "11", "5", "55"),
		offerRow("Gate", "1", "300", "300"),
		offerRow("Steel", "2", "950", "1900"),
		offerRow("Subtotal", "", "", "2255"),
		offerRow("Lighting", "4", "50", "200"),
	), "BidderX")
	require.NoError(t, err)

	c := res.Counts
	assert.Equal(t, 3+c.Added, master.Len())
	assert.Equal(t, c.Total, c.Valid+c.Invalid)
	assert.Equal(t, 2, c.Merged)
	assert.Equal(t, 2, c.Added)

	for _, r := range master.Rows {
		if base, ok := baseBefore[r.Position]; ok {
			assert.True(t, r.Base.Equal(base), "base values of position %d changed", r.Position)
		}
	}
	assert.Equal(t, 4, master.Rows[3].Position)
	assert.Equal(t, 5, master.Rows[4].Position)
}

func TestSessionToleranceWarnings(t *testing.T) {
	master := newMaster(t, item("Concrete", 10, 5))
	s := newSession(t)

	res, err := runPass(t, s, master, newComparison(
		offerRow("Concrete", "12", "5", "70"),
		offerRow("Gate", "1", "300", "300.5"),
	), "BidderX")
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	w := res.Warnings[0]
	assert.Equal(t, 1, w.Row)
	assert.Equal(t, 1, w.Position)
	assert.Equal(t, 60.0, w.Expected)
	assert.Equal(t, 70.0, w.Actual)
	assert.True(t, res.HasWarnings())
	assert.Contains(t, res.Summary(), "1 tolerance warnings")

	offer, _ := master.Rows[0].Offer("BidderX")
	assert.Equal(t, 70.0, *offer.TotalPrice, "values are stored as submitted")
}

func TestSessionOverrides(t *testing.T) {
	master := newMaster(t, item("Concrete", 10, 5))
	s := newSession(t)

	res, err := runPass(t, s, master, newComparison(
		offerRow("Concrete", "12", "5", "60"),
		offerRow("Provisional sum", "", "", "1000"),
	), "BidderX",
		comparison.Override{Row: 1, Valid: false, Reason: "excluded by reviewer"},
		comparison.Override{Row: 2, Valid: true},
	)
	require.NoError(t, err)

	assert.Equal(t, []comparison.Outcome{comparison.OutcomeSkippedInvalid, comparison.OutcomeAdded}, outcomes(res))
	assert.Equal(t, "excluded by reviewer", res.Outcomes[0].Reason)
	_, merged := master.Rows[0].Offer("BidderX")
	assert.False(t, merged)
	require.Equal(t, 2, master.Len())
	assert.Equal(t, 1000.0, *master.Rows[1].Base.TotalPrice)
}

func TestSessionOverridesAfterReview(t *testing.T) {
	ctx := context.Background()
	master := newMaster(t, item("Concrete", 10, 5))
	s := newSession(t)

	require.NoError(t, s.LoadMaster(ctx, master))
	require.NoError(t, s.LoadComparison(ctx, newComparison(offerRow("Concrete", "12", "5", "60")), boq.OfferInfo{Name: "BidderX"}))
	_, err := s.ValidateRows(ctx)
	require.NoError(t, err)
	require.NoError(t, s.ConfirmReview(ctx))

	require.NoError(t, s.ApplyOverrides(ctx, []comparison.Override{{Row: 1, Valid: false}}))
	assert.Equal(t, comparison.StateRowsReviewed, s.State())
	rows := s.Rows()
	require.Len(t, rows, 1)
	assert.False(t, rows[0].IsValid)
	assert.Equal(t, "manual override", rows[0].Reason)

	_, err = s.ValidateRows(ctx)
	var stateErr *errors.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "ROWS_REVIEWED", stateErr.State)
}

func TestSessionWarnsOnNamelessManualRow(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	logs := logging.CaptureLoggingForTest(t)

	require.NoError(t, s.LoadMaster(ctx, newMaster(t, item("Concrete", 10, 5))))
	require.NoError(t, s.LoadComparison(ctx, newComparison(
		offerRow("Concrete", "12", "5", "60"),
		offerRow("", "1", "250", "250"),
	), boq.OfferInfo{Name: "BidderX"}))
	_, err := s.ValidateRows(ctx)
	require.NoError(t, err)
	assert.False(t, logs.Contains("nameless item"), "automatically rejected rows are not reported")

	require.NoError(t, s.ApplyOverrides(ctx, []comparison.Override{{Row: 2, Valid: true}}))
	assert.True(t, logs.Contains("nameless item"))
	assert.True(t, logs.Contains(`"row":2`))
}

func TestSessionRevalidateResetsOverrides(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	require.NoError(t, s.LoadMaster(ctx, newMaster(t, item("Concrete", 10, 5))))
	require.NoError(t, s.LoadComparison(ctx, newComparison(offerRow("Concrete", "12", "5", "60")), boq.OfferInfo{Name: "BidderX"}))
	_, err := s.ValidateRows(ctx)
	require.NoError(t, err)
	require.NoError(t, s.ApplyOverrides(ctx, []comparison.Override{{Row: 1, Valid: false}}))
	assert.False(t, s.Rows()[0].IsValid)

	report, err := s.ValidateRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Valid)
	assert.True(t, s.Rows()[0].IsValid)
	assert.Equal(t, comparison.StateRowsValidated, s.State())
}

func TestSessionRejectsUnknownOverride(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	require.NoError(t, s.LoadMaster(ctx, newMaster(t)))
	require.NoError(t, s.LoadComparison(ctx, newComparison(offerRow("Fencing", "1", "1", "")), boq.OfferInfo{Name: "BidderX"}))
	_, err := s.ValidateRows(ctx)
	require.NoError(t, err)

	err = s.ApplyOverrides(ctx, []comparison.Override{{Row: 1, Valid: false}, {Row: 9, Valid: false}})
	assert.True(t, errors.IsValidationError(err))
	assert.True(t, s.Rows()[0].IsValid, "a rejected batch applies nothing")
	assert.Equal(t, comparison.StateRowsValidated, s.State())
}

func TestSessionOfferCollision(t *testing.T) {
	master := newMaster(t, item("Concrete", 10, 5))
	_, err := runPass(t, newSession(t), master, newComparison(offerRow("Concrete", "12", "5", "60")), "BidderX")
	require.NoError(t, err)
	committed := master.Clone()

	s := newSession(t)
	ctx := context.Background()
	require.NoError(t, s.LoadMaster(ctx, master))
	err = s.LoadComparison(ctx, newComparison(offerRow("Concrete", "13", "5", "65")), boq.OfferInfo{Name: "BidderX"})
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
	assert.True(t, errors.IsFatal(err))
	assert.Equal(t, comparison.StateFailed, s.State())
	assert.Equal(t, err, s.Err())
	assert.Equal(t, committed, master)
}

func TestSessionMissingColumnsFail(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	require.NoError(t, s.LoadMaster(ctx, newMaster(t, item("Concrete", 10, 5))))

	ds := boq.NewComparisonDataset(boq.Columns{boq.FieldCode, boq.FieldUnit}, nil)
	err := s.LoadComparison(ctx, ds, boq.OfferInfo{Name: "BidderX"})
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
	assert.Equal(t, comparison.StateFailed, s.State())

	_, err = s.ValidateRows(ctx)
	assert.ErrorIs(t, err, errors.ErrSessionFailed)
	assert.True(t, errors.IsSchemaError(err), "the failure cause is carried")
}

func TestSessionInvalidMasterFails(t *testing.T) {
	master := newMaster(t, item("Concrete", 10, 5), item("Steel", 1, 1))
	master.Rows[1].Position = 1

	s := newSession(t)
	err := s.LoadMaster(context.Background(), master)
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
	assert.Equal(t, comparison.StateFailed, s.State())
}

func TestSessionInvalidOfferName(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	require.NoError(t, s.LoadMaster(ctx, newMaster(t)))

	err := s.LoadComparison(ctx, newComparison(), boq.OfferInfo{Name: " "})
	assert.True(t, errors.IsValidationError(err))
	assert.Equal(t, comparison.StateMasterLoaded, s.State(), "an invalid name does not fail the session")
}

func TestSessionWrongStateIsNotFatal(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	_, err := s.Cleanup(ctx)
	var stateErr *errors.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "cleanup", stateErr.Operation)
	assert.Equal(t, "EMPTY", stateErr.State)
	assert.Equal(t, []string{"APPLIED"}, stateErr.Allowed)
	assert.ErrorIs(t, err, errors.ErrInvalidState)
	assert.Equal(t, comparison.StateEmpty, s.State())

	require.NoError(t, s.LoadMaster(ctx, newMaster(t)))
	assert.Error(t, s.LoadMaster(ctx, newMaster(t)))
	assert.Error(t, s.ConfirmReview(ctx))
	assert.Equal(t, comparison.StateMasterLoaded, s.State())
}

func TestSessionCanceledContext(t *testing.T) {
	s := newSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.LoadMaster(ctx, newMaster(t))
	assert.ErrorIs(t, err, errors.ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, errors.IsCanceled(err))
	assert.Equal(t, comparison.StateEmpty, s.State())
}

func TestSessionBusyGuard(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	var nested error
	s.OnTransition(func(from, to comparison.State) {
		if to == comparison.StateMasterLoaded {
			nested = s.LoadComparison(ctx, newComparison(), boq.OfferInfo{Name: "BidderX"})
		}
	})

	require.NoError(t, s.LoadMaster(ctx, newMaster(t)))
	assert.ErrorIs(t, nested, errors.ErrSessionBusy)
	assert.Equal(t, comparison.StateMasterLoaded, s.State(), "a refused call leaves the state alone")
}

func TestSessionDuplicateOfferRollsBack(t *testing.T) {
	// Binds every valid row to the first master row.
	collapse := func(rows []*boq.ComparisonRow, master *boq.MasterDataset) comparison.MatchResult {
		var res comparison.MatchResult
		for _, r := range rows {
			if r.IsValid {
				res.Matched = append(res.Matched, comparison.Pair{Comparison: r, Master: master.Rows[0]})
			}
		}
		return res
	}

	ctx := context.Background()
	master := newMaster(t, item("Concrete", 10, 5))
	before := master.Clone()
	s := newSession(t, comparison.WithMatchFunc(collapse))

	require.NoError(t, s.LoadMaster(ctx, master))
	require.NoError(t, s.LoadComparison(ctx, newComparison(
		offerRow("Concrete", "12", "5", "60"),
		offerRow("Concrete", "13", "5", "65"),
	), boq.OfferInfo{Name: "BidderX"}))
	_, err := s.ValidateRows(ctx)
	require.NoError(t, err)
	require.NoError(t, s.ConfirmReview(ctx))
	require.NoError(t, s.ProcessValidRows(ctx))

	preview, err := s.Preview(ctx)
	require.NoError(t, err)
	assert.Equal(t, comparison.Counts{Total: 2, Valid: 2, Merged: 1, Errors: 1}, preview.Counts)
	assert.Equal(t, comparison.OutcomeSkippedDuplicateOffer, preview.Outcomes[1].Outcome)

	_, err = s.Cleanup(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsDuplicateOffer(err))
	assert.Equal(t, comparison.StateFailed, s.State())
	assert.Equal(t, before, master, "nothing from the failed pass is visible")
}

func TestSessionPreviewIsDryRun(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	master := newMaster(t, item("Concrete", 10, 5))
	before := master.Clone()
	s := newSession(t, comparison.WithSessionID("pass-1"), comparison.WithClock(func() time.Time { return clock }))

	require.NoError(t, s.LoadMaster(ctx, master))
	require.NoError(t, s.LoadComparison(ctx, newComparison(
		offerRow("Concrete", "12", "5", "60"),
		offerRow("Gate", "1", "300", "300"),
	), boq.OfferInfo{Name: "BidderX"}))
	_, err := s.ValidateRows(ctx)
	require.NoError(t, err)
	require.NoError(t, s.ConfirmReview(ctx))
	require.NoError(t, s.ProcessValidRows(ctx))

	preview, err := s.Preview(ctx)
	require.NoError(t, err)
	assert.True(t, preview.Metadata.DryRun)
	assert.False(t, preview.IsSuccess())
	assert.Nil(t, preview.Master)
	assert.Equal(t, "pass-1", preview.SessionID)
	assert.Equal(t, clock, preview.Metadata.StartTime)
	assert.Equal(t, comparison.Counts{Total: 2, Valid: 2, Merged: 1, Added: 1}, preview.Counts)
	assert.Equal(t, before, master)
	assert.Equal(t, comparison.StateApplied, s.State())

	res, err := s.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, preview.Counts, res.Counts)
	assert.False(t, res.Metadata.DryRun)
	assert.Empty(t, s.Rows(), "rows are dropped once committed")

	got, ok := s.Result()
	require.True(t, ok)
	assert.Same(t, res, got)
}

func TestSessionDiscard(t *testing.T) {
	ctx := context.Background()
	master := newMaster(t, item("Concrete", 10, 5))
	before := master.Clone()
	s := newSession(t)

	require.NoError(t, s.LoadMaster(ctx, master))
	require.NoError(t, s.LoadComparison(ctx, newComparison(offerRow("Concrete", "12", "5", "60")), boq.OfferInfo{Name: "BidderX"}))
	_, err := s.ValidateRows(ctx)
	require.NoError(t, err)
	require.NoError(t, s.ConfirmReview(ctx))
	require.NoError(t, s.ProcessValidRows(ctx))

	require.NoError(t, s.Discard(ctx))
	assert.Equal(t, comparison.StateEmpty, s.State())
	assert.Equal(t, before, master)
	assert.Empty(t, s.Offer().Name)

	require.NoError(t, s.LoadMaster(ctx, master), "a discarded session can be reused")
}

func TestSessionDiscardClearsFailure(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	require.NoError(t, s.LoadMaster(ctx, newMaster(t)))
	require.Error(t, s.LoadComparison(ctx, boq.NewComparisonDataset(nil, nil), boq.OfferInfo{Name: "BidderX"}))
	require.Equal(t, comparison.StateFailed, s.State())

	require.NoError(t, s.Discard(ctx))
	assert.Equal(t, comparison.StateEmpty, s.State())
	assert.NoError(t, s.Err())
}

func TestSessionTransitionHooks(t *testing.T) {
	var seen []comparison.State
	s := newSession(t)
	s.OnTransition(func(_, to comparison.State) { seen = append(seen, to) })

	_, err := runPass(t, s, newMaster(t), newComparison(offerRow("Fencing", "1", "2", "2")), "BidderX")
	require.NoError(t, err)

	assert.Equal(t, []comparison.State{
		comparison.StateMasterLoaded,
		comparison.StateComparisonLoaded,
		comparison.StateRowsValidated,
		comparison.StateRowsReviewed,
		comparison.StateApplied,
		comparison.StateFinalized,
	}, seen)
}

func TestSessionSequentialOffers(t *testing.T) {
	master := newMaster(t, item("Concrete", 10, 5))

	_, err := runPass(t, newSession(t), master, newComparison(offerRow("Concrete", "12", "5", "60")), "BidderX")
	require.NoError(t, err)
	_, err = runPass(t, newSession(t), master, newComparison(offerRow("Concrete", "11", "6", "66"), offerRow("Gate", "1", "1", "1")), "BidderY")
	require.NoError(t, err)

	assert.Equal(t, []string{"BidderX", "BidderY"}, master.OfferNames())
	require.Equal(t, 2, master.Len())
	_, hasX := master.Rows[1].Offer("BidderX")
	assert.False(t, hasX, "rows added by a later offer carry only that offer")
	x, _ := master.Rows[0].Offer("BidderX")
	y, _ := master.Rows[0].Offer("BidderY")
	assert.Equal(t, 12.0, *x.Quantity)
	assert.Equal(t, 11.0, *y.Quantity)
}
