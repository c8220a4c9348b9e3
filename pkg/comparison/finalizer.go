package comparison

import (
	"context"
	"errors"
	"fmt"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	pkgerrors "github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/logging"
)

// pass is the deferred work of one comparison: every mutation lives on
// working until the finalizer commits it.
type pass struct {
	offer    boq.OfferInfo
	working  *boq.MasterDataset
	rows     []*boq.ComparisonRow
	outcomes []RowOutcome
	fatal    []error
	merger   *Merger
}

// process matches the reviewed rows against working and applies MERGE and
// ADD decisions in comparison file order. Duplicate assignments are queued as
// fatal errors for the finalizer instead of aborting the loop.
func process(ctx context.Context, rows []*boq.ComparisonRow, working *boq.MasterDataset, offer boq.OfferInfo, match MatchFunc) *pass {
	p := &pass{
		offer:    offer,
		working:  working,
		rows:     rows,
		outcomes: make([]RowOutcome, 0, len(rows)),
		merger:   NewMerger(),
	}

	result := match(rows, working)
	bound := make(map[*boq.ComparisonRow]*boq.MasterRow, len(result.Matched))
	for _, pair := range result.Matched {
		bound[pair.Comparison] = pair.Master
	}

	adder := NewAdder(working)
	next := adder.NextPosition()
	for _, row := range rows {
		if !row.IsValid {
			p.outcomes = append(p.outcomes, RowOutcome{Row: row.Ref, Outcome: OutcomeSkippedInvalid, Reason: row.Reason})
			continue
		}

		if target, ok := bound[row]; ok {
			if err := p.merger.Merge(target, row, offer.Name); err != nil {
				p.fatal = append(p.fatal, err)
				p.outcomes = append(p.outcomes, RowOutcome{
					Row: row.Ref, Outcome: OutcomeSkippedDuplicateOffer, Reason: err.Error(), Position: target.Position,
				})
				continue
			}
			p.outcomes = append(p.outcomes, RowOutcome{Row: row.Ref, Outcome: OutcomeMerged, Position: target.Position})
			continue
		}

		added := adder.Add(row, offer.Name, next)
		next++
		p.outcomes = append(p.outcomes, RowOutcome{Row: row.Ref, Outcome: OutcomeAdded, Position: added.Position})
	}

	logging.FromContext(ctx).Debug().
		Int("matched", len(result.Matched)).
		Int("unmatched", len(result.Unmatched)).
		Int("queued_errors", len(p.fatal)).
		Msg("Valid rows processed")
	return p
}

// Finalizer checks and commits a processed pass.
type Finalizer struct {
	tolerance Tolerance
}

// NewFinalizer creates a finalizer with the given total price tolerance.
func NewFinalizer(tolerance Tolerance) *Finalizer {
	return &Finalizer{tolerance: tolerance}
}

// Finalize rejects offer collisions and queued fatal errors, drops transient
// matching state, recomputes counts, records tolerance warnings, freezes the
// offer onto the working copy and re-validates it. Only then is the working
// copy committed onto master in a single assignment; on any error master is
// left exactly as it was.
func (f *Finalizer) Finalize(ctx context.Context, master *boq.MasterDataset, p *pass) (*Result, error) {
	if master.HasOffer(p.offer.Name) {
		return nil, pkgerrors.NewOfferCollisionError(p.offer.Name)
	}
	if len(p.fatal) > 0 {
		return nil, errors.Join(p.fatal...)
	}

	res := f.summarize(p)

	for _, row := range p.rows {
		row.MatchedMasterKey = nil
	}
	p.merger.Reset()

	p.working.Offers = append(p.working.Offers, p.offer)
	if err := p.working.Validate(); err != nil {
		return nil, fmt.Errorf("finalized master is inconsistent: %w", err)
	}

	*master = *p.working
	res.Master = master

	log := logging.FromContext(ctx)
	for _, w := range res.Warnings {
		log.Warn().Int("row", w.Row).Int("position", w.Position).
			Float64("expected", w.Expected).Float64("actual", w.Actual).
			Msg("Total price outside tolerance")
	}
	return res, nil
}

// summarize builds the counts and tolerance warnings of a pass without
// touching any dataset.
func (f *Finalizer) summarize(p *pass) *Result {
	res := &Result{
		Offer:    p.offer,
		Counts:   countOutcomes(p.outcomes),
		Outcomes: append([]RowOutcome(nil), p.outcomes...),
	}
	for _, o := range p.outcomes {
		if o.Outcome != OutcomeMerged && o.Outcome != OutcomeAdded {
			continue
		}
		row, ok := p.working.Row(o.Position)
		if !ok {
			continue
		}
		values, ok := row.Offer(p.offer.Name)
		if !ok {
			continue
		}
		if expected, actual, allowed, within := f.tolerance.Check(values); !within {
			res.Warnings = append(res.Warnings, ToleranceWarning{
				Row: o.Row, Position: o.Position, Expected: expected, Actual: actual, Allowed: allowed,
			})
		}
	}
	return res
}
