package comparison

import (
	"fmt"
	"time"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
)

// Outcome is what a pass did with one comparison row.
type Outcome string

// Row outcomes.
const (
	OutcomeMerged                Outcome = "MERGED"
	OutcomeAdded                 Outcome = "ADDED"
	OutcomeSkippedInvalid        Outcome = "SKIPPED_INVALID"
	OutcomeSkippedDuplicateOffer Outcome = "SKIPPED_DUPLICATE_OFFER"
)

// RowOutcome records the effect of one comparison row.
type RowOutcome struct {
	Row      int     `json:"row" yaml:"row"`                               // ComparisonRow.Ref
	Outcome  Outcome `json:"outcome" yaml:"outcome"`                       // What happened
	Reason   string  `json:"reason,omitempty" yaml:"reason,omitempty"`     // Invalidity or error reason
	Position int     `json:"position,omitempty" yaml:"position,omitempty"` // Master row merged into or added at
}

// Counts are the summary statistics of a pass, recomputed from outcomes.
type Counts struct {
	Total   int `json:"total" yaml:"total"`
	Valid   int `json:"valid" yaml:"valid"`
	Invalid int `json:"invalid" yaml:"invalid"`
	Merged  int `json:"merged" yaml:"merged"`
	Added   int `json:"added" yaml:"added"`
	Errors  int `json:"errors" yaml:"errors"`
}

// ToleranceWarning flags a total price inconsistent with quantity × unit price.
type ToleranceWarning struct {
	Row      int     `json:"row" yaml:"row"`
	Position int     `json:"position" yaml:"position"`
	Expected float64 `json:"expected" yaml:"expected"` // quantity × unit price
	Actual   float64 `json:"actual" yaml:"actual"`     // total price as submitted
	Allowed  float64 `json:"allowed" yaml:"allowed"`   // largest tolerated difference
}

// String returns a one-line description of the warning.
func (w ToleranceWarning) String() string {
	return fmt.Sprintf("row %d (position %d): total %.2f differs from quantity × unit price %.2f by more than %.2f",
		w.Row, w.Position, w.Actual, w.Expected, w.Allowed)
}

// Result is the immutable outcome of a finalized comparison pass.
type Result struct {
	SessionID string             `json:"session_id" yaml:"session_id"`
	Offer     boq.OfferInfo      `json:"offer" yaml:"offer"`
	Counts    Counts             `json:"counts" yaml:"counts"`
	Outcomes  []RowOutcome       `json:"outcomes" yaml:"outcomes"`
	Warnings  []ToleranceWarning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Metadata  ResultMetadata     `json:"metadata" yaml:"metadata"`

	// Master is the committed dataset, nil for a preview.
	Master *boq.MasterDataset `json:"-" yaml:"-"`
}

// ResultMetadata contains timing information about the pass.
type ResultMetadata struct {
	StartTime time.Time     `json:"start_time" yaml:"start_time"`
	EndTime   time.Time     `json:"end_time" yaml:"end_time"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	DryRun    bool          `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

// IsSuccess reports whether the pass committed without errors.
func (r *Result) IsSuccess() bool {
	return r.Counts.Errors == 0 && !r.Metadata.DryRun
}

// HasWarnings reports whether any tolerance warning was raised.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Outcome returns the outcome of comparison row ref.
func (r *Result) Outcome(ref int) (RowOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Row == ref {
			return o, true
		}
	}
	return RowOutcome{}, false
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	c := r.Counts
	prefix := "Comparison finalized"
	if r.Metadata.DryRun {
		prefix = "Dry run completed"
	}
	s := fmt.Sprintf("%s for %q: %d rows, %d valid, %d invalid, %d merged, %d added",
		prefix, r.Offer.Name, c.Total, c.Valid, c.Invalid, c.Merged, c.Added)
	if c.Errors > 0 {
		s += fmt.Sprintf(", %d errors", c.Errors)
	}
	if len(r.Warnings) > 0 {
		s += fmt.Sprintf(", %d tolerance warnings", len(r.Warnings))
	}
	return s
}

// countOutcomes recomputes the statistics from recorded outcomes.
func countOutcomes(outcomes []RowOutcome) Counts {
	c := Counts{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Outcome {
		case OutcomeMerged:
			c.Merged++
			c.Valid++
		case OutcomeAdded:
			c.Added++
			c.Valid++
		case OutcomeSkippedInvalid:
			c.Invalid++
		case OutcomeSkippedDuplicateOffer:
			c.Errors++
			c.Valid++
		}
	}
	return c
}
