// Package comparison reconciles a master bill of quantities with one offer at
// a time. A Session walks the pass through validation, operator review,
// matching, MERGE/ADD application and finalization. Every mutation happens on
// a working copy of the master and is committed in one step by Cleanup, so a
// discarded or failed session leaves the master exactly as it was loaded.
//
// Example usage:
//
//	s, _ := comparison.NewSession()
//	_ = s.LoadMaster(ctx, master)
//	_ = s.LoadComparison(ctx, offerRows, boq.OfferInfo{Name: "BidderX"})
//	_, _ = s.ValidateRows(ctx)
//	_ = s.ApplyOverrides(ctx, []comparison.Override{{Row: 7, Valid: false, Reason: "provisional sum"}})
//	_ = s.ConfirmReview(ctx)
//	_ = s.ProcessValidRows(ctx)
//	result, err := s.Cleanup(ctx)
package comparison

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/logging"
)

// Session is one comparison pass of an offer against a master. Steps are not
// reentrant: a call made while another step is running gets ErrSessionBusy.
type Session struct {
	step sync.Mutex   // held for the duration of a step
	mu   sync.RWMutex // guards the fields below for readers

	opts      *options
	validator *Validator
	finalizer *Finalizer
	hooks     hooks

	state      State
	err        error
	master     *boq.MasterDataset
	comparison *boq.ComparisonDataset
	offer      boq.OfferInfo
	rows       []*boq.ComparisonRow
	pass       *pass
	result     *Result
	startedAt  time.Time
}

// NewSession creates an empty session.
func NewSession(opts ...Option) (*Session, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	v, err := NewValidator(o.patterns)
	if err != nil {
		return nil, err
	}
	return &Session{
		opts:      o,
		validator: v,
		finalizer: NewFinalizer(o.tolerance),
		state:     StateEmpty,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.opts.id
}

// State returns the current state. It never blocks on a running step.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Err returns the error that failed the session, if any.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Offer returns the offer under comparison.
func (s *Session) Offer() boq.OfferInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offer
}

// Rows returns copies of the comparison rows with their current flags, for
// the reviewer. Rows are gone once the pass is finalized.
func (s *Session) Rows() []*boq.ComparisonRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*boq.ComparisonRow, len(s.rows))
	for i, r := range s.rows {
		out[i] = r.Clone()
	}
	return out
}

// Result returns the result of a finalized pass.
func (s *Session) Result() (*Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result, s.result != nil
}

// OnTransition registers a callback fired after every state change.
func (s *Session) OnTransition(fn TransitionHook) {
	s.hooks.add(fn)
}

// LoadMaster takes exclusive hold of master for the session. The master must
// carry its base columns and satisfy the dataset invariants.
func (s *Session) LoadMaster(ctx context.Context, master *boq.MasterDataset) error {
	const op = "load master"
	ctx, end, err := s.begin(ctx, op)
	if err != nil {
		return err
	}
	defer end()

	if master == nil {
		return errors.NewValidationError("master", nil, "cannot be nil")
	}
	if err := master.CheckColumns(); err != nil {
		return s.fail(ctx, err)
	}
	if err := master.Validate(); err != nil {
		return s.fail(ctx, &errors.SchemaError{Dataset: "master", Message: err.Error()})
	}

	s.mu.Lock()
	s.master = master
	s.mu.Unlock()

	logging.FromContext(ctx).Debug().Int("rows", master.Len()).Strs("offers", master.OfferNames()).Msg("Master loaded")
	s.transition(ctx, StateMasterLoaded)
	return nil
}

// LoadComparison attaches the offer's dataset. A dataset with nothing to match
// or price, or an offer name already on the master, fails the session.
func (s *Session) LoadComparison(ctx context.Context, ds *boq.ComparisonDataset, offer boq.OfferInfo) error {
	const op = "load comparison"
	ctx, end, err := s.begin(ctx, op)
	if err != nil {
		return err
	}
	defer end()

	if ds == nil {
		return errors.NewValidationError("comparison", nil, "cannot be nil")
	}
	if err := offer.Validate(); err != nil {
		return err
	}
	ctx = logging.WithOffer(ctx, offer.Name)
	if err := ds.CheckColumns(); err != nil {
		return s.fail(ctx, err)
	}
	if s.master.HasOffer(offer.Name) {
		return s.fail(ctx, errors.NewOfferCollisionError(offer.Name))
	}

	clone := ds.Clone()
	s.mu.Lock()
	s.comparison = clone
	s.offer = offer
	s.rows = clone.Rows
	s.startedAt = s.opts.now()
	s.mu.Unlock()

	logging.FromContext(ctx).Debug().Int("rows", len(clone.Rows)).Msg("Comparison loaded")
	s.transition(ctx, StateComparisonLoaded)
	return nil
}

// ValidateRows runs the row validator over every comparison row. It always
// succeeds, even when every row is invalid. Running it again before review
// starts over from the loaded rows and drops earlier overrides.
func (s *Session) ValidateRows(ctx context.Context) (*ValidationReport, error) {
	const op = "validate rows"
	ctx, end, err := s.begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer end()

	rows := s.comparison.Clone().Rows
	report := s.validator.ValidateAll(ctx, rows, s.master.Keys())

	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()

	if s.State() != StateRowsValidated {
		s.transition(ctx, StateRowsValidated)
	}
	return report, nil
}

// ApplyOverrides applies operator decisions to the current flags. It may be
// repeated and never changes the state. Unknown row identifiers reject the
// whole batch.
func (s *Session) ApplyOverrides(ctx context.Context, overrides []Override) error {
	const op = "apply overrides"
	ctx, end, err := s.begin(ctx, op)
	if err != nil {
		return err
	}
	defer end()

	s.mu.RLock()
	current := s.rows
	s.mu.RUnlock()

	rows, err := ApplyOverrides(current, overrides)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()

	logger := logging.FromContext(ctx)
	for _, row := range rows {
		if row.IsValid && row.Key() == "" {
			logger.Warn().Int("row", row.Ref).Msg("Row without description validated manually, it will be added as a nameless item")
		}
	}
	logger.Debug().Int("overrides", len(overrides)).Msg("Overrides applied")
	return nil
}

// ConfirmReview ends automatic validation: ValidateRows is no longer accepted.
func (s *Session) ConfirmReview(ctx context.Context) error {
	const op = "confirm review"
	ctx, end, err := s.begin(ctx, op)
	if err != nil {
		return err
	}
	defer end()

	s.transition(ctx, StateRowsReviewed)
	return nil
}

// ProcessValidRows matches the reviewed rows and applies MERGE and ADD on a
// working copy of the master. The master itself is untouched until Cleanup.
func (s *Session) ProcessValidRows(ctx context.Context) error {
	const op = "process rows"
	ctx, end, err := s.begin(ctx, op)
	if err != nil {
		return err
	}
	defer end()

	s.mu.RLock()
	rows := make([]*boq.ComparisonRow, len(s.rows))
	for i, r := range s.rows {
		rows[i] = r.Clone()
	}
	s.mu.RUnlock()

	p := process(ctx, rows, s.master.Clone(), s.offer, s.opts.matchFunc)

	s.mu.Lock()
	s.rows = rows
	s.pass = p
	s.mu.Unlock()

	s.transition(ctx, StateApplied)
	return nil
}

// Preview returns the statistics the pass would commit, without committing.
func (s *Session) Preview(ctx context.Context) (*Result, error) {
	const op = "preview"
	_, end, err := s.begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer end()

	res := s.finalizer.summarize(s.pass)
	s.stamp(res)
	res.Metadata.DryRun = true
	return res, nil
}

// Cleanup finalizes the pass and commits it onto the master. Either the whole
// pass becomes visible or, on a fatal error, none of it does and the session
// fails.
func (s *Session) Cleanup(ctx context.Context) (*Result, error) {
	const op = "cleanup"
	ctx, end, err := s.begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer end()

	s.mu.Lock()
	res, err := s.finalizer.Finalize(ctx, s.master, s.pass)
	if err == nil {
		s.stamp(res)
		s.result = res
		s.rows = nil
		s.pass = nil
		s.comparison = nil
	}
	s.mu.Unlock()

	if err != nil {
		return nil, s.fail(ctx, err)
	}

	c := res.Counts
	logging.FromContext(ctx).Info().
		Int("total", c.Total).Int("valid", c.Valid).Int("invalid", c.Invalid).
		Int("merged", c.Merged).Int("added", c.Added).Int("warnings", len(res.Warnings)).
		Msg("Comparison finalized")
	s.transition(ctx, StateFinalized)
	return res, nil
}

// Discard abandons the session in any state and resets it to EMPTY. A pass
// discarded before Cleanup leaves the master untouched.
func (s *Session) Discard(ctx context.Context) error {
	if !s.step.TryLock() {
		return errors.ErrSessionBusy
	}
	defer s.step.Unlock()

	s.mu.Lock()
	from := s.state
	s.state = StateEmpty
	s.err = nil
	s.master = nil
	s.comparison = nil
	s.offer = boq.OfferInfo{}
	s.rows = nil
	s.pass = nil
	s.result = nil
	s.mu.Unlock()

	logging.FromContext(s.logContext(ctx)).Debug().Str("from", from.String()).Msg("Session discarded")
	if from != StateEmpty {
		s.hooks.fire(from, StateEmpty)
	}
	return nil
}

// begin acquires the step guard and checks the state. The returned function
// releases the guard.
func (s *Session) begin(ctx context.Context, op string) (context.Context, func(), error) {
	if !s.step.TryLock() {
		return ctx, nil, errors.ErrSessionBusy
	}
	ctx = logging.WithOperation(s.logContext(ctx), op)

	if err := ctx.Err(); err != nil {
		s.step.Unlock()
		return ctx, nil, fmt.Errorf("%s: %w: %w", op, errors.ErrCanceled, err)
	}

	s.mu.RLock()
	state, cause := s.state, s.err
	s.mu.RUnlock()

	if state == StateFailed {
		s.step.Unlock()
		return ctx, nil, fmt.Errorf("%s: %w: %w", op, errors.ErrSessionFailed, cause)
	}
	if !slices.Contains(allowed[op], state) {
		s.step.Unlock()
		return ctx, nil, &errors.StateError{Operation: op, State: state.String(), Allowed: stateNames(allowed[op])}
	}
	return ctx, s.step.Unlock, nil
}

func (s *Session) logContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.WithSession(ctx, s.opts.id)
	if name := s.Offer().Name; name != "" {
		ctx = logging.WithOffer(ctx, name)
	}
	return ctx
}

func (s *Session) transition(ctx context.Context, to State) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()

	logging.FromContext(ctx).Debug().Str("from", from.String()).Str("to", to.String()).Msg("Session transition")
	s.hooks.fire(from, to)
}

// fail moves the session to FAILED and returns err.
func (s *Session) fail(ctx context.Context, err error) error {
	s.mu.Lock()
	s.err = err
	s.pass = nil
	s.mu.Unlock()

	logging.FromContext(ctx).Error().Err(err).Msg("Comparison session failed")
	s.transition(ctx, StateFailed)
	return err
}

func (s *Session) stamp(res *Result) {
	res.SessionID = s.opts.id
	res.Metadata.StartTime = s.startedAt
	res.Metadata.EndTime = s.opts.now()
	res.Metadata.Duration = res.Metadata.EndTime.Sub(s.startedAt)
}
