// Package boqtools provides the main entry point for reconciling bills of
// quantities. A Workspace owns one master dataset and lets one comparison
// session at a time enrich it with an offer.
//
// Workspace wraps the comparison engine with:
// - Exclusive ownership of the master while a session runs
// - Copy-on-read access to the committed master
// - Event hooks for committed offers and failed sessions
// - Named snapshots through a pluggable store
//
// Example usage:
//
//	ws, err := boqtools.New(boqtools.WithMaster(master))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ws.OnOfferCommitted(func(res *comparison.Result) {
//	    log.Printf("offer %s: %s", res.Offer.Name, res.Summary())
//	})
//
//	// One-shot pass with operator overrides
//	result, err := ws.Compare(ctx, offerRows, boq.OfferInfo{Name: "BidderX"},
//	    comparison.Override{Row: 12, Valid: false, Reason: "provisional sum"})
//
//	// Or drive the session step by step
//	s, err := ws.Begin(ctx)
//	_ = s.LoadComparison(ctx, offerRows, boq.OfferInfo{Name: "BidderY"})
//	report, _ := s.ValidateRows(ctx)
//	...
package boqtools

import (
	"context"
	"sync"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/boq"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/comparison"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/logging"
)

// Workspace owns a master dataset and the comparison session running on it.
type Workspace interface {
	// Master returns a copy of the committed master, nil before one is loaded
	Master() *boq.MasterDataset

	// Active reports whether a session currently owns the master
	Active() bool

	// Begin starts a session holding a working copy of the master
	Begin(ctx context.Context) (*comparison.Session, error)

	// Compare runs one complete pass of an offer against the master
	Compare(ctx context.Context, ds *boq.ComparisonDataset, offer boq.OfferInfo, overrides ...comparison.Override) (*comparison.Result, error)

	// OnOfferCommitted registers a callback for committed passes
	OnOfferCommitted(OfferCommittedHook)

	// OnSessionFailed registers a callback for sessions that failed
	OnSessionFailed(SessionFailedHook)

	// Persistence saves and restores the master
	Persistence
}

// Compile-time interface check to ensure proper implementation.
var _ Workspace = (*workspace)(nil)

// workspace is the internal implementation of the Workspace interface
type workspace struct {
	mu     sync.RWMutex
	master *boq.MasterDataset
	active *comparison.Session
	config *config

	// Event hooks
	hooks *hooks
}

// New creates a workspace with the given options.
func New(opts ...Option) (Workspace, error) {
	w := &workspace{
		config: defaultConfig(),
		hooks:  newHooks(),
	}
	if err := w.options(opts...); err != nil {
		return nil, err
	}
	if m := w.config.master; m != nil {
		if err := m.CheckColumns(); err != nil {
			return nil, err
		}
		if err := m.Validate(); err != nil {
			return nil, &errors.SchemaError{Dataset: "master", Message: err.Error()}
		}
		w.master = m.Clone()
	}
	return w, nil
}

// Master returns a copy of the committed master.
func (w *workspace) Master() *boq.MasterDataset {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.master == nil {
		return nil
	}
	return w.master.Clone()
}

// Active reports whether a session owns the master.
func (w *workspace) Active() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.active != nil
}

// Begin creates a session and loads a copy of the master into it. The session
// owns the master until it is finalized, fails or is discarded; a finalized
// pass replaces the workspace master.
func (w *workspace) Begin(ctx context.Context) (*comparison.Session, error) {
	s, err := comparison.NewSession(w.config.sessionOpts...)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	if w.master == nil {
		w.mu.Unlock()
		return nil, errors.NewValidationError("master", nil, "no master loaded")
	}
	if w.active != nil {
		id := w.active.ID()
		w.mu.Unlock()
		return nil, errors.WrapResource("begin", "session", id, errors.ErrSessionActive)
	}
	w.active = s
	working := w.master.Clone()
	w.mu.Unlock()

	s.OnTransition(func(_, to comparison.State) {
		w.observe(ctx, s, working, to)
	})
	if err := s.LoadMaster(ctx, working); err != nil {
		w.release(s)
		return nil, err
	}

	logging.FromContext(ctx).Debug().Str("session_id", s.ID()).Int("rows", working.Len()).Msg("Session started")
	return s, nil
}

// Compare drives a fresh session through every step. Overrides are applied
// after automatic validation. On error the session is discarded and the
// master is unchanged.
func (w *workspace) Compare(ctx context.Context, ds *boq.ComparisonDataset, offer boq.OfferInfo, overrides ...comparison.Override) (*comparison.Result, error) {
	s, err := w.Begin(ctx)
	if err != nil {
		return nil, err
	}

	res, err := run(ctx, s, ds, offer, overrides)
	if err != nil {
		_ = s.Discard(context.WithoutCancel(ctx))
		return nil, err
	}
	return res, nil
}

func run(ctx context.Context, s *comparison.Session, ds *boq.ComparisonDataset, offer boq.OfferInfo, overrides []comparison.Override) (*comparison.Result, error) {
	if err := s.LoadComparison(ctx, ds, offer); err != nil {
		return nil, err
	}
	if _, err := s.ValidateRows(ctx); err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		if err := s.ApplyOverrides(ctx, overrides); err != nil {
			return nil, err
		}
	}
	if err := s.ConfirmReview(ctx); err != nil {
		return nil, err
	}
	if err := s.ProcessValidRows(ctx); err != nil {
		return nil, err
	}
	return s.Cleanup(ctx)
}

// OnOfferCommitted registers a callback for committed passes.
func (w *workspace) OnOfferCommitted(fn OfferCommittedHook) {
	w.hooks.OnOfferCommitted(fn)
}

// OnSessionFailed registers a callback for failed sessions.
func (w *workspace) OnSessionFailed(fn SessionFailedHook) {
	w.hooks.OnSessionFailed(fn)
}

// observe reacts to the transitions of the owning session. It runs while the
// session holds its step guard, so it must not call back into the session
// except through its non-blocking readers.
func (w *workspace) observe(ctx context.Context, s *comparison.Session, working *boq.MasterDataset, to comparison.State) {
	switch to {
	case comparison.StateFinalized:
		w.mu.Lock()
		if w.active == s {
			w.master = working.Clone()
			w.active = nil
		}
		w.mu.Unlock()
		if res, ok := s.Result(); ok {
			logging.FromContext(ctx).Info().Str("session_id", s.ID()).Str("offer", res.Offer.Name).Msg("Offer committed to workspace")
			w.hooks.triggerOfferCommitted(res)
		}
	case comparison.StateFailed:
		w.release(s)
		w.hooks.triggerSessionFailed(s.ID(), s.Err())
	case comparison.StateEmpty:
		w.release(s)
	}
}

// release returns ownership of the master if s still holds it.
func (w *workspace) release(s *comparison.Session) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active == s {
		w.active = nil
	}
}
