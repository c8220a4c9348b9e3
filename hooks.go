package boqtools

import (
	"sync"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/comparison"
)

// Hook function types for workspace events
type (
	// OfferCommittedHook is called when a pass is committed to the master
	OfferCommittedHook func(result *comparison.Result)

	// SessionFailedHook is called when a session fails
	SessionFailedHook func(sessionID string, err error)
)

// hooks manages event callbacks for workspace changes
type hooks struct {
	mu               sync.RWMutex
	onOfferCommitted []OfferCommittedHook
	onSessionFailed  []SessionFailedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnOfferCommitted registers a callback for committed passes
func (h *hooks) OnOfferCommitted(fn OfferCommittedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onOfferCommitted = append(h.onOfferCommitted, fn)
}

// OnSessionFailed registers a callback for failed sessions
func (h *hooks) OnSessionFailed(fn SessionFailedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSessionFailed = append(h.onSessionFailed, fn)
}

func (h *hooks) triggerOfferCommitted(res *comparison.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onOfferCommitted {
		hook(res)
	}
}

func (h *hooks) triggerSessionFailed(sessionID string, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onSessionFailed {
		hook(sessionID, err)
	}
}
