package comparison

import "sync"

// TransitionHook is called after a session moves from one state to another.
type TransitionHook func(from, to State)

// hooks manages transition callbacks
type hooks struct {
	mu           sync.RWMutex
	onTransition []TransitionHook
}

func (h *hooks) add(fn TransitionHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onTransition = append(h.onTransition, fn)
}

func (h *hooks) fire(from, to State) {
	h.mu.RLock()
	fns := append([]TransitionHook(nil), h.onTransition...)
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(from, to)
	}
}
