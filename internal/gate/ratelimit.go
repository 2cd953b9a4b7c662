package gate

import (
	"fmt"
	"time"

	"github.com/dmvu/recall/internal/storage"
)

// DefaultWindow is the default number of messages between injections.
const DefaultWindow = 10

// Limiter is a fixed-window message counter. Every message increments
// the counter; when it reaches the window size, one injection is
// allowed and the counter resets. This is deliberately not a token
// bucket: the goal is "not too often", not precise rate control.
//
// The counter lives in the store as an explicit state record, so it
// survives process restarts and is never ambient global state.
type Limiter struct {
	store  storage.Store
	window int
}

// NewLimiter creates a limiter with the given window size.
func NewLimiter(store storage.Store, window int) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{store: store, window: window}
}

// Tick counts one incoming message and reports whether an injection is
// allowed now. The load-update-save cycle is a single small write; on
// storage failure it denies, keeping misbehavior on the quiet side.
func (l *Limiter) Tick(now time.Time) (bool, error) {
	state, err := l.store.LoadGateState()
	if err != nil {
		return false, fmt.Errorf("failed to load gate state: %w", err)
	}

	state.Counter++

	allow := state.Counter >= l.window
	if allow {
		state.Counter = 0
		state.LastInjection = now.UTC()
	}

	if err := l.store.SaveGateState(state); err != nil {
		return false, fmt.Errorf("failed to save gate state: %w", err)
	}

	return allow, nil
}
