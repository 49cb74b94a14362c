package debounce

import (
	"context"
	"sync"
	"time"

	"github.com/dshills/keel/dispatch"
)

// Throttler allows at most one action per interval.
//
// Unlike Debouncer, which waits for a quiet period, Throttler runs the
// action immediately on the first call after the interval expires (leading
// edge) and once more after the interval for calls made during it
// (trailing edge). Both edges are configurable.
type Throttler struct {
	mu       sync.Mutex
	interval time.Duration
	disp     dispatch.Dispatcher
	onError  dispatch.ErrorHandler
	action   dispatch.Task
	lastCall time.Time
	pending  bool
	seq      uint64
	timer    *time.Timer
	leading  bool
	trailing bool
	disposed bool
}

// ThrottlerOption configures a Throttler.
type ThrottlerOption func(*Throttler)

// WithLeadingEdge configures execution on the leading edge.
func WithLeadingEdge(leading bool) ThrottlerOption {
	return func(t *Throttler) {
		t.leading = leading
	}
}

// WithTrailingEdge configures execution on the trailing edge.
func WithTrailingEdge(trailing bool) ThrottlerOption {
	return func(t *Throttler) {
		t.trailing = trailing
	}
}

// WithThrottlerErrorHandler routes action errors to h.
func WithThrottlerErrorHandler(h dispatch.ErrorHandler) ThrottlerOption {
	return func(t *Throttler) {
		t.onError = h
	}
}

// NewThrottler creates a throttler running action on disp at most once per
// interval. By default both edges are enabled.
func NewThrottler(interval time.Duration, disp dispatch.Dispatcher, action dispatch.Task, opts ...ThrottlerOption) *Throttler {
	if disp == nil {
		panic("debounce: NewThrottler called with nil dispatcher")
	}
	if action == nil {
		panic("debounce: NewThrottler called with nil action")
	}
	t := &Throttler{
		interval: interval,
		disp:     disp,
		action:   action,
		leading:  true,
		trailing: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Call attempts to run the action, respecting the throttle interval.
// Returns ErrDisposed after Dispose.
func (t *Throttler) Call() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.disposed {
		return ErrDisposed
	}

	now := time.Now()
	elapsed := now.Sub(t.lastCall)

	if elapsed >= t.interval {
		if t.leading {
			t.lastCall = now
			go t.run()
		} else {
			t.pending = true
			t.scheduleTrailingLocked(t.interval)
		}
		return nil
	}

	t.pending = true
	t.scheduleTrailingLocked(t.interval - elapsed)
	return nil
}

// scheduleTrailingLocked schedules a trailing edge run (must hold lock).
func (t *Throttler) scheduleTrailingLocked(after time.Duration) {
	if !t.trailing || t.timer != nil {
		return
	}
	t.seq++
	currentSeq := t.seq
	t.timer = time.AfterFunc(after, func() {
		t.mu.Lock()
		if t.pending && t.seq == currentSeq && !t.disposed {
			t.pending = false
			t.lastCall = time.Now()
			t.timer = nil
			t.mu.Unlock()
			t.run()
			return
		}
		t.timer = nil
		t.mu.Unlock()
	})
}

func (t *Throttler) run() {
	if err := t.disp.Run(context.Background(), t.action); err != nil {
		if t.onError != nil {
			t.onError(err)
			return
		}
		dispatch.DefaultErrorHandler()(err)
	}
}

// Cancel discards any pending trailing-edge run.
func (t *Throttler) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.seq++
	t.pending = false
}

// Dispose cancels pending work and permanently disables the throttler.
// Dispose is idempotent.
func (t *Throttler) Dispose() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.disposed {
		return
	}
	t.disposed = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.seq++
	t.pending = false
}
