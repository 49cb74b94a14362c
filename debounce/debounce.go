// Package debounce coalesces rapid repeated triggers into a single delayed
// action, and rate-limits with a Throttler.
//
// The Debouncer is the one concurrency-hardened primitive in the framework:
// timer callbacks fire on the runtime timer goroutine while Call may arrive
// from any goroutine, so the timer slot is guarded by a lock. Everything
// else in the framework assumes external single-goroutine use.
package debounce

import (
	"context"
	"sync"
	"time"

	"github.com/dshills/keel/dispatch"
)

// Debouncer holds at most one pending action at a time. Each Call cancels
// and replaces any previous pending timer; the action runs on the
// dispatcher after the delay elapses with no further calls.
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	disp     dispatch.Dispatcher
	onError  dispatch.ErrorHandler
	timer    *time.Timer
	seq      uint64 // invalidates stale timer callbacks
	pending  bool
	disposed bool
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithErrorHandler routes dispatcher-reported action errors to h instead of
// the process-wide default handler.
func WithErrorHandler(h dispatch.ErrorHandler) Option {
	return func(d *Debouncer) {
		d.onError = h
	}
}

// New creates a debouncer that runs actions on disp after delay.
// New panics if disp is nil; an action needs somewhere to run.
func New(delay time.Duration, disp dispatch.Dispatcher, opts ...Option) *Debouncer {
	if disp == nil {
		panic("debounce: New called with nil dispatcher")
	}
	d := &Debouncer{
		delay: delay,
		disp:  disp,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Call schedules action to run after the debounce delay, replacing any
// previously pending action. Only the last action before a quiet period
// runs. Returns ErrDisposed after Dispose.
func (d *Debouncer) Call(action dispatch.Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disposed {
		return ErrDisposed
	}

	d.pending = true
	d.seq++
	currentSeq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if !d.pending || d.seq != currentSeq || d.disposed {
			d.mu.Unlock()
			return
		}
		d.pending = false
		d.mu.Unlock()
		d.run(action)
	})

	return nil
}

// run executes the action on the dispatcher, routing failures to the
// debouncer's error handler.
func (d *Debouncer) run(action dispatch.Task) {
	if err := d.disp.Run(context.Background(), action); err != nil {
		if d.onError != nil {
			d.onError(err)
			return
		}
		dispatch.DefaultErrorHandler()(err)
	}
}

// Cancel discards any pending action without running it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = false
}

// IsPending reports whether an action is waiting to fire.
func (d *Debouncer) IsPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Dispose cancels any pending action and permanently disables the
// debouncer. Pending work is lost, not flushed. Dispose is idempotent.
func (d *Debouncer) Dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disposed {
		return
	}
	d.disposed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = false
}
