package dispatch

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Task is a unit of work executed on a dispatcher.
// Tasks should observe ctx cooperatively; the framework never forcibly
// aborts in-flight work.
type Task func(ctx context.Context) error

// Dispatcher runs tasks on some execution context.
type Dispatcher interface {
	// Run executes the task and blocks until it completes.
	// It returns the task's error, or a PanicError if the task panicked.
	Run(ctx context.Context, task Task) error

	// Post schedules the task without waiting for it. Task errors are
	// routed to the dispatcher's error handler; if none is set, to the
	// process-wide default handler.
	Post(ctx context.Context, task Task)

	// RunAsync schedules the task and returns a completion handle.
	RunAsync(ctx context.Context, task Task) *Pending
}

// Call runs fn on the dispatcher and returns its typed result.
// It blocks until fn completes.
func Call[T any](ctx context.Context, d Dispatcher, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := d.Run(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

// Pending is the completion handle for a task scheduled with RunAsync.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) complete(err error) {
	p.err = err
	close(p.done)
}

// completedPending returns an already-resolved handle.
func completedPending(err error) *Pending {
	p := newPending()
	p.complete(err)
	return p
}

// Done returns a channel closed when the task has completed.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Err returns the task's error. It is only meaningful after Done is closed.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the task completes or ctx is cancelled.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ErrorHandler receives errors from tasks whose caller has already returned
// (Post, timer callbacks).
type ErrorHandler func(err error)

var defaultErrorHandler atomic.Value // ErrorHandler

func init() {
	defaultErrorHandler.Store(ErrorHandler(func(err error) {
		slog.Error("dispatch: unhandled task error", "error", err)
	}))
}

// SetDefaultErrorHandler replaces the process-wide handler for task errors
// that have nowhere else to go. A nil handler discards errors.
func SetDefaultErrorHandler(fn ErrorHandler) {
	if fn == nil {
		fn = func(error) {}
	}
	defaultErrorHandler.Store(fn)
}

// DefaultErrorHandler returns the current process-wide error handler.
func DefaultErrorHandler() ErrorHandler {
	return defaultErrorHandler.Load().(ErrorHandler)
}
