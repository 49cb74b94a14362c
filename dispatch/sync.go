package dispatch

import "context"

// Synchronous runs every task inline in the caller's goroutine.
// It is the dispatcher of choice for single-threaded presentation contexts
// and for tests.
type Synchronous struct {
	executor *Executor
	onError  ErrorHandler
}

// NewSynchronous creates a new inline dispatcher.
func NewSynchronous(opts ...SyncOption) *Synchronous {
	d := &Synchronous{
		executor: NewExecutor(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SyncOption configures a Synchronous dispatcher.
type SyncOption func(*Synchronous)

// WithSyncPanicHandler sets the panic handler.
func WithSyncPanicHandler(h PanicHandler) SyncOption {
	return func(d *Synchronous) {
		d.executor = NewExecutor(WithExecutorPanicHandler(h))
	}
}

// WithSyncErrorHandler sets the handler for errors from Post.
func WithSyncErrorHandler(h ErrorHandler) SyncOption {
	return func(d *Synchronous) {
		d.onError = h
	}
}

// Run executes the task inline and returns its error.
func (d *Synchronous) Run(ctx context.Context, task Task) error {
	return d.executor.Execute(ctx, task).Error
}

// Post executes the task inline; its error goes to the error handler.
func (d *Synchronous) Post(ctx context.Context, task Task) {
	if err := d.executor.Execute(ctx, task).Error; err != nil {
		d.reportError(err)
	}
}

// RunAsync executes the task inline and returns a resolved handle.
func (d *Synchronous) RunAsync(ctx context.Context, task Task) *Pending {
	return completedPending(d.executor.Execute(ctx, task).Error)
}

func (d *Synchronous) reportError(err error) {
	if d.onError != nil {
		d.onError(err)
		return
	}
	DefaultErrorHandler()(err)
}
