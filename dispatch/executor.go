package dispatch

import (
	"context"
	"runtime/debug"
	"time"
)

// PanicHandler is called when a task panics.
type PanicHandler func(recovered any, stack []byte)

func defaultPanicHandler(recovered any, stack []byte) {
	// Panics are isolated and surfaced as PanicError; nothing to do here.
}

// Executor runs tasks with panic recovery and timing.
type Executor struct {
	panicHandler PanicHandler
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		panicHandler: defaultPanicHandler,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithExecutorPanicHandler sets the panic handler for the executor.
func WithExecutorPanicHandler(h PanicHandler) ExecutorOption {
	return func(e *Executor) {
		if h != nil {
			e.panicHandler = h
		}
	}
}

// Result describes one task execution.
type Result struct {
	// Success is true when the task completed without error or panic.
	Success bool

	// Error is the task's error, a PanicError, or the context error when
	// the task was skipped.
	Error error

	// Panicked is true when the task panicked.
	Panicked bool

	// Skipped is true when the task never ran (context already done).
	Skipped bool

	// Duration is how long the task ran.
	Duration time.Duration
}

// Execute runs a task, recovering panics and capturing timing.
func (e *Executor) Execute(ctx context.Context, task Task) (result Result) {
	select {
	case <-ctx.Done():
		return Result{Error: ctx.Err(), Skipped: true}
	default:
	}

	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)

		if r := recover(); r != nil {
			stack := debug.Stack()

			result.Success = false
			result.Panicked = true
			result.Error = &PanicError{Value: r, Stack: stack}

			// A panicking panic handler must not take down the process.
			func() {
				defer func() { _ = recover() }()
				e.panicHandler(r, stack)
			}()
		}
	}()

	if err := task(ctx); err != nil {
		result.Error = err
	} else {
		result.Success = true
	}

	return result
}

// ExecuteWithTimeout runs a task under a deadline. The task must respect
// context cancellation for the timeout to be effective.
func (e *Executor) ExecuteWithTimeout(ctx context.Context, task Task, timeout time.Duration) Result {
	if timeout <= 0 {
		return e.Execute(ctx, task)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return e.Execute(ctx, task)
}
