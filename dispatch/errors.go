package dispatch

import "errors"

// Sentinel errors for dispatchers.
var (
	// ErrNotRunning is returned when tasks are submitted to a stopped
	// background dispatcher.
	ErrNotRunning = errors.New("dispatcher is not running")

	// ErrAlreadyRunning is returned when Start is called twice.
	ErrAlreadyRunning = errors.New("dispatcher is already running")

	// ErrQueueFull is returned when the background queue cannot accept
	// another task.
	ErrQueueFull = errors.New("dispatcher queue is full")

	// ErrTaskPanic is the target for errors.Is against a PanicError.
	ErrTaskPanic = errors.New("task panicked")
)

// PanicError wraps a recovered panic from a task.
type PanicError struct {
	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return "dispatch: task panicked"
}

// Is allows errors.Is to match PanicError with ErrTaskPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrTaskPanic
}
