package present

import "errors"

// Sentinel errors for presentation services.
var (
	// ErrDisposed is returned by every operation on a disposed presenter.
	ErrDisposed = errors.New("present: presenter is disposed")

	// ErrUnknownDescriptor is returned when no factory is registered for
	// a descriptor name.
	ErrUnknownDescriptor = errors.New("present: no factory for descriptor")

	// ErrDuplicateFactory is returned when a descriptor name is
	// registered twice.
	ErrDuplicateFactory = errors.New("present: factory already registered")

	// ErrNilFactory is returned when a nil factory is registered.
	ErrNilFactory = errors.New("present: factory cannot be nil")
)
