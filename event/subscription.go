package event

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Subscription is a live registration of a callback with a Source.
type Subscription interface {
	Disposable

	// ID returns the unique subscription identifier.
	ID() string

	// IsDisposed reports whether the subscription has been disposed.
	IsDisposed() bool
}

// subscription is the internal implementation of Subscription.
type subscription[T any] struct {
	id       string
	src      *Source[T]
	fn       Callback[T]
	disposed atomic.Bool
}

func newSubscription[T any](src *Source[T], fn Callback[T]) *subscription[T] {
	return &subscription[T]{
		id:  uuid.NewString(),
		src: src,
		fn:  fn,
	}
}

// ID returns the subscription ID.
func (s *subscription[T]) ID() string {
	return s.id
}

// IsDisposed reports whether Dispose has been called.
func (s *subscription[T]) IsDisposed() bool {
	return s.disposed.Load()
}

// Dispose removes this registration from the source. Disposing twice is a
// no-op.
func (s *subscription[T]) Dispose() {
	if s.disposed.Swap(true) {
		return
	}
	s.src.remove(s)
}

// asyncSubscription is the Subscription implementation for AsyncSource.
type asyncSubscription[T any] struct {
	id       string
	src      *AsyncSource[T]
	fn       AsyncCallback[T]
	disposed atomic.Bool
}

func newAsyncSubscription[T any](src *AsyncSource[T], fn AsyncCallback[T]) *asyncSubscription[T] {
	return &asyncSubscription[T]{
		id:  uuid.NewString(),
		src: src,
		fn:  fn,
	}
}

// ID returns the subscription ID.
func (s *asyncSubscription[T]) ID() string {
	return s.id
}

// IsDisposed reports whether Dispose has been called.
func (s *asyncSubscription[T]) IsDisposed() bool {
	return s.disposed.Load()
}

// Dispose removes this registration from the source. Disposing twice is a
// no-op.
func (s *asyncSubscription[T]) Dispose() {
	if s.disposed.Swap(true) {
		return
	}
	s.src.remove(s)
}
