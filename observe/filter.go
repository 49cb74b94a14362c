package observe

import (
	"sync/atomic"

	"github.com/dshills/keel/event"
)

// Predicate helpers for Where/Until, in the spirit of composable filters.

// Not negates a predicate.
func Not[T any](pred func(T) bool) func(T) bool {
	return func(v T) bool {
		return !pred(v)
	}
}

// Any returns a predicate that is true when at least one of preds is true.
func Any[T any](preds ...func(T) bool) func(T) bool {
	return func(v T) bool {
		for _, p := range preds {
			if p(v) {
				return true
			}
		}
		return false
	}
}

// All returns a predicate that is true when every one of preds is true.
func All[T any](preds ...func(T) bool) func(T) bool {
	return func(v T) bool {
		for _, p := range preds {
			if !p(v) {
				return false
			}
		}
		return true
	}
}

// FromFunc adapts a foreign callback-style event API into a chain root.
// register must add the callback to the foreign source and return a
// function that removes it; disposal of the chain calls it.
func FromFunc[T any](register func(cb func(v T) error) (unregister func())) *Chain[T] {
	c := &Chain[T]{next: event.NewSource[T]()}
	unregister := register(func(v T) error {
		return c.next.Raise(v)
	})
	c.sub = &funcSubscription{fn: unregister}
	return c
}

// funcSubscription wraps an unregister func as a Subscription.
type funcSubscription struct {
	fn       func()
	disposed atomic.Bool
}

func (f *funcSubscription) ID() string       { return "" }
func (f *funcSubscription) IsDisposed() bool { return f.disposed.Load() }
func (f *funcSubscription) Dispose() {
	if f.disposed.Swap(true) {
		return
	}
	if f.fn != nil {
		f.fn()
	}
}
