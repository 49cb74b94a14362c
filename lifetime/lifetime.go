// Package lifetime provides explicit parent/child lifetime handles with
// registered teardown callbacks. It replaces implicit container-scope
// cascading: a child created from a parent is torn down when the parent
// ends, and anything registered on a lifetime runs exactly once at end.
package lifetime

import (
	"context"
	"sync"
)

// Lifetime is a scope handle. Ending it runs registered teardowns in
// reverse registration order (children before their parents' later
// registrations) exactly once.
type Lifetime struct {
	mu        sync.Mutex
	ended     bool
	teardowns []*teardown
}

type teardown struct {
	fn      func()
	removed bool
}

// New creates a root lifetime.
func New() *Lifetime {
	return &Lifetime{}
}

// FromContext creates a lifetime that ends when ctx is done.
func FromContext(ctx context.Context) *Lifetime {
	l := New()
	context.AfterFunc(ctx, l.End)
	return l
}

// Child creates a lifetime that ends when the parent ends. Ending the child
// early does not affect the parent.
func (l *Lifetime) Child() *Lifetime {
	child := New()
	l.OnEnd(child.End)
	return child
}

// OnEnd registers fn to run when the lifetime ends. If the lifetime has
// already ended, fn runs immediately. The returned cancel func removes the
// registration; calling it after the lifetime ended is a no-op.
func (l *Lifetime) OnEnd(fn func()) (cancel func()) {
	l.mu.Lock()
	if l.ended {
		l.mu.Unlock()
		fn()
		return func() {}
	}
	td := &teardown{fn: fn}
	l.teardowns = append(l.teardowns, td)
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		td.removed = true
		l.mu.Unlock()
	}
}

// End tears the lifetime down. Teardowns run in reverse registration order.
// End is idempotent.
func (l *Lifetime) End() {
	l.mu.Lock()
	if l.ended {
		l.mu.Unlock()
		return
	}
	l.ended = true
	tds := l.teardowns
	l.teardowns = nil
	l.mu.Unlock()

	for i := len(tds) - 1; i >= 0; i-- {
		if !tds[i].removed {
			tds[i].fn()
		}
	}
}

// IsEnded reports whether End has run.
func (l *Lifetime) IsEnded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ended
}
