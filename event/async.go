package event

import "context"

// AsyncCallback is invoked for each raised async event. It may block; the
// raise does not return until every callback has.
type AsyncCallback[T any] func(ctx context.Context, v T) error

// AsyncSource is the awaitable variant of Source. Callbacks receive the
// raiser's context and run in registration order, each awaited before the
// next starts.
type AsyncSource[T any] struct {
	token AsyncToken[T]
	subs  []*asyncSubscription[T]
}

// NewAsyncSource creates a new async event source.
func NewAsyncSource[T any]() *AsyncSource[T] {
	s := &AsyncSource[T]{}
	s.token.src = s
	return s
}

// Token returns the restricted registration handle for this source.
func (s *AsyncSource[T]) Token() *AsyncToken[T] {
	return &s.token
}

// Raise invokes all currently registered callbacks in order, awaiting each.
// The first error stops the raise and is returned to the caller.
func (s *AsyncSource[T]) Raise(ctx context.Context, v T) error {
	if len(s.subs) == 0 {
		return nil
	}
	snapshot := make([]*asyncSubscription[T], len(s.subs))
	copy(snapshot, s.subs)
	for _, sub := range snapshot {
		if sub.disposed.Load() {
			continue
		}
		if err := sub.fn(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// HasSubscribers reports whether any subscription is currently registered.
func (s *AsyncSource[T]) HasSubscribers() bool {
	return len(s.subs) > 0
}

// SubscriberCount returns the number of live subscriptions.
func (s *AsyncSource[T]) SubscriberCount() int {
	return len(s.subs)
}

func (s *AsyncSource[T]) remove(target *asyncSubscription[T]) {
	for i, sub := range s.subs {
		if sub == target {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// AsyncToken is the public face of an AsyncSource.
type AsyncToken[T any] struct {
	src *AsyncSource[T]
}

// Register adds a callback and returns its subscription handle.
// Register panics if fn is nil.
func (t *AsyncToken[T]) Register(fn AsyncCallback[T]) Subscription {
	if fn == nil {
		panic("event: Register called with nil callback")
	}
	sub := newAsyncSubscription(t.src, fn)
	t.src.subs = append(t.src.subs, sub)
	return sub
}
