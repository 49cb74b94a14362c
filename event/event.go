package event

// Void is the payload type for events that carry no data.
type Void = struct{}

// Callback is invoked for each raised event.
// A non-nil error aborts the raise; callbacks registered later do not run
// and the error propagates to the raiser.
type Callback[T any] func(T) error

// Disposable releases a resource. Dispose must be idempotent: the second
// and later calls are no-ops and never panic.
type Disposable interface {
	Dispose()
}

// Source owns an event. The holder of the Source may raise it; consumers
// are handed the Token, which can only register and unregister callbacks.
type Source[T any] struct {
	token Token[T]
	subs  []*subscription[T]
}

// NewSource creates a new event source.
func NewSource[T any]() *Source[T] {
	s := &Source[T]{}
	s.token.src = s
	return s
}

// Token returns the restricted registration handle for this source.
func (s *Source[T]) Token() *Token[T] {
	return &s.token
}

// Raise invokes all currently registered callbacks in registration order.
// The subscriber list is snapshotted at the start of the raise; callbacks
// registered during the raise do not see the current event.
//
// The first callback error stops the raise and is returned to the caller.
// Nothing is swallowed at this layer; isolation is added by the Catch
// combinator higher in a chain.
func (s *Source[T]) Raise(v T) error {
	if len(s.subs) == 0 {
		return nil
	}
	snapshot := make([]*subscription[T], len(s.subs))
	copy(snapshot, s.subs)
	for _, sub := range snapshot {
		if sub.disposed.Load() {
			continue
		}
		if err := sub.fn(v); err != nil {
			return err
		}
	}
	return nil
}

// HasSubscribers reports whether any subscription is currently registered.
func (s *Source[T]) HasSubscribers() bool {
	return len(s.subs) > 0
}

// SubscriberCount returns the number of live subscriptions.
func (s *Source[T]) SubscriberCount() int {
	return len(s.subs)
}

func (s *Source[T]) remove(target *subscription[T]) {
	for i, sub := range s.subs {
		if sub == target {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
	// Not present: removing an unknown subscription is a no-op.
}

// Token is the public face of a Source. It can register callbacks but
// cannot raise the event.
type Token[T any] struct {
	src *Source[T]
}

// Register adds a callback and returns its subscription handle.
// Disposing the handle removes exactly this registration.
//
// Register panics if fn is nil; a nil callback is a programmer error.
func (t *Token[T]) Register(fn Callback[T]) Subscription {
	if fn == nil {
		panic("event: Register called with nil callback")
	}
	sub := newSubscription(t.src, fn)
	t.src.subs = append(t.src.subs, sub)
	return sub
}
