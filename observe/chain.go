package observe

import (
	"context"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/dshills/keel/debounce"
	"github.com/dshills/keel/dispatch"
	"github.com/dshills/keel/event"
	"github.com/dshills/keel/lifetime"
)

// Chain is one node of a synchronous observer chain.
type Chain[T any] struct {
	next     *event.Source[T]
	parent   event.Disposable   // nil at the root
	sub      event.Subscription // this node's registration with its parent
	teardown []func()           // extra per-node cleanup (timers, hooks)
	disposed atomic.Bool
}

// FromToken creates the root of a chain over the given event token.
func FromToken[T any](tok *event.Token[T]) *Chain[T] {
	c := &Chain[T]{next: event.NewSource[T]()}
	c.sub = tok.Register(func(v T) error {
		return c.next.Raise(v)
	})
	return c
}

// derive creates a child node whose handler receives each value the parent
// propagates. The handler decides whether and how to raise into child.next.
func derive[T, U any](parent *Chain[T], handler func(child *Chain[U], v T) error) *Chain[U] {
	if parent.disposed.Load() {
		panic("observe: combinator called on disposed chain")
	}
	child := &Chain[U]{
		next:   event.NewSource[U](),
		parent: parent,
	}
	child.sub = parent.next.Token().Register(func(v T) error {
		return handler(child, v)
	})
	return child
}

// OnEach invokes fn for every value, then propagates the value unchanged.
func (c *Chain[T]) OnEach(fn func(v T) error) *Chain[T] {
	return derive(c, func(child *Chain[T], v T) error {
		if err := fn(v); err != nil {
			return err
		}
		return child.next.Raise(v)
	})
}

// Select transforms each value with fn and propagates the result.
func Select[T, U any](c *Chain[T], fn func(v T) U) *Chain[U] {
	return derive(c, func(child *Chain[U], v T) error {
		return child.next.Raise(fn(v))
	})
}

// Where propagates only values for which pred is true. Filtered values are
// absorbed; downstream nodes never see them.
func (c *Chain[T]) Where(pred func(v T) bool) *Chain[T] {
	return derive(c, func(child *Chain[T], v T) error {
		if !pred(v) {
			return nil
		}
		return child.next.Raise(v)
	})
}

// Until disposes the whole chain when pred returns true. With
// continueOnDispose the triggering value is propagated before disposal;
// without it the value is absorbed.
func (c *Chain[T]) Until(pred func(v T) bool, continueOnDispose bool) *Chain[T] {
	return derive(c, func(child *Chain[T], v T) error {
		if !pred(v) {
			return child.next.Raise(v)
		}
		if !continueOnDispose {
			child.Dispose()
			return nil
		}
		defer child.Dispose()
		return child.next.Raise(v)
	})
}

// Once propagates exactly one value, then disposes the chain.
func (c *Chain[T]) Once() *Chain[T] {
	return c.Until(func(T) bool { return true }, true)
}

// On ties the chain's lifetime to lt: when lt ends, the chain is disposed.
// Values pass through unchanged.
func (c *Chain[T]) On(lt *lifetime.Lifetime) *Chain[T] {
	child := passthrough(c)
	cancel := lt.OnEnd(child.Dispose)
	child.teardown = append(child.teardown, cancel)
	return child
}

// OnContext disposes the chain when ctx is done.
func (c *Chain[T]) OnContext(ctx context.Context) *Chain[T] {
	child := passthrough(c)
	stop := context.AfterFunc(ctx, child.Dispose)
	child.teardown = append(child.teardown, func() { stop() })
	return child
}

func passthrough[T any](c *Chain[T]) *Chain[T] {
	return derive(c, func(child *Chain[T], v T) error {
		return child.next.Raise(v)
	})
}

// Debounce absorbs values arriving within delay of each other and emits
// only the last one, on the given dispatcher, once the delay elapses with
// no further values. Errors from downstream stages cannot reach the raiser
// past this point; they are routed to the process-wide default handler.
func (c *Chain[T]) Debounce(delay time.Duration, disp dispatch.Dispatcher) *Chain[T] {
	deb := debounce.New(delay, disp)
	child := derive(c, func(child *Chain[T], v T) error {
		return deb.Call(func(ctx context.Context) error {
			return child.next.Raise(v)
		})
	})
	child.teardown = append(child.teardown, deb.Dispose)
	return child
}

// Catch intercepts failures from every stage composed after it: errors
// returned downstream and panics recovered there are handed to fn instead
// of reaching the raiser. fn returns true to mark the failure handled
// (swallowed); false re-propagates it.
func (c *Chain[T]) Catch(fn func(err error) bool) *Chain[T] {
	return derive(c, func(child *Chain[T], v T) error {
		err := raiseRecovering(child.next, v)
		if err == nil {
			return nil
		}
		if fn(err) {
			return nil
		}
		return err
	})
}

func raiseRecovering[T any](src *event.Source[T], v T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &dispatch.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return src.Raise(v)
}

// ToAsync bridges the chain into an async chain. Each value is forwarded
// to the async chain on the dispatcher; the synchronous raiser does not
// wait for async stages, and their errors go to the default handler.
func (c *Chain[T]) ToAsync(disp dispatch.Dispatcher) *AsyncChain[T] {
	if c.disposed.Load() {
		panic("observe: combinator called on disposed chain")
	}
	a := &AsyncChain[T]{next: event.NewAsyncSource[T]()}
	a.syncSub = c.next.Token().Register(func(v T) error {
		disp.Post(context.Background(), func(ctx context.Context) error {
			return a.next.Raise(ctx, v)
		})
		return nil
	})
	a.parent = c
	return a
}

// Dispose unsubscribes this node and cascades to its parent, all the way
// to the source subscription. Dispose is idempotent.
func (c *Chain[T]) Dispose() {
	if c.disposed.Swap(true) {
		return
	}
	for _, fn := range c.teardown {
		fn()
	}
	c.sub.Dispose()
	if c.parent != nil {
		c.parent.Dispose()
	}
}

// IsDisposed reports whether the node has been disposed.
func (c *Chain[T]) IsDisposed() bool {
	return c.disposed.Load()
}
