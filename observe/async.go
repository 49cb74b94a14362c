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

// AsyncChain is one node of an asynchronous observer chain. Stages may
// block; for a single raised event they run in chain order, each awaited
// before the next. Distinct events are processed serially through a node
// unless a Limit node upstream admits them concurrently.
type AsyncChain[T any] struct {
	next     *event.AsyncSource[T]
	parent   event.Disposable
	sub      event.Subscription // registration with the parent async source
	syncSub  event.Subscription // set on a ToAsync bridge root
	teardown []func()
	lim      limitStatser // set on a Limit node
	disposed atomic.Bool
}

// limitStatser is implemented by the gate behind a Limit node.
type limitStatser interface {
	stats() LimitStats
}

func defaultHandler(err error) {
	dispatch.DefaultErrorHandler()(err)
}

// FromAsyncToken creates the root of an async chain over the given token.
func FromAsyncToken[T any](tok *event.AsyncToken[T]) *AsyncChain[T] {
	c := &AsyncChain[T]{next: event.NewAsyncSource[T]()}
	c.sub = tok.Register(func(ctx context.Context, v T) error {
		return c.next.Raise(ctx, v)
	})
	return c
}

func deriveAsync[T, U any](parent *AsyncChain[T], handler func(child *AsyncChain[U], ctx context.Context, v T) error) *AsyncChain[U] {
	if parent.disposed.Load() {
		panic("observe: combinator called on disposed chain")
	}
	child := &AsyncChain[U]{
		next:   event.NewAsyncSource[U](),
		parent: parent,
	}
	child.sub = parent.next.Token().Register(func(ctx context.Context, v T) error {
		return handler(child, ctx, v)
	})
	return child
}

// OnEach awaits fn for every value, then propagates the value unchanged.
func (c *AsyncChain[T]) OnEach(fn func(ctx context.Context, v T) error) *AsyncChain[T] {
	return deriveAsync(c, func(child *AsyncChain[T], ctx context.Context, v T) error {
		if err := fn(ctx, v); err != nil {
			return err
		}
		return child.next.Raise(ctx, v)
	})
}

// SelectAsync transforms each value with fn and propagates the result.
func SelectAsync[T, U any](c *AsyncChain[T], fn func(ctx context.Context, v T) (U, error)) *AsyncChain[U] {
	return deriveAsync(c, func(child *AsyncChain[U], ctx context.Context, v T) error {
		u, err := fn(ctx, v)
		if err != nil {
			return err
		}
		return child.next.Raise(ctx, u)
	})
}

// Where propagates only values for which pred is true.
func (c *AsyncChain[T]) Where(pred func(v T) bool) *AsyncChain[T] {
	return deriveAsync(c, func(child *AsyncChain[T], ctx context.Context, v T) error {
		if !pred(v) {
			return nil
		}
		return child.next.Raise(ctx, v)
	})
}

// Until disposes the whole chain when pred returns true. With
// continueOnDispose the triggering value is propagated before disposal.
func (c *AsyncChain[T]) Until(pred func(v T) bool, continueOnDispose bool) *AsyncChain[T] {
	return deriveAsync(c, func(child *AsyncChain[T], ctx context.Context, v T) error {
		if !pred(v) {
			return child.next.Raise(ctx, v)
		}
		if !continueOnDispose {
			child.Dispose()
			return nil
		}
		defer child.Dispose()
		return child.next.Raise(ctx, v)
	})
}

// Once propagates exactly one value, then disposes the chain.
func (c *AsyncChain[T]) Once() *AsyncChain[T] {
	return c.Until(func(T) bool { return true }, true)
}

// On ties the chain's lifetime to lt.
func (c *AsyncChain[T]) On(lt *lifetime.Lifetime) *AsyncChain[T] {
	child := passthroughAsync(c)
	cancel := lt.OnEnd(child.Dispose)
	child.teardown = append(child.teardown, cancel)
	return child
}

// OnContext disposes the chain when ctx is done.
func (c *AsyncChain[T]) OnContext(ctx context.Context) *AsyncChain[T] {
	child := passthroughAsync(c)
	stop := context.AfterFunc(ctx, child.Dispose)
	child.teardown = append(child.teardown, func() { stop() })
	return child
}

func passthroughAsync[T any](c *AsyncChain[T]) *AsyncChain[T] {
	return deriveAsync(c, func(child *AsyncChain[T], ctx context.Context, v T) error {
		return child.next.Raise(ctx, v)
	})
}

// Debounce absorbs values arriving within delay of each other and emits
// only the last one on the given dispatcher. Downstream errors past this
// point go to the default handler.
func (c *AsyncChain[T]) Debounce(delay time.Duration, disp dispatch.Dispatcher) *AsyncChain[T] {
	deb := debounce.New(delay, disp)
	child := deriveAsync(c, func(child *AsyncChain[T], ctx context.Context, v T) error {
		return deb.Call(func(ctx context.Context) error {
			return child.next.Raise(ctx, v)
		})
	})
	child.teardown = append(child.teardown, deb.Dispose)
	return child
}

// Catch intercepts failures from every stage composed after it. fn returns
// true to swallow the failure, false to re-propagate it.
func (c *AsyncChain[T]) Catch(fn func(err error) bool) *AsyncChain[T] {
	return deriveAsync(c, func(child *AsyncChain[T], ctx context.Context, v T) error {
		err := raiseRecoveringAsync(child.next, ctx, v)
		if err == nil {
			return nil
		}
		if fn(err) {
			return nil
		}
		return err
	})
}

func raiseRecoveringAsync[T any](src *event.AsyncSource[T], ctx context.Context, v T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &dispatch.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return src.Raise(ctx, v)
}

// Dispose unsubscribes this node and cascades to its parent. Idempotent.
func (c *AsyncChain[T]) Dispose() {
	if c.disposed.Swap(true) {
		return
	}
	for _, fn := range c.teardown {
		fn()
	}
	if c.sub != nil {
		c.sub.Dispose()
	}
	if c.syncSub != nil {
		c.syncSub.Dispose()
	}
	if c.parent != nil {
		c.parent.Dispose()
	}
}

// IsDisposed reports whether the node has been disposed.
func (c *AsyncChain[T]) IsDisposed() bool {
	return c.disposed.Load()
}
