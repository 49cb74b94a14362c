package observe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Unbounded is the buffer-size sentinel for a Limit node whose queue never
// overflows.
const Unbounded = -1

// Limit admits up to maxConcurrent events into the stages downstream of it
// at once. Further events are queued FIFO up to maxBuffer; once the buffer
// is full, incoming events during saturation are dropped. Use Unbounded
// for a queue with no cap.
//
// Raising through a Limit node returns as soon as the event is admitted,
// queued or dropped; downstream errors go to the process-wide default
// handler unless a Catch node downstream intercepts them first.
//
// Limit panics if maxConcurrent is negative; that is a programmer error
// reported at construction, not at event time.
func (c *AsyncChain[T]) Limit(maxConcurrent, maxBuffer int) *AsyncChain[T] {
	if maxConcurrent < 0 {
		panic("observe: Limit with negative maxConcurrent")
	}
	lim := &limiter[T]{
		maxConcurrent: maxConcurrent,
		maxBuffer:     maxBuffer,
	}
	child := deriveAsync(c, func(child *AsyncChain[T], ctx context.Context, v T) error {
		lim.submit(child, ctx, v)
		return nil
	})
	child.teardown = append(child.teardown, lim.dispose)
	child.lim = lim
	return child
}

// LimitStats contains counters for a Limit node.
type LimitStats struct {
	// Admitted is the number of events that entered downstream stages.
	Admitted uint64

	// Buffered is the number of events that waited in the queue.
	Buffered uint64

	// Dropped is the number of events discarded because the queue was
	// full during saturation.
	Dropped uint64
}

// LimitStats returns this node's gate counters. ok is false when the node
// was not produced by Limit.
func (c *AsyncChain[T]) LimitStats() (stats LimitStats, ok bool) {
	if c.lim == nil {
		return LimitStats{}, false
	}
	return c.lim.stats(), true
}

// limiter is the concurrency gate behind a Limit node.
type limiter[T any] struct {
	mu            sync.Mutex
	queue         []limitItem[T]
	active        int
	maxConcurrent int
	maxBuffer     int
	closed        bool

	// Stats
	admitted atomic.Uint64
	buffered atomic.Uint64
	dropped  atomic.Uint64
}

type limitItem[T any] struct {
	ctx context.Context
	v   T
}

func (l *limiter[T]) submit(child *AsyncChain[T], ctx context.Context, v T) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	if l.active < l.maxConcurrent {
		l.active++
		l.mu.Unlock()
		l.admitted.Add(1)
		go l.run(child, ctx, v)
		return
	}
	if l.maxBuffer >= 0 && len(l.queue) >= l.maxBuffer {
		l.mu.Unlock()
		l.dropped.Add(1)
		return
	}
	l.queue = append(l.queue, limitItem[T]{ctx: ctx, v: v})
	l.mu.Unlock()
	l.buffered.Add(1)
}

// run drives one concurrency slot: it executes the admitted event, then
// drains the queue until it is empty or the limiter is disposed.
func (l *limiter[T]) run(child *AsyncChain[T], ctx context.Context, v T) {
	for {
		if err := child.next.Raise(ctx, v); err != nil {
			l.report(err)
		}

		l.mu.Lock()
		if l.closed || len(l.queue) == 0 {
			l.active--
			l.mu.Unlock()
			return
		}
		item := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.admitted.Add(1)
		ctx, v = item.ctx, item.v
	}
}

func (l *limiter[T]) stats() LimitStats {
	return LimitStats{
		Admitted: l.admitted.Load(),
		Buffered: l.buffered.Load(),
		Dropped:  l.dropped.Load(),
	}
}

func (l *limiter[T]) report(err error) {
	// Callers of Raise have long since returned; the default handler is
	// the only remaining sink.
	defaultHandler(err)
}

func (l *limiter[T]) dispose() {
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	l.mu.Unlock()
}
