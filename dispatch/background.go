package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Background executes tasks on a worker pool with a bounded queue.
// Submissions never block: when the queue is at capacity the task is
// rejected with ErrQueueFull.
type Background struct {
	// Configuration
	queueSize   int
	workerCount int
	onError     ErrorHandler

	// State
	mu      sync.Mutex // protects queue creation/destruction
	queue   chan bgTask
	running atomic.Bool
	wg      sync.WaitGroup

	panicHandler PanicHandler

	// Stats
	enqueued    atomic.Uint64
	processed   atomic.Uint64
	succeeded   atomic.Uint64
	failed      atomic.Uint64
	panicked    atomic.Uint64
	dropped     atomic.Uint64
	totalTimeNs atomic.Int64
}

// bgTask pairs a task with its completion handle.
type bgTask struct {
	ctx     context.Context
	task    Task
	pending *Pending
}

// NewBackground creates a new worker-pool dispatcher.
func NewBackground(opts ...BackgroundOption) *Background {
	d := &Background{
		queueSize:    1024,
		workerCount:  4,
		panicHandler: defaultPanicHandler,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// BackgroundOption configures a Background dispatcher.
type BackgroundOption func(*Background)

// WithQueueSize sets the task queue capacity.
func WithQueueSize(size int) BackgroundOption {
	return func(d *Background) {
		if size > 0 {
			d.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) BackgroundOption {
	return func(d *Background) {
		if count > 0 {
			d.workerCount = count
		}
	}
}

// WithBackgroundPanicHandler sets the panic handler.
func WithBackgroundPanicHandler(h PanicHandler) BackgroundOption {
	return func(d *Background) {
		if h != nil {
			d.panicHandler = h
		}
	}
}

// WithBackgroundErrorHandler sets the handler for errors from Post.
func WithBackgroundErrorHandler(h ErrorHandler) BackgroundOption {
	return func(d *Background) {
		d.onError = h
	}
}

// Start starts the worker pool.
func (d *Background) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return ErrAlreadyRunning
	}

	d.queue = make(chan bgTask, d.queueSize)
	d.running.Store(true)

	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	return nil
}

// Stop drains the queue and stops the workers. It waits for queued tasks
// to complete or until ctx is cancelled.
func (d *Background) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running.Load() {
		d.mu.Unlock()
		return ErrNotRunning
	}

	d.running.Store(false)
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the worker pool is running.
func (d *Background) IsRunning() bool {
	return d.running.Load()
}

// Run schedules the task and blocks until it completes.
func (d *Background) Run(ctx context.Context, task Task) error {
	return d.RunAsync(ctx, task).Wait(ctx)
}

// Post schedules the task without waiting. Errors are routed to the error
// handler; a rejected submission is reported the same way.
func (d *Background) Post(ctx context.Context, task Task) {
	p := d.RunAsync(ctx, task)
	go func() {
		<-p.Done()
		if err := p.Err(); err != nil {
			d.reportError(err)
		}
	}()
}

// RunAsync schedules the task and returns its completion handle.
// If the dispatcher is stopped or the queue is full, the handle resolves
// immediately with ErrNotRunning or ErrQueueFull.
func (d *Background) RunAsync(ctx context.Context, task Task) *Pending {
	if !d.running.Load() {
		return completedPending(ErrNotRunning)
	}

	t := bgTask{ctx: ctx, task: task, pending: newPending()}

	select {
	case d.queue <- t:
		d.enqueued.Add(1)
		return t.pending
	default:
		d.dropped.Add(1)
		return completedPending(ErrQueueFull)
	}
}

// worker drains the queue until it is closed.
func (d *Background) worker() {
	defer d.wg.Done()

	executor := NewExecutor(WithExecutorPanicHandler(d.panicHandler))

	for t := range d.queue {
		d.processed.Add(1)
		result := executor.Execute(t.ctx, t.task)
		d.totalTimeNs.Add(result.Duration.Nanoseconds())

		switch {
		case result.Panicked:
			d.panicked.Add(1)
		case result.Error != nil:
			d.failed.Add(1)
		case result.Success:
			d.succeeded.Add(1)
		}

		t.pending.complete(result.Error)
	}
}

// QueueDepth returns the number of tasks currently queued.
// Returns 0 if the dispatcher is not running.
func (d *Background) QueueDepth() int {
	if !d.running.Load() {
		return 0
	}
	return len(d.queue)
}

// Stats returns dispatcher statistics.
func (d *Background) Stats() BackgroundStats {
	processed := d.processed.Load()
	totalNs := d.totalTimeNs.Load()

	var avgNs int64
	if processed > 0 {
		avgNs = totalNs / int64(processed)
	}

	return BackgroundStats{
		Enqueued:      d.enqueued.Load(),
		Processed:     processed,
		Succeeded:     d.succeeded.Load(),
		Failed:        d.failed.Load(),
		Panicked:      d.panicked.Load(),
		Dropped:       d.dropped.Load(),
		QueueDepth:    d.QueueDepth(),
		TotalDuration: time.Duration(totalNs),
		AvgDuration:   time.Duration(avgNs),
	}
}

func (d *Background) reportError(err error) {
	if d.onError != nil {
		d.onError(err)
		return
	}
	DefaultErrorHandler()(err)
}

// BackgroundStats contains statistics for a background dispatcher.
type BackgroundStats struct {
	// Enqueued is the total number of tasks accepted into the queue.
	Enqueued uint64

	// Processed is the number of tasks taken off the queue.
	Processed uint64

	// Succeeded is the number of tasks that completed without error.
	Succeeded uint64

	// Failed is the number of tasks that returned errors.
	Failed uint64

	// Panicked is the number of tasks that panicked.
	Panicked uint64

	// Dropped is the number of submissions rejected because the queue
	// was full.
	Dropped uint64

	// QueueDepth is the current number of waiting tasks.
	QueueDepth int

	// TotalDuration is the cumulative time spent running tasks.
	TotalDuration time.Duration

	// AvgDuration is the average task run time.
	AvgDuration time.Duration
}
