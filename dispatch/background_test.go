package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func startBackground(t *testing.T, opts ...BackgroundOption) *Background {
	t.Helper()
	d := NewBackground(opts...)
	if err := d.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = d.Stop(ctx)
	})
	return d
}

func TestBackground_RunExecutesTask(t *testing.T) {
	d := startBackground(t)

	var mu sync.Mutex
	ran := false
	err := d.Run(context.Background(), func(ctx context.Context) error {
		mu.Lock()
		ran = true
		mu.Unlock()
		return nil
	})

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if !ran {
		t.Error("task did not run")
	}
}

func TestBackground_StartTwice(t *testing.T) {
	d := startBackground(t)
	if err := d.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestBackground_SubmitWhenStopped(t *testing.T) {
	d := NewBackground()
	p := d.RunAsync(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err := p.Err(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("RunAsync() on stopped dispatcher error = %v, want ErrNotRunning", err)
	}
}

func TestBackground_QueueFullDrops(t *testing.T) {
	d := startBackground(t, WithWorkerCount(1), WithQueueSize(1))

	block := make(chan struct{})
	release := make(chan struct{})

	// Occupy the single worker.
	first := d.RunAsync(context.Background(), func(ctx context.Context) error {
		close(block)
		<-release
		return nil
	})
	<-block

	// Fill the queue.
	second := d.RunAsync(context.Background(), func(ctx context.Context) error {
		return nil
	})

	// Queue is full now; this one must be rejected.
	third := d.RunAsync(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err := third.Err(); !errors.Is(err, ErrQueueFull) {
		t.Errorf("third submission error = %v, want ErrQueueFull", err)
	}

	close(release)
	if err := first.Wait(context.Background()); err != nil {
		t.Errorf("first task error = %v", err)
	}
	if err := second.Wait(context.Background()); err != nil {
		t.Errorf("second task error = %v", err)
	}

	stats := d.Stats()
	if stats.Dropped != 1 {
		t.Errorf("Stats().Dropped = %d, want 1", stats.Dropped)
	}
}

func TestBackground_PanicIsolated(t *testing.T) {
	d := startBackground(t, WithWorkerCount(1))

	err := d.Run(context.Background(), func(ctx context.Context) error {
		panic("worker panic")
	})
	if !errors.Is(err, ErrTaskPanic) {
		t.Errorf("Run() error = %v, want ErrTaskPanic", err)
	}

	// The worker must survive the panic.
	if err := d.Run(context.Background(), func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Errorf("Run() after panic error = %v", err)
	}
}

func TestBackground_StatsCount(t *testing.T) {
	d := startBackground(t, WithWorkerCount(2))

	boom := errors.New("boom")
	_ = d.Run(context.Background(), func(ctx context.Context) error { return nil })
	_ = d.Run(context.Background(), func(ctx context.Context) error { return boom })

	stats := d.Stats()
	if stats.Succeeded != 1 {
		t.Errorf("Stats().Succeeded = %d, want 1", stats.Succeeded)
	}
	if stats.Failed != 1 {
		t.Errorf("Stats().Failed = %d, want 1", stats.Failed)
	}
	if stats.Enqueued != 2 {
		t.Errorf("Stats().Enqueued = %d, want 2", stats.Enqueued)
	}
}
