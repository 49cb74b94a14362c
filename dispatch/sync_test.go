package dispatch

import (
	"context"
	"errors"
	"testing"
)

func TestSynchronous_RunReturnsTaskError(t *testing.T) {
	d := NewSynchronous()
	boom := errors.New("boom")

	err := d.Run(context.Background(), func(ctx context.Context) error {
		return boom
	})

	if !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want %v", err, boom)
	}
}

func TestSynchronous_RunRecoversPanic(t *testing.T) {
	d := NewSynchronous()

	err := d.Run(context.Background(), func(ctx context.Context) error {
		panic("kaboom")
	})

	if !errors.Is(err, ErrTaskPanic) {
		t.Errorf("Run() error = %v, want ErrTaskPanic", err)
	}

	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatal("Run() error is not a *PanicError")
	}
	if pe.Value != "kaboom" {
		t.Errorf("PanicError.Value = %v, want kaboom", pe.Value)
	}
	if len(pe.Stack) == 0 {
		t.Error("PanicError.Stack is empty")
	}
}

func TestSynchronous_RunSkipsWhenContextDone(t *testing.T) {
	d := NewSynchronous()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran bool
	err := d.Run(ctx, func(ctx context.Context) error {
		ran = true
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if ran {
		t.Error("task ran despite cancelled context")
	}
}

func TestSynchronous_PostRoutesErrors(t *testing.T) {
	var captured error
	d := NewSynchronous(WithSyncErrorHandler(func(err error) {
		captured = err
	}))
	boom := errors.New("boom")

	d.Post(context.Background(), func(ctx context.Context) error {
		return boom
	})

	if !errors.Is(captured, boom) {
		t.Errorf("error handler received %v, want %v", captured, boom)
	}
}

func TestSynchronous_RunAsyncResolvesImmediately(t *testing.T) {
	d := NewSynchronous()

	p := d.RunAsync(context.Background(), func(ctx context.Context) error {
		return nil
	})

	select {
	case <-p.Done():
	default:
		t.Fatal("RunAsync handle not resolved for inline dispatcher")
	}
	if err := p.Err(); err != nil {
		t.Errorf("Pending.Err() = %v, want nil", err)
	}
}

func TestCall_ReturnsTypedResult(t *testing.T) {
	d := NewSynchronous()

	got, err := Call(context.Background(), d, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got != 42 {
		t.Errorf("Call() = %d, want 42", got)
	}
}
