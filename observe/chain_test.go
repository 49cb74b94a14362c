package observe

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/keel/dispatch"
	"github.com/dshills/keel/event"
	"github.com/dshills/keel/lifetime"
)

func TestChain_OnEachReceivesEveryRaise(t *testing.T) {
	src := event.NewSource[int]()
	var got []int

	chain := FromToken(src.Token()).OnEach(func(v int) error {
		got = append(got, v)
		return nil
	})
	defer chain.Dispose()

	for i := 1; i <= 3; i++ {
		if err := src.Raise(i); err != nil {
			t.Fatalf("Raise(%d) error = %v", i, err)
		}
	}

	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("received = %v, want [1 2 3]", got)
	}
}

func TestChain_WhereFilters(t *testing.T) {
	src := event.NewSource[int]()
	var got []int

	chain := FromToken(src.Token()).
		Where(func(v int) bool { return v%2 == 0 }).
		OnEach(func(v int) error {
			got = append(got, v)
			return nil
		})
	defer chain.Dispose()

	for i := 1; i <= 4; i++ {
		_ = src.Raise(i)
	}

	if len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Errorf("received = %v, want [2 4]", got)
	}
}

func TestSelect_TransformsValueAndType(t *testing.T) {
	src := event.NewSource[int]()
	var got []string

	chain := Select(FromToken(src.Token()), func(v int) string {
		if v > 0 {
			return "pos"
		}
		return "neg"
	}).OnEach(func(s string) error {
		got = append(got, s)
		return nil
	})
	defer chain.Dispose()

	_ = src.Raise(5)
	_ = src.Raise(-5)

	if len(got) != 2 || got[0] != "pos" || got[1] != "neg" {
		t.Errorf("received = %v, want [pos neg]", got)
	}
}

func TestChain_DisposeCascadesToSource(t *testing.T) {
	src := event.NewSource[int]()
	var count int

	chain := FromToken(src.Token()).
		Where(func(int) bool { return true }).
		OnEach(func(int) error {
			count++
			return nil
		})

	_ = src.Raise(1)
	chain.Dispose()
	_ = src.Raise(2)
	_ = src.Raise(3)

	if count != 1 {
		t.Errorf("invocations after dispose = %d, want 1", count)
	}
	if src.HasSubscribers() {
		t.Error("source still has subscribers after terminal dispose")
	}
}

func TestChain_DisposeIdempotent(t *testing.T) {
	src := event.NewSource[int]()
	chain := FromToken(src.Token()).OnEach(func(int) error { return nil })

	chain.Dispose()
	chain.Dispose() // must not panic

	if !chain.IsDisposed() {
		t.Error("IsDisposed() = false after Dispose")
	}
}

func TestChain_UntilAbsorbsTriggeringEvent(t *testing.T) {
	src := event.NewSource[int]()
	var got []int

	chain := FromToken(src.Token()).
		Until(func(v int) bool { return v == 3 }, false).
		OnEach(func(v int) error {
			got = append(got, v)
			return nil
		})
	defer chain.Dispose()

	for i := 1; i <= 5; i++ {
		_ = src.Raise(i)
	}

	// 3 triggers disposal and is absorbed; 4 and 5 never enter the chain.
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("received = %v, want [1 2]", got)
	}
	if src.HasSubscribers() {
		t.Error("source still subscribed after Until disposed the chain")
	}
}

func TestChain_UntilPropagatesTriggeringEvent(t *testing.T) {
	src := event.NewSource[int]()
	var got []int

	chain := FromToken(src.Token()).
		Until(func(v int) bool { return v == 2 }, true).
		OnEach(func(v int) error {
			got = append(got, v)
			return nil
		})
	defer chain.Dispose()

	for i := 1; i <= 4; i++ {
		_ = src.Raise(i)
	}

	if len(got) != 2 || got[1] != 2 {
		t.Errorf("received = %v, want [1 2] (final event delivered)", got)
	}
}

func TestChain_OnceFiresExactlyOnce(t *testing.T) {
	src := event.NewSource[int]()
	count := 0

	chain := FromToken(src.Token()).Once().OnEach(func(int) error {
		count++
		return nil
	})
	defer chain.Dispose()

	for i := 0; i < 5; i++ {
		_ = src.Raise(i)
	}

	if count != 1 {
		t.Errorf("invocations = %d, want exactly 1", count)
	}
}

func TestChain_OnLifetimeDisposes(t *testing.T) {
	src := event.NewSource[int]()
	lt := lifetime.New()
	count := 0

	chain := FromToken(src.Token()).On(lt).OnEach(func(int) error {
		count++
		return nil
	})
	defer chain.Dispose()

	_ = src.Raise(1)
	lt.End()
	_ = src.Raise(2)

	if count != 1 {
		t.Errorf("invocations = %d, want 1 (chain dies with lifetime)", count)
	}
	if src.HasSubscribers() {
		t.Error("source still subscribed after lifetime ended")
	}
}

func TestChain_OnContextDisposes(t *testing.T) {
	src := event.NewSource[int]()
	ctx, cancel := context.WithCancel(context.Background())
	count := 0

	chain := FromToken(src.Token()).OnContext(ctx).OnEach(func(int) error {
		count++
		return nil
	})
	defer chain.Dispose()

	_ = src.Raise(1)
	cancel()

	// context.AfterFunc runs on its own goroutine.
	deadline := time.Now().Add(time.Second)
	for src.HasSubscribers() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if src.HasSubscribers() {
		t.Fatal("source still subscribed after context cancellation")
	}
	if count != 1 {
		t.Errorf("invocations = %d, want 1", count)
	}
}

func TestChain_DebounceCoalesces(t *testing.T) {
	src := event.NewSource[int]()
	var got atomic.Int32
	var last atomic.Int32

	chain := FromToken(src.Token()).
		Debounce(50*time.Millisecond, dispatch.NewSynchronous()).
		OnEach(func(v int) error {
			got.Add(1)
			last.Store(int32(v))
			return nil
		})
	defer chain.Dispose()

	for i := 1; i <= 3; i++ {
		_ = src.Raise(i)
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	if n := got.Load(); n != 1 {
		t.Errorf("emissions = %d, want 1", n)
	}
	if v := last.Load(); v != 3 {
		t.Errorf("emitted value = %d, want 3 (the last trigger)", v)
	}
}

func TestChain_CatchSwallowsDownstreamError(t *testing.T) {
	src := event.NewSource[int]()
	boom := errors.New("boom")
	var caught error

	chain := FromToken(src.Token()).
		Catch(func(err error) bool {
			caught = err
			return true
		}).
		OnEach(func(int) error { return boom })
	defer chain.Dispose()

	if err := src.Raise(1); err != nil {
		t.Errorf("Raise() error = %v, want nil (caught downstream)", err)
	}
	if !errors.Is(caught, boom) {
		t.Errorf("caught = %v, want %v", caught, boom)
	}
}

func TestChain_CatchRepropagatesWhenUnhandled(t *testing.T) {
	src := event.NewSource[int]()
	boom := errors.New("boom")

	chain := FromToken(src.Token()).
		Catch(func(err error) bool { return false }).
		OnEach(func(int) error { return boom })
	defer chain.Dispose()

	if err := src.Raise(1); !errors.Is(err, boom) {
		t.Errorf("Raise() error = %v, want %v (unhandled)", err, boom)
	}
}

func TestChain_CatchRecoversPanic(t *testing.T) {
	src := event.NewSource[int]()
	var caught error

	chain := FromToken(src.Token()).
		Catch(func(err error) bool {
			caught = err
			return true
		}).
		OnEach(func(int) error { panic("stage panic") })
	defer chain.Dispose()

	if err := src.Raise(1); err != nil {
		t.Errorf("Raise() error = %v, want nil", err)
	}
	if !errors.Is(caught, dispatch.ErrTaskPanic) {
		t.Errorf("caught = %v, want a PanicError", caught)
	}
}

func TestChain_ErrorWithoutCatchReachesRaiser(t *testing.T) {
	src := event.NewSource[int]()
	boom := errors.New("boom")

	chain := FromToken(src.Token()).OnEach(func(int) error { return boom })
	defer chain.Dispose()

	if err := src.Raise(1); !errors.Is(err, boom) {
		t.Errorf("Raise() error = %v, want %v", err, boom)
	}
}

func TestChain_CombinatorOnDisposedPanics(t *testing.T) {
	src := event.NewSource[int]()
	chain := FromToken(src.Token())
	chain.Dispose()

	defer func() {
		if recover() == nil {
			t.Error("combinator on disposed chain did not panic")
		}
	}()
	chain.OnEach(func(int) error { return nil })
}

func TestFromFunc_AdaptsForeignSource(t *testing.T) {
	var registered func(int) error
	var unregistered bool

	chain := FromFunc(func(cb func(v int) error) func() {
		registered = cb
		return func() { unregistered = true }
	})

	var got []int
	leaf := chain.OnEach(func(v int) error {
		got = append(got, v)
		return nil
	})

	_ = registered(7)
	if len(got) != 1 || got[0] != 7 {
		t.Errorf("received = %v, want [7]", got)
	}

	leaf.Dispose()
	if !unregistered {
		t.Error("disposing the chain did not unregister the foreign callback")
	}
}

func TestPredicateHelpers(t *testing.T) {
	even := func(v int) bool { return v%2 == 0 }
	pos := func(v int) bool { return v > 0 }

	tests := []struct {
		name string
		pred func(int) bool
		in   int
		want bool
	}{
		{"not-even", Not(even), 3, true},
		{"any-hit", Any(even, pos), 3, true},
		{"any-miss", Any(even, pos), -3, false},
		{"all-hit", All(even, pos), 4, true},
		{"all-miss", All(even, pos), 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred(tt.in); got != tt.want {
				t.Errorf("pred(%d) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
