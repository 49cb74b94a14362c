package event

import (
	"errors"
	"testing"
)

func TestSource_RaiseInvokesInOrder(t *testing.T) {
	src := NewSource[int]()
	var order []string

	src.Token().Register(func(v int) error {
		order = append(order, "first")
		return nil
	})
	src.Token().Register(func(v int) error {
		order = append(order, "second")
		return nil
	})

	if err := src.Raise(1); err != nil {
		t.Fatalf("Raise() error = %v", err)
	}

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("invocation order = %v, want [first second]", order)
	}
}

func TestSource_RaiseNoSubscribers(t *testing.T) {
	src := NewSource[string]()
	if err := src.Raise("ignored"); err != nil {
		t.Errorf("Raise() with no subscribers error = %v, want nil", err)
	}
}

func TestSource_ErrorStopsRaise(t *testing.T) {
	src := NewSource[int]()
	boom := errors.New("boom")
	var secondRan bool

	src.Token().Register(func(v int) error { return boom })
	src.Token().Register(func(v int) error {
		secondRan = true
		return nil
	})

	err := src.Raise(1)
	if !errors.Is(err, boom) {
		t.Errorf("Raise() error = %v, want %v", err, boom)
	}
	if secondRan {
		t.Error("callback after the failing one ran, want raise aborted")
	}
}

func TestSource_DuplicateRegistration(t *testing.T) {
	src := NewSource[int]()
	count := 0
	cb := func(v int) error {
		count++
		return nil
	}

	sub1 := src.Token().Register(cb)
	sub2 := src.Token().Register(cb)

	if err := src.Raise(1); err != nil {
		t.Fatalf("Raise() error = %v", err)
	}
	if count != 2 {
		t.Errorf("invocations = %d, want 2 (same callback registered twice)", count)
	}

	sub1.Dispose()
	if err := src.Raise(2); err != nil {
		t.Fatalf("Raise() error = %v", err)
	}
	if count != 3 {
		t.Errorf("invocations = %d, want 3 (one registration remains)", count)
	}

	sub2.Dispose()
	if err := src.Raise(3); err != nil {
		t.Fatalf("Raise() error = %v", err)
	}
	if count != 3 {
		t.Errorf("invocations = %d, want 3 (all registrations disposed)", count)
	}
}

func TestSubscription_DisposeIdempotent(t *testing.T) {
	src := NewSource[int]()
	sub := src.Token().Register(func(v int) error { return nil })

	sub.Dispose()
	sub.Dispose() // must not panic or corrupt the list

	if !sub.IsDisposed() {
		t.Error("IsDisposed() = false after Dispose")
	}
	if src.HasSubscribers() {
		t.Error("HasSubscribers() = true after sole subscription disposed")
	}
}

func TestSubscription_IDsUnique(t *testing.T) {
	src := NewSource[int]()
	sub1 := src.Token().Register(func(v int) error { return nil })
	sub2 := src.Token().Register(func(v int) error { return nil })

	if sub1.ID() == sub2.ID() {
		t.Errorf("subscription IDs collide: %s", sub1.ID())
	}
}

func TestToken_RegisterNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Register(nil) did not panic")
		}
	}()
	NewSource[int]().Token().Register(nil)
}

func TestSource_RegisterDuringRaiseNotInvoked(t *testing.T) {
	src := NewSource[int]()
	var lateRan bool

	src.Token().Register(func(v int) error {
		src.Token().Register(func(v int) error {
			lateRan = true
			return nil
		})
		return nil
	})

	if err := src.Raise(1); err != nil {
		t.Fatalf("Raise() error = %v", err)
	}
	if lateRan {
		t.Error("callback registered mid-raise saw the current event")
	}
}
