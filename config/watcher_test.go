package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/keel/dispatch"
)

func TestWatcher_InitialLoad(t *testing.T) {
	path := writeFile(t, "keel.toml", "[dispatcher]\nworkers = 3\n")
	w, err := NewWatcher(path, dispatch.NewSynchronous())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	if got := w.Settings().Dispatcher.Workers; got != 3 {
		t.Errorf("Workers = %d, want 3", got)
	}
}

func TestWatcher_MissingFileStartsWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	w, err := NewWatcher(path, dispatch.NewSynchronous())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	if w.Settings() != DefaultSettings() {
		t.Errorf("Settings() = %+v, want defaults", w.Settings())
	}
}

func TestWatcher_RaisesChangeOnRewrite(t *testing.T) {
	path := writeFile(t, "keel.toml", "[dispatcher]\nworkers = 2\n")
	w, err := NewWatcher(path, dispatch.NewSynchronous(),
		WithPolling(),
		WithPollInterval(10*time.Millisecond),
		WithChangeDebounce(0))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	changes := make(chan Change, 1)
	w.Changed().Register(func(c Change) error {
		changes <- c
		return nil
	})

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Rewritten settings must flow through as a single change.
	time.Sleep(20 * time.Millisecond)
	if err := os.WriteFile(path, []byte("[dispatcher]\nworkers = 7\n"), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}

	select {
	case c := <-changes:
		if c.Old.Dispatcher.Workers != 2 {
			t.Errorf("Old.Workers = %d, want 2", c.Old.Dispatcher.Workers)
		}
		if c.New.Dispatcher.Workers != 7 {
			t.Errorf("New.Workers = %d, want 7", c.New.Dispatcher.Workers)
		}
		if c.Path == "" {
			t.Error("Change.Path is empty")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change event after rewrite")
	}

	if got := w.Settings().Dispatcher.Workers; got != 7 {
		t.Errorf("Workers after reload = %d, want 7", got)
	}
}

func TestWatcher_IdenticalRewriteRaisesNothing(t *testing.T) {
	const content = "[dispatcher]\nworkers = 2\n"
	path := writeFile(t, "keel.toml", content)
	w, err := NewWatcher(path, dispatch.NewSynchronous(),
		WithPolling(),
		WithPollInterval(10*time.Millisecond),
		WithChangeDebounce(0))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	changes := make(chan Change, 1)
	w.Changed().Register(func(c Change) error {
		changes <- c
		return nil
	})
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	// Touch the file without changing its settings.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("touching config: %v", err)
	}

	select {
	case c := <-changes:
		t.Fatalf("unexpected change event: %+v", c)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_StartStopLifecycle(t *testing.T) {
	path := writeFile(t, "keel.toml", "")
	w, err := NewWatcher(path, dispatch.NewSynchronous(), WithPolling())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !w.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if err := w.Start(); err != nil {
		t.Errorf("second Start() error = %v", err)
	}

	w.Stop()
	w.Stop()
	if w.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}

	w.Close()
	if err := w.Start(); err != ErrWatcherClosed {
		t.Errorf("Start() after Close error = %v, want ErrWatcherClosed", err)
	}
}
