package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/keel/dispatch"
	"github.com/dshills/keel/event"
)

// Change describes one observed settings reload.
type Change struct {
	// Path is the watched file.
	Path string

	// Old and New are the settings before and after the reload.
	Old Settings
	New Settings

	// At is when the change was applied.
	At time.Time
}

// Watcher reloads a settings file when it changes on disk.
//
// The fsnotify backend is used when available; WithPolling (or an
// fsnotify setup failure) selects a modtime-polling fallback. Rapid
// successive file events are debounced before reloading. Reloads that
// parse to identical settings raise nothing.
type Watcher struct {
	mu      sync.Mutex
	path    string
	disp    dispatch.Dispatcher
	changed *event.Source[Change]
	current Settings

	interval  time.Duration
	debounce  time.Duration
	forcePoll bool
	onError   dispatch.ErrorHandler

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	closed  bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithPollInterval sets the polling backend's check interval.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithChangeDebounce sets the quiet period applied to raw file events.
func WithChangeDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithPolling forces the polling backend.
func WithPolling() WatcherOption {
	return func(w *Watcher) {
		w.forcePoll = true
	}
}

// WithWatcherErrorHandler routes reload and backend errors to fn instead
// of the dispatch default handler.
func WithWatcherErrorHandler(fn dispatch.ErrorHandler) WatcherOption {
	return func(w *Watcher) {
		if fn != nil {
			w.onError = fn
		}
	}
}

// NewWatcher creates a watcher for path and performs the initial load.
// Change notifications are raised on disp, keeping subscribers on the
// framework's single-threaded event discipline. Panics on a nil
// dispatcher.
func NewWatcher(path string, disp dispatch.Dispatcher, opts ...WatcherOption) (*Watcher, error) {
	if disp == nil {
		panic("config: NewWatcher called with nil dispatcher")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	def := DefaultSettings()
	w := &Watcher{
		path:     abs,
		disp:     disp,
		changed:  event.NewSource[Change](),
		interval: def.Watcher.Interval.Std(),
		debounce: def.Watcher.Debounce.Std(),
		onError:  dispatch.DefaultErrorHandler(),
	}
	for _, opt := range opts {
		opt(w)
	}

	initial, err := Load(abs)
	if err != nil {
		return nil, err
	}
	w.current = initial
	return w, nil
}

// Settings returns the most recently loaded settings.
func (w *Watcher) Settings() Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Changed returns the token raised after each applied reload.
func (w *Watcher) Changed() *event.Token[Change] {
	return w.changed.Token()
}

// Start begins watching. Starting a running watcher is a no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.running {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.running = true

	var fsw *fsnotify.Watcher
	if !w.forcePoll {
		// Watch the directory: editors replace files via rename, which
		// drops a watch set on the file itself.
		if nw, err := fsnotify.NewWatcher(); err == nil {
			if err := nw.Add(filepath.Dir(w.path)); err == nil {
				fsw = nw
			} else {
				_ = nw.Close()
			}
		}
	}

	w.wg.Add(1)
	if fsw != nil {
		go w.runNotify(ctx, fsw)
	} else {
		go w.runPoll(ctx)
	}
	return nil
}

// Stop halts watching without closing the watcher. Idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.cancel()
	w.mu.Unlock()

	w.wg.Wait()
}

// Close stops the watcher permanently. Idempotent.
func (w *Watcher) Close() {
	w.Stop()
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

// IsRunning reports whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) runNotify(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer func() { _ = fsw.Close() }()

	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			if w.debounce <= 0 {
				w.reload()
				continue
			}
			timer = time.NewTimer(w.debounce)
			pending = timer.C
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		case <-pending:
			timer = nil
			pending = nil
			w.reload()
		}
	}
}

func (w *Watcher) runPoll(ctx context.Context) {
	defer w.wg.Done()

	lastMod := w.modTime()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mod := w.modTime()
			if mod != lastMod {
				lastMod = mod
				w.reload()
			}
		}
	}
}

// modTime returns the file's modification time, zero when it is absent.
func (w *Watcher) modTime() time.Time {
	info, err := os.Stat(w.path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// reload re-reads the file and raises Change when the settings differ.
func (w *Watcher) reload() {
	loaded, err := Load(w.path)
	if err != nil {
		w.onError(err)
		return
	}

	w.mu.Lock()
	if loaded == w.current {
		w.mu.Unlock()
		return
	}
	ch := Change{
		Path: w.path,
		Old:  w.current,
		New:  loaded,
		At:   time.Now(),
	}
	w.current = loaded
	w.mu.Unlock()

	w.disp.Post(context.Background(), func(context.Context) error {
		return w.changed.Raise(ch)
	})
}
