package plugin

import (
	"fmt"
	"sync"

	"github.com/dshills/keel/dispatch"
	"github.com/dshills/keel/event"
	"github.com/dshills/keel/observe"
	"github.com/dshills/keel/view"
)

// Plugin is one extension attached to a host view-model. The Host drives
// its lifecycle in lockstep with the owner's.
type Plugin interface {
	// Name identifies the plugin within its host. Unique per host.
	Name() string

	// Initialize is called once, when the owner initializes (or on
	// attach when the owner already did).
	Initialize(owner view.Model) error

	// Activate and Deactivate follow the owner's activation cycle.
	Activate() error
	Deactivate() error

	// Dispose releases the plugin's resources. Called once.
	Dispose() error
}

// attachment pairs a plugin with its tracked state.
type attachment struct {
	plugin Plugin
	state  State
	err    error
}

// Host fans the lifecycle of one owner view-model out to attached
// plugins. Transitions run in attach order going up (initialize,
// activate) and reverse attach order coming down (deactivate, dispose).
//
// A plugin whose lifecycle call fails moves to StateError and drops out
// of further fan-out; the failure is reported to the host's error
// handler and never aborts the owner's own transition.
type Host struct {
	mu      sync.Mutex
	owner   view.Model
	plugins []*attachment
	byName  map[string]*attachment

	ownerInitialized bool
	ownerActive      bool
	disposed         bool

	subs    []event.Disposable
	onError func(name string, err error)
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithErrorHandler routes plugin lifecycle failures to fn instead of the
// dispatch default handler.
func WithErrorHandler(fn func(name string, err error)) HostOption {
	return func(h *Host) {
		if fn != nil {
			h.onError = fn
		}
	}
}

// NewHost creates a host bound to owner's lifecycle. Panics on a nil
// owner. Plugins attached before the owner initializes see the full
// lifecycle; later attaches are caught up to the owner's current state.
func NewHost(owner view.Model, opts ...HostOption) *Host {
	if owner == nil {
		panic("plugin: NewHost called with nil owner")
	}

	h := &Host{
		owner:  owner,
		byName: make(map[string]*attachment),
		onError: func(name string, err error) {
			dispatch.DefaultErrorHandler()(fmt.Errorf("plugin %s: %w", name, err))
		},
	}
	for _, opt := range opts {
		opt(h)
	}

	// An already-active owner is necessarily initialized.
	if rep, ok := owner.(interface{ IsActive() bool }); ok && rep.IsActive() {
		h.ownerInitialized = true
		h.ownerActive = true
	}

	h.subs = append(h.subs,
		observe.FromToken(owner.Initialized()).OnEach(func(event.Void) error {
			h.ownerInitializedNow()
			return nil
		}),
		observe.FromToken(owner.Activated()).OnEach(func(event.Void) error {
			h.ownerActivated()
			return nil
		}),
		observe.FromToken(owner.Deactivated()).OnEach(func(event.Void) error {
			h.ownerDeactivated()
			return nil
		}),
		observe.FromToken(owner.Disposed()).Once().OnEach(func(event.Void) error {
			h.Dispose()
			return nil
		}),
	)
	return h
}

// Owner returns the host's view-model.
func (h *Host) Owner() view.Model { return h.owner }

// Attach adds a plugin, catching it up to the owner's current state.
func (h *Host) Attach(p Plugin) error {
	if p == nil {
		return ErrNilPlugin
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.disposed {
		return ErrHostDisposed
	}
	name := p.Name()
	if _, exists := h.byName[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, name)
	}

	a := &attachment{plugin: p, state: StateAttached}
	h.plugins = append(h.plugins, a)
	h.byName[name] = a

	if h.ownerInitialized {
		h.step(a, StateInitialized, func() error { return p.Initialize(h.owner) })
	}
	if h.ownerActive && a.state == StateInitialized {
		h.step(a, StateActive, p.Activate)
	}
	return nil
}

// Detach deactivates (if needed), disposes and removes the named plugin.
func (h *Host) Detach(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.disposed {
		return ErrHostDisposed
	}
	a, ok := h.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAttached, name)
	}

	h.teardown(a)
	delete(h.byName, name)
	for i, cur := range h.plugins {
		if cur == a {
			h.plugins = append(h.plugins[:i], h.plugins[i+1:]...)
			break
		}
	}
	return nil
}

// Plugins returns the attached plugins in attach order.
func (h *Host) Plugins() []Plugin {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Plugin, len(h.plugins))
	for i, a := range h.plugins {
		out[i] = a.plugin
	}
	return out
}

// StateOf returns the named plugin's state; false when not attached.
func (h *Host) StateOf(name string) (State, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	a, ok := h.byName[name]
	if !ok {
		return StateAttached, false
	}
	return a.state, true
}

// ErrorOf returns the error that quarantined the named plugin, nil when
// the plugin is healthy or unknown.
func (h *Host) ErrorOf(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	a, ok := h.byName[name]
	if !ok {
		return nil
	}
	return a.err
}

// Dispose tears every plugin down in reverse attach order and detaches
// from the owner's lifecycle. Idempotent; runs automatically when the
// owner is disposed.
func (h *Host) Dispose() {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return
	}
	h.disposed = true
	plugins := h.plugins
	h.plugins = nil
	h.byName = nil
	subs := h.subs
	h.subs = nil

	for i := len(plugins) - 1; i >= 0; i-- {
		h.teardown(plugins[i])
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.Dispose()
	}
}

// IsDisposed reports whether the host has been disposed.
func (h *Host) IsDisposed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disposed
}

func (h *Host) ownerInitializedNow() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ownerInitialized = true
	for _, a := range h.plugins {
		if a.state == StateAttached {
			h.step(a, StateInitialized, func() error { return a.plugin.Initialize(h.owner) })
		}
	}
}

func (h *Host) ownerActivated() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ownerActive = true
	for _, a := range h.plugins {
		if a.state == StateInitialized {
			h.step(a, StateActive, a.plugin.Activate)
		}
	}
}

func (h *Host) ownerDeactivated() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ownerActive = false
	for i := len(h.plugins) - 1; i >= 0; i-- {
		a := h.plugins[i]
		if a.state == StateActive {
			h.step(a, StateInitialized, a.plugin.Deactivate)
		}
	}
}

// step runs one lifecycle call, moving a to next on success and to
// StateError on failure. Caller holds h.mu.
func (h *Host) step(a *attachment, next State, fn func() error) {
	if err := fn(); err != nil {
		a.state = StateError
		a.err = err
		h.onError(a.plugin.Name(), err)
		return
	}
	a.state = next
}

// teardown deactivates and disposes one plugin. Caller holds h.mu.
func (h *Host) teardown(a *attachment) {
	if a.state == StateActive {
		if err := a.plugin.Deactivate(); err != nil {
			h.onError(a.plugin.Name(), err)
		}
	}
	if a.state != StateDisposed {
		if err := a.plugin.Dispose(); err != nil {
			h.onError(a.plugin.Name(), err)
		}
		a.state = StateDisposed
	}
}
