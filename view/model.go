package view

import "github.com/dshills/keel/event"

// Model is the lifecycle capability every view-model on a stack must
// expose. The stack drives the four transitions and hosts observe them
// through the corresponding tokens.
type Model interface {
	// Initialize is called once, when the view-model enters a stack.
	Initialize() error

	// Activate is called when the view-model becomes the top entry.
	Activate() error

	// Deactivate is called when the view-model stops being the top entry.
	Deactivate() error

	// Dispose is called exactly once when the view-model leaves the
	// stack. It must be idempotent.
	Dispose()

	// Lifecycle event tokens.
	Initialized() *event.Token[event.Void]
	Activated() *event.Token[event.Void]
	Deactivated() *event.Token[event.Void]
	Disposed() *event.Token[event.Void]
}

// Closable is optionally implemented by view-models that can request their
// own removal. The stack auto-subscribes; when the signal fires, the stack
// removes that entry as if Close had been called with it.
type Closable interface {
	CloseRequested() *event.Token[event.Void]
}

// Core is an embeddable Model implementation holding the lifecycle state
// machine and its event sources. Embedders override behavior by wrapping
// the Core methods, raising through them to keep the events flowing.
type Core struct {
	initialized *event.Source[event.Void]
	activated   *event.Source[event.Void]
	deactivated *event.Source[event.Void]
	disposed    *event.Source[event.Void]
	closeReq    *event.Source[event.Void]

	isInitialized bool
	isActive      bool
	isDisposed    bool
}

// NewCore creates a view-model core in the created state.
func NewCore() *Core {
	return &Core{
		initialized: event.NewSource[event.Void](),
		activated:   event.NewSource[event.Void](),
		deactivated: event.NewSource[event.Void](),
		disposed:    event.NewSource[event.Void](),
		closeReq:    event.NewSource[event.Void](),
	}
}

// Initialize marks the view-model initialized and raises Initialized.
// A second call is a no-op.
func (c *Core) Initialize() error {
	if c.isDisposed {
		return ErrDisposed
	}
	if c.isInitialized {
		return nil
	}
	c.isInitialized = true
	return c.initialized.Raise(event.Void{})
}

// Activate transitions to active and raises Activated. Activating an
// already-active view-model is an error: activation strictly alternates.
func (c *Core) Activate() error {
	if c.isDisposed {
		return ErrDisposed
	}
	if c.isActive {
		return ErrAlreadyActive
	}
	c.isActive = true
	return c.activated.Raise(event.Void{})
}

// Deactivate transitions to inactive and raises Deactivated.
func (c *Core) Deactivate() error {
	if c.isDisposed {
		return ErrDisposed
	}
	if !c.isActive {
		return ErrNotActive
	}
	c.isActive = false
	return c.deactivated.Raise(event.Void{})
}

// Dispose raises Disposed once. Further calls are no-ops.
func (c *Core) Dispose() {
	if c.isDisposed {
		return
	}
	c.isDisposed = true
	c.isActive = false
	// Disposal notifications have no raiser to report to.
	_ = c.disposed.Raise(event.Void{})
}

// RequestClose raises the close signal. The owning stack, if any, responds
// by removing this view-model's entry.
func (c *Core) RequestClose() error {
	if c.isDisposed {
		return ErrDisposed
	}
	return c.closeReq.Raise(event.Void{})
}

// IsActive reports whether the view-model is currently active.
func (c *Core) IsActive() bool { return c.isActive }

// IsDisposed reports whether the view-model has been disposed.
func (c *Core) IsDisposed() bool { return c.isDisposed }

// Initialized returns the token raised once on initialization.
func (c *Core) Initialized() *event.Token[event.Void] { return c.initialized.Token() }

// Activated returns the token raised on each activation.
func (c *Core) Activated() *event.Token[event.Void] { return c.activated.Token() }

// Deactivated returns the token raised on each deactivation.
func (c *Core) Deactivated() *event.Token[event.Void] { return c.deactivated.Token() }

// Disposed returns the token raised once on disposal.
func (c *Core) Disposed() *event.Token[event.Void] { return c.disposed.Token() }

// CloseRequested implements Closable.
func (c *Core) CloseRequested() *event.Token[event.Void] { return c.closeReq.Token() }
