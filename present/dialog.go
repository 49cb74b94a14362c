package present

import (
	"context"

	"github.com/dshills/keel/event"
	"github.com/dshills/keel/observe"
	"github.com/dshills/keel/view"

	"github.com/google/uuid"
)

// Dialog is the modal presenter. Dialogs stack: each Show pushes on top of
// any dialog already displayed, and the handle it returns resolves when
// the shown view-model is disposed.
type Dialog struct {
	stack    *view.Stack
	builder  Builder
	disposed bool
}

// NewDialog creates a dialog presenter over its own stack.
func NewDialog(builder Builder) *Dialog {
	if builder == nil {
		panic("present: NewDialog called with nil builder")
	}
	return &Dialog{
		stack:   view.NewStack(),
		builder: builder,
	}
}

// Handle tracks one shown dialog through to its close.
type Handle struct {
	id    string
	model view.Model
	done  chan struct{}
	sub   event.Disposable
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() string { return h.id }

// Model returns the dialog's view-model.
func (h *Handle) Model() view.Model { return h.model }

// Done returns a channel closed when the dialog's view-model is disposed.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the dialog closes or ctx is cancelled.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Show builds the descriptor, pushes it as the topmost dialog and returns
// its completion handle.
func (p *Dialog) Show(d Descriptor) (*Handle, error) {
	if p.disposed {
		return nil, ErrDisposed
	}
	pair, err := p.builder.Build(d)
	if err != nil {
		return nil, err
	}

	h := &Handle{
		id:    uuid.NewString(),
		model: pair.Model,
		done:  make(chan struct{}),
	}
	h.sub = observe.FromToken(pair.Model.Disposed()).
		Once().
		OnEach(func(event.Void) error {
			close(h.done)
			return nil
		})

	if err := p.stack.Push(0, pair); err != nil {
		h.sub.Dispose()
		return nil, err
	}
	return h, nil
}

// ShowAndWait shows the dialog and blocks until it closes or ctx is
// cancelled. The dialog outlives a cancelled wait; closing remains the
// view-model's (or Close's) responsibility.
func (p *Dialog) ShowAndWait(ctx context.Context, d Descriptor) error {
	h, err := p.Show(d)
	if err != nil {
		return err
	}
	return h.Wait(ctx)
}

// Close dismisses the given view-models' dialogs.
func (p *Dialog) Close(models ...view.Model) error {
	if p.disposed {
		return ErrDisposed
	}
	return p.stack.Close(models...)
}

// Current returns the topmost dialog entry, or nil when none is shown.
func (p *Dialog) Current() *view.Entry {
	return p.stack.Top()
}

// Models returns the shown view-models, topmost first.
func (p *Dialog) Models() []view.Model {
	return p.stack.Models()
}

// CurrentChanged returns the stack's change token.
func (p *Dialog) CurrentChanged() *event.Token[view.Current] {
	return p.stack.CurrentChanged()
}

// Dispose dismisses every dialog and disables the presenter. Idempotent.
func (p *Dialog) Dispose() {
	if p.disposed {
		return
	}
	p.disposed = true
	p.stack.Dispose()
}

// IsDisposed reports whether the presenter has been disposed.
func (p *Dialog) IsDisposed() bool { return p.disposed }
