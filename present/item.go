package present

import (
	"github.com/dshills/keel/event"
	"github.com/dshills/keel/view"
)

// Item is the single-slot presenter: every Set replaces the previous
// entry with a newly built one.
type Item struct {
	stack    *view.Stack
	builder  Builder
	disposed bool
}

// NewItem creates an item presenter over its own stack.
func NewItem(builder Builder) *Item {
	if builder == nil {
		panic("present: NewItem called with nil builder")
	}
	return &Item{
		stack:   view.NewStack(),
		builder: builder,
	}
}

// Set builds the descriptor and installs it in the slot, popping whatever
// occupied it.
func (p *Item) Set(d Descriptor) error {
	if p.disposed {
		return ErrDisposed
	}
	pair, err := p.builder.Build(d)
	if err != nil {
		return err
	}
	return p.stack.Push(1, pair)
}

// Clear empties the slot.
func (p *Item) Clear() error {
	if p.disposed {
		return ErrDisposed
	}
	return p.stack.Clear()
}

// Current returns the occupying entry, or nil when the slot is empty.
func (p *Item) Current() *view.Entry {
	return p.stack.Top()
}

// CurrentChanged returns the slot's change token.
func (p *Item) CurrentChanged() *event.Token[view.Current] {
	return p.stack.CurrentChanged()
}

// ActivateCurrent re-signals activation of the occupying view-model.
func (p *Item) ActivateCurrent() error {
	if p.disposed {
		return ErrDisposed
	}
	return p.stack.ActivateCurrent()
}

// Dispose empties the slot and disables the presenter. Idempotent.
func (p *Item) Dispose() {
	if p.disposed {
		return
	}
	p.disposed = true
	p.stack.Dispose()
}

// IsDisposed reports whether the presenter has been disposed.
func (p *Item) IsDisposed() bool { return p.disposed }
