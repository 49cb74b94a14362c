package present

import (
	"github.com/dshills/keel/event"
	"github.com/dshills/keel/view"
)

// Stack is the arbitrary-depth navigation presenter.
type Stack struct {
	stack    *view.Stack
	builder  Builder
	disposed bool
}

// NewStack creates a stack presenter over its own view stack.
func NewStack(builder Builder) *Stack {
	if builder == nil {
		panic("present: NewStack called with nil builder")
	}
	return &Stack{
		stack:   view.NewStack(),
		builder: builder,
	}
}

// Push builds the descriptor and pushes it on top.
func (p *Stack) Push(d Descriptor) error {
	return p.Replace(view.PopNone(), d)
}

// PushAll pushes a batch; the last descriptor becomes the top.
func (p *Stack) PushAll(ds ...Descriptor) error {
	return p.Replace(view.PopNone(), ds...)
}

// Replace resolves opts against the current stack, pops that many entries
// and pushes the built descriptors in their place. The resolution is
// re-evaluated on every call; stack contents change between calls.
func (p *Stack) Replace(opts view.PopOptions, ds ...Descriptor) error {
	if p.disposed {
		return ErrDisposed
	}
	pairs, err := p.build(ds)
	if err != nil {
		return err
	}
	popCount := opts.Resolve(p.stack.Models())
	return p.stack.Push(popCount, pairs...)
}

// Add inserts built descriptors at the given depth without popping.
func (p *Stack) Add(index int, d Descriptor) error {
	return p.AddAll(index, d)
}

// AddAll inserts a batch at the given depth without popping.
func (p *Stack) AddAll(index int, ds ...Descriptor) error {
	if p.disposed {
		return ErrDisposed
	}
	pairs, err := p.build(ds)
	if err != nil {
		return err
	}
	return p.stack.Add(index, pairs...)
}

// Pop removes popCount entries from the top; false when nothing popped.
func (p *Stack) Pop(popCount int) (bool, error) {
	if p.disposed {
		return false, ErrDisposed
	}
	return p.stack.Pop(popCount)
}

// PopTo pops everything above the first view-model matching pred, scanned
// top-to-bottom when fromTop is true, and the match itself when inclusive.
// It returns the number of entries popped; zero when no model matches.
func (p *Stack) PopTo(pred func(view.Model) bool, fromTop, inclusive bool) (int, error) {
	if p.disposed {
		return 0, ErrDisposed
	}
	popCount := view.PopQuery(pred, fromTop, inclusive).Resolve(p.stack.Models())
	if popCount == 0 {
		return 0, nil
	}
	_, err := p.stack.Pop(popCount)
	return popCount, err
}

// Close removes the given view-models wherever they sit on the stack.
func (p *Stack) Close(models ...view.Model) error {
	if p.disposed {
		return ErrDisposed
	}
	return p.stack.Close(models...)
}

// Clear removes every entry.
func (p *Stack) Clear() error {
	if p.disposed {
		return ErrDisposed
	}
	return p.stack.Clear()
}

// Current returns the top entry, or nil when the stack is empty.
func (p *Stack) Current() *view.Entry {
	return p.stack.Top()
}

// Models returns the view-models in top-to-bottom order.
func (p *Stack) Models() []view.Model {
	return p.stack.Models()
}

// Len returns the stack depth.
func (p *Stack) Len() int {
	return p.stack.Len()
}

// CurrentChanged returns the stack's change token.
func (p *Stack) CurrentChanged() *event.Token[view.Current] {
	return p.stack.CurrentChanged()
}

// ActivateCurrent re-signals activation of the top view-model.
func (p *Stack) ActivateCurrent() error {
	if p.disposed {
		return ErrDisposed
	}
	return p.stack.ActivateCurrent()
}

// Dispose clears the stack and disables the presenter. Idempotent.
func (p *Stack) Dispose() {
	if p.disposed {
		return
	}
	p.disposed = true
	p.stack.Dispose()
}

// IsDisposed reports whether the presenter has been disposed.
func (p *Stack) IsDisposed() bool { return p.disposed }

func (p *Stack) build(ds []Descriptor) ([]view.Pair, error) {
	pairs := make([]view.Pair, 0, len(ds))
	for _, d := range ds {
		pair, err := p.builder.Build(d)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}
