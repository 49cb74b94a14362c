package view

import (
	"github.com/dshills/keel/event"
	"github.com/dshills/keel/observe"

	"github.com/google/uuid"
)

// Pair is a bound view and view-model produced by a builder.
type Pair struct {
	// View is the host-toolkit view object; the stack treats it as opaque.
	View any

	// Model is the view-model driving the view.
	Model Model
}

// Current describes the top of the stack after a mutation.
type Current struct {
	// View is the new top's view, nil when the stack emptied.
	View any

	// Model is the new top's view-model, nil when the stack emptied.
	Model Model

	// IsNew is true when the top is a freshly pushed entry, false when an
	// existing entry was exposed by removal.
	IsNew bool
}

// Entry is one (view, view-model) pair on a stack.
type Entry struct {
	id       string
	view     any
	model    Model
	closeSub event.Disposable // auto-close chain, nil for non-closable models
	active   bool
	disposed bool
}

// ID returns the entry's unique identifier.
func (e *Entry) ID() string { return e.id }

// View returns the entry's view object.
func (e *Entry) View() any { return e.view }

// Model returns the entry's view-model.
func (e *Entry) Model() Model { return e.model }

// dispose tears the entry down exactly once.
func (e *Entry) dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	if e.closeSub != nil {
		e.closeSub.Dispose()
	}
	e.model.Dispose()
}

// Stack is an ordered collection of entries. Index 0 is the top; it is the
// only active entry. Not safe for concurrent use.
type Stack struct {
	entries        []*Entry
	currentChanged *event.Source[Current]
	disposed       bool
}

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{
		currentChanged: event.NewSource[Current](),
	}
}

// CurrentChanged returns the token raised whenever the top identity
// changes. Clear does not raise it.
func (s *Stack) CurrentChanged() *event.Token[Current] {
	return s.currentChanged.Token()
}

// Len returns the number of entries.
func (s *Stack) Len() int { return len(s.entries) }

// Top returns the top entry, or nil when the stack is empty.
func (s *Stack) Top() *Entry {
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[0]
}

// Models returns the view-models in top-to-bottom order.
func (s *Stack) Models() []Model {
	models := make([]Model, len(s.entries))
	for i, e := range s.entries {
		models[i] = e.model
	}
	return models
}

// Contains reports whether m is on the stack.
func (s *Stack) Contains(m Model) bool {
	for _, e := range s.entries {
		if e.model == m {
			return true
		}
	}
	return false
}

// Push removes popCount entries from the top, then inserts the given pairs
// so that the last pair of the batch becomes the new top. The displaced top
// is deactivated before removal; the new top is initialized (if needed) and
// activated; if the top identity changed a Current event is raised.
//
// Stack mutation is not transactional: a lifecycle error leaves entries
// already removed or inserted in place and is returned to the caller.
func (s *Stack) Push(popCount int, pairs ...Pair) error {
	if s.disposed {
		return ErrDisposed
	}
	if popCount <= 0 && len(pairs) == 0 {
		return nil
	}

	oldTop := s.Top()
	if oldTop != nil && oldTop.active {
		if err := s.deactivate(oldTop); err != nil {
			return err
		}
	}

	s.removeTop(popCount)

	for _, p := range pairs {
		entry := s.newEntry(p)
		s.entries = append([]*Entry{entry}, s.entries...)
		if err := p.Model.Initialize(); err != nil {
			return err
		}
	}

	newTop := s.Top()
	if newTop != nil && newTop != oldTop {
		if err := s.activate(newTop); err != nil {
			return err
		}
	}

	return s.notifyIfChanged(oldTop, len(pairs) > 0)
}

// Add inserts pairs at the given index without popping. Index 0 behaves
// like Push with popCount 0; deeper insertions change no activation state.
func (s *Stack) Add(index int, pairs ...Pair) error {
	if s.disposed {
		return ErrDisposed
	}
	if len(pairs) == 0 {
		return nil
	}
	if index <= 0 {
		return s.Push(0, pairs...)
	}
	if index > len(s.entries) {
		index = len(s.entries)
	}

	inserted := make([]*Entry, 0, len(pairs))
	// Reverse-iteration insertion: the last pair of the batch lands
	// closest to the top of the inserted block.
	for i := len(pairs) - 1; i >= 0; i-- {
		inserted = append(inserted, s.newEntry(pairs[i]))
	}

	rest := make([]*Entry, 0, len(s.entries)+len(inserted))
	rest = append(rest, s.entries[:index]...)
	rest = append(rest, inserted...)
	rest = append(rest, s.entries[index:]...)
	s.entries = rest

	for _, p := range pairs {
		if err := p.Model.Initialize(); err != nil {
			return err
		}
	}
	return nil
}

// Pop removes popCount entries from the top. It reports false without
// mutating when popCount is not positive or the stack is empty.
func (s *Stack) Pop(popCount int) (bool, error) {
	if s.disposed {
		return false, ErrDisposed
	}
	if popCount <= 0 || len(s.entries) == 0 {
		return false, nil
	}
	return true, s.Push(popCount)
}

// Close removes every entry whose view-model is in models, wherever it
// sits. Removal runs in descending index order so indices stay stable. If
// the top was among the removed, the new top is activated and a Current
// event is raised; otherwise nothing else changes.
func (s *Stack) Close(models ...Model) error {
	if s.disposed {
		return ErrDisposed
	}

	set := make(map[Model]bool, len(models))
	for _, m := range models {
		set[m] = true
	}

	var indices []int
	for i, e := range s.entries {
		if set[e.model] {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return nil
	}

	oldTop := s.Top()
	topRemoved := indices[0] == 0

	if topRemoved && oldTop.active {
		if err := s.deactivate(oldTop); err != nil {
			return err
		}
	}

	for i := len(indices) - 1; i >= 0; i-- {
		idx := indices[i]
		e := s.entries[idx]
		s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
		e.dispose()
	}

	if !topRemoved {
		return nil
	}

	if newTop := s.Top(); newTop != nil {
		if err := s.activate(newTop); err != nil {
			return err
		}
	}
	return s.notifyIfChanged(oldTop, false)
}

// Clear removes and disposes every entry. No reactivation occurs and no
// Current event is raised; the stack is empty afterward.
func (s *Stack) Clear() error {
	if s.disposed {
		return ErrDisposed
	}

	if top := s.Top(); top != nil && top.active {
		if err := s.deactivate(top); err != nil {
			return err
		}
	}
	entries := s.entries
	s.entries = nil
	for _, e := range entries {
		e.dispose()
	}
	return nil
}

// ActivateCurrent re-runs Activate on the top entry even though its
// identity is unchanged. This is the one sanctioned way to double-signal
// activation: an explicit caller request.
func (s *Stack) ActivateCurrent() error {
	if s.disposed {
		return ErrDisposed
	}
	top := s.Top()
	if top == nil {
		return nil
	}
	if top.active {
		if err := s.deactivate(top); err != nil {
			return err
		}
	}
	return s.activate(top)
}

// Dispose clears the stack and permanently disables it. Idempotent.
func (s *Stack) Dispose() {
	if s.disposed {
		return
	}
	// Best effort: lifecycle errors cannot abort disposal.
	_ = s.Clear()
	s.disposed = true
}

// IsDisposed reports whether the stack has been disposed.
func (s *Stack) IsDisposed() bool { return s.disposed }

func (s *Stack) newEntry(p Pair) *Entry {
	e := &Entry{
		id:    uuid.NewString(),
		view:  p.View,
		model: p.Model,
	}
	if c, ok := p.Model.(Closable); ok {
		model := p.Model
		e.closeSub = observe.FromToken(c.CloseRequested()).
			Once().
			OnEach(func(event.Void) error {
				return s.Close(model)
			})
	}
	return e
}

func (s *Stack) removeTop(popCount int) {
	if popCount > len(s.entries) {
		popCount = len(s.entries)
	}
	for i := 0; i < popCount; i++ {
		e := s.entries[0]
		s.entries = s.entries[1:]
		e.dispose()
	}
}

func (s *Stack) activate(e *Entry) error {
	if e.active {
		return nil
	}
	e.active = true
	return e.model.Activate()
}

func (s *Stack) deactivate(e *Entry) error {
	if !e.active {
		return nil
	}
	e.active = false
	return e.model.Deactivate()
}

func (s *Stack) notifyIfChanged(oldTop *Entry, isNew bool) error {
	newTop := s.Top()
	if newTop == oldTop {
		return nil
	}
	cur := Current{IsNew: isNew}
	if newTop != nil {
		cur.View = newTop.view
		cur.Model = newTop.model
	}
	return s.currentChanged.Raise(cur)
}
