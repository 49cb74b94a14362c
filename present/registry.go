package present

import (
	"fmt"

	"github.com/dshills/keel/view"
)

// Descriptor identifies a view-model kind to build, with an optional
// constructor parameter passed through to the factory.
type Descriptor struct {
	// Name is the registered view-model kind.
	Name string

	// Param carries optional construction context; factories type-assert.
	Param any
}

// Builder produces a bound (view, view-model) pair from a descriptor.
// The presenters consume this capability; hosts implement it, typically
// via a Registry.
type Builder interface {
	Build(d Descriptor) (view.Pair, error)
}

// Factory constructs one view-model kind.
type Factory func(param any) (view.Pair, error)

// Registry is a static descriptor table mapping names to factories.
// It replaces runtime type scanning: hosts register every buildable
// view-model kind up front.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under name. Registering the same name twice is
// an error; there is exactly one way to build each kind.
func (r *Registry) Register(name string, f Factory) error {
	if f == nil {
		return ErrNilFactory
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateFactory, name)
	}
	r.factories[name] = f
	return nil
}

// Build implements Builder.
func (r *Registry) Build(d Descriptor) (view.Pair, error) {
	f, ok := r.factories[d.Name]
	if !ok {
		return view.Pair{}, fmt.Errorf("%w: %s", ErrUnknownDescriptor, d.Name)
	}
	return f(d.Param)
}

// Names returns the registered descriptor names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}
