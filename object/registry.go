package object

import (
	"fmt"
	"slices"
	"sync"

	"github.com/c360/objkit/errors"
)

// Factory creates a default instance of a class.
type Factory func() Object

// Registry maps class names to factories. It is safe for concurrent use.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry { return defaultRegistry }

// RegisterClass adds a factory under name. Registering a name twice fails.
func (r *Registry) RegisterClass(name string, factory Factory) error {
	if name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterClass", "class name validation")
	}
	if factory == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterClass", "factory validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		err := fmt.Errorf("%w: class %q", errors.ErrAlreadyRegistered, name)
		return errors.WrapInvalid(err, "Registry", "RegisterClass", "duplicate class check")
	}
	r.factories[name] = factory
	return nil
}

// MustRegisterClass is RegisterClass for package init; it panics on error.
func (r *Registry) MustRegisterClass(name string, factory Factory) {
	if err := r.RegisterClass(name, factory); err != nil {
		panic(err)
	}
}

// Create returns a new default instance of class name.
func (r *Registry) Create(name string) (Object, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		err := fmt.Errorf("%w: %q", errors.ErrClassNotFound, name)
		return nil, errors.WrapInvalid(err, "Registry", "Create", "class lookup")
	}
	o := factory()
	if isNil(o) {
		err := fmt.Errorf("%w: factory for %q returned nil", errors.ErrClassNotFound, name)
		return nil, errors.WrapInvalid(err, "Registry", "Create", "factory execution")
	}
	return o, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// List returns the registered class names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}
