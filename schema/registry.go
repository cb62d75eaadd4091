package schema

import (
	"errors"
	"fmt"
	"sync"
)

// ---------------------------------------------------------------------------
// Registry: name -> Type table
// ---------------------------------------------------------------------------

var ErrDuplicateType = errors.New("schema: duplicate type name")

// Registry maps stable on-wire names to type descriptors. It is safe for
// concurrent use; registration is append-only.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]*Type),
	}
}

// Register adds a type to the registry. Names are unique: registering a
// second type under an existing name is an error.
func (r *Registry) Register(t *Type) error {
	if t == nil {
		return errors.New("schema: nil type")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.types[t.name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateType, t.name)
	}
	r.types[t.name] = t
	return nil
}

// Lookup finds a type by name. Returns nil if the name is not registered.
func (r *Registry) Lookup(name string) *Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[name]
}

// Has returns true if a type with this name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[name]
	return ok
}

// All returns all registered types in unspecified order.
func (r *Registry) All() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Type, 0, len(r.types))
	for _, t := range r.types {
		result = append(result, t)
	}
	return result
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}
