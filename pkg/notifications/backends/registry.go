package backends

import (
	"fmt"
	"sync"
)

// Registry holds the configured notification backends by name.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register adds a backend. Registering a duplicate name is an error.
func (r *Registry) Register(b Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.backends[b.Name()]; ok {
		return fmt.Errorf("backend %q already registered", b.Name())
	}
	r.backends[b.Name()] = b
	return nil
}

// GetBackend returns the backend registered under name.
func (r *Registry) GetBackend(name string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	return b, ok
}

// Names returns the registered backend names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	return names
}
