package providers

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps provider tags to factories and configured instances.
// Factories register at startup; Configure builds an instance per provider
// from the loaded configuration.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	instances map[string]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		instances: make(map[string]Adapter),
	}
}

// RegisterFactory registers a factory for a provider tag. Call at startup
// for each supported provider.
func (r *Registry) RegisterFactory(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Configure builds and caches the adapter instance for a provider tag.
func (r *Registry) Configure(name string, cfg Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, ok := r.factories[name]
	if !ok {
		return fmt.Errorf("provider not registered: %s", name)
	}
	adapter, err := factory(cfg)
	if err != nil {
		return fmt.Errorf("configure provider %s: %w", name, err)
	}
	r.instances[name] = adapter
	return nil
}

// Get returns the configured adapter for a provider tag.
func (r *Registry) Get(name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.instances[name]
	return a, ok
}

// Configured returns the sorted list of configured provider tags.
func (r *Registry) Configured() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.instances))
	for name := range r.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
