package vcs

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a Provider from repository credentials.
type Factory func(creds Credentials) (Provider, error)

// Registry is a thread-safe store of platform provider factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[Platform]Factory
}

var globalRegistry = NewRegistry()

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[Platform]Factory),
	}
}

// Register adds a provider factory under the given platform.
// It panics if the platform is already registered.
func (r *Registry) Register(platform Platform, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[platform]; exists {
		panic(fmt.Sprintf("vcs: factory already registered for %q", platform))
	}
	r.factories[platform] = f
}

// Get creates a provider instance for the given platform.
func (r *Registry) Get(platform Platform, creds Credentials) (Provider, error) {
	r.mu.RLock()
	f, exists := r.factories[platform]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("vcs: unknown platform %q (registered: %v)", platform, r.Names())
	}
	return f(creds)
}

// Names returns a sorted list of registered platform names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for p := range r.factories {
		names = append(names, string(p))
	}
	sort.Strings(names)
	return names
}

// Register adds a provider factory to the global registry.
func Register(platform Platform, f Factory) {
	globalRegistry.Register(platform, f)
}

// Get resolves a provider from the global registry.
func Get(platform Platform, creds Credentials) (Provider, error) {
	return globalRegistry.Get(platform, creds)
}

// Names returns all registered platform names from the global registry.
func Names() []string {
	return globalRegistry.Names()
}
