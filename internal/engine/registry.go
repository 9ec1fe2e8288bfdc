package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/viper"
)

// Factory is a constructor function that creates an Engine from a viper
// subtree. Each engine registers its own factory.
//
// The viper instance is scoped to the engine's configuration block, e.g.:
//
//	engines:
//	  claude-api:
//	    api_key: sk-ant-...
//	    model: claude-sonnet-4-20250514
//
// would pass a viper that resolves "api_key" and "model" directly.
type Factory func(v *viper.Viper) (Engine, error)

// Registry is a thread-safe store of engine factories. Engine packages
// self-register at init() time and the application resolves them by name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

var globalRegistry = NewRegistry()

// NewRegistry creates an empty Registry. Useful for testing.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds an engine factory under the given name. It panics if the
// name is already registered, preventing silent overwrites.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("engine: factory already registered for %q", name))
	}
	r.factories[name] = f
}

// Get creates an engine instance by name. A nil viper is replaced with an
// empty one so factories can rely on defaults.
func (r *Registry) Get(name string, v *viper.Viper) (Engine, error) {
	r.mu.RLock()
	f, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, &Error{
			Code:    ErrCodeInvalidConfig,
			Engine:  name,
			Message: fmt.Sprintf("unknown engine (registered: %v)", r.Names()),
		}
	}
	if v == nil {
		v = viper.New()
	}
	return f(v)
}

// Names returns a sorted list of registered engine names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Register adds an engine factory to the global registry.
func Register(name string, f Factory) {
	globalRegistry.Register(name, f)
}

// Get resolves an engine by name from the global registry.
func Get(name string, v *viper.Viper) (Engine, error) {
	return globalRegistry.Get(name, v)
}

// Names returns all registered engine names from the global registry.
func Names() []string {
	return globalRegistry.Names()
}
