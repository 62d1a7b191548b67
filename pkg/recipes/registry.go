package recipes

import (
	"fmt"
	"sync"
)

// The registry maps symbolic references of the form "module:name" to recipe
// objects or recipe families. Manifests reference recipes symbolically; the
// registrar resolves them through a Loader backed by this lookup table, so
// no code is loaded at run time.
type registry struct {
	mu       sync.RWMutex
	objects  map[string]Recipe
	families map[string]map[string]Recipe
}

var defaultRegistry = &registry{
	objects:  make(map[string]Recipe),
	families: make(map[string]map[string]Recipe),
}

// Register binds a single recipe object to a symbolic reference. It panics
// on a duplicate reference, as registration happens during init.
func Register(ref string, r Recipe) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, exists := defaultRegistry.objects[ref]; exists {
		panic(fmt.Sprintf("recipes: duplicate registration of %q", ref))
	}
	defaultRegistry.objects[ref] = r
}

// RegisterFamily binds a named family of recipe objects to a symbolic
// reference. Family keys become the recipe ids of the members.
func RegisterFamily(ref string, family map[string]Recipe) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, exists := defaultRegistry.families[ref]; exists {
		panic(fmt.Sprintf("recipes: duplicate family registration of %q", ref))
	}
	defaultRegistry.families[ref] = family
}

// Reset clears the registry. Test helper.
func Reset() {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.objects = make(map[string]Recipe)
	defaultRegistry.families = make(map[string]map[string]Recipe)
}

// RegistryLoader resolves symbolic recipe references against the process
// registry.
type RegistryLoader struct{}

// LoadObject returns the recipe registered under ref.
func (RegistryLoader) LoadObject(ref string) (Recipe, error) {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	r, ok := defaultRegistry.objects[ref]
	if !ok {
		return nil, fmt.Errorf("no recipe registered under %q", ref)
	}
	return r, nil
}

// LoadFamily returns the recipe family registered under ref.
func (RegistryLoader) LoadFamily(ref string) (map[string]Recipe, error) {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	family, ok := defaultRegistry.families[ref]
	if !ok {
		return nil, fmt.Errorf("no recipe family registered under %q", ref)
	}
	return family, nil
}
