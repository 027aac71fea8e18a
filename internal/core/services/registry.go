package services

import (
	"sync"

	"github.com/crosswire-labs/intelstream/internal/core/domain"
	"github.com/crosswire-labs/intelstream/internal/core/ports/driven"
	"github.com/crosswire-labs/intelstream/internal/core/ports/driving"
	"github.com/crosswire-labs/intelstream/internal/logger"
)

// targetCategories maps target-entity types to the categories that can
// carry intelligence about them. A query with a target type selects every
// provider declaring at least one of the mapped categories.
var targetCategories = map[string][]domain.Category{
	"legislative body": {domain.CategoryLegislative, domain.CategoryNews},
	"corporation":      {domain.CategoryCorporate, domain.CategoryNews},
	"person":           {domain.CategoryNews, domain.CategorySocial},
}

// Ensure Registry implements the interface.
var _ driving.Registry = (*Registry)(nil)

// Registry holds the active provider set. It is an explicit, constructed
// instance rather than module-level state so each test (and each process)
// owns its lifecycle.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]driven.Provider
	order     []string
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]driven.Provider),
	}
}

// Register adds a provider. Re-registering a name replaces the prior
// provider in place, keeping its registration-order slot so selection
// order stays deterministic.
func (r *Registry) Register(p driven.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.providers[name] = p
	logger.Debug("Registered provider %q (categories: %v)", name, p.Categories())
}

// Unregister removes a provider by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; !exists {
		return
	}
	delete(r.providers, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	logger.Debug("Unregistered provider %q", name)
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (driven.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	return p, ok
}

// List returns all providers in registration order.
func (r *Registry) List() []driven.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]driven.Provider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name])
	}
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// Select returns the providers relevant to the query, in registration
// order. A provider matches when its declared categories intersect the
// query's category filter and, if set, the categories mapped from the
// query's target type. With no filters every provider matches.
func (r *Registry) Select(q domain.Query) []driven.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []driven.Provider
	for _, name := range r.order {
		p := r.providers[name]
		if providerMatches(p, q) {
			out = append(out, p)
		}
	}
	return out
}

func providerMatches(p driven.Provider, q domain.Query) bool {
	if q.Category != "" && !declaresCategory(p, q.Category) {
		return false
	}
	if q.TargetType != "" {
		wanted, known := targetCategories[q.TargetType]
		if !known {
			return false
		}
		if !declaresAny(p, wanted) {
			return false
		}
	}
	return true
}

func declaresCategory(p driven.Provider, c domain.Category) bool {
	for _, pc := range p.Categories() {
		if pc == c {
			return true
		}
	}
	return false
}

func declaresAny(p driven.Provider, cats []domain.Category) bool {
	for _, c := range cats {
		if declaresCategory(p, c) {
			return true
		}
	}
	return false
}
