package driving

import (
	"github.com/crosswire-labs/intelstream/internal/core/domain"
	"github.com/crosswire-labs/intelstream/internal/core/ports/driven"
)

// Registry manages the active provider set and answers which providers
// are relevant to a query. The registered set is process-lifetime state,
// owned by an explicit instance so tests get a fresh registry each.
type Registry interface {
	// Register adds a provider. Re-registering a name replaces the prior
	// provider in place, keeping its registration-order slot.
	Register(p driven.Provider)

	// Unregister removes a provider by name. Unknown names are ignored.
	Unregister(name string)

	// Get returns the provider registered under name.
	Get(name string) (driven.Provider, bool)

	// List returns all providers in registration order.
	List() []driven.Provider

	// Select returns the providers relevant to the query, in registration
	// order. With no category or target-type filter, all providers match.
	Select(q domain.Query) []driven.Provider

	// Len returns the number of registered providers.
	Len() int
}
