package driven

import (
	"context"

	"github.com/crosswire-labs/intelstream/internal/core/domain"
)

// Provider produces intelligence items from one data source.
// Each provider type (news search, legislative-record lookup, corporate
// filings, ...) implements this interface.
//
// Fetch is the lazy sequence: items arrive on the item channel as the
// provider produces them, and both channels are closed when the provider
// is exhausted. A provider must honour ctx on every send: when the caller
// stops consuming it cancels the context, and the provider must release
// its resources (close sockets, abandon pending requests) rather than
// block forever.
//
// Whether a provider serves from a cache first and falls through to a live
// fetch is its own policy; from the engine's perspective a provider is just
// a sequence of items, possibly slow, possibly failing.
type Provider interface {
	// Name returns the stable provider identifier used in diagnostics.
	Name() string

	// Categories returns the set of categories this provider can produce.
	Categories() []domain.Category

	// Fetch starts producing items for the query. The error channel carries
	// at most one terminal error; a provider that fails mid-stream closes
	// both channels after sending it.
	Fetch(ctx context.Context, q domain.Query) (<-chan domain.Item, <-chan error)

	// Close releases resources held across calls.
	Close() error
}
