package driving

import (
	"context"

	"github.com/crosswire-labs/intelstream/internal/core/domain"
)

// Aggregator exposes the three public entry points of the engine.
//
// All three share the same semantics: providers matching the query are
// drained concurrently, items are deduplicated by source URL in
// first-available order, one failing provider never aborts the call, and
// the run terminates on exhaustion, query timeout, or the item cap,
// whichever comes first.
type Aggregator interface {
	// Stream returns the raw deduplicated item sequence plus a diagnostic
	// channel carrying per-provider failures. Both channels are closed when
	// the run terminates. Cancel ctx to stop consuming early; every open
	// provider slot is then closed rather than abandoned.
	Stream(ctx context.Context, q domain.Query) (<-chan domain.Item, <-chan domain.Diagnostic, error)

	// StreamEvents wraps Stream in wire-shaped events: one item event per
	// item, one error event per provider failure, and a terminal complete
	// event carrying the yield count and elapsed milliseconds. The terminal
	// event is always sent, including on timeout.
	StreamEvents(ctx context.Context, q domain.Query) (<-chan domain.StreamEvent, error)

	// Gather drains Stream into an ordered slice bounded by q.MaxItems.
	Gather(ctx context.Context, q domain.Query) ([]domain.Item, error)
}
