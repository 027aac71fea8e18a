package driven

import (
	"context"
	"time"

	"github.com/crosswire-labs/intelstream/internal/core/domain"
)

// ItemCache is the keyed cache a provider may consult before issuing a
// live fetch. Keys are provider-derived (typically provider name plus a
// digest of the query); values are whole result sets with a time-to-live.
//
// Get returns domain.ErrCacheMiss when the key is absent or every stored
// item has expired. Implementations decide whether expiry is enforced
// lazily on read or by background eviction.
type ItemCache interface {
	// Get returns the fresh items stored under key.
	Get(ctx context.Context, key string) ([]domain.Item, error)

	// Put stores items under key with the given time-to-live.
	// A non-positive ttl stores without expiry.
	Put(ctx context.Context, key string, items []domain.Item, ttl time.Duration) error

	// Close releases the underlying store.
	Close() error
}
