// Package cachefirst provides the cache-then-fetch sequencing shared by
// provider implementations: consult a keyed cache, fall through to a live
// fetch on miss, and write fresh results back with a time-to-live.
//
// It is a plain function rather than a base type: providers stay pure
// implementations of the Provider contract and compose this in.
package cachefirst

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/crosswire-labs/intelstream/internal/core/domain"
	"github.com/crosswire-labs/intelstream/internal/core/ports/driven"
	"github.com/crosswire-labs/intelstream/internal/logger"
)

// FetchFunc performs the live fetch for a query. It is invoked only on a
// cache miss (or when no cache is configured).
type FetchFunc func(ctx context.Context) ([]domain.Item, error)

// Stream returns the channel pair a Provider.Fetch implementation hands to
// the merge engine. Cached items are emitted without touching the network;
// on a miss the live fetch runs, its results are written back under key
// with the given ttl, and then emitted. Cache failures degrade to a live
// fetch, and write-back failures are logged but never surfaced; the cache
// is an optimisation, not a source of truth.
func Stream(ctx context.Context, cache driven.ItemCache, key string, ttl time.Duration, fetch FetchFunc) (<-chan domain.Item, <-chan error) {
	items := make(chan domain.Item)
	errs := make(chan error, 1)

	go func() {
		defer close(items)
		defer close(errs)

		if cache != nil {
			cached, err := cache.Get(ctx, key)
			switch {
			case err == nil:
				logger.Debug("Cache hit for %s (%d items)", key, len(cached))
				emit(ctx, items, cached)
				return
			case errors.Is(err, domain.ErrCacheMiss):
				logger.Debug("Cache miss for %s", key)
			default:
				logger.Warn("Cache read for %s failed: %v (fetching live)", key, err)
			}
		}

		fresh, err := fetch(ctx)
		if err != nil {
			errs <- err
			return
		}

		if cache != nil && len(fresh) > 0 {
			if err := cache.Put(ctx, key, fresh, ttl); err != nil {
				logger.Warn("Cache write for %s failed: %v", key, err)
			}
		}

		emit(ctx, items, fresh)
	}()

	return items, errs
}

func emit(ctx context.Context, out chan<- domain.Item, items []domain.Item) {
	for _, item := range items {
		select {
		case out <- item:
		case <-ctx.Done():
			return
		}
	}
}

// Key derives a stable cache key for one provider and query. Topic order
// does not matter, so topics are sorted before hashing.
func Key(provider string, q domain.Query) string {
	topics := append([]string(nil), q.Topics...)
	sort.Strings(topics)

	var b strings.Builder
	fmt.Fprintf(&b, "topics=%s;category=%s;target=%s", strings.Join(topics, ","), q.Category, q.TargetType)
	if !q.Timeframe.From.IsZero() {
		fmt.Fprintf(&b, ";from=%d", q.Timeframe.From.Unix())
	}
	if !q.Timeframe.To.IsZero() {
		fmt.Fprintf(&b, ";to=%d", q.Timeframe.To.Unix())
	}

	sum := sha256.Sum256([]byte(b.String()))
	return provider + ":" + hex.EncodeToString(sum[:8])
}
