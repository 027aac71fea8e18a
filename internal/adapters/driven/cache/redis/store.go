// Package redis provides an ItemCache backed by a Redis server, for
// deployments where several intelstream instances share one cache.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/crosswire-labs/intelstream/internal/core/domain"
	"github.com/crosswire-labs/intelstream/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ItemCache = (*Store)(nil)

// keyPrefix namespaces intelstream entries on shared servers.
const keyPrefix = "intelstream:cache:"

// Store is a Redis-backed ItemCache.
type Store struct {
	client *redis.Client
}

// Config holds Redis connection settings.
type Config struct {
	// Addr is the host:port of the Redis server.
	Addr string
	// Password is optional.
	Password string
	// DB selects the logical database.
	DB int
}

// NewStore connects to Redis and verifies the connection.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}

	return &Store{client: client}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

// Get returns the items stored under key, or ErrCacheMiss when the key
// is absent or its TTL has lapsed.
func (s *Store) Get(ctx context.Context, key string) ([]domain.Item, error) {
	payload, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	items, err := decodeItems(payload)
	if err != nil {
		// A corrupt entry is unrecoverable, evict it.
		s.client.Del(ctx, keyPrefix+key)
		return nil, domain.ErrCacheMiss
	}
	return items, nil
}

// Put stores items under key. Redis handles expiry natively, so a
// positive ttl maps straight onto the key's TTL.
func (s *Store) Put(ctx context.Context, key string, items []domain.Item, ttl time.Duration) error {
	payload, err := encodeItems(items)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, keyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// encodeItems serialises a result set to the wire payload.
func encodeItems(items []domain.Item) ([]byte, error) {
	return json.Marshal(items)
}

// decodeItems parses a wire payload back into a result set.
func decodeItems(payload []byte) ([]domain.Item, error) {
	var items []domain.Item
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, err
	}
	return items, nil
}
