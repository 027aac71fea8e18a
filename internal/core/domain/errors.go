package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidQuery indicates a malformed aggregation query.
	// Validation errors are the only errors that fail a call as a whole.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidItem indicates an item violating the engine's invariants,
	// typically a missing source URL.
	ErrInvalidItem = errors.New("invalid item")

	// ErrNoProviders indicates no providers are registered at all.
	// Semantically different from "providers exist but none matched",
	// which is an empty successful stream.
	ErrNoProviders = errors.New("no providers registered")

	// ErrProviderClosed indicates the provider has been closed.
	ErrProviderClosed = errors.New("provider closed")

	// ErrCacheMiss indicates the cache holds no fresh entry for a key.
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateLimited indicates an upstream API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
