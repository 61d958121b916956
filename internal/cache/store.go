// Package cache defines the flat key→JSON-document store the pipeline and
// query engine share. Implementations must support glob pattern scans.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get for absent or expired keys. Callers treat any
// other read error the same way: log it and move on.
var ErrMiss = errors.New("cache: key not found")

// Store is the capability injected into the pipeline and the query engine.
// It is always passed in explicitly so both sides stay testable against the
// in-memory implementation.
type Store interface {
	// Set marshals value to JSON and stores it under key with the given TTL.
	// A zero TTL means no expiry.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Get returns the raw JSON document stored under key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// ScanKeys returns all keys matching a redis-style glob pattern. The
	// scan is not a consistent snapshot across keys.
	ScanKeys(ctx context.Context, pattern string) ([]string, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
