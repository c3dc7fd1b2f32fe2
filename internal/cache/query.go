package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrStore reports a fetched value that could not be written back. The value is still returned.
var ErrStore = errors.New("cache store failed")

// FetchFunc loads the authoritative value for a query.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Query binds a cache key to the fetch that fills it.
type Query[T any] struct {
	cache   *Cache
	key     string
	fetch   FetchFunc[T]
	mu      sync.Mutex // serializes fetches
	loading atomic.Bool
}

func NewQuery[T any](c *Cache, key string, fetch FetchFunc[T]) *Query[T] {
	return &Query[T]{cache: c, key: key, fetch: fetch}
}

// Key returns the cache key this query reads.
func (q *Query[T]) Key() string {
	return q.key
}

// Get returns the cached value when fresh, otherwise fetches and stores it. A
// fetch that overlaps an Invalidate of the key is returned but stored stale.
func (q *Query[T]) Get(ctx context.Context) (T, error) {
	if value, fresh, _, err := q.Peek(ctx); err == nil && fresh {
		return value, nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	// Another caller may have refreshed the entry while we waited.
	value, fresh, found, err := q.Peek(ctx)
	if err == nil && fresh {
		return value, nil
	}
	if !found {
		q.loading.Store(true)
		defer q.loading.Store(false)
	}

	gen := q.cache.Generation(q.key)
	value, err = q.fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return value, fmt.Errorf("%w: encode %s: %v", ErrStore, q.key, err)
	}
	if err := q.cache.StoreAt(ctx, q.key, data, gen); err != nil {
		return value, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return value, nil
}

// Peek returns whatever is cached without fetching.
func (q *Query[T]) Peek(ctx context.Context) (value T, fresh bool, found bool, err error) {
	data, fresh, found, err := q.cache.Lookup(ctx, q.key)
	if err != nil || !found {
		return value, false, found, err
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, false, false, fmt.Errorf("decode %s: %w", q.key, err)
	}
	return value, fresh, true, nil
}

// Loading reports whether a fetch is running while nothing is cached yet.
func (q *Query[T]) Loading() bool {
	return q.loading.Load()
}

// Invalidate marks the query's key stale.
func (q *Query[T]) Invalidate(ctx context.Context) error {
	return q.cache.Invalidate(ctx, q.key)
}
