// Package cache is a key-indexed client cache with explicit invalidation.
//
// Entries are never dropped on invalidation, only marked stale, so callers can
// still peek at the last known value while a re-fetch is pending.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"photocapture/internal/metrics"
)

// Entry is a cached value and its freshness.
type Entry struct {
	Data      []byte
	Stale     bool
	UpdatedAt time.Time
}

// Backend stores entries by key.
type Backend interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry) error
	// Invalidate marks an existing entry stale. Missing keys are not an error.
	Invalidate(ctx context.Context, key string) error
	Close() error
}

// Cache is the handle passed to every component that reads or invalidates cached data.
type Cache struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time

	mu   sync.Mutex
	gens map[string]uint64 // bumped by Invalidate
}

// New wraps a backend. A zero ttl means entries only go stale through Invalidate.
func New(backend Backend, ttl time.Duration) *Cache {
	return &Cache{backend: backend, ttl: ttl, now: time.Now, gens: make(map[string]uint64)}
}

// Generation returns the invalidation count for key. Capture it before a fetch
// and pass it to StoreAt.
func (c *Cache) Generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

// Lookup returns the entry for key and whether it is fresh.
func (c *Cache) Lookup(ctx context.Context, key string) (data []byte, fresh bool, found bool, err error) {
	entry, found, err := c.backend.Get(ctx, key)
	if err != nil {
		return nil, false, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if !found {
		metrics.CacheLookups.WithLabelValues(key, "miss").Inc()
		return nil, false, false, nil
	}
	fresh = !entry.Stale && (c.ttl <= 0 || c.now().Sub(entry.UpdatedAt) < c.ttl)
	if fresh {
		metrics.CacheLookups.WithLabelValues(key, "hit").Inc()
	} else {
		metrics.CacheLookups.WithLabelValues(key, "stale").Inc()
	}
	return entry.Data, fresh, true, nil
}

// Store writes a fresh entry.
func (c *Cache) Store(ctx context.Context, key string, data []byte) error {
	return c.StoreAt(ctx, key, data, c.Generation(key))
}

// StoreAt writes data fetched while key was at generation gen. If key was
// invalidated since, the entry is written stale so the next read re-fetches.
func (c *Cache) StoreAt(ctx context.Context, key string, data []byte, gen uint64) error {
	stale := c.Generation(key) != gen
	if err := c.backend.Set(ctx, key, Entry{Data: data, Stale: stale, UpdatedAt: c.now()}); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	// An Invalidate that landed between the check and the Set.
	if !stale && c.Generation(key) != gen {
		if err := c.backend.Invalidate(ctx, key); err != nil {
			return fmt.Errorf("cache invalidate %s: %w", key, err)
		}
	}
	return nil
}

// Invalidate marks key stale so the next read re-fetches. Fetches already in
// flight for key will store their result stale.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	c.gens[key]++
	c.mu.Unlock()

	if err := c.backend.Invalidate(ctx, key); err != nil {
		return fmt.Errorf("cache invalidate %s: %w", key, err)
	}
	metrics.CacheInvalidations.WithLabelValues(key).Inc()
	return nil
}

// Close releases the backend.
func (c *Cache) Close() error {
	return c.backend.Close()
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var ErrUnknownBackend = errors.New("unsupported cache backend")

// BackendOptions configures NewBackend.
type BackendOptions struct {
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// NewBackend builds a backend by name.
func NewBackend(ctx context.Context, name string, opts BackendOptions) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendMemory:
		return NewMemoryBackend(), nil
	case BackendRedis:
		return DialRedis(ctx, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
}
