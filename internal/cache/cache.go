// Package cache holds remote collections keyed by resource name so that pages
// rendered within the TTL share one backend fetch per collection.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/erazemk/inventrack/internal/observability"
)

// DefaultTTL is how long an entry is served before it is fetched again.
const DefaultTTL = 30 * time.Second

// Backend stores raw cache payloads.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Entry is a cached payload and its fingerprint.
type Entry struct {
	Data        []byte
	Fingerprint uint64
}

func newEntry(data []byte) Entry {
	return Entry{Data: data, Fingerprint: xxhash.Sum64(data)}
}

// Cache is a read-through cache over a Backend.
type Cache struct {
	backend Backend
	ttl     time.Duration
	metrics *observability.Metrics
	tracer  *observability.Tracer
	fills   singleflight.Group

	// mu guards gens and orders fill writes against invalidations.
	mu   sync.Mutex
	gens map[string]uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the entry lifetime. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithObservability records hits, misses and fill spans.
func WithObservability(cfg *observability.Config) Option {
	return func(c *Cache) {
		c.metrics = cfg.Metrics()
		c.tracer = cfg.Tracer()
	}
}

// New creates a cache over backend.
func New(backend Backend, opts ...Option) *Cache {
	c := &Cache{
		backend: backend,
		ttl:     DefaultTTL,
		metrics: observability.NewNoopMetrics(),
		tracer:  observability.NewNoopTracer(),
		gens:    make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the entry stored under key. Backend failures count as misses.
func (c *Cache) Get(ctx context.Context, key string) (Entry, bool) {
	data, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		slog.Error("cache read failed", "key", key, "error", err)
		ok = false
	}
	c.metrics.RecordCacheLookup(ctx, key, ok)
	if !ok {
		return Entry{}, false
	}
	return newEntry(data), true
}

// Set stores data under key and returns the resulting entry. A backend
// failure is logged and the entry is still returned.
func (c *Cache) Set(ctx context.Context, key string, data []byte) Entry {
	if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
		slog.Error("cache write failed", "key", key, "error", err)
	}
	return newEntry(data)
}

// Invalidate drops the given keys so the next read fetches them again. Fills
// already in flight for these keys are not stored.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	c.mu.Lock()
	for _, key := range keys {
		c.gens[key]++
		c.fills.Forget(key)
	}
	c.mu.Unlock()

	if err := c.backend.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("invalidating %v: %w", keys, err)
	}
	return nil
}

// Load returns the collection under key, calling fetch on a miss and caching
// its result. Concurrent misses for the same key share one fetch. Fetch errors
// are returned and not cached.
func Load[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) ([]T, error)) ([]T, uint64, error) {
	entry, ok := c.Get(ctx, key)
	if !ok {
		v, err, _ := c.fills.Do(key, func() (any, error) {
			gen := c.generation(key)
			ctx, span := c.tracer.StartCacheFill(ctx, key)
			values, err := fetch(ctx)
			if err == nil && values == nil {
				values = []T{}
			}
			var data []byte
			if err == nil {
				data, err = json.Marshal(values)
			}
			observability.EndSpan(span, err)
			if err != nil {
				return nil, err
			}
			return c.store(ctx, key, gen, data), nil
		})
		if err != nil {
			return nil, 0, err
		}
		entry = v.(Entry)
	}

	var values []T
	if err := json.Unmarshal(entry.Data, &values); err != nil {
		// A corrupt entry is dropped so the next read refetches it.
		if ierr := c.Invalidate(ctx, key); ierr != nil {
			slog.Error("failed to drop corrupt cache entry", "key", key, "error", ierr)
		}
		return nil, 0, fmt.Errorf("decoding cached %s: %w", key, err)
	}
	return values, entry.Fingerprint, nil
}

func (c *Cache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

// store writes a fill result unless key was invalidated after the fill began.
// The entry is returned either way so the callers sharing the fill get its data.
func (c *Cache) store(ctx context.Context, key string, gen uint64, data []byte) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[key] != gen {
		slog.Debug("discarding fill started before invalidation", "key", key)
		return newEntry(data)
	}
	return c.Set(ctx, key, data)
}
