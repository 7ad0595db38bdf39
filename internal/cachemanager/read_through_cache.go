package cachemanager

import (
	"context"
	"sync/atomic"
	"time"
)

// Stats counts read-through lookups.
type Stats struct {
	Hits     uint64
	Misses   uint64
	Failures uint64 // loads that returned an error; nothing was stored
}

// ReadThroughOption configures a ReadThroughCache.
type ReadThroughOption func(*readThroughOptions)

type readThroughOptions struct {
	refresh bool
	bypass  bool
}

// WithRefreshOnHit extends an entry's ttl every time it is read, so values
// in steady use never expire.
func WithRefreshOnHit() ReadThroughOption {
	return func(o *readThroughOptions) { o.refresh = true }
}

// WithBypass always calls the loader and never touches the cache.
func WithBypass(bypass bool) ReadThroughOption {
	return func(o *readThroughOptions) { o.bypass = bypass }
}

// ReadThroughCache serves values from a CacheManager and computes missing
// ones with a loader. Failed loads are not cached, so the next read retries.
type ReadThroughCache[K comparable, V any, I any] struct {
	cache CacheManager[K, V]
	load  func(ctx context.Context, input I) (V, error)
	opts  readThroughOptions

	hits     atomic.Uint64
	misses   atomic.Uint64
	failures atomic.Uint64
}

// NewReadThroughCache creates a read-through cache over cache.
func NewReadThroughCache[K comparable, V any, I any](
	cache CacheManager[K, V],
	load func(ctx context.Context, input I) (V, error),
	opts ...ReadThroughOption,
) *ReadThroughCache[K, V, I] {
	r := &ReadThroughCache[K, V, I]{cache: cache, load: load}
	for _, opt := range opts {
		opt(&r.opts)
	}
	return r
}

// Get returns the value under key, loading it from input on a miss and
// storing it for ttl.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if r.opts.bypass {
		return r.fill(ctx, input)
	}

	var (
		value V
		ok    bool
	)
	if r.opts.refresh {
		value, ok = r.cache.GetWithRefresh(ctx, key, ttl)
	} else {
		value, ok = r.cache.Get(ctx, key)
	}
	if ok {
		r.hits.Add(1)
		return value, nil
	}

	value, err := r.fill(ctx, input)
	if err != nil {
		return value, err
	}
	r.cache.Set(ctx, key, value, ttl)
	return value, nil
}

func (r *ReadThroughCache[K, V, I]) fill(ctx context.Context, input I) (V, error) {
	r.misses.Add(1)
	value, err := r.load(ctx, input)
	if err != nil {
		r.failures.Add(1)
	}
	return value, err
}

// Stats returns the lookup counters so far.
func (r *ReadThroughCache[K, V, I]) Stats() Stats {
	return Stats{
		Hits:     r.hits.Load(),
		Misses:   r.misses.Load(),
		Failures: r.failures.Load(),
	}
}
