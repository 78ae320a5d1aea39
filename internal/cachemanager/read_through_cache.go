package cachemanager

import (
	"context"
	"time"
)

// Loader fetches the value for key from the backing store.
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)

// ReadThroughCache answers from cache when it can and calls load on a
// miss. Failed loads are not cached.
type ReadThroughCache[K comparable, V any] struct {
	cache    CacheManager[K, V]
	load     Loader[K, V]
	ttl      time.Duration
	disabled bool
}

// NewReadThroughCache wraps cache. A non-positive ttl disables caching
// and every Get goes to load.
func NewReadThroughCache[K comparable, V any](cache CacheManager[K, V], load Loader[K, V], ttl time.Duration) *ReadThroughCache[K, V] {
	return &ReadThroughCache[K, V]{
		cache:    cache,
		load:     load,
		ttl:      ttl,
		disabled: ttl <= 0,
	}
}

func (r *ReadThroughCache[K, V]) Get(ctx context.Context, key K) (V, error) {
	if r.disabled {
		return r.load(ctx, key)
	}
	if v, ok := r.cache.Get(ctx, key); ok {
		return v, nil
	}
	v, err := r.load(ctx, key)
	if err == nil {
		r.cache.Set(ctx, key, v, r.ttl)
	}
	return v, err
}

// Invalidate drops every cached value.
func (r *ReadThroughCache[K, V]) Invalidate(ctx context.Context) error {
	if r.disabled {
		return nil
	}
	return r.cache.Flush(ctx)
}
