package cachemanager

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/georgekorob/patterns-project/internal/log"
)

type summary struct {
	ID   int64
	Name string
}

func TestInMemoryCacheManager_GetExistingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string, summary]("categories", DefaultExpiration, DefaultCleanupInterval, nil)
	want := summary{ID: 1, Name: "Programmers"}
	cache.Set(context.Background(), "category:1", want, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "category:1")
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestInMemoryCacheManager_GetMissing(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("categories", DefaultExpiration, DefaultCleanupInterval, nil)

	got, ok := cache.Get(context.Background(), "missing")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_WrongTypeIsAMiss(t *testing.T) {
	var buf bytes.Buffer
	cache := NewInMemoryCacheManager[string, string]("categories", DefaultExpiration, DefaultCleanupInterval, log.New(&buf))

	cache.cache.Set("name", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "name")
	require.False(t, ok)
	require.Empty(t, got)
	require.Contains(t, buf.String(), "wrong type assertion")
	require.Contains(t, buf.String(), "cache=categories")
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	cache := NewInMemoryCacheManager[string, int]("counts", DefaultExpiration, DefaultCleanupInterval, nil)
	cache.Set(context.Background(), "n", 3, time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := cache.Get(context.Background(), "n")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, int]("counts", DefaultExpiration, DefaultCleanupInterval, nil)

	_, ok := cache.GetWithRefresh(ctx, "n", time.Hour)
	require.False(t, ok)

	cache.Set(ctx, "n", 3, 50*time.Millisecond)
	got, ok := cache.GetWithRefresh(ctx, "n", time.Hour)
	require.True(t, ok)
	require.Equal(t, 3, got)

	time.Sleep(100 * time.Millisecond)
	_, ok = cache.Get(ctx, "n")
	require.True(t, ok, "refresh extended the ttl")
}

func TestInMemoryCacheManager_DeleteAndFlush(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, int]("counts", DefaultExpiration, DefaultCleanupInterval, nil)
	cache.Set(ctx, "a", 1, DefaultExpiration)
	cache.Set(ctx, "b", 2, DefaultExpiration)
	cache.Set(ctx, "c", 3, DefaultExpiration)

	require.NoError(t, cache.Delete(ctx))
	require.NoError(t, cache.Delete(ctx, "a", "b"))
	require.Equal(t, 1, cache.ItemCount())

	require.NoError(t, cache.Flush(ctx))
	require.Zero(t, cache.ItemCount())
}
