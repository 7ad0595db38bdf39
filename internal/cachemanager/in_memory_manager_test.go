package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type renderKey string

type rendered struct {
	Width int
	Text  string
}

func TestInMemoryCacheManager_GetExistingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[renderKey, rendered]("markdown", DefaultExpiration, DefaultCleanupInterval)
	want := rendered{Width: 40, Text: "# hi"}
	cache.Set(context.Background(), "doc:40", want, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "doc:40")
	require.True(t, ok)
	require.Equal(t, want, got)
	require.Equal(t, 1, cache.Len())
}

func TestInMemoryCacheManager_GetMissing(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("markdown", DefaultExpiration, DefaultCleanupInterval)

	got, ok := cache.Get(context.Background(), "doc")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_GetWrongType(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("markdown", DefaultExpiration, DefaultCleanupInterval)
	cache.cache.Set("doc", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "doc")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("markdown", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "doc", "x", time.Millisecond)

	time.Sleep(5 * time.Millisecond)

	_, ok := cache.Get(context.Background(), "doc")
	require.False(t, ok)
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("markdown", DefaultExpiration, DefaultCleanupInterval)

	_, ok := cache.GetWithRefresh(context.Background(), "doc", time.Hour)
	require.False(t, ok)

	cache.Set(context.Background(), "doc", "x", DefaultExpiration)
	got, ok := cache.GetWithRefresh(context.Background(), "doc", time.Hour)
	require.True(t, ok)
	require.Equal(t, "x", got)
}

func TestInMemoryCacheManager_DeleteAndFlush(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, string]("markdown", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(ctx, "a", "1", DefaultExpiration)
	cache.Set(ctx, "b", "2", DefaultExpiration)
	cache.Set(ctx, "c", "3", DefaultExpiration)

	require.NoError(t, cache.Delete(ctx))
	require.Equal(t, 3, cache.Len())

	require.NoError(t, cache.Delete(ctx, "a"))
	_, ok := cache.Get(ctx, "a")
	require.False(t, ok)

	require.NoError(t, cache.Flush(ctx))
	require.Zero(t, cache.Len())
}
