package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type source struct {
	Body  string
	Width int
}

func countingRender(calls *int) func(context.Context, source) (string, error) {
	return func(ctx context.Context, in source) (string, error) {
		*calls++
		if in.Body == "" {
			return "", errors.New("empty document")
		}
		return in.Body + "!", nil
	}
}

func newMarkdownCache() *InMemoryCacheManager[string, string] {
	return NewInMemoryCacheManager[string, string]("markdown", DefaultExpiration, DefaultCleanupInterval)
}

func TestReadThroughCache_CachesResult(t *testing.T) {
	calls := 0
	rt := NewReadThroughCache[string, string, source](newMarkdownCache(), countingRender(&calls))

	for i := 0; i < 3; i++ {
		got, err := rt.Get(context.Background(), "k", source{Body: "hi"}, time.Minute)
		require.NoError(t, err)
		require.Equal(t, "hi!", got)
	}
	require.Equal(t, 1, calls)
	require.Equal(t, Stats{Hits: 2, Misses: 1}, rt.Stats())
}

func TestReadThroughCache_FailuresAreNotCached(t *testing.T) {
	calls := 0
	cache := newMarkdownCache()
	rt := NewReadThroughCache[string, string, source](cache, countingRender(&calls))

	for i := 0; i < 2; i++ {
		_, err := rt.Get(context.Background(), "empty", source{}, time.Minute)
		require.EqualError(t, err, "empty document")
	}
	require.Equal(t, 2, calls, "every read retries the load")
	require.Zero(t, cache.Len())
	require.Equal(t, Stats{Misses: 2, Failures: 2}, rt.Stats())
}

func TestReadThroughCache_Bypass(t *testing.T) {
	calls := 0
	cache := newMarkdownCache()
	rt := NewReadThroughCache[string, string, source](cache, countingRender(&calls), WithBypass(true))

	for i := 0; i < 2; i++ {
		got, err := rt.Get(context.Background(), "k", source{Body: "hi"}, time.Minute)
		require.NoError(t, err)
		require.Equal(t, "hi!", got)
	}
	require.Equal(t, 2, calls)
	require.Zero(t, cache.Len())
}

func TestReadThroughCache_RefreshOnHitExtendsTTL(t *testing.T) {
	calls := 0
	rt := NewReadThroughCache[string, string, source](newMarkdownCache(), countingRender(&calls), WithRefreshOnHit())

	_, err := rt.Get(context.Background(), "k", source{Body: "hi"}, 200*time.Millisecond)
	require.NoError(t, err)
	// Each read lands before the entry expires and pushes expiry out again.
	for i := 0; i < 4; i++ {
		time.Sleep(60 * time.Millisecond)
		_, err := rt.Get(context.Background(), "k", source{Body: "hi"}, 200*time.Millisecond)
		require.NoError(t, err)
	}
	require.Equal(t, 1, calls)
}

func TestReadThroughCache_WithoutRefreshExpires(t *testing.T) {
	calls := 0
	rt := NewReadThroughCache[string, string, source](newMarkdownCache(), countingRender(&calls))

	_, err := rt.Get(context.Background(), "k", source{Body: "hi"}, time.Millisecond)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = rt.Get(context.Background(), "k", source{Body: "hi"}, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}
