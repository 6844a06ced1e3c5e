package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type itemID string

type decision struct {
	Allowed bool
	Reason  string
}

func newDecisionCache() *InMemoryCacheManager[itemID, decision] {
	return NewInMemoryCacheManager[itemID, decision]("filter", DefaultExpiration, DefaultCleanupInterval)
}

func TestNewInMemoryCacheManager(t *testing.T) {
	require.NotPanics(t, func() {
		NewInMemoryCacheManager[string, bool]("test", DefaultExpiration, DefaultCleanupInterval)
	})
}

func TestInMemoryCacheManager_GetExistingValue(t *testing.T) {
	cache := newDecisionCache()
	want := decision{Allowed: true, Reason: "#minecraft:logs"}
	cache.Set(context.Background(), "minecraft:oak_log", want, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "minecraft:oak_log")
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestInMemoryCacheManager_GetMissingValue(t *testing.T) {
	cache := newDecisionCache()

	got, ok := cache.Get(context.Background(), "minecraft:stone")
	require.False(t, ok)
	require.Zero(t, got)
}

func TestInMemoryCacheManager_GetWrongValueType(t *testing.T) {
	cache := newDecisionCache()
	cache.cache.Set("minecraft:stone", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "minecraft:stone")
	require.False(t, ok)
	require.Zero(t, got)
}

func TestInMemoryCacheManager_GetExpiredValue(t *testing.T) {
	cache := newDecisionCache()
	cache.Set(context.Background(), "minecraft:stone", decision{Allowed: true}, time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := cache.Get(context.Background(), "minecraft:stone")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestInMemoryCacheManager_GetMultiple(t *testing.T) {
	ctx := context.Background()

	t.Run("no keys", func(t *testing.T) {
		got, ok := newDecisionCache().GetMultiple(ctx, nil)
		require.False(t, ok)
		require.Nil(t, got)
	})

	t.Run("partial hit", func(t *testing.T) {
		cache := newDecisionCache()
		cache.Set(ctx, "minecraft:stone", decision{Allowed: true}, DefaultExpiration)
		cache.Set(ctx, "minecraft:dirt", decision{Allowed: false}, DefaultExpiration)

		got, ok := cache.GetMultiple(ctx, []itemID{"minecraft:stone", "minecraft:dirt", "minecraft:sand"})
		require.True(t, ok)
		require.Equal(t, map[itemID]decision{
			"minecraft:stone": {Allowed: true},
			"minecraft:dirt":  {Allowed: false},
		}, got)
	})

	t.Run("all missing", func(t *testing.T) {
		got, ok := newDecisionCache().GetMultiple(ctx, []itemID{"minecraft:stone"})
		require.False(t, ok)
		require.Nil(t, got)
	})

	t.Run("wrong type skipped", func(t *testing.T) {
		cache := newDecisionCache()
		cache.Set(ctx, "minecraft:stone", decision{Allowed: true}, DefaultExpiration)
		cache.cache.Set("minecraft:dirt", "nope", DefaultExpiration)

		got, ok := cache.GetMultiple(ctx, []itemID{"minecraft:stone", "minecraft:dirt"})
		require.True(t, ok)
		require.Equal(t, map[itemID]decision{"minecraft:stone": {Allowed: true}}, got)
	})
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	ctx := context.Background()
	cache := newDecisionCache()

	_, ok := cache.GetWithRefresh(ctx, "minecraft:stone", time.Hour)
	require.False(t, ok)

	cache.Set(ctx, "minecraft:stone", decision{Allowed: true}, 50*time.Millisecond)
	got, ok := cache.GetWithRefresh(ctx, "minecraft:stone", time.Hour)
	require.True(t, ok)
	require.True(t, got.Allowed)

	_, expiration, found := cache.cache.GetWithExpiration("minecraft:stone")
	require.True(t, found)
	require.True(t, expiration.After(time.Now().Add(30*time.Minute)), "refresh should extend the ttl")
}

func TestInMemoryCacheManager_Delete(t *testing.T) {
	ctx := context.Background()
	cache := newDecisionCache()

	require.NoError(t, cache.Delete(ctx))

	cache.Set(ctx, "minecraft:stone", decision{Allowed: true}, DefaultExpiration)
	cache.Set(ctx, "minecraft:dirt", decision{Allowed: true}, DefaultExpiration)
	require.NoError(t, cache.Delete(ctx, "minecraft:stone"))

	_, ok := cache.Get(ctx, "minecraft:stone")
	require.False(t, ok)
	_, ok = cache.Get(ctx, "minecraft:dirt")
	require.True(t, ok)
}

func TestInMemoryCacheManager_Flush(t *testing.T) {
	ctx := context.Background()
	cache := newDecisionCache()
	cache.Set(ctx, "minecraft:stone", decision{Allowed: true}, DefaultExpiration)

	require.NoError(t, cache.Flush(ctx))

	_, ok := cache.Get(ctx, "minecraft:stone")
	require.False(t, ok)
	require.Zero(t, cache.Stats().Items)
}

func TestInMemoryCacheManager_Stats(t *testing.T) {
	ctx := context.Background()
	cache := newDecisionCache()
	cache.Set(ctx, "minecraft:stone", decision{Allowed: true}, DefaultExpiration)

	cache.Get(ctx, "minecraft:stone")
	cache.Get(ctx, "minecraft:stone")
	cache.Get(ctx, "minecraft:dirt")

	stats := cache.Stats()
	require.Equal(t, "filter", stats.UseCase)
	require.Equal(t, uint64(2), stats.Hits)
	require.Equal(t, uint64(1), stats.Misses)
	require.Equal(t, 1, stats.Items)
}
