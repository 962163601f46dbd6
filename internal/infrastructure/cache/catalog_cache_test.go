package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedListing struct {
	Names []string `json:"names"`
	Total int      `json:"total"`
}

func TestInMemoryCatalogCache_GetSet(t *testing.T) {
	c := NewInMemoryCatalogCache(0)
	ctx := context.Background()

	var got cachedListing
	ok, err := c.Get(ctx, "active", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "active", cachedListing{Names: []string{"Classic Tee", "Heavy Hoodie"}, Total: 2}, time.Minute))

	ok, err = c.Get(ctx, "active", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"Classic Tee", "Heavy Hoodie"}, got.Names)
	assert.Equal(t, 2, got.Total)

	assert.Equal(t, CatalogCacheStats{Hits: 1, Misses: 1}, c.Stats())
}

func TestInMemoryCatalogCache_Expiry(t *testing.T) {
	c := NewInMemoryCatalogCache(30 * time.Second)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	// ttl above maxTTL is capped
	require.NoError(t, c.Set(ctx, "k", cachedListing{Total: 1}, time.Hour))

	now = now.Add(20 * time.Second)
	var got cachedListing
	ok, _ := c.Get(ctx, "k", &got)
	assert.True(t, ok)

	now = now.Add(20 * time.Second)
	ok, _ = c.Get(ctx, "k", &got)
	assert.False(t, ok)
}

func TestInMemoryCatalogCache_InvalidateAll(t *testing.T) {
	c := NewInMemoryCatalogCache(0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", cachedListing{Total: 1}, time.Minute))
	require.NoError(t, c.Set(ctx, "b", cachedListing{Total: 2}, time.Minute))
	require.NoError(t, c.InvalidateAll(ctx))

	var got cachedListing
	for _, key := range []string{"a", "b"} {
		ok, err := c.Get(ctx, key, &got)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
}
