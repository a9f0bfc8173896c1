package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockPrefersCache(t *testing.T) {
	db := newFakeDB(testProducts()...)
	cache := newFakeStockCache()
	svc := NewCatalogService(db, cache)
	ctx := context.Background()

	require.NoError(t, cache.CacheStock(ctx, 1, 4))
	db.setStock(1, 2)

	stock, err := svc.Stock(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, stock, "cached value wins until invalidated")

	require.NoError(t, cache.InvalidateStock(ctx, 1))
	stock, err = svc.Stock(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stock)

	// The miss populated the cache.
	count, ok, err := cache.CachedStock(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, count)
}

func TestProductRefreshesCachedStock(t *testing.T) {
	db := newFakeDB(testProducts()...)
	cache := newFakeStockCache()
	svc := NewCatalogService(db, cache)
	ctx := context.Background()

	require.NoError(t, cache.CacheStock(ctx, 1, 99))

	p, err := svc.Product(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, p.CountInStock)

	count, ok, err := cache.CachedStock(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, count, "product read refreshes the cache")
}

func TestSyncStockToCache(t *testing.T) {
	db := newFakeDB(testProducts()...)
	cache := newFakeStockCache()
	svc := NewCatalogService(db, cache)
	ctx := context.Background()

	require.NoError(t, svc.SyncStockToCache(ctx))

	count, ok, err := cache.CachedStock(ctx, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10, count)
}
