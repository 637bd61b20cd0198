package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoval/storefront/internal/domain"
)

// setupTestRedis creates a miniredis server and a RedisCache pointed at it.
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client), mr
}

func sampleCart(userID string) *domain.Cart {
	return &domain.Cart{
		UserID: userID,
		Items: []domain.CartItem{
			{ProductID: "p1", PriceUnit: decimal.NewFromInt(1000), Quantity: 2},
			{ProductID: "p2", PriceUnit: decimal.NewFromInt(2500), Quantity: 1},
		},
	}
}

func TestGet_Success(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	payload, err := json.Marshal(sampleCart("u1"))
	require.NoError(t, err)
	mr.Set(cacheKey("u1"), string(payload))

	cart, err := cache.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", cart.UserID)
	assert.Len(t, cart.Items, 2)
	assert.Equal(t, "p1", cart.Items[0].ProductID)
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	cart, err := cache.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, cart)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)

	mr.Set(cacheKey("u1"), "{broken")

	cart, err := cache.Get(context.Background(), "u1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, cart)
}

func TestSetGetRoundTrip(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "u1", sampleCart("u1")))
	assert.True(t, mr.Exists(cacheKey("u1")))

	cart, err := cache.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.True(t, decimal.NewFromInt(2500).Equal(cart.Items[1].PriceUnit))
}

func TestSet_AppliesTTL(t *testing.T) {
	cache, mr := setupTestRedis(t)

	require.NoError(t, cache.Set(context.Background(), "u1", sampleCart("u1")))
	ttl := mr.TTL(cacheKey("u1"))
	assert.GreaterOrEqual(t, ttl, cache.baseTTL)
}

func TestDelete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "u1", sampleCart("u1")))
	require.NoError(t, cache.Delete(ctx, "u1"))
	assert.False(t, mr.Exists(cacheKey("u1")))

	// Deleting a missing key is still fine.
	assert.NoError(t, cache.Delete(ctx, "u1"))
}
