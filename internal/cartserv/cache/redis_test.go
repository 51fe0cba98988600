package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funmbia/Novelty/internal/cartserv/domain"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, mr, cleanup
}

func TestGet_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	userID := int64(123)

	cart := &domain.Cart{
		UserID: userID,
		Items: []domain.CartItem{
			{LineID: "l1", BookID: 1, Quantity: 2},
			{LineID: "l2", BookID: 2, Quantity: 3},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	cartJSON, _ := json.Marshal(cart)
	mr.Set(cacheKey(userID), string(cartJSON))

	result, err := cache.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, result.UserID)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, int64(1), result.Items[0].BookID)
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	result, err := cache.Get(ctx, 404404)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	userID := int64(123)
	key := cacheKey(userID)

	cart := &domain.Cart{
		UserID: userID,
		Items: []domain.CartItem{
			{LineID: "l1", BookID: 10, Quantity: 5},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	jsonCart, err := json.Marshal(cart)
	require.NoError(t, err)
	invalidCart := jsonCart[0:10]
	e2 := mr.Set(key, string(invalidCart))
	require.NoError(t, e2)

	_, cacheError := cache.Get(ctx, userID)
	require.ErrorContains(t, cacheError, "unmarshal cart failed")
}

func TestSet_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	userID := int64(456)

	cart := &domain.Cart{
		UserID: userID,
		Items: []domain.CartItem{
			{LineID: "l1", BookID: 10, Quantity: 5},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	err := cache.Set(ctx, userID, cart)
	require.NoError(t, err)

	stored, e2 := mr.Get(cacheKey(userID))
	assert.NotEmpty(t, stored)
	require.NoError(t, e2)

	var storedCart domain.Cart
	err = json.Unmarshal([]byte(stored), &storedCart)
	require.NoError(t, err)
	assert.Equal(t, userID, storedCart.UserID)
	assert.Len(t, storedCart.Items, 1)
}

func TestSet_WithTTL(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	userID := int64(789)

	cart := &domain.Cart{
		UserID: userID,
		Items:  []domain.CartItem{},
	}

	err := cache.Set(ctx, userID, cart)
	require.NoError(t, err)

	ttl := mr.TTL(cacheKey(userID))
	assert.True(t, ttl >= 15*time.Minute, "TTL should be at least base TTL")
	assert.True(t, ttl <= 20*time.Minute, "TTL should be base + max jitter")
}

func TestDelete_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	userID := int64(999)

	cart := &domain.Cart{UserID: userID}
	cartJSON, _ := json.Marshal(cart)
	mr.Set(cacheKey(userID), string(cartJSON))

	assert.True(t, mr.Exists(cacheKey(userID)))

	err := cache.Delete(ctx, userID)
	require.NoError(t, err)

	assert.False(t, mr.Exists(cacheKey(userID)))
}

func TestDelete_NonExistentKey(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	// Deleting non-existent key should not error
	err := cache.Delete(ctx, 31337)
	assert.NoError(t, err)
}

func TestCacheKey_Format(t *testing.T) {
	key := cacheKey(123)
	assert.Equal(t, "cart:123", key)
}
