package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/simplur/cart-events-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore instance
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client), mr
}

func TestGet_Success(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()

	summary := domain.CartSummary{
		WooSessionID: "token",
		Subtotal:     42.50,
		HasProducts:  true,
	}
	data, err := json.Marshal(summary)
	require.NoError(t, err)
	require.NoError(t, mr.Set(CartKey("sess1"), string(data)))

	var got domain.CartSummary
	require.NoError(t, s.Get(ctx, CartKey("sess1"), &got))
	assert.Equal(t, summary, got)
}

func TestGet_NotFound(t *testing.T) {
	s, _ := setupTestRedis(t)

	var got domain.CartSummary
	err := s.Get(context.Background(), CartKey("missing"), &got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_InvalidJSON(t *testing.T) {
	s, mr := setupTestRedis(t)

	require.NoError(t, mr.Set(CartKey("sess1"), "{not json"))

	var got domain.CartSummary
	err := s.Get(context.Background(), CartKey("sess1"), &got)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSet_WithTTL(t *testing.T) {
	s, mr := setupTestRedis(t)

	err := s.Set(context.Background(), CartKey("sess1"), domain.CartSummary{}, 120*time.Second, true)
	require.NoError(t, err)

	assert.True(t, mr.Exists(CartKey("sess1")))
	assert.InDelta(t, 120, mr.TTL(CartKey("sess1")).Seconds(), 1)
}

func TestSet_WithoutTTL(t *testing.T) {
	s, mr := setupTestRedis(t)

	err := s.Set(context.Background(), CartKey("sess1"), domain.CartSummary{}, 0, false)
	require.NoError(t, err)

	assert.True(t, mr.Exists(CartKey("sess1")))
	assert.Equal(t, time.Duration(0), mr.TTL(CartKey("sess1")))
}

func TestSet_NonPositiveTTLRejected(t *testing.T) {
	s, mr := setupTestRedis(t)

	err := s.Set(context.Background(), CartKey("sess1"), domain.CartSummary{}, -5*time.Second, true)
	assert.ErrorIs(t, err, ErrInvalidTTL)
	assert.False(t, mr.Exists(CartKey("sess1")))
}

func TestSetMulti_AllKeysWritten(t *testing.T) {
	s, mr := setupTestRedis(t)

	entries := []Entry{
		{Key: CartKey("sess1"), Value: domain.CartSummary{Subtotal: 10}, TTL: 60 * time.Second, HasTTL: true},
		{Key: CartItemsKey("sess1"), Value: []domain.CartLineItem{{CartID: "line1"}}, TTL: 60 * time.Second, HasTTL: true},
		{Key: CartItemCountKey("sess1"), Value: 1, TTL: 60 * time.Second, HasTTL: true},
		{Key: CheckoutKey("sess1"), Value: domain.CheckoutSession{}, TTL: 60 * time.Second, HasTTL: true},
	}

	require.NoError(t, s.SetMulti(context.Background(), entries))

	for _, e := range entries {
		assert.True(t, mr.Exists(e.Key), e.Key)
		assert.InDelta(t, 60, mr.TTL(e.Key).Seconds(), 1, e.Key)
	}
}

func TestSetMulti_InvalidTTLWritesNothing(t *testing.T) {
	s, mr := setupTestRedis(t)

	entries := []Entry{
		{Key: CartKey("sess1"), Value: domain.CartSummary{}, TTL: 60 * time.Second, HasTTL: true},
		{Key: CartItemsKey("sess1"), Value: nil, TTL: -time.Second, HasTTL: true},
	}

	err := s.SetMulti(context.Background(), entries)
	assert.ErrorIs(t, err, ErrInvalidTTL)
	assert.False(t, mr.Exists(CartKey("sess1")))
	assert.False(t, mr.Exists(CartItemsKey("sess1")))
}

func TestDel_ReportsDeletedCount(t *testing.T) {
	s, mr := setupTestRedis(t)

	require.NoError(t, mr.Set(CartKey("sess1"), "{}"))
	require.NoError(t, mr.Set(CartItemsKey("sess1"), "[]"))

	deleted, err := s.Del(context.Background(), SessionKeys("sess1")...)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = s.Del(context.Background(), SessionKeys("sess1")...)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}
