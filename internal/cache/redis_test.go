package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/license-portal/internal/config"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := models.Subscription{
		ID:         7,
		UserID:     3,
		PlanType:   models.PlanPro,
		Status:     models.SubscriptionActive,
		ExpiresAt:  time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		LicenseKey: "AAAA-BBBB-CCCC-DDDD-EEEE-FFFF-0000-1111",
	}
	require.NoError(t, cache.Set(ctx, "subscription:active:3", expected, time.Minute))

	var actual models.Subscription
	found, err := cache.Get(ctx, "subscription:active:3", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected.LicenseKey, actual.LicenseKey)
	assert.True(t, expected.ExpiresAt.Equal(actual.ExpiresAt))
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out models.Subscription
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetExpires(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", "value", time.Minute))
	mr.FastForward(2 * time.Minute)

	var out string
	found, err := cache.Get(ctx, "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", "value", time.Minute))
	require.NoError(t, cache.Invalidate(ctx, "key"))
	require.NoError(t, cache.Invalidate(ctx, "missing"))

	var out string
	found, err := cache.Get(ctx, "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetInvalidJSON(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Db.Set(ctx, "bad", []byte("not-json"), time.Minute).Err())

	var out models.Subscription
	found, err := cache.Get(ctx, "bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestRevoke(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	revoked, err := cache.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, cache.Revoke(ctx, "jti-1", time.Hour))
	revoked, err = cache.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)
	revoked, err = cache.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entry must expire with the token")
}

func TestRevoke_ExpiredTokenSkipped(t *testing.T) {
	cache, mr := setupTestCache(t)

	require.NoError(t, cache.Revoke(context.Background(), "jti-2", -time.Second))
	assert.False(t, mr.Exists(revokedPrefix+"jti-2"))
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		AddressRedis: "127.0.0.1:9999",
		DialTimeout:  200 * time.Millisecond,
	}

	cache, err := InitServer(context.Background(), cfg)
	assert.Nil(t, cache)
	assert.Error(t, err)
}
