package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), &redis.Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCache(t)

	_, hit, err := c.Get(ctx, "artifact:a")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "artifact:a", []byte("<html/>"), 0))
	assert.True(t, mr.Exists(DefaultRedisPrefix+"artifact:a"))

	data, hit, err := c.Get(ctx, "artifact:a")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "<html/>", string(data))

	require.NoError(t, c.Delete(ctx, "artifact:a"))
	_, hit, _ = c.Get(ctx, "artifact:a")
	assert.False(t, hit)
}

func TestRedisCacheTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCache(t)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.Equal(t, time.Minute, mr.TTL(DefaultRedisPrefix+"k"))

	mr.FastForward(2 * time.Minute)
	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCacheClear(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCache(t)

	require.NoError(t, mr.Set("unrelated", "x"))
	for _, k := range []string{"a", "b"} {
		require.NoError(t, c.Set(ctx, k, []byte(k), 0))
	}

	n, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, mr.Exists("unrelated"))
}

func TestRedisCacheSharedClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewRedisCacheFromClient(client, "t:")
	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), 0))
	require.NoError(t, c.Close())

	// Close must leave a borrowed client usable.
	assert.NoError(t, client.Ping(context.Background()).Err())
	assert.True(t, mr.Exists("t:k"))
}
