package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analytics-chat/internal/common/logger"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestMemoryCache_GetSetInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(Options{TTL: time.Minute})

	_, ok := c.Get(ctx, "schema")
	assert.False(t, ok)

	c.Set(ctx, "schema", []byte("- ai_current_trending"))
	got, ok := c.Get(ctx, "schema")
	require.True(t, ok)
	assert.Equal(t, "- ai_current_trending", string(got))

	c.Invalidate(ctx)
	_, ok = c.Get(ctx, "schema")
	assert.False(t, ok)
}

func TestMemoryCache_Expires(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(Options{TTL: 10 * time.Millisecond})

	c.Set(ctx, "k", []byte("v"))
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(Options{TTL: time.Minute})

	rows := []map[string]interface{}{{"채널명": "A", "구독자수": float64(10)}}
	SetJSON(ctx, c, "rows", rows)

	var out []map[string]interface{}
	require.True(t, GetJSON(ctx, c, "rows", &out))
	assert.Equal(t, rows, out)

	assert.False(t, GetJSON(ctx, c, "missing", &out))
}

func TestRedisCache_RoundTripAndTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	c := NewRedisCache(client, Options{TTL: 5 * time.Second, Prefix: "test:"}, logger.NewTestLogger(t))

	c.Set(ctx, "snapshot:abc", []byte(`[{"a":1}]`))
	assert.True(t, mr.Exists("test:snapshot:abc"))

	got, ok := c.Get(ctx, "snapshot:abc")
	require.True(t, ok)
	assert.JSONEq(t, `[{"a":1}]`, string(got))

	mr.FastForward(6 * time.Second)
	_, ok = c.Get(ctx, "snapshot:abc")
	assert.False(t, ok)
}

func TestRedisCache_InvalidateOnlyOwnPrefix(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	c := NewRedisCache(client, Options{TTL: time.Minute, Prefix: "test:"}, logger.NewTestLogger(t))

	c.Set(ctx, "a", []byte("1"))
	c.Set(ctx, "b", []byte("2"))
	require.NoError(t, mr.Set("other:c", "3"))

	c.Invalidate(ctx)

	assert.False(t, mr.Exists("test:a"))
	assert.False(t, mr.Exists("test:b"))
	assert.True(t, mr.Exists("other:c"))
}

func TestRedisCache_ErrorIsMiss(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	c := NewRedisCache(client, Options{TTL: time.Minute, Prefix: "p:"}, logger.NewTestLogger(t))

	mock.ExpectGet("p:schema").SetErr(errors.New("connection reset"))
	_, ok := c.Get(ctx, "schema")
	assert.False(t, ok)

	mock.ExpectGet("p:none").RedisNil()
	_, ok = c.Get(ctx, "none")
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}
