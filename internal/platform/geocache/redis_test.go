package geocache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisStore_PutGet(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	s := NewRedisStore(client, time.Hour)

	_, ok, err := s.Get(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	stored := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Put(ctx, "10.0.0.1", Entry{Country: "PE", StoredAt: stored}))

	e, ok, err := s.Get(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "PE", e.Country)
	assert.True(t, stored.Equal(e.StoredAt))

	assert.True(t, mr.Exists(keyPrefix+"10.0.0.1"))
	assert.Equal(t, 2*time.Hour, mr.TTL(keyPrefix+"10.0.0.1"))
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	s := NewRedisStore(client, time.Minute)

	require.NoError(t, s.Put(ctx, "k", Entry{Country: "CO", StoredAt: time.Now()}))
	mr.FastForward(3 * time.Minute)

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	s := NewRedisStore(client, time.Minute)

	require.NoError(t, mr.Set(keyPrefix+"k", "not json"))
	_, _, err := s.Get(ctx, "k")
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	ctx := context.Background()

	client, err := NewRedisClient(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, client)

	mr := miniredis.RunT(t)
	client, err = NewRedisClient(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	require.NotNil(t, client)
	client.Close()

	_, err = NewRedisClient(ctx, "://bad")
	assert.Error(t, err)
}
