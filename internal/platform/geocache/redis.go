package geocache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "geo:country:"

// RedisStore shares entries between server instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore stores entries with a key expiry of twice maxAge so stale
// entries are still readable for a grace period but do not pile up.
func NewRedisStore(client *redis.Client, maxAge time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: 2 * maxAge}
}

func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get geo entry: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode geo entry: %w", err)
	}
	return e, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode geo entry: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("put geo entry: %w", err)
	}
	return nil
}

// NewRedisClient connects to url and pings it. It returns nil, nil when url
// is empty, meaning Redis is not configured.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
