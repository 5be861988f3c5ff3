package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the shared counter/cache surface backed by Redis. Keeping it as
// an interface lets the limit checker and rate limiter run against an
// in-memory fake in tests.
type Store interface {
	GetInt64(ctx context.Context, key string) (int64, bool, error)
	SetInt64(ctx context.Context, key string, value int64, ttl time.Duration) error
	IncrWindow(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Delete(ctx context.Context, key string) error
}

type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(opt *redis.Options) *RedisStore {
	return &RedisStore{Client: redis.NewClient(opt)}
}

func (s *RedisStore) GetInt64(ctx context.Context, key string) (int64, bool, error) {
	raw, err := s.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (s *RedisStore) SetInt64(ctx context.Context, key string, value int64, ttl time.Duration) error {
	return s.Client.Set(ctx, key, strconv.FormatInt(value, 10), ttl).Err()
}

// IncrWindow bumps a fixed-window counter, setting the TTL only when the key
// is created. The count and expiry stay consistent across instances, which
// an in-process map cannot give.
func (s *RedisStore) IncrWindow(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.Client.Del(ctx, key).Err()
}
