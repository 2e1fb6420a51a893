package storage

import (
	"context"
	"errors"
	"time"

	"github.com/designcraft/designcraft-backend/pkg/redis"
)

type redisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	KVKey(key string) string
}

// Redis stores entries under the dc:kv namespace without expiry.
type Redis struct {
	client redisClient
}

func NewRedis(client *redis.Client) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.client.KVKey(key))
	if errors.Is(err, redis.ErrNil) {
		return "", ErrNotFound
	}
	return val, err
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.client.KVKey(key), value, 0)
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.client.KVKey(key))
}
