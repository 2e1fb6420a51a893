package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// KV is the durable string key-value surface the cart and order records persist through.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Counter is a windowed counter backing the HTTP rate limiter.
type Counter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}
