package stripewebhook

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
	"github.com/designcraft/designcraft-backend/pkg/redis"
)

const (
	// DefaultScope namespaces Stripe event ids in the idempotency store.
	DefaultScope = "stripe-webhook"
	// DefaultTTL outlives Stripe's three day redelivery window by a wide margin.
	DefaultTTL = 30 * 24 * time.Hour
)

// IdempotencyGuard remembers which Stripe events were already handled so a
// redelivered event is acknowledged without touching the order again.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

// NewIdempotencyGuard falls back to DefaultTTL and DefaultScope for zero values.
func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if scope == "" {
		scope = DefaultScope
	}
	return &IdempotencyGuard{store: store, ttl: ttl, scope: scope}, nil
}

// CheckAndMark claims eventID and reports whether an earlier delivery already
// claimed it.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "stripe event id is required")
	}
	set, err := g.store.SetNX(ctx, g.key(eventID), "1", g.ttl)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim stripe event")
	}
	return !set, nil
}

// Delete releases a claim so Stripe's next redelivery is processed.
func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event id is required")
	}
	if err := g.store.Del(ctx, g.key(eventID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release stripe event")
	}
	return nil
}

func (g *IdempotencyGuard) key(eventID string) string {
	return g.store.IdempotencyKey(g.scope, eventID)
}
