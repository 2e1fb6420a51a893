package orders

import (
	"context"
	"encoding/json"
	"errors"

	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
	"github.com/designcraft/designcraft-backend/pkg/storage"
)

// Repository persists order records.
type Repository interface {
	Save(ctx context.Context, order *Order) error
	Find(ctx context.Context, sessionID string) (*Order, error)
}

type repository struct {
	kv storage.KV
}

// NewRepository builds an order repository on top of the KV store.
func NewRepository(kv storage.KV) Repository {
	return &repository{kv: kv}
}

func (r *repository) Save(ctx context.Context, order *Order) error {
	if order == nil || order.SessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order session id required")
	}
	payload, err := json.Marshal(order)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order")
	}
	if err := r.kv.Set(ctx, KeyPrefix+order.SessionID, string(payload)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store order")
	}
	return nil
}

func (r *repository) Find(ctx context.Context, sessionID string) (*Order, error) {
	raw, err := r.kv.Get(ctx, KeyPrefix+sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	var order Order
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order")
	}
	return &order, nil
}
