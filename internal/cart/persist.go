package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/designcraft/designcraft-backend/pkg/logger"
	"github.com/designcraft/designcraft-backend/pkg/storage"
)

// StorageKey is the durable key the cart list lives under.
const StorageKey = "designcraft-cart"

// SessionKey namespaces the cart key for one session.
func SessionKey(sessionID string) string {
	if sessionID == "" {
		return StorageKey
	}
	return StorageKey + ":" + sessionID
}

// Persister moves the full item list to and from durable storage.
type Persister interface {
	Load(ctx context.Context) ([]LineItem, error)
	Save(ctx context.Context, items []LineItem) error
}

// KVPersister serializes the cart as a JSON array under a single key.
type KVPersister struct {
	kv   storage.KV
	key  string
	logg *logger.Logger
}

func NewKVPersister(kv storage.KV, key string, logg *logger.Logger) (*KVPersister, error) {
	if kv == nil {
		return nil, errors.New("kv store required")
	}
	if key == "" {
		return nil, errors.New("storage key required")
	}
	return &KVPersister{kv: kv, key: key, logg: logg}, nil
}

// Load yields an empty cart for a missing or corrupt record. Only a failing
// backend is reported, so callers never overwrite a cart they could not read.
func (p *KVPersister) Load(ctx context.Context) ([]LineItem, error) {
	raw, err := p.kv.Get(ctx, p.key)
	if errors.Is(err, storage.ErrNotFound) {
		return []LineItem{}, nil
	}
	if err != nil {
		p.warn(ctx, "cart.load.failed", err)
		return nil, fmt.Errorf("read cart %q: %w", p.key, err)
	}

	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		p.warn(ctx, "cart.load.corrupt", err)
		return []LineItem{}, nil
	}

	valid := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.ID == "" || item.Quantity < 1 {
			p.warn(ctx, "cart.load.dropped_item", fmt.Errorf("invalid item %q quantity %d", item.ID, item.Quantity))
			continue
		}
		valid = append(valid, item)
	}
	return valid, nil
}

func (p *KVPersister) Save(ctx context.Context, items []LineItem) error {
	if items == nil {
		items = []LineItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := p.kv.Set(ctx, p.key, string(payload)); err != nil {
		return fmt.Errorf("write cart %q: %w", p.key, err)
	}
	return nil
}

func (p *KVPersister) warn(ctx context.Context, msg string, err error) {
	if p.logg == nil {
		return
	}
	ctx = p.logg.WithFields(ctx, map[string]any{"storage_key": p.key, "error": err.Error()})
	p.logg.Warn(ctx, msg)
}
