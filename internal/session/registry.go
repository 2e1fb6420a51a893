package session

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/designcraft/designcraft-backend/internal/cart"
	"github.com/designcraft/designcraft-backend/internal/checkout"
	"github.com/designcraft/designcraft-backend/internal/orders"
	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
	"github.com/designcraft/designcraft-backend/pkg/logger"
	"github.com/designcraft/designcraft-backend/pkg/metrics"
	"github.com/designcraft/designcraft-backend/pkg/storage"
)

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

const (
	DefaultMaxSessions = 10000
	DefaultIdleTTL     = 30 * time.Minute
)

// Session is one browser's cart together with its checkout coordinator.
type Session struct {
	ID       string
	Cart     *cart.Store
	Checkout *checkout.Coordinator
}

type RegistryParams struct {
	KV             storage.KV
	Gateway        checkout.Gateway
	Orders         orders.Service
	Metrics        *metrics.CheckoutMetrics
	Logger         *logger.Logger
	ProviderDomain string
	// MaxSessions caps live sessions; the least recently used is dropped first.
	MaxSessions int
	// IdleTTL drops a session that has not been used for this long.
	IdleTTL time.Duration
}

// Registry lazily creates sessions and keeps the recently used ones in
// memory. A dropped session is rebuilt from its persisted cart on next use.
type Registry struct {
	params RegistryParams

	mu       sync.Mutex
	sessions *expirable.LRU[string, *Session]
}

func NewRegistry(params RegistryParams) (*Registry, error) {
	if params.KV == nil {
		return nil, errors.New("kv store required")
	}
	if params.Gateway == nil {
		return nil, errors.New("payment gateway required")
	}
	if params.MaxSessions <= 0 {
		params.MaxSessions = DefaultMaxSessions
	}
	if params.IdleTTL <= 0 {
		params.IdleTTL = DefaultIdleTTL
	}
	r := &Registry{params: params}
	r.sessions = expirable.NewLRU[string, *Session](params.MaxSessions, r.evicted, params.IdleTTL)
	return r, nil
}

// ValidID reports whether id is usable as a session id.
func ValidID(id string) bool {
	return validID.MatchString(id)
}

// Get returns the session for id, loading its persisted cart on first use.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	if !ValidID(id) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid session id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions.Get(id); ok {
		r.sessions.Add(id, s)
		return s, nil
	}

	persister, err := cart.NewKVPersister(r.params.KV, cart.SessionKey(id), r.params.Logger)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build cart persister")
	}
	store, err := cart.NewStore(cart.StoreParams{Persister: persister, Logger: r.params.Logger})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build cart store")
	}
	if err := store.Initialize(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	coord, err := checkout.NewCoordinator(checkout.Params{
		SessionID:      id,
		Cart:           store,
		Gateway:        r.params.Gateway,
		Orders:         r.params.Orders,
		Metrics:        r.params.Metrics,
		Logger:         r.params.Logger,
		ProviderDomain: r.params.ProviderDomain,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build checkout coordinator")
	}

	s := &Session{ID: id, Cart: store, Checkout: coord}
	r.sessions.Add(id, s)
	if r.params.Logger != nil {
		r.params.Logger.Debug(r.params.Logger.WithSessionID(ctx, id), "session.created")
	}
	return s, nil
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	return r.sessions.Len()
}

func (r *Registry) evicted(id string, _ *Session) {
	if r.params.Logger != nil {
		ctx := r.params.Logger.WithSessionID(context.Background(), id)
		r.params.Logger.Debug(ctx, "session.evicted")
	}
}
