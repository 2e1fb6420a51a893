package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/designcraft/designcraft-backend/pkg/enums"
	"github.com/designcraft/designcraft-backend/pkg/logger"
)

// Snapshot is a read-only view of the cart. Totals are derived at the time the
// snapshot is taken and never stored.
type Snapshot struct {
	Items       []LineItem           `json:"items"`
	TotalItems  int                  `json:"totalItems"`
	TotalPrice  decimal.Decimal      `json:"totalPrice"`
	Open        bool                 `json:"isOpen"`
	Status      enums.CheckoutStatus `json:"checkoutStatus"`
	LastOrderID string               `json:"lastOrderId,omitempty"`
}

type StoreParams struct {
	Persister Persister
	Logger    *logger.Logger
	Clock     func() time.Time
}

// Store owns one session's cart. Mutations are serialized and written through
// to the Persister before they return. A failed write is logged and the
// in-memory change is kept.
type Store struct {
	persister Persister
	logg      *logger.Logger
	now       func() time.Time

	mu          sync.Mutex
	items       []LineItem
	open        bool
	status      enums.CheckoutStatus
	lastOrderID string
	pending     []Snapshot

	// notifyMu keeps subscriber callbacks in mutation order.
	notifyMu sync.Mutex
	subsMu   sync.Mutex
	subs     map[int]func(Snapshot)
	nextSub  int
}

func NewStore(params StoreParams) (*Store, error) {
	if params.Persister == nil {
		return nil, errors.New("cart persister required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		persister: params.Persister,
		logg:      params.Logger,
		now:       clock,
		items:     []LineItem{},
		status:    enums.CheckoutStatusIdle,
		subs:      make(map[int]func(Snapshot)),
	}, nil
}

// Initialize replaces the in-memory list with whatever the Persister holds.
// On a read failure the list is left untouched and the error returned.
func (s *Store) Initialize(ctx context.Context) error {
	loaded, err := s.persister.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.items = cloneItems(loaded)
	s.publishLocked()
	return nil
}

// AddItem merges the candidate into an equal item or appends it with quantity 1,
// then opens the cart.
func (s *Store) AddItem(ctx context.Context, candidate Candidate) (LineItem, error) {
	if err := candidate.validate(); err != nil {
		return LineItem{}, err
	}

	s.mu.Lock()
	var added LineItem
	merged := false
	for i := range s.items {
		if candidate.matches(s.items[i]) {
			s.items[i].Quantity++
			added = s.items[i]
			merged = true
			break
		}
	}
	if !merged {
		added = LineItem{
			ID:            s.newIDLocked(candidate),
			ProductID:     candidate.ProductID,
			VariantID:     candidate.VariantID,
			ProductType:   candidate.ProductType,
			Name:          candidate.Name,
			Image:         candidate.Image,
			UnitPrice:     candidate.UnitPrice,
			Quantity:      1,
			Size:          candidate.Size,
			Color:         candidate.Color,
			Customization: cloneCustomization(candidate.Customization),
		}
		s.items = append(s.items, added)
	}
	s.open = true
	s.persistLocked(ctx)
	s.publishLocked()
	return cloneItems([]LineItem{added})[0], nil
}

// RemoveItem drops the item with id. Unknown ids leave the list unchanged.
func (s *Store) RemoveItem(ctx context.Context, id string) {
	s.mu.Lock()
	s.removeLocked(id)
	s.persistLocked(ctx)
	s.publishLocked()
}

// UpdateQuantity sets an item's quantity; zero or less removes it.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) {
	s.mu.Lock()
	if quantity <= 0 {
		s.removeLocked(id)
	} else if i := s.indexLocked(id); i >= 0 {
		s.items[i].Quantity = quantity
	}
	s.persistLocked(ctx)
	s.publishLocked()
}

// UpdateCustomization replaces an item's customization. nil clears it.
func (s *Store) UpdateCustomization(ctx context.Context, id string, customization *Customization) {
	s.mu.Lock()
	if i := s.indexLocked(id); i >= 0 {
		s.items[i].Customization = cloneCustomization(customization)
	}
	s.persistLocked(ctx)
	s.publishLocked()
}

func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	s.items = []LineItem{}
	s.persistLocked(ctx)
	s.publishLocked()
}

// Items returns a copy of the list in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Item looks up a single line item.
func (s *Store) Item(id string) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return cloneItems(s.items[i : i+1])[0], true
	}
	return LineItem{}, false
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalItems(s.items)
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalPrice(s.items)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Store) SetOpen(open bool) {
	s.mu.Lock()
	s.open = open
	s.publishLocked()
}

func (s *Store) CheckoutStatus() enums.CheckoutStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Store) SetCheckoutStatus(status enums.CheckoutStatus) {
	s.mu.Lock()
	s.status = status
	s.publishLocked()
}

// TransitionCheckoutStatus moves from one status to another only when the
// current status equals from. It reports whether the transition happened.
func (s *Store) TransitionCheckoutStatus(from, to enums.CheckoutStatus) bool {
	s.mu.Lock()
	if s.status != from {
		s.mu.Unlock()
		return false
	}
	s.status = to
	s.publishLocked()
	return true
}

func (s *Store) LastOrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOrderID
}

func (s *Store) SetLastOrderID(id string) {
	s.mu.Lock()
	s.lastOrderID = id
	s.publishLocked()
}

// Subscribe registers fn for every committed change. Callbacks run after the
// store lock is released, in mutation order. They may read from the store but
// must not mutate it synchronously.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

func (s *Store) persistLocked(ctx context.Context) {
	if err := s.persister.Save(ctx, cloneItems(s.items)); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithField(ctx, "item_count", len(s.items)), "cart.persist.failed", err)
	}
}

// publishLocked queues a snapshot for subscribers, releases s.mu and delivers
// everything queued so far. It must be called with s.mu held.
func (s *Store) publishLocked() {
	s.pending = append(s.pending, s.snapshotLocked())
	s.mu.Unlock()
	s.drain()
}

func (s *Store) drain() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		snap := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		for _, fn := range s.subscribers() {
			fn(snap)
		}
	}
}

func (s *Store) subscribers() []func(Snapshot) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	return fns
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Items:       cloneItems(s.items),
		TotalItems:  totalItems(s.items),
		TotalPrice:  totalPrice(s.items),
		Open:        s.open,
		Status:      s.status,
		LastOrderID: s.lastOrderID,
	}
}

func (s *Store) indexLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeLocked(id string) {
	if i := s.indexLocked(id); i >= 0 {
		s.items = append(s.items[:i:i], s.items[i+1:]...)
	}
}

// newIDLocked builds "<productId>-<variantId>-<unix ms>", advancing the
// timestamp until the id is unused.
func (s *Store) newIDLocked(c Candidate) string {
	ms := s.now().UnixMilli()
	for {
		id := fmt.Sprintf("%s-%d-%d", c.ProductID, c.VariantID, ms)
		if s.indexLocked(id) < 0 {
			return id
		}
		ms++
	}
}

func totalItems(items []LineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

func totalPrice(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
