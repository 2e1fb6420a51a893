package cart

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/designcraft/designcraft-backend/pkg/enums"
	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
	"github.com/designcraft/designcraft-backend/pkg/logger"
)

type stubPersister struct {
	mu      sync.Mutex
	loaded  []LineItem
	loadErr error
	saves   [][]LineItem
	saveErr error
}

func (s *stubPersister) Load(context.Context) ([]LineItem, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.loaded, nil
}

func (s *stubPersister) Save(_ context.Context, items []LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, items)
	return s.saveErr
}

func (s *stubPersister) last() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saves) == 0 {
		return nil
	}
	return s.saves[len(s.saves)-1]
}

var fixedNow = time.UnixMilli(1700000000000)

func newTestStore(t *testing.T, p *stubPersister) *Store {
	t.Helper()
	store, err := NewStore(StoreParams{
		Persister: p,
		Clock:     func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return store
}

func tshirt(customization *Customization) Candidate {
	return Candidate{
		ProductID:     "tshirt-001",
		VariantID:     102,
		ProductType:   enums.ProductTypeTShirt,
		Name:          "Premium T-Shirt",
		Image:         "https://cdn.example.com/design.png",
		UnitPrice:     decimal.RequireFromString("24.99"),
		Size:          "M",
		Color:         "Black",
		Customization: customization,
	}
}

func TestNewStoreRequiresPersister(t *testing.T) {
	if _, err := NewStore(StoreParams{}); err == nil {
		t.Fatalf("expected error without persister")
	}
}

func TestAddItemAppendsWithGeneratedID(t *testing.T) {
	p := &stubPersister{}
	store := newTestStore(t, p)

	item, err := store.AddItem(context.Background(), tshirt(nil))
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if item.ID != "tshirt-001-102-1700000000000" {
		t.Fatalf("unexpected id %q", item.ID)
	}
	if item.Quantity != 1 {
		t.Fatalf("expected quantity 1 got %d", item.Quantity)
	}
	if !store.IsOpen() {
		t.Fatalf("adding an item opens the cart")
	}
	if got := p.last(); len(got) != 1 || got[0].ID != item.ID {
		t.Fatalf("expected write-through save, got %+v", got)
	}
}

func TestAddItemMergesEqualCustomization(t *testing.T) {
	store := newTestStore(t, &stubPersister{})
	ctx := context.Background()

	c := &Customization{Position: Position{X: 10, Y: 20}, Rotation: 0, Zoom: 1}
	first, _ := store.AddItem(ctx, tshirt(c))
	second, _ := store.AddItem(ctx, tshirt(&Customization{Position: Position{X: 10, Y: 20}, Rotation: 0, Zoom: 1}))

	if first.ID != second.ID {
		t.Fatalf("expected merge into %s, got %s", first.ID, second.ID)
	}
	items := store.Items()
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("expected one item with quantity 2, got %+v", items)
	}
	if store.TotalItems() != 2 {
		t.Fatalf("expected total items 2, got %d", store.TotalItems())
	}
	if !store.TotalPrice().Equal(decimal.RequireFromString("49.98")) {
		t.Fatalf("expected total 49.98, got %s", store.TotalPrice())
	}
}

func TestAddItemDistinctCustomizationsStaySeparate(t *testing.T) {
	store := newTestStore(t, &stubPersister{})
	ctx := context.Background()

	a, _ := store.AddItem(ctx, tshirt(nil))
	b, _ := store.AddItem(ctx, tshirt(&Customization{Zoom: 1.5}))
	c, _ := store.AddItem(ctx, tshirt(&Customization{Zoom: 2}))

	if a.ID == b.ID || b.ID == c.ID || a.ID == c.ID {
		t.Fatalf("ids must be unique even within the same millisecond: %s %s %s", a.ID, b.ID, c.ID)
	}
	if b.ID != "tshirt-001-102-1700000000001" {
		t.Fatalf("expected timestamp bump, got %s", b.ID)
	}
	if len(store.Items()) != 3 {
		t.Fatalf("expected three items, got %d", len(store.Items()))
	}
}

func TestAddItemRejectsInvalidCandidate(t *testing.T) {
	p := &stubPersister{}
	store := newTestStore(t, p)
	bad := tshirt(nil)
	bad.ProductID = " "
	if _, err := store.AddItem(context.Background(), bad); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(p.saves) != 0 {
		t.Fatalf("rejected candidates must not be persisted")
	}
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	store := newTestStore(t, &stubPersister{})
	ctx := context.Background()
	item, _ := store.AddItem(ctx, tshirt(nil))

	store.UpdateQuantity(ctx, item.ID, 5)
	if got, _ := store.Item(item.ID); got.Quantity != 5 {
		t.Fatalf("expected quantity 5 got %d", got.Quantity)
	}

	store.UpdateQuantity(ctx, item.ID, 0)
	if _, ok := store.Item(item.ID); ok {
		t.Fatalf("quantity 0 should remove the item")
	}

	again, _ := store.AddItem(ctx, tshirt(nil))
	store.UpdateQuantity(ctx, again.ID, -3)
	if len(store.Items()) != 0 {
		t.Fatalf("negative quantity should remove the item")
	}
}

func TestUpdateQuantityZeroMatchesRemove(t *testing.T) {
	ctx := context.Background()
	build := func(p *stubPersister) (*Store, string) {
		store := newTestStore(t, p)
		item, _ := store.AddItem(ctx, tshirt(nil))
		mug := tshirt(&Customization{Zoom: 2})
		mug.ProductID, mug.VariantID = "mug-001", 201
		if _, err := store.AddItem(ctx, mug); err != nil {
			t.Fatalf("add: %v", err)
		}
		return store, item.ID
	}

	removedP, zeroedP := &stubPersister{}, &stubPersister{}
	removed, id := build(removedP)
	zeroed, _ := build(zeroedP)
	removed.RemoveItem(ctx, id)
	zeroed.UpdateQuantity(ctx, id, 0)

	decimalEqual := cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
	if diff := cmp.Diff(removed.Items(), zeroed.Items(), decimalEqual); diff != "" {
		t.Fatalf("items differ (-remove +quantity 0):\n%s", diff)
	}
	if diff := cmp.Diff(removedP.last(), zeroedP.last(), decimalEqual); diff != "" {
		t.Fatalf("persisted lists differ (-remove +quantity 0):\n%s", diff)
	}
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	store := newTestStore(t, &stubPersister{})
	ctx := context.Background()
	item, _ := store.AddItem(ctx, tshirt(nil))
	before := store.Items()

	store.RemoveItem(ctx, "missing")
	store.UpdateQuantity(ctx, "missing", 4)
	store.UpdateCustomization(ctx, "missing", &Customization{Zoom: 3})

	if diff := cmp.Diff(before, store.Items()); diff != "" {
		t.Fatalf("unknown ids mutated the cart (-want +got):\n%s", diff)
	}
	if _, ok := store.Item(item.ID); !ok {
		t.Fatalf("existing item lost")
	}
}

func TestUpdateCustomization(t *testing.T) {
	store := newTestStore(t, &stubPersister{})
	ctx := context.Background()
	item, _ := store.AddItem(ctx, tshirt(nil))

	c := &Customization{Position: Position{X: 1, Y: 2}, Rotation: 90, Zoom: 1.2}
	store.UpdateCustomization(ctx, item.ID, c)
	c.Zoom = 99

	got, _ := store.Item(item.ID)
	if got.Customization == nil || got.Customization.Zoom != 1.2 {
		t.Fatalf("customization should be copied on write, got %+v", got.Customization)
	}
}

func TestClearCartAndTotals(t *testing.T) {
	p := &stubPersister{}
	store := newTestStore(t, p)
	ctx := context.Background()

	store.AddItem(ctx, tshirt(nil))
	mug := Candidate{ProductID: "mug-001", VariantID: 202, ProductType: enums.ProductTypeMug, Name: "Ceramic Mug", UnitPrice: decimal.RequireFromString("16.99")}
	m, _ := store.AddItem(ctx, mug)
	store.UpdateQuantity(ctx, m.ID, 3)

	if !store.TotalPrice().Equal(decimal.RequireFromString("75.96")) {
		t.Fatalf("expected 75.96 got %s", store.TotalPrice())
	}

	store.ClearCart(ctx)
	snap := store.Snapshot()
	if len(snap.Items) != 0 || snap.TotalItems != 0 || !snap.TotalPrice.IsZero() {
		t.Fatalf("expected empty cart, got %+v", snap)
	}
	if got := p.last(); got == nil || len(got) != 0 {
		t.Fatalf("expected empty list persisted, got %+v", got)
	}
}

func TestSaveFailureKeepsMutation(t *testing.T) {
	p := &stubPersister{saveErr: errors.New("quota exceeded")}
	store, err := NewStore(StoreParams{Persister: p, Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard})})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.AddItem(context.Background(), tshirt(nil)); err != nil {
		t.Fatalf("save failures are not surfaced: %v", err)
	}
	if store.TotalItems() != 1 {
		t.Fatalf("in-memory mutation must stand after a failed save")
	}
}

func TestInitializeReportsReadFailure(t *testing.T) {
	boom := errors.New("redis: i/o timeout")
	p := &stubPersister{loadErr: boom}
	store, err := NewStore(StoreParams{Persister: p})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Initialize(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected read error, got %v", err)
	}
	if len(p.saves) != 0 {
		t.Fatalf("a failed load must not write")
	}
}

func TestInitializeLoadsPersistedItems(t *testing.T) {
	p := &stubPersister{loaded: []LineItem{{ID: "poster-001-301-1", ProductID: "poster-001", VariantID: 301, UnitPrice: decimal.RequireFromString("19.99"), Quantity: 2}}}
	store := newTestStore(t, p)
	if store.TotalItems() != 2 {
		t.Fatalf("expected loaded quantity 2, got %d", store.TotalItems())
	}
	if store.CheckoutStatus() != enums.CheckoutStatusIdle {
		t.Fatalf("fresh store starts idle")
	}
}

func TestSubscribersSeeEveryCommitInOrder(t *testing.T) {
	store := newTestStore(t, &stubPersister{})
	ctx := context.Background()

	var totals []int
	unsubscribe := store.Subscribe(func(s Snapshot) {
		totals = append(totals, s.TotalItems)
		_ = store.Items()
	})

	item, _ := store.AddItem(ctx, tshirt(nil))
	store.UpdateQuantity(ctx, item.ID, 4)
	store.RemoveItem(ctx, item.ID)
	unsubscribe()
	store.AddItem(ctx, tshirt(nil))

	if diff := cmp.Diff([]int{1, 4, 0}, totals); diff != "" {
		t.Fatalf("unexpected notifications (-want +got):\n%s", diff)
	}
}

func TestTransitionCheckoutStatus(t *testing.T) {
	store := newTestStore(t, &stubPersister{})
	if !store.TransitionCheckoutStatus(enums.CheckoutStatusIdle, enums.CheckoutStatusProcessing) {
		t.Fatalf("idle -> processing should succeed")
	}
	if store.TransitionCheckoutStatus(enums.CheckoutStatusIdle, enums.CheckoutStatusProcessing) {
		t.Fatalf("second transition from idle must fail while processing")
	}
	store.SetLastOrderID("cs_test_1")
	if store.Snapshot().LastOrderID != "cs_test_1" {
		t.Fatalf("last order id not recorded")
	}
}

func TestConcurrentMutationsKeepInvariants(t *testing.T) {
	p := &stubPersister{}
	store := newTestStore(t, p)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.AddItem(ctx, tshirt(nil))
		}()
	}
	wg.Wait()

	items := store.Items()
	if len(items) != 1 || items[0].Quantity != 20 {
		t.Fatalf("expected a single merged item with quantity 20, got %+v", items)
	}
	if got := p.last(); len(got) != 1 || got[0].Quantity != 20 {
		t.Fatalf("last persisted state must match memory, got %+v", got)
	}
}

// Random operation sequences never produce a zero quantity, duplicate ids, or
// totals that disagree with the items.
func TestRandomOperationsKeepInvariants(t *testing.T) {
	faker := gofakeit.New(7)
	store := newTestStore(t, &stubPersister{})
	ctx := context.Background()

	customizations := []*Customization{nil, {Zoom: 1}, {Zoom: 2, Rotation: 45}}
	variants := []int{101, 102, 201}

	for step := 0; step < 400; step++ {
		items := store.Items()
		switch op := faker.IntRange(0, 3); {
		case op == 0 || len(items) == 0:
			c := tshirt(customizations[faker.IntRange(0, len(customizations)-1)])
			c.VariantID = variants[faker.IntRange(0, len(variants)-1)]
			if _, err := store.AddItem(ctx, c); err != nil {
				t.Fatalf("add: %v", err)
			}
		case op == 1:
			store.UpdateQuantity(ctx, items[faker.IntRange(0, len(items)-1)].ID, faker.IntRange(-2, 6))
		case op == 2:
			store.RemoveItem(ctx, items[faker.IntRange(0, len(items)-1)].ID)
		default:
			store.UpdateCustomization(ctx, items[faker.IntRange(0, len(items)-1)].ID, customizations[faker.IntRange(0, len(customizations)-1)])
		}

		snap := store.Snapshot()
		seen := map[string]bool{}
		total := 0
		price := decimal.Zero
		for _, item := range snap.Items {
			if item.Quantity < 1 {
				t.Fatalf("step %d: quantity %d below 1", step, item.Quantity)
			}
			if seen[item.ID] {
				t.Fatalf("step %d: duplicate id %s", step, item.ID)
			}
			seen[item.ID] = true
			total += item.Quantity
			price = price.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		if total != snap.TotalItems || !price.Equal(snap.TotalPrice) {
			t.Fatalf("step %d: totals drifted", step)
		}
	}
}
