package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/designcraft/designcraft-backend/internal/cart"
	"github.com/designcraft/designcraft-backend/pkg/enums"
	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
	"github.com/designcraft/designcraft-backend/pkg/storage"
)

type failingRepo struct {
	Repository
	saveErr error
}

func (f failingRepo) Save(context.Context, *Order) error { return f.saveErr }

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (Service, storage.KV) {
	t.Helper()
	kv := storage.NewMemory()
	svc, err := NewService(NewRepository(kv), func() time.Time { return testNow })
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, kv
}

func pendingInput() PendingInput {
	return PendingInput{
		SessionID:     "cs_test_1",
		CartSessionID: "sess-1",
		Items: []cart.LineItem{
			{ID: "tshirt-001-102-1", ProductID: "tshirt-001", VariantID: 102, UnitPrice: decimal.RequireFromString("24.99"), Quantity: 2},
			{ID: "mug-001-201-1", ProductID: "mug-001", VariantID: 201, UnitPrice: decimal.RequireFromString("14.99"), Quantity: 1},
		},
	}
}

func TestNewServiceRequiresRepo(t *testing.T) {
	if _, err := NewService(nil, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRecordPendingStoresTotals(t *testing.T) {
	svc, kv := newTestService(t)
	ctx := context.Background()

	order, err := svc.RecordPending(ctx, pendingInput())
	if err != nil {
		t.Fatalf("record pending: %v", err)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if !order.Total.Equal(decimal.RequireFromString("64.97")) {
		t.Fatalf("expected total 64.97, got %s", order.Total)
	}
	if _, err := kv.Get(ctx, "designcraft-order:cs_test_1"); err != nil {
		t.Fatalf("order not stored under prefixed key: %v", err)
	}

	loaded, err := svc.Get(ctx, "cs_test_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(loaded.Items) != 2 || !loaded.CreatedAt.Equal(testNow) {
		t.Fatalf("unexpected loaded order %+v", loaded)
	}
}

func TestRecordPendingValidation(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.RecordPending(context.Background(), PendingInput{SessionID: " "}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.RecordPending(context.Background(), PendingInput{SessionID: "cs"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty items, got %v", err)
	}
}

func TestOrderLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.RecordPending(ctx, pendingInput()); err != nil {
		t.Fatalf("record pending: %v", err)
	}

	paid, err := svc.MarkPaid(ctx, "cs_test_1", "jane@example.com")
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != enums.OrderStatusPaid || paid.CustomerEmail != "jane@example.com" {
		t.Fatalf("unexpected paid order %+v", paid)
	}

	again, err := svc.MarkPaid(ctx, "cs_test_1", "")
	if err != nil || again.Status != enums.OrderStatusPaid {
		t.Fatalf("mark paid should be idempotent: %v %+v", err, again)
	}

	submitted, err := svc.MarkSubmitted(ctx, "cs_test_1", 9001)
	if err != nil {
		t.Fatalf("mark submitted: %v", err)
	}
	if submitted.FulfillmentOrderID != 9001 {
		t.Fatalf("fulfillment id not stored")
	}

	if o, err := svc.MarkPaid(ctx, "cs_test_1", ""); err != nil || o.Status != enums.OrderStatusSubmitted {
		t.Fatalf("late paid event must not regress a submitted order: %v %+v", err, o)
	}
	if _, err := svc.MarkFailed(ctx, "cs_test_1", "expired"); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestMarkSubmittedRequiresPaid(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.RecordPending(ctx, pendingInput()); err != nil {
		t.Fatalf("record pending: %v", err)
	}
	if _, err := svc.MarkSubmitted(ctx, "cs_test_1", 5); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if _, err := svc.MarkSubmitted(ctx, "cs_test_1", 0); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMissingOrderIsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.MarkPaid(context.Background(), "cs_missing", ""); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSaveFailureSurfaces(t *testing.T) {
	boom := errors.New("disk full")
	svc, err := NewService(failingRepo{saveErr: boom}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.RecordPending(context.Background(), pendingInput()); !errors.Is(err, boom) {
		t.Fatalf("expected save error, got %v", err)
	}
}
