package orders

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/designcraft/designcraft-backend/pkg/enums"
	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
)

type Service interface {
	RecordPending(ctx context.Context, input PendingInput) (*Order, error)
	Get(ctx context.Context, sessionID string) (*Order, error)
	MarkPaid(ctx context.Context, sessionID, customerEmail string) (*Order, error)
	MarkSubmitted(ctx context.Context, sessionID string, fulfillmentOrderID int64) (*Order, error)
	MarkFailed(ctx context.Context, sessionID, reason string) (*Order, error)
}

type service struct {
	repo Repository
	now  func() time.Time
	// mu serializes read-modify-write cycles on order records.
	mu sync.Mutex
}

func NewService(repo Repository, clock func() time.Time) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: repo, now: clock}, nil
}

func (s *service) RecordPending(ctx context.Context, input PendingInput) (*Order, error) {
	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}

	total := decimal.Zero
	for _, item := range input.Items {
		total = total.Add(item.Subtotal())
	}
	now := s.now().UTC()
	order := &Order{
		SessionID:     sessionID,
		CartSessionID: input.CartSessionID,
		Items:         input.Items,
		Total:         total,
		Status:        enums.OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*Order, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	return s.repo.Find(ctx, sessionID)
}

// MarkPaid is idempotent: an order already paid or submitted is returned unchanged.
func (s *service) MarkPaid(ctx context.Context, sessionID, customerEmail string) (*Order, error) {
	return s.transition(ctx, sessionID, enums.OrderStatusPaid, func(o *Order) {
		if customerEmail != "" {
			o.CustomerEmail = customerEmail
		}
	})
}

func (s *service) MarkSubmitted(ctx context.Context, sessionID string, fulfillmentOrderID int64) (*Order, error) {
	if fulfillmentOrderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fulfillment order id required")
	}
	return s.transition(ctx, sessionID, enums.OrderStatusSubmitted, func(o *Order) {
		o.FulfillmentOrderID = fulfillmentOrderID
	})
}

func (s *service) MarkFailed(ctx context.Context, sessionID, reason string) (*Order, error) {
	return s.transition(ctx, sessionID, enums.OrderStatusFailed, func(o *Order) {
		o.FailureReason = reason
	})
}

func (s *service) transition(ctx context.Context, sessionID string, to enums.OrderStatus, apply func(*Order)) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.repo.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if order.Status == to || reached(order.Status, to) {
		return order, nil
	}
	if !canTransition(order.Status, to) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
			WithDetails(map[string]any{"from": order.Status.String(), "to": to.String()})
	}
	apply(order)
	order.Status = to
	order.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// reached reports whether current already lies past target on the happy path.
func reached(current, target enums.OrderStatus) bool {
	return target == enums.OrderStatusPaid && current == enums.OrderStatusSubmitted
}
