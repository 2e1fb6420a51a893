package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/designcraft/designcraft-backend/internal/cart"
	"github.com/designcraft/designcraft-backend/pkg/enums"
)

// KeyPrefix namespaces order records in the KV store.
const KeyPrefix = "designcraft-order:"

// Order is the record kept for a payment session from creation until the
// design is handed to fulfillment.
type Order struct {
	SessionID          string            `json:"sessionId"`
	CartSessionID      string            `json:"cartSessionId,omitempty"`
	Items              []cart.LineItem   `json:"items"`
	Total              decimal.Decimal   `json:"total"`
	Status             enums.OrderStatus `json:"status"`
	CustomerEmail      string            `json:"customerEmail,omitempty"`
	FulfillmentOrderID int64             `json:"fulfillmentOrderId,omitempty"`
	FailureReason      string            `json:"failureReason,omitempty"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

// PendingInput describes a freshly created payment session.
type PendingInput struct {
	SessionID     string
	CartSessionID string
	Items         []cart.LineItem
}

func canTransition(from, to enums.OrderStatus) bool {
	switch from {
	case enums.OrderStatusPending:
		return to == enums.OrderStatusPaid || to == enums.OrderStatusFailed
	case enums.OrderStatusPaid:
		return to == enums.OrderStatusSubmitted || to == enums.OrderStatusFailed
	default:
		return false
	}
}
