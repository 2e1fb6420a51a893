package enums

import "fmt"

// OrderStatus tracks a checkout session from creation through fulfillment submission.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusSubmitted OrderStatus = "submitted"
	OrderStatusFailed    OrderStatus = "failed"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusSubmitted,
	OrderStatusFailed,
}

// String implements fmt.Stringer.
func (v OrderStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known OrderStatus.
func (v OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into a OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
