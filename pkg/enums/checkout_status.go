package enums

import "fmt"

// CheckoutStatus tracks where a cart is in the hosted payment flow.
type CheckoutStatus string

const (
	CheckoutStatusIdle       CheckoutStatus = "idle"
	CheckoutStatusProcessing CheckoutStatus = "processing"
	CheckoutStatusSuccess    CheckoutStatus = "success"
	CheckoutStatusError      CheckoutStatus = "error"
)

var validCheckoutStatuses = []CheckoutStatus{
	CheckoutStatusIdle,
	CheckoutStatusProcessing,
	CheckoutStatusSuccess,
	CheckoutStatusError,
}

// String implements fmt.Stringer.
func (v CheckoutStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CheckoutStatus.
func (v CheckoutStatus) IsValid() bool {
	for _, candidate := range validCheckoutStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseCheckoutStatus converts raw input into a CheckoutStatus.
func ParseCheckoutStatus(value string) (CheckoutStatus, error) {
	for _, candidate := range validCheckoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout status %q", value)
}
