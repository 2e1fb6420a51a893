package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/designcraft/designcraft-backend/pkg/enums"
	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Customization is how the design sits on the product.
type Customization struct {
	Position Position `json:"position"`
	Rotation float64  `json:"rotation"`
	Zoom     float64  `json:"zoom"`
}

// LineItem is one configured product in the cart. Quantity is always at least 1;
// an item whose quantity drops to zero is removed instead.
type LineItem struct {
	ID            string            `json:"id"`
	ProductID     string            `json:"productId"`
	VariantID     int               `json:"variantId"`
	ProductType   enums.ProductType `json:"type"`
	Name          string            `json:"name"`
	Image         string            `json:"image"`
	UnitPrice     decimal.Decimal   `json:"price"`
	Quantity      int               `json:"quantity"`
	Size          string            `json:"size,omitempty"`
	Color         string            `json:"color,omitempty"`
	Customization *Customization    `json:"customization,omitempty"`
}

// Subtotal is unit price times quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Candidate is a line item before the cart has assigned it an id and quantity.
type Candidate struct {
	ProductID     string
	VariantID     int
	ProductType   enums.ProductType
	Name          string
	Image         string
	UnitPrice     decimal.Decimal
	Size          string
	Color         string
	Customization *Customization
}

func (c Candidate) validate() error {
	details := map[string]string{}
	if strings.TrimSpace(c.ProductID) == "" {
		details["productId"] = "is required"
	}
	if c.UnitPrice.IsNegative() {
		details["price"] = "must not be negative"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart item").WithDetails(details)
	}
	return nil
}

// matches reports whether an existing item should absorb the candidate.
func (c Candidate) matches(item LineItem) bool {
	return item.ProductID == c.ProductID &&
		item.VariantID == c.VariantID &&
		customizationEqual(item.Customization, c.Customization)
}

func customizationEqual(a, b *Customization) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneCustomization(c *Customization) *Customization {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		item.Customization = cloneCustomization(item.Customization)
		out[i] = item
	}
	return out
}
