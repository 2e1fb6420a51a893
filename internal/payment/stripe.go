package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"

	"github.com/designcraft/designcraft-backend/internal/cart"
	"github.com/designcraft/designcraft-backend/pkg/config"
	"github.com/designcraft/designcraft-backend/pkg/logger"
	pkgstripe "github.com/designcraft/designcraft-backend/pkg/stripe"
)

// ErrProviderUnreachable marks failures where the payment provider could not be
// initialized or reached at all.
var ErrProviderUnreachable = errors.New("payment provider unreachable")

// MetadataSessionKey carries the cart session id on the Stripe checkout session.
const MetadataSessionKey = "cart_session_id"

// Session is the provider's checkout session.
type Session struct {
	ID  string `json:"sessionId"`
	URL string `json:"url,omitempty"`
}

// SessionRequest is everything needed to open a checkout session for a cart.
type SessionRequest struct {
	CartSessionID string
	Items         []cart.LineItem
}

// SessionCreator matches checkout/session.New so tests can swap the network call.
type SessionCreator func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)

type StripeGatewayParams struct {
	Client        *pkgstripe.Client
	Config        config.StripeConfig
	Logger        *logger.Logger
	CreateSession SessionCreator
}

// StripeGateway opens hosted Stripe Checkout sessions.
type StripeGateway struct {
	client *pkgstripe.Client
	cfg    config.StripeConfig
	logg   *logger.Logger
	create SessionCreator
}

// NewStripeGateway builds a gateway. A nil client is accepted: the gateway then
// fails Init with ErrProviderUnreachable so checkout latches as blocked.
func NewStripeGateway(params StripeGatewayParams) *StripeGateway {
	create := params.CreateSession
	if create == nil {
		create = session.New
	}
	return &StripeGateway{
		client: params.Client,
		cfg:    params.Config,
		logg:   params.Logger,
		create: create,
	}
}

// Init confirms the provider client is usable.
func (g *StripeGateway) Init(ctx context.Context) error {
	if g == nil || g.client == nil {
		return fmt.Errorf("stripe failed to initialize: %w", ErrProviderUnreachable)
	}
	if strings.TrimSpace(g.cfg.SuccessURL) == "" || strings.TrimSpace(g.cfg.CancelURL) == "" {
		return fmt.Errorf("stripe redirect urls not configured: %w", ErrProviderUnreachable)
	}
	return nil
}

// CreateSession opens a payment-mode checkout session for the cart contents.
func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	if len(req.Items) == 0 {
		return Session{}, errors.New("checkout session requires at least one item")
	}
	params := g.sessionParams(req)
	params.Context = ctx

	created, err := g.create(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && g.logg != nil {
			ctx = g.logg.WithFields(ctx, map[string]any{
				"stripe_code":   string(stripeErr.Code),
				"stripe_status": stripeErr.HTTPStatusCode,
			})
			g.logg.Warn(ctx, "payment.session.rejected")
		}
		return Session{}, fmt.Errorf("create checkout session: %w", err)
	}
	if created == nil || created.ID == "" {
		return Session{}, errors.New("create checkout session: empty response")
	}
	return Session{ID: created.ID, URL: created.URL}, nil
}

// Redirect returns the hosted page URL the browser must be sent to.
func (g *StripeGateway) Redirect(ctx context.Context, s Session) (string, error) {
	if s.ID == "" {
		return "", errors.New("redirect requires a checkout session id")
	}
	if s.URL == "" {
		return "", fmt.Errorf("checkout session %s has no redirect url", s.ID)
	}
	return s.URL, nil
}

func (g *StripeGateway) sessionParams(req SessionRequest) *stripe.CheckoutSessionParams {
	currency := strings.ToLower(strings.TrimSpace(g.cfg.Currency))
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(displayName(item)),
			Metadata: map[string]string{
				"product_id":   item.ProductID,
				"variant_id":   strconv.Itoa(item.VariantID),
				"line_item_id": item.ID,
			},
		}
		if isRemoteImage(item.Image) {
			product.Images = stripe.StringSlice([]string{item.Image})
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				UnitAmount:  stripe.Int64(MinorUnits(item.UnitPrice)),
				ProductData: product,
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(g.cfg.SuccessURL),
		CancelURL:  stripe.String(g.cfg.CancelURL),
		LineItems:  lineItems,
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice([]string{"US", "CA", "GB"}),
		},
	}
	if req.CartSessionID != "" {
		params.ClientReferenceID = stripe.String(req.CartSessionID)
		params.Metadata = map[string]string{MetadataSessionKey: req.CartSessionID}
	}
	return params
}

// MinorUnits converts a decimal amount to cents, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func displayName(item cart.LineItem) string {
	var extras []string
	if item.Size != "" {
		extras = append(extras, item.Size)
	}
	if item.Color != "" {
		extras = append(extras, item.Color)
	}
	if len(extras) == 0 {
		return item.Name
	}
	return fmt.Sprintf("%s (%s)", item.Name, strings.Join(extras, ", "))
}

func isRemoteImage(ref string) bool {
	return strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://")
}

// IsProviderRejection reports whether err is an API response from Stripe, as
// opposed to a failure to reach it.
func IsProviderRejection(err error) bool {
	var stripeErr *stripe.Error
	return errors.As(err, &stripeErr)
}
