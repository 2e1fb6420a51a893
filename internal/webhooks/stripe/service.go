package stripewebhook

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/designcraft/designcraft-backend/internal/orders"
	"github.com/designcraft/designcraft-backend/internal/printful"
	"github.com/designcraft/designcraft-backend/pkg/enums"
	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
	"github.com/designcraft/designcraft-backend/pkg/logger"
)

type fulfillmentClient interface {
	CreateOrder(ctx context.Context, order printful.OrderRequest) (*printful.Order, error)
}

type keyChecker interface {
	HasKey(ctx context.Context) bool
}

type ServiceParams struct {
	Orders      orders.Service
	Fulfillment fulfillmentClient
	Keys        keyChecker
	Logger      *logger.Logger
}

// Service applies Stripe checkout events to recorded orders and hands paid
// orders to fulfillment.
type Service struct {
	orders      orders.Service
	fulfillment fulfillmentClient
	keys        keyChecker
	logg        *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service required")
	}
	return &Service{
		orders:      params.Orders,
		fulfillment: params.Fulfillment,
		keys:        params.Keys,
		logg:        params.Logger,
	}, nil
}

// HandleEvent returns an error only when Stripe should redeliver the event.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		cs, err := decodeSession(event)
		if err != nil {
			return err
		}
		return s.handlePaid(ctx, cs)
	case stripe.EventTypeCheckoutSessionExpired, stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		cs, err := decodeSession(event)
		if err != nil {
			return err
		}
		reason := "checkout session expired"
		if event.Type == stripe.EventTypeCheckoutSessionAsyncPaymentFailed {
			reason = "payment failed"
		}
		return s.ignoreMissing(ctx, cs.ID, s.markFailed(ctx, cs.ID, reason))
	default:
		return nil
	}
}

func decodeSession(event *stripe.Event) (*stripe.CheckoutSession, error) {
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
	}
	if cs.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}
	return &cs, nil
}

func (s *Service) handlePaid(ctx context.Context, cs *stripe.CheckoutSession) error {
	if cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		// async payment methods complete later with async_payment_succeeded
		return nil
	}

	var email string
	if cs.CustomerDetails != nil {
		email = cs.CustomerDetails.Email
	}
	order, err := s.orders.MarkPaid(ctx, cs.ID, email)
	if err != nil {
		return s.ignoreMissing(ctx, cs.ID, err)
	}
	if order.Status == enums.OrderStatusSubmitted {
		return nil
	}
	if s.fulfillment == nil || s.keys == nil || !s.keys.HasKey(ctx) {
		s.info(ctx, cs.ID, "stripe.webhook.fulfillment_skipped")
		return nil
	}

	req := buildFulfillmentOrder(cs, order)
	created, err := s.fulfillment.CreateOrder(ctx, req)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) || pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			_, markErr := s.orders.MarkFailed(ctx, cs.ID, err.Error())
			return markErr
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit fulfillment order")
	}
	if _, err := s.orders.MarkSubmitted(ctx, cs.ID, created.ID); err != nil {
		return err
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"checkout_session_id": cs.ID, "fulfillment_order_id": created.ID})
		s.logg.Info(ctx, "stripe.webhook.fulfillment_submitted")
	}
	return nil
}

func (s *Service) markFailed(ctx context.Context, sessionID, reason string) error {
	_, err := s.orders.MarkFailed(ctx, sessionID, reason)
	if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		// already submitted; nothing left to fail
		return nil
	}
	return err
}

// ignoreMissing acknowledges events for sessions this service never recorded.
func (s *Service) ignoreMissing(ctx context.Context, sessionID string, err error) error {
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return err
	}
	if s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "checkout_session_id", sessionID), "stripe.webhook.order_not_found")
	}
	return nil
}

func (s *Service) info(ctx context.Context, sessionID, msg string) {
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "checkout_session_id", sessionID), msg)
	}
}

func buildFulfillmentOrder(cs *stripe.CheckoutSession, order *orders.Order) printful.OrderRequest {
	req := printful.OrderRequest{ExternalID: cs.ID, Recipient: recipientFor(cs)}
	for _, item := range order.Items {
		line := printful.OrderItem{
			VariantID:   item.VariantID,
			Quantity:    item.Quantity,
			ExternalID:  item.ID,
			Name:        item.Name,
			RetailPrice: item.UnitPrice.StringFixed(2),
		}
		if item.Image != "" {
			line.Files = []printful.OrderFile{{Type: "default", URL: item.Image}}
		}
		req.Items = append(req.Items, line)
	}
	return req
}

// recipientFor ships to the collected shipping address and falls back to the
// billing details, which may hold no more than a country and postal code.
func recipientFor(cs *stripe.CheckoutSession) *printful.Recipient {
	var recipient *printful.Recipient
	var addr *stripe.Address
	if details := cs.CustomerDetails; details != nil {
		recipient = &printful.Recipient{Name: details.Name, Email: details.Email, Phone: details.Phone}
		addr = details.Address
	}
	if info := cs.CollectedInformation; info != nil && info.ShippingDetails != nil && info.ShippingDetails.Address != nil {
		if recipient == nil {
			recipient = &printful.Recipient{}
		}
		if info.ShippingDetails.Name != "" {
			recipient.Name = info.ShippingDetails.Name
		}
		addr = info.ShippingDetails.Address
	}
	if recipient == nil {
		return nil
	}
	if addr != nil {
		recipient.Address1 = addr.Line1
		recipient.Address2 = addr.Line2
		recipient.City = addr.City
		recipient.StateCode = addr.State
		recipient.CountryCode = strings.ToUpper(addr.Country)
		recipient.Zip = addr.PostalCode
	}
	return recipient
}
