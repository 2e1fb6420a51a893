package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/designcraft/designcraft-backend/internal/cart"
	"github.com/designcraft/designcraft-backend/internal/orders"
	"github.com/designcraft/designcraft-backend/internal/payment"
	"github.com/designcraft/designcraft-backend/pkg/enums"
	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
	"github.com/designcraft/designcraft-backend/pkg/logger"
	"github.com/designcraft/designcraft-backend/pkg/metrics"
)

// User-facing messages.
const (
	EmptyCartMessage = "Your cart is empty"
	BlockedMessage   = "Stripe resources are being blocked. Please disable your ad blocker or try a different browser."
	GenericMessage   = "Failed to process checkout. Please try again."
	InFlightMessage  = "Checkout is already in progress"
)

// Gateway is the external payment subsystem.
type Gateway interface {
	Init(ctx context.Context) error
	CreateSession(ctx context.Context, req payment.SessionRequest) (payment.Session, error)
	Redirect(ctx context.Context, session payment.Session) (string, error)
}

type orderRecorder interface {
	RecordPending(ctx context.Context, input orders.PendingInput) (*orders.Order, error)
}

type Params struct {
	SessionID      string
	Cart           *cart.Store
	Gateway        Gateway
	Orders         orderRecorder
	Metrics        *metrics.CheckoutMetrics
	Logger         *logger.Logger
	ProviderDomain string
}

// Result is a completed checkout: the browser must be sent to RedirectURL.
type Result struct {
	Status      enums.CheckoutStatus `json:"status"`
	OrderID     string               `json:"orderId"`
	RedirectURL string               `json:"redirectUrl"`
}

// State is the coordinator's view for clients.
type State struct {
	Status      enums.CheckoutStatus `json:"status"`
	Blocked     bool                 `json:"blocked"`
	Message     string               `json:"message,omitempty"`
	LastOrderID string               `json:"lastOrderId,omitempty"`
	ItemCount   int                  `json:"itemCount"`
}

// Coordinator drives one cart through idle, processing, success and error.
// The status itself lives on the cart store; the coordinator owns the sticky
// blocked latch and the last message shown to the user.
type Coordinator struct {
	sessionID string
	cart      *cart.Store
	gateway   Gateway
	orders    orderRecorder
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	domain    string

	mu      sync.Mutex
	blocked bool
	message string
}

func NewCoordinator(params Params) (*Coordinator, error) {
	if params.Cart == nil {
		return nil, errors.New("cart store required")
	}
	if params.Gateway == nil {
		return nil, errors.New("payment gateway required")
	}
	return &Coordinator{
		sessionID: params.SessionID,
		cart:      params.Cart,
		gateway:   params.Gateway,
		orders:    params.Orders,
		metrics:   params.Metrics,
		logg:      params.Logger,
		domain:    params.ProviderDomain,
	}, nil
}

// Preflight initializes the payment client. A failure latches the blocked flag.
func (c *Coordinator) Preflight(ctx context.Context) error {
	if err := c.gateway.Init(ctx); err != nil {
		c.latch(ctx, err)
		return pkgerrors.Wrap(pkgerrors.CodePaymentBlocked, err, BlockedMessage)
	}
	return nil
}

// ReportError feeds the global error channel. It reports whether the text
// latched the blocked flag.
func (c *Coordinator) ReportError(ctx context.Context, text string) bool {
	if ClassifyReport(text, c.domain) != enums.FailureKindBlocked {
		return false
	}
	c.latch(ctx, errors.New(text))
	return true
}

func (c *Coordinator) Blocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocked
}

// ClearBlocked resets the latch once the user has removed the blocking cause.
func (c *Coordinator) ClearBlocked() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocked = false
	if c.message == BlockedMessage {
		c.message = ""
	}
}

func (c *Coordinator) State() State {
	snap := c.cart.Snapshot()
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Status:      snap.Status,
		Blocked:     c.blocked,
		Message:     c.message,
		LastOrderID: snap.LastOrderID,
		ItemCount:   snap.TotalItems,
	}
}

// Checkout runs one attempt. Rejections (in flight, empty cart, blocked) leave
// the status untouched and make no network call.
func (c *Coordinator) Checkout(ctx context.Context) (*Result, error) {
	current := c.cart.CheckoutStatus()
	if current == enums.CheckoutStatusProcessing {
		c.metrics.IncAttempt(metrics.OutcomeRejectedInFlight)
		return nil, pkgerrors.New(pkgerrors.CodeConflict, InFlightMessage)
	}

	items := c.cart.Items()
	if len(items) == 0 {
		c.setMessage(EmptyCartMessage)
		c.metrics.IncAttempt(metrics.OutcomeRejectedEmpty)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, EmptyCartMessage)
	}

	if c.Blocked() {
		c.setMessage(BlockedMessage)
		c.metrics.IncAttempt(metrics.OutcomeRejectedBlocked)
		return nil, pkgerrors.New(pkgerrors.CodePaymentBlocked, BlockedMessage)
	}
	if err := c.Preflight(ctx); err != nil {
		c.setMessage(BlockedMessage)
		c.metrics.IncAttempt(metrics.OutcomeRejectedBlocked)
		return nil, err
	}

	if !c.cart.TransitionCheckoutStatus(current, enums.CheckoutStatusProcessing) {
		c.metrics.IncAttempt(metrics.OutcomeRejectedInFlight)
		return nil, pkgerrors.New(pkgerrors.CodeConflict, InFlightMessage)
	}
	c.setMessage("")

	session, err := c.gateway.CreateSession(ctx, payment.SessionRequest{CartSessionID: c.sessionID, Items: items})
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	redirectURL, err := c.gateway.Redirect(ctx, session)
	if err != nil {
		return nil, c.fail(ctx, err)
	}

	c.cart.SetLastOrderID(session.ID)
	c.cart.SetCheckoutStatus(enums.CheckoutStatusSuccess)
	c.cart.ClearCart(ctx)
	c.recordPending(ctx, session.ID, items)
	c.metrics.IncAttempt(metrics.OutcomeSuccess)

	if c.logg != nil {
		c.logg.Info(c.logg.WithField(ctx, "checkout_session_id", session.ID), "checkout.session.created")
	}
	return &Result{Status: enums.CheckoutStatusSuccess, OrderID: session.ID, RedirectURL: redirectURL}, nil
}

// Cancel returns to idle. It is refused while an attempt is in flight.
func (c *Coordinator) Cancel(ctx context.Context) error {
	if !c.cart.TransitionCheckoutStatus(enums.CheckoutStatusSuccess, enums.CheckoutStatusIdle) &&
		!c.cart.TransitionCheckoutStatus(enums.CheckoutStatusError, enums.CheckoutStatusIdle) &&
		c.cart.CheckoutStatus() != enums.CheckoutStatusIdle {
		return pkgerrors.New(pkgerrors.CodeConflict, InFlightMessage)
	}
	c.mu.Lock()
	if c.message != BlockedMessage {
		c.message = ""
	}
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) fail(ctx context.Context, cause error) error {
	kind := ClassifyFailure(cause, c.domain)
	c.cart.SetCheckoutStatus(enums.CheckoutStatusError)

	if c.logg != nil {
		c.logg.Error(c.logg.WithField(ctx, "failure_kind", kind.String()), "checkout.failed", cause)
	}
	if kind == enums.FailureKindBlocked {
		c.latch(ctx, cause)
		c.setMessage(BlockedMessage)
		c.metrics.IncAttempt(metrics.OutcomeErrorBlocked)
		return pkgerrors.Wrap(pkgerrors.CodePaymentBlocked, cause, BlockedMessage)
	}
	c.setMessage(GenericMessage)
	c.metrics.IncAttempt(metrics.OutcomeErrorGeneric)
	return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, GenericMessage)
}

func (c *Coordinator) latch(ctx context.Context, cause error) {
	c.mu.Lock()
	already := c.blocked
	c.blocked = true
	c.message = BlockedMessage
	c.mu.Unlock()
	if already {
		return
	}
	c.metrics.IncBlocked()
	if c.logg != nil {
		ctx = c.logg.WithField(ctx, "cause", cause.Error())
		c.logg.Warn(ctx, "checkout.payment_blocked")
	}
}

func (c *Coordinator) recordPending(ctx context.Context, sessionID string, items []cart.LineItem) {
	if c.orders == nil {
		return
	}
	_, err := c.orders.RecordPending(ctx, orders.PendingInput{
		SessionID:     sessionID,
		CartSessionID: c.sessionID,
		Items:         items,
	})
	if err != nil && c.logg != nil {
		c.logg.Error(c.logg.WithField(ctx, "checkout_session_id", sessionID), "checkout.order.record_failed", err)
	}
}

func (c *Coordinator) setMessage(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message = msg
}
