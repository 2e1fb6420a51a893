package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/designcraft/designcraft-backend/api/controllers"
	ordercontrollers "github.com/designcraft/designcraft-backend/api/controllers/orders"
	webhookcontrollers "github.com/designcraft/designcraft-backend/api/controllers/webhooks"
	"github.com/designcraft/designcraft-backend/api/middleware"
	"github.com/designcraft/designcraft-backend/internal/fit"
	"github.com/designcraft/designcraft-backend/internal/orders"
	stripewebhook "github.com/designcraft/designcraft-backend/internal/webhooks/stripe"
	"github.com/designcraft/designcraft-backend/pkg/config"
	"github.com/designcraft/designcraft-backend/pkg/logger"
	"github.com/designcraft/designcraft-backend/pkg/storage"
	"github.com/designcraft/designcraft-backend/pkg/stripe"
)

// Deps is everything the HTTP surface is wired to. Nil services make their
// routes answer 500 instead of panicking.
type Deps struct {
	Storage     storage.Pinger
	RateLimits  storage.Counter
	Metrics     *prometheus.Registry
	Sessions    controllers.SessionResolver
	Fixer       fit.Fixer
	Fulfillment controllers.FulfillmentAPI
	Keys        controllers.KeyManager
	Mockups     controllers.MockupCreator
	Orders      orders.Service

	StripeClient         *stripe.Client
	StripeWebhookService *stripewebhook.Service
	StripeWebhookGuard   *stripewebhook.IdempotencyGuard
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.Window,
		cfg.RateLimit.CheckoutLimit,
		cfg.RateLimit.CheckoutLimit,
	)
	keyPolicy := middleware.NewRateLimitPolicy(
		"fulfillment_key",
		cfg.RateLimit.Window,
		cfg.RateLimit.KeyLimit,
		cfg.RateLimit.KeyLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Storage, logg))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", stripeWebhookHandler(deps, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog/products", func(r chi.Router) {
			r.Get("/", controllers.CatalogProducts())
			r.Get("/{product}", controllers.CatalogProduct(logg))
			r.Get("/{product}/variants", controllers.CatalogVariants(logg))
		})

		r.Route("/designs", func(r chi.Router) {
			r.Post("/fit", controllers.DesignFit(logg))
			r.Post("/fix", controllers.DesignFix(deps.Fixer, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(deps.Sessions, logg))
				r.Delete("/", controllers.CartClear(deps.Sessions, logg))
				r.Put("/open", controllers.CartSetOpen(deps.Sessions, logg))
				r.Post("/items", controllers.CartAddItem(deps.Sessions, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(deps.Sessions, logg))
				r.Patch("/items/{itemId}/quantity", controllers.CartUpdateQuantity(deps.Sessions, logg))
				r.Put("/items/{itemId}/customization", controllers.CartUpdateCustomization(deps.Sessions, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", controllers.CheckoutState(deps.Sessions, logg))
				r.With(middleware.RateLimit(checkoutPolicy, deps.RateLimits, logg)).Post("/", controllers.CheckoutStart(deps.Sessions, logg))
				r.Post("/cancel", controllers.CheckoutCancel(deps.Sessions, logg))
				r.Post("/errors", controllers.CheckoutReportError(deps.Sessions, logg))
				r.Delete("/blocked", controllers.CheckoutClearBlocked(deps.Sessions, logg))
			})

			r.Route("/fulfillment", func(r chi.Router) {
				r.Get("/key", controllers.FulfillmentKeyStatus(deps.Keys, logg))
				r.With(middleware.RateLimit(keyPolicy, deps.RateLimits, logg)).Put("/key", controllers.FulfillmentKeySet(deps.Keys, deps.Fulfillment, logg))
				r.Delete("/key", controllers.FulfillmentKeyClear(deps.Keys, logg))
				r.Get("/categories", controllers.FulfillmentCategories(deps.Fulfillment, logg))
				r.Get("/categories/{categoryId}/products", controllers.FulfillmentCategoryProducts(deps.Fulfillment, logg))
				r.Get("/store", controllers.FulfillmentStore(deps.Fulfillment, logg))
				r.Get("/products/{productId}", controllers.FulfillmentProduct(deps.Fulfillment, logg))
				r.Get("/products/{productId}/print-files", controllers.FulfillmentPrintFiles(deps.Fulfillment, logg))
				r.Get("/variants/{variantId}", controllers.FulfillmentVariant(deps.Fulfillment, logg))
				r.Post("/mockups", controllers.FulfillmentCreateMockups(deps.Mockups, logg))
				r.Get("/mockups/{taskKey}", controllers.FulfillmentMockupTask(deps.Fulfillment, logg))
				r.Post("/files", controllers.FulfillmentUploadFile(deps.Fulfillment, logg))
				r.Post("/files/url", controllers.FulfillmentAddFileByURL(deps.Fulfillment, logg))
				r.Post("/orders/estimate", controllers.FulfillmentEstimateOrder(deps.Fulfillment, logg))
				r.Get("/orders/{orderId}", controllers.FulfillmentOrder(deps.Fulfillment, controllers.OrderActionGet, logg))
				r.Post("/orders/{orderId}/confirm", controllers.FulfillmentOrder(deps.Fulfillment, controllers.OrderActionConfirm, logg))
				r.Delete("/orders/{orderId}", controllers.FulfillmentOrder(deps.Fulfillment, controllers.OrderActionCancel, logg))
				r.Post("/shipping-rates", controllers.FulfillmentShippingRates(deps.Fulfillment, logg))
			})

			r.Get("/orders/{sessionId}", ordercontrollers.Get(deps.Orders, logg))
		})
	})

	return r
}

// stripeWebhookHandler keeps typed nil pointers out of the handler's
// interface parameters so its nil checks still fire.
func stripeWebhookHandler(deps Deps, logg *logger.Logger) http.HandlerFunc {
	var (
		svc    webhookcontrollers.StripeWebhookService
		client interface{ SigningSecret() string }
		guard  interface {
			CheckAndMark(ctx context.Context, eventID string) (bool, error)
			Delete(ctx context.Context, eventID string) error
		}
	)
	if deps.StripeWebhookService != nil {
		svc = deps.StripeWebhookService
	}
	if deps.StripeClient != nil {
		client = deps.StripeClient
	}
	if deps.StripeWebhookGuard != nil {
		guard = deps.StripeWebhookGuard
	}
	return webhookcontrollers.StripeWebhook(svc, client, guard, logg)
}
