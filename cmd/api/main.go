package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/designcraft/designcraft-backend/api/routes"
	"github.com/designcraft/designcraft-backend/internal/fit"
	"github.com/designcraft/designcraft-backend/internal/orders"
	"github.com/designcraft/designcraft-backend/internal/payment"
	"github.com/designcraft/designcraft-backend/internal/printful"
	"github.com/designcraft/designcraft-backend/internal/session"
	stripewebhook "github.com/designcraft/designcraft-backend/internal/webhooks/stripe"
	"github.com/designcraft/designcraft-backend/pkg/config"
	"github.com/designcraft/designcraft-backend/pkg/instance"
	"github.com/designcraft/designcraft-backend/pkg/logger"
	"github.com/designcraft/designcraft-backend/pkg/metrics"
	"github.com/designcraft/designcraft-backend/pkg/storage"
	"github.com/designcraft/designcraft-backend/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap storage", err)
		os.Exit(1)
	}

	// Checkout still runs without Stripe; every attempt then latches as blocked.
	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "stripe client unavailable, checkout disabled")
		stripeClient = nil
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)
	clientMetrics := metrics.NewClientMetrics(registry)

	keys, err := printful.NewKeyStore(store.KV, cfg.Printful.APIKey)
	requireResource(ctx, logg, "printful key store", err, store)
	printfulClient, err := printful.NewClient(printful.ClientParams{
		Config:  cfg.Printful,
		Keys:    keys,
		Metrics: clientMetrics,
		Logger:  logg,
	})
	requireResource(ctx, logg, "printful client", err, store)
	mockups, err := printful.NewMockups(printfulClient, keys)
	requireResource(ctx, logg, "mockup service", err, store)

	orderService, err := orders.NewService(orders.NewRepository(store.KV), time.Now)
	requireResource(ctx, logg, "orders service", err, store)

	sessions, err := session.NewRegistry(session.RegistryParams{
		KV: store.KV,
		Gateway: payment.NewStripeGateway(payment.StripeGatewayParams{
			Client: stripeClient,
			Config: cfg.Stripe,
			Logger: logg,
		}),
		Orders:         orderService,
		Metrics:        checkoutMetrics,
		Logger:         logg,
		ProviderDomain: cfg.Stripe.ProviderDomain,
		MaxSessions:    cfg.Session.MaxSessions,
		IdleTTL:        cfg.Session.IdleTTL,
	})
	requireResource(ctx, logg, "session registry", err, store)

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Orders:      orderService,
		Fulfillment: printfulClient,
		Keys:        keys,
		Logger:      logg,
	})
	requireResource(ctx, logg, "stripe webhook service", err, store)
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(store.Idempotency, cfg.Eventing.WebhookIdempotencyTTL, stripewebhook.DefaultScope)
	requireResource(ctx, logg, "stripe webhook guard", err, store)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			Storage:              store,
			RateLimits:           store.RateLimits,
			Metrics:              registry,
			Sessions:             sessions,
			Fixer:                fit.NewDelayFixer(cfg.Fit.FixDelay, logg),
			Fulfillment:          printfulClient,
			Keys:                 keys,
			Mockups:              mockups,
			Orders:               orderService,
			StripeClient:         stripeClient,
			StripeWebhookService: webhookService,
			StripeWebhookGuard:   webhookGuard,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			_ = store.Close()
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := multierr.Append(server.Shutdown(shutdownCtx), store.Close()); err != nil {
		logg.Error(logCtx, "unclean shutdown", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error, store *storage.Handle) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "resource", resource), "resource not working", err)
	if closeErr := store.Close(); closeErr != nil {
		logg.Error(ctx, "error closing storage", closeErr)
	}
	os.Exit(1)
}
