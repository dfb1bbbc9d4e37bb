package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ahtisham774/spectech-backend/api/routes"
	"github.com/ahtisham774/spectech-backend/internal/bookmarks"
	"github.com/ahtisham774/spectech-backend/internal/businesses"
	"github.com/ahtisham774/spectech-backend/internal/follows"
	"github.com/ahtisham774/spectech-backend/internal/notifications"
	"github.com/ahtisham774/spectech-backend/internal/orders"
	"github.com/ahtisham774/spectech-backend/internal/payments"
	"github.com/ahtisham774/spectech-backend/internal/products"
	"github.com/ahtisham774/spectech-backend/internal/reviews"
	"github.com/ahtisham774/spectech-backend/internal/users"
	stripewebhook "github.com/ahtisham774/spectech-backend/internal/webhooks/stripe"
	"github.com/ahtisham774/spectech-backend/pkg/config"
	"github.com/ahtisham774/spectech-backend/pkg/db"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
	"github.com/ahtisham774/spectech-backend/pkg/metrics"
	"github.com/ahtisham774/spectech-backend/pkg/migrate"
	"github.com/ahtisham774/spectech-backend/pkg/outbox"
	"github.com/ahtisham774/spectech-backend/pkg/pubsub"
	"github.com/ahtisham774/spectech-backend/pkg/redis"
	pkgstripe "github.com/ahtisham774/spectech-backend/pkg/stripe"
)

const shutdownGrace = 15 * time.Second

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var pubsubClient *pubsub.Client
	if strings.TrimSpace(cfg.GCP.ProjectID) != "" {
		pubsubClient, err = pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub client", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "pubsub disabled: no gcp project configured")
	}

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	gormDB := dbClient.DB()
	businessRepo := businesses.NewRepository(gormDB)
	userRepo := users.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	paymentRepo := payments.NewRepository(gormDB)
	notificationRepo := notifications.NewRepository(gormDB)
	productRepo := products.NewRepository(gormDB)
	followRepo := follows.NewRepository(gormDB)
	bookmarkRepo := bookmarks.NewRepository(gormDB)
	reviewRepo := reviews.NewRepository(gormDB)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	notificationService, err := notifications.NewService(notifications.ServiceParams{
		Repo:   notificationRepo,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:    orderRepo,
		Logger:  logg,
		Listing: cfg.Listing,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	businessService, err := businesses.NewService(businesses.ServiceParams{
		Repo:     businessRepo,
		Tx:       dbClient,
		Notifier: notificationService,
		Outbox:   outboxService,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create business service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		Repo:         paymentRepo,
		BusinessRepo: businessRepo,
		UserRepo:     userRepo,
		Orders:       orderService,
		Notifier:     notificationService,
		Outbox:       outboxService,
		Gateway:      payments.NewGateway(stripeClient, paymentMetrics),
		Locker:       redis.NewLocker(redisClient),
		TxRunner:     dbClient,
		Logger:       logg,
		Metrics:      paymentMetrics,
		Listing:      cfg.Listing,
		LockTTL:      cfg.Stripe.IntentLockTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(products.ServiceParams{
		Repo:       productRepo,
		Businesses: businessRepo,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	followService, err := follows.NewService(follows.ServiceParams{
		Repo:       followRepo,
		Businesses: businessRepo,
		Users:      userRepo,
		Notifier:   notificationService,
		Tx:         dbClient,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create follow service", err)
		os.Exit(1)
	}

	bookmarkService, err := bookmarks.NewService(bookmarks.ServiceParams{
		Repo:       bookmarkRepo,
		Businesses: businessRepo,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create bookmark service", err)
		os.Exit(1)
	}

	reviewService, err := reviews.NewService(reviews.ServiceParams{
		Repo:       reviewRepo,
		Businesses: businessRepo,
		Users:      userRepo,
		Notifier:   notificationService,
		Outbox:     outboxService,
		Tx:         dbClient,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create review service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Payments: paymentService,
		Logger:   logg,
		Metrics:  paymentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.EventGuardTTL, "stripe_event")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	var brokerPinger interface{ Ping(context.Context) error }
	if pubsubClient != nil {
		brokerPinger = pubsubClient
	}

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			brokerPinger,
			registry,
			paymentService,
			orderService,
			businessService,
			productService,
			followService,
			bookmarkService,
			reviewService,
			notificationService,
			stripeClient,
			webhookService,
			webhookGuard,
		),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error during server shutdown", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}
