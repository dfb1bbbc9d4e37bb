package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ahtisham774/spectech-backend/internal/businesses"
	"github.com/ahtisham774/spectech-backend/internal/cron"
	"github.com/ahtisham774/spectech-backend/internal/notifications"
	"github.com/ahtisham774/spectech-backend/internal/orders"
	"github.com/ahtisham774/spectech-backend/internal/payments"
	"github.com/ahtisham774/spectech-backend/internal/users"
	"github.com/ahtisham774/spectech-backend/pkg/config"
	"github.com/ahtisham774/spectech-backend/pkg/db"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
	"github.com/ahtisham774/spectech-backend/pkg/metrics"
	"github.com/ahtisham774/spectech-backend/pkg/migrate"
	"github.com/ahtisham774/spectech-backend/pkg/outbox"
	"github.com/ahtisham774/spectech-backend/pkg/redis"
	pkgstripe "github.com/ahtisham774/spectech-backend/pkg/stripe"
)

const lockKeyFormat = "st:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})
	if err := run(logg); err != nil {
		logg.Error(context.Background(), "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(logg *logger.Logger) error {
	bootCtx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(bootCtx, ".env file not found, relying on environment")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing redis", err)
		}
	}()

	stripeClient, err := pkgstripe.NewClient(bootCtx, cfg.Stripe, logg)
	if err != nil {
		return err
	}

	service, err := buildService(cfg, logg, dbClient, redisClient, stripeClient)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
	return nil
}

// buildService wires the three scheduled jobs behind the shared Redis lock.
func buildService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, stripeClient *pkgstripe.Client) (*cron.Service, error) {
	gormDB := dbClient.DB()
	notificationRepo := notifications.NewRepository(gormDB)
	outboxRepo := outbox.NewRepository(gormDB)
	paymentMetrics := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)

	notificationService, err := notifications.NewService(notifications.ServiceParams{
		Repo:   notificationRepo,
		Logger: logg,
	})
	if err != nil {
		return nil, err
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:    orders.NewRepository(gormDB),
		Logger:  logg,
		Listing: cfg.Listing,
	})
	if err != nil {
		return nil, err
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		Repo:         payments.NewRepository(gormDB),
		BusinessRepo: businesses.NewRepository(gormDB),
		UserRepo:     users.NewRepository(gormDB),
		Orders:       orderService,
		Notifier:     notificationService,
		Outbox:       outbox.NewService(outboxRepo, logg),
		Gateway:      payments.NewGateway(stripeClient, paymentMetrics),
		Locker:       redis.NewLocker(redisClient),
		TxRunner:     dbClient,
		Logger:       logg,
		Metrics:      paymentMetrics,
		Listing:      cfg.Listing,
		LockTTL:      cfg.Stripe.IntentLockTTL,
	})
	if err != nil {
		return nil, err
	}

	reconcileJob, err := cron.NewPaymentReconcileJob(cron.PaymentReconcileJobParams{
		Logger:   logg,
		Payments: paymentService,
		MaxAge:   cfg.Cron.PaymentReconcileMaxAge,
		Limit:    cfg.Cron.PaymentReconcileLimit,
	})
	if err != nil {
		return nil, err
	}
	notificationCleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: notificationRepo,
		Retention:  cfg.Cron.NotificationRetentionDays,
	})
	if err != nil {
		return nil, err
	}
	outboxRetentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
		Retention:  cfg.Cron.OutboxRetentionDays,
	})
	if err != nil {
		return nil, err
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		return nil, err
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(reconcileJob, notificationCleanupJob, outboxRetentionJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
