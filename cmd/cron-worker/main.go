package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aaracollective/storefront-backend/internal/catalog"
	"github.com/aaracollective/storefront-backend/internal/coupons"
	"github.com/aaracollective/storefront-backend/internal/cron"
	"github.com/aaracollective/storefront-backend/internal/customers"
	"github.com/aaracollective/storefront-backend/internal/inventory"
	"github.com/aaracollective/storefront-backend/internal/orders"
	"github.com/aaracollective/storefront-backend/pkg/config"
	"github.com/aaracollective/storefront-backend/pkg/db"
	"github.com/aaracollective/storefront-backend/pkg/instance"
	"github.com/aaracollective/storefront-backend/pkg/logger"
	"github.com/aaracollective/storefront-backend/pkg/metrics"
	"github.com/aaracollective/storefront-backend/pkg/migrate"
	"github.com/aaracollective/storefront-backend/pkg/outbox"
	"github.com/aaracollective/storefront-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run every job a single time and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg, *once); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, once bool) error {
	dbClient, err := db.Connect(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()
	orderRepo := orders.NewRepository(conn)
	inventoryRepo := inventory.NewRepository(conn)
	outboxRepo := outbox.NewRepository(conn)
	emitter := outbox.NewService(outboxRepo, logg)

	manager, err := orders.NewManager(orders.ManagerDeps{
		Orders:    orderRepo,
		Catalog:   catalog.NewRepository(conn),
		Coupons:   coupons.NewRepository(conn),
		Customers: customers.NewRepository(conn),
		Inventory: inventoryRepo,
		Outbox:    emitter,
	})
	if err != nil {
		return err
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:      orderRepo,
		DB:        dbClient,
		Manager:   manager,
		Inventory: inventoryRepo,
		Outbox:    emitter,
		Logger:    logg,
		Currency:  cfg.Stripe.Currency,
	})
	if err != nil {
		return err
	}

	expiryJob, err := cron.NewReservationExpiryJob(cron.ReservationExpiryJobParams{
		Logger: logg,
		Holds:  inventoryRepo,
		Orders: orderService,
	})
	if err != nil {
		return err
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
	})
	if err != nil {
		return err
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cron.LockName), 0)
	if err != nil {
		return err
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(expiryJob, retentionJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.ID(),
	})
	if once {
		logg.Info(ctx, "running cron jobs once")
		return service.RunOnce(ctx)
	}
	logg.Info(ctx, "starting cron worker")
	return service.Run(ctx)
}
