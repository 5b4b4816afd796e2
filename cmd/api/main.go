package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aaracollective/storefront-backend/api"
	webhookcontrollers "github.com/aaracollective/storefront-backend/api/controllers/webhooks"
	"github.com/aaracollective/storefront-backend/api/middleware"
	"github.com/aaracollective/storefront-backend/api/routes"
	"github.com/aaracollective/storefront-backend/internal/catalog"
	"github.com/aaracollective/storefront-backend/internal/checkout"
	"github.com/aaracollective/storefront-backend/internal/coupons"
	"github.com/aaracollective/storefront-backend/internal/customers"
	"github.com/aaracollective/storefront-backend/internal/inventory"
	"github.com/aaracollective/storefront-backend/internal/orders"
	identitywebhook "github.com/aaracollective/storefront-backend/internal/webhooks/identity"
	stripewebhook "github.com/aaracollective/storefront-backend/internal/webhooks/stripe"
	"github.com/aaracollective/storefront-backend/pkg/config"
	"github.com/aaracollective/storefront-backend/pkg/db"
	"github.com/aaracollective/storefront-backend/pkg/identity"
	"github.com/aaracollective/storefront-backend/pkg/instance"
	"github.com/aaracollective/storefront-backend/pkg/logger"
	"github.com/aaracollective/storefront-backend/pkg/metrics"
	"github.com/aaracollective/storefront-backend/pkg/migrate"
	"github.com/aaracollective/storefront-backend/pkg/outbox"
	"github.com/aaracollective/storefront-backend/pkg/redis"
	"github.com/aaracollective/storefront-backend/pkg/stripe"
)

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
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	conn := dbClient.DB()

	catalogRepo := catalog.NewRepository(conn)
	couponRepo := coupons.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	inventoryRepo := inventory.NewRepository(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	catalogService, err := catalog.NewService(catalogRepo, dbClient, cfg.Stripe.Currency)
	if err != nil {
		return err
	}
	resolver, err := coupons.NewResolver(couponRepo)
	if err != nil {
		return err
	}
	couponService, err := coupons.NewService(resolver)
	if err != nil {
		return err
	}

	manager, err := orders.NewManager(orders.ManagerDeps{
		Orders:    orderRepo,
		Catalog:   catalogRepo,
		Coupons:   couponRepo,
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
		Metrics:   checkoutMetrics,
		Currency:  cfg.Stripe.Currency,
	})
	if err != nil {
		return err
	}

	checkoutService, err := checkout.NewService(checkout.Params{
		DB:                dbClient,
		Manager:           manager,
		Orders:            orderRepo,
		Canceler:          orderService,
		Payments:          stripeClient,
		Logger:            logg,
		Metrics:           checkoutMetrics,
		ReservationTTL:    cfg.Checkout.ReservationTTL,
		DescriptionPrefix: cfg.Checkout.DescriptionPrefix,
		Currency:          cfg.Stripe.Currency,
	})
	if err != nil {
		return err
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Orders:  orderService,
		Logger:  logg,
		Metrics: checkoutMetrics,
	})
	if err != nil {
		return err
	}
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Checkout.WebhookEventTTL)
	if err != nil {
		return err
	}

	var directory middleware.UserDirectory
	var identityWebhooks webhookcontrollers.IdentityWebhookService
	if cfg.Auth.DirectoryEnabled() {
		client, err := identity.NewClient(cfg.Auth.IdentityAPIURL, cfg.Auth.IdentitySecretKey)
		if err != nil {
			return err
		}
		directory = client

		if cfg.Auth.UserWebhookEnabled() {
			svc, err := identitywebhook.NewService(identitywebhook.ServiceParams{
				Directory:   client,
				DefaultRole: cfg.Auth.DefaultRole,
				Logger:      logg,
				Metrics:     checkoutMetrics,
			})
			if err != nil {
				return err
			}
			identityWebhooks = svc
		}
	}

	router := routes.NewRouter(routes.Params{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		Metrics:        metrics.Handler(prometheus.DefaultGatherer),
		Directory:      directory,
		Catalog:        catalogService,
		Coupons:        couponService,
		Orders:         orderService,
		Checkout:       checkoutService,
		StripeWebhooks: webhookService,
		StripeSigning:  stripeClient,
		WebhookGuard:   webhookGuard,

		IdentityWebhooks: identityWebhooks,
	})

	addr := ":" + cfg.App.Port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"instance":   instance.ID(),
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	return api.Run(ctx, api.NewServer(addr, router), logg)
}
