package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aaracollective/storefront-backend/api/controllers"
	ordercontrollers "github.com/aaracollective/storefront-backend/api/controllers/orders"
	webhookcontrollers "github.com/aaracollective/storefront-backend/api/controllers/webhooks"
	"github.com/aaracollective/storefront-backend/api/middleware"
	"github.com/aaracollective/storefront-backend/internal/catalog"
	checkoutsvc "github.com/aaracollective/storefront-backend/internal/checkout"
	"github.com/aaracollective/storefront-backend/internal/coupons"
	"github.com/aaracollective/storefront-backend/internal/orders"
	"github.com/aaracollective/storefront-backend/pkg/config"
	"github.com/aaracollective/storefront-backend/pkg/db"
	"github.com/aaracollective/storefront-backend/pkg/logger"
	"github.com/aaracollective/storefront-backend/pkg/redis"
)

type redisStore interface {
	redis.Pinger
	redis.RateLimiter
	redis.IdempotencyStore
}

type signingSecret interface {
	SigningSecret() string
}

// Params carries everything the router mounts.
type Params struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      db.Pinger
	Redis   redisStore
	Metrics http.Handler

	// Directory is optional; when nil roles come from session claims only.
	Directory middleware.UserDirectory

	Catalog  catalog.Service
	Coupons  coupons.Service
	Orders   orders.Service
	Checkout checkoutsvc.Service

	StripeWebhooks webhookcontrollers.StripeWebhookService
	StripeSigning  signingSecret
	WebhookGuard   webhookGuard

	// IdentityWebhooks is optional; without it the user webhook answers 503.
	IdentityWebhooks webhookcontrollers.IdentityWebhookService
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	globalPolicy := middleware.RateLimitPolicy{Name: "global", Limit: cfg.Redis.GlobalRateLimit, Window: window(cfg)}
	checkoutPolicy := middleware.RateLimitPolicy{Name: "checkout", Limit: cfg.Redis.CheckoutRateLimit, Window: window(cfg)}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})
	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics)
	}

	// Processor callbacks are signed and retried by the sender, so they skip
	// the per-IP limit and request idempotency.
	r.Post("/checkout/webhook", webhookcontrollers.StripeWebhook(p.StripeWebhooks, p.StripeSigning, p.WebhookGuard, logg))
	r.Post("/webhooks/identity", webhookcontrollers.IdentityWebhook(p.IdentityWebhooks, cfg.Auth.IdentityWebhookSecret, logg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(globalPolicy, p.Redis, logg))
		r.Use(middleware.Idempotency(p.Redis, cfg.Redis.IdempotencyTTL, logg))

		r.Get("/categories", controllers.CategoryList(p.Catalog, logg))
		r.Get("/coupons/{code}", controllers.CouponValidate(p.Coupons, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(p.Catalog, cfg.Stripe.Currency, logg))
			r.Get("/featured", controllers.ProductFeatured(p.Catalog, logg))
			r.Get("/{productId}", controllers.ProductDetail(p.Catalog, logg))

			r.Group(func(r chi.Router) {
				r.Use(adminOnly(cfg, p.Directory, logg)...)
				r.Post("/", controllers.AdminCreateProduct(p.Catalog, logg))
				r.Delete("/{productId}", controllers.AdminDeleteProduct(p.Catalog, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(p.Orders, logg))

			r.Group(func(r chi.Router) {
				r.Use(adminOnly(cfg, p.Directory, logg)...)
				r.Get("/", ordercontrollers.AdminList(p.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.AdminDetail(p.Orders, logg))
				r.Patch("/{orderId}", ordercontrollers.AdminUpdate(p.Orders, logg))
				r.Delete("/{orderId}", ordercontrollers.AdminDelete(p.Orders, logg))
			})
		})

		r.With(middleware.RateLimit(checkoutPolicy, p.Redis, logg)).
			Post("/checkout/create-intent", controllers.CheckoutCreateIntent(p.Checkout, logg))
	})

	return r
}

func adminOnly(cfg *config.Config, directory middleware.UserDirectory, logg *logger.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.Auth(cfg.Auth, directory, logg),
		middleware.RequireAdmin(cfg.Auth.AdminRole, logg),
	}
}

func window(cfg *config.Config) time.Duration {
	if cfg.Redis.RateLimitWindow > 0 {
		return cfg.Redis.RateLimitWindow
	}
	return time.Minute
}
