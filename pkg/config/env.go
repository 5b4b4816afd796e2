package config

// EnvPrefix scopes every variable read by Load.
const EnvPrefix = "storefront"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv            = "STOREFRONT_APP_ENV"
	EnvPort              = "STOREFRONT_APP_PORT"
	EnvDBDSN             = "STOREFRONT_DB_DSN"
	EnvDBHost            = "STOREFRONT_DB_HOST"
	EnvDBUser            = "STOREFRONT_DB_USER"
	EnvDBName            = "STOREFRONT_DB_NAME"
	EnvRedisURL          = "STOREFRONT_REDIS_URL"
	EnvAuthJWTSecret     = "STOREFRONT_AUTH_JWT_SECRET"
	EnvAuthIssuer        = "STOREFRONT_AUTH_ISSUER"
	EnvCORSOrigins       = "STOREFRONT_CORS_ORIGINS"
	EnvUseSQLite         = "STOREFRONT_USE_SQLITE"
	EnvStripeAPIKey      = "STOREFRONT_STRIPE_API_KEY"
	EnvStripeWebhook     = "STOREFRONT_STRIPE_WEBHOOK_SECRET"
	EnvReservationTTL    = "STOREFRONT_CHECKOUT_RESERVATION_TTL"
	EnvCheckoutRateLimit = "STOREFRONT_RATE_LIMIT_CHECKOUT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
