// Package stripe creates payment intents for storefront orders and carries
// the webhook signing secret used to verify processor callbacks.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	"github.com/aaracollective/storefront-backend/pkg/config"
	"github.com/aaracollective/storefront-backend/pkg/logger"
)

const defaultCurrency = "sgd"

// keyPrefixes lists the secret and restricted key prefixes accepted per environment.
var keyPrefixes = map[string][]string{
	"test": {"sk_test_", "rk_test_"},
	"live": {"sk_live_", "rk_live_"},
}

var (
	errAPIKeyRequired = errors.New("stripe api key is required")
	errSecretRequired = errors.New("stripe webhook secret is required")
)

// Client is bound to one API key. It never touches the package-level stripe.Key.
type Client struct {
	intents       paymentintent.Client
	environment   string
	signingSecret string
	currency      string
}

func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env := cfg.Environment()
	prefixes, ok := keyPrefixes[env]
	if !ok {
		return nil, fmt.Errorf("stripe environment must be test or live, got %q", env)
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if !hasAnyPrefix(apiKey, prefixes) {
		return nil, fmt.Errorf("stripe environment %q requires a %s key", env, strings.Join(prefixes, " or "))
	}
	signingSecret := strings.TrimSpace(cfg.WebhookSecret)
	if signingSecret == "" {
		return nil, errSecretRequired
	}

	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"stripe_env": env, "currency": currency}), "stripe client initialized")
	}
	return &Client{
		intents:       paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: apiKey},
		environment:   env,
		signingSecret: signingSecret,
		currency:      currency,
	}, nil
}

// Environment is "test" or "live".
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// Currency returns the lowercase ISO currency charged for orders.
func (c *Client) Currency() string {
	if c == nil || c.currency == "" {
		return defaultCurrency
	}
	return c.currency
}

func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
