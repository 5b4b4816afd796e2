package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"
)

const (
	MetadataOrderID = "orderId"
	MetadataEmail   = "email"
)

// PaymentIntentRequest describes the charge prepared for a pending order.
type PaymentIntentRequest struct {
	OrderID     string
	AmountCents int64
	Currency    string
	Description string
	Email       string
}

// PaymentIntent is the subset of the processor's intent the checkout flow needs.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

// PaymentIntentCreator is the surface the checkout coordinator depends on.
type PaymentIntentCreator interface {
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error)
}

// IdempotencyKeyForOrder derives the processor idempotency key from the order id,
// so a retried create for the same order returns the original intent.
func IdempotencyKeyForOrder(orderID string) string {
	return "pi_" + orderID
}

// BuildPaymentIntentParams maps a request onto Stripe params with automatic
// payment methods, order metadata and the per-order idempotency key.
func BuildPaymentIntentParams(req PaymentIntentRequest) (*stripe.PaymentIntentParams, error) {
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		return nil, errors.New("order id is required")
	}
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", req.AmountCents)
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		params.Description = stripe.String(desc)
	}
	params.AddMetadata(MetadataOrderID, orderID)
	if email := strings.TrimSpace(req.Email); email != "" {
		params.AddMetadata(MetadataEmail, email)
	}
	params.SetIdempotencyKey(IdempotencyKeyForOrder(orderID))
	return params, nil
}

// CreatePaymentIntent creates the intent through the configured API key.
func (c *Client) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error) {
	if c == nil || c.intents.B == nil {
		return nil, errors.New("stripe client not initialized")
	}
	if req.Currency == "" {
		req.Currency = c.Currency()
	}
	params, err := BuildPaymentIntentParams(req)
	if err != nil {
		return nil, err
	}
	params.Context = ctx

	pi, err := c.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}
