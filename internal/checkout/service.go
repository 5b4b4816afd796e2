// Package checkout coordinates the online payment path: a held order plus a
// processor payment intent the storefront confirms client side.
package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aaracollective/storefront-backend/internal/orders"
	"github.com/aaracollective/storefront-backend/internal/pricing"
	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
	"github.com/aaracollective/storefront-backend/pkg/logger"
	"github.com/aaracollective/storefront-backend/pkg/stripe"
)

const (
	intentResultCreated = "created"
	intentResultFailed  = "failed"
	intentResultInvalid = "rejected"
)

// Service creates payment intents for new orders.
type Service interface {
	CreateIntent(ctx context.Context, input orders.CreateOrderInput) (*IntentResult, error)
}

// IntentResult answers POST /checkout/create-intent.
type IntentResult struct {
	ClientSecret string    `json:"clientSecret"`
	OrderID      uuid.UUID `json:"orderId"`
	Currency     string    `json:"currency"`
	pricing.Totals
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderCanceler interface {
	CancelUnpaid(ctx context.Context, id uuid.UUID, reason string) (bool, error)
}

type intentMetrics interface {
	IncIntent(result string)
	IncOrder(path string)
}

// Params wires the checkout coordinator.
type Params struct {
	DB                txRunner
	Manager           *orders.Manager
	Orders            orders.Repository
	Canceler          orderCanceler
	Payments          stripe.PaymentIntentCreator
	Logger            *logger.Logger
	Metrics           intentMetrics
	ReservationTTL    time.Duration
	DescriptionPrefix string
	Currency          string
	Now               func() time.Time
}

type service struct {
	tx       txRunner
	manager  *orders.Manager
	orders   orders.Repository
	canceler orderCanceler
	payments stripe.PaymentIntentCreator
	logg     *logger.Logger
	metrics  intentMetrics
	ttl      time.Duration
	prefix   string
	currency string
	now      func() time.Time
}

// NewService builds the checkout coordinator.
func NewService(p Params) (Service, error) {
	switch {
	case p.DB == nil:
		return nil, fmt.Errorf("tx runner required")
	case p.Manager == nil:
		return nil, fmt.Errorf("order manager required")
	case p.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case p.Canceler == nil:
		return nil, fmt.Errorf("order canceler required")
	case p.Payments == nil:
		return nil, fmt.Errorf("payment intent creator required")
	case p.ReservationTTL <= 0:
		return nil, fmt.Errorf("reservation ttl must be positive")
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	currency := strings.ToLower(strings.TrimSpace(p.Currency))
	if currency == "" {
		currency = "sgd"
	}
	return &service{
		tx:       p.DB,
		manager:  p.Manager,
		orders:   p.Orders,
		canceler: p.Canceler,
		payments: p.Payments,
		logg:     p.Logger,
		metrics:  p.Metrics,
		ttl:      p.ReservationTTL,
		prefix:   strings.TrimSpace(p.DescriptionPrefix),
		currency: currency,
		now:      now,
	}, nil
}

// CreateIntent persists a PENDING order holding its stock, then asks the
// processor for an intent keyed by the order id. A processor failure cancels
// the order so the held stock returns immediately.
func (s *service) CreateIntent(ctx context.Context, input orders.CreateOrderInput) (*IntentResult, error) {
	holdUntil := s.now().Add(s.ttl)

	var (
		orderID uuid.UUID
		quote   *pricing.Quote
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, q, err := s.manager.PlaceOrder(ctx, tx, orders.PlaceOrderParams{
			Input:     input,
			Stock:     orders.StockHold,
			HoldUntil: holdUntil,
			Source:    orders.SourceIntent,
		})
		if err != nil {
			return err
		}
		orderID, quote = order.ID, q
		return nil
	})
	if err != nil {
		s.incIntent(intentResultInvalid)
		return nil, orders.ToAPIError(err, "create order")
	}
	if s.metrics != nil {
		s.metrics.IncOrder(orders.SourceIntent)
	}

	ctx = s.withOrder(ctx, orderID)
	intent, err := s.payments.CreatePaymentIntent(ctx, stripe.PaymentIntentRequest{
		OrderID:     orderID.String(),
		AmountCents: quote.TotalCents,
		Currency:    s.currency,
		Description: s.description(orderID),
		Email:       strings.TrimSpace(input.Email),
	})
	if err != nil {
		s.incIntent(intentResultFailed)
		s.logError(ctx, "create payment intent failed", err)
		if _, cancelErr := s.canceler.CancelUnpaid(ctx, orderID, orders.CancelReasonPaymentAborted); cancelErr != nil {
			s.logError(ctx, "cancel order after payment intent failure", cancelErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "payment provider unavailable")
	}

	// The webhook resolves the order from intent metadata, so a failed write
	// here only loses the admin-facing reference.
	if err := s.orders.SetPaymentIntentID(ctx, orderID, intent.ID); err != nil {
		s.logError(ctx, "store payment intent id", err)
	}

	s.incIntent(intentResultCreated)
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "payment_intent_id", intent.ID), "payment intent created")
	}
	return &IntentResult{
		ClientSecret: intent.ClientSecret,
		OrderID:      orderID,
		Currency:     s.currency,
		Totals:       quote.Totals,
	}, nil
}

func (s *service) description(orderID uuid.UUID) string {
	if s.prefix == "" {
		return "Order " + orderID.String()
	}
	return s.prefix + " " + orderID.String()
}

func (s *service) incIntent(result string) {
	if s.metrics != nil {
		s.metrics.IncIntent(result)
	}
}

func (s *service) withOrder(ctx context.Context, id uuid.UUID) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithOrderID(ctx, id.String())
}

func (s *service) logError(ctx context.Context, msg string, err error) {
	if s.logg != nil {
		s.logg.Error(ctx, msg, err)
	}
}
