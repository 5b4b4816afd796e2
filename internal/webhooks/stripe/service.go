// Package stripewebhook reconciles orders with verified payment intent events.
package stripewebhook

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/aaracollective/storefront-backend/internal/orders"
	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
	"github.com/aaracollective/storefront-backend/pkg/logger"
	pkgstripe "github.com/aaracollective/storefront-backend/pkg/stripe"
)

// Outcomes recorded per handled event.
const (
	ResultProcessed = "processed"
	ResultReplayed  = "replayed"
	ResultIgnored   = "ignored"
	ResultDuplicate = "duplicate"
	ResultFailed    = "failed"
)

type paymentReconciler interface {
	ConfirmPayment(ctx context.Context, input orders.PaymentConfirmation) (bool, error)
	RecordPaymentFailure(ctx context.Context, input orders.PaymentFailure) (bool, error)
}

type webhookMetrics interface {
	IncWebhook(eventType, result string)
}

type ServiceParams struct {
	Orders  paymentReconciler
	Logger  *logger.Logger
	Metrics webhookMetrics
}

type Service struct {
	orders  paymentReconciler
	logg    *logger.Logger
	metrics webhookMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order reconciler required")
	}
	return &Service{orders: params.Orders, logg: params.Logger, metrics: params.Metrics}, nil
}

// HandleEvent applies payment_intent.succeeded and payment_intent.payment_failed.
// Other event types are acknowledged untouched. Events that cannot be tied to
// an order are acknowledged too, since a redelivery would not change that.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	eventType := string(event.Type)

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded, stripe.EventTypePaymentIntentPaymentFailed:
	default:
		s.record(eventType, ResultIgnored)
		return nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		s.record(eventType, ResultFailed)
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
	}
	ctx = s.withField(ctx, "payment_intent_id", intent.ID)

	orderID, ok := OrderIDFromMetadata(intent.Metadata)
	if !ok {
		s.warn(ctx, "payment intent has no usable order id; acknowledging")
		s.record(eventType, ResultIgnored)
		return nil
	}
	ctx = s.withField(ctx, "order_id", orderID.String())

	var (
		applied bool
		err     error
	)
	if event.Type == stripe.EventTypePaymentIntentSucceeded {
		applied, err = s.orders.ConfirmPayment(ctx, orders.PaymentConfirmation{
			OrderID:         orderID,
			PaymentIntentID: intent.ID,
			AmountCents:     intent.Amount,
			Currency:        string(intent.Currency),
		})
	} else {
		applied, err = s.orders.RecordPaymentFailure(ctx, orders.PaymentFailure{
			OrderID:         orderID,
			PaymentIntentID: intent.ID,
			Reason:          failureReason(&intent),
		})
	}
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		s.warn(ctx, "payment event for unknown order; acknowledging")
		s.record(eventType, ResultIgnored)
		return nil
	}
	if err != nil {
		s.record(eventType, ResultFailed)
		return err
	}
	if !applied {
		s.record(eventType, ResultReplayed)
		return nil
	}
	s.record(eventType, ResultProcessed)
	return nil
}

// OrderIDFromMetadata reads the order id stamped on the intent at creation.
func OrderIDFromMetadata(metadata map[string]string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(metadata[pkgstripe.MetadataOrderID])
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func failureReason(intent *stripe.PaymentIntent) string {
	if intent.LastPaymentError == nil {
		return ""
	}
	if code := string(intent.LastPaymentError.Code); code != "" {
		return code
	}
	return intent.LastPaymentError.Msg
}

// Record lets the HTTP layer count outcomes decided before HandleEvent runs.
func (s *Service) Record(eventType, result string) {
	s.record(eventType, result)
}

func (s *Service) record(eventType, result string) {
	if s.metrics != nil {
		s.metrics.IncWebhook(eventType, result)
	}
}

func (s *Service) withField(ctx context.Context, key, value string) context.Context {
	if s.logg == nil || value == "" {
		return ctx
	}
	return s.logg.WithField(ctx, key, value)
}

func (s *Service) warn(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Warn(ctx, msg)
	}
}
