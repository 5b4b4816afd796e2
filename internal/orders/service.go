// Package orders owns order placement, payment status reconciliation and the
// admin order back office.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aaracollective/storefront-backend/internal/inventory"
	"github.com/aaracollective/storefront-backend/pkg/db"
	"github.com/aaracollective/storefront-backend/pkg/db/models"
	"github.com/aaracollective/storefront-backend/pkg/enums"
	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
	"github.com/aaracollective/storefront-backend/pkg/logger"
	"github.com/aaracollective/storefront-backend/pkg/outbox"
	"github.com/aaracollective/storefront-backend/pkg/outbox/payloads"
	"github.com/aaracollective/storefront-backend/pkg/pagination"
)

// Service exposes order creation, payment reconciliation and admin operations.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	ListOrders(ctx context.Context, params pagination.Params) (*OrderListResult, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*OrderDetailDTO, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, input UpdateOrderInput, actor *outbox.ActorRef) (*OrderDetailDTO, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	ConfirmPayment(ctx context.Context, input PaymentConfirmation) (bool, error)
	RecordPaymentFailure(ctx context.Context, input PaymentFailure) (bool, error)
	ExpireOrder(ctx context.Context, id uuid.UUID) (bool, error)
	CancelUnpaid(ctx context.Context, id uuid.UUID, reason string) (bool, error)
}

// Cancellation reasons carried on order_canceled.
const (
	CancelReasonAdmin          = "admin"
	CancelReasonExpired        = "reservation_expired"
	CancelReasonPaymentAborted = "payment_intent_failed"
)

// PaymentConfirmation is a verified payment_intent.succeeded event.
type PaymentConfirmation struct {
	OrderID         uuid.UUID
	PaymentIntentID string
	AmountCents     int64
	Currency        string
}

// PaymentFailure is a verified payment_intent.payment_failed event.
type PaymentFailure struct {
	OrderID         uuid.UUID
	PaymentIntentID string
	Reason          string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderCounter interface {
	IncOrder(path string)
}

type service struct {
	repo      Repository
	tx        txRunner
	manager   *Manager
	inventory *inventory.Repository
	outbox    outbox.Emitter
	logg      *logger.Logger
	metrics   orderCounter
	currency  string
	now       func() time.Time
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repo      Repository
	DB        *db.Client
	Manager   *Manager
	Inventory *inventory.Repository
	Outbox    outbox.Emitter
	Logger    *logger.Logger
	Metrics   orderCounter
	Currency  string
	Now       func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case p.DB == nil:
		return nil, fmt.Errorf("db client required")
	case p.Manager == nil:
		return nil, fmt.Errorf("order manager required")
	case p.Inventory == nil:
		return nil, fmt.Errorf("inventory repository required")
	case p.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      p.Repo,
		tx:        p.DB,
		manager:   p.Manager,
		inventory: p.Inventory,
		outbox:    p.Outbox,
		logg:      p.Logger,
		metrics:   p.Metrics,
		currency:  p.Currency,
		now:       now,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	var result *CreateOrderResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, quote, err := s.manager.PlaceOrder(ctx, tx, PlaceOrderParams{Input: input, Stock: StockCommit, Source: SourceDirect})
		if err != nil {
			return err
		}
		result = &CreateOrderResult{OrderID: order.ID, Totals: quote.Totals}
		return nil
	})
	if err != nil {
		return nil, ToAPIError(err, "create order")
	}
	if s.metrics != nil {
		s.metrics.IncOrder(SourceDirect)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, result.OrderID.String()), "order created")
	}
	return result, nil
}

func (s *service) ListOrders(ctx context.Context, params pagination.Params) (*OrderListResult, error) {
	params = pagination.Normalize(params)
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, ToAPIError(err, "list orders")
	}
	items := make([]OrderSummaryDTO, 0, len(rows))
	for i := range rows {
		items = append(items, newSummaryDTO(&rows[i], s.currency))
	}
	return &OrderListResult{Items: items, Meta: pagination.NewMeta(params, total)}, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*OrderDetailDTO, error) {
	order, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, ToAPIError(err, "load order")
	}
	return newDetailDTO(order, s.currency), nil
}

func (s *service) UpdateOrder(ctx context.Context, id uuid.UUID, input UpdateOrderInput, actor *outbox.ActorRef) (*OrderDetailDTO, error) {
	updates := map[string]any{}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", *input.Status)
		}
		updates["status"] = *input.Status
	}
	if input.PaymentStatus != nil {
		if !input.PaymentStatus.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid paymentStatus %q", *input.PaymentStatus)
		}
		updates["payment_status"] = *input.PaymentStatus
	}
	if input.Notes != nil {
		if utf8.RuneCountInString(*input.Notes) > NotesMaxLength {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "notes must be at most %d characters", NotesMaxLength)
		}
		updates["notes"] = *input.Notes
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return err
		}
		if input.Status == nil || *input.Status != enums.OrderStatusCancelled || current.Status == enums.OrderStatusCancelled {
			return nil
		}
		return s.cancel(ctx, tx, current, CancelReasonAdmin, actor)
	})
	if err != nil {
		return nil, ToAPIError(err, "update order")
	}
	return s.GetOrder(ctx, id)
}

// cancel releases the order's holds and queues order_canceled. The status
// column is written by the caller.
func (s *service) cancel(ctx context.Context, tx *gorm.DB, order *models.Order, reason string, actor *outbox.ActorRef) error {
	released, err := s.inventory.WithTx(tx).Release(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("release holds: %w", err)
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCanceled,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data: payloads.OrderCanceledEvent{
			OrderID:         order.ID,
			Reason:          reason,
			CanceledAt:      s.now().UTC(),
			ReleasedUnits:   released,
			PreviousStatus:  string(order.Status),
			PaymentIntentID: order.PaymentIntentID,
		},
	})
}

func (s *service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).FindByID(ctx, id); err != nil {
			return err
		}
		if _, err := s.inventory.WithTx(tx).Release(ctx, id); err != nil {
			return fmt.Errorf("release holds: %w", err)
		}
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return ToAPIError(err, "delete order")
	}
	return nil
}

// ConfirmPayment marks the order paid, commits its stock holds and queues
// order_paid once. Replays report false and change nothing.
func (s *service) ConfirmPayment(ctx context.Context, input PaymentConfirmation) (bool, error) {
	var applied bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		changed, err := repo.MarkPaid(ctx, order.ID)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		applied = true

		commit, err := s.inventory.WithTx(tx).Commit(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("commit holds: %w", err)
		}
		if commit.Oversold && s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "oversold: stock released before payment could not be retaken")
		}
		if order.PaymentIntentID == nil && input.PaymentIntentID != "" {
			if err := repo.SetPaymentIntentID(ctx, order.ID, input.PaymentIntentID); err != nil {
				return err
			}
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderPaidEvent{
				OrderID:         order.ID,
				PaymentIntentID: input.PaymentIntentID,
				AmountCents:     input.AmountCents,
				Currency:        input.Currency,
				PaidAt:          s.now().UTC(),
				Oversold:        commit.Oversold,
			},
		})
	})
	if err != nil {
		return false, ToAPIError(err, "confirm payment")
	}
	return applied, nil
}

// RecordPaymentFailure flags the payment as failed and leaves the order PENDING.
func (s *service) RecordPaymentFailure(ctx context.Context, input PaymentFailure) (bool, error) {
	var applied bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, input.OrderID); err != nil {
			return err
		}
		changed, err := repo.MarkPaymentFailed(ctx, input.OrderID)
		if err != nil || !changed {
			return err
		}
		applied = true
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   input.OrderID,
			Data: payloads.PaymentFailedEvent{
				OrderID:         input.OrderID,
				PaymentIntentID: input.PaymentIntentID,
				Reason:          input.Reason,
			},
		})
	})
	if err != nil {
		return false, ToAPIError(err, "record payment failure")
	}
	return applied, nil
}

// settleStaleHolds resolves holds on an order that can no longer be expired:
// orders an admin already moved past PENDING keep their stock, cancelled ones return it.
func (s *service) settleStaleHolds(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	stock := s.inventory.WithTx(tx)
	if order.Status == enums.OrderStatusCancelled {
		_, err := stock.Release(ctx, order.ID)
		return err
	}
	_, err := stock.Commit(ctx, order.ID)
	return err
}

// ExpireOrder cancels an unpaid order whose holds lapsed and returns the stock.
func (s *service) ExpireOrder(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.CancelUnpaid(ctx, id, CancelReasonExpired)
}

// CancelUnpaid cancels a PENDING order that has not been paid and releases
// its holds. Orders that moved on keep or return stock per their status.
func (s *service) CancelUnpaid(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	var cancelled bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_, err = s.inventory.WithTx(tx).Release(ctx, id)
			return err
		}
		if err != nil {
			return err
		}
		changed, err := repo.CancelIfPending(ctx, id)
		if err != nil {
			return err
		}
		if !changed {
			return s.settleStaleHolds(ctx, tx, order)
		}
		cancelled = true
		return s.cancel(ctx, tx, order, reason, nil)
	})
	if err != nil {
		return false, fmt.Errorf("cancel order %s: %w", id, err)
	}
	return cancelled, nil
}
