package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/aaracollective/storefront-backend/pkg/logger"
)

const defaultExpiryBatch = 200

type expiredHoldLister interface {
	ExpiredOrderIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

type orderExpirer interface {
	ExpireOrder(ctx context.Context, id uuid.UUID) (bool, error)
}

// ReservationExpiryJobParams configure the hold expiry sweep.
type ReservationExpiryJobParams struct {
	Logger    *logger.Logger
	Holds     expiredHoldLister
	Orders    orderExpirer
	BatchSize int
}

// NewReservationExpiryJob builds the job that cancels unpaid orders whose
// stock holds lapsed and returns the held units to stock.
func NewReservationExpiryJob(params ReservationExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Holds == nil {
		return nil, fmt.Errorf("reservation reader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order expirer required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpiryBatch
	}
	return &reservationExpiryJob{
		logg:   params.Logger,
		holds:  params.Holds,
		orders: params.Orders,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type reservationExpiryJob struct {
	logg   *logger.Logger
	holds  expiredHoldLister
	orders orderExpirer
	batch  int
	now    func() time.Time
}

func (j *reservationExpiryJob) Name() string { return "reservation-expiry" }

// Run handles one batch per tick. A failing order stays HELD and is retried next tick.
func (j *reservationExpiryJob) Run(ctx context.Context) error {
	ids, err := j.holds.ExpiredOrderIDs(ctx, j.now().UTC(), j.batch)
	if err != nil {
		return fmt.Errorf("list expired holds: %w", err)
	}

	var (
		errs      error
		cancelled int
		settled   int
	)
	for _, id := range ids {
		changed, err := j.orders.ExpireOrder(ctx, id)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if changed {
			cancelled++
		} else {
			settled++
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"expired_orders": len(ids),
		"cancelled":      cancelled,
		"settled":        settled,
		"failed":         len(multierr.Errors(errs)),
	}), "reservation expiry sweep complete")
	return errs
}
