package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aaracollective/storefront-backend/pkg/db/models"
	"github.com/aaracollective/storefront-backend/pkg/enums"
)

// CommitResult summarizes what a commit did to an order's reservations.
type CommitResult struct {
	Committed int
	Retaken   int
	// Oversold is set when released units could not be taken again.
	Oversold bool
}

// Hold takes stock for each line and records a HELD reservation expiring at expiresAt.
func (r *Repository) Hold(ctx context.Context, orderID uuid.UUID, lines []Line, expiresAt time.Time) error {
	for _, line := range lines {
		if err := r.Decrement(ctx, line.VariantID, line.Quantity); err != nil {
			return err
		}
		reservation := &models.StockReservation{
			OrderID:   orderID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			Status:    enums.ReservationStatusHeld,
			ExpiresAt: expiresAt.UTC(),
		}
		if err := r.db.WithContext(ctx).Create(reservation).Error; err != nil {
			return err
		}
	}
	return nil
}

// Commit finalizes the order's holds. Reservations that were already released
// (the hold expired before payment landed) are taken again when stock allows.
// Calling Commit twice is a no-op the second time.
func (r *Repository) Commit(ctx context.Context, orderID uuid.UUID) (CommitResult, error) {
	var result CommitResult

	held, err := r.ReservationsForOrder(ctx, orderID, enums.ReservationStatusHeld)
	if err != nil {
		return result, err
	}
	for _, res := range held {
		ok, err := r.transition(ctx, res.ID, enums.ReservationStatusHeld, enums.ReservationStatusCommitted)
		if err != nil {
			return result, err
		}
		if ok {
			result.Committed++
		}
	}

	released, err := r.ReservationsForOrder(ctx, orderID, enums.ReservationStatusReleased)
	if err != nil {
		return result, err
	}
	for _, res := range released {
		err := r.Decrement(ctx, res.VariantID, res.Quantity)
		if errors.Is(err, ErrInsufficientStock) {
			result.Oversold = true
			continue
		}
		if err != nil {
			return result, err
		}
		ok, err := r.transition(ctx, res.ID, enums.ReservationStatusReleased, enums.ReservationStatusCommitted)
		if err != nil {
			return result, err
		}
		if ok {
			result.Retaken++
		}
	}
	return result, nil
}

// Release returns every held unit of the order to stock and reports how many units moved.
func (r *Repository) Release(ctx context.Context, orderID uuid.UUID) (int, error) {
	held, err := r.ReservationsForOrder(ctx, orderID, enums.ReservationStatusHeld)
	if err != nil {
		return 0, err
	}
	units := 0
	for _, res := range held {
		ok, err := r.transition(ctx, res.ID, enums.ReservationStatusHeld, enums.ReservationStatusReleased)
		if err != nil {
			return units, err
		}
		if !ok {
			continue
		}
		if err := r.Increment(ctx, res.VariantID, res.Quantity); err != nil {
			return units, err
		}
		units += res.Quantity
	}
	return units, nil
}
