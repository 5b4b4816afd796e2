// Package inventory owns every mutation of variant stock: direct decrements,
// reservation holds and their commit or release.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aaracollective/storefront-backend/pkg/db/models"
	"github.com/aaracollective/storefront-backend/pkg/enums"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// Line is a quantity of one variant.
type Line struct {
	VariantID uuid.UUID
	Quantity  int
}

// Repository applies stock changes. Bind it to a transaction with WithTx so
// stock moves commit together with the order rows they belong to.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Decrement takes qty units only if at least qty remain. The check and the
// write are one statement, so concurrent callers cannot oversell.
func (r *Repository) Decrement(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty < 1 {
		return fmt.Errorf("decrement quantity must be positive, got %d", qty)
	}
	res := r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("id = ? AND stock >= ?", variantID, qty).
		UpdateColumns(map[string]any{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: variant %s", ErrInsufficientStock, variantID)
	}
	return nil
}

// Increment returns qty units to the variant.
func (r *Repository) Increment(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty < 1 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("id = ?", variantID).
		UpdateColumns(map[string]any{
			"stock":      gorm.Expr("stock + ?", qty),
			"updated_at": time.Now().UTC(),
		}).Error
}

// ReservationsForOrder lists the order's reservations in the given status.
func (r *Repository) ReservationsForOrder(ctx context.Context, orderID uuid.UUID, status enums.ReservationStatus) ([]models.StockReservation, error) {
	var rows []models.StockReservation
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, status).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// transition moves a reservation out of from; it reports false when another
// writer already moved it.
func (r *Repository) transition(ctx context.Context, id uuid.UUID, from, to enums.ReservationStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.StockReservation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	return res.RowsAffected == 1, res.Error
}

// ExpiredOrderIDs returns orders that still have held reservations expiring at or before now.
func (r *Repository) ExpiredOrderIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.db.WithContext(ctx).
		Model(&models.StockReservation{}).
		Distinct("order_id").
		Where("status = ? AND expires_at <= ?", enums.ReservationStatusHeld, now).
		Order("order_id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Pluck("order_id", &ids).Error
	return ids, err
}
