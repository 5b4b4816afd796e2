package coupons

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/aaracollective/storefront-backend/pkg/db/models"
)

// Repository persists coupons.
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

// FindByCode matches the stored normalized code exactly. Missing rows return (nil, nil).
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// Upsert creates the coupon or refreshes its terms when the code already exists.
func (r *Repository) Upsert(ctx context.Context, coupon *models.Coupon) error {
	existing, err := r.FindByCode(ctx, coupon.Code)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.WithContext(ctx).Create(coupon).Error
	}
	coupon.ID = existing.ID
	return r.db.WithContext(ctx).Model(existing).Select("active", "percent_off", "amount_off_cents", "starts_at", "ends_at").Updates(coupon).Error
}
