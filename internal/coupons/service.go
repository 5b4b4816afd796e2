package coupons

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aaracollective/storefront-backend/pkg/db/models"
)

// CouponDTO is the public view of a valid coupon.
type CouponDTO struct {
	ID             uuid.UUID  `json:"id"`
	Code           string     `json:"code"`
	PercentOff     *int       `json:"percentOff,omitempty"`
	AmountOffCents *int64     `json:"amountOffCents,omitempty"`
	StartsAt       *time.Time `json:"startsAt,omitempty"`
	EndsAt         *time.Time `json:"endsAt,omitempty"`
}

// ValidationResult answers GET /coupons/{code}.
type ValidationResult struct {
	Valid  bool       `json:"valid"`
	Coupon *CouponDTO `json:"coupon,omitempty"`
}

type resolver interface {
	Resolve(ctx context.Context, code string) (*models.Coupon, error)
}

// Service exposes coupon checks to the storefront.
type Service interface {
	Validate(ctx context.Context, code string) (*ValidationResult, error)
}

type service struct {
	resolver resolver
}

func NewService(r resolver) (Service, error) {
	if r == nil {
		return nil, fmt.Errorf("coupon resolver required")
	}
	return &service{resolver: r}, nil
}

func (s *service) Validate(ctx context.Context, code string) (*ValidationResult, error) {
	coupon, err := s.resolver.Resolve(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("resolve coupon: %w", err)
	}
	if coupon == nil {
		return &ValidationResult{Valid: false}, nil
	}
	return &ValidationResult{
		Valid: true,
		Coupon: &CouponDTO{
			ID:             coupon.ID,
			Code:           coupon.Code,
			PercentOff:     coupon.PercentOff,
			AmountOffCents: coupon.AmountOffCents,
			StartsAt:       coupon.StartsAt,
			EndsAt:         coupon.EndsAt,
		},
	}, nil
}
