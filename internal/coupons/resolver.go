// Package coupons looks up discount codes and checks their validity window.
package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aaracollective/storefront-backend/pkg/db/models"
)

type finder interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

// Resolver returns coupons that are usable right now.
type Resolver struct {
	repo finder
	now  func() time.Time
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

func NewResolver(repo finder, opts ...ResolverOption) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	r := &Resolver{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Normalize trims and uppercases a code the way it is stored.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Resolve returns nil (without error) when the code is unknown, inactive or outside its window.
func (r *Resolver) Resolve(ctx context.Context, code string) (*models.Coupon, error) {
	normalized := Normalize(code)
	if normalized == "" {
		return nil, nil
	}
	coupon, err := r.repo.FindByCode(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if coupon == nil || !IsValid(coupon, r.now()) {
		return nil, nil
	}
	return coupon, nil
}

// IsValid reports active && (no start || now >= start) && (no end || now <= end).
func IsValid(coupon *models.Coupon, now time.Time) bool {
	if coupon == nil || !coupon.Active {
		return false
	}
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return false
	}
	if coupon.EndsAt != nil && now.After(*coupon.EndsAt) {
		return false
	}
	return true
}
