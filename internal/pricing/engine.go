// Package pricing computes authoritative cart totals in integer minor units.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/aaracollective/storefront-backend/internal/coupons"
	"github.com/aaracollective/storefront-backend/pkg/db/models"
)

const (
	// FlatShippingCents is charged unless the discounted subtotal clears the threshold.
	FlatShippingCents int64 = 1500
	// FreeShippingThresholdCents must be strictly exceeded for free shipping.
	FreeShippingThresholdCents int64 = 5000
	// MaxQuantity caps a single cart line.
	MaxQuantity = 1000
)

var (
	ErrEmptyCart        = errors.New("cart has no items")
	ErrInvalidQuantity  = errors.New("quantity must be between 1 and 1000")
	ErrAmountOverflow   = errors.New("cart total out of range")
	ErrProductNotFound  = errors.New("product not found")
	ErrVariantMismatch  = errors.New("variant does not belong to product")
	ErrInvalidCoupon    = errors.New("coupon is invalid or expired")
	errNilCatalogReader = errors.New("catalog reader required")
)

// LineItem is one requested cart line.
type LineItem struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// Totals is the money breakdown shared by orders and payment intents.
type Totals struct {
	SubtotalCents int64 `json:"subtotalCents"`
	DiscountCents int64 `json:"discountCents"`
	ShippingCents int64 `json:"shippingCents"`
	TotalCents    int64 `json:"totalCents"`
}

// PricedLine pairs a cart line with the catalog rows and the unit price it resolved to.
type PricedLine struct {
	Item           LineItem
	Product        *models.Product
	Variant        *models.Variant
	UnitPriceCents int64
	LineTotalCents int64
}

// Quote is the result of pricing a cart.
type Quote struct {
	Totals
	Lines      []PricedLine
	CouponCode *string
}

// CatalogReader loads catalog rows. Both methods return (nil, nil) when the row is absent.
type CatalogReader interface {
	ActiveProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Variant(ctx context.Context, id uuid.UUID) (*models.Variant, error)
}

// CouponResolver returns the currently valid coupon for a code, or nil.
type CouponResolver interface {
	Resolve(ctx context.Context, code string) (*models.Coupon, error)
}

// Engine prices carts against the current catalog and coupon state. It never writes.
type Engine struct {
	catalog CatalogReader
	coupons CouponResolver
}

func NewEngine(catalog CatalogReader, resolver CouponResolver) (*Engine, error) {
	if catalog == nil {
		return nil, errNilCatalogReader
	}
	return &Engine{catalog: catalog, coupons: resolver}, nil
}

// PriceCart resolves every line's unit price, applies the coupon (if any) and
// derives shipping and total.
func (e *Engine) PriceCart(ctx context.Context, items []LineItem, couponCode string) (*Quote, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	quote := &Quote{Lines: make([]PricedLine, 0, len(items))}
	var subtotal int64
	for _, item := range items {
		line, err := e.priceLine(ctx, item)
		if err != nil {
			return nil, err
		}
		if line.LineTotalCents > math.MaxInt64-subtotal {
			return nil, ErrAmountOverflow
		}
		subtotal += line.LineTotalCents
		quote.Lines = append(quote.Lines, *line)
	}

	var coupon *models.Coupon
	if code := coupons.Normalize(couponCode); code != "" {
		if e.coupons == nil {
			return nil, ErrInvalidCoupon
		}
		resolved, err := e.coupons.Resolve(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("resolve coupon: %w", err)
		}
		if resolved == nil {
			return nil, ErrInvalidCoupon
		}
		coupon = resolved
		quote.CouponCode = &code
	}

	quote.Totals = Summarize(subtotal, coupon)
	return quote, nil
}

func (e *Engine) priceLine(ctx context.Context, item LineItem) (*PricedLine, error) {
	if item.Quantity < 1 || item.Quantity > MaxQuantity {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, item.Quantity)
	}
	product, err := e.catalog.ActiveProduct(ctx, item.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", item.ProductID, err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, item.ProductID)
	}

	var variant *models.Variant
	if item.VariantID != nil {
		variant, err = e.catalog.Variant(ctx, *item.VariantID)
		if err != nil {
			return nil, fmt.Errorf("load variant %s: %w", *item.VariantID, err)
		}
		if variant == nil || variant.ProductID != product.ID {
			return nil, fmt.Errorf("%w: %s", ErrVariantMismatch, *item.VariantID)
		}
	}

	unit := UnitPrice(product, variant)
	if unit > 0 && unit > math.MaxInt64/int64(item.Quantity) {
		return nil, ErrAmountOverflow
	}
	return &PricedLine{
		Item:           item,
		Product:        product,
		Variant:        variant,
		UnitPriceCents: unit,
		LineTotalCents: unit * int64(item.Quantity),
	}, nil
}

// UnitPrice applies variant override > sale price (only while on sale) > base price.
func UnitPrice(product *models.Product, variant *models.Variant) int64 {
	if variant != nil && variant.PriceCents != nil {
		return *variant.PriceCents
	}
	if product.IsSale && product.SalePriceCents != nil {
		return *product.SalePriceCents
	}
	return product.BasePriceCents
}

// Discount is floor(subtotal*percent/100) for percent coupons, otherwise
// min(subtotal, amountOff). Percent-off wins when both are set.
func Discount(subtotal int64, coupon *models.Coupon) int64 {
	if coupon == nil || subtotal <= 0 {
		return 0
	}
	if coupon.PercentOff != nil && *coupon.PercentOff > 0 {
		pct := int64(*coupon.PercentOff)
		if pct > 100 {
			pct = 100
		}
		return subtotal * pct / 100
	}
	if coupon.AmountOffCents != nil && *coupon.AmountOffCents > 0 {
		return min(subtotal, *coupon.AmountOffCents)
	}
	return 0
}

// Shipping is free only when the discounted subtotal exceeds the threshold.
func Shipping(discountedSubtotal int64) int64 {
	if discountedSubtotal > FreeShippingThresholdCents {
		return 0
	}
	return FlatShippingCents
}

// Summarize derives the full breakdown from a subtotal and an optional coupon.
func Summarize(subtotal int64, coupon *models.Coupon) Totals {
	discount := Discount(subtotal, coupon)
	shipping := Shipping(subtotal - discount)
	return Totals{
		SubtotalCents: subtotal,
		DiscountCents: discount,
		ShippingCents: shipping,
		TotalCents:    max(0, subtotal-discount+shipping),
	}
}
