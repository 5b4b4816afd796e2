package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products for browsing, addressed publicly by slug.
type Category struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Slug      string    `gorm:"column:slug;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Product is a catalog listing. Prices are integer minor units.
type Product struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name           string         `gorm:"column:name;not null"`
	Subtitle       *string        `gorm:"column:subtitle"`
	Description    *string        `gorm:"column:description"`
	BasePriceCents int64          `gorm:"column:base_price_cents;not null"`
	SalePriceCents *int64         `gorm:"column:sale_price_cents"`
	IsActive       bool           `gorm:"column:is_active;not null"`
	IsSale         bool           `gorm:"column:is_sale;not null"`
	IsNew          bool           `gorm:"column:is_new;not null"`
	IsBestSeller   bool           `gorm:"column:is_best_seller;not null"`
	Popularity     int            `gorm:"column:popularity;not null;default:0"`
	CategoryID     *uuid.UUID     `gorm:"column:category_id;type:uuid;index"`
	Category       *Category      `gorm:"foreignKey:CategoryID"`
	Images         []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Variants       []Variant      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductImage is an ordered gallery entry.
type ProductImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	URL       string    `gorm:"column:url;not null"`
	Alt       *string   `gorm:"column:alt"`
	Position  int       `gorm:"column:position;not null"`
}

// Variant is a purchasable option of a product with its own stock.
// Stock counts units still available to sell; held units are tracked in StockReservation.
type Variant struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	SKU        string    `gorm:"column:sku;not null;uniqueIndex"`
	Name       string    `gorm:"column:name;not null"`
	PriceCents *int64    `gorm:"column:price_cents"`
	Stock      int       `gorm:"column:stock;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Coupon is a discount code. Code is stored normalized (trimmed, uppercase).
type Coupon struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Code           string     `gorm:"column:code;not null;uniqueIndex"`
	Active         bool       `gorm:"column:active;not null"`
	PercentOff     *int       `gorm:"column:percent_off"`
	AmountOffCents *int64     `gorm:"column:amount_off_cents"`
	StartsAt       *time.Time `gorm:"column:starts_at"`
	EndsAt         *time.Time `gorm:"column:ends_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
