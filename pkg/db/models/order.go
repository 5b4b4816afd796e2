package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aaracollective/storefront-backend/pkg/enums"
)

// Customer is upserted by email on checkout.
type Customer struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;not null;uniqueIndex"`
	Name      *string   `gorm:"column:name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Address is a per-order shipping snapshot, never shared between orders.
type Address struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	FullName   string    `gorm:"column:full_name;not null"`
	Email      string    `gorm:"column:email;not null"`
	Phone      *string   `gorm:"column:phone"`
	Line1      string    `gorm:"column:line1;not null"`
	City       string    `gorm:"column:city;not null"`
	Country    string    `gorm:"column:country;not null"`
	PostalCode string    `gorm:"column:postal_code;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Order is the aggregate root of a purchase. Money columns are minor units and
// satisfy total = max(0, subtotal - discount + shipping).
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID      *uuid.UUID          `gorm:"column:customer_id;type:uuid;index"`
	Customer        *Customer           `gorm:"foreignKey:CustomerID"`
	AddressID       uuid.UUID           `gorm:"column:address_id;type:uuid;not null"`
	Address         *Address            `gorm:"foreignKey:AddressID"`
	Status          enums.OrderStatus   `gorm:"column:status;not null;index"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;not null"`
	SubtotalCents   int64               `gorm:"column:subtotal_cents;not null"`
	DiscountCents   int64               `gorm:"column:discount_cents;not null"`
	ShippingCents   int64               `gorm:"column:shipping_cents;not null"`
	TotalCents      int64               `gorm:"column:total_cents;not null"`
	CouponCode      *string             `gorm:"column:coupon_code"`
	Notes           *string             `gorm:"column:notes"`
	PaymentIntentID *string             `gorm:"column:payment_intent_id;index"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem freezes the unit price at creation time; later catalog price
// changes never touch it.
type OrderItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index"`
	Product        *Product   `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	VariantID      *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	Quantity       int        `gorm:"column:quantity;not null"`
	UnitPriceCents int64      `gorm:"column:unit_price_cents;not null"`
	LineTotalCents int64      `gorm:"column:line_total_cents;not null"`
}

// StockReservation holds variant units for an order awaiting payment.
type StockReservation struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID uuid.UUID               `gorm:"column:variant_id;type:uuid;not null"`
	Quantity  int                     `gorm:"column:quantity;not null"`
	Status    enums.ReservationStatus `gorm:"column:status;not null;index"`
	ExpiresAt time.Time               `gorm:"column:expires_at;not null;index"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
