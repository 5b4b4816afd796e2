package payloads

import (
	"time"

	"github.com/google/uuid"
)

// OrderCreatedEvent is emitted when an order row is first persisted.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID `json:"orderId"`
	Email         string    `json:"email,omitempty"`
	Source        string    `json:"source"`
	SubtotalCents int64     `json:"subtotalCents"`
	DiscountCents int64     `json:"discountCents"`
	ShippingCents int64     `json:"shippingCents"`
	TotalCents    int64     `json:"totalCents"`
	CouponCode    *string   `json:"couponCode,omitempty"`
	ItemCount     int       `json:"itemCount"`
}

// OrderPaidEvent is emitted once the processor confirms the charge.
type OrderPaidEvent struct {
	OrderID         uuid.UUID `json:"orderId"`
	PaymentIntentID string    `json:"paymentIntentId"`
	AmountCents     int64     `json:"amountCents"`
	Currency        string    `json:"currency"`
	PaidAt          time.Time `json:"paidAt"`
	Oversold        bool      `json:"oversold,omitempty"`
}

// PaymentFailedEvent reports a failed charge attempt. The order stays PENDING.
type PaymentFailedEvent struct {
	OrderID         uuid.UUID `json:"orderId"`
	PaymentIntentID string    `json:"paymentIntentId"`
	Reason          string    `json:"reason,omitempty"`
}

// OrderCanceledEvent is emitted when an order is cancelled by an admin or by hold expiry.
type OrderCanceledEvent struct {
	OrderID         uuid.UUID `json:"orderId"`
	Reason          string    `json:"reason"`
	CanceledAt      time.Time `json:"canceledAt"`
	ReleasedUnits   int       `json:"releasedUnits"`
	PreviousStatus  string    `json:"previousStatus,omitempty"`
	PaymentIntentID *string   `json:"paymentIntentId,omitempty"`
}
