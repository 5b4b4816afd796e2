package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/aaracollective/storefront-backend/internal/pricing"
	"github.com/aaracollective/storefront-backend/pkg/db/models"
	"github.com/aaracollective/storefront-backend/pkg/enums"
	"github.com/aaracollective/storefront-backend/pkg/money"
	"github.com/aaracollective/storefront-backend/pkg/pagination"
)

// NotesMaxLength bounds free-text order notes.
const NotesMaxLength = 2000

// ShippingInput is the address snapshot captured with an order.
type ShippingInput struct {
	FullName   string
	Email      string
	Phone      *string
	Address    string
	City       string
	Country    string
	PostalCode string
}

// CreateOrderInput is the validated order request shared by both creation paths.
type CreateOrderInput struct {
	Email      string
	Name       *string
	CouponCode string
	Notes      *string
	Shipping   ShippingInput
	Items      []pricing.LineItem
}

// CreateOrderResult answers POST /orders.
type CreateOrderResult struct {
	OrderID uuid.UUID `json:"orderId"`
	pricing.Totals
}

// UpdateOrderInput carries the admin PATCH fields; nil means unchanged.
type UpdateOrderInput struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	Notes         *string
}

// OrderSummaryDTO is one row of the admin order list.
type OrderSummaryDTO struct {
	ID            uuid.UUID           `json:"id"`
	CustomerName  *string             `json:"customerName,omitempty"`
	CustomerEmail *string             `json:"customerEmail,omitempty"`
	TotalCents    int64               `json:"totalCents"`
	DisplayTotal  string              `json:"displayTotal"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	ItemCount     int                 `json:"itemCount"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// OrderListResult is a page of admin order rows.
type OrderListResult struct {
	Items []OrderSummaryDTO `json:"items"`
	pagination.Meta
}

type CustomerDTO struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  *string   `json:"name,omitempty"`
}

type AddressDTO struct {
	FullName   string  `json:"fullName"`
	Email      string  `json:"email"`
	Phone      *string `json:"phone,omitempty"`
	Address    string  `json:"address"`
	City       string  `json:"city"`
	Country    string  `json:"country"`
	PostalCode string  `json:"postalCode"`
}

type OrderItemDTO struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      uuid.UUID  `json:"productId"`
	ProductName    string     `json:"productName,omitempty"`
	VariantID      *uuid.UUID `json:"variantId,omitempty"`
	Quantity       int        `json:"quantity"`
	UnitPriceCents int64      `json:"unitPriceCents"`
	LineTotalCents int64      `json:"lineTotalCents"`
}

// OrderDetailDTO is the admin order page payload.
type OrderDetailDTO struct {
	ID              uuid.UUID           `json:"id"`
	Status          enums.OrderStatus   `json:"status"`
	PaymentStatus   enums.PaymentStatus `json:"paymentStatus"`
	SubtotalCents   int64               `json:"subtotalCents"`
	DiscountCents   int64               `json:"discountCents"`
	ShippingCents   int64               `json:"shippingCents"`
	TotalCents      int64               `json:"totalCents"`
	DisplayTotal    string              `json:"displayTotal"`
	CouponCode      *string             `json:"couponCode,omitempty"`
	Notes           *string             `json:"notes,omitempty"`
	PaymentIntentID *string             `json:"paymentIntentId,omitempty"`
	Customer        *CustomerDTO        `json:"customer,omitempty"`
	Address         *AddressDTO         `json:"address,omitempty"`
	Items           []OrderItemDTO      `json:"items"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func newSummaryDTO(row *OrderRow, currency string) OrderSummaryDTO {
	dto := OrderSummaryDTO{
		ID:            row.ID,
		TotalCents:    row.TotalCents,
		DisplayTotal:  money.Format(row.TotalCents, currency),
		Status:        row.Status,
		PaymentStatus: row.PaymentStatus,
		ItemCount:     row.ItemCount,
		CreatedAt:     row.CreatedAt,
	}
	if row.Customer != nil {
		email := row.Customer.Email
		dto.CustomerEmail = &email
		dto.CustomerName = row.Customer.Name
	}
	return dto
}

func newDetailDTO(order *models.Order, currency string) *OrderDetailDTO {
	dto := &OrderDetailDTO{
		ID:              order.ID,
		Status:          order.Status,
		PaymentStatus:   order.PaymentStatus,
		SubtotalCents:   order.SubtotalCents,
		DiscountCents:   order.DiscountCents,
		ShippingCents:   order.ShippingCents,
		TotalCents:      order.TotalCents,
		DisplayTotal:    money.Format(order.TotalCents, currency),
		CouponCode:      order.CouponCode,
		Notes:           order.Notes,
		PaymentIntentID: order.PaymentIntentID,
		Items:           make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	if c := order.Customer; c != nil {
		dto.Customer = &CustomerDTO{ID: c.ID, Email: c.Email, Name: c.Name}
	}
	if a := order.Address; a != nil {
		dto.Address = &AddressDTO{
			FullName:   a.FullName,
			Email:      a.Email,
			Phone:      a.Phone,
			Address:    a.Line1,
			City:       a.City,
			Country:    a.Country,
			PostalCode: a.PostalCode,
		}
	}
	for _, item := range order.Items {
		itemDTO := OrderItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotalCents,
		}
		if item.Product != nil {
			itemDTO.ProductName = item.Product.Name
		}
		dto.Items = append(dto.Items, itemDTO)
	}
	return dto
}
