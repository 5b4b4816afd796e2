package orders

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aaracollective/storefront-backend/api/validators"
	internalorders "github.com/aaracollective/storefront-backend/internal/orders"
	"github.com/aaracollective/storefront-backend/internal/pricing"
	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
)

// OrderRequest is the body shared by POST /orders and POST /checkout/create-intent.
type OrderRequest struct {
	Email      string          `json:"email" validate:"omitempty,email,max=254"`
	Name       *string         `json:"name,omitempty" validate:"omitempty,max=200"`
	CouponCode *string         `json:"couponCode,omitempty" validate:"omitempty,max=64"`
	Notes      *string         `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Shipping   ShippingRequest `json:"shipping"`
	Items      []ItemRequest   `json:"items" validate:"required,min=1,dive"`
}

type ShippingRequest struct {
	FullName   string  `json:"fullName" validate:"required,max=200"`
	Email      string  `json:"email" validate:"required,email,max=254"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Address    string  `json:"address" validate:"required,max=500"`
	City       string  `json:"city" validate:"required,max=120"`
	Country    string  `json:"country" validate:"required,max=120"`
	PostalCode string  `json:"postalCode" validate:"required,max=20"`
}

type ItemRequest struct {
	ProductID string  `json:"productId" validate:"required,uuid"`
	VariantID *string `json:"variantId,omitempty" validate:"omitempty,uuid"`
	Quantity  int     `json:"quantity" validate:"min=1,max=1000"`
}

// RequireEmail enforces the buyer email for flows that bill the customer.
func (r OrderRequest) RequireEmail() error {
	if strings.TrimSpace(r.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"email": "is required"})
	}
	return nil
}

// ToInput converts the validated request into the order manager input.
func (r OrderRequest) ToInput() (internalorders.CreateOrderInput, error) {
	input := internalorders.CreateOrderInput{
		Email: strings.TrimSpace(r.Email),
		Name:  validators.OptionalString(r.Name),
		Notes: validators.OptionalString(r.Notes),
		Shipping: internalorders.ShippingInput{
			FullName:   strings.TrimSpace(r.Shipping.FullName),
			Email:      strings.TrimSpace(r.Shipping.Email),
			Phone:      validators.OptionalString(r.Shipping.Phone),
			Address:    strings.TrimSpace(r.Shipping.Address),
			City:       strings.TrimSpace(r.Shipping.City),
			Country:    strings.TrimSpace(r.Shipping.Country),
			PostalCode: strings.TrimSpace(r.Shipping.PostalCode),
		},
		Items: make([]pricing.LineItem, 0, len(r.Items)),
	}
	if code := validators.OptionalString(r.CouponCode); code != nil {
		input.CouponCode = *code
	}
	for i, item := range r.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return input, itemError(i, "productId")
		}
		line := pricing.LineItem{ProductID: productID, Quantity: item.Quantity}
		if item.VariantID != nil && strings.TrimSpace(*item.VariantID) != "" {
			variantID, err := uuid.Parse(strings.TrimSpace(*item.VariantID))
			if err != nil {
				return input, itemError(i, "variantId")
			}
			line.VariantID = &variantID
		}
		input.Items = append(input.Items, line)
	}
	return input, nil
}

func itemError(index int, field string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{fmt.Sprintf("items[%d].%s", index, field): "must be a valid id"})
}
