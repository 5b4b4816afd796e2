package orders

import (
	"errors"

	"gorm.io/gorm"

	"github.com/aaracollective/storefront-backend/internal/inventory"
	"github.com/aaracollective/storefront-backend/internal/pricing"
	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
)

// ErrVariantMismatch is returned when a cart line names a variant of another product.
var ErrVariantMismatch = pricing.ErrVariantMismatch

// ToAPIError maps domain sentinels to typed errors carrying an actionable message.
func ToAPIError(err error, fallback string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	switch {
	case errors.Is(err, pricing.ErrEmptyCart), errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrAmountOverflow):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	case errors.Is(err, pricing.ErrInvalidCoupon):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon")
	case errors.Is(err, pricing.ErrProductNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, err.Error())
	case errors.Is(err, ErrVariantMismatch):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, err.Error())
	case errors.Is(err, inventory.ErrInsufficientStock):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fallback)
}
