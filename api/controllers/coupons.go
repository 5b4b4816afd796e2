package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aaracollective/storefront-backend/api/responses"
	"github.com/aaracollective/storefront-backend/api/validators"
	"github.com/aaracollective/storefront-backend/internal/coupons"
	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
	"github.com/aaracollective/storefront-backend/pkg/logger"
)

const maxCouponCodeLen = 64

// CouponValidate answers {valid, coupon?}. Unknown or expired codes are valid=false, not 404.
func CouponValidate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}
		code := validators.SanitizeString(chi.URLParam(r, "code"), maxCouponCodeLen)
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required"))
			return
		}
		result, err := svc.Validate(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "validate coupon"))
			return
		}
		responses.WriteSuccess(w, result)
	}
}
