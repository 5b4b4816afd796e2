package controllers

import (
	"net/http"

	ordercontrollers "github.com/aaracollective/storefront-backend/api/controllers/orders"
	"github.com/aaracollective/storefront-backend/api/responses"
	"github.com/aaracollective/storefront-backend/api/validators"
	checkoutsvc "github.com/aaracollective/storefront-backend/internal/checkout"
	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
	"github.com/aaracollective/storefront-backend/pkg/logger"
)

// CheckoutCreateIntent holds stock for the cart and returns the payment
// intent client secret the storefront confirms against.
func CheckoutCreateIntent(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload ordercontrollers.OrderRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := payload.RequireEmail(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.ToInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateIntent(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
