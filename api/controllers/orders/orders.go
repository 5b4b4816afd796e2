package orders

import (
	"net/http"
	"strings"

	"github.com/aaracollective/storefront-backend/api/middleware"
	"github.com/aaracollective/storefront-backend/api/responses"
	"github.com/aaracollective/storefront-backend/api/validators"
	internalorders "github.com/aaracollective/storefront-backend/internal/orders"
	"github.com/aaracollective/storefront-backend/pkg/auth"
	"github.com/aaracollective/storefront-backend/pkg/enums"
	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
	"github.com/aaracollective/storefront-backend/pkg/logger"
	"github.com/aaracollective/storefront-backend/pkg/outbox"
)

// Create places an order without payment, committing stock immediately.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload OrderRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.ToInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AdminList returns orders newest first.
func AdminList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListOrders(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminDetail returns one order with its customer, address and items.
func AdminDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId", "order")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

type updateOrderRequest struct {
	Status        *string `json:"status,omitempty"`
	PaymentStatus *string `json:"paymentStatus,omitempty"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

func (r updateOrderRequest) toInput() (internalorders.UpdateOrderInput, error) {
	var input internalorders.UpdateOrderInput
	if r.Status != nil {
		status, err := enums.ParseOrderStatus(*r.Status)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = &status
	}
	if r.PaymentStatus != nil {
		status, err := enums.ParsePaymentStatus(*r.PaymentStatus)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid paymentStatus")
		}
		input.PaymentStatus = &status
	}
	if r.Notes != nil {
		notes := strings.TrimSpace(*r.Notes)
		input.Notes = &notes
	}
	return input, nil
}

// AdminUpdate patches status, payment status or notes. Cancelling releases held stock.
func AdminUpdate(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId", "order")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.UpdateOrder(r.Context(), orderID, input, actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// AdminDelete removes an order after releasing its held stock.
func AdminDelete(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId", "order")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteOrder(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func actorFromRequest(r *http.Request) *outbox.ActorRef {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		return nil
	}
	return &outbox.ActorRef{UserID: p.UserID, Role: auth.ResolveRole(*p)}
}
