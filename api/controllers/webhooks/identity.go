package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/aaracollective/storefront-backend/api/responses"
	identitywebhook "github.com/aaracollective/storefront-backend/internal/webhooks/identity"
	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
	"github.com/aaracollective/storefront-backend/pkg/identity"
	"github.com/aaracollective/storefront-backend/pkg/logger"
)

type IdentityWebhookService interface {
	HandleEvent(ctx context.Context, event *identitywebhook.Event) error
}

// IdentityWebhook verifies user lifecycle deliveries from the identity provider
// and hands them to svc. It needs the raw body for the signature check.
func IdentityWebhook(svc IdentityWebhookService, secret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || secret == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "identity webhook not configured"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		if err := identity.VerifyWebhook(secret, r.Header, payload, time.Now()); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identity webhook signature"))
			return
		}

		var event identitywebhook.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode identity event"))
			return
		}
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"identity_delivery_id": r.Header.Get(identity.HeaderWebhookID),
				"identity_event_type":  event.Type,
			})
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}
