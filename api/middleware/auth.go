package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/aaracollective/storefront-backend/api/responses"
	"github.com/aaracollective/storefront-backend/pkg/auth"
	"github.com/aaracollective/storefront-backend/pkg/config"
	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
	"github.com/aaracollective/storefront-backend/pkg/logger"
)

// UserDirectory fetches a user's stored metadata from the identity provider.
type UserDirectory interface {
	UserMetadata(ctx context.Context, userID string) (*auth.UserMetadata, error)
}

// Auth verifies the bearer session token and seeds the request context with
// the principal. directory may be nil, in which case only session claims are used.
func Auth(cfg config.AuthConfig, directory UserDirectory, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := auth.ParseSessionToken(cfg, token)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session token"))
				return
			}

			principal := &auth.Principal{UserID: claims.Subject, Email: claims.Email, Claims: claims}
			if directory != nil {
				meta, err := directory.UserMetadata(ctx, claims.Subject)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "identity provider unavailable"))
					return
				}
				principal.User = meta
			}

			ctx = WithPrincipal(ctx, principal)
			if logg != nil {
				ctx = logg.WithUserID(ctx, principal.UserID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects principals whose resolved role is not adminRole.
func RequireAdmin(adminRole string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if !auth.IsAdmin(*p, adminRole) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) string {
	token := strings.TrimSpace(header)
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
