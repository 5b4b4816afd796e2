package middleware

import (
	"context"

	"github.com/aaracollective/storefront-backend/pkg/auth"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// WithPrincipal stores the authenticated caller on ctx.
func WithPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}

// PrincipalFromContext returns the caller set by Auth, or nil on public routes.
func PrincipalFromContext(ctx context.Context) *auth.Principal {
	if ctx == nil {
		return nil
	}
	p, _ := ctx.Value(ctxPrincipal).(*auth.Principal)
	return p
}

func UserIDFromContext(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.UserID
	}
	return ""
}
