package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aaracollective/storefront-backend/pkg/auth"
	"github.com/aaracollective/storefront-backend/pkg/config"
)

var testAuthConfig = config.AuthConfig{JWTSecret: "test-secret", Issuer: "https://id.test", AdminRole: "admin"}

type stubDirectory struct {
	meta  *auth.UserMetadata
	err   error
	calls int
}

func (s *stubDirectory) UserMetadata(context.Context, string) (*auth.UserMetadata, error) {
	s.calls++
	return s.meta, s.err
}

func sessionToken(t *testing.T, claims auth.SessionClaims) string {
	t.Helper()
	if claims.Subject == "" {
		claims.Subject = "user_1"
	}
	token, err := auth.MintSessionToken(testAuthConfig, time.Now(), time.Hour, claims)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func adminChain(directory UserDirectory) http.Handler {
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		w.Header().Set("X-User", p.UserID)
		w.WriteHeader(http.StatusNoContent)
	})
	return Auth(testAuthConfig, directory, nil)(RequireAdmin(testAuthConfig.AdminRole, nil)(final))
}

func TestAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	handler := adminChain(nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rec.Code)
	}
}

func TestRequireAdminUsesSessionClaimRole(t *testing.T) {
	handler := adminChain(nil)

	admin := sessionToken(t, auth.SessionClaims{
		PublicMetadata:   map[string]any{"role": "admin"},
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user_admin"},
	})
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected admin through, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-User"); got != "user_admin" {
		t.Fatalf("expected principal user id on context, got %q", got)
	}

	shopper := sessionToken(t, auth.SessionClaims{Metadata: map[string]any{"role": "customer"}})
	req = httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "bearer "+shopper)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}
}

func TestAuthDirectoryMetadataTakesPrecedence(t *testing.T) {
	directory := &stubDirectory{meta: &auth.UserMetadata{Private: map[string]any{"role": "admin"}}}
	handler := adminChain(directory)

	token := sessionToken(t, auth.SessionClaims{PublicMetadata: map[string]any{"role": "customer"}})
	req := httptest.NewRequest(http.MethodDelete, "/products/p1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected directory role to grant admin, got %d", rec.Code)
	}
	if directory.calls != 1 {
		t.Fatalf("expected one directory lookup, got %d", directory.calls)
	}
}

func TestAuthDirectoryFailureIsUpstreamError(t *testing.T) {
	handler := adminChain(&stubDirectory{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, auth.SessionClaims{}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 when identity provider fails, got %d", rec.Code)
	}
}

func TestRequireAdminWithoutPrincipal(t *testing.T) {
	handler := RequireAdmin("admin", nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler should not run")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
