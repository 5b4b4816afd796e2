package webhooks

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	identitywebhook "github.com/aaracollective/storefront-backend/internal/webhooks/identity"
	"github.com/aaracollective/storefront-backend/pkg/auth"
	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
	"github.com/aaracollective/storefront-backend/pkg/identity"
)

var identityKey = []byte("identity-signing-key")

func identitySecret() string {
	return "whsec_" + base64.StdEncoding.EncodeToString(identityKey)
}

type fakeIdentityService struct {
	events []identitywebhook.Event
	err    error
}

func (f *fakeIdentityService) HandleEvent(_ context.Context, event *identitywebhook.Event) error {
	f.events = append(f.events, *event)
	return f.err
}

type memoryDirectory struct {
	public map[string]map[string]any
}

func (d *memoryDirectory) UserMetadata(_ context.Context, userID string) (*auth.UserMetadata, error) {
	return &auth.UserMetadata{Public: d.public[userID]}, nil
}

func (d *memoryDirectory) UpdateUserMetadata(_ context.Context, userID string, public map[string]any) error {
	d.public[userID] = public
	return nil
}

func postIdentity(handler http.Handler, payload []byte, signed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/identity", bytes.NewReader(payload))
	if signed {
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		req.Header.Set(identity.HeaderWebhookID, "msg_1")
		req.Header.Set(identity.HeaderWebhookTimestamp, ts)
		req.Header.Set(identity.HeaderWebhookSignature, "v1,"+identity.SignWebhook(identityKey, "msg_1", ts, payload))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIdentityWebhook_SeedsRoleForNewUser(t *testing.T) {
	dir := &memoryDirectory{public: map[string]map[string]any{}}
	svc, err := identitywebhook.NewService(identitywebhook.ServiceParams{Directory: dir})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	handler := IdentityWebhook(svc, identitySecret(), nil)

	rec := postIdentity(handler, []byte(`{"type":"user.created","data":{"id":"user_42"}}`), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if dir.public["user_42"]["role"] != "user" {
		t.Fatalf("expected role seeded, got %v", dir.public["user_42"])
	}
}

func TestIdentityWebhook_RejectsUnsignedDelivery(t *testing.T) {
	service := &fakeIdentityService{}
	handler := IdentityWebhook(service, identitySecret(), nil)

	rec := postIdentity(handler, []byte(`{"type":"user.created","data":{"id":"user_1"}}`), false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(service.events) != 0 {
		t.Fatalf("service must not run for an unsigned delivery")
	}
}

func TestIdentityWebhook_SurfacesServiceFailure(t *testing.T) {
	service := &fakeIdentityService{err: pkgerrors.Wrap(pkgerrors.CodeUpstream, errors.New("down"), "identity request failed")}
	handler := IdentityWebhook(service, identitySecret(), nil)

	rec := postIdentity(handler, []byte(`{"type":"user.created","data":{"id":"user_1"}}`), true)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 so the provider retries, got %d", rec.Code)
	}
}

func TestIdentityWebhook_NotConfigured(t *testing.T) {
	rec := postIdentity(IdentityWebhook(&fakeIdentityService{}, "", nil), []byte(`{}`), true)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
