package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/aaracollective/storefront-backend/internal/orders"
	stripewebhook "github.com/aaracollective/storefront-backend/internal/webhooks/stripe"
)

const testSigningSecret = "whsec_test"

func TestStripeWebhook_SuccessAndIdempotent(t *testing.T) {
	payload, header := buildSignedEvent(t, uuid.New())
	service := &fakeStripeWebhookService{}
	guard := newGuard(t)
	handler := StripeWebhook(service, &fakeSigningClient{secret: testSigningSecret}, guard, nil)

	rec := postWebhook(handler, payload, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected service called once, got %d", service.calls)
	}

	rec = postWebhook(handler, payload, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected duplicate not processed, call count %d", service.calls)
	}
	if len(service.recorded) != 1 || service.recorded[0] != "payment_intent.succeeded:duplicate" {
		t.Fatalf("expected duplicate outcome recorded, got %v", service.recorded)
	}
}

func TestStripeWebhook_InvalidSignatureIsBadRequest(t *testing.T) {
	payload, _ := buildSignedEvent(t, uuid.New())
	service := &fakeStripeWebhookService{}
	handler := StripeWebhook(service, &fakeSigningClient{secret: testSigningSecret}, newGuard(t), nil)

	rec := postWebhook(handler, payload, "t=1,v1=invalid")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid signature, got %d", rec.Code)
	}

	rec = postWebhook(handler, payload, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing signature, got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatalf("service should not be invoked on invalid signature")
	}
}

func TestStripeWebhook_FailureReleasesGuardForRetry(t *testing.T) {
	payload, header := buildSignedEvent(t, uuid.New())
	service := &fakeStripeWebhookService{err: errors.New("db unavailable")}
	handler := StripeWebhook(service, &fakeSigningClient{secret: testSigningSecret}, newGuard(t), nil)

	rec := postWebhook(handler, payload, header)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 so the processor retries, got %d", rec.Code)
	}

	service.err = nil
	rec = postWebhook(handler, payload, header)
	if rec.Code != http.StatusOK || service.calls != 2 {
		t.Fatalf("expected retry to be processed, got %d after %d calls", rec.Code, service.calls)
	}
}

func TestStripeWebhook_ReconcilesOrderEndToEnd(t *testing.T) {
	orderID := uuid.New()
	reconciler := &recordingReconciler{}
	svc, err := stripewebhook.NewService(stripewebhook.ServiceParams{Orders: reconciler})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	handler := StripeWebhook(svc, &fakeSigningClient{secret: testSigningSecret}, newGuard(t), nil)

	payload, header := buildSignedEvent(t, orderID)
	rec := postWebhook(handler, payload, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(reconciler.confirmed) != 1 || reconciler.confirmed[0] != orderID {
		t.Fatalf("expected order %s confirmed, got %v", orderID, reconciler.confirmed)
	}
}

func postWebhook(handler http.Handler, payload []byte, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/checkout/webhook", bytes.NewReader(payload))
	if header != "" {
		req.Header.Set("Stripe-Signature", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func newGuard(t *testing.T) *stripewebhook.IdempotencyGuard {
	t.Helper()
	guard, err := stripewebhook.NewIdempotencyGuard(newInMemoryStore(), time.Minute)
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	return guard
}

func buildSignedEvent(t *testing.T, orderID uuid.UUID) ([]byte, string) {
	t.Helper()
	intent := &stripe.PaymentIntent{
		ID:       "pi_" + uuid.NewString(),
		Amount:   3100,
		Currency: stripe.Currency("sgd"),
		Status:   stripe.PaymentIntentStatusSucceeded,
		Metadata: map[string]string{"orderId": orderID.String()},
	}
	rawIntent, err := json.Marshal(intent)
	if err != nil {
		t.Fatalf("marshal payment intent: %v", err)
	}
	event := &stripe.Event{
		ID:         "evt_" + uuid.NewString(),
		Type:       stripe.EventTypePaymentIntentSucceeded,
		Object:     "event",
		APIVersion: stripe.APIVersion,
		Data:       &stripe.EventData{Raw: rawIntent},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload, buildStripeSignatureHeader(payload, testSigningSecret, time.Now().Unix())
}

func buildStripeSignatureHeader(payload []byte, secret string, ts int64) string {
	signedPayload := fmt.Sprintf("%d.%s", ts, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

type fakeStripeWebhookService struct {
	calls    int
	err      error
	recorded []string
}

func (f *fakeStripeWebhookService) HandleEvent(context.Context, *stripe.Event) error {
	f.calls++
	return f.err
}

func (f *fakeStripeWebhookService) Record(eventType, result string) {
	f.recorded = append(f.recorded, eventType+":"+result)
}

type recordingReconciler struct {
	confirmed []uuid.UUID
}

func (r *recordingReconciler) ConfirmPayment(_ context.Context, input orders.PaymentConfirmation) (bool, error) {
	r.confirmed = append(r.confirmed, input.OrderID)
	return true, nil
}

func (r *recordingReconciler) RecordPaymentFailure(context.Context, orders.PaymentFailure) (bool, error) {
	return true, nil
}

type fakeSigningClient struct {
	secret string
}

func (c *fakeSigningClient) SigningSecret() string {
	return c.secret
}

type inMemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{data: make(map[string]string)}
}

func (s *inMemoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *inMemoryStore) WebhookEventKey(provider, eventID string) string {
	return fmt.Sprintf("sf:webhook:%s:%s", provider, eventID)
}

func (s *inMemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}
