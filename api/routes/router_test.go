package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stripe/stripe-go/v84"

	"github.com/aaracollective/storefront-backend/internal/catalog"
	checkoutsvc "github.com/aaracollective/storefront-backend/internal/checkout"
	"github.com/aaracollective/storefront-backend/internal/coupons"
	"github.com/aaracollective/storefront-backend/internal/orders"
	"github.com/aaracollective/storefront-backend/internal/pricing"
	"github.com/aaracollective/storefront-backend/pkg/auth"
	"github.com/aaracollective/storefront-backend/pkg/config"
	"github.com/aaracollective/storefront-backend/pkg/metrics"
	"github.com/aaracollective/storefront-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type memoryRedis struct {
	mu      sync.Mutex
	values  map[string]string
	windows map[string]int64
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{values: map[string]string{}, windows: map[string]int64{}}
}

func (m *memoryRedis) Ping(context.Context) error { return nil }

func (m *memoryRedis) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows[scope]++
	return m.windows[scope] <= limit, m.windows[scope], nil
}

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string { return scope + ":" + id }

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

type stubCatalog struct{ catalog.Service }

func (stubCatalog) ListProducts(context.Context, catalog.ListProductsInput) (*catalog.ProductListResult, error) {
	return &catalog.ProductListResult{Items: []catalog.ProductSummaryDTO{}}, nil
}

func (stubCatalog) CreateProduct(_ context.Context, in catalog.CreateProductInput) (*catalog.ProductDetailDTO, error) {
	return &catalog.ProductDetailDTO{ProductSummaryDTO: catalog.ProductSummaryDTO{ID: uuid.New(), Name: in.Name}}, nil
}

func (stubCatalog) ListCategories(context.Context) ([]catalog.CategoryDTO, error) {
	return []catalog.CategoryDTO{{ID: uuid.New(), Name: "Jewellery", Slug: "jewellery"}}, nil
}

type stubCoupons struct{}

func (stubCoupons) Validate(context.Context, string) (*coupons.ValidationResult, error) {
	return &coupons.ValidationResult{}, nil
}

type stubOrders struct {
	orders.Service
	mu      sync.Mutex
	created int
}

func (s *stubOrders) CreateOrder(context.Context, orders.CreateOrderInput) (*orders.CreateOrderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created++
	return &orders.CreateOrderResult{OrderID: uuid.New(), Totals: pricing.Totals{TotalCents: 3100}}, nil
}

func (s *stubOrders) ListOrders(_ context.Context, p pagination.Params) (*orders.OrderListResult, error) {
	return &orders.OrderListResult{Items: []orders.OrderSummaryDTO{}, Meta: pagination.NewMeta(p, 0)}, nil
}

type stubCheckout struct{}

func (stubCheckout) CreateIntent(context.Context, orders.CreateOrderInput) (*checkoutsvc.IntentResult, error) {
	return &checkoutsvc.IntentResult{ClientSecret: "secret", OrderID: uuid.New()}, nil
}

type stubWebhooks struct{}

func (stubWebhooks) HandleEvent(context.Context, *stripe.Event) error { return nil }
func (stubWebhooks) Record(string, string)                            {}

type stubSigning struct{}

func (stubSigning) SigningSecret() string { return "whsec_test" }

type stubGuard struct{}

func (stubGuard) CheckAndMark(context.Context, string) (bool, error) { return false, nil }
func (stubGuard) Delete(context.Context, string) error               { return nil }

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Env: "dev"},
		Auth: config.AuthConfig{JWTSecret: "router-secret", AdminRole: "admin"},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Redis: config.RedisConfig{
			IdempotencyTTL:    time.Hour,
			RateLimitWindow:   time.Minute,
			GlobalRateLimit:   1000,
			CheckoutRateLimit: 2,
		},
		Stripe: config.StripeConfig{Currency: "sgd"},
	}
}

func newTestRouter(t *testing.T, ordersSvc *stubOrders) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	metrics.NewCheckoutMetrics(reg).IncOrder("direct")
	return NewRouter(Params{
		Config:         cfg,
		DB:             stubPinger{},
		Redis:          newMemoryRedis(),
		Metrics:        metrics.Handler(reg),
		Catalog:        stubCatalog{},
		Coupons:        stubCoupons{},
		Orders:         ordersSvc,
		Checkout:       stubCheckout{},
		StripeWebhooks: stubWebhooks{},
		StripeSigning:  stubSigning{},
		WebhookGuard:   stubGuard{},
	}), cfg
}

func adminToken(t *testing.T, cfg *config.Config, role string) string {
	t.Helper()
	token, err := auth.MintSessionToken(cfg.Auth, time.Now(), time.Hour, auth.SessionClaims{
		PublicMetadata:   map[string]any{"role": role},
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user_" + role},
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func serve(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPublicRoutes(t *testing.T) {
	router, _ := newTestRouter(t, &stubOrders{})

	for _, path := range []string{"/health/live", "/health/ready", "/products", "/categories", "/coupons/DISCOUNT20"} {
		if rec := serve(router, http.MethodGet, path, "", nil); rec.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d (%s)", path, rec.Code, rec.Body.String())
		}
	}

	rec := serve(router, http.MethodGet, "/categories", "", nil)
	if !strings.Contains(rec.Body.String(), `"slug":"jewellery"`) {
		t.Fatalf("expected categories payload, got %s", rec.Body.String())
	}

	rec = serve(router, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "orders_created_total") {
		t.Fatalf("expected metrics exposition, got %d", rec.Code)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	router, cfg := newTestRouter(t, &stubOrders{})

	if rec := serve(router, http.MethodGet, "/orders", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	customer := map[string]string{"Authorization": "Bearer " + adminToken(t, cfg, "customer")}
	if rec := serve(router, http.MethodGet, "/orders", "", customer); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}
	admin := map[string]string{"Authorization": "Bearer " + adminToken(t, cfg, "admin")}
	if rec := serve(router, http.MethodGet, "/orders", "", admin); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d (%s)", rec.Code, rec.Body.String())
	}
	rec := serve(router, http.MethodPost, "/products", `{"name":"Ring","basePriceCents":100}`, admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating product, got %d (%s)", rec.Code, rec.Body.String())
	}
	if rec := serve(router, http.MethodPost, "/products", `{"name":"Ring","basePriceCents":100}`, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected product creation to require auth, got %d", rec.Code)
	}
}

const orderBody = `{"shipping":{"fullName":"Ada","email":"ada@example.com","address":"1 Main St","city":"Singapore","country":"SG","postalCode":"018956"},"items":[{"productId":"2b1f4a56-8f7d-4f1c-a3a4-5e3c8b7f9d10","quantity":1}]}`

func TestCreateOrderIsIdempotentByKey(t *testing.T) {
	ordersSvc := &stubOrders{}
	router, _ := newTestRouter(t, ordersSvc)
	headers := map[string]string{"Idempotency-Key": "order-key-1"}

	first := serve(router, http.MethodPost, "/orders", orderBody, headers)
	second := serve(router, http.MethodPost, "/orders", orderBody, headers)
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected 201 twice, got %d and %d", first.Code, second.Code)
	}
	if ordersSvc.created != 1 {
		t.Fatalf("expected a single order, got %d", ordersSvc.created)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("expected replayed body")
	}
}

func TestCheckoutIsRateLimited(t *testing.T) {
	router, _ := newTestRouter(t, &stubOrders{})
	body := strings.Replace(orderBody, `{"shipping"`, `{"email":"a@example.com","shipping"`, 1)

	for i := 0; i < 2; i++ {
		if rec := serve(router, http.MethodPost, "/checkout/create-intent", body, nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d (%s)", i+1, rec.Code, rec.Body.String())
		}
	}
	if rec := serve(router, http.MethodPost, "/checkout/create-intent", body, nil); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after checkout limit, got %d", rec.Code)
	}
}

func TestWebhookRejectsUnsignedPayload(t *testing.T) {
	router, _ := newTestRouter(t, &stubOrders{})
	rec := serve(router, http.MethodPost, "/checkout/webhook", `{"id":"evt_1"}`, map[string]string{"Stripe-Signature": "t=1,v1=bad"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestIdentityWebhookUnavailableWithoutDirectory(t *testing.T) {
	router, _ := newTestRouter(t, &stubOrders{})
	rec := serve(router, http.MethodPost, "/webhooks/identity", `{"type":"user.created"}`, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
