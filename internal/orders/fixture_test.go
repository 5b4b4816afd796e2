package orders

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/aaracollective/storefront-backend/internal/catalog"
	"github.com/aaracollective/storefront-backend/internal/coupons"
	"github.com/aaracollective/storefront-backend/internal/customers"
	"github.com/aaracollective/storefront-backend/internal/inventory"
	"github.com/aaracollective/storefront-backend/internal/pricing"
	"github.com/aaracollective/storefront-backend/pkg/db"
	"github.com/aaracollective/storefront-backend/pkg/db/dbtest"
	"github.com/aaracollective/storefront-backend/pkg/db/models"
	"github.com/aaracollective/storefront-backend/pkg/enums"
	"github.com/aaracollective/storefront-backend/pkg/outbox"
)

type fixture struct {
	client  *db.Client
	conn    *gorm.DB
	manager *Manager
	svc     Service
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	conn := client.DB()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	inv := inventory.NewRepository(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), nil)
	manager, err := NewManager(ManagerDeps{
		Orders:    NewRepository(conn),
		Catalog:   catalog.NewRepository(conn),
		Coupons:   coupons.NewRepository(conn),
		Customers: customers.NewRepository(conn),
		Inventory: inv,
		Outbox:    emitter,
		Now:       clock,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(conn),
		DB:        client,
		Manager:   manager,
		Inventory: inv,
		Outbox:    emitter,
		Currency:  "sgd",
		Now:       clock,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{client: client, conn: conn, manager: manager, svc: svc, now: now}
}

func (f *fixture) product(t *testing.T, base int64) *models.Product {
	t.Helper()
	p := &models.Product{Name: "Anklet", BasePriceCents: base, IsActive: true}
	if err := f.conn.Create(p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func (f *fixture) variant(t *testing.T, p *models.Product, sku string, stock int) *models.Variant {
	t.Helper()
	v := &models.Variant{ProductID: p.ID, SKU: sku, Name: sku, Stock: stock}
	if err := f.conn.Create(v).Error; err != nil {
		t.Fatalf("create variant: %v", err)
	}
	return v
}

func (f *fixture) coupon(t *testing.T, code string, percent int) {
	t.Helper()
	if err := f.conn.Create(&models.Coupon{Code: code, Active: true, PercentOff: &percent}).Error; err != nil {
		t.Fatalf("create coupon: %v", err)
	}
}

func (f *fixture) stock(t *testing.T, id any) int {
	t.Helper()
	var v models.Variant
	if err := f.conn.First(&v, "id = ?", id).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	return v.Stock
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	if err := f.conn.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func (f *fixture) events(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var n int64
	if err := f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	return n
}

func shipping() ShippingInput {
	return ShippingInput{
		FullName:   "Mei Tan",
		Email:      "mei@example.com",
		Address:    "1 Orchard Road",
		City:       "Singapore",
		Country:    "SG",
		PostalCode: "238823",
	}
}

func input(items ...pricing.LineItem) CreateOrderInput {
	return CreateOrderInput{Email: "mei@example.com", Shipping: shipping(), Items: items}
}
