package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/aaracollective/storefront-backend/internal/catalog"
	"github.com/aaracollective/storefront-backend/internal/coupons"
	"github.com/aaracollective/storefront-backend/internal/customers"
	"github.com/aaracollective/storefront-backend/internal/inventory"
	"github.com/aaracollective/storefront-backend/internal/orders"
	"github.com/aaracollective/storefront-backend/internal/pricing"
	"github.com/aaracollective/storefront-backend/pkg/db/dbtest"
	"github.com/aaracollective/storefront-backend/pkg/db/models"
	"github.com/aaracollective/storefront-backend/pkg/enums"
	"github.com/aaracollective/storefront-backend/pkg/outbox"
)

type fakeHoldLister struct {
	ids   []uuid.UUID
	now   time.Time
	limit int
}

func (f *fakeHoldLister) ExpiredOrderIDs(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	f.now, f.limit = now, limit
	return f.ids, nil
}

type fakeExpirer struct {
	fail map[uuid.UUID]bool
	seen []uuid.UUID
}

func (f *fakeExpirer) ExpireOrder(_ context.Context, id uuid.UUID) (bool, error) {
	f.seen = append(f.seen, id)
	if f.fail[id] {
		return false, errors.New("db locked")
	}
	return true, nil
}

func TestReservationExpiryJobContinuesPastFailures(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	lister := &fakeHoldLister{ids: []uuid.UUID{a, b, c}}
	expirer := &fakeExpirer{fail: map[uuid.UUID]bool{b: true}}
	jobIface, err := NewReservationExpiryJob(ReservationExpiryJobParams{Logger: testLogger(), Holds: lister, Orders: expirer, BatchSize: 50})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	job := jobIface.(*reservationExpiryJob)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.FixedZone("SGT", 8*3600))
	job.now = func() time.Time { return now }

	err = job.Run(context.Background())
	if len(multierr.Errors(err)) != 1 {
		t.Fatalf("expected one failure, got %v", err)
	}
	if len(expirer.seen) != 3 {
		t.Fatalf("expected all orders attempted, got %d", len(expirer.seen))
	}
	if lister.limit != 50 || lister.now.Location() != time.UTC || !lister.now.Equal(now) {
		t.Fatalf("unexpected query args now=%v limit=%d", lister.now, lister.limit)
	}
}

func TestReservationExpiryJobReleasesLapsedHolds(t *testing.T) {
	client := dbtest.Open(t)
	conn := client.DB()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	inv := inventory.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), nil)
	manager, err := orders.NewManager(orders.ManagerDeps{
		Orders:    orderRepo,
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
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo: orderRepo, DB: client, Manager: manager, Inventory: inv, Outbox: emitter, Now: clock,
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	product := &models.Product{Name: "Linen Shirt", BasePriceCents: 4500, IsActive: true}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	variant := &models.Variant{ProductID: product.ID, SKU: "LIN-M", Name: "M", Stock: 3}
	if err := conn.Create(variant).Error; err != nil {
		t.Fatalf("create variant: %v", err)
	}

	place := func(holdUntil time.Time) uuid.UUID {
		var id uuid.UUID
		err := client.WithTx(ctx, func(tx *gorm.DB) error {
			order, _, err := manager.PlaceOrder(ctx, tx, orders.PlaceOrderParams{
				Input: orders.CreateOrderInput{
					Shipping: orders.ShippingInput{FullName: "Raj", Email: "raj@example.com", Address: "2 Bukit", City: "Singapore", Country: "SG", PostalCode: "123456"},
					Items:    []pricing.LineItem{{ProductID: product.ID, VariantID: &variant.ID, Quantity: 1}},
				},
				Stock:     orders.StockHold,
				HoldUntil: holdUntil,
				Source:    orders.SourceIntent,
			})
			if err != nil {
				return err
			}
			id = order.ID
			return nil
		})
		if err != nil {
			t.Fatalf("place order: %v", err)
		}
		return id
	}
	lapsed := place(now.Add(-time.Minute))
	live := place(now.Add(20 * time.Minute))

	jobIface, err := NewReservationExpiryJob(ReservationExpiryJobParams{Logger: testLogger(), Holds: inv, Orders: orderSvc})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	job := jobIface.(*reservationExpiryJob)
	job.now = clock
	if err := job.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	var stock models.Variant
	if err := conn.First(&stock, "id = ?", variant.ID).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if stock.Stock != 2 {
		t.Fatalf("expected one unit returned (stock 2), got %d", stock.Stock)
	}
	statusOf := func(id uuid.UUID) enums.OrderStatus {
		var o models.Order
		if err := conn.First(&o, "id = ?", id).Error; err != nil {
			t.Fatalf("load order: %v", err)
		}
		return o.Status
	}
	if got := statusOf(lapsed); got != enums.OrderStatusCancelled {
		t.Fatalf("expected lapsed order cancelled, got %s", got)
	}
	if got := statusOf(live); got != enums.OrderStatusPending {
		t.Fatalf("expected live order pending, got %s", got)
	}

	if err := job.Run(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if err := conn.First(&stock, "id = ?", variant.ID).Error; err != nil {
		t.Fatalf("reload variant: %v", err)
	}
	if stock.Stock != 2 {
		t.Fatalf("second sweep must not release again, stock %d", stock.Stock)
	}
}
