package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aaracollective/storefront-backend/internal/catalog"
	"github.com/aaracollective/storefront-backend/internal/coupons"
	"github.com/aaracollective/storefront-backend/internal/customers"
	"github.com/aaracollective/storefront-backend/internal/inventory"
	"github.com/aaracollective/storefront-backend/internal/pricing"
	"github.com/aaracollective/storefront-backend/pkg/checkout"
	"github.com/aaracollective/storefront-backend/pkg/db/models"
	"github.com/aaracollective/storefront-backend/pkg/enums"
	"github.com/aaracollective/storefront-backend/pkg/outbox"
	"github.com/aaracollective/storefront-backend/pkg/outbox/payloads"
)

// StockMode selects how PlaceOrder moves variant stock.
type StockMode int

const (
	// StockCommit decrements stock for good (direct orders).
	StockCommit StockMode = iota
	// StockHold decrements stock under a reservation that expires unless payment lands.
	StockHold
)

const (
	SourceDirect = "direct"
	SourceIntent = "intent"
)

// PlaceOrderParams describes one order placement.
type PlaceOrderParams struct {
	Input     CreateOrderInput
	Stock     StockMode
	HoldUntil time.Time
	Source    string
}

// Manager runs the order unit of work: price, persist the address, move
// stock, persist the order with frozen item prices and queue order_created.
type Manager struct {
	orders    Repository
	catalog   *catalog.Repository
	coupons   *coupons.Repository
	customers *customers.Repository
	inventory *inventory.Repository
	outbox    outbox.Emitter
	now       func() time.Time
}

// ManagerDeps groups the repositories PlaceOrder binds to its transaction.
type ManagerDeps struct {
	Orders    Repository
	Catalog   *catalog.Repository
	Coupons   *coupons.Repository
	Customers *customers.Repository
	Inventory *inventory.Repository
	Outbox    outbox.Emitter
	Now       func() time.Time
}

func NewManager(deps ManagerDeps) (*Manager, error) {
	switch {
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Catalog == nil:
		return nil, fmt.Errorf("catalog repository required")
	case deps.Coupons == nil:
		return nil, fmt.Errorf("coupon repository required")
	case deps.Customers == nil:
		return nil, fmt.Errorf("customer repository required")
	case deps.Inventory == nil:
		return nil, fmt.Errorf("inventory repository required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		orders:    deps.Orders,
		catalog:   deps.Catalog,
		coupons:   deps.Coupons,
		customers: deps.Customers,
		inventory: deps.Inventory,
		outbox:    deps.Outbox,
		now:       now,
	}, nil
}

// Engine returns a pricing engine reading through tx (or the base connection when tx is nil).
func (m *Manager) Engine(tx *gorm.DB) (*pricing.Engine, error) {
	couponRepo, catalogRepo := m.coupons, m.catalog
	if tx != nil {
		couponRepo, catalogRepo = couponRepo.WithTx(tx), catalogRepo.WithTx(tx)
	}
	resolver, err := coupons.NewResolver(couponRepo, coupons.WithClock(m.now))
	if err != nil {
		return nil, err
	}
	return pricing.NewEngine(catalogRepo, resolver)
}

// PlaceOrder must be called inside tx. Any error leaves the caller to roll
// back, so no address, stock movement or order survives a failed attempt.
func (m *Manager) PlaceOrder(ctx context.Context, tx *gorm.DB, p PlaceOrderParams) (*models.Order, *pricing.Quote, error) {
	if tx == nil {
		return nil, nil, fmt.Errorf("transaction required")
	}
	engine, err := m.Engine(tx)
	if err != nil {
		return nil, nil, err
	}
	quote, err := engine.PriceCart(ctx, p.Input.Items, p.Input.CouponCode)
	if err != nil {
		return nil, nil, err
	}

	var customerID *uuid.UUID
	if email := strings.TrimSpace(p.Input.Email); email != "" {
		customer, err := m.customers.WithTx(tx).UpsertByEmail(ctx, email, p.Input.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("upsert customer: %w", err)
		}
		customerID = &customer.ID
	}

	orderRepo := m.orders.WithTx(tx)
	address := newAddress(p.Input.Shipping)
	if err := orderRepo.CreateAddress(ctx, address); err != nil {
		return nil, nil, fmt.Errorf("create address: %w", err)
	}

	checks := make([]checkout.StockCheckInput, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		if line.Variant != nil {
			checks = append(checks, checkout.StockCheckInput{
				VariantID: line.Variant.ID,
				SKU:       line.Variant.SKU,
				Requested: line.Item.Quantity,
				Available: line.Variant.Stock,
			})
		}
	}
	if err := checkout.ValidateStock(checks); err != nil {
		return nil, nil, err
	}

	stock := m.inventory.WithTx(tx)
	var holds []inventory.Line
	for _, line := range quote.Lines {
		if line.Variant == nil {
			continue
		}
		if p.Stock == StockHold {
			holds = append(holds, inventory.Line{VariantID: line.Variant.ID, Quantity: line.Item.Quantity})
			continue
		}
		if err := stock.Decrement(ctx, line.Variant.ID, line.Item.Quantity); err != nil {
			return nil, nil, err
		}
	}

	order := &models.Order{
		CustomerID:    customerID,
		AddressID:     address.ID,
		Address:       address,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		SubtotalCents: quote.SubtotalCents,
		DiscountCents: quote.DiscountCents,
		ShippingCents: quote.ShippingCents,
		TotalCents:    quote.TotalCents,
		CouponCode:    quote.CouponCode,
		Notes:         trimmedOrNil(p.Input.Notes),
		Items:         make([]models.OrderItem, 0, len(quote.Lines)),
	}
	for _, line := range quote.Lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:      line.Item.ProductID,
			VariantID:      line.Item.VariantID,
			Quantity:       line.Item.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			LineTotalCents: line.LineTotalCents,
		})
	}
	if err := orderRepo.CreateOrder(ctx, order); err != nil {
		return nil, nil, fmt.Errorf("create order: %w", err)
	}

	if len(holds) > 0 {
		if err := stock.Hold(ctx, order.ID, holds, p.HoldUntil); err != nil {
			return nil, nil, err
		}
	}

	source := p.Source
	if source == "" {
		source = SourceDirect
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderCreatedEvent{
			OrderID:       order.ID,
			Email:         customers.NormalizeEmail(p.Input.Email),
			Source:        source,
			SubtotalCents: order.SubtotalCents,
			DiscountCents: order.DiscountCents,
			ShippingCents: order.ShippingCents,
			TotalCents:    order.TotalCents,
			CouponCode:    order.CouponCode,
			ItemCount:     len(order.Items),
		},
	}
	if err := m.outbox.Emit(ctx, tx, event); err != nil {
		return nil, nil, fmt.Errorf("emit order_created: %w", err)
	}
	return order, quote, nil
}

func newAddress(in ShippingInput) *models.Address {
	return &models.Address{
		FullName:   strings.TrimSpace(in.FullName),
		Email:      customers.NormalizeEmail(in.Email),
		Phone:      trimmedOrNil(in.Phone),
		Line1:      strings.TrimSpace(in.Address),
		City:       strings.TrimSpace(in.City),
		Country:    strings.TrimSpace(in.Country),
		PostalCode: strings.TrimSpace(in.PostalCode),
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
