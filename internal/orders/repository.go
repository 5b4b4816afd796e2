package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aaracollective/storefront-backend/pkg/db/models"
	"github.com/aaracollective/storefront-backend/pkg/enums"
	"github.com/aaracollective/storefront-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their owned rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateAddress(ctx context.Context, address *models.Address) error
	CreateOrder(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params pagination.Params) ([]OrderRow, int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	MarkPaid(ctx context.Context, id uuid.UUID) (bool, error)
	MarkPaymentFailed(ctx context.Context, id uuid.UUID) (bool, error)
	CancelIfPending(ctx context.Context, id uuid.UUID) (bool, error)
	SetPaymentIntentID(ctx context.Context, id uuid.UUID, intentID string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrderRow is one line of the admin order list.
type OrderRow struct {
	models.Order
	ItemCount int `gorm:"column:item_count"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateAddress(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Create(address).Error
}

// CreateOrder inserts the order and then its items.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	items := order.Items
	if err := r.db.WithContext(ctx).Omit("Customer", "Address", "Items").Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.WithContext(ctx).Omit("Product").Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindDetail loads customer, address and items with their product.
func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Address").
		Preload("Items").
		Preload("Items.Product").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns newest orders first with the number of items on each.
func (r *repository) List(ctx context.Context, params pagination.Params) ([]OrderRow, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	itemCounts := r.db.Model(&models.OrderItem{}).
		Select("order_id, COUNT(*) AS item_count").
		Group("order_id")

	var rows []OrderRow
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("orders.*, COALESCE(ic.item_count, 0) AS item_count").
		Joins("LEFT JOIN (?) AS ic ON ic.order_id = orders.id", itemCounts).
		Preload("Customer").
		Order("orders.created_at DESC").
		Order("orders.id ASC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkPaid records a succeeded payment unless one is already recorded. Status
// moves to PAID only from PENDING or CANCELLED; fulfilment states are kept.
// It reports whether a row changed, which makes webhook replays no-ops.
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", id, enums.PaymentStatusSucceeded).
		Updates(map[string]any{
			"status": gorm.Expr("CASE WHEN status IN (?, ?) THEN ? ELSE status END",
				enums.OrderStatusPending.String(), enums.OrderStatusCancelled.String(), enums.OrderStatusPaid.String()),
			"payment_status": enums.PaymentStatusSucceeded,
			"updated_at":     time.Now().UTC(),
		})
	return res.RowsAffected > 0, res.Error
}

// MarkPaymentFailed flags a still-pending payment as FAILED and leaves status alone.
func (r *repository) MarkPaymentFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, enums.PaymentStatusPending).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusFailed,
			"updated_at":     time.Now().UTC(),
		})
	return res.RowsAffected > 0, res.Error
}

// CancelIfPending cancels an unpaid order. Paid or already cancelled orders are untouched.
func (r *repository) CancelIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND payment_status <> ?", id, enums.OrderStatusPending, enums.PaymentStatusSucceeded).
		Updates(map[string]any{
			"status":     enums.OrderStatusCancelled,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) SetPaymentIntentID(ctx context.Context, id uuid.UUID, intentID string) error {
	return r.Update(ctx, id, map[string]any{"payment_intent_id": intentID})
}

// Delete removes items first, then the order and its address snapshot.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	var order models.Order
	if err := r.db.WithContext(ctx).Select("id", "address_id").First(&order, "id = ?", id).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Where("order_id = ?", id).Delete(&models.StockReservation{}).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.Address{}, "id = ?", order.AddressID).Error
}
