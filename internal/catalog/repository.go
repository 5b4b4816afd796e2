package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aaracollective/storefront-backend/pkg/db/models"
	"github.com/aaracollective/storefront-backend/pkg/enums"
	"github.com/aaracollective/storefront-backend/pkg/pagination"
)

// effectivePriceSQL mirrors pricing.UnitPrice for a product without a variant.
const effectivePriceSQL = "CASE WHEN products.is_sale AND products.sale_price_cents IS NOT NULL THEN products.sale_price_cents ELSE products.base_price_cents END"

// FeaturedLimit caps the featured carousel.
const FeaturedLimit = 8

// ListFilter narrows the public product listing.
type ListFilter struct {
	CategorySlug string
	MinCents     *int64
	MaxCents     *int64
	Badge        enums.ProductBadge
	Sort         enums.ProductSort
	Page         pagination.Params
}

// Repository wires together product, variant, image and category persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func orderedVariants(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("sku ASC")
}

// ListActive returns one page of active products plus the total match count.
func (r *Repository) ListActive(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("products.is_active = ?", true)

	if filter.CategorySlug != "" {
		categoryIDs := r.db.Model(&models.Category{}).Select("id").Where("slug = ?", filter.CategorySlug)
		query = query.Where("products.category_id IN (?)", categoryIDs)
	}
	switch filter.Badge {
	case enums.ProductBadgeSale:
		query = query.Where("products.is_sale = ?", true)
	case enums.ProductBadgeNew:
		query = query.Where("products.is_new = ?", true)
	case enums.ProductBadgeBest:
		query = query.Where("products.is_best_seller = ?", true)
	}
	if filter.MinCents != nil {
		query = query.Where(effectivePriceSQL+" >= ?", *filter.MinCents)
	}
	if filter.MaxCents != nil {
		query = query.Where(effectivePriceSQL+" <= ?", *filter.MaxCents)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.Sort {
	case enums.ProductSortPriceLow:
		query = query.Order(effectivePriceSQL + " ASC")
	case enums.ProductSortPriceHigh:
		query = query.Order(effectivePriceSQL + " DESC")
	case enums.ProductSortPopular:
		query = query.Order("products.popularity DESC")
	}
	query = query.Order("products.created_at DESC").Order("products.id ASC")

	var products []models.Product
	err := query.
		Preload("Category").
		Preload("Images", orderedImages).
		Offset(filter.Page.Offset()).
		Limit(filter.Page.Limit()).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Featured returns active best sellers first, then new arrivals, newest first.
func (r *Repository) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = FeaturedLimit
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("is_best_seller = ? OR is_new = ?", true, true).
		Order("is_best_seller DESC").
		Order("created_at DESC").
		Limit(limit).
		Preload("Category").
		Preload("Images", orderedImages).
		Find(&products).Error
	return products, err
}

// FindDetail loads the product with its category, ordered images and variants.
func (r *Repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", orderedImages).
		Preload("Variants", orderedVariants).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ActiveProduct returns the product when it exists and is active; otherwise (nil, nil).
func (r *Repository) ActiveProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Variant returns the variant or (nil, nil) when it does not exist.
func (r *Repository) Variant(ctx context.Context, id uuid.UUID) (*models.Variant, error) {
	var variant models.Variant
	err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// CreateProduct inserts the product row and then its images and variants.
// Callers wrap it in a transaction so a bad variant leaves nothing behind.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	images := product.Images
	variants := product.Variants

	if err := r.db.WithContext(ctx).Omit("Category", "Images", "Variants").Create(product).Error; err != nil {
		return err
	}
	for i := range images {
		images[i].ProductID = product.ID
	}
	for i := range variants {
		variants[i].ProductID = product.ID
	}
	if len(images) > 0 {
		if err := r.db.WithContext(ctx).Create(&images).Error; err != nil {
			return err
		}
	}
	if len(variants) > 0 {
		if err := r.db.WithContext(ctx).Create(&variants).Error; err != nil {
			return err
		}
	}
	product.Images = images
	product.Variants = variants
	return nil
}

// CountOrderReferences reports how many order items point at the product.
func (r *Repository) CountOrderReferences(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}

// DeleteProduct removes the product along with its images and variants.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id = ?", id).Delete(&models.Variant{}).Error; err != nil {
		return err
	}
	res := tx.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListCategories returns every category alphabetically.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

// FindCategory returns the category or (nil, nil) when absent.
func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// UpsertCategory inserts the category unless its slug already exists.
func (r *Repository) UpsertCategory(ctx context.Context, category *models.Category) error {
	var existing models.Category
	err := r.db.WithContext(ctx).Where("slug = ?", category.Slug).First(&existing).Error
	if err == nil {
		*category = existing
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.WithContext(ctx).Create(category).Error
}
