package catalog

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/aaracollective/storefront-backend/pkg/db/models"
)

func mustCreateCategory(t *testing.T, conn *gorm.DB, name, slug string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name, Slug: slug}
	if err := conn.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return category
}

type productOpt func(*models.Product)

func withSale(cents int64) productOpt {
	return func(p *models.Product) {
		p.IsSale = true
		p.SalePriceCents = &cents
	}
}

func withCategory(c *models.Category) productOpt {
	return func(p *models.Product) { p.CategoryID = &c.ID }
}

func withCreatedAt(ts time.Time) productOpt {
	return func(p *models.Product) { p.CreatedAt = ts }
}

func mustCreateProduct(t *testing.T, conn *gorm.DB, name string, base int64, opts ...productOpt) *models.Product {
	t.Helper()
	product := &models.Product{Name: name, BasePriceCents: base, IsActive: true}
	for _, opt := range opts {
		opt(product)
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
