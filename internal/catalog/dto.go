package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/aaracollective/storefront-backend/internal/pricing"
	"github.com/aaracollective/storefront-backend/pkg/db/models"
	"github.com/aaracollective/storefront-backend/pkg/money"
	"github.com/aaracollective/storefront-backend/pkg/pagination"
)

// CategoryDTO is the public view of a category.
type CategoryDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// ImageDTO is one gallery entry.
type ImageDTO struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	Alt      *string   `json:"alt,omitempty"`
	Position int       `json:"position"`
}

// VariantDTO exposes a purchasable option and its resolved price.
type VariantDTO struct {
	ID         uuid.UUID `json:"id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	PriceCents *int64    `json:"priceCents,omitempty"`
	UnitCents  int64     `json:"unitPriceCents"`
	Stock      int       `json:"stock"`
}

// ProductSummaryDTO is a listing card.
type ProductSummaryDTO struct {
	ID             uuid.UUID    `json:"id"`
	Name           string       `json:"name"`
	Subtitle       *string      `json:"subtitle,omitempty"`
	PriceCents     int64        `json:"priceCents"`
	DisplayPrice   string       `json:"displayPrice"`
	BasePriceCents int64        `json:"basePriceCents"`
	SalePriceCents *int64       `json:"salePriceCents,omitempty"`
	Image          string       `json:"image"`
	Category       *CategoryDTO `json:"category,omitempty"`
	IsNew          bool         `json:"isNew"`
	IsSale         bool         `json:"isSale"`
	IsBestSeller   bool         `json:"isBestSeller"`
	Popularity     int          `json:"popularity"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// ProductDetailDTO is the product page payload.
type ProductDetailDTO struct {
	ProductSummaryDTO
	Description *string      `json:"description,omitempty"`
	IsActive    bool         `json:"isActive"`
	Images      []ImageDTO   `json:"images"`
	Variants    []VariantDTO `json:"variants"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// ProductListResult is a page of listing cards.
type ProductListResult struct {
	Items []ProductSummaryDTO `json:"items"`
	pagination.Meta
}

func newCategoryDTO(c *models.Category) *CategoryDTO {
	if c == nil {
		return nil
	}
	return &CategoryDTO{ID: c.ID, Name: c.Name, Slug: c.Slug}
}

func newSummaryDTO(p *models.Product, currency string) ProductSummaryDTO {
	price := pricing.UnitPrice(p, nil)
	dto := ProductSummaryDTO{
		ID:             p.ID,
		Name:           p.Name,
		Subtitle:       p.Subtitle,
		PriceCents:     price,
		DisplayPrice:   money.Format(price, currency),
		BasePriceCents: p.BasePriceCents,
		SalePriceCents: p.SalePriceCents,
		Category:       newCategoryDTO(p.Category),
		IsNew:          p.IsNew,
		IsSale:         p.IsSale,
		IsBestSeller:   p.IsBestSeller,
		Popularity:     p.Popularity,
		CreatedAt:      p.CreatedAt,
	}
	if len(p.Images) > 0 {
		dto.Image = p.Images[0].URL
	}
	return dto
}

func newDetailDTO(p *models.Product, currency string) *ProductDetailDTO {
	dto := &ProductDetailDTO{
		ProductSummaryDTO: newSummaryDTO(p, currency),
		Description:       p.Description,
		IsActive:          p.IsActive,
		Images:            make([]ImageDTO, 0, len(p.Images)),
		Variants:          make([]VariantDTO, 0, len(p.Variants)),
		UpdatedAt:         p.UpdatedAt,
	}
	for _, img := range p.Images {
		dto.Images = append(dto.Images, ImageDTO{ID: img.ID, URL: img.URL, Alt: img.Alt, Position: img.Position})
	}
	for i := range p.Variants {
		v := &p.Variants[i]
		dto.Variants = append(dto.Variants, VariantDTO{
			ID:         v.ID,
			SKU:        v.SKU,
			Name:       v.Name,
			PriceCents: v.PriceCents,
			UnitCents:  pricing.UnitPrice(p, v),
			Stock:      v.Stock,
		})
	}
	return dto
}
