// Package catalog serves the product catalog and its admin mutations.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aaracollective/storefront-backend/pkg/db"
	"github.com/aaracollective/storefront-backend/pkg/db/models"
	"github.com/aaracollective/storefront-backend/pkg/enums"
	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
	"github.com/aaracollective/storefront-backend/pkg/pagination"
)

// Service exposes catalog reads and admin product management.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	FeaturedProducts(ctx context.Context) ([]ProductSummaryDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetailDTO, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDetailDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
}

// ListProductsInput holds already parsed listing filters. Prices are minor units.
type ListProductsInput struct {
	Category string
	MinCents *int64
	MaxCents *int64
	Status   enums.ProductBadge
	Sort     enums.ProductSort
	Page     pagination.Params
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name           string
	Subtitle       *string
	Description    *string
	BasePriceCents int64
	SalePriceCents *int64
	IsActive       bool
	IsSale         bool
	IsNew          bool
	IsBestSeller   bool
	CategoryID     *uuid.UUID
	Images         []ImageInput
	Variants       []VariantInput
}

type ImageInput struct {
	URL string
	Alt *string
}

type VariantInput struct {
	SKU        string
	Name       string
	PriceCents *int64
	Stock      int
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	currency string
}

// NewService constructs a catalog service. currency only affects display strings.
func NewService(repo *Repository, dbClient *db.Client, currency string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient, currency: currency}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	page := pagination.Normalize(input.Page)
	sort := input.Sort
	if sort == "" {
		sort = enums.ProductSortNewest
	}
	products, total, err := s.repo.ListActive(ctx, ListFilter{
		CategorySlug: strings.TrimSpace(input.Category),
		MinCents:     input.MinCents,
		MaxCents:     input.MaxCents,
		Badge:        input.Status,
		Sort:         sort,
		Page:         page,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	items := make([]ProductSummaryDTO, 0, len(products))
	for i := range products {
		items = append(items, newSummaryDTO(&products[i], s.currency))
	}
	return &ProductListResult{Items: items, Meta: pagination.NewMeta(page, total)}, nil
}

func (s *service) FeaturedProducts(ctx context.Context) ([]ProductSummaryDTO, error) {
	products, err := s.repo.Featured(ctx, FeaturedLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list featured products")
	}
	items := make([]ProductSummaryDTO, 0, len(products))
	for i := range products {
		items = append(items, newSummaryDTO(&products[i], s.currency))
	}
	return items, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetailDTO, error) {
	product, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return newDetailDTO(product, s.currency), nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDetailDTO, error) {
	if input.SalePriceCents == nil && input.IsSale {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "salePriceCents is required when isSale is true")
	}

	product := &models.Product{
		Name:           strings.TrimSpace(input.Name),
		Subtitle:       input.Subtitle,
		Description:    input.Description,
		BasePriceCents: input.BasePriceCents,
		SalePriceCents: input.SalePriceCents,
		IsActive:       input.IsActive,
		IsSale:         input.IsSale,
		IsNew:          input.IsNew,
		IsBestSeller:   input.IsBestSeller,
		CategoryID:     input.CategoryID,
	}
	for i, img := range input.Images {
		product.Images = append(product.Images, models.ProductImage{URL: img.URL, Alt: img.Alt, Position: i})
	}
	for _, v := range input.Variants {
		product.Variants = append(product.Variants, models.Variant{
			SKU:        strings.TrimSpace(v.SKU),
			Name:       strings.TrimSpace(v.Name),
			PriceCents: v.PriceCents,
			Stock:      v.Stock,
		})
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.CategoryID != nil {
			category, err := repo.FindCategory(ctx, *input.CategoryID)
			if err != nil {
				return err
			}
			if category == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "category not found")
			}
			product.Category = category
		}
		return repo.CreateProduct(ctx, product)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "variant sku already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return newDetailDTO(product, s.currency), nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		refs, err := repo.CountOrderReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "product is referenced by existing orders").
				WithDetails(map[string]any{"orderItems": refs})
		}
		return repo.DeleteProduct(ctx, id)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	case pkgerrors.As(err) != nil:
		return err
	case db.IsForeignKeyViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product is referenced by existing orders")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(categories))
	for i := range categories {
		out = append(out, *newCategoryDTO(&categories[i]))
	}
	return out, nil
}
