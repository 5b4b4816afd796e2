package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/aaracollective/storefront-backend/api/responses"
	"github.com/aaracollective/storefront-backend/api/validators"
	"github.com/aaracollective/storefront-backend/internal/catalog"
	"github.com/aaracollective/storefront-backend/pkg/enums"
	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
	"github.com/aaracollective/storefront-backend/pkg/logger"
)

// ProductList serves the filtered, paginated storefront listing.
func ProductList(svc catalog.Service, currency string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		input, err := parseListQuery(r, currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseListQuery(r *http.Request, currency string) (catalog.ListProductsInput, error) {
	q := r.URL.Query()
	input := catalog.ListProductsInput{Category: strings.TrimSpace(q.Get("category"))}

	var err error
	if input.MinCents, err = validators.ParseQueryMoney(r, "minPrice", currency); err != nil {
		return input, err
	}
	if input.MaxCents, err = validators.ParseQueryMoney(r, "maxPrice", currency); err != nil {
		return input, err
	}
	if input.Status, err = enums.ParseProductBadge(q.Get("status")); err != nil {
		return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
	}
	if input.Sort, err = enums.ParseProductSort(q.Get("sort")); err != nil {
		return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort")
	}
	if input.Page, err = validators.ParsePagination(r); err != nil {
		return input, err
	}
	return input, nil
}

// ProductFeatured serves the best-seller and new-arrival carousel.
func ProductFeatured(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		items, err := svc.FeaturedProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func ProductDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId", "product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type createProductRequest struct {
	Name           string                  `json:"name" validate:"required,max=200"`
	Subtitle       *string                 `json:"subtitle,omitempty" validate:"omitempty,max=200"`
	Description    *string                 `json:"description,omitempty" validate:"omitempty,max=5000"`
	BasePriceCents int64                   `json:"basePriceCents" validate:"gte=0"`
	SalePriceCents *int64                  `json:"salePriceCents,omitempty" validate:"omitempty,gte=0"`
	IsActive       *bool                   `json:"isActive,omitempty"`
	IsSale         bool                    `json:"isSale"`
	IsNew          bool                    `json:"isNew"`
	IsBestSeller   bool                    `json:"isBestSeller"`
	CategoryID     *string                 `json:"categoryId,omitempty" validate:"omitempty,uuid"`
	Images         []productImageRequest   `json:"images,omitempty" validate:"omitempty,max=20,dive"`
	Variants       []productVariantRequest `json:"variants,omitempty" validate:"omitempty,max=100,dive"`
}

type productImageRequest struct {
	URL string  `json:"url" validate:"required,url,max=2048"`
	Alt *string `json:"alt,omitempty" validate:"omitempty,max=200"`
}

type productVariantRequest struct {
	SKU        string `json:"sku" validate:"required,max=64"`
	Name       string `json:"name" validate:"required,max=200"`
	PriceCents *int64 `json:"priceCents,omitempty" validate:"omitempty,gte=0"`
	Stock      int    `json:"stock" validate:"gte=0"`
}

func (p createProductRequest) toInput() (catalog.CreateProductInput, error) {
	input := catalog.CreateProductInput{
		Name:           strings.TrimSpace(p.Name),
		Subtitle:       validators.OptionalString(p.Subtitle),
		Description:    validators.OptionalString(p.Description),
		BasePriceCents: p.BasePriceCents,
		SalePriceCents: p.SalePriceCents,
		IsActive:       p.IsActive == nil || *p.IsActive,
		IsSale:         p.IsSale,
		IsNew:          p.IsNew,
		IsBestSeller:   p.IsBestSeller,
	}
	if raw := validators.OptionalString(p.CategoryID); raw != nil {
		id, err := uuid.Parse(*raw)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid categoryId")
		}
		input.CategoryID = &id
	}
	for _, img := range p.Images {
		input.Images = append(input.Images, catalog.ImageInput{URL: strings.TrimSpace(img.URL), Alt: validators.OptionalString(img.Alt)})
	}
	seen := map[string]struct{}{}
	for _, v := range p.Variants {
		sku := strings.TrimSpace(v.SKU)
		if _, dup := seen[sku]; dup {
			return input, pkgerrors.Newf(pkgerrors.CodeValidation, "duplicate variant sku %q", sku)
		}
		seen[sku] = struct{}{}
		input.Variants = append(input.Variants, catalog.VariantInput{SKU: sku, Name: v.Name, PriceCents: v.PriceCents, Stock: v.Stock})
	}
	return input, nil
}

// AdminCreateProduct creates a product with its images and variants in one transaction.
func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// AdminDeleteProduct deletes a product never referenced by an order.
func AdminDeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId", "product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func CategoryList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}
