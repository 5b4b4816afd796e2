package enums

import (
	"fmt"
	"strings"
)

// ProductSort orders the public product listing.
type ProductSort string

const (
	ProductSortNewest    ProductSort = "newest"
	ProductSortPriceLow  ProductSort = "price-low"
	ProductSortPriceHigh ProductSort = "price-high"
	ProductSortPopular   ProductSort = "popular"
)

var validProductSorts = []ProductSort{
	ProductSortNewest,
	ProductSortPriceLow,
	ProductSortPriceHigh,
	ProductSortPopular,
}

// ParseProductSort defaults to newest when value is blank.
func ParseProductSort(value string) (ProductSort, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return ProductSortNewest, nil
	}
	for _, candidate := range validProductSorts {
		if string(candidate) == trimmed {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort %q", value)
}

// ProductBadge filters the listing by merchandising flag.
type ProductBadge string

const (
	ProductBadgeSale ProductBadge = "sale"
	ProductBadgeNew  ProductBadge = "new"
	ProductBadgeBest ProductBadge = "best"
)

// ParseProductBadge returns an empty badge for blank input.
func ParseProductBadge(value string) (ProductBadge, error) {
	switch badge := ProductBadge(strings.ToLower(strings.TrimSpace(value))); badge {
	case "", ProductBadgeSale, ProductBadgeNew, ProductBadgeBest:
		return badge, nil
	}
	return "", fmt.Errorf("invalid status %q", value)
}
