package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
)

// StockCheckInput is one cart line that draws on a variant's stock.
type StockCheckInput struct {
	VariantID uuid.UUID
	SKU       string
	Requested int
	Available int
}

// StockShortageDetail is returned to callers for each variant that cannot be filled.
type StockShortageDetail struct {
	VariantID uuid.UUID `json:"variantId"`
	SKU       string    `json:"sku,omitempty"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// ValidateStock sums requested quantities per variant, so a variant split
// across several lines is checked against its stock once.
func ValidateStock(items []StockCheckInput) error {
	order := make([]uuid.UUID, 0, len(items))
	totals := make(map[uuid.UUID]*StockShortageDetail, len(items))
	for _, item := range items {
		agg, ok := totals[item.VariantID]
		if !ok {
			agg = &StockShortageDetail{VariantID: item.VariantID, SKU: item.SKU, Available: item.Available}
			totals[item.VariantID] = agg
			order = append(order, item.VariantID)
		}
		agg.Requested += item.Requested
	}

	var shortages []StockShortageDetail
	for _, id := range order {
		if agg := totals[id]; agg.Requested > agg.Available {
			shortages = append(shortages, *agg)
		}
	}
	if len(shortages) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for %d item(s)", len(shortages))).WithDetails(map[string]any{
		"shortages": shortages,
	})
}
