package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
	"github.com/aaracollective/storefront-backend/pkg/money"
	"github.com/aaracollective/storefront-backend/pkg/pagination"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryMoney reads a major-unit amount ("49.90") and returns minor units.
// A blank value yields nil.
func ParseQueryMoney(r *http.Request, key, currency string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	cents, err := money.ParseMajor(raw, currency)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price filter").WithDetails(map[string]any{"field": key})
	}
	return &cents, nil
}

// ParsePagination reads page and pageSize, clamping pageSize to the allowed range.
func ParsePagination(r *http.Request) (pagination.Params, error) {
	q := r.URL.Query()
	params, err := pagination.ParseParams(q.Get("page"), q.Get("pageSize"))
	if err != nil {
		return pagination.Params{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pagination")
	}
	return params, nil
}

// ParseUUIDParam reads a chi URL parameter as a uuid. Malformed ids are
// reported as NOT_FOUND since no such record can exist.
func ParseUUIDParam(r *http.Request, name, resource string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "%s not found", resource)
	}
	return id, nil
}
