package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
)

type shippingBody struct {
	City string `json:"city" validate:"required"`
}

type orderBody struct {
	Email    string       `json:"email" validate:"omitempty,email"`
	Shipping shippingBody `json:"shipping"`
	Items    []struct {
		Quantity int `json:"quantity" validate:"min=1"`
	} `json:"items" validate:"required,min=1,dive"`
}

func TestDecodeJSONBodyReportsFieldPaths(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"email":"nope","shipping":{},"items":[{"quantity":0}]}`))
	var body orderBody
	err := DecodeJSONBody(httptest.NewRecorder(), req, &body)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok, "details %T", typed.Details())
	require.Equal(t, "must be a valid email", details["email"])
	require.Equal(t, "is required", details["shipping.city"])
	require.Equal(t, "must be at least 1", details["items[0].quantity"])
}

func TestDecodeJSONBodyRejectsUnknownFieldsAndEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"bogus":true}`))
	var body orderBody
	if err := DecodeJSONBody(nil, req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for unknown field, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(""))
	err := DecodeJSONBody(nil, req, &body)
	if typed := pkgerrors.As(err); typed == nil || typed.Message() != "request body is required" {
		t.Fatalf("expected empty body error, got %v", err)
	}
}

func TestParseQueryMoneyConvertsToCents(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products?minPrice=12.5&maxPrice=abc", nil)

	cents, err := ParseQueryMoney(req, "minPrice", "SGD")
	require.NoError(t, err)
	require.NotNil(t, cents)
	require.Equal(t, int64(1250), *cents)

	_, err = ParseQueryMoney(req, "maxPrice", "SGD")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	missing, err := ParseQueryMoney(req, "other", "SGD")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestParsePaginationClamps(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products?page=0&pageSize=500", nil)
	params, err := ParsePagination(req)
	require.NoError(t, err)
	require.Equal(t, 1, params.Page)
	require.Equal(t, 100, params.PageSize)

	req = httptest.NewRequest(http.MethodGet, "/products?page=x", nil)
	_, err = ParsePagination(req)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	req := httptest.NewRequest(http.MethodGet, "/orders/"+id.String(), nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := ParseUUIDParam(req, "id", "order")
	require.NoError(t, err)
	require.Equal(t, id, got)

	rctx.URLParams = chi.RouteParams{}
	rctx.URLParams.Add("id", "not-a-uuid")
	_, err = ParseUUIDParam(req, "id", "order")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestOptionalString(t *testing.T) {
	blank := "   "
	require.Nil(t, OptionalString(&blank))
	value := "  hi "
	require.Equal(t, "hi", *OptionalString(&value))
	require.Equal(t, "abc", SanitizeString("  abcdef ", 3))
}
