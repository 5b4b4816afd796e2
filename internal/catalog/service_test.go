package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/aaracollective/storefront-backend/pkg/db/dbtest"
	"github.com/aaracollective/storefront-backend/pkg/db/models"
	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
	"github.com/aaracollective/storefront-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *Repository, func() *models.Category) {
	t.Helper()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo, client, "sgd")
	require.NoError(t, err)
	return svc, repo, func() *models.Category {
		return mustCreateCategory(t, client.DB(), "Jewellery", "jewellery")
	}
}

func TestServiceCreateAndGetProduct(t *testing.T) {
	svc, _, seedCategory := newTestService(t)
	ctx := context.Background()
	category := seedCategory()
	sale := int64(1800)
	override := int64(2600)

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:           "  Pearl Drop ",
		BasePriceCents: 2400,
		SalePriceCents: &sale,
		IsActive:       true,
		IsSale:         true,
		CategoryID:     &category.ID,
		Images:         []ImageInput{{URL: "https://cdn/1.jpg"}, {URL: "https://cdn/2.jpg"}},
		Variants: []VariantInput{
			{SKU: "PD-S", Name: "Small", Stock: 4},
			{SKU: "PD-L", Name: "Large", PriceCents: &override, Stock: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Pearl Drop", created.Name)
	require.Equal(t, int64(1800), created.PriceCents)
	require.Equal(t, "SGD 18.00", created.DisplayPrice)
	require.Equal(t, "https://cdn/1.jpg", created.Image)
	require.NotNil(t, created.Category)
	require.Equal(t, "jewellery", created.Category.Slug)

	got, err := svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Variants, 2)
	units := map[string]int64{}
	for _, v := range got.Variants {
		units[v.SKU] = v.UnitCents
	}
	require.Equal(t, map[string]int64{"PD-S": 1800, "PD-L": 2600}, units)
	require.Equal(t, 1, got.Images[1].Position)

	_, err = svc.GetProduct(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestServiceCreateProductRejectsUnknownCategory(t *testing.T) {
	svc, _, _ := newTestService(t)
	missing := uuid.New()
	_, err := svc.CreateProduct(context.Background(), CreateProductInput{Name: "x", BasePriceCents: 100, CategoryID: &missing})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestServiceCreateProductDuplicateSKUIsConflict(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.CreateProduct(ctx, CreateProductInput{Name: "a", BasePriceCents: 100, Variants: []VariantInput{{SKU: "DUP", Name: "one"}}})
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "b", BasePriceCents: 100, Variants: []VariantInput{{SKU: "DUP", Name: "two"}}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	list, err := svc.ListProducts(ctx, ListProductsInput{})
	require.NoError(t, err)
	require.Equal(t, int64(0), list.Total, "inactive products are hidden and the failed create must roll back")
}

func TestServiceDeleteProduct(t *testing.T) {
	client := dbtest.Open(t)
	conn := client.DB()
	repo := NewRepository(conn)
	svc, err := NewService(repo, client, "sgd")
	require.NoError(t, err)
	ctx := context.Background()

	free := mustCreateProduct(t, conn, "free", 1000)
	require.NoError(t, conn.Create(&models.ProductImage{ProductID: free.ID, URL: "https://cdn/x.jpg"}).Error)
	require.NoError(t, svc.DeleteProduct(ctx, free.ID))

	var images int64
	require.NoError(t, conn.Model(&models.ProductImage{}).Where("product_id = ?", free.ID).Count(&images).Error)
	require.Zero(t, images)

	err = svc.DeleteProduct(ctx, free.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	sold := mustCreateProduct(t, conn, "sold", 1000)
	address := &models.Address{FullName: "A", Email: "a@example.com", Line1: "1 Road", City: "Singapore", Country: "SG", PostalCode: "123456"}
	require.NoError(t, conn.Create(address).Error)
	order := &models.Order{AddressID: address.ID, Status: "PENDING", PaymentStatus: "PENDING", SubtotalCents: 1000, TotalCents: 2500, ShippingCents: 1500}
	require.NoError(t, conn.Create(order).Error)
	require.NoError(t, conn.Create(&models.OrderItem{OrderID: order.ID, ProductID: sold.ID, Quantity: 1, UnitPriceCents: 1000, LineTotalCents: 1000}).Error)

	err = svc.DeleteProduct(ctx, sold.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestServiceListProductsMeta(t *testing.T) {
	client := dbtest.Open(t)
	conn := client.DB()
	svc, err := NewService(NewRepository(conn), client, "sgd")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		mustCreateProduct(t, conn, "p", 1000)
	}

	res, err := svc.ListProducts(context.Background(), ListProductsInput{Page: pagination.Params{Page: 1, PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	require.Equal(t, pagination.Meta{Page: 1, PageSize: 2, Total: 5, TotalPages: 3}, res.Meta)
}

func TestServiceListCategoriesSorted(t *testing.T) {
	client := dbtest.Open(t)
	conn := client.DB()
	svc, err := NewService(NewRepository(conn), client, "sgd")
	require.NoError(t, err)
	mustCreateCategory(t, conn, "Jewellery", "jewellery")
	mustCreateCategory(t, conn, "Clothing", "clothing")
	mustCreateCategory(t, conn, "Footwear", "footwear")

	got, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Clothing", "Footwear", "Jewellery"}, []string{got[0].Name, got[1].Name, got[2].Name})
}
