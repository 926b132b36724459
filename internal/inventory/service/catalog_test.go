package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicstock/backend/internal/inventory/domain"
	apperrors "github.com/clinicstock/backend/pkg/errors"
	"github.com/clinicstock/backend/pkg/testutil"
)

func TestCatalog_AddProduct(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.supplier(t)

	in := e.fixtures.NewProduct(testutil.WithSKU("GLV-M"))
	in.SupplierID = &s.ID
	in.Barcode = testutil.PtrString("4006381333931")

	p, err := e.catalog.AddProduct(ctx, in)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, startOfTest, p.CreatedAt)

	got, err := e.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "GLV-M", got.SKU)
	assert.Equal(t, s.ID, *got.SupplierID)
}

func TestCatalog_AddProductRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	existing := e.fixtures.NewProduct(testutil.WithSKU("DUP-1"))
	existing.Barcode = testutil.PtrString("123")
	_, err := e.catalog.AddProduct(ctx, existing)
	require.NoError(t, err)

	unknownSupplier := uuid.New()
	tests := []struct {
		name   string
		mutate func(*domain.NewProduct)
		want   error
	}{
		{"duplicate sku", func(p *domain.NewProduct) { p.SKU = "DUP-1" }, domain.ErrDuplicateSku},
		{"duplicate barcode", func(p *domain.NewProduct) { p.Barcode = testutil.PtrString("123") }, domain.ErrDuplicateBarcode},
		{"unknown supplier", func(p *domain.NewProduct) { p.SupplierID = &unknownSupplier }, domain.ErrUnknownSupplier},
		{"missing name", func(p *domain.NewProduct) { p.Name = "  " }, apperrors.ErrValidation},
		{"negative reorder level", func(p *domain.NewProduct) { p.ReorderLevel = -1 }, apperrors.ErrValidation},
		{"negative price", func(p *domain.NewProduct) { p.UnitPrice = decimal.NewFromInt(-1) }, apperrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.catalog.AddProduct(ctx, e.fixtures.NewProduct(tt.mutate))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	products, err := e.catalog.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestCatalog_UpdatePricing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t)

	price := decimal.RequireFromString("14.00")
	level := 25
	e.clock.AdvanceDays(1)
	got, err := e.catalog.UpdatePricing(ctx, p.ID, domain.PricingUpdate{UnitPrice: &price, ReorderLevel: &level})
	require.NoError(t, err)
	assert.True(t, got.UnitPrice.Equal(price))
	assert.True(t, got.CostPrice.Equal(p.CostPrice), "unset fields are left alone")
	assert.Equal(t, 25, got.ReorderLevel)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	negative := -1
	_, err = e.catalog.UpdatePricing(ctx, p.ID, domain.PricingUpdate{ReorderLevel: &negative})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = e.catalog.UpdatePricing(ctx, uuid.New(), domain.PricingUpdate{UnitPrice: &price})
	assert.ErrorIs(t, err, domain.ErrUnknownProduct)
}

func TestCatalog_Suppliers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.catalog.AddSupplier(ctx, domain.Supplier{Name: ""})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	b, err := e.catalog.AddSupplier(ctx, domain.Supplier{Name: "Beta Medical", LeadTimeDays: 3})
	require.NoError(t, err)
	a, err := e.catalog.AddSupplier(ctx, domain.Supplier{Name: "Alpha Pharma"})
	require.NoError(t, err)

	list, err := e.catalog.ListSuppliers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	got, err := e.catalog.GetSupplier(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.LeadTimeDays)

	_, err = e.catalog.GetSupplier(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUnknownSupplier)
}
