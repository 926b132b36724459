//go:build integration

package postgres_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/repository"
	"github.com/clinicstock/backend/internal/inventory/repository/postgres"
	"github.com/clinicstock/backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	ctx := context.Background()
	s, err := testutil.NewIntegrationSuite(ctx, postgres.Migrations, postgres.MigrationsDir)
	if err != nil {
		log.Fatalf("failed to start integration suite: %v", err)
	}
	suite = s

	code := m.Run()
	testutil.TerminateContainer(ctx)
	os.Exit(code)
}

func seedProduct(t *testing.T, ctx context.Context, store *postgres.Store) (*domain.Supplier, *domain.Product) {
	t.Helper()
	now := time.Now().UTC()

	supplier := suite.Fixtures.Supplier()
	require.NoError(t, store.Suppliers().Create(ctx, supplier))

	input := suite.Fixtures.NewProduct()
	input.SupplierID = &supplier.ID
	product, err := input.Build(now)
	require.NoError(t, err)
	require.NoError(t, store.Products().Create(ctx, product))
	return supplier, product
}

func TestIntegration_BatchLifecycle(t *testing.T) {
	ctx := testutil.DefaultTestContext(t)
	suite.Reset(t, ctx)
	store := postgres.New(suite.DB)
	_, product := seedProduct(t, ctx, store)

	now := time.Now().UTC()
	expiry := now.AddDate(0, 6, 0)
	batch, err := suite.Fixtures.Receipt(product.ID, 20, &expiry, testutil.WithCost("1.10")).Build(now)
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Batches().Create(ctx, batch); err != nil {
			return err
		}
		return tx.Movements().Append(ctx, domain.NewMovement(batch, domain.MovementReceipt,
			domain.StockChange{Before: 0, After: 20}, "alex", "", now))
	})
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		locked, err := tx.Batches().GetForUpdate(ctx, batch.ID)
		if err != nil {
			return err
		}
		change, err := locked.Consume(5, now)
		if err != nil {
			return err
		}
		if err := tx.Batches().Update(ctx, locked); err != nil {
			return err
		}
		return tx.Movements().Append(ctx, domain.NewMovement(locked, domain.MovementConsumption, change, "alex", "", now))
	})
	require.NoError(t, err)

	got, err := store.Batches().Get(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, got.QuantityRemaining)
	assert.True(t, decimal.RequireFromString("1.10").Equal(got.CostPerUnit))

	movements, err := store.Movements().List(ctx, repository.MovementFilter{BatchID: &batch.ID})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	sum := 0
	for _, m := range movements {
		sum += m.Delta
	}
	assert.Equal(t, got.QuantityRemaining, sum)

	dup, err := suite.Fixtures.Receipt(product.ID, 1, nil, testutil.WithBatchNumber(batch.BatchNumber)).Build(now)
	require.NoError(t, err)
	assert.ErrorIs(t, store.Batches().Create(ctx, dup), domain.ErrDuplicateBatch)
}

func TestIntegration_FailedTransactionLeavesNoTrace(t *testing.T) {
	ctx := testutil.DefaultTestContext(t)
	suite.Reset(t, ctx)
	store := postgres.New(suite.DB)
	_, product := seedProduct(t, ctx, store)

	now := time.Now().UTC()
	batch, err := suite.Fixtures.Receipt(product.ID, 5, nil).Build(now)
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Batches().Create(ctx, batch); err != nil {
			return err
		}
		return domain.InvalidQuantity("forced failure")
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	batches, err := store.Batches().List(ctx, repository.BatchFilter{ProductID: &product.ID})
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestIntegration_AlertDedup(t *testing.T) {
	ctx := testutil.DefaultTestContext(t)
	suite.Reset(t, ctx)
	store := postgres.New(suite.DB)
	_, product := seedProduct(t, ctx, store)

	now := time.Now().UTC()
	first := domain.LowStockAlert(product, 3, now)
	created, err := store.Alerts().CreateIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.Alerts().CreateIfAbsent(ctx, domain.LowStockAlert(product, 2, now))
	require.NoError(t, err)
	assert.False(t, created)

	first.Resolve("alex", now)
	require.NoError(t, store.Alerts().Resolve(ctx, first))

	created, err = store.Alerts().CreateIfAbsent(ctx, domain.LowStockAlert(product, 1, now))
	require.NoError(t, err)
	assert.True(t, created)

	open, err := store.Alerts().CountUnresolved(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, open)
}

func TestIntegration_PurchaseOrderRoundTrip(t *testing.T) {
	ctx := testutil.DefaultTestContext(t)
	suite.Reset(t, ctx)
	store := postgres.New(suite.DB)
	supplier, product := seedProduct(t, ctx, store)

	now := time.Now().UTC()
	po, err := domain.NewOrder{
		SupplierID: supplier.ID,
		Lines: []domain.OrderLine{
			{ProductID: product.ID, Quantity: 10, UnitPrice: decimal.RequireFromString("4.20")},
		},
		Priority: domain.PriorityHigh,
	}.Build("alex", now)
	require.NoError(t, err)

	require.NoError(t, store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.PurchaseOrders().Create(ctx, po)
	}))

	got, err := store.PurchaseOrders().Get(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, po.OrderNumber, got.OrderNumber)
	assert.True(t, decimal.RequireFromString("42").Equal(got.TotalAmount))
	require.Len(t, got.Items, 1)
	assert.Equal(t, 10, got.Items[0].QuantityOrdered)

	list, err := store.PurchaseOrders().List(ctx, repository.PurchaseOrderFilter{Status: domain.POPending})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Items, 1)
}
