package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/pkg/testutil"
)

func TestAnalytics_Valuation(t *testing.T) {
	e := newEnv(t)
	ctx := nurseCtx()
	p := e.product(t)

	e.receive(t, p.ID, 10, e.inDays(40), testutil.WithCost("2.50"))
	e.receive(t, p.ID, 3, nil, testutil.WithCost("1.10"))
	recalled := e.receive(t, p.ID, 100, nil, testutil.WithCost("9.99"))
	e.receive(t, p.ID, 4, e.inDays(1), testutil.WithCost("7.00"))

	_, err := e.ledger.Recall(ctx, recalled.ID, "")
	require.NoError(t, err)

	e.clock.AdvanceDays(2)
	v, err := e.analytics.Valuation(ctx)
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.RequireFromString("28.30")), "got %s", v)
}

func TestAnalytics_ValuationIsExact(t *testing.T) {
	e := newEnv(t)
	p := e.product(t)
	for i := 0; i < 3; i++ {
		e.receive(t, p.ID, 1, nil, testutil.WithCost("0.10"))
	}

	v, err := e.analytics.Valuation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.3", v.String())
}

func TestAnalytics_ValuationEmpty(t *testing.T) {
	e := newEnv(t)

	v, err := e.analytics.Valuation(context.Background())
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	low, err := e.analytics.LowStockProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, low)
}

func TestAnalytics_LowStockProducts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	atThreshold := e.product(t, testutil.WithReorderLevel(10))
	above := e.product(t, testutil.WithReorderLevel(10))
	noThreshold := e.product(t, testutil.WithReorderLevel(0))
	noBatches := e.product(t, testutil.WithReorderLevel(5))

	e.receive(t, atThreshold.ID, 10, nil)
	e.receive(t, above.ID, 11, nil)
	_ = noThreshold

	low, err := e.analytics.LowStockProducts(ctx)
	require.NoError(t, err)

	got := map[uuid.UUID]int{}
	for _, l := range low {
		got[l.Product.ID] = l.TotalStock
	}
	assert.Equal(t, map[uuid.UUID]int{atThreshold.ID: 10, noBatches.ID: 0}, got)
}

func TestAnalytics_ExpiringBatches(t *testing.T) {
	e := newEnv(t)
	ctx := nurseCtx()
	p := e.product(t)

	pastDue := e.receive(t, p.ID, 2, e.inDays(1))
	soon := e.receive(t, p.ID, 5, e.inDays(5))
	boundary := e.receive(t, p.ID, 5, e.inDays(32))
	e.receive(t, p.ID, 5, e.inDays(33))
	e.receive(t, p.ID, 5, nil)
	depleted := e.receive(t, p.ID, 1, e.inDays(6))
	recalled := e.receive(t, p.ID, 1, e.inDays(7))

	_, err := e.ledger.Consume(ctx, depleted.ID, 1, "")
	require.NoError(t, err)
	_, err = e.ledger.Recall(ctx, recalled.ID, "")
	require.NoError(t, err)

	e.clock.AdvanceDays(2)
	batches, err := e.analytics.ExpiringBatches(ctx, 30)
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(batches))
	for _, b := range batches {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []uuid.UUID{pastDue.ID, soon.ID, boundary.ID}, ids)

	none, err := e.analytics.ExpiringBatches(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, none, 1, "a zero window still reports lots already past due")

	_, err = e.analytics.ExpiringBatches(ctx, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestAnalytics_SuggestReorder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t)

	e.clock.Set(time.Date(2025, time.January, 5, 10, 0, 0, 0, time.UTC))
	e.receive(t, p.ID, 30, nil)
	e.clock.Set(time.Date(2025, time.January, 20, 10, 0, 0, 0, time.UTC))
	e.receive(t, p.ID, 10, nil)
	e.clock.Set(time.Date(2025, time.February, 3, 10, 0, 0, 0, time.UTC))
	e.receive(t, p.ID, 20, nil)
	e.clock.Set(time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC))
	e.receive(t, p.ID, 60, nil)

	tests := []struct {
		months int
		want   int
	}{
		{1, 40},
		{2, 80},
		{3, 120},
	}
	for _, tt := range tests {
		got, err := e.analytics.SuggestReorder(ctx, p.ID, tt.months)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "months=%d", tt.months)
	}

	_, err := e.analytics.SuggestReorder(ctx, p.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = e.analytics.SuggestReorder(ctx, uuid.New(), 2)
	assert.ErrorIs(t, err, domain.ErrUnknownProduct)
}

func TestAnalytics_SuggestReorderUsesRecentReceipts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t)

	e.clock.Set(time.Date(2024, time.December, 1, 8, 0, 0, 0, time.UTC))
	e.receive(t, p.ID, 1000, nil)
	for day := 1; day <= domain.ReorderHistoryLimit; day++ {
		e.clock.Set(time.Date(2025, time.February, day, 8, 0, 0, 0, time.UTC))
		e.receive(t, p.ID, 10, nil)
	}

	got, err := e.analytics.SuggestReorder(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 240, got)
}

func TestAnalytics_SuggestReorderWithoutHistory(t *testing.T) {
	e := newEnv(t)
	p := e.product(t)

	got, err := e.analytics.SuggestReorder(context.Background(), p.ID, 2)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestAnalytics_DashboardSummary(t *testing.T) {
	e := newEnv(t)
	ctx := nurseCtx()

	gloves := e.product(t, testutil.WithReorderLevel(5))
	syringes := e.product(t, func(p *domain.NewProduct) {
		p.Category = "injection"
		p.ReorderLevel = 50
	})
	e.product(t, testutil.WithReorderLevel(0))

	e.receive(t, gloves.ID, 20, e.inDays(100), testutil.WithCost("1.00"))
	e.receive(t, syringes.ID, 10, e.inDays(10), testutil.WithCost("0.333"))
	e.receive(t, syringes.ID, 4, e.inDays(-1), testutil.WithCost("5.00"))

	_, err := e.alerts.ScanAndRaise(ctx)
	require.NoError(t, err)

	s, err := e.analytics.DashboardSummary(ctx, 30)
	require.NoError(t, err)

	assert.Equal(t, 3, s.ProductCount)
	assert.Equal(t, 30, s.TotalStock)
	assert.Equal(t, "23.33", s.TotalValue.StringFixed(2))
	assert.Equal(t, 1, s.LowStockCount)
	assert.Equal(t, 1, s.ExpiringCount)
	assert.Equal(t, 1, s.ExpiredCount)
	assert.Equal(t, 3, s.OpenAlertCount)
	assert.Equal(t, 30, s.WindowDays)

	require.Len(t, s.CategoryBreakdown, 2)
	assert.Equal(t, "consumables", s.CategoryBreakdown[0].Category)
	assert.Equal(t, 2, s.CategoryBreakdown[0].ProductCount)
	assert.Equal(t, 20, s.CategoryBreakdown[0].TotalStock)
	assert.Equal(t, "injection", s.CategoryBreakdown[1].Category)
	assert.Equal(t, "3.33", s.CategoryBreakdown[1].TotalValue.StringFixed(2))

	_, err = e.analytics.DashboardSummary(ctx, -3)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestAnalytics_UsageSummary(t *testing.T) {
	e := newEnv(t)
	ctx := nurseCtx()
	p := e.product(t)
	b := e.receive(t, p.ID, 40, nil)

	_, err := e.ledger.Consume(ctx, b.ID, 10, "")
	require.NoError(t, err)

	e.clock.AdvanceDays(20)
	_, err = e.ledger.Consume(ctx, b.ID, 6, "")
	require.NoError(t, err)
	_, err = e.ledger.Consume(ctx, b.ID, 4, "")
	require.NoError(t, err)
	_, err = e.ledger.Adjust(ctx, b.ID, -2, "breakage")
	require.NoError(t, err)

	u, err := e.analytics.UsageSummary(ctx, p.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, u.TotalUsed)
	assert.Equal(t, 2, u.UsageCount)
	assert.Equal(t, "1", u.AverageDailyUsage.String())
	assert.Equal(t, 18, u.CurrentStock)
	require.NotNil(t, u.DaysUntilDepletion)
	assert.Equal(t, 18, *u.DaysUntilDepletion)

	idle := e.product(t)
	u, err = e.analytics.UsageSummary(ctx, idle.ID, 30)
	require.NoError(t, err)
	assert.Zero(t, u.TotalUsed)
	assert.Nil(t, u.DaysUntilDepletion)

	_, err = e.analytics.UsageSummary(ctx, uuid.New(), 30)
	assert.ErrorIs(t, err, domain.ErrUnknownProduct)
}

func TestAnalytics_StockPosition(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, testutil.WithReorderLevel(20))

	e.receive(t, p.ID, 8, e.inDays(12))
	e.receive(t, p.ID, 4, e.inDays(2))
	expired := e.receive(t, p.ID, 9, e.inDays(1))

	e.clock.AdvanceDays(2)
	pos, err := e.analytics.StockPosition(ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, 12, pos.TotalStock)
	assert.True(t, pos.LowStock)
	require.NotNil(t, pos.NearestExpiry)
	assert.Equal(t, testutil.Date(2025, time.March, 12), *pos.NearestExpiry)
	assert.Equal(t, 2*21, pos.SuggestedReorder)

	require.Len(t, pos.Batches, 3)
	assert.Equal(t, expired.ID, pos.Batches[0].ID)
	assert.Equal(t, domain.BatchExpired, pos.Batches[0].Status)
}
