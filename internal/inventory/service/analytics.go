package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/repository"
	"github.com/clinicstock/backend/pkg/logger"
)

// Analytics answers read-only questions about stock. It never writes.
type Analytics struct {
	store  repository.Store
	deps   deps
	logger *logger.Logger
}

// NewAnalytics creates an analytics service over store.
func NewAnalytics(store repository.Store, log *logger.Logger, opts ...Option) *Analytics {
	return &Analytics{
		store:  store,
		deps:   newDeps(opts),
		logger: log.WithComponent("analytics"),
	}
}

// DefaultExpiryWindow is the look-ahead used when callers do not pick one.
func (a *Analytics) DefaultExpiryWindow() int { return a.deps.expiryWindowDays }

// DefaultReorderMonths is the horizon used when callers do not pick one.
func (a *Analytics) DefaultReorderMonths() int { return a.deps.reorderMonths }

// StockLevel pairs a product with its usable stock.
type StockLevel struct {
	Product    domain.Product `json:"product"`
	TotalStock int            `json:"total_stock"`
}

// Valuation is the exact value of usable stock at batch cost.
func (a *Analytics) Valuation(ctx context.Context) (decimal.Decimal, error) {
	batches, err := a.store.Batches().List(ctx, repository.BatchFilter{InStock: true})
	if err != nil {
		return decimal.Zero, err
	}
	return domain.Valuation(batches, a.deps.clock()), nil
}

// LowStockProducts returns products at or below their reorder level, by name.
func (a *Analytics) LowStockProducts(ctx context.Context) ([]StockLevel, error) {
	return a.lowStock(ctx, a.deps.clock())
}

func (a *Analytics) lowStock(ctx context.Context, now time.Time) ([]StockLevel, error) {
	products, err := a.store.Products().List(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := a.stockByProduct(ctx, now)
	if err != nil {
		return nil, err
	}

	out := make([]StockLevel, 0)
	for _, p := range products {
		if total := totals[p.ID]; p.IsLowStock(total) {
			out = append(out, StockLevel{Product: p, TotalStock: total})
		}
	}
	return out, nil
}

func (a *Analytics) stockByProduct(ctx context.Context, now time.Time) (map[uuid.UUID]int, error) {
	batches, err := a.store.Batches().List(ctx, repository.BatchFilter{InStock: true})
	if err != nil {
		return nil, err
	}
	totals := make(map[uuid.UUID]int)
	for i := range batches {
		if batches[i].IsUsable(now) {
			totals[batches[i].ProductID] += batches[i].QuantityRemaining
		}
	}
	return totals, nil
}

// ExpiringBatches returns active lots with stock expiring within windowDays,
// soonest first. Lots already past their date are included.
func (a *Analytics) ExpiringBatches(ctx context.Context, windowDays int) ([]domain.Batch, error) {
	if windowDays < 0 {
		return nil, a.deps.reject(domain.InvalidQuantity("window must not be negative, got %d days", windowDays))
	}
	return a.expiring(ctx, a.deps.clock(), windowDays)
}

func (a *Analytics) expiring(ctx context.Context, now time.Time, windowDays int) ([]domain.Batch, error) {
	cutoff := domain.DateOf(now).AddDate(0, 0, windowDays)
	batches, err := a.store.Batches().List(ctx, repository.BatchFilter{
		Statuses:       []domain.BatchStatus{domain.BatchActive},
		InStock:        true,
		ExpiringBefore: &cutoff,
	})
	if err != nil {
		return nil, err
	}
	return domain.ExpiringWithin(batches, now, windowDays), nil
}

// SuggestReorder projects the quantity to order for the next months months
// from the product's recent receipts.
func (a *Analytics) SuggestReorder(ctx context.Context, productID uuid.UUID, months int) (int, error) {
	if months < 1 {
		return 0, a.deps.reject(domain.InvalidQuantity("months must be at least 1, got %d", months))
	}
	if _, err := a.store.Products().Get(ctx, productID); err != nil {
		return 0, err
	}
	receipts, err := a.store.Batches().RecentReceipts(ctx, productID, domain.ReorderHistoryLimit)
	if err != nil {
		return 0, err
	}
	return domain.SuggestReorder(receipts, months)
}

// CategoryStock aggregates the catalog by category.
type CategoryStock struct {
	Category     string          `json:"category"`
	ProductCount int             `json:"product_count"`
	TotalStock   int             `json:"total_stock"`
	TotalValue   decimal.Decimal `json:"total_value"`
}

// Summary is the dashboard overview.
type Summary struct {
	TotalValue        decimal.Decimal `json:"total_value"`
	ProductCount      int             `json:"product_count"`
	TotalStock        int             `json:"total_stock"`
	LowStockCount     int             `json:"low_stock_count"`
	ExpiringCount     int             `json:"expiring_count"`
	ExpiredCount      int             `json:"expired_count"`
	OpenAlertCount    int             `json:"open_alert_count"`
	CategoryBreakdown []CategoryStock `json:"category_breakdown"`
	WindowDays        int             `json:"window_days"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// DashboardSummary returns the overview for an expiry window of windowDays.
// Results are served from the summary cache when one is configured.
func (a *Analytics) DashboardSummary(ctx context.Context, windowDays int) (*Summary, error) {
	if windowDays < 0 {
		return nil, a.deps.reject(domain.InvalidQuantity("window must not be negative, got %d days", windowDays))
	}

	var cached Summary
	if a.deps.cache.Get(ctx, windowDays, &cached) {
		return &cached, nil
	}

	now := a.deps.clock()
	products, err := a.store.Products().List(ctx)
	if err != nil {
		return nil, err
	}
	batches, err := a.store.Batches().List(ctx, repository.BatchFilter{InStock: true})
	if err != nil {
		return nil, err
	}
	expiring, err := a.expiring(ctx, now, windowDays)
	if err != nil {
		return nil, err
	}
	openAlerts, err := a.store.Alerts().CountUnresolved(ctx)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		TotalValue:     decimal.Zero,
		ProductCount:   len(products),
		OpenAlertCount: openAlerts,
		WindowDays:     windowDays,
		GeneratedAt:    now,
	}

	categoryOf := make(map[uuid.UUID]string, len(products))
	categories := make(map[string]*CategoryStock)
	for _, p := range products {
		categoryOf[p.ID] = p.Category
		c, ok := categories[p.Category]
		if !ok {
			c = &CategoryStock{Category: p.Category, TotalValue: decimal.Zero}
			categories[p.Category] = c
		}
		c.ProductCount++
	}

	totals := make(map[uuid.UUID]int)
	for i := range batches {
		b := &batches[i]
		switch b.EffectiveStatus(now) {
		case domain.BatchActive:
			value := b.CostPerUnit.Mul(decimal.NewFromInt(int64(b.QuantityRemaining)))
			totals[b.ProductID] += b.QuantityRemaining
			s.TotalStock += b.QuantityRemaining
			s.TotalValue = s.TotalValue.Add(value)
			if c, ok := categories[categoryOf[b.ProductID]]; ok {
				c.TotalStock += b.QuantityRemaining
				c.TotalValue = c.TotalValue.Add(value)
			}
		case domain.BatchExpired:
			s.ExpiredCount++
		}
	}
	for _, p := range products {
		if p.IsLowStock(totals[p.ID]) {
			s.LowStockCount++
		}
	}
	for i := range expiring {
		if !expiring[i].IsExpiredAt(now) {
			s.ExpiringCount++
		}
	}

	s.CategoryBreakdown = make([]CategoryStock, 0, len(categories))
	for _, c := range categories {
		c.TotalValue = c.TotalValue.Round(2)
		s.CategoryBreakdown = append(s.CategoryBreakdown, *c)
	}
	sort.Slice(s.CategoryBreakdown, func(i, j int) bool {
		return s.CategoryBreakdown[i].Category < s.CategoryBreakdown[j].Category
	})
	s.TotalValue = s.TotalValue.Round(2)

	a.deps.cache.Set(ctx, windowDays, s)
	return s, nil
}

// UsageSummary describes how fast a product was consumed over the last windowDays.
func (a *Analytics) UsageSummary(ctx context.Context, productID uuid.UUID, windowDays int) (*domain.UsageSummary, error) {
	if windowDays < 1 {
		return nil, a.deps.reject(domain.InvalidQuantity("window must be at least 1 day, got %d", windowDays))
	}
	if _, err := a.store.Products().Get(ctx, productID); err != nil {
		return nil, err
	}

	now := a.deps.clock()
	since := now.AddDate(0, 0, -windowDays)
	movements, err := a.store.Movements().List(ctx, repository.MovementFilter{
		ProductID: &productID,
		Type:      domain.MovementConsumption,
		Since:     &since,
	})
	if err != nil {
		return nil, err
	}
	batches, err := a.store.Batches().List(ctx, repository.BatchFilter{ProductID: &productID, InStock: true})
	if err != nil {
		return nil, err
	}

	summary := domain.SummarizeUsage(movements, domain.TotalStock(batches, now), windowDays)
	return &summary, nil
}

// Position is everything known about one product's stock.
type Position struct {
	Product          domain.Product `json:"product"`
	Batches          []domain.Batch `json:"batches"`
	TotalStock       int            `json:"total_stock"`
	NearestExpiry    *time.Time     `json:"nearest_expiry,omitempty"`
	LowStock         bool           `json:"low_stock"`
	SuggestedReorder int            `json:"suggested_reorder"`
}

// StockPosition returns the product with its lots in FEFO order, usable stock,
// nearest expiry and a reorder suggestion over the default horizon.
func (a *Analytics) StockPosition(ctx context.Context, productID uuid.UUID) (*Position, error) {
	p, err := a.store.Products().Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	batches, err := a.store.Batches().List(ctx, repository.BatchFilter{ProductID: &productID})
	if err != nil {
		return nil, err
	}
	suggested, err := a.SuggestReorder(ctx, productID, a.deps.reorderMonths)
	if err != nil {
		return nil, err
	}

	now := a.deps.clock()
	total := domain.TotalStock(batches, now)
	nearest := domain.NearestExpiry(batches, now)
	for i := range batches {
		batches[i].Status = batches[i].EffectiveStatus(now)
	}
	return &Position{
		Product:          *p,
		Batches:          batches,
		TotalStock:       total,
		NearestExpiry:    nearest,
		LowStock:         p.IsLowStock(total),
		SuggestedReorder: suggested,
	}, nil
}
