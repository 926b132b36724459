package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/repository"
	"github.com/clinicstock/backend/pkg/actor"
	"github.com/clinicstock/backend/pkg/logger"
)

// AlertGenerator turns stock conditions into deduplicated alerts. It never
// resolves alerts on its own and never writes lots or products.
type AlertGenerator struct {
	store     repository.Store
	analytics *Analytics
	deps      deps
	logger    *logger.Logger
}

// NewAlertGenerator creates an alert generator over store.
func NewAlertGenerator(store repository.Store, log *logger.Logger, opts ...Option) *AlertGenerator {
	return &AlertGenerator{
		store:     store,
		analytics: NewAnalytics(store, log, opts...),
		deps:      newDeps(opts),
		logger:    log.WithComponent("alerts"),
	}
}

// ScanAndRaise raises LOW_STOCK, EXPIRING and EXPIRED alerts for current
// conditions and returns how many were new. A failing scan is logged and the
// others still run; the last failure is returned.
func (g *AlertGenerator) ScanAndRaise(ctx context.Context) (int, error) {
	start := time.Now()
	now := g.deps.clock()

	scanners := []struct {
		name string
		fn   func(context.Context, time.Time) (int, error)
	}{
		{"low_stock", g.scanLowStock},
		{"expiry", g.scanExpiry},
	}

	raised := 0
	var lastErr error
	for _, scanner := range scanners {
		n, err := scanner.fn(ctx, now)
		raised += n
		if err != nil {
			g.logger.Error().Err(err).Str("scanner", scanner.name).Msg("alert scan failed")
			lastErr = err
		}
	}

	g.deps.metrics.ScanObserved(time.Since(start))
	if raised > 0 {
		g.deps.cache.Invalidate(ctx)
	}
	g.logger.Debug().Int("raised", raised).Msg("alert scan finished")
	return raised, lastErr
}

func (g *AlertGenerator) scanLowStock(ctx context.Context, now time.Time) (int, error) {
	levels, err := g.analytics.lowStock(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("scanLowStock: %w", err)
	}

	raised := 0
	for i := range levels {
		a := domain.LowStockAlert(&levels[i].Product, levels[i].TotalStock, now)
		if g.raise(ctx, a) {
			raised++
		}
	}
	return raised, nil
}

func (g *AlertGenerator) scanExpiry(ctx context.Context, now time.Time) (int, error) {
	batches, err := g.analytics.expiring(ctx, now, g.deps.expiryWindowDays)
	if err != nil {
		return 0, fmt.Errorf("scanExpiry: %w", err)
	}

	products := make(map[uuid.UUID]*domain.Product)
	raised := 0
	for i := range batches {
		b := &batches[i]
		p, ok := products[b.ProductID]
		if !ok {
			p, err = g.store.Products().Get(ctx, b.ProductID)
			if err != nil {
				g.logger.Error().Err(err).Str("product_id", b.ProductID.String()).Msg("scanExpiry: failed to load product")
				p = nil
			}
			products[b.ProductID] = p
		}
		if g.raise(ctx, domain.ExpiryAlert(p, b, now)) {
			raised++
		}
	}
	return raised, nil
}

// raise stores a unless an open alert with the same key exists.
func (g *AlertGenerator) raise(ctx context.Context, a *domain.Alert) bool {
	created, err := g.store.Alerts().CreateIfAbsent(ctx, a)
	if err != nil {
		g.logger.Error().Err(err).
			Str("alert_type", string(a.Type)).
			Str("product_id", a.ProductID.String()).
			Msg("failed to create alert")
		return false
	}
	if !created {
		return false
	}

	g.deps.metrics.AlertRaised(string(a.Type), string(a.Severity))
	g.deps.publisher.AlertRaised(ctx, a)
	g.logger.Info().
		Str("alert_id", a.ID.String()).
		Str("alert_type", string(a.Type)).
		Str("severity", string(a.Severity)).
		Msg(a.Message)
	return true
}

// Resolve acknowledges an alert. Resolving a resolved alert changes nothing
// and succeeds.
func (g *AlertGenerator) Resolve(ctx context.Context, id uuid.UUID) (*domain.Alert, error) {
	actorName := actor.NameFromContext(ctx)

	var (
		resolved *domain.Alert
		changed  bool
	)
	err := g.store.WithinTx(ctx, func(tx repository.Store) error {
		a, err := tx.Alerts().Get(ctx, id)
		if err != nil {
			return err
		}
		resolved = a
		if changed = a.Resolve(actorName, g.deps.clock()); !changed {
			return nil
		}
		return tx.Alerts().Resolve(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		g.deps.publisher.AlertResolved(ctx, resolved)
		g.deps.cache.Invalidate(ctx)
		g.logger.Info().Str("alert_id", id.String()).Str("actor", actorName).Msg("alert resolved")
	}
	return resolved, nil
}

// ListAlerts returns matching alerts, critical first then newest first.
func (g *AlertGenerator) ListAlerts(ctx context.Context, filter repository.AlertFilter) ([]domain.Alert, error) {
	return g.store.Alerts().List(ctx, filter)
}
