package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/events"
	"github.com/clinicstock/backend/internal/inventory/metrics"
	"github.com/clinicstock/backend/internal/inventory/repository"
	"github.com/clinicstock/backend/internal/inventory/repository/memory"
	"github.com/clinicstock/backend/internal/inventory/service"
	"github.com/clinicstock/backend/pkg/actor"
	"github.com/clinicstock/backend/pkg/logger"
	"github.com/clinicstock/backend/pkg/messaging"
	"github.com/clinicstock/backend/pkg/testutil"
)

// testClock is a settable clock shared by every service of an env.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) AdvanceDays(days int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, days)
}

// env wires every service over one memory store.
type env struct {
	store     *memory.Store
	clock     *testClock
	broker    *testutil.RecordingChannel
	metrics   *metrics.Metrics
	catalog   *service.Catalog
	ledger    *service.Ledger
	analytics *service.Analytics
	alerts    *service.AlertGenerator
	orders    *service.PurchaseOrderManager
	fixtures  *testutil.FixtureFactory
}

var startOfTest = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

func newEnv(t *testing.T, extra ...service.Option) *env {
	t.Helper()
	log := logger.Nop()

	e := &env{
		store:    memory.New(),
		clock:    &testClock{now: startOfTest},
		broker:   &testutil.RecordingChannel{},
		metrics:  metrics.New(),
		fixtures: testutil.NewFixtureFactory(),
	}
	pub := events.New(messaging.NewChannelPublisher(e.broker, messaging.ExchangeInventoryEvents, events.Source, log), log)

	opts := append([]service.Option{
		service.WithClock(e.clock.Now),
		service.WithPublisher(pub),
		service.WithMetrics(e.metrics),
	}, extra...)

	e.catalog = service.NewCatalog(e.store, log, opts...)
	e.ledger = service.NewLedger(e.store, log, opts...)
	e.analytics = service.NewAnalytics(e.store, log, opts...)
	e.alerts = service.NewAlertGenerator(e.store, log, opts...)
	e.orders = service.NewPurchaseOrderManager(e.store, e.ledger, log, opts...)
	return e
}

func nurseCtx() context.Context {
	return actor.WithActor(context.Background(), &actor.Actor{ID: uuid.NewString(), Username: "nurse.kim", Role: "staff"})
}

func (e *env) product(t *testing.T, opts ...func(*domain.NewProduct)) *domain.Product {
	t.Helper()
	p, err := e.catalog.AddProduct(context.Background(), e.fixtures.NewProduct(opts...))
	require.NoError(t, err)
	return p
}

func (e *env) supplier(t *testing.T) *domain.Supplier {
	t.Helper()
	s, err := e.catalog.AddSupplier(context.Background(), *e.fixtures.Supplier())
	require.NoError(t, err)
	return s
}

func (e *env) receive(t *testing.T, productID uuid.UUID, qty int, expiry *time.Time, opts ...func(*domain.Receipt)) *domain.Batch {
	t.Helper()
	b, err := e.ledger.ReceiveBatch(nurseCtx(), e.fixtures.Receipt(productID, qty, expiry, opts...))
	require.NoError(t, err)
	return b
}

// inDays returns the calendar date days after the env clock.
func (e *env) inDays(days int) *time.Time {
	d := domain.DateOf(e.clock.Now()).AddDate(0, 0, days)
	return &d
}

// requireReconciled checks that the movements of a batch add up to its remaining quantity.
func (e *env) requireReconciled(t *testing.T, batchID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	b, err := e.store.Batches().Get(ctx, batchID)
	require.NoError(t, err)
	movements, err := e.ledger.ListMovements(ctx, repository.MovementFilter{BatchID: &batchID})
	require.NoError(t, err)

	sum := 0
	for _, m := range movements {
		require.Equal(t, m.QuantityAfter-m.QuantityBefore, m.Delta)
		sum += m.Delta
	}
	require.Equal(t, b.QuantityRemaining, sum, "movement deltas must add up to remaining")
	require.GreaterOrEqual(t, b.QuantityRemaining, 0)
	require.LessOrEqual(t, b.QuantityRemaining, b.QuantityReceived)
}
