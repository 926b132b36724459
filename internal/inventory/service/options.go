package service

import (
	stderrors "errors"
	"time"

	"github.com/clinicstock/backend/internal/inventory/cache"
	"github.com/clinicstock/backend/internal/inventory/events"
	"github.com/clinicstock/backend/internal/inventory/metrics"
	"github.com/clinicstock/backend/pkg/errors"
)

const (
	defaultExpiryWindowDays = 30
	defaultReorderMonths    = 2
)

// Option configures the optional collaborators of a service. Everything left
// unset is disabled: no events, no cache, no metrics.
type Option func(*deps)

type deps struct {
	publisher        *events.Publisher
	cache            *cache.SummaryCache
	metrics          *metrics.Metrics
	now              func() time.Time
	expiryWindowDays int
	reorderMonths    int
}

// WithPublisher publishes domain events after each committed change.
func WithPublisher(p *events.Publisher) Option {
	return func(d *deps) { d.publisher = p }
}

// WithSummaryCache caches dashboard summaries and invalidates them on change.
func WithSummaryCache(c *cache.SummaryCache) Option {
	return func(d *deps) { d.cache = c }
}

// WithMetrics records Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) { d.metrics = m }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// WithExpiryWindow sets the default look-ahead of expiry analytics and scans.
func WithExpiryWindow(days int) Option {
	return func(d *deps) { d.expiryWindowDays = days }
}

// WithReorderMonths sets the default horizon of reorder suggestions.
func WithReorderMonths(months int) Option {
	return func(d *deps) { d.reorderMonths = months }
}

func newDeps(opts []Option) deps {
	d := deps{
		now:              time.Now,
		expiryWindowDays: defaultExpiryWindowDays,
		reorderMonths:    defaultReorderMonths,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func (d *deps) clock() time.Time {
	return d.now().UTC()
}

// reject counts business rule refusals and passes err through.
func (d *deps) reject(err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.StatusCode < 500 {
		d.metrics.Rejected(appErr.Code)
	}
	return err
}
