// Package metrics holds the Prometheus collectors of the inventory service. A nil
// *Metrics records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clinicstock"

// Metrics bundles the collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	movements       *prometheus.CounterVec
	movedUnits      *prometheus.CounterVec
	alertsRaised    *prometheus.CounterVec
	orderStatus     *prometheus.CounterVec
	scanDuration    prometheus.Histogram
	requestCounter  *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	rejectedChanges *prometheus.CounterVec
}

// New creates the collectors on a dedicated registry, together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		movements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stock_movements_total",
				Help:      "Number of stock movements recorded, by type",
			},
			[]string{"type"},
		),
		movedUnits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stock_moved_units_total",
				Help:      "Absolute units moved in or out of stock, by movement type",
			},
			[]string{"type"},
		),
		alertsRaised: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alerts_raised_total",
				Help:      "Number of alerts raised, by type and severity",
			},
			[]string{"type", "severity"},
		),
		orderStatus: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "purchase_order_transitions_total",
				Help:      "Number of purchase orders entering each status",
			},
			[]string{"status"},
		),
		scanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "alert_scan_duration_seconds",
				Help:      "Duration of alert scans in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		rejectedChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stock_rejections_total",
				Help:      "Stock mutations rejected by a business rule, by error code",
			},
			[]string{"code"},
		),
	}

	m.registry.MustRegister(
		m.movements,
		m.movedUnits,
		m.alertsRaised,
		m.orderStatus,
		m.scanDuration,
		m.requestCounter,
		m.requestLatency,
		m.rejectedChanges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// MovementRecorded counts one movement of delta units.
func (m *Metrics) MovementRecorded(movementType string, delta int) {
	if m == nil {
		return
	}
	if delta < 0 {
		delta = -delta
	}
	m.movements.WithLabelValues(movementType).Inc()
	m.movedUnits.WithLabelValues(movementType).Add(float64(delta))
}

// AlertRaised counts a newly stored alert.
func (m *Metrics) AlertRaised(alertType, severity string) {
	if m == nil {
		return
	}
	m.alertsRaised.WithLabelValues(alertType, severity).Inc()
}

// OrderTransitioned counts a purchase order entering status.
func (m *Metrics) OrderTransitioned(status string) {
	if m == nil {
		return
	}
	m.orderStatus.WithLabelValues(status).Inc()
}

// ScanObserved records how long an alert scan took.
func (m *Metrics) ScanObserved(d time.Duration) {
	if m == nil {
		return
	}
	m.scanDuration.Observe(d.Seconds())
}

// Rejected counts a mutation refused with the given error code.
func (m *Metrics) Rejected(code string) {
	if m == nil {
		return
	}
	m.rejectedChanges.WithLabelValues(code).Inc()
}

// Middleware records request count and latency labelled by chi route pattern,
// so ids in paths do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requestLatency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		m.requestCounter.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}
