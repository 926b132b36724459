package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/clinicstock/backend/internal/inventory/service"
	"github.com/clinicstock/backend/pkg/httputil"
	"github.com/clinicstock/backend/pkg/logger"
)

// AnalyticsHandler serves valuation, low stock, expiry and dashboard reports.
type AnalyticsHandler struct {
	analytics *service.Analytics
	logger    *logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics *service.Analytics, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		logger:    log,
	}
}

// ValuationResponse is the value of usable stock at cost.
type ValuationResponse struct {
	TotalValue decimal.Decimal `json:"total_value"`
}

// Valuation returns the cost value of all usable stock
func (h *AnalyticsHandler) Valuation(w http.ResponseWriter, r *http.Request) {
	total, err := h.analytics.Valuation(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ValuationResponse{TotalValue: total})
}

// LowStock lists products at or below their reorder level
func (h *AnalyticsHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	levels, err := h.analytics.LowStockProducts(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, levels, &httputil.Meta{Total: int64(len(levels))})
}

// Expiring lists active lots expiring within ?days
func (h *AnalyticsHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	days, err := httputil.QueryInt(r, "days", h.analytics.DefaultExpiryWindow())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	batches, err := h.analytics.ExpiringBatches(r.Context(), days)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, batches, &httputil.Meta{Total: int64(len(batches))})
}

// Dashboard returns the inventory summary for ?days of expiry horizon
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	days, err := httputil.QueryInt(r, "days", h.analytics.DefaultExpiryWindow())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	summary, err := h.analytics.DashboardSummary(r.Context(), days)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}
