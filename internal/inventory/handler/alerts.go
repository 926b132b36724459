package handler

import (
	"net/http"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/repository"
	"github.com/clinicstock/backend/internal/inventory/service"
	"github.com/clinicstock/backend/pkg/httputil"
	"github.com/clinicstock/backend/pkg/logger"
)

// AlertHandler handles alert endpoints
type AlertHandler struct {
	alerts *service.AlertGenerator
	logger *logger.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alerts *service.AlertGenerator, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		alerts: alerts,
		logger: log,
	}
}

// ScanResponse reports how many alerts a scan raised.
type ScanResponse struct {
	Raised int `json:"raised"`
}

// List lists alerts, critical first. Filters: resolved, type and product_id.
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	resolved, err := httputil.QueryBool(r, "resolved")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	productID, err := queryUUID(r, "product_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	alerts, err := h.alerts.ListAlerts(r.Context(), repository.AlertFilter{
		Resolved:  resolved,
		Type:      domain.AlertType(r.URL.Query().Get("type")),
		ProductID: productID,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, alerts, &httputil.Meta{Total: int64(len(alerts))})
}

// Scan runs the low stock and expiry checks now
func (h *AlertHandler) Scan(w http.ResponseWriter, r *http.Request) {
	raised, err := h.alerts.ScanAndRaise(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Int("raised", raised).Msg("alert scan incomplete")
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ScanResponse{Raised: raised})
}

// Resolve acknowledges an alert
func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "alert")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	alert, err := h.alerts.Resolve(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, alert)
}
