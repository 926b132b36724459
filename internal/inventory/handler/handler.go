// Package handler translates the inventory REST API onto the services. Every
// business rule lives below this layer.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/service"
	"github.com/clinicstock/backend/pkg/errors"
	"github.com/clinicstock/backend/pkg/httputil"
	"github.com/clinicstock/backend/pkg/logger"
)

// Services are the collaborators the handlers call.
type Services struct {
	Catalog   *service.Catalog
	Ledger    *service.Ledger
	Analytics *service.Analytics
	Alerts    *service.AlertGenerator
	Orders    *service.PurchaseOrderManager
}

// Register mounts the inventory routes on r.
func Register(r chi.Router, svc Services, log *logger.Logger) {
	products := NewProductHandler(svc.Catalog, svc.Ledger, svc.Analytics, log)
	suppliers := NewSupplierHandler(svc.Catalog, log)
	batches := NewBatchHandler(svc.Ledger, log)
	analytics := NewAnalyticsHandler(svc.Analytics, log)
	alerts := NewAlertHandler(svc.Alerts, log)
	orders := NewPurchaseOrderHandler(svc.Orders, log)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", products.List)
		r.Post("/", products.Create)
		r.Get("/{id}", products.Get)
		r.Patch("/{id}/pricing", products.UpdatePricing)
		r.Get("/{id}/batches", products.Batches)
		r.Get("/{id}/stock", products.Stock)
		r.Get("/{id}/position", products.Position)
		r.Get("/{id}/usage", products.Usage)
		r.Get("/{id}/reorder-suggestion", products.ReorderSuggestion)
	})

	r.Route("/suppliers", func(r chi.Router) {
		r.Get("/", suppliers.List)
		r.Post("/", suppliers.Create)
		r.Get("/{id}", suppliers.Get)
	})

	r.Route("/batches", func(r chi.Router) {
		r.Post("/", batches.Receive)
		r.Get("/{id}", batches.Get)
		r.Post("/{id}/consume", batches.Consume)
		r.Post("/{id}/adjust", batches.Adjust)
		r.Post("/{id}/recall", batches.Recall)
		r.Post("/{id}/write-off", batches.WriteOff)
	})
	r.Get("/movements", batches.Movements)

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/valuation", analytics.Valuation)
		r.Get("/low-stock", analytics.LowStock)
		r.Get("/expiring", analytics.Expiring)
		r.Get("/dashboard", analytics.Dashboard)
	})

	r.Route("/alerts", func(r chi.Router) {
		r.Get("/", alerts.List)
		r.Post("/scan", alerts.Scan)
		r.Put("/{id}/resolve", alerts.Resolve)
	})

	r.Route("/purchase-orders", func(r chi.Router) {
		r.Get("/", orders.List)
		r.Post("/", orders.Create)
		r.Get("/{id}", orders.Get)
		r.Post("/{id}/approve", orders.Approve)
		r.Post("/{id}/order", orders.MarkOrdered)
		r.Post("/{id}/cancel", orders.Cancel)
		r.Post("/{id}/receipts", orders.RecordReceipt)
	})
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request, resource string) (uuid.UUID, error) {
	return httputil.ParseUUID(chi.URLParam(r, "id"), resource+" id")
}

// queryUUID reads an optional UUID query parameter.
func queryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	id, err := httputil.ParseUUID(raw, key)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// decode reads and validates a JSON request body.
func decode(r *http.Request, v interface{}) error {
	if err := httputil.DecodeJSON(r, v); err != nil {
		return err
	}
	return httputil.Validate(v)
}

// parseDate reads an optional YYYY-MM-DD field.
func parseDate(raw, field string) (*time.Time, error) {
	d, err := domain.ParseOptionalDate(raw)
	if err != nil {
		return nil, errors.Validation(map[string]string{field: "must be a date formatted as " + domain.DateLayout})
	}
	return d, nil
}
