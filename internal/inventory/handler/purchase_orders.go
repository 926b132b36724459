package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/repository"
	"github.com/clinicstock/backend/internal/inventory/service"
	"github.com/clinicstock/backend/pkg/httputil"
	"github.com/clinicstock/backend/pkg/logger"
)

// PurchaseOrderHandler handles purchase order endpoints
type PurchaseOrderHandler struct {
	orders *service.PurchaseOrderManager
	logger *logger.Logger
}

// NewPurchaseOrderHandler creates a new purchase order handler
func NewPurchaseOrderHandler(orders *service.PurchaseOrderManager, log *logger.Logger) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		orders: orders,
		logger: log,
	}
}

// OrderLineRequest is one requested line of a new order.
type OrderLineRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest is the body of POST /purchase-orders.
type CreateOrderRequest struct {
	SupplierID       uuid.UUID          `json:"supplier_id" validate:"required"`
	Priority         string             `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	ExpectedDelivery string             `json:"expected_delivery" validate:"omitempty,datetime=2006-01-02"`
	Notes            string             `json:"notes"`
	Items            []OrderLineRequest `json:"items" validate:"dive"`
}

// ReceiptRequest is the body of POST /purchase-orders/{id}/receipts.
type ReceiptRequest struct {
	ItemID            uuid.UUID        `json:"item_id" validate:"required"`
	Quantity          int              `json:"quantity"`
	BatchNumber       string           `json:"batch_number" validate:"required,max=100"`
	ExpiryDate        string           `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	ManufacturingDate string           `json:"manufacturing_date" validate:"omitempty,datetime=2006-01-02"`
	CostPerUnit       *decimal.Decimal `json:"cost_per_unit"`
	Location          string           `json:"location" validate:"max=255"`
	Notes             string           `json:"notes"`
}

// List lists orders, newest first. Filters: status and supplier_id.
func (h *PurchaseOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	supplierID, err := queryUUID(r, "supplier_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	orders, err := h.orders.List(r.Context(), repository.PurchaseOrderFilter{
		Status:     domain.POStatus(r.URL.Query().Get("status")),
		SupplierID: supplierID,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, orders, &httputil.Meta{Total: int64(len(orders))})
}

// Create places a pending order
func (h *PurchaseOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	expected, err := parseDate(req.ExpectedDelivery, "expected_delivery")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	lines := make([]domain.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, domain.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	order, err := h.orders.Create(r.Context(), domain.NewOrder{
		SupplierID:       req.SupplierID,
		Lines:            lines,
		Priority:         domain.Priority(req.Priority),
		ExpectedDelivery: expected,
		Notes:            req.Notes,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, order)
}

// Get gets an order with its lines
func (h *PurchaseOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "purchase order")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, order)
}

// Approve moves a pending order to approved
func (h *PurchaseOrderHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.Approve)
}

// MarkOrdered records that an approved order was sent to the supplier
func (h *PurchaseOrderHandler) MarkOrdered(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.MarkOrdered)
}

// Cancel cancels an order that has not been received
func (h *PurchaseOrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.Cancel)
}

func (h *PurchaseOrderHandler) transition(w http.ResponseWriter, r *http.Request, move func(context.Context, uuid.UUID) (*domain.PurchaseOrder, error)) {
	id, err := pathID(r, "purchase order")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	order, err := move(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, order)
}

// RecordReceipt books goods arriving against one order line
func (h *PurchaseOrderHandler) RecordReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "purchase order")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req ReceiptRequest
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	expiry, err := parseDate(req.ExpiryDate, "expiry_date")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	manufactured, err := parseDate(req.ManufacturingDate, "manufacturing_date")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	receipt, err := h.orders.RecordReceipt(r.Context(), id, service.ReceiptLine{
		ItemID:            req.ItemID,
		Quantity:          req.Quantity,
		BatchNumber:       req.BatchNumber,
		ExpiryDate:        expiry,
		ManufacturingDate: manufactured,
		CostPerUnit:       req.CostPerUnit,
		Location:          req.Location,
		Notes:             req.Notes,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, receipt)
}
