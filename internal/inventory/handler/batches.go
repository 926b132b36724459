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

const defaultMovementLimit = 100

// BatchHandler handles lot receipt, stock changes and the movement log.
type BatchHandler struct {
	ledger *service.Ledger
	logger *logger.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(ledger *service.Ledger, log *logger.Logger) *BatchHandler {
	return &BatchHandler{
		ledger: ledger,
		logger: log,
	}
}

// ReceiveBatchRequest is the body of POST /batches.
type ReceiveBatchRequest struct {
	ProductID         uuid.UUID       `json:"product_id" validate:"required"`
	BatchNumber       string          `json:"batch_number" validate:"required,max=100"`
	Quantity          int             `json:"quantity"`
	ExpiryDate        string          `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	ManufacturingDate string          `json:"manufacturing_date" validate:"omitempty,datetime=2006-01-02"`
	CostPerUnit       decimal.Decimal `json:"cost_per_unit"`
	SupplierID        *uuid.UUID      `json:"supplier_id"`
	Location          string          `json:"location" validate:"max=255"`
	Notes             string          `json:"notes"`
}

// QuantityRequest is the body of consume and adjust.
type QuantityRequest struct {
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
}

// NoteRequest is the body of recall and write-off.
type NoteRequest struct {
	Note string `json:"note"`
}

// Receive books a new lot into stock
func (h *BatchHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var req ReceiveBatchRequest
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

	batch, err := h.ledger.ReceiveBatch(r.Context(), domain.Receipt{
		ProductID:         req.ProductID,
		BatchNumber:       req.BatchNumber,
		Quantity:          req.Quantity,
		ExpiryDate:        expiry,
		ManufacturingDate: manufactured,
		CostPerUnit:       req.CostPerUnit,
		SupplierID:        req.SupplierID,
		Location:          req.Location,
		Notes:             req.Notes,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, batch)
}

// Get gets a batch by ID
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "batch")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	batch, err := h.ledger.GetBatch(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batch)
}

// Consume takes units out of a batch
func (h *BatchHandler) Consume(w http.ResponseWriter, r *http.Request) {
	h.changeQuantity(w, r, h.ledger.Consume)
}

// Adjust corrects the remaining quantity of a batch by a signed delta
func (h *BatchHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	h.changeQuantity(w, r, h.ledger.Adjust)
}

// Recall withdraws a batch from use
func (h *BatchHandler) Recall(w http.ResponseWriter, r *http.Request) {
	h.withNote(w, r, h.ledger.Recall)
}

// WriteOff removes the remaining units of an expired batch
func (h *BatchHandler) WriteOff(w http.ResponseWriter, r *http.Request) {
	h.withNote(w, r, h.ledger.WriteOffExpired)
}

type quantityChange func(ctx context.Context, id uuid.UUID, quantity int, note string) (*domain.Batch, error)

func (h *BatchHandler) changeQuantity(w http.ResponseWriter, r *http.Request, change quantityChange) {
	id, err := pathID(r, "batch")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req QuantityRequest
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	batch, err := change(r.Context(), id, req.Quantity, req.Note)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batch)
}

type noteChange func(ctx context.Context, id uuid.UUID, note string) (*domain.Batch, error)

func (h *BatchHandler) withNote(w http.ResponseWriter, r *http.Request, change noteChange) {
	id, err := pathID(r, "batch")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req NoteRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
	}

	batch, err := change(r.Context(), id, req.Note)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batch)
}

// Movements lists the audit log, newest first. Filters: batch_id, product_id,
// type and limit.
func (h *BatchHandler) Movements(w http.ResponseWriter, r *http.Request) {
	batchID, err := queryUUID(r, "batch_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	productID, err := queryUUID(r, "product_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	limit, err := httputil.QueryInt(r, "limit", defaultMovementLimit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	movements, err := h.ledger.ListMovements(r.Context(), repository.MovementFilter{
		BatchID:   batchID,
		ProductID: productID,
		Type:      domain.MovementType(r.URL.Query().Get("type")),
		Limit:     limit,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, movements, &httputil.Meta{Total: int64(len(movements))})
}
