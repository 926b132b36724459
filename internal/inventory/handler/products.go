package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/service"
	"github.com/clinicstock/backend/pkg/httputil"
	"github.com/clinicstock/backend/pkg/logger"
)

// ProductHandler serves the catalog and per-product stock views.
type ProductHandler struct {
	catalog   *service.Catalog
	ledger    *service.Ledger
	analytics *service.Analytics
	logger    *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalog *service.Catalog, ledger *service.Ledger, analytics *service.Analytics, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		catalog:   catalog,
		ledger:    ledger,
		analytics: analytics,
		logger:    log,
	}
}

// CreateProductRequest is the body of POST /products.
type CreateProductRequest struct {
	SKU             string          `json:"sku" validate:"required,max=64"`
	Name            string          `json:"name" validate:"required,max=255"`
	Description     string          `json:"description"`
	Category        string          `json:"category" validate:"max=100"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	ReorderLevel    int             `json:"reorder_level" validate:"gte=0"`
	ReorderQuantity int             `json:"reorder_quantity" validate:"gte=0"`
	MaxStockLevel   int             `json:"max_stock_level" validate:"gte=0"`
	SupplierID      *uuid.UUID      `json:"supplier_id"`
	Barcode         *string         `json:"barcode" validate:"omitempty,max=64"`
}

// UpdatePricingRequest is the body of PATCH /products/{id}/pricing.
type UpdatePricingRequest struct {
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	CostPrice       *decimal.Decimal `json:"cost_price"`
	ReorderLevel    *int             `json:"reorder_level" validate:"omitempty,gte=0"`
	ReorderQuantity *int             `json:"reorder_quantity" validate:"omitempty,gte=0"`
	MaxStockLevel   *int             `json:"max_stock_level" validate:"omitempty,gte=0"`
}

// StockResponse is the on-hand quantity of a product.
type StockResponse struct {
	ProductID  uuid.UUID `json:"product_id"`
	TotalStock int       `json:"total_stock"`
}

// ReorderResponse is a suggested order quantity.
type ReorderResponse struct {
	ProductID         uuid.UUID `json:"product_id"`
	Months            int       `json:"months"`
	SuggestedQuantity int       `json:"suggested_quantity"`
}

// List lists all products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, products, &httputil.Meta{Total: int64(len(products))})
}

// Create adds a product to the catalog
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.catalog.AddProduct(r.Context(), domain.NewProduct{
		SKU:             req.SKU,
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		UnitPrice:       req.UnitPrice,
		CostPrice:       req.CostPrice,
		ReorderLevel:    req.ReorderLevel,
		ReorderQuantity: req.ReorderQuantity,
		MaxStockLevel:   req.MaxStockLevel,
		SupplierID:      req.SupplierID,
		Barcode:         req.Barcode,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, product)
}

// Get gets a product by ID
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "product")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// UpdatePricing changes prices and reorder thresholds
func (h *ProductHandler) UpdatePricing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "product")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req UpdatePricingRequest
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.catalog.UpdatePricing(r.Context(), id, domain.PricingUpdate{
		UnitPrice:       req.UnitPrice,
		CostPrice:       req.CostPrice,
		ReorderLevel:    req.ReorderLevel,
		ReorderQuantity: req.ReorderQuantity,
		MaxStockLevel:   req.MaxStockLevel,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// Batches lists the lots of a product in FEFO order
func (h *ProductHandler) Batches(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "product")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	batches, err := h.ledger.GetBatches(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, batches, &httputil.Meta{Total: int64(len(batches))})
}

// Stock returns the usable on-hand quantity of a product
func (h *ProductHandler) Stock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "product")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	total, err := h.ledger.TotalStock(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, StockResponse{ProductID: id, TotalStock: total})
}

// Position returns the combined stock view of a product
func (h *ProductHandler) Position(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "product")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	position, err := h.analytics.StockPosition(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, position)
}

// Usage summarizes consumption over ?days (default 30)
func (h *ProductHandler) Usage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "product")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	days, err := httputil.QueryInt(r, "days", 30)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	usage, err := h.analytics.UsageSummary(r.Context(), id, days)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, usage)
}

// ReorderSuggestion suggests an order quantity covering ?months of demand
func (h *ProductHandler) ReorderSuggestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "product")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	months, err := httputil.QueryInt(r, "months", h.analytics.DefaultReorderMonths())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	qty, err := h.analytics.SuggestReorder(r.Context(), id, months)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ReorderResponse{ProductID: id, Months: months, SuggestedQuantity: qty})
}
