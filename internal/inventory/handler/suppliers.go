package handler

import (
	"net/http"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/service"
	"github.com/clinicstock/backend/pkg/httputil"
	"github.com/clinicstock/backend/pkg/logger"
)

// SupplierHandler handles supplier endpoints
type SupplierHandler struct {
	catalog *service.Catalog
	logger  *logger.Logger
}

// NewSupplierHandler creates a new supplier handler
func NewSupplierHandler(catalog *service.Catalog, log *logger.Logger) *SupplierHandler {
	return &SupplierHandler{
		catalog: catalog,
		logger:  log,
	}
}

// CreateSupplierRequest is the body of POST /suppliers.
type CreateSupplierRequest struct {
	Name          string `json:"name" validate:"required,max=255"`
	ContactPerson string `json:"contact_person" validate:"max=255"`
	Email         string `json:"email" validate:"omitempty,email"`
	Phone         string `json:"phone" validate:"max=50"`
	Address       string `json:"address"`
	PaymentTerms  string `json:"payment_terms" validate:"max=100"`
	LeadTimeDays  int    `json:"lead_time_days" validate:"gte=0"`
}

// List lists suppliers by name
func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.catalog.ListSuppliers(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, suppliers, &httputil.Meta{Total: int64(len(suppliers))})
}

// Create registers a supplier
func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSupplierRequest
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	supplier, err := h.catalog.AddSupplier(r.Context(), domain.Supplier{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		PaymentTerms:  req.PaymentTerms,
		LeadTimeDays:  req.LeadTimeDays,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, supplier)
}

// Get gets a supplier by ID
func (h *SupplierHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "supplier")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	supplier, err := h.catalog.GetSupplier(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, supplier)
}
