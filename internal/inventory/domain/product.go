package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicstock/backend/pkg/errors"
)

// Product is a stock-keeping unit of the clinic catalog.
type Product struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	SKU             string          `db:"sku" json:"sku"`
	Name            string          `db:"name" json:"name"`
	Description     string          `db:"description" json:"description"`
	Category        string          `db:"category" json:"category"`
	UnitPrice       decimal.Decimal `db:"unit_price" json:"unit_price"`
	CostPrice       decimal.Decimal `db:"cost_price" json:"cost_price"`
	ReorderLevel    int             `db:"reorder_level" json:"reorder_level"`
	ReorderQuantity int             `db:"reorder_quantity" json:"reorder_quantity"`
	MaxStockLevel   int             `db:"max_stock_level" json:"max_stock_level"`
	SupplierID      *uuid.UUID      `db:"supplier_id" json:"supplier_id,omitempty"`
	Barcode         *string         `db:"barcode" json:"barcode,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// IsLowStock reports whether total on-hand stock is at or below the reorder
// threshold. A zero threshold disables the check.
func (p *Product) IsLowStock(total int) bool {
	return p.ReorderLevel > 0 && total <= p.ReorderLevel
}

// NewProduct holds the fields accepted when a product is added.
type NewProduct struct {
	SKU             string
	Name            string
	Description     string
	Category        string
	UnitPrice       decimal.Decimal
	CostPrice       decimal.Decimal
	ReorderLevel    int
	ReorderQuantity int
	MaxStockLevel   int
	SupplierID      *uuid.UUID
	Barcode         *string
}

// Build validates the input and returns a product with a fresh id.
func (n NewProduct) Build(now time.Time) (*Product, error) {
	details := map[string]string{}
	sku := strings.TrimSpace(n.SKU)
	name := strings.TrimSpace(n.Name)
	if sku == "" {
		details["sku"] = "this field is required"
	}
	if name == "" {
		details["name"] = "this field is required"
	}
	if n.UnitPrice.IsNegative() {
		details["unit_price"] = "must not be negative"
	}
	if n.CostPrice.IsNegative() {
		details["cost_price"] = "must not be negative"
	}
	if n.ReorderLevel < 0 {
		details["reorder_level"] = "must not be negative"
	}
	if n.ReorderQuantity < 0 {
		details["reorder_quantity"] = "must not be negative"
	}
	if n.MaxStockLevel < 0 {
		details["max_stock_level"] = "must not be negative"
	}
	if len(details) > 0 {
		return nil, errors.Validation(details)
	}

	var barcode *string
	if n.Barcode != nil {
		if b := strings.TrimSpace(*n.Barcode); b != "" {
			barcode = &b
		}
	}

	return &Product{
		ID:              uuid.New(),
		SKU:             sku,
		Name:            name,
		Description:     n.Description,
		Category:        n.Category,
		UnitPrice:       n.UnitPrice,
		CostPrice:       n.CostPrice,
		ReorderLevel:    n.ReorderLevel,
		ReorderQuantity: n.ReorderQuantity,
		MaxStockLevel:   n.MaxStockLevel,
		SupplierID:      n.SupplierID,
		Barcode:         barcode,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// PricingUpdate changes prices and reorder thresholds. Nil fields are left alone.
type PricingUpdate struct {
	UnitPrice       *decimal.Decimal
	CostPrice       *decimal.Decimal
	ReorderLevel    *int
	ReorderQuantity *int
	MaxStockLevel   *int
}

// Apply validates u and writes it onto p.
func (u PricingUpdate) Apply(p *Product, now time.Time) error {
	details := map[string]string{}
	if u.UnitPrice != nil && u.UnitPrice.IsNegative() {
		details["unit_price"] = "must not be negative"
	}
	if u.CostPrice != nil && u.CostPrice.IsNegative() {
		details["cost_price"] = "must not be negative"
	}
	if u.ReorderLevel != nil && *u.ReorderLevel < 0 {
		details["reorder_level"] = "must not be negative"
	}
	if u.ReorderQuantity != nil && *u.ReorderQuantity < 0 {
		details["reorder_quantity"] = "must not be negative"
	}
	if u.MaxStockLevel != nil && *u.MaxStockLevel < 0 {
		details["max_stock_level"] = "must not be negative"
	}
	if len(details) > 0 {
		return errors.Validation(details)
	}

	if u.UnitPrice != nil {
		p.UnitPrice = *u.UnitPrice
	}
	if u.CostPrice != nil {
		p.CostPrice = *u.CostPrice
	}
	if u.ReorderLevel != nil {
		p.ReorderLevel = *u.ReorderLevel
	}
	if u.ReorderQuantity != nil {
		p.ReorderQuantity = *u.ReorderQuantity
	}
	if u.MaxStockLevel != nil {
		p.MaxStockLevel = *u.MaxStockLevel
	}
	p.UpdatedAt = now
	return nil
}

// Supplier is a vendor that purchase orders are placed with.
type Supplier struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	ContactPerson string    `db:"contact_person" json:"contact_person"`
	Email         string    `db:"email" json:"email"`
	Phone         string    `db:"phone" json:"phone"`
	Address       string    `db:"address" json:"address"`
	PaymentTerms  string    `db:"payment_terms" json:"payment_terms"`
	LeadTimeDays  int       `db:"lead_time_days" json:"lead_time_days"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Validate checks the supplier fields a caller may set.
func (s *Supplier) Validate() error {
	details := map[string]string{}
	if strings.TrimSpace(s.Name) == "" {
		details["name"] = "this field is required"
	}
	if s.LeadTimeDays < 0 {
		details["lead_time_days"] = "must not be negative"
	}
	if len(details) > 0 {
		return errors.Validation(details)
	}
	return nil
}
