package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/pkg/database"
)

const productColumns = `id, sku, name, description, category, unit_price, cost_price,
	reorder_level, reorder_quantity, max_stock_level, supplier_id, barcode, created_at, updated_at`

type productRepo struct {
	q queryer
}

func (r *productRepo) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (
			id, sku, name, description, category, unit_price, cost_price,
			reorder_level, reorder_quantity, max_stock_level, supplier_id, barcode
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRowxContext(ctx, query,
		p.ID, p.SKU, p.Name, p.Description, p.Category, p.UnitPrice, p.CostPrice,
		p.ReorderLevel, p.ReorderQuantity, p.MaxStockLevel, p.SupplierID, p.Barcode,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	subject := p.SKU
	if database.IsUniqueViolation(err, "products_barcode_key") && p.Barcode != nil {
		subject = *p.Barcode
	}
	return translate(err, subject)
}

func (r *productRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var p domain.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if err := r.q.GetContext(ctx, &p, query, id); err != nil {
		if isNoRows(err) {
			return nil, domain.UnknownProduct(id)
		}
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context) ([]domain.Product, error) {
	products := []domain.Product{}
	query := `SELECT ` + productColumns + ` FROM products ORDER BY name, sku`
	if err := r.q.SelectContext(ctx, &products, query); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepo) Update(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products SET
			name = $2, description = $3, category = $4, unit_price = $5, cost_price = $6,
			reorder_level = $7, reorder_quantity = $8, max_stock_level = $9,
			supplier_id = $10, updated_at = $11
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Category, p.UnitPrice, p.CostPrice,
		p.ReorderLevel, p.ReorderQuantity, p.MaxStockLevel, p.SupplierID, p.UpdatedAt,
	)
	if err != nil {
		return translate(err, p.SKU)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.UnknownProduct(p.ID)
	}
	return nil
}

const supplierColumns = `id, name, contact_person, email, phone, address, payment_terms, lead_time_days, created_at`

type supplierRepo struct {
	q queryer
}

func (r *supplierRepo) Create(ctx context.Context, s *domain.Supplier) error {
	query := `
		INSERT INTO suppliers (id, name, contact_person, email, phone, address, payment_terms, lead_time_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.q.QueryRowxContext(ctx, query,
		s.ID, s.Name, s.ContactPerson, s.Email, s.Phone, s.Address, s.PaymentTerms, s.LeadTimeDays,
	).Scan(&s.CreatedAt)
	return translate(err, s.Name)
}

func (r *supplierRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	var s domain.Supplier
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE id = $1`
	if err := r.q.GetContext(ctx, &s, query, id); err != nil {
		if isNoRows(err) {
			return nil, domain.UnknownSupplier(id)
		}
		return nil, err
	}
	return &s, nil
}

func (r *supplierRepo) List(ctx context.Context) ([]domain.Supplier, error) {
	suppliers := []domain.Supplier{}
	query := `SELECT ` + supplierColumns + ` FROM suppliers ORDER BY name`
	if err := r.q.SelectContext(ctx, &suppliers, query); err != nil {
		return nil, err
	}
	return suppliers, nil
}
