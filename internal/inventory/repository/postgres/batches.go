package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/repository"
	"github.com/clinicstock/backend/pkg/errors"
)

const batchColumns = `id, product_id, batch_number, quantity_received, quantity_remaining, expiry_date,
	manufacturing_date, cost_per_unit, supplier_id, received_date, location, status, notes, created_at, updated_at`

const fefoOrder = ` ORDER BY expiry_date ASC NULLS LAST, received_date ASC`

type batchRepo struct {
	q queryer
}

func (r *batchRepo) Create(ctx context.Context, b *domain.Batch) error {
	query := `
		INSERT INTO inventory_batches (
			id, product_id, batch_number, quantity_received, quantity_remaining, expiry_date,
			manufacturing_date, cost_per_unit, supplier_id, received_date, location, status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRowxContext(ctx, query,
		b.ID, b.ProductID, b.BatchNumber, b.QuantityReceived, b.QuantityRemaining, b.ExpiryDate,
		b.ManufacturingDate, b.CostPerUnit, b.SupplierID, b.ReceivedDate, b.Location, b.Status, b.Notes,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	return translate(err, b.BatchNumber)
}

func (r *batchRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Batch, error) {
	return r.get(ctx, `SELECT `+batchColumns+` FROM inventory_batches WHERE id = $1`, id)
}

func (r *batchRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Batch, error) {
	return r.get(ctx, `SELECT `+batchColumns+` FROM inventory_batches WHERE id = $1 FOR UPDATE`, id)
}

func (r *batchRepo) get(ctx context.Context, query string, id uuid.UUID) (*domain.Batch, error) {
	var b domain.Batch
	if err := r.q.GetContext(ctx, &b, query, id); err != nil {
		if isNoRows(err) {
			return nil, errors.NotFound("batch")
		}
		return nil, err
	}
	return &b, nil
}

func (r *batchRepo) Update(ctx context.Context, b *domain.Batch) error {
	query := `
		UPDATE inventory_batches SET
			quantity_remaining = $2, status = $3, notes = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query, b.ID, b.QuantityRemaining, b.Status, b.Notes, b.UpdatedAt)
	if err != nil {
		return translate(err, b.BatchNumber)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NotFound("batch")
	}
	return nil
}

func (r *batchRepo) List(ctx context.Context, f repository.BatchFilter) ([]domain.Batch, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.ProductID != nil {
		add("product_id = $%d", *f.ProductID)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		add("status = ANY($%d)", pq.Array(statuses))
	}
	if f.InStock {
		where = append(where, "quantity_remaining > 0")
	}
	if f.ExpiringBefore != nil {
		add("expiry_date <= $%d", *f.ExpiringBefore)
	}

	query := `SELECT ` + batchColumns + ` FROM inventory_batches`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += fefoOrder

	batches := []domain.Batch{}
	if err := r.q.SelectContext(ctx, &batches, query, args...); err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *batchRepo) RecentReceipts(ctx context.Context, productID uuid.UUID, limit int) ([]domain.Batch, error) {
	query := `
		SELECT ` + batchColumns + ` FROM inventory_batches
		WHERE product_id = $1
		ORDER BY received_date DESC
		LIMIT $2
	`

	batches := []domain.Batch{}
	if err := r.q.SelectContext(ctx, &batches, query, productID, limit); err != nil {
		return nil, err
	}
	return batches, nil
}
