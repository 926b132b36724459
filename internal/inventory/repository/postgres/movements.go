package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/repository"
)

const movementColumns = `id, batch_id, product_id, movement_type, delta, quantity_before, quantity_after,
	reference_type, reference_id, actor, note, created_at`

type movementRepo struct {
	q queryer
}

// Append inserts a movement. There is deliberately no update or delete.
func (r *movementRepo) Append(ctx context.Context, m *domain.Movement) error {
	query := `
		INSERT INTO inventory_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.q.ExecContext(ctx, query,
		m.ID, m.BatchID, m.ProductID, m.Type, m.Delta, m.QuantityBefore, m.QuantityAfter,
		m.ReferenceType, m.ReferenceID, m.Actor, m.Note, m.CreatedAt,
	)
	return translate(err, m.ID.String())
}

func (r *movementRepo) List(ctx context.Context, f repository.MovementFilter) ([]domain.Movement, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.BatchID != nil {
		add("batch_id = $%d", *f.BatchID)
	}
	if f.ProductID != nil {
		add("product_id = $%d", *f.ProductID)
	}
	if f.Type != "" {
		add("movement_type = $%d", f.Type)
	}
	if f.Since != nil {
		add("created_at >= $%d", *f.Since)
	}

	query := `SELECT ` + movementColumns + ` FROM inventory_movements`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	movements := []domain.Movement{}
	if err := r.q.SelectContext(ctx, &movements, query, args...); err != nil {
		return nil, err
	}
	return movements, nil
}
