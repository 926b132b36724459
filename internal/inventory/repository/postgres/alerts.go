package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/repository"
	"github.com/clinicstock/backend/pkg/errors"
)

const alertColumns = `id, alert_type, severity, product_id, batch_id, message, resolved, resolved_by, resolved_at, created_at`

type alertRepo struct {
	q queryer
}

// CreateIfAbsent relies on the partial unique index inventory_alerts_open_key,
// so concurrent scans cannot raise the same open alert twice.
func (r *alertRepo) CreateIfAbsent(ctx context.Context, a *domain.Alert) (bool, error) {
	query := `
		INSERT INTO inventory_alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT DO NOTHING
	`

	result, err := r.q.ExecContext(ctx, query,
		a.ID, a.Type, a.Severity, a.ProductID, a.BatchID, a.Message,
		a.Resolved, a.ResolvedBy, a.ResolvedAt, a.CreatedAt,
	)
	if err != nil {
		return false, translate(err, a.ID.String())
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *alertRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Alert, error) {
	var a domain.Alert
	query := `SELECT ` + alertColumns + ` FROM inventory_alerts WHERE id = $1`
	if err := r.q.GetContext(ctx, &a, query, id); err != nil {
		if isNoRows(err) {
			return nil, errors.NotFound("alert")
		}
		return nil, err
	}
	return &a, nil
}

func (r *alertRepo) List(ctx context.Context, f repository.AlertFilter) ([]domain.Alert, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.Resolved != nil {
		add("resolved = $%d", *f.Resolved)
	}
	if f.Type != "" {
		add("alert_type = $%d", f.Type)
	}
	if f.ProductID != nil {
		add("product_id = $%d", *f.ProductID)
	}

	query := `SELECT ` + alertColumns + ` FROM inventory_alerts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY CASE severity WHEN 'critical' THEN 0 ELSE 1 END, created_at DESC`

	alerts := []domain.Alert{}
	if err := r.q.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *alertRepo) Resolve(ctx context.Context, a *domain.Alert) error {
	query := `
		UPDATE inventory_alerts SET resolved = TRUE, resolved_by = $2, resolved_at = $3
		WHERE id = $1 AND NOT resolved
	`

	if _, err := r.q.ExecContext(ctx, query, a.ID, a.ResolvedBy, a.ResolvedAt); err != nil {
		return translate(err, a.ID.String())
	}
	return nil
}

func (r *alertRepo) CountUnresolved(ctx context.Context) (int, error) {
	var n int
	if err := r.q.GetContext(ctx, &n, `SELECT COUNT(*) FROM inventory_alerts WHERE NOT resolved`); err != nil {
		return 0, err
	}
	return n, nil
}
