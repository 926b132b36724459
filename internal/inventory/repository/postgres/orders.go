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

const orderColumns = `id, order_number, supplier_id, status, priority, order_date, expected_delivery,
	actual_delivery, total_amount, notes, created_by, created_at, updated_at`

const orderItemColumns = `id, purchase_order_id, line_no, product_id, quantity_ordered, quantity_received, unit_price`

type orderRepo struct {
	q queryer
}

// Create inserts the order header and all of its lines. Callers wanting the
// lines to be atomic with the header run it inside WithinTx.
func (r *orderRepo) Create(ctx context.Context, po *domain.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (
			id, order_number, supplier_id, status, priority, order_date, expected_delivery,
			actual_delivery, total_amount, notes, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.q.ExecContext(ctx, query,
		po.ID, po.OrderNumber, po.SupplierID, po.Status, po.Priority, po.OrderDate, po.ExpectedDelivery,
		po.ActualDelivery, po.TotalAmount, po.Notes, po.CreatedBy, po.CreatedAt, po.UpdatedAt,
	)
	if err != nil {
		return translate(err, po.OrderNumber)
	}

	itemQuery := `
		INSERT INTO purchase_order_items (` + orderItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, item := range po.Items {
		if _, err := r.q.ExecContext(ctx, itemQuery,
			item.ID, item.PurchaseOrderID, item.LineNo, item.ProductID,
			item.QuantityOrdered, item.QuantityReceived, item.UnitPrice,
		); err != nil {
			return translate(err, po.OrderNumber)
		}
	}
	return nil
}

func (r *orderRepo) Get(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1`, id)
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *orderRepo) get(ctx context.Context, query string, id uuid.UUID) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	if err := r.q.GetContext(ctx, &po, query, id); err != nil {
		if isNoRows(err) {
			return nil, errors.NotFound("purchase order")
		}
		return nil, err
	}

	items := []domain.PurchaseOrderItem{}
	itemQuery := `SELECT ` + orderItemColumns + ` FROM purchase_order_items WHERE purchase_order_id = $1 ORDER BY line_no`
	if err := r.q.SelectContext(ctx, &items, itemQuery, id); err != nil {
		return nil, err
	}
	po.Items = items
	return &po, nil
}

func (r *orderRepo) List(ctx context.Context, f repository.PurchaseOrderFilter) ([]domain.PurchaseOrder, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.SupplierID != nil {
		args = append(args, *f.SupplierID)
		where = append(where, fmt.Sprintf("supplier_id = $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM purchase_orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, order_number DESC`

	orders := []domain.PurchaseOrder{}
	if err := r.q.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID.String()
		index[orders[i].ID] = i
		orders[i].Items = []domain.PurchaseOrderItem{}
	}

	items := []domain.PurchaseOrderItem{}
	itemQuery := `SELECT ` + orderItemColumns + ` FROM purchase_order_items
		WHERE purchase_order_id = ANY($1::uuid[]) ORDER BY purchase_order_id, line_no`
	if err := r.q.SelectContext(ctx, &items, itemQuery, pq.Array(ids)); err != nil {
		return nil, err
	}
	for _, item := range items {
		if i, ok := index[item.PurchaseOrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return orders, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, po *domain.PurchaseOrder) error {
	query := `
		UPDATE purchase_orders SET status = $2, actual_delivery = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query, po.ID, po.Status, po.ActualDelivery, po.UpdatedAt)
	if err != nil {
		return translate(err, po.OrderNumber)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NotFound("purchase order")
	}
	return nil
}

func (r *orderRepo) UpdateItemReceived(ctx context.Context, item *domain.PurchaseOrderItem) error {
	query := `UPDATE purchase_order_items SET quantity_received = $2 WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, item.ID, item.QuantityReceived)
	if err != nil {
		return translate(err, item.ID.String())
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NotFound("purchase order item")
	}
	return nil
}
