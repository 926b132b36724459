package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/repository"
	"github.com/clinicstock/backend/pkg/actor"
	"github.com/clinicstock/backend/pkg/logger"
)

// PurchaseOrderManager runs orders from creation through receipt.
type PurchaseOrderManager struct {
	store  repository.Store
	ledger *Ledger
	deps   deps
	logger *logger.Logger
}

// NewPurchaseOrderManager creates the order service. Receipts are booked
// through ledger inside the order's own transaction.
func NewPurchaseOrderManager(store repository.Store, ledger *Ledger, log *logger.Logger, opts ...Option) *PurchaseOrderManager {
	return &PurchaseOrderManager{
		store:  store,
		ledger: ledger,
		deps:   newDeps(opts),
		logger: log.WithComponent("purchase_orders"),
	}
}

// Create validates and stores a pending order. The total is fixed here and
// later price changes do not affect it.
func (m *PurchaseOrderManager) Create(ctx context.Context, in domain.NewOrder) (*domain.PurchaseOrder, error) {
	actorName := actor.NameFromContext(ctx)
	po, err := in.Build(actorName, m.deps.clock())
	if err != nil {
		return nil, m.deps.reject(err)
	}

	err = m.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Suppliers().Get(ctx, po.SupplierID); err != nil {
			return err
		}
		for i := range po.Items {
			if _, err := tx.Products().Get(ctx, po.Items[i].ProductID); err != nil {
				return err
			}
		}
		return tx.PurchaseOrders().Create(ctx, po)
	})
	if err != nil {
		return nil, m.deps.reject(err)
	}

	m.deps.publisher.PurchaseOrderCreated(ctx, po, actorName)
	m.deps.metrics.OrderTransitioned(string(po.Status))
	m.logger.Info().
		Str("po_id", po.ID.String()).
		Str("order_number", po.OrderNumber).
		Str("total", po.TotalAmount.StringFixed(2)).
		Int("lines", len(po.Items)).
		Str("actor", actorName).
		Msg("purchase order created")
	return po, nil
}

// Approve moves a pending order to approved.
func (m *PurchaseOrderManager) Approve(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	return m.transition(ctx, id, domain.POApproved)
}

// MarkOrdered moves an approved order to ordered. Only ordered orders accept receipts.
func (m *PurchaseOrderManager) MarkOrdered(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	return m.transition(ctx, id, domain.POOrdered)
}

// Cancel withdraws an order that has not been received.
func (m *PurchaseOrderManager) Cancel(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	return m.transition(ctx, id, domain.POCancelled)
}

func (m *PurchaseOrderManager) transition(ctx context.Context, id uuid.UUID, next domain.POStatus) (*domain.PurchaseOrder, error) {
	actorName := actor.NameFromContext(ctx)

	var order *domain.PurchaseOrder
	err := m.store.WithinTx(ctx, func(tx repository.Store) error {
		po, err := tx.PurchaseOrders().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := po.TransitionTo(next, m.deps.clock()); err != nil {
			return err
		}
		if err := tx.PurchaseOrders().UpdateStatus(ctx, po); err != nil {
			return err
		}
		order = po
		return nil
	})
	if err != nil {
		return nil, m.deps.reject(err)
	}

	m.deps.publisher.PurchaseOrderStatusChanged(ctx, order, actorName)
	m.deps.metrics.OrderTransitioned(string(next))
	m.logger.Info().
		Str("po_id", order.ID.String()).
		Str("status", string(order.Status)).
		Str("actor", actorName).
		Msg("purchase order status changed")
	return order, nil
}

// Get returns an order with its lines.
func (m *PurchaseOrderManager) Get(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	return m.store.PurchaseOrders().Get(ctx, id)
}

// List returns matching orders, newest first.
func (m *PurchaseOrderManager) List(ctx context.Context, filter repository.PurchaseOrderFilter) ([]domain.PurchaseOrder, error) {
	return m.store.PurchaseOrders().List(ctx, filter)
}

// ReceiptLine describes goods arriving against one order line.
type ReceiptLine struct {
	ItemID            uuid.UUID
	Quantity          int
	BatchNumber       string
	ExpiryDate        *time.Time
	ManufacturingDate *time.Time
	// CostPerUnit defaults to the line's unit price.
	CostPerUnit *decimal.Decimal
	Location    string
	Notes       string
}

// Receipt is the outcome of a recorded receipt.
type Receipt struct {
	Order *domain.PurchaseOrder `json:"purchase_order"`
	Batch *domain.Batch         `json:"batch"`
}

// RecordReceipt books goods against an ordered line: the line's received
// quantity, the new lot with its receipt movement and, once every line is
// complete, the received status all commit together or not at all.
func (m *PurchaseOrderManager) RecordReceipt(ctx context.Context, poID uuid.UUID, line ReceiptLine) (*Receipt, error) {
	actorName := actor.NameFromContext(ctx)

	var (
		order    *domain.PurchaseOrder
		item     *domain.PurchaseOrderItem
		batch    *domain.Batch
		movement *domain.Movement
	)
	err := m.store.WithinTx(ctx, func(tx repository.Store) error {
		po, err := tx.PurchaseOrders().GetForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		now := m.deps.clock()
		it, err := po.ReceiveLine(line.ItemID, line.Quantity, now)
		if err != nil {
			return err
		}

		cost := it.UnitPrice
		if line.CostPerUnit != nil {
			cost = *line.CostPerUnit
		}
		supplierID := po.SupplierID
		b, err := domain.Receipt{
			ProductID:         it.ProductID,
			BatchNumber:       line.BatchNumber,
			Quantity:          line.Quantity,
			ExpiryDate:        line.ExpiryDate,
			ManufacturingDate: line.ManufacturingDate,
			CostPerUnit:       cost,
			SupplierID:        &supplierID,
			Location:          line.Location,
			Notes:             line.Notes,
		}.Build(now)
		if err != nil {
			return err
		}

		mv, err := m.ledger.receive(ctx, tx, b, actorName, &po.ID, now)
		if err != nil {
			return err
		}
		if err := tx.PurchaseOrders().UpdateItemReceived(ctx, it); err != nil {
			return err
		}
		if err := tx.PurchaseOrders().UpdateStatus(ctx, po); err != nil {
			return err
		}

		order, item, batch, movement = po, it, b, mv
		return nil
	})
	if err != nil {
		return nil, m.deps.reject(err)
	}

	m.ledger.received(ctx, batch, movement, &order.ID)
	m.deps.publisher.ReceiptRecorded(ctx, order, item, batch, actorName)
	if order.Status == domain.POReceived {
		m.deps.publisher.PurchaseOrderStatusChanged(ctx, order, actorName)
		m.deps.metrics.OrderTransitioned(string(order.Status))
	}
	m.logger.Info().
		Str("po_id", order.ID.String()).
		Str("item_id", item.ID.String()).
		Int("quantity", line.Quantity).
		Str("status", string(order.Status)).
		Msg("receipt recorded")
	return &Receipt{Order: order, Batch: batch}, nil
}
