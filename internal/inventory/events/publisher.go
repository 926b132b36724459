// Package events publishes stock ledger events to RabbitMQ. A nil *Publisher is
// valid and drops every event, so the service runs without a broker.
package events

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/pkg/logger"
	"github.com/clinicstock/backend/pkg/messaging"
)

// Source names this service on every event.
const Source = "inventory-service"

type eventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// Publisher publishes inventory-related events. Publishing never fails the
// caller: the state change is already committed, so errors are logged.
type Publisher struct {
	publisher eventPublisher
	logger    *logger.Logger
}

// NewPublisher declares the inventory exchange on rmq and returns a publisher.
func NewPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*Publisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, Source, log)
	if err != nil {
		return nil, err
	}
	return New(publisher, log), nil
}

// New wraps an existing messaging publisher.
func New(publisher *messaging.Publisher, log *logger.Logger) *Publisher {
	return &Publisher{
		publisher: publisher,
		logger:    log.WithComponent("events"),
	}
}

func (p *Publisher) publish(ctx context.Context, eventType string, data interface{}) {
	if p == nil {
		return
	}
	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}

// BatchReceived announces a booked lot. poID is set when it came from a purchase order.
func (p *Publisher) BatchReceived(ctx context.Context, b *domain.Batch, poID *uuid.UUID, actorName string) {
	data := messaging.BatchReceivedEvent{
		BatchID:     b.ID.String(),
		ProductID:   b.ProductID.String(),
		BatchNumber: b.BatchNumber,
		Quantity:    b.QuantityReceived,
		ReceivedBy:  actorName,
	}
	if b.ExpiryDate != nil {
		expiry := b.ExpiryDate.Format(domain.DateLayout)
		data.ExpiryDate = &expiry
	}
	if poID != nil {
		data.PurchaseOrderID = poID.String()
	}
	p.publish(ctx, messaging.EventBatchReceived, data)
}

// StockMoved announces a consumption, adjustment or write-off.
func (p *Publisher) StockMoved(ctx context.Context, b *domain.Batch, m *domain.Movement) {
	eventType := messaging.EventStockAdjusted
	switch m.Type {
	case domain.MovementConsumption:
		eventType = messaging.EventStockConsumed
	case domain.MovementExpiryWriteOff:
		eventType = messaging.EventBatchWrittenOff
	}

	p.publish(ctx, eventType, messaging.StockMovedEvent{
		MovementID:  m.ID.String(),
		BatchID:     b.ID.String(),
		ProductID:   b.ProductID.String(),
		Type:        string(m.Type),
		Delta:       m.Delta,
		NewQuantity: m.QuantityAfter,
		BatchStatus: string(b.Status),
		PerformedBy: m.Actor,
		Note:        m.Note,
	})
}

// BatchRecalled announces a recalled lot.
func (p *Publisher) BatchRecalled(ctx context.Context, b *domain.Batch, actorName, reason string) {
	p.publish(ctx, messaging.EventBatchRecalled, messaging.BatchRecalledEvent{
		BatchID:     b.ID.String(),
		ProductID:   b.ProductID.String(),
		BatchNumber: b.BatchNumber,
		Remaining:   b.QuantityRemaining,
		RecalledBy:  actorName,
		Reason:      reason,
	})
}

// AlertRaised announces a new alert.
func (p *Publisher) AlertRaised(ctx context.Context, a *domain.Alert) {
	p.publish(ctx, messaging.EventAlertRaised, alertEvent(a))
}

// AlertResolved announces an acknowledged alert.
func (p *Publisher) AlertResolved(ctx context.Context, a *domain.Alert) {
	data := alertEvent(a)
	if a.ResolvedBy != nil {
		data.ResolvedBy = *a.ResolvedBy
	}
	p.publish(ctx, messaging.EventAlertResolved, data)
}

func alertEvent(a *domain.Alert) messaging.AlertEvent {
	data := messaging.AlertEvent{
		AlertID:   a.ID.String(),
		AlertType: string(a.Type),
		Severity:  string(a.Severity),
		Message:   a.Message,
		ProductID: a.ProductID.String(),
	}
	if a.BatchID != nil {
		data.BatchID = a.BatchID.String()
	}
	return data
}

// PurchaseOrderCreated announces a new order.
func (p *Publisher) PurchaseOrderCreated(ctx context.Context, po *domain.PurchaseOrder, actorName string) {
	p.publish(ctx, messaging.EventPurchaseOrderCreated, orderEvent(po, actorName))
}

// PurchaseOrderStatusChanged announces a lifecycle transition.
func (p *Publisher) PurchaseOrderStatusChanged(ctx context.Context, po *domain.PurchaseOrder, actorName string) {
	p.publish(ctx, messaging.EventPurchaseOrderStatus, orderEvent(po, actorName))
}

func orderEvent(po *domain.PurchaseOrder, actorName string) messaging.PurchaseOrderEvent {
	return messaging.PurchaseOrderEvent{
		PurchaseOrderID: po.ID.String(),
		OrderNumber:     po.OrderNumber,
		SupplierID:      po.SupplierID.String(),
		Status:          string(po.Status),
		TotalAmount:     po.TotalAmount.StringFixed(2),
		ChangedBy:       actorName,
	}
}

// ReceiptRecorded announces goods booked against an order line.
func (p *Publisher) ReceiptRecorded(ctx context.Context, po *domain.PurchaseOrder, item *domain.PurchaseOrderItem, b *domain.Batch, actorName string) {
	p.publish(ctx, messaging.EventPurchaseOrderReceived, messaging.PurchaseOrderReceiptEvent{
		PurchaseOrderID: po.ID.String(),
		LineItemID:      item.ID.String(),
		ProductID:       item.ProductID.String(),
		BatchID:         b.ID.String(),
		Quantity:        b.QuantityReceived,
		OrderStatus:     string(po.Status),
		ReceivedBy:      actorName,
	})
}
