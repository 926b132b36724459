package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventBatchReceived         = "inventory.batch.received"
	EventStockConsumed         = "inventory.stock.consumed"
	EventStockAdjusted         = "inventory.stock.adjusted"
	EventBatchRecalled         = "inventory.batch.recalled"
	EventBatchWrittenOff       = "inventory.batch.written_off"
	EventAlertRaised           = "inventory.alert.raised"
	EventAlertResolved         = "inventory.alert.resolved"
	EventPurchaseOrderCreated  = "inventory.po.created"
	EventPurchaseOrderStatus   = "inventory.po.status_changed"
	EventPurchaseOrderReceived = "inventory.po.receipt_recorded"
)

// ExchangeInventoryEvents is the topic exchange all stock events go to.
const ExchangeInventoryEvents = "inventory.events"

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// BatchReceivedEvent is published when a lot is booked in.
type BatchReceivedEvent struct {
	BatchID         string  `json:"batch_id"`
	ProductID       string  `json:"product_id"`
	BatchNumber     string  `json:"batch_number"`
	Quantity        int     `json:"quantity"`
	ExpiryDate      *string `json:"expiry_date,omitempty"`
	PurchaseOrderID string  `json:"purchase_order_id,omitempty"`
	ReceivedBy      string  `json:"received_by"`
}

// StockMovedEvent is published for consumptions, adjustments and write-offs.
type StockMovedEvent struct {
	MovementID  string `json:"movement_id"`
	BatchID     string `json:"batch_id"`
	ProductID   string `json:"product_id"`
	Type        string `json:"type"`
	Delta       int    `json:"delta"`
	NewQuantity int    `json:"new_quantity"`
	BatchStatus string `json:"batch_status"`
	PerformedBy string `json:"performed_by"`
	Note        string `json:"note,omitempty"`
}

// BatchRecalledEvent is published when a lot is pulled from use.
type BatchRecalledEvent struct {
	BatchID     string `json:"batch_id"`
	ProductID   string `json:"product_id"`
	BatchNumber string `json:"batch_number"`
	Remaining   int    `json:"remaining"`
	RecalledBy  string `json:"recalled_by"`
	Reason      string `json:"reason,omitempty"`
}

// AlertEvent is published when an alert is raised or resolved.
type AlertEvent struct {
	AlertID    string `json:"alert_id"`
	AlertType  string `json:"alert_type"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
	ProductID  string `json:"product_id"`
	BatchID    string `json:"batch_id,omitempty"`
	ResolvedBy string `json:"resolved_by,omitempty"`
}

// PurchaseOrderEvent is published on creation and every status change.
type PurchaseOrderEvent struct {
	PurchaseOrderID string `json:"purchase_order_id"`
	OrderNumber     string `json:"order_number"`
	SupplierID      string `json:"supplier_id"`
	Status          string `json:"status"`
	TotalAmount     string `json:"total_amount"`
	ChangedBy       string `json:"changed_by"`
}

// PurchaseOrderReceiptEvent is published for every received line quantity.
type PurchaseOrderReceiptEvent struct {
	PurchaseOrderID string `json:"purchase_order_id"`
	LineItemID      string `json:"line_item_id"`
	ProductID       string `json:"product_id"`
	BatchID         string `json:"batch_id"`
	Quantity        int    `json:"quantity"`
	OrderStatus     string `json:"order_status"`
	ReceivedBy      string `json:"received_by"`
}
