package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicstock/backend/pkg/errors"
)

// POStatus is the lifecycle state of a purchase order.
type POStatus string

const (
	POPending   POStatus = "pending"
	POApproved  POStatus = "approved"
	POOrdered   POStatus = "ordered"
	POReceived  POStatus = "received"
	POCancelled POStatus = "cancelled"
)

// Priority ranks how urgently an order is needed.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// poTransitions lists the moves a caller may request directly. received is
// only reached through recorded receipts.
var poTransitions = map[POStatus][]POStatus{
	POPending:  {POApproved, POCancelled},
	POApproved: {POOrdered, POCancelled},
	POOrdered:  {POCancelled},
}

// PurchaseOrder is an order placed with one supplier.
type PurchaseOrder struct {
	ID               uuid.UUID           `db:"id" json:"id"`
	OrderNumber      string              `db:"order_number" json:"order_number"`
	SupplierID       uuid.UUID           `db:"supplier_id" json:"supplier_id"`
	Status           POStatus            `db:"status" json:"status"`
	Priority         Priority            `db:"priority" json:"priority"`
	OrderDate        time.Time           `db:"order_date" json:"order_date"`
	ExpectedDelivery *time.Time          `db:"expected_delivery" json:"expected_delivery,omitempty"`
	ActualDelivery   *time.Time          `db:"actual_delivery" json:"actual_delivery,omitempty"`
	TotalAmount      decimal.Decimal     `db:"total_amount" json:"total_amount"`
	Notes            string              `db:"notes" json:"notes"`
	CreatedBy        string              `db:"created_by" json:"created_by"`
	CreatedAt        time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time           `db:"updated_at" json:"updated_at"`
	Items            []PurchaseOrderItem `db:"-" json:"items"`
}

// PurchaseOrderItem is one product line of an order.
type PurchaseOrderItem struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	PurchaseOrderID  uuid.UUID       `db:"purchase_order_id" json:"purchase_order_id"`
	LineNo           int             `db:"line_no" json:"line_no"`
	ProductID        uuid.UUID       `db:"product_id" json:"product_id"`
	QuantityOrdered  int             `db:"quantity_ordered" json:"quantity_ordered"`
	QuantityReceived int             `db:"quantity_received" json:"quantity_received"`
	UnitPrice        decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// Outstanding is the quantity still expected on the line.
func (i *PurchaseOrderItem) Outstanding() int {
	return i.QuantityOrdered - i.QuantityReceived
}

// LineTotal is quantity ordered times unit price.
func (i *PurchaseOrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.QuantityOrdered)))
}

// TransitionTo moves the order to next if the state machine allows it.
func (po *PurchaseOrder) TransitionTo(next POStatus, now time.Time) error {
	for _, allowed := range poTransitions[po.Status] {
		if allowed == next {
			po.Status = next
			po.UpdatedAt = now
			return nil
		}
	}
	return InvalidStatusTransition("purchase order", po.Status, next)
}

// Item returns the line with the given id.
func (po *PurchaseOrder) Item(id uuid.UUID) (*PurchaseOrderItem, bool) {
	for i := range po.Items {
		if po.Items[i].ID == id {
			return &po.Items[i], true
		}
	}
	return nil, false
}

// FullyReceived reports whether every line has been received in full.
func (po *PurchaseOrder) FullyReceived() bool {
	for i := range po.Items {
		if po.Items[i].Outstanding() > 0 {
			return false
		}
	}
	return len(po.Items) > 0
}

// ReceiveLine books qty units against line itemID. Once every line is complete
// the order becomes received.
func (po *PurchaseOrder) ReceiveLine(itemID uuid.UUID, qty int, now time.Time) (*PurchaseOrderItem, error) {
	if po.Status != POOrdered {
		return nil, InvalidStatusTransition("purchase order", po.Status, POReceived)
	}
	if qty <= 0 {
		return nil, InvalidQuantity("received quantity must be positive, got %d", qty)
	}
	item, ok := po.Item(itemID)
	if !ok {
		return nil, InvalidQuantity("line item %s does not belong to purchase order %s", itemID, po.OrderNumber)
	}
	if item.QuantityReceived+qty > item.QuantityOrdered {
		return nil, OverReceipt(item.ID, item.QuantityOrdered, item.QuantityReceived, qty)
	}

	item.QuantityReceived += qty
	po.UpdatedAt = now
	if po.FullyReceived() {
		po.Status = POReceived
		delivered := DateOf(now)
		po.ActualDelivery = &delivered
	}
	return item, nil
}

// OrderLine is a requested line when creating an order.
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// NewOrder holds the fields accepted when an order is created.
type NewOrder struct {
	SupplierID       uuid.UUID
	Lines            []OrderLine
	Priority         Priority
	ExpectedDelivery *time.Time
	Notes            string
}

// Build validates the order and returns it pending, with its total frozen.
func (n NewOrder) Build(createdBy string, now time.Time) (*PurchaseOrder, error) {
	if len(n.Lines) == 0 {
		return nil, EmptyOrder()
	}
	priority := n.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	if !priority.Valid() {
		return nil, errors.Validation(map[string]string{"priority": "must be one of: low normal high urgent"})
	}

	po := &PurchaseOrder{
		ID:               uuid.New(),
		OrderNumber:      OrderNumber(now),
		SupplierID:       n.SupplierID,
		Status:           POPending,
		Priority:         priority,
		OrderDate:        DateOf(now),
		ExpectedDelivery: dateOrNil(n.ExpectedDelivery),
		TotalAmount:      decimal.Zero,
		Notes:            n.Notes,
		CreatedBy:        createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
		Items:            make([]PurchaseOrderItem, 0, len(n.Lines)),
	}

	for i, line := range n.Lines {
		if line.Quantity <= 0 {
			return nil, InvalidQuantity("line %d: ordered quantity must be positive, got %d", i+1, line.Quantity)
		}
		if line.UnitPrice.IsNegative() {
			return nil, InvalidQuantity("line %d: unit price must not be negative", i+1)
		}
		item := PurchaseOrderItem{
			ID:              uuid.New(),
			PurchaseOrderID: po.ID,
			LineNo:          i + 1,
			ProductID:       line.ProductID,
			QuantityOrdered: line.Quantity,
			UnitPrice:       line.UnitPrice,
		}
		po.TotalAmount = po.TotalAmount.Add(item.LineTotal())
		po.Items = append(po.Items, item)
	}

	return po, nil
}

// OrderNumber renders the human facing number of an order created at now.
// The random suffix keeps numbers unique within the same second.
func OrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("PO-%s-%s", now.UTC().Format("20060102-150405"), suffix)
}
