package domain

import (
	"time"

	"github.com/google/uuid"
)

// MovementType classifies an entry of the stock audit log.
type MovementType string

const (
	MovementReceipt        MovementType = "receipt"
	MovementConsumption    MovementType = "consumption"
	MovementAdjustment     MovementType = "adjustment"
	MovementExpiryWriteOff MovementType = "expiry_writeoff"
)

// ReferencePurchaseOrder marks movements booked through a purchase order receipt.
const ReferencePurchaseOrder = "purchase_order"

// Movement is an immutable audit entry. The deltas of a batch's movements sum to
// its remaining quantity.
type Movement struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	BatchID        uuid.UUID    `db:"batch_id" json:"batch_id"`
	ProductID      uuid.UUID    `db:"product_id" json:"product_id"`
	Type           MovementType `db:"movement_type" json:"type"`
	Delta          int          `db:"delta" json:"delta"`
	QuantityBefore int          `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  int          `db:"quantity_after" json:"quantity_after"`
	ReferenceType  *string      `db:"reference_type" json:"reference_type,omitempty"`
	ReferenceID    *uuid.UUID   `db:"reference_id" json:"reference_id,omitempty"`
	Actor          string       `db:"actor" json:"actor"`
	Note           string       `db:"note" json:"note"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}

// NewMovement records change on batch b.
func NewMovement(b *Batch, typ MovementType, change StockChange, actor, note string, now time.Time) *Movement {
	return &Movement{
		ID:             uuid.New(),
		BatchID:        b.ID,
		ProductID:      b.ProductID,
		Type:           typ,
		Delta:          change.Delta(),
		QuantityBefore: change.Before,
		QuantityAfter:  change.After,
		Actor:          actor,
		Note:           note,
		CreatedAt:      now,
	}
}

// WithReference links the movement to the document that caused it.
func (m *Movement) WithReference(refType string, refID uuid.UUID) *Movement {
	m.ReferenceType = &refType
	m.ReferenceID = &refID
	return m
}
