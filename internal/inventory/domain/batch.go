package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicstock/backend/pkg/errors"
)

// BatchStatus is the stored lifecycle state of a lot.
type BatchStatus string

const (
	BatchActive   BatchStatus = "active"
	BatchDepleted BatchStatus = "depleted"
	BatchExpired  BatchStatus = "expired"
	BatchRecalled BatchStatus = "recalled"
)

// Batch is a physically received lot of one product.
type Batch struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	ProductID         uuid.UUID       `db:"product_id" json:"product_id"`
	BatchNumber       string          `db:"batch_number" json:"batch_number"`
	QuantityReceived  int             `db:"quantity_received" json:"quantity_received"`
	QuantityRemaining int             `db:"quantity_remaining" json:"quantity_remaining"`
	ExpiryDate        *time.Time      `db:"expiry_date" json:"expiry_date,omitempty"`
	ManufacturingDate *time.Time      `db:"manufacturing_date" json:"manufacturing_date,omitempty"`
	CostPerUnit       decimal.Decimal `db:"cost_per_unit" json:"cost_per_unit"`
	SupplierID        *uuid.UUID      `db:"supplier_id" json:"supplier_id,omitempty"`
	ReceivedDate      time.Time       `db:"received_date" json:"received_date"`
	Location          string          `db:"location" json:"location"`
	Status            BatchStatus     `db:"status" json:"status"`
	Notes             string          `db:"notes" json:"notes"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// IsExpiredAt reports whether the expiry date lies strictly before the day of now.
func (b *Batch) IsExpiredAt(now time.Time) bool {
	return b.ExpiryDate != nil && DateOf(*b.ExpiryDate).Before(DateOf(now))
}

// EffectiveStatus derives the status a reader should see at now. A stored active
// lot with stock left whose expiry date has passed reads as expired; nothing is
// written back.
func (b *Batch) EffectiveStatus(now time.Time) BatchStatus {
	if b.Status == BatchActive && b.QuantityRemaining > 0 && b.IsExpiredAt(now) {
		return BatchExpired
	}
	return b.Status
}

// IsUsable reports whether stock may be drawn from the lot at now.
func (b *Batch) IsUsable(now time.Time) bool {
	return b.EffectiveStatus(now) == BatchActive
}

// StockChange is the quantity effect of one mutation on a lot.
type StockChange struct {
	Before int
	After  int
}

// Delta is the signed change applied.
func (c StockChange) Delta() int {
	return c.After - c.Before
}

// Consume draws qty units from the lot. It never partially applies.
func (b *Batch) Consume(qty int, now time.Time) (StockChange, error) {
	if qty <= 0 {
		return StockChange{}, InvalidQuantity("consumed quantity must be positive, got %d", qty)
	}
	if status := b.EffectiveStatus(now); status != BatchActive {
		return StockChange{}, InactiveBatch(b.ID, status)
	}
	if qty > b.QuantityRemaining {
		return StockChange{}, InsufficientStock(b.ID, qty, b.QuantityRemaining)
	}
	return b.setRemaining(b.QuantityRemaining-qty, now), nil
}

// Adjust applies a signed correction. Decreases follow the consume rules.
// Increases are capped so remaining never exceeds the received quantity and
// bring a depleted lot back to active; the returned change holds what was applied.
func (b *Batch) Adjust(delta int, now time.Time) (StockChange, error) {
	if delta == 0 {
		return StockChange{}, InvalidQuantity("adjustment must not be zero")
	}
	if delta < 0 {
		return b.Consume(-delta, now)
	}

	switch status := b.EffectiveStatus(now); {
	case status == BatchActive:
	case status == BatchDepleted && !b.IsExpiredAt(now):
	case status == BatchDepleted:
		return StockChange{}, InactiveBatch(b.ID, BatchExpired)
	default:
		return StockChange{}, InactiveBatch(b.ID, status)
	}

	room := b.QuantityReceived - b.QuantityRemaining
	if room <= 0 {
		return StockChange{}, InvalidQuantity("batch %s already holds its full received quantity of %d", b.ID, b.QuantityReceived)
	}
	if delta > room {
		delta = room
	}
	return b.setRemaining(b.QuantityRemaining+delta, now), nil
}

// Recall pulls the lot from use for good. Remaining stock is kept for the record.
func (b *Batch) Recall(note string, now time.Time) error {
	switch b.Status {
	case BatchActive, BatchExpired:
	case BatchRecalled:
		return InactiveBatch(b.ID, b.Status)
	default:
		return InvalidStatusTransition("batch", b.Status, BatchRecalled)
	}
	b.Status = BatchRecalled
	b.Notes = appendNote(b.Notes, note)
	b.UpdatedAt = now
	return nil
}

// WriteOff zeroes the stock of a lot whose expiry date has passed and stores it as expired.
func (b *Batch) WriteOff(now time.Time) (StockChange, error) {
	if b.Status != BatchActive || b.QuantityRemaining == 0 {
		return StockChange{}, InactiveBatch(b.ID, b.Status)
	}
	if !b.IsExpiredAt(now) {
		return StockChange{}, InvalidStatusTransition("batch", b.Status, BatchExpired)
	}
	change := StockChange{Before: b.QuantityRemaining, After: 0}
	b.QuantityRemaining = 0
	b.Status = BatchExpired
	b.UpdatedAt = now
	return change, nil
}

func (b *Batch) setRemaining(remaining int, now time.Time) StockChange {
	change := StockChange{Before: b.QuantityRemaining, After: remaining}
	b.QuantityRemaining = remaining
	if remaining == 0 {
		b.Status = BatchDepleted
	} else {
		b.Status = BatchActive
	}
	b.UpdatedAt = now
	return change
}

func appendNote(existing, note string) string {
	note = strings.TrimSpace(note)
	switch {
	case note == "":
		return existing
	case existing == "":
		return note
	default:
		return existing + "\n" + note
	}
}

// Receipt is an incoming lot before it is booked.
type Receipt struct {
	ProductID         uuid.UUID
	BatchNumber       string
	Quantity          int
	ExpiryDate        *time.Time
	ManufacturingDate *time.Time
	CostPerUnit       decimal.Decimal
	SupplierID        *uuid.UUID
	Location          string
	Notes             string
}

// Build validates the receipt and returns the new active lot.
func (r Receipt) Build(now time.Time) (*Batch, error) {
	if r.Quantity <= 0 {
		return nil, InvalidQuantity("received quantity must be positive, got %d", r.Quantity)
	}
	if r.CostPerUnit.IsNegative() {
		return nil, InvalidQuantity("cost per unit must not be negative")
	}
	number := strings.TrimSpace(r.BatchNumber)
	if number == "" {
		return nil, errors.Validation(map[string]string{"batch_number": "this field is required"})
	}
	if r.ExpiryDate != nil && r.ManufacturingDate != nil && r.ExpiryDate.Before(*r.ManufacturingDate) {
		return nil, errors.Validation(map[string]string{"expiry_date": "must not be before the manufacturing date"})
	}

	return &Batch{
		ID:                uuid.New(),
		ProductID:         r.ProductID,
		BatchNumber:       number,
		QuantityReceived:  r.Quantity,
		QuantityRemaining: r.Quantity,
		ExpiryDate:        dateOrNil(r.ExpiryDate),
		ManufacturingDate: dateOrNil(r.ManufacturingDate),
		CostPerUnit:       r.CostPerUnit,
		SupplierID:        r.SupplierID,
		ReceivedDate:      now,
		Location:          r.Location,
		Status:            BatchActive,
		Notes:             r.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func dateOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := DateOf(*t)
	return &d
}
