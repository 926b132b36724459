package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AlertType is the condition an alert reports.
type AlertType string

const (
	AlertLowStock AlertType = "LOW_STOCK"
	AlertExpiring AlertType = "EXPIRING"
	AlertExpired  AlertType = "EXPIRED"
)

// Severity ranks alerts for display.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// criticalExpiryDays is how close an expiry date must be for an EXPIRING alert to be critical.
const criticalExpiryDays = 7

// Alert is a raised condition awaiting human acknowledgment.
type Alert struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	Type       AlertType  `db:"alert_type" json:"alert_type"`
	Severity   Severity   `db:"severity" json:"severity"`
	ProductID  uuid.UUID  `db:"product_id" json:"product_id"`
	BatchID    *uuid.UUID `db:"batch_id" json:"batch_id,omitempty"`
	Message    string     `db:"message" json:"message"`
	Resolved   bool       `db:"resolved" json:"resolved"`
	ResolvedBy *string    `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// AlertKey identifies the condition an alert is about. At most one unresolved
// alert exists per key.
type AlertKey struct {
	Type      AlertType
	ProductID uuid.UUID
	BatchID   uuid.UUID
}

// Key returns the dedup key of a. Product level alerts use uuid.Nil as batch.
func (a *Alert) Key() AlertKey {
	k := AlertKey{Type: a.Type, ProductID: a.ProductID}
	if a.BatchID != nil {
		k.BatchID = *a.BatchID
	}
	return k
}

// Resolve marks the alert handled. Resolving twice keeps the first resolution.
func (a *Alert) Resolve(by string, now time.Time) bool {
	if a.Resolved {
		return false
	}
	a.Resolved = true
	a.ResolvedBy = &by
	a.ResolvedAt = &now
	return true
}

// LowStockAlert reports a product at or below its reorder level.
func LowStockAlert(p *Product, total int, now time.Time) *Alert {
	severity := SeverityWarning
	if total == 0 {
		severity = SeverityCritical
	}
	return &Alert{
		ID:        uuid.New(),
		Type:      AlertLowStock,
		Severity:  severity,
		ProductID: p.ID,
		Message: fmt.Sprintf("%s is low on stock (%d remaining, reorder at %d)",
			p.Name, total, p.ReorderLevel),
		CreatedAt: now,
	}
}

// ExpiryAlert reports a lot nearing or past its expiry date.
func ExpiryAlert(p *Product, b *Batch, now time.Time) *Alert {
	batchID := b.ID
	a := &Alert{
		ID:        uuid.New(),
		ProductID: b.ProductID,
		BatchID:   &batchID,
		CreatedAt: now,
	}

	name := b.ProductID.String()
	if p != nil {
		name = p.Name
	}
	expiry := DateOf(*b.ExpiryDate)
	days := DaysBetween(now, expiry)

	switch {
	case days < 0:
		a.Type = AlertExpired
		a.Severity = SeverityCritical
		a.Message = fmt.Sprintf("Batch %s of %s expired on %s with %d units remaining",
			b.BatchNumber, name, expiry.Format(DateLayout), b.QuantityRemaining)
	default:
		a.Type = AlertExpiring
		a.Severity = SeverityWarning
		if days <= criticalExpiryDays {
			a.Severity = SeverityCritical
		}
		a.Message = fmt.Sprintf("Batch %s of %s expires on %s (%d days, %d units remaining)",
			b.BatchNumber, name, expiry.Format(DateLayout), days, b.QuantityRemaining)
	}
	return a
}
