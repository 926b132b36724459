// Package repository defines the storage contract of the stock ledger. Services
// receive a Store explicitly; postgres and memory provide implementations.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicstock/backend/internal/inventory/domain"
)

// Store bundles the repositories and the unit of work.
type Store interface {
	Products() ProductRepository
	Suppliers() SupplierRepository
	Batches() BatchRepository
	Movements() MovementRepository
	PurchaseOrders() PurchaseOrderRepository
	Alerts() AlertRepository

	// WithinTx runs fn against a transactional view of the store. Everything fn
	// writes commits together or not at all. Calling WithinTx on the view passed
	// to fn reuses the same transaction.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// ProductRepository persists catalog products.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
}

// SupplierRepository persists suppliers.
type SupplierRepository interface {
	Create(ctx context.Context, s *domain.Supplier) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Supplier, error)
	List(ctx context.Context) ([]domain.Supplier, error)
}

// BatchFilter narrows batch listings. Zero values do not filter.
type BatchFilter struct {
	ProductID      *uuid.UUID
	Statuses       []domain.BatchStatus
	InStock        bool
	ExpiringBefore *time.Time
}

// BatchRepository persists lots.
type BatchRepository interface {
	Create(ctx context.Context, b *domain.Batch) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Batch, error)
	// GetForUpdate reads a lot and holds it against concurrent writers until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Batch, error)
	Update(ctx context.Context, b *domain.Batch) error
	// List returns matching lots in FEFO order.
	List(ctx context.Context, filter BatchFilter) ([]domain.Batch, error)
	// RecentReceipts returns up to limit lots of a product, newest receipt first.
	RecentReceipts(ctx context.Context, productID uuid.UUID, limit int) ([]domain.Batch, error)
}

// MovementFilter narrows movement listings. Zero values do not filter.
type MovementFilter struct {
	BatchID   *uuid.UUID
	ProductID *uuid.UUID
	Type      domain.MovementType
	Since     *time.Time
	Limit     int
}

// MovementRepository is the append-only audit log.
type MovementRepository interface {
	Append(ctx context.Context, m *domain.Movement) error
	// List returns matching movements, newest first.
	List(ctx context.Context, filter MovementFilter) ([]domain.Movement, error)
}

// PurchaseOrderFilter narrows order listings. Zero values do not filter.
type PurchaseOrderFilter struct {
	Status     domain.POStatus
	SupplierID *uuid.UUID
}

// PurchaseOrderRepository persists orders together with their lines.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *domain.PurchaseOrder) error
	Get(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error)
	List(ctx context.Context, filter PurchaseOrderFilter) ([]domain.PurchaseOrder, error)
	// UpdateStatus stores status, actual delivery and updated_at of po.
	UpdateStatus(ctx context.Context, po *domain.PurchaseOrder) error
	UpdateItemReceived(ctx context.Context, item *domain.PurchaseOrderItem) error
}

// AlertFilter narrows alert listings. Zero values do not filter.
type AlertFilter struct {
	Resolved  *bool
	Type      domain.AlertType
	ProductID *uuid.UUID
}

// AlertRepository persists alerts.
type AlertRepository interface {
	// CreateIfAbsent stores a unless an unresolved alert with the same key
	// exists. It reports whether a was stored.
	CreateIfAbsent(ctx context.Context, a *domain.Alert) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Alert, error)
	// List returns matching alerts, critical first then newest first.
	List(ctx context.Context, filter AlertFilter) ([]domain.Alert, error)
	Resolve(ctx context.Context, a *domain.Alert) error
	CountUnresolved(ctx context.Context) (int, error)
}
