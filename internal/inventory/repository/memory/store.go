// Package memory is an in-process Store used by service tests and local tooling.
// Transactions are serialized and applied to a copy of the data that replaces
// the live copy on success, so a failed unit of work leaves no trace.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/repository"
)

type data struct {
	products  map[uuid.UUID]domain.Product
	suppliers map[uuid.UUID]domain.Supplier
	batches   map[uuid.UUID]domain.Batch
	movements []domain.Movement
	orders    map[uuid.UUID]domain.PurchaseOrder
	alerts    map[uuid.UUID]domain.Alert
}

func newData() *data {
	return &data{
		products:  make(map[uuid.UUID]domain.Product),
		suppliers: make(map[uuid.UUID]domain.Supplier),
		batches:   make(map[uuid.UUID]domain.Batch),
		orders:    make(map[uuid.UUID]domain.PurchaseOrder),
		alerts:    make(map[uuid.UUID]domain.Alert),
	}
}

func (d *data) clone() *data {
	c := &data{
		products:  make(map[uuid.UUID]domain.Product, len(d.products)),
		suppliers: make(map[uuid.UUID]domain.Supplier, len(d.suppliers)),
		batches:   make(map[uuid.UUID]domain.Batch, len(d.batches)),
		movements: append([]domain.Movement(nil), d.movements...),
		orders:    make(map[uuid.UUID]domain.PurchaseOrder, len(d.orders)),
		alerts:    make(map[uuid.UUID]domain.Alert, len(d.alerts)),
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.suppliers {
		c.suppliers[k] = v
	}
	for k, v := range d.batches {
		c.batches[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, v := range d.alerts {
		c.alerts[k] = v
	}
	return c
}

// exec runs fn against the data. write marks fn as mutating.
type exec func(write bool, fn func(d *data) error) error

// Store is the shared in-memory store.
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	data    *data
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{data: newData()}
}

func (s *Store) run(write bool, fn func(d *data) error) error {
	if !write {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return fn(s.data)
	}
	return s.commit(fn)
}

// commit serializes writers, applies fn to a copy and publishes the copy on success.
func (s *Store) commit(fn func(d *data) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	working := s.data.clone()
	s.mu.RUnlock()

	if err := fn(working); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = working
	s.mu.Unlock()
	return nil
}

func (s *Store) Products() repository.ProductRepository             { return productRepo{s.run} }
func (s *Store) Suppliers() repository.SupplierRepository           { return supplierRepo{s.run} }
func (s *Store) Batches() repository.BatchRepository                { return batchRepo{s.run} }
func (s *Store) Movements() repository.MovementRepository           { return movementRepo{s.run} }
func (s *Store) PurchaseOrders() repository.PurchaseOrderRepository { return orderRepo{s.run} }
func (s *Store) Alerts() repository.AlertRepository                 { return alertRepo{s.run} }

// WithinTx runs fn on a private copy that replaces the live data if fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.commit(func(d *data) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(&txStore{data: d})
	})
}

// txStore is the view handed to a unit of work. It owns its copy exclusively.
type txStore struct {
	data *data
}

func (t *txStore) run(_ bool, fn func(d *data) error) error { return fn(t.data) }

func (t *txStore) Products() repository.ProductRepository             { return productRepo{t.run} }
func (t *txStore) Suppliers() repository.SupplierRepository           { return supplierRepo{t.run} }
func (t *txStore) Batches() repository.BatchRepository                { return batchRepo{t.run} }
func (t *txStore) Movements() repository.MovementRepository           { return movementRepo{t.run} }
func (t *txStore) PurchaseOrders() repository.PurchaseOrderRepository { return orderRepo{t.run} }
func (t *txStore) Alerts() repository.AlertRepository                 { return alertRepo{t.run} }

func (t *txStore) WithinTx(_ context.Context, fn func(tx repository.Store) error) error {
	return fn(t)
}

func copyOrder(po domain.PurchaseOrder) domain.PurchaseOrder {
	po.Items = append([]domain.PurchaseOrderItem(nil), po.Items...)
	return po
}
