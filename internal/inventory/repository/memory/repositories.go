package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/repository"
	"github.com/clinicstock/backend/pkg/errors"
)

type productRepo struct{ run exec }

func (r productRepo) Create(_ context.Context, p *domain.Product) error {
	return r.run(true, func(d *data) error {
		for _, existing := range d.products {
			if existing.SKU == p.SKU {
				return domain.DuplicateSku(p.SKU)
			}
			if p.Barcode != nil && existing.Barcode != nil && *existing.Barcode == *p.Barcode {
				return domain.DuplicateBarcode(*p.Barcode)
			}
		}
		if p.SupplierID != nil {
			if _, ok := d.suppliers[*p.SupplierID]; !ok {
				return domain.UnknownSupplier(*p.SupplierID)
			}
		}
		d.products[p.ID] = *p
		return nil
	})
}

func (r productRepo) Get(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	var out domain.Product
	err := r.run(false, func(d *data) error {
		p, ok := d.products[id]
		if !ok {
			return domain.UnknownProduct(id)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r productRepo) List(_ context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := r.run(false, func(d *data) error {
		out = make([]domain.Product, 0, len(d.products))
		for _, p := range d.products {
			out = append(out, p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].SKU < out[j].SKU
	})
	return out, err
}

func (r productRepo) Update(_ context.Context, p *domain.Product) error {
	return r.run(true, func(d *data) error {
		if _, ok := d.products[p.ID]; !ok {
			return domain.UnknownProduct(p.ID)
		}
		d.products[p.ID] = *p
		return nil
	})
}

type supplierRepo struct{ run exec }

func (r supplierRepo) Create(_ context.Context, s *domain.Supplier) error {
	return r.run(true, func(d *data) error {
		d.suppliers[s.ID] = *s
		return nil
	})
}

func (r supplierRepo) Get(_ context.Context, id uuid.UUID) (*domain.Supplier, error) {
	var out domain.Supplier
	err := r.run(false, func(d *data) error {
		s, ok := d.suppliers[id]
		if !ok {
			return domain.UnknownSupplier(id)
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r supplierRepo) List(_ context.Context) ([]domain.Supplier, error) {
	var out []domain.Supplier
	err := r.run(false, func(d *data) error {
		out = make([]domain.Supplier, 0, len(d.suppliers))
		for _, s := range d.suppliers {
			out = append(out, s)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

type batchRepo struct{ run exec }

func (r batchRepo) Create(_ context.Context, b *domain.Batch) error {
	return r.run(true, func(d *data) error {
		if _, ok := d.products[b.ProductID]; !ok {
			return domain.UnknownProduct(b.ProductID)
		}
		if b.SupplierID != nil {
			if _, ok := d.suppliers[*b.SupplierID]; !ok {
				return domain.UnknownSupplier(*b.SupplierID)
			}
		}
		for _, existing := range d.batches {
			if existing.BatchNumber == b.BatchNumber {
				return domain.DuplicateBatch(b.BatchNumber)
			}
		}
		d.batches[b.ID] = *b
		return nil
	})
}

func (r batchRepo) Get(_ context.Context, id uuid.UUID) (*domain.Batch, error) {
	var out domain.Batch
	err := r.run(false, func(d *data) error {
		b, ok := d.batches[id]
		if !ok {
			return errors.NotFound("batch")
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetForUpdate needs no extra locking: units of work are already serialized.
func (r batchRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Batch, error) {
	return r.Get(ctx, id)
}

func (r batchRepo) Update(_ context.Context, b *domain.Batch) error {
	return r.run(true, func(d *data) error {
		if _, ok := d.batches[b.ID]; !ok {
			return errors.NotFound("batch")
		}
		d.batches[b.ID] = *b
		return nil
	})
}

func (r batchRepo) List(_ context.Context, f repository.BatchFilter) ([]domain.Batch, error) {
	out := make([]domain.Batch, 0)
	err := r.run(false, func(d *data) error {
		for _, b := range d.batches {
			if matchBatch(&b, f) {
				out = append(out, b)
			}
		}
		return nil
	})
	domain.SortFEFO(out)
	return out, err
}

func matchBatch(b *domain.Batch, f repository.BatchFilter) bool {
	if f.ProductID != nil && b.ProductID != *f.ProductID {
		return false
	}
	if f.InStock && b.QuantityRemaining <= 0 {
		return false
	}
	if f.ExpiringBefore != nil && (b.ExpiryDate == nil || b.ExpiryDate.After(*f.ExpiringBefore)) {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, st := range f.Statuses {
		if b.Status == st {
			return true
		}
	}
	return false
}

func (r batchRepo) RecentReceipts(_ context.Context, productID uuid.UUID, limit int) ([]domain.Batch, error) {
	out := make([]domain.Batch, 0)
	err := r.run(false, func(d *data) error {
		for _, b := range d.batches {
			if b.ProductID == productID {
				out = append(out, b)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReceivedDate.After(out[j].ReceivedDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

type movementRepo struct{ run exec }

func (r movementRepo) Append(_ context.Context, m *domain.Movement) error {
	return r.run(true, func(d *data) error {
		if _, ok := d.batches[m.BatchID]; !ok {
			return errors.NotFound("batch")
		}
		d.movements = append(d.movements, *m)
		return nil
	})
}

func (r movementRepo) List(_ context.Context, f repository.MovementFilter) ([]domain.Movement, error) {
	out := make([]domain.Movement, 0)
	err := r.run(false, func(d *data) error {
		// newest first: walk the log backwards
		for i := len(d.movements) - 1; i >= 0; i-- {
			m := d.movements[i]
			if f.BatchID != nil && m.BatchID != *f.BatchID {
				continue
			}
			if f.ProductID != nil && m.ProductID != *f.ProductID {
				continue
			}
			if f.Type != "" && m.Type != f.Type {
				continue
			}
			if f.Since != nil && m.CreatedAt.Before(*f.Since) {
				continue
			}
			out = append(out, m)
			if f.Limit > 0 && len(out) == f.Limit {
				break
			}
		}
		return nil
	})
	return out, err
}

type orderRepo struct{ run exec }

func (r orderRepo) Create(_ context.Context, po *domain.PurchaseOrder) error {
	return r.run(true, func(d *data) error {
		if _, ok := d.suppliers[po.SupplierID]; !ok {
			return domain.UnknownSupplier(po.SupplierID)
		}
		for _, item := range po.Items {
			if _, ok := d.products[item.ProductID]; !ok {
				return domain.UnknownProduct(item.ProductID)
			}
		}
		for _, existing := range d.orders {
			if existing.OrderNumber == po.OrderNumber {
				return domain.DuplicateOrderNumber(po.OrderNumber)
			}
		}
		d.orders[po.ID] = copyOrder(*po)
		return nil
	})
}

func (r orderRepo) Get(_ context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	var out domain.PurchaseOrder
	err := r.run(false, func(d *data) error {
		po, ok := d.orders[id]
		if !ok {
			return errors.NotFound("purchase order")
		}
		out = copyOrder(po)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r orderRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	return r.Get(ctx, id)
}

func (r orderRepo) List(_ context.Context, f repository.PurchaseOrderFilter) ([]domain.PurchaseOrder, error) {
	out := make([]domain.PurchaseOrder, 0)
	err := r.run(false, func(d *data) error {
		for _, po := range d.orders {
			if f.Status != "" && po.Status != f.Status {
				continue
			}
			if f.SupplierID != nil && po.SupplierID != *f.SupplierID {
				continue
			}
			out = append(out, copyOrder(po))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r orderRepo) UpdateStatus(_ context.Context, po *domain.PurchaseOrder) error {
	return r.run(true, func(d *data) error {
		stored, ok := d.orders[po.ID]
		if !ok {
			return errors.NotFound("purchase order")
		}
		stored.Status = po.Status
		stored.ActualDelivery = po.ActualDelivery
		stored.UpdatedAt = po.UpdatedAt
		d.orders[po.ID] = stored
		return nil
	})
}

func (r orderRepo) UpdateItemReceived(_ context.Context, item *domain.PurchaseOrderItem) error {
	return r.run(true, func(d *data) error {
		stored, ok := d.orders[item.PurchaseOrderID]
		if !ok {
			return errors.NotFound("purchase order")
		}
		for i := range stored.Items {
			if stored.Items[i].ID == item.ID {
				stored.Items[i].QuantityReceived = item.QuantityReceived
				d.orders[stored.ID] = stored
				return nil
			}
		}
		return errors.NotFound("purchase order item")
	})
}

type alertRepo struct{ run exec }

func (r alertRepo) CreateIfAbsent(_ context.Context, a *domain.Alert) (bool, error) {
	created := false
	err := r.run(true, func(d *data) error {
		key := a.Key()
		for _, existing := range d.alerts {
			if !existing.Resolved && existing.Key() == key {
				return nil
			}
		}
		d.alerts[a.ID] = *a
		created = true
		return nil
	})
	return created, err
}

func (r alertRepo) Get(_ context.Context, id uuid.UUID) (*domain.Alert, error) {
	var out domain.Alert
	err := r.run(false, func(d *data) error {
		a, ok := d.alerts[id]
		if !ok {
			return errors.NotFound("alert")
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r alertRepo) List(_ context.Context, f repository.AlertFilter) ([]domain.Alert, error) {
	out := make([]domain.Alert, 0)
	err := r.run(false, func(d *data) error {
		for _, a := range d.alerts {
			if f.Resolved != nil && a.Resolved != *f.Resolved {
				continue
			}
			if f.Type != "" && a.Type != f.Type {
				continue
			}
			if f.ProductID != nil && a.ProductID != *f.ProductID {
				continue
			}
			out = append(out, a)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].Severity == domain.SeverityCritical, out[j].Severity == domain.SeverityCritical
		if ci != cj {
			return ci
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

func (r alertRepo) Resolve(_ context.Context, a *domain.Alert) error {
	return r.run(true, func(d *data) error {
		if _, ok := d.alerts[a.ID]; !ok {
			return errors.NotFound("alert")
		}
		d.alerts[a.ID] = *a
		return nil
	})
}

func (r alertRepo) CountUnresolved(_ context.Context) (int, error) {
	n := 0
	err := r.run(false, func(d *data) error {
		for _, a := range d.alerts {
			if !a.Resolved {
				n++
			}
		}
		return nil
	})
	return n, err
}
