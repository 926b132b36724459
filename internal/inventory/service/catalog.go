package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/repository"
	"github.com/clinicstock/backend/pkg/logger"
)

// Catalog manages products and suppliers.
type Catalog struct {
	store  repository.Store
	deps   deps
	logger *logger.Logger
}

// NewCatalog creates a catalog service over store.
func NewCatalog(store repository.Store, log *logger.Logger, opts ...Option) *Catalog {
	return &Catalog{
		store:  store,
		deps:   newDeps(opts),
		logger: log.WithComponent("catalog"),
	}
}

// AddProduct validates and stores a new product.
func (c *Catalog) AddProduct(ctx context.Context, in domain.NewProduct) (*domain.Product, error) {
	p, err := in.Build(c.deps.clock())
	if err != nil {
		return nil, err
	}
	if err := c.store.Products().Create(ctx, p); err != nil {
		return nil, c.deps.reject(err)
	}

	c.deps.cache.Invalidate(ctx)
	c.logger.Info().Str("product_id", p.ID.String()).Str("sku", p.SKU).Msg("product added")
	return p, nil
}

// UpdatePricing changes prices and reorder thresholds of a product. Purchase
// order totals and batch costs already recorded are left as they are.
func (c *Catalog) UpdatePricing(ctx context.Context, id uuid.UUID, u domain.PricingUpdate) (*domain.Product, error) {
	var updated *domain.Product
	err := c.store.WithinTx(ctx, func(tx repository.Store) error {
		p, err := tx.Products().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := u.Apply(p, c.deps.clock()); err != nil {
			return err
		}
		if err := tx.Products().Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, c.deps.reject(err)
	}

	c.deps.cache.Invalidate(ctx)
	return updated, nil
}

// GetProduct returns a product by id.
func (c *Catalog) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return c.store.Products().Get(ctx, id)
}

// ListProducts returns every product ordered by name.
func (c *Catalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return c.store.Products().List(ctx)
}

// AddSupplier validates and stores a supplier. ID and CreatedAt are assigned here.
func (c *Catalog) AddSupplier(ctx context.Context, s domain.Supplier) (*domain.Supplier, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.ID = uuid.New()
	s.CreatedAt = c.deps.clock()
	if err := c.store.Suppliers().Create(ctx, &s); err != nil {
		return nil, err
	}
	c.logger.Info().Str("supplier_id", s.ID.String()).Str("name", s.Name).Msg("supplier added")
	return &s, nil
}

// GetSupplier returns a supplier by id.
func (c *Catalog) GetSupplier(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	return c.store.Suppliers().Get(ctx, id)
}

// ListSuppliers returns every supplier ordered by name.
func (c *Catalog) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return c.store.Suppliers().List(ctx)
}
