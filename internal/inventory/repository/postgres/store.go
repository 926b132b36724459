// Package postgres implements the stock ledger store on PostgreSQL with sqlx.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	stderrors "errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/repository"
	"github.com/clinicstock/backend/pkg/database"
)

// Migrations holds the schema, applied with database.Migrate(dsn, Migrations, MigrationsDir, log).
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations holding the SQL files.
const MigrationsDir = "migrations"

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Store is the PostgreSQL backed repository.Store.
type Store struct {
	db   *database.DB
	q    queryer
	inTx bool
}

var _ repository.Store = (*Store)(nil)

// New returns a store using db for reads and to open transactions.
func New(db *database.DB) *Store {
	return &Store{db: db, q: db.DB}
}

func (s *Store) Products() repository.ProductRepository             { return &productRepo{q: s.q} }
func (s *Store) Suppliers() repository.SupplierRepository           { return &supplierRepo{q: s.q} }
func (s *Store) Batches() repository.BatchRepository                { return &batchRepo{q: s.q} }
func (s *Store) Movements() repository.MovementRepository           { return &movementRepo{q: s.q} }
func (s *Store) PurchaseOrders() repository.PurchaseOrderRepository { return &orderRepo{q: s.q} }
func (s *Store) Alerts() repository.AlertRepository                 { return &alertRepo{q: s.q} }

// WithinTx runs fn inside one database transaction. Row locks taken with the
// GetForUpdate methods are held until fn returns.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		return fn(&Store{db: s.db, q: tx, inTx: true})
	})
}

// translate maps storage errors onto the stock error taxonomy by constraint name.
func translate(err error, subject string) error {
	if err == nil {
		return nil
	}
	pqErr, ok := database.PQError(err)
	if !ok {
		return err
	}

	switch {
	case database.IsUniqueViolation(err, "products_sku_key"):
		return domain.DuplicateSku(subject)
	case database.IsUniqueViolation(err, "products_barcode_key"):
		return domain.DuplicateBarcode(subject)
	case database.IsUniqueViolation(err, "inventory_batches_batch_number_key"):
		return domain.DuplicateBatch(subject)
	case database.IsUniqueViolation(err, "purchase_orders_order_number_key"):
		return domain.DuplicateOrderNumber(subject)
	}

	if database.IsForeignKeyViolation(err, "") {
		switch pqErr.Constraint {
		case "products_supplier_id_fkey", "inventory_batches_supplier_id_fkey", "purchase_orders_supplier_id_fkey":
			return domain.UnknownSupplier(keyFromDetail(pqErr.Detail))
		case "inventory_batches_product_id_fkey", "purchase_order_items_product_id_fkey",
			"inventory_movements_product_id_fkey", "inventory_alerts_product_id_fkey":
			return domain.UnknownProduct(keyFromDetail(pqErr.Detail))
		}
	}

	if appErr := database.MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}

// keyFromDetail extracts the key value from a foreign key violation detail such as
// `Key (supplier_id)=(5f0c...) is not present in table "suppliers".`
func keyFromDetail(detail string) uuid.UUID {
	start := strings.Index(detail, ")=(")
	if start < 0 {
		return uuid.Nil
	}
	rest := detail[start+3:]
	end := strings.Index(rest, ")")
	if end < 0 {
		return uuid.Nil
	}
	id, err := uuid.Parse(rest[:end])
	if err != nil {
		return uuid.Nil
	}
	return id
}

func isNoRows(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows)
}
