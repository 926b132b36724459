package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/repository"
	"github.com/clinicstock/backend/pkg/actor"
	"github.com/clinicstock/backend/pkg/logger"
)

// Ledger books stock in and out of lots. Every change to a lot and the movement
// that reconciles it commit in one unit of work.
type Ledger struct {
	store  repository.Store
	deps   deps
	logger *logger.Logger
}

// NewLedger creates a ledger service over store.
func NewLedger(store repository.Store, log *logger.Logger, opts ...Option) *Ledger {
	return &Ledger{
		store:  store,
		deps:   newDeps(opts),
		logger: log.WithComponent("ledger"),
	}
}

// ReceiveBatch books a new lot and its receipt movement.
func (l *Ledger) ReceiveBatch(ctx context.Context, r domain.Receipt) (*domain.Batch, error) {
	now := l.deps.clock()
	b, err := r.Build(now)
	if err != nil {
		return nil, l.deps.reject(err)
	}
	actorName := actor.NameFromContext(ctx)

	var m *domain.Movement
	err = l.store.WithinTx(ctx, func(tx repository.Store) error {
		m, err = l.receive(ctx, tx, b, actorName, nil, now)
		return err
	})
	if err != nil {
		return nil, l.deps.reject(err)
	}

	l.received(ctx, b, m, nil)
	return b, nil
}

// receive stores b and its receipt movement on tx. ref links the movement to
// the purchase order the goods arrived on.
func (l *Ledger) receive(ctx context.Context, tx repository.Store, b *domain.Batch, actorName string, ref *uuid.UUID, now time.Time) (*domain.Movement, error) {
	if _, err := tx.Products().Get(ctx, b.ProductID); err != nil {
		return nil, err
	}
	if err := tx.Batches().Create(ctx, b); err != nil {
		return nil, err
	}

	m := domain.NewMovement(b, domain.MovementReceipt,
		domain.StockChange{Before: 0, After: b.QuantityRemaining}, actorName, b.Notes, now)
	if ref != nil {
		m.WithReference(domain.ReferencePurchaseOrder, *ref)
	}
	if err := tx.Movements().Append(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// received runs the post-commit side effects of a receipt.
func (l *Ledger) received(ctx context.Context, b *domain.Batch, m *domain.Movement, poID *uuid.UUID) {
	l.deps.publisher.BatchReceived(ctx, b, poID, m.Actor)
	l.deps.metrics.MovementRecorded(string(m.Type), m.Delta)
	l.deps.cache.Invalidate(ctx)

	l.logger.Info().
		Str("batch_id", b.ID.String()).
		Str("batch_number", b.BatchNumber).
		Int("quantity", b.QuantityReceived).
		Str("actor", m.Actor).
		Msg("batch received")
}

// Consume draws quantity units from a lot. Concurrent consumers of the same lot
// are serialized, and a request that cannot be met in full changes nothing.
func (l *Ledger) Consume(ctx context.Context, batchID uuid.UUID, quantity int, note string) (*domain.Batch, error) {
	return l.move(ctx, batchID, domain.MovementConsumption, note, func(b *domain.Batch, now time.Time) (domain.StockChange, error) {
		return b.Consume(quantity, now)
	})
}

// Adjust applies a signed stock correction. Increases are capped at the
// received quantity; the movement records what was actually applied.
func (l *Ledger) Adjust(ctx context.Context, batchID uuid.UUID, delta int, note string) (*domain.Batch, error) {
	return l.move(ctx, batchID, domain.MovementAdjustment, note, func(b *domain.Batch, now time.Time) (domain.StockChange, error) {
		return b.Adjust(delta, now)
	})
}

// WriteOffExpired zeroes the remaining stock of a lot past its expiry date.
func (l *Ledger) WriteOffExpired(ctx context.Context, batchID uuid.UUID, note string) (*domain.Batch, error) {
	return l.move(ctx, batchID, domain.MovementExpiryWriteOff, note, func(b *domain.Batch, now time.Time) (domain.StockChange, error) {
		return b.WriteOff(now)
	})
}

func (l *Ledger) move(
	ctx context.Context,
	batchID uuid.UUID,
	typ domain.MovementType,
	note string,
	apply func(b *domain.Batch, now time.Time) (domain.StockChange, error),
) (*domain.Batch, error) {
	actorName := actor.NameFromContext(ctx)

	var (
		batch *domain.Batch
		m     *domain.Movement
	)
	err := l.store.WithinTx(ctx, func(tx repository.Store) error {
		b, err := tx.Batches().GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		now := l.deps.clock()
		change, err := apply(b, now)
		if err != nil {
			return err
		}
		if err := tx.Batches().Update(ctx, b); err != nil {
			return err
		}
		m = domain.NewMovement(b, typ, change, actorName, note, now)
		if err := tx.Movements().Append(ctx, m); err != nil {
			return err
		}
		batch = b
		return nil
	})
	if err != nil {
		return nil, l.deps.reject(err)
	}

	l.deps.publisher.StockMoved(ctx, batch, m)
	l.deps.metrics.MovementRecorded(string(typ), m.Delta)
	l.deps.cache.Invalidate(ctx)

	l.logger.Info().
		Str("batch_id", batch.ID.String()).
		Str("type", string(typ)).
		Int("delta", m.Delta).
		Int("remaining", batch.QuantityRemaining).
		Str("actor", actorName).
		Msg("stock moved")
	return batch, nil
}

// Recall withdraws a lot for good. Its remaining quantity stays on record and
// no movement is written.
func (l *Ledger) Recall(ctx context.Context, batchID uuid.UUID, note string) (*domain.Batch, error) {
	actorName := actor.NameFromContext(ctx)

	var batch *domain.Batch
	err := l.store.WithinTx(ctx, func(tx repository.Store) error {
		b, err := tx.Batches().GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if err := b.Recall(note, l.deps.clock()); err != nil {
			return err
		}
		if err := tx.Batches().Update(ctx, b); err != nil {
			return err
		}
		batch = b
		return nil
	})
	if err != nil {
		return nil, l.deps.reject(err)
	}

	l.deps.publisher.BatchRecalled(ctx, batch, actorName, note)
	l.deps.cache.Invalidate(ctx)
	l.logger.Warn().
		Str("batch_id", batch.ID.String()).
		Str("batch_number", batch.BatchNumber).
		Int("remaining", batch.QuantityRemaining).
		Str("actor", actorName).
		Msg("batch recalled")
	return batch, nil
}

// TotalStock sums the remaining units of the product's usable lots.
func (l *Ledger) TotalStock(ctx context.Context, productID uuid.UUID) (int, error) {
	batches, err := l.productBatches(ctx, productID)
	if err != nil {
		return 0, err
	}
	return domain.TotalStock(batches, l.deps.clock()), nil
}

// GetBatch returns a lot. Status reports the effective status at read time.
func (l *Ledger) GetBatch(ctx context.Context, id uuid.UUID) (*domain.Batch, error) {
	b, err := l.store.Batches().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Status = b.EffectiveStatus(l.deps.clock())
	return b, nil
}

// GetBatches returns the product's lots in FEFO order with effective statuses.
func (l *Ledger) GetBatches(ctx context.Context, productID uuid.UUID) ([]domain.Batch, error) {
	batches, err := l.productBatches(ctx, productID)
	if err != nil {
		return nil, err
	}
	now := l.deps.clock()
	for i := range batches {
		batches[i].Status = batches[i].EffectiveStatus(now)
	}
	return batches, nil
}

func (l *Ledger) productBatches(ctx context.Context, productID uuid.UUID) ([]domain.Batch, error) {
	if _, err := l.store.Products().Get(ctx, productID); err != nil {
		return nil, err
	}
	return l.store.Batches().List(ctx, repository.BatchFilter{ProductID: &productID})
}

// ListMovements returns audit log entries, newest first.
func (l *Ledger) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]domain.Movement, error) {
	return l.store.Movements().List(ctx, filter)
}
