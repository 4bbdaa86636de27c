package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"temporal-warehouse/internal/domain"

	"github.com/google/uuid"
)

var ErrNoLedgerEntry = errors.New("no ledger entry at or before this instant")

// LedgerRepository defines the interface for the append-only stock
// ledger. There is deliberately no update or delete: entries are
// immutable once committed.
type LedgerRepository interface {
	WithTx(tx DBTX) LedgerRepository
	Append(ctx context.Context, productID uuid.UUID, changeType domain.ChangeType, quantityChanged, newTotal int) (*domain.LedgerEntry, error)
	LatestAtOrBefore(ctx context.Context, productID uuid.UUID, at time.Time) (*domain.LedgerEntry, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.LedgerEntry, error)
}

type ledgerRepository struct {
	db DBTX
}

// NewLedgerRepository creates a new instance of LedgerRepository
func NewLedgerRepository(db DBTX) LedgerRepository {
	return &ledgerRepository{db: db}
}

// WithTx returns a LedgerRepository running its queries on the given
// transaction (or any other DBTX)
func (r *ledgerRepository) WithTx(tx DBTX) LedgerRepository {
	return &ledgerRepository{db: tx}
}

// Append inserts one immutable entry. The entry id and timestamp are
// assigned by the database at commit time.
func (r *ledgerRepository) Append(ctx context.Context, productID uuid.UUID, changeType domain.ChangeType, quantityChanged, newTotal int) (*domain.LedgerEntry, error) {
	if !changeType.Valid() {
		return nil, fmt.Errorf("invalid change type %q", changeType)
	}

	query := `
		INSERT INTO stock_ledger (product_id, change_type, quantity_changed, new_total)
		VALUES ($1, $2, $3, $4)
		RETURNING id, changed_at
	`

	entry := &domain.LedgerEntry{
		ProductID:       productID,
		ChangeType:      changeType,
		QuantityChanged: quantityChanged,
		NewTotal:        newTotal,
	}

	err := r.db.QueryRowContext(ctx, query, productID, changeType, quantityChanged, newTotal).
		Scan(&entry.ID, &entry.ChangedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return entry, nil
}

// LatestAtOrBefore returns the entry for a product with the greatest
// changed_at <= at, or ErrNoLedgerEntry if none exists. Entries sharing
// the same timestamp are tie-broken by entry id, so the most recently
// committed one wins deterministically.
func (r *ledgerRepository) LatestAtOrBefore(ctx context.Context, productID uuid.UUID, at time.Time) (*domain.LedgerEntry, error) {
	query := `
		SELECT id, product_id, changed_at, change_type, quantity_changed, new_total
		FROM stock_ledger
		WHERE product_id = $1 AND changed_at <= $2
		ORDER BY changed_at DESC, id DESC
		LIMIT 1
	`

	entry := &domain.LedgerEntry{}
	err := r.db.QueryRowContext(ctx, query, productID, at).Scan(
		&entry.ID,
		&entry.ProductID,
		&entry.ChangedAt,
		&entry.ChangeType,
		&entry.QuantityChanged,
		&entry.NewTotal,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoLedgerEntry
		}
		return nil, fmt.Errorf("failed to find latest ledger entry: %w", err)
	}

	return entry, nil
}

// ListByProduct returns a product's full history in commit order
func (r *ledgerRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT id, product_id, changed_at, change_type, quantity_changed, new_total
		FROM stock_ledger
		WHERE product_id = $1
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	entries := []*domain.LedgerEntry{}
	for rows.Next() {
		entry := &domain.LedgerEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.ProductID,
			&entry.ChangedAt,
			&entry.ChangeType,
			&entry.QuantityChanged,
			&entry.NewTotal,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}

	return entries, nil
}
