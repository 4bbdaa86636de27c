package service

import (
	"context"
	"errors"
	"time"

	"temporal-warehouse/internal/domain"
	"temporal-warehouse/internal/repository"

	"github.com/google/uuid"
)

// HistoryService answers point-in-time stock questions from the ledger.
// It never reads the product's current quantity.
type HistoryService interface {
	StockAt(ctx context.Context, productID uuid.UUID, at time.Time) (int, error)
	History(ctx context.Context, productID uuid.UUID) ([]*domain.LedgerEntry, error)
}

type historyService struct {
	products repository.ProductRepository
	ledger   repository.LedgerRepository
}

// NewHistoryService creates a new instance of HistoryService
func NewHistoryService(products repository.ProductRepository, ledger repository.LedgerRepository) HistoryService {
	return &historyService{
		products: products,
		ledger:   ledger,
	}
}

// StockAt returns the stock level of a product as of a given instant.
// The existence check includes soft-deleted products: history outlives
// deletion. When no entry exists at or before the instant the answer is
// 0; a timestamp before the product's creation and one before its first
// stock event are indistinguishable here, which callers rely on.
func (s *historyService) StockAt(ctx context.Context, productID uuid.UUID, at time.Time) (int, error) {
	exists, err := s.products.ExistsIncludingDeleted(ctx, productID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, repository.ErrProductNotFound
	}

	entry, err := s.ledger.LatestAtOrBefore(ctx, productID, at)
	if err != nil {
		if errors.Is(err, repository.ErrNoLedgerEntry) {
			return 0, nil
		}
		return 0, err
	}

	return entry.NewTotal, nil
}

// History returns a product's full stock history in commit order,
// including for soft-deleted products
func (s *historyService) History(ctx context.Context, productID uuid.UUID) ([]*domain.LedgerEntry, error) {
	exists, err := s.products.ExistsIncludingDeleted(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, repository.ErrProductNotFound
	}

	return s.ledger.ListByProduct(ctx, productID)
}
