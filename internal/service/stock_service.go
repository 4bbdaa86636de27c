package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"temporal-warehouse/internal/domain"
	"temporal-warehouse/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInsufficientStock = errors.New("insufficient stock, quantity cannot go below zero")
)

// AdjustmentResult reports the outcome of a stock adjustment
type AdjustmentResult struct {
	ProductID   uuid.UUID `json:"product_id"`
	NewQuantity int       `json:"new_quantity"`
}

// StockService is the stock adjustment engine. Every adjustment is one
// transaction spanning the quantity compare-and-swap and the ledger
// append; either both persist or neither does. A lost race surfaces as
// repository.ErrVersionConflict and the engine never retries on its own:
// the caller re-reads and decides.
type StockService interface {
	Add(ctx context.Context, productID uuid.UUID, quantity int) (*AdjustmentResult, error)
	Remove(ctx context.Context, productID uuid.UUID, quantity int) (*AdjustmentResult, error)
}

type stockService struct {
	db       *sql.DB
	products repository.ProductRepository
	ledger   repository.LedgerRepository
}

// NewStockService creates a new instance of StockService
func NewStockService(db *sql.DB, products repository.ProductRepository, ledger repository.LedgerRepository) StockService {
	return &stockService{
		db:       db,
		products: products,
		ledger:   ledger,
	}
}

// Add increases a product's stock by quantity
func (s *stockService) Add(ctx context.Context, productID uuid.UUID, quantity int) (*AdjustmentResult, error) {
	return s.adjust(ctx, productID, quantity, domain.ChangeTypeAdd)
}

// Remove decreases a product's stock by quantity. Fails with
// ErrInsufficientStock when the freshly read quantity is too low.
func (s *stockService) Remove(ctx context.Context, productID uuid.UUID, quantity int) (*AdjustmentResult, error) {
	return s.adjust(ctx, productID, quantity, domain.ChangeTypeRemove)
}

func (s *stockService) adjust(ctx context.Context, productID uuid.UUID, quantity int, changeType domain.ChangeType) (*AdjustmentResult, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback is a no-op after Commit; it also unwinds the whole unit
	// when the context is cancelled mid-flight.
	defer tx.Rollback()

	products := s.products.WithTx(tx)
	ledger := s.ledger.WithTx(tx)

	product, err := products.FindActiveByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	var newTotal int
	switch changeType {
	case domain.ChangeTypeAdd:
		newTotal = product.CurrentQuantity + quantity
	case domain.ChangeTypeRemove:
		if product.CurrentQuantity < quantity {
			return nil, ErrInsufficientStock
		}
		newTotal = product.CurrentQuantity - quantity
	default:
		return nil, fmt.Errorf("unsupported change type %q", changeType)
	}

	if _, err := products.CompareAndSwapQuantity(ctx, productID, product.Version, newTotal); err != nil {
		return nil, err
	}

	if _, err := ledger.Append(ctx, productID, changeType, quantity, newTotal); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock adjustment: %w", err)
	}

	return &AdjustmentResult{ProductID: productID, NewQuantity: newTotal}, nil
}
