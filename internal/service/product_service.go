package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"temporal-warehouse/internal/domain"
	"temporal-warehouse/internal/repository"

	"github.com/google/uuid"
)

const (
	// Price bounds for a product, matching the catalog's allowed range
	MinPrice = 0.01
	MaxPrice = 1_000_000
)

var (
	ErrNameRequired            = errors.New("product name is required")
	ErrSKURequired             = errors.New("SKU is required")
	ErrPriceOutOfRange         = errors.New("price must be between 0.01 and 1000000")
	ErrNegativeInitialQuantity = errors.New("initial quantity cannot be negative")
)

// ProductService defines the interface for catalog operations. Quantity
// is never changed here; stock adjustments go through StockService so
// every change lands in the ledger.
type ProductService interface {
	Create(ctx context.Context, name, sku string, price float64, initialQuantity int) (*domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, name, sku string, price float64) (*domain.Product, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	db       *sql.DB
	products repository.ProductRepository
	ledger   repository.LedgerRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(db *sql.DB, products repository.ProductRepository, ledger repository.LedgerRepository) ProductService {
	return &productService{
		db:       db,
		products: products,
		ledger:   ledger,
	}
}

func validateMetadata(name, sku string, price float64) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(sku) == "" {
		return ErrSKURequired
	}
	if price < MinPrice || price > MaxPrice {
		return ErrPriceOutOfRange
	}
	return nil
}

// Create inserts a new product and, when the initial quantity is
// nonzero, its Initial ledger entry in a single transaction. The product
// id is assigned up front so the entry always references the real
// identity; there is no placeholder key to fix up afterwards.
func (s *productService) Create(ctx context.Context, name, sku string, price float64, initialQuantity int) (*domain.Product, error) {
	if err := validateMetadata(name, sku, price); err != nil {
		return nil, err
	}
	if initialQuantity < 0 {
		return nil, ErrNegativeInitialQuantity
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:              uuid.New(),
		Name:            name,
		SKU:             sku,
		Price:           price,
		CurrentQuantity: initialQuantity,
		Version:         uuid.New(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.products.WithTx(tx).Create(ctx, product); err != nil {
		return nil, err
	}

	if initialQuantity > 0 {
		_, err := s.ledger.WithTx(tx).Append(ctx, product.ID, domain.ChangeTypeInitial, initialQuantity, initialQuantity)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product creation: %w", err)
	}

	return product, nil
}

// Get retrieves an active product by ID
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.FindActiveByID(ctx, id)
}

// List retrieves all active products
func (s *productService) List(ctx context.Context) ([]*domain.Product, error) {
	return s.products.List(ctx)
}

// UpdateMetadata updates name, SKU, and price. The current quantity is
// deliberately untouched. The update is guarded by the version token
// read here, so a concurrent write in between surfaces as
// repository.ErrVersionConflict.
func (s *productService) UpdateMetadata(ctx context.Context, id uuid.UUID, name, sku string, price float64) (*domain.Product, error) {
	if err := validateMetadata(name, sku, price); err != nil {
		return nil, err
	}

	product, err := s.products.FindActiveByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.products.UpdateMetadata(ctx, id, product.Version, name, sku, price)
}

// SoftDelete marks a product as deleted; its row and ledger history stay
func (s *productService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return s.products.SoftDelete(ctx, id)
}
