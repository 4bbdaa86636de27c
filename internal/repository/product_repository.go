package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"temporal-warehouse/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrSKUAlreadyExists = errors.New("product with this SKU already exists")
	ErrVersionConflict  = errors.New("product was modified concurrently")
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint violations
const uniqueViolation = "23505"

// ProductRepository defines the interface for product data access.
//
// Soft-delete filtering is never implicit: reads that must skip deleted
// rows carry an is_deleted = FALSE predicate in their query, and the one
// read that must see deleted rows (ExistsIncludingDeleted, used by the
// historical query) is a separately named operation.
type ProductRepository interface {
	WithTx(tx DBTX) ProductRepository
	Create(ctx context.Context, product *domain.Product) error
	FindActiveByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ExistsIncludingDeleted(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]*domain.Product, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, expectedVersion uuid.UUID, name, sku string, price float64) (*domain.Product, error)
	CompareAndSwapQuantity(ctx context.Context, id uuid.UUID, expectedVersion uuid.UUID, newQuantity int) (uuid.UUID, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type productRepository struct {
	db DBTX
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db DBTX) ProductRepository {
	return &productRepository{db: db}
}

// WithTx returns a ProductRepository running its queries on the given
// transaction (or any other DBTX)
func (r *productRepository) WithTx(tx DBTX) ProductRepository {
	return &productRepository{db: tx}
}

// isUniqueViolation reports whether err is a Postgres unique constraint error
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Create inserts a new product row using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, sku, price, current_quantity, is_deleted, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.SKU,
		product.Price,
		product.CurrentQuantity,
		product.IsDeleted,
		product.Version,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrSKUAlreadyExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// FindActiveByID retrieves a product by ID, skipping soft-deleted rows.
// The returned product carries the version token for a subsequent
// compare-and-swap.
func (r *productRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT id, name, sku, price, current_quantity, is_deleted, version, created_at, updated_at
		FROM products
		WHERE id = $1 AND is_deleted = FALSE
	`

	product := &domain.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.SKU,
		&product.Price,
		&product.CurrentQuantity,
		&product.IsDeleted,
		&product.Version,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// ExistsIncludingDeleted reports whether a product row with this ID was
// ever created, soft-deleted or not. This is the single intentional
// bypass of the soft-delete predicate; the historical query engine uses
// it to distinguish "never existed" from "existed with no activity".
func (r *productRepository) ExistsIncludingDeleted(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check product existence: %w", err)
	}

	return exists, nil
}

// List retrieves all active products ordered by creation time
func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	query := `
		SELECT id, name, sku, price, current_quantity, is_deleted, version, created_at, updated_at
		FROM products
		WHERE is_deleted = FALSE
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product := &domain.Product{}
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.SKU,
			&product.Price,
			&product.CurrentQuantity,
			&product.IsDeleted,
			&product.Version,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// UpdateMetadata updates name, SKU, and price without touching quantity.
// The write is guarded by the version token; a stale token means the row
// changed underneath the caller and the update is rejected.
func (r *productRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, expectedVersion uuid.UUID, name, sku string, price float64) (*domain.Product, error) {
	query := `
		UPDATE products
		SET name = $3, sku = $4, price = $5, version = $6, updated_at = now()
		WHERE id = $1 AND version = $2 AND is_deleted = FALSE
		RETURNING id, name, sku, price, current_quantity, is_deleted, version, created_at, updated_at
	`

	newVersion := uuid.New()
	product := &domain.Product{}
	err := r.db.QueryRowContext(ctx, query, id, expectedVersion, name, sku, price, newVersion).Scan(
		&product.ID,
		&product.Name,
		&product.SKU,
		&product.Price,
		&product.CurrentQuantity,
		&product.IsDeleted,
		&product.Version,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSKUAlreadyExists
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("failed to update product metadata: %w", err)
	}

	return product, nil
}

// CompareAndSwapQuantity atomically replaces the current quantity and
// issues a new version token, but only if the stored token still equals
// expectedVersion. Zero rows affected means the row changed (or was
// soft-deleted) since the caller's read, and nothing is written.
func (r *productRepository) CompareAndSwapQuantity(ctx context.Context, id uuid.UUID, expectedVersion uuid.UUID, newQuantity int) (uuid.UUID, error) {
	query := `
		UPDATE products
		SET current_quantity = $3, version = $4, updated_at = now()
		WHERE id = $1 AND version = $2 AND is_deleted = FALSE
	`

	newVersion := uuid.New()
	result, err := r.db.ExecContext(ctx, query, id, expectedVersion, newQuantity, newVersion)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to swap product quantity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return uuid.Nil, ErrVersionConflict
	}

	return newVersion, nil
}

// SoftDelete marks a product as deleted without touching its quantity or
// ledger history
func (r *productRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE products
		SET is_deleted = TRUE, version = $2, updated_at = now()
		WHERE id = $1 AND is_deleted = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, id, uuid.New())
	if err != nil {
		return fmt.Errorf("failed to soft delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}
