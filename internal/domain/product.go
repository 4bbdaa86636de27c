package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog item in the warehouse
type Product struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	SKU             string    `json:"sku" db:"sku"`
	Price           float64   `json:"price" db:"price"`
	CurrentQuantity int       `json:"current_quantity" db:"current_quantity"`
	IsDeleted       bool      `json:"is_deleted" db:"is_deleted"`
	// Version is the optimistic concurrency token. It is opaque to
	// callers and changes on every write to the row.
	Version   uuid.UUID `json:"-" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ChangeType classifies a stock ledger entry
type ChangeType string

const (
	ChangeTypeInitial ChangeType = "Initial"
	ChangeTypeAdd     ChangeType = "Add"
	ChangeTypeRemove  ChangeType = "Remove"
)

// Valid reports whether the change type is one of the known values
func (c ChangeType) Valid() bool {
	switch c {
	case ChangeTypeInitial, ChangeTypeAdd, ChangeTypeRemove:
		return true
	}
	return false
}

// LedgerEntry is one immutable record in the append-only stock ledger.
// Entries are never updated or deleted once committed; NewTotal is the
// product's quantity immediately after the entry was applied.
type LedgerEntry struct {
	ID              int64      `json:"id" db:"id"`
	ProductID       uuid.UUID  `json:"product_id" db:"product_id"`
	ChangedAt       time.Time  `json:"changed_at" db:"changed_at"`
	ChangeType      ChangeType `json:"change_type" db:"change_type"`
	QuantityChanged int        `json:"quantity_changed" db:"quantity_changed"`
	NewTotal        int        `json:"new_total" db:"new_total"`
}
