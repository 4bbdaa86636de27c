package service

import (
	"context"
	"errors"
	"testing"

	"temporal-warehouse/internal/domain"
	"temporal-warehouse/internal/repository"
)

func TestProductService_ValidationErrors(t *testing.T) {
	// Validation runs before any database work
	svc := NewProductService(nil, nil, nil)
	ctx := context.Background()

	cases := []struct {
		name     string
		callErr  error
		expected error
	}{
		{"empty name", func() error { _, err := svc.Create(ctx, " ", "SKU-1", 10, 0); return err }(), ErrNameRequired},
		{"empty sku", func() error { _, err := svc.Create(ctx, "Widget", "  ", 10, 0); return err }(), ErrSKURequired},
		{"price too low", func() error { _, err := svc.Create(ctx, "Widget", "SKU-1", 0, 0); return err }(), ErrPriceOutOfRange},
		{"price too high", func() error { _, err := svc.Create(ctx, "Widget", "SKU-1", 2_000_000, 0); return err }(), ErrPriceOutOfRange},
		{"negative initial quantity", func() error { _, err := svc.Create(ctx, "Widget", "SKU-1", 10, -1); return err }(), ErrNegativeInitialQuantity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.callErr, tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, tc.callErr)
			}
		})
	}
}

func TestProductService_CreateWithInitialQuantity(t *testing.T) {
	svc := NewProductService(testDB, testProduct, testLedger)
	ctx := context.Background()

	p, err := svc.Create(ctx, "Seeded", "SKU-SVC-SEEDED", 10, 100)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.CurrentQuantity != 100 {
		t.Errorf("expected quantity 100, got %d", p.CurrentQuantity)
	}

	entries, err := testLedger.ListByProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListByProduct failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one Initial entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.ChangeType != domain.ChangeTypeInitial {
		t.Errorf("expected Initial entry, got %s", entry.ChangeType)
	}
	// The entry carries the product's real identity, never a placeholder
	if entry.ProductID != p.ID {
		t.Errorf("entry product id %s does not match product %s", entry.ProductID, p.ID)
	}
	if entry.QuantityChanged != 100 || entry.NewTotal != 100 {
		t.Errorf("unexpected entry values: %+v", entry)
	}
}

func TestProductService_CreateWithZeroQuantityHasNoEntry(t *testing.T) {
	svc := NewProductService(testDB, testProduct, testLedger)
	ctx := context.Background()

	p, err := svc.Create(ctx, "Empty", "SKU-SVC-EMPTY", 10, 0)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	entries, err := testLedger.ListByProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListByProduct failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("zero initial quantity must not produce a ledger entry, got %d", len(entries))
	}
}

func TestProductService_DuplicateSKURollsBackInitialEntry(t *testing.T) {
	svc := NewProductService(testDB, testProduct, testLedger)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "First", "SKU-SVC-DUP", 10, 10); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := svc.Create(ctx, "Second", "SKU-SVC-DUP", 10, 10)
	if !errors.Is(err, repository.ErrSKUAlreadyExists) {
		t.Fatalf("expected ErrSKUAlreadyExists, got %v", err)
	}
}

func TestProductService_UpdateMetadataKeepsQuantity(t *testing.T) {
	products := NewProductService(testDB, testProduct, testLedger)
	stock := NewStockService(testDB, testProduct, testLedger)
	ctx := context.Background()

	p, err := products.Create(ctx, "Mutable", "SKU-SVC-META", 10, 30)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := stock.Add(ctx, p.ID, 12); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	updated, err := products.UpdateMetadata(ctx, p.ID, "Renamed", "SKU-SVC-META2", 42)
	if err != nil {
		t.Fatalf("UpdateMetadata failed: %v", err)
	}
	if updated.CurrentQuantity != 42 {
		t.Errorf("expected quantity 42 untouched by metadata edit, got %d", updated.CurrentQuantity)
	}
	if updated.Name != "Renamed" || updated.SKU != "SKU-SVC-META2" {
		t.Errorf("metadata not applied: %+v", updated)
	}
}

func TestProductService_SoftDeleteKeepsLedger(t *testing.T) {
	products := NewProductService(testDB, testProduct, testLedger)
	ctx := context.Background()

	p, err := products.Create(ctx, "Doomed", "SKU-SVC-DOOMED", 10, 8)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := products.SoftDelete(ctx, p.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	if _, err := products.Get(ctx, p.ID); !errors.Is(err, repository.ErrProductNotFound) {
		t.Errorf("deleted product must not be readable, got %v", err)
	}

	entries, err := testLedger.ListByProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListByProduct failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("soft delete must keep ledger history, got %d entries", len(entries))
	}
}
