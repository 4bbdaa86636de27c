package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"temporal-warehouse/internal/domain"

	"github.com/google/uuid"
)

func TestLedgerRepository_AppendAndList(t *testing.T) {
	products := NewProductRepository(testDB)
	ledger := NewLedgerRepository(testDB)
	ctx := context.Background()

	product := mustCreateProduct(t, products, "SKU-LEDGER-1", 0)

	first, err := ledger.Append(ctx, product.ID, domain.ChangeTypeAdd, 10, 10)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if first.ID == 0 {
		t.Error("entry id must be assigned by the database")
	}
	if first.ChangedAt.IsZero() {
		t.Error("entry timestamp must be assigned by the database")
	}

	second, err := ledger.Append(ctx, product.ID, domain.ChangeTypeRemove, 4, 6)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if second.ID <= first.ID {
		t.Errorf("entry ids must increase with insertion order: %d then %d", first.ID, second.ID)
	}

	entries, err := ledger.ListByProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("ListByProduct failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != first.ID || entries[1].ID != second.ID {
		t.Error("entries not in commit order")
	}
	if entries[1].NewTotal != 6 {
		t.Errorf("expected new total 6, got %d", entries[1].NewTotal)
	}
}

func TestLedgerRepository_LatestAtOrBefore(t *testing.T) {
	products := NewProductRepository(testDB)
	ledger := NewLedgerRepository(testDB)
	ctx := context.Background()

	product := mustCreateProduct(t, products, "SKU-LEDGER-AT", 0)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedEntry(t, product.ID, base, domain.ChangeTypeInitial, 100, 100)
	seedEntry(t, product.ID, base.Add(time.Hour), domain.ChangeTypeAdd, 50, 150)
	seedEntry(t, product.ID, base.Add(2*time.Hour), domain.ChangeTypeRemove, 30, 120)

	cases := []struct {
		name    string
		at      time.Time
		want    int
		wantErr error
	}{
		{"before first entry", base.Add(-time.Minute), 0, ErrNoLedgerEntry},
		{"exactly at first entry", base, 100, nil},
		{"between first and second", base.Add(30 * time.Minute), 100, nil},
		{"between second and third", base.Add(90 * time.Minute), 150, nil},
		{"after last entry", base.Add(3 * time.Hour), 120, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry, err := ledger.LatestAtOrBefore(ctx, product.ID, tc.at)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LatestAtOrBefore failed: %v", err)
			}
			if entry.NewTotal != tc.want {
				t.Errorf("expected new total %d, got %d", tc.want, entry.NewTotal)
			}
		})
	}
}

// Entries sharing a timestamp must resolve to the most recently
// committed one. Plain timestamp sorting is not stable, so the id
// tie-break is load-bearing.
func TestLedgerRepository_TimestampTieBreak(t *testing.T) {
	products := NewProductRepository(testDB)
	ledger := NewLedgerRepository(testDB)
	ctx := context.Background()

	product := mustCreateProduct(t, products, "SKU-LEDGER-TIE", 0)

	at := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	seedEntry(t, product.ID, at, domain.ChangeTypeAdd, 10, 10)
	seedEntry(t, product.ID, at, domain.ChangeTypeAdd, 5, 15)
	seedEntry(t, product.ID, at, domain.ChangeTypeRemove, 3, 12)

	entry, err := ledger.LatestAtOrBefore(ctx, product.ID, at)
	if err != nil {
		t.Fatalf("LatestAtOrBefore failed: %v", err)
	}
	if entry.NewTotal != 12 {
		t.Errorf("tie-break must pick the highest id, expected 12, got %d", entry.NewTotal)
	}
}

func TestLedgerRepository_LatestAtOrBefore_OtherProductInvisible(t *testing.T) {
	products := NewProductRepository(testDB)
	ledger := NewLedgerRepository(testDB)
	ctx := context.Background()

	a := mustCreateProduct(t, products, "SKU-LEDGER-A", 0)
	b := mustCreateProduct(t, products, "SKU-LEDGER-B", 0)

	at := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	seedEntry(t, a.ID, at, domain.ChangeTypeAdd, 7, 7)

	if _, err := ledger.LatestAtOrBefore(ctx, b.ID, at.Add(time.Hour)); !errors.Is(err, ErrNoLedgerEntry) {
		t.Errorf("entries of another product must be invisible, got %v", err)
	}
}

// seedEntry inserts a ledger row with an explicit timestamp, bypassing
// the repository so tests can control history precisely
func seedEntry(t *testing.T, productID uuid.UUID, at time.Time, changeType domain.ChangeType, quantityChanged, newTotal int) {
	t.Helper()
	_, err := testDB.Exec(`
		INSERT INTO stock_ledger (product_id, changed_at, change_type, quantity_changed, new_total)
		VALUES ($1, $2, $3, $4, $5)
	`, productID, at, changeType, quantityChanged, newTotal)
	if err != nil {
		t.Fatalf("failed to seed ledger entry: %v", err)
	}
}
