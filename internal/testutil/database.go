// Package testutil provides test helpers for seeding a migrated in-memory database.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/shiftbook/internal/model"
	"github.com/Veraticus/shiftbook/internal/service"
	"github.com/Veraticus/shiftbook/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database with the default categories seeded.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	vendor := db.Vendor("Saigon Power", model.CategoryCodeUtilities, "saigon power co")
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// Category returns the seeded category with the given code.
func (db *TestDB) Category(code string) model.Category {
	db.t.Helper()

	cat, err := db.Storage.GetCategoryByCode(context.Background(), code)
	if err != nil {
		db.t.Fatalf("category %q not seeded: %v", code, err)
	}
	return *cat
}

// Vendor creates a vendor with the given aliases. An empty categoryCode
// leaves the vendor without a default category.
func (db *TestDB) Vendor(name, categoryCode string, aliases ...string) model.Vendor {
	db.t.Helper()
	ctx := context.Background()

	vendor := model.Vendor{Name: name}
	if categoryCode != "" {
		cat := db.Category(categoryCode)
		vendor.DefaultCategoryID = &cat.ID
	}
	if err := db.Storage.CreateVendor(ctx, &vendor); err != nil {
		db.t.Fatalf("failed to create vendor %q: %v", name, err)
	}

	for _, alias := range aliases {
		a := model.VendorAlias{VendorID: vendor.ID, Alias: alias}
		if err := db.Storage.InsertVendorAlias(ctx, &a); err != nil {
			db.t.Fatalf("failed to add alias %q: %v", alias, err)
		}
	}
	return vendor
}

// Expense inserts a committed manual expense.
func (db *TestDB) Expense(id, description string, amountMinor int64, date time.Time) model.Expense {
	db.t.Helper()

	e := model.Expense{
		ID:          id,
		Date:        date,
		Description: description,
		AmountMinor: amountMinor,
		Currency:    "VND",
		Source:      model.SourceManual,
	}
	if err := db.Storage.InsertExpense(context.Background(), &e); err != nil {
		db.t.Fatalf("failed to insert expense %q: %v", id, err)
	}
	return e
}
