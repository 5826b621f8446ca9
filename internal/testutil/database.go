// Package testutil provides test utilities for the ledger packages.
// It offers isolated in-memory databases and storage doubles for failure paths.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage    service.Storage
	t          *testing.T
	Categories map[string]model.Category
}

// SetupTestDB creates a new in-memory test database seeded with the given
// category titles. It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t, "Work", "Housing")
//	workID := db.MustGetCategory("Work").ID
func SetupTestDB(t *testing.T, categoryTitles ...string) *TestDB {
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

	db := &TestDB{
		Storage:    store,
		Categories: make(map[string]model.Category, len(categoryTitles)),
		t:          t,
	}
	for _, title := range categoryTitles {
		cat, err := store.EnsureCategory(ctx, &model.Category{ID: uuid.NewString(), Title: title})
		if err != nil {
			t.Fatalf("failed to seed category %q: %v", title, err)
		}
		db.Categories[title] = *cat
	}

	return db
}

// MustGetCategory returns the seeded category with the given title or fails the test.
func (db *TestDB) MustGetCategory(title string) model.Category {
	db.t.Helper()
	cat, ok := db.Categories[title]
	if !ok {
		db.t.Fatalf("category %q was not seeded", title)
	}
	return cat
}

// Balance returns the materialized balance or fails the test.
func (db *TestDB) Balance() decimal.Decimal {
	db.t.Helper()
	balance, err := db.Storage.GetBalance(context.Background())
	if err != nil {
		db.t.Fatalf("failed to read balance: %v", err)
	}
	return balance
}

// TransactionCount returns the number of stored transactions or fails the test.
func (db *TestDB) TransactionCount() int {
	db.t.Helper()
	count, err := db.Storage.GetTransactionCount(context.Background())
	if err != nil {
		db.t.Fatalf("failed to count transactions: %v", err)
	}
	return count
}

// CategoryCount returns the number of stored categories or fails the test.
func (db *TestDB) CategoryCount() int {
	db.t.Helper()
	cats, err := db.Storage.GetCategories(context.Background())
	if err != nil {
		db.t.Fatalf("failed to list categories: %v", err)
	}
	return len(cats)
}

// WithTransaction executes the given function within a database transaction.
// The transaction is automatically rolled back after the function completes.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
