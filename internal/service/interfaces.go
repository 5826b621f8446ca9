// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	CategoryID string
	Type       model.TransactionType
	Limit      int
	Offset     int
}

// Queries are the persistence operations available both on the storage
// itself and inside a database transaction.
type Queries interface {
	// Category operations
	FindCategoryByTitle(ctx context.Context, title string) (*model.Category, error)
	FindCategoriesByTitles(ctx context.Context, titles []string) ([]model.Category, error)
	// EnsureCategory inserts category or returns the existing one with the same title.
	EnsureCategory(ctx context.Context, category *model.Category) (*model.Category, error)
	CreateCategories(ctx context.Context, categories []model.Category) error
	GetCategories(ctx context.Context) ([]model.Category, error)

	// Transaction operations
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionCount(ctx context.Context) (int, error)

	// Balance operations
	GetBalance(ctx context.Context) (decimal.Decimal, error)
	AdjustBalance(ctx context.Context, delta decimal.Decimal) error
	SumTransactions(ctx context.Context) (model.Balance, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	Queries

	// DeleteCategory removes a category; its transactions keep existing with no category.
	DeleteCategory(ctx context.Context, id string) error

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	Queries
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// WithTx runs fn inside a transaction, committing when fn succeeds and
// rolling back otherwise.
func WithTx(ctx context.Context, store Storage, fn func(tx Transaction) error) error {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
