package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// dsnOptions makes every BeginTx issue BEGIN IMMEDIATE, so a transaction
// holds the write lock from its first read. Balance checks rely on this.
const dsnOptions = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"

// queryable is satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes in-process writers and keeps
	// :memory: databases alive for the lifetime of the pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTransaction{tx: tx}, nil
}

// inTx runs a multi-statement write atomically for callers that did not open
// their own transaction.
func (s *SQLiteStorage) inTx(ctx context.Context, fn func(q queryable) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction.
type sqliteTransaction struct {
	tx *sql.Tx
}

func (t *sqliteTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

// Storage methods. Reads go straight to the pool; writes that touch more than
// one row run inside their own transaction.

func (s *SQLiteStorage) FindCategoryByTitle(ctx context.Context, title string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return findCategoryByTitle(ctx, s.db, title)
}

func (s *SQLiteStorage) FindCategoriesByTitles(ctx context.Context, titles []string) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return findCategoriesByTitles(ctx, s.db, titles)
}

func (s *SQLiteStorage) EnsureCategory(ctx context.Context, category *model.Category) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return ensureCategory(ctx, s.db, category)
}

func (s *SQLiteStorage) CreateCategories(ctx context.Context, categories []model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(q queryable) error {
		return createCategories(ctx, q, categories)
	})
}

func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getCategories(ctx, s.db)
}

func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getTransactionByID(ctx, s.db, id)
}

func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveTransaction(ctx, s.db, txn)
}

func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(q queryable) error {
		return saveTransactions(ctx, q, transactions)
	})
}

func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return deleteTransaction(ctx, s.db, id)
}

func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getTransactions(ctx, s.db, filter)
}

func (s *SQLiteStorage) GetTransactionCount(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return getTransactionCount(ctx, s.db)
}

func (s *SQLiteStorage) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}
	return getBalance(ctx, s.db)
}

func (s *SQLiteStorage) AdjustBalance(ctx context.Context, delta decimal.Decimal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(q queryable) error {
		return adjustBalance(ctx, q, delta)
	})
}

func (s *SQLiteStorage) SumTransactions(ctx context.Context) (model.Balance, error) {
	if err := validateContext(ctx); err != nil {
		return model.Balance{}, err
	}
	return sumTransactions(ctx, s.db)
}

func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return deleteCategory(ctx, s.db, id)
}

// Transaction methods run every statement on the wrapped sql.Tx.

func (t *sqliteTransaction) FindCategoryByTitle(ctx context.Context, title string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return findCategoryByTitle(ctx, t.tx, title)
}

func (t *sqliteTransaction) FindCategoriesByTitles(ctx context.Context, titles []string) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return findCategoriesByTitles(ctx, t.tx, titles)
}

func (t *sqliteTransaction) EnsureCategory(ctx context.Context, category *model.Category) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return ensureCategory(ctx, t.tx, category)
}

func (t *sqliteTransaction) CreateCategories(ctx context.Context, categories []model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return createCategories(ctx, t.tx, categories)
}

func (t *sqliteTransaction) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getCategories(ctx, t.tx)
}

func (t *sqliteTransaction) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getTransactionByID(ctx, t.tx, id)
}

func (t *sqliteTransaction) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveTransaction(ctx, t.tx, txn)
}

func (t *sqliteTransaction) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveTransactions(ctx, t.tx, transactions)
}

func (t *sqliteTransaction) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return deleteTransaction(ctx, t.tx, id)
}

func (t *sqliteTransaction) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getTransactions(ctx, t.tx, filter)
}

func (t *sqliteTransaction) GetTransactionCount(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return getTransactionCount(ctx, t.tx)
}

func (t *sqliteTransaction) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}
	return getBalance(ctx, t.tx)
}

func (t *sqliteTransaction) AdjustBalance(ctx context.Context, delta decimal.Decimal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return adjustBalance(ctx, t.tx, delta)
}

func (t *sqliteTransaction) SumTransactions(ctx context.Context) (model.Balance, error) {
	if err := validateContext(ctx); err != nil {
		return model.Balance{}, err
	}
	return sumTransactions(ctx, t.tx)
}
