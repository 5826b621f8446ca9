package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// ErrInjected is the default error returned by FailingStorage.
var ErrInjected = errors.New("injected storage failure")

// Operation names understood by FailingStorage.
const (
	OpBeginTx           = "BeginTx"
	OpCommit            = "Commit"
	OpSaveTransaction   = "SaveTransaction"
	OpSaveTransactions  = "SaveTransactions"
	OpCreateCategories  = "CreateCategories"
	OpEnsureCategory    = "EnsureCategory"
	OpAdjustBalance     = "AdjustBalance"
	OpDeleteTransaction = "DeleteTransaction"
)

// FailingStorage decorates a Storage and fails chosen operations, both on the
// storage and inside transactions it begins. Everything else passes through.
type FailingStorage struct {
	service.Storage
	failures map[string]error
	mu       sync.Mutex
}

// NewFailingStorage wraps inner with no failures configured.
func NewFailingStorage(inner service.Storage) *FailingStorage {
	return &FailingStorage{
		Storage:  inner,
		failures: make(map[string]error),
	}
}

// FailOn makes op return err, or ErrInjected when err is nil.
func (f *FailingStorage) FailOn(op string, err error) *FailingStorage {
	if err == nil {
		err = ErrInjected
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = err
	return f
}

// Reset clears every configured failure.
func (f *FailingStorage) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = make(map[string]error)
}

func (f *FailingStorage) failure(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures[op]
}

// BeginTx begins a transaction on the wrapped storage and decorates it.
func (f *FailingStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := f.failure(OpBeginTx); err != nil {
		return nil, err
	}
	tx, err := f.Storage.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &failingTx{Transaction: tx, storage: f}, nil
}

func (f *FailingStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := f.failure(OpSaveTransaction); err != nil {
		return err
	}
	return f.Storage.SaveTransaction(ctx, txn)
}

func (f *FailingStorage) AdjustBalance(ctx context.Context, delta decimal.Decimal) error {
	if err := f.failure(OpAdjustBalance); err != nil {
		return err
	}
	return f.Storage.AdjustBalance(ctx, delta)
}

type failingTx struct {
	service.Transaction
	storage *FailingStorage
}

func (t *failingTx) Commit() error {
	if err := t.storage.failure(OpCommit); err != nil {
		_ = t.Transaction.Rollback()
		return err
	}
	return t.Transaction.Commit()
}

func (t *failingTx) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := t.storage.failure(OpSaveTransaction); err != nil {
		return err
	}
	return t.Transaction.SaveTransaction(ctx, txn)
}

func (t *failingTx) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := t.storage.failure(OpSaveTransactions); err != nil {
		return err
	}
	return t.Transaction.SaveTransactions(ctx, transactions)
}

func (t *failingTx) CreateCategories(ctx context.Context, categories []model.Category) error {
	if err := t.storage.failure(OpCreateCategories); err != nil {
		return err
	}
	return t.Transaction.CreateCategories(ctx, categories)
}

func (t *failingTx) EnsureCategory(ctx context.Context, category *model.Category) (*model.Category, error) {
	if err := t.storage.failure(OpEnsureCategory); err != nil {
		return nil, err
	}
	return t.Transaction.EnsureCategory(ctx, category)
}

func (t *failingTx) AdjustBalance(ctx context.Context, delta decimal.Decimal) error {
	if err := t.storage.failure(OpAdjustBalance); err != nil {
		return err
	}
	return t.Transaction.AdjustBalance(ctx, delta)
}

func (t *failingTx) DeleteTransaction(ctx context.Context, id string) error {
	if err := t.storage.failure(OpDeleteTransaction); err != nil {
		return err
	}
	return t.Transaction.DeleteTransaction(ctx, id)
}
