package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

func TestSaveAndGetTransaction(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	work, err := store.EnsureCategory(ctx, newTestCategory("cat-work", "Work"))
	require.NoError(t, err)

	txn := newTestTransaction("txn-1", "Salary", model.TypeIncome, "1000.10", &work.ID)
	require.NoError(t, store.SaveTransaction(ctx, &txn))

	got, err := store.GetTransactionByID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, "Salary", got.Title)
	assert.Equal(t, model.TypeIncome, got.Type)
	assert.True(t, decimal.RequireFromString("1000.10").Equal(got.Value))
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, work.ID, *got.CategoryID)
	assert.Equal(t, "Work", got.CategoryTitle)
	assert.True(t, txn.CreatedAt.Equal(got.CreatedAt))

	_, err = store.GetTransactionByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveTransactionValidation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		mutate func(*model.Transaction)
		name   string
	}{
		{name: "missing id", mutate: func(txn *model.Transaction) { txn.ID = "" }},
		{name: "blank title", mutate: func(txn *model.Transaction) { txn.Title = "  " }},
		{name: "unknown type", mutate: func(txn *model.Transaction) { txn.Type = "transfer" }},
		{name: "negative value", mutate: func(txn *model.Transaction) { txn.Value = decimal.NewFromInt(-1) }},
		{name: "unbounded value", mutate: func(txn *model.Transaction) { txn.Value = decimal.New(1, 2000000000) }},
		{name: "zero time", mutate: func(txn *model.Transaction) { txn.CreatedAt = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := newTestTransaction("txn-1", "Salary", model.TypeIncome, "1", nil)
			tt.mutate(&txn)
			assert.ErrorIs(t, store.SaveTransaction(ctx, &txn), ErrInvalidTransaction)
		})
	}

	assert.ErrorIs(t, store.SaveTransaction(ctx, nil), ErrNilParameter)
}

func TestSaveTransactionsIsAtomic(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	batch := []model.Transaction{
		newTestTransaction("txn-1", "Rent", model.TypeOutcome, "200", nil),
		newTestTransaction("txn-1", "Duplicate", model.TypeIncome, "50", nil),
	}
	require.Error(t, store.SaveTransactions(ctx, batch))

	count, err := store.GetTransactionCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, store.SaveTransactions(ctx, nil))
}

func TestDeleteTransaction(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txn := newTestTransaction("txn-1", "Salary", model.TypeIncome, "1", nil)
	require.NoError(t, store.SaveTransaction(ctx, &txn))

	require.NoError(t, store.DeleteTransaction(ctx, "txn-1"))
	assert.ErrorIs(t, store.DeleteTransaction(ctx, "txn-1"), common.ErrNotFound)
}

func TestGetTransactionsFilter(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	work, err := store.EnsureCategory(ctx, newTestCategory("cat-work", "Work"))
	require.NoError(t, err)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, tc := range []struct {
		category *string
		typ      model.TransactionType
	}{
		{typ: model.TypeIncome, category: &work.ID},
		{typ: model.TypeOutcome},
		{typ: model.TypeIncome},
		{typ: model.TypeOutcome, category: &work.ID},
	} {
		txn := newTestTransaction(decimal.NewFromInt(int64(i)).String(), "T", tc.typ, "1", tc.category)
		txn.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.SaveTransaction(ctx, &txn))
	}

	all, err := store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "3", all[0].ID, "newest first")

	incomes, err := store.GetTransactions(ctx, service.TransactionFilter{Type: model.TypeIncome})
	require.NoError(t, err)
	assert.Len(t, incomes, 2)

	byCategory, err := store.GetTransactions(ctx, service.TransactionFilter{CategoryID: work.ID})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	page, err := store.GetTransactions(ctx, service.TransactionFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "2", page[0].ID)
}

func TestBalanceOperations(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for _, delta := range []string{"0.1", "0.2", "-0.3"} {
		require.NoError(t, store.AdjustBalance(ctx, decimal.RequireFromString(delta)))
	}

	balance, err := store.GetBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.IsZero(), "decimal arithmetic must be exact, got %s", balance)

	income := newTestTransaction("a", "Salary", model.TypeIncome, "1000", nil)
	outcome := newTestTransaction("b", "Rent", model.TypeOutcome, "250.25", nil)
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{income, outcome}))

	sum, err := store.SumTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000", sum.Income.String())
	assert.Equal(t, "250.25", sum.Outcome.String())
	assert.Equal(t, "749.75", sum.Total.String())
}
