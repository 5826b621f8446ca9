package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/events"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/testutil"
)

func TestAdmitIncomeIntoEmptyLedger(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l, recorder := newTestLedger(t, db.Storage, WithIDGenerator(sequentialIDs("txn")))

	txn, err := l.Admit(context.Background(), AdmitRequest{
		Title:    "Salary",
		Type:     "income",
		Value:    dec("1000"),
		Category: "Work",
	})
	require.NoError(t, err)

	// The category is minted first, inside the same transaction.
	assert.Equal(t, "txn-2", txn.ID)
	assert.Equal(t, model.TypeIncome, txn.Type)
	assert.Equal(t, fixedNow, txn.CreatedAt)
	require.NotNil(t, txn.CategoryID)
	assert.Equal(t, "txn-1", *txn.CategoryID)

	assert.Equal(t, "1000", db.Balance().String())
	assert.Equal(t, 1, db.CategoryCount())

	stored, err := db.Storage.GetTransactionByID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "Work", stored.CategoryTitle)

	assert.Equal(t, []string{events.TransactionAdmitted}, recorder.Kinds())
	assert.Equal(t, "1000", recorder.Messages()[0].Balance)
}

func TestAdmitRejectsOverdraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l, recorder := newTestLedger(t, db.Storage)
	mustAdmit(t, l, "Salary", "income", "500", "Work")

	_, err := l.Admit(context.Background(), AdmitRequest{
		Title:    "Laptop",
		Type:     "outcome",
		Value:    dec("600"),
		Category: "Electronics",
	})
	require.ErrorIs(t, err, common.ErrInsufficientBalance)
	assert.NotErrorIs(t, err, common.ErrPersistence)

	assert.Equal(t, "500", db.Balance().String())
	assert.Equal(t, 1, db.TransactionCount())
	assert.Equal(t, 1, db.CategoryCount(), "rejected admission must not create its category")
	assert.Len(t, recorder.Messages(), 1)
}

func TestAdmitOutcomeEqualToBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l, _ := newTestLedger(t, db.Storage)
	mustAdmit(t, l, "Salary", "income", "100.10", "Work")
	mustAdmit(t, l, "Rent", "outcome", "100.10", "Housing")

	assert.True(t, db.Balance().IsZero())

	_, err := l.Admit(context.Background(), AdmitRequest{Title: "Coffee", Type: "outcome", Value: dec("0.01"), Category: "Food"})
	assert.ErrorIs(t, err, common.ErrInsufficientBalance)

	// A zero outcome always fits.
	mustAdmit(t, l, "Refund fee", "outcome", "0", "Fees")
}

func TestAdmitValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l, _ := newTestLedger(t, db.Storage)

	tests := []struct {
		req   AdmitRequest
		name  string
		field string
	}{
		{name: "empty title", field: "title", req: AdmitRequest{Title: "  ", Type: "income", Value: dec("1"), Category: "Work"}},
		{name: "unknown type", field: "type", req: AdmitRequest{Title: "Salary", Type: "transfer", Value: dec("1"), Category: "Work"}},
		{name: "case sensitive type", field: "type", req: AdmitRequest{Title: "Salary", Type: "Income", Value: dec("1"), Category: "Work"}},
		{name: "negative value", field: "value", req: AdmitRequest{Title: "Salary", Type: "income", Value: dec("-1"), Category: "Work"}},
		{name: "empty category", field: "category", req: AdmitRequest{Title: "Salary", Type: "income", Value: dec("1"), Category: ""}},
		{name: "huge exponent", field: "value", req: AdmitRequest{Title: "Salary", Type: "income", Value: decimal.New(1, 2000000000), Category: "Work"}},
		{name: "too many decimals", field: "value", req: AdmitRequest{Title: "Salary", Type: "income", Value: decimal.New(1, -12), Category: "Work"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Admit(context.Background(), tt.req)
			require.ErrorIs(t, err, common.ErrValidation)

			var verr *common.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	assert.Zero(t, db.TransactionCount())
	assert.Zero(t, db.CategoryCount())
}

func TestParseAdmitRequest(t *testing.T) {
	req, err := ParseAdmitRequest("Salary", "income", "1000,50", "Work")
	require.NoError(t, err)
	assert.Equal(t, "1000.5", req.Value.String())

	_, err = ParseAdmitRequest("Salary", "income", "lots", "Work")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = ParseAdmitRequest("Salary", "income", "1e2000000000", "Work")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = ParseAdmitRequest("Salary", "income", "1,000", "Work")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestAdmitPersistenceFailureLeavesNoTrace(t *testing.T) {
	for _, op := range []string{testutil.OpBeginTx, testutil.OpEnsureCategory, testutil.OpSaveTransaction, testutil.OpAdjustBalance, testutil.OpCommit} {
		t.Run(op, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			failing := testutil.NewFailingStorage(db.Storage)
			l, recorder := newTestLedger(t, failing)
			mustAdmit(t, l, "Salary", "income", "100", "Work")

			failing.FailOn(op, nil)
			_, err := l.Admit(context.Background(), AdmitRequest{Title: "Bonus", Type: "income", Value: dec("50"), Category: "Extra"})
			require.ErrorIs(t, err, common.ErrPersistence)
			assert.ErrorIs(t, err, testutil.ErrInjected)

			assert.Equal(t, "100", db.Balance().String())
			assert.Equal(t, 1, db.TransactionCount())
			assert.Equal(t, 1, db.CategoryCount())
			assert.Len(t, recorder.Messages(), 1)
		})
	}
}

func TestConcurrentOutcomesNeverOverdraw(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l, _ := newTestLedger(t, db.Storage)
	mustAdmit(t, l, "Salary", "income", "100", "Work")

	const workers = 25
	var g errgroup.Group
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			_, results[i] = l.Admit(context.Background(), AdmitRequest{
				Title:    "Coffee",
				Type:     "outcome",
				Value:    dec("10"),
				Category: "Food",
			})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var admitted, rejected int
	for _, err := range results {
		switch {
		case err == nil:
			admitted++
		case assert.ErrorIs(t, err, common.ErrInsufficientBalance):
			rejected++
		}
	}

	assert.Equal(t, 10, admitted)
	assert.Equal(t, workers-10, rejected)
	assert.True(t, db.Balance().IsZero())

	_, err := l.VerifyBalance(context.Background())
	assert.NoError(t, err)
}

func TestConcurrentAdmissionsShareCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l, _ := newTestLedger(t, db.Storage)

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, err := l.Admit(context.Background(), AdmitRequest{
				Title:    "Shift",
				Type:     "income",
				Value:    dec("1.5"),
				Category: "Work",
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, db.CategoryCount())
	assert.Equal(t, "30", db.Balance().String())
}
