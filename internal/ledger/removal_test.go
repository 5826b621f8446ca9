package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/events"
	"github.com/Veraticus/spice-ledger/internal/testutil"
)

func TestRemove(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l, recorder := newTestLedger(t, db.Storage)
	ctx := context.Background()

	mustAdmit(t, l, "Salary", "income", "1000", "Work")
	rent, err := l.Admit(ctx, AdmitRequest{Title: "Rent", Type: "outcome", Value: dec("400"), Category: "Housing"})
	require.NoError(t, err)
	assert.Equal(t, "600", db.Balance().String())

	require.NoError(t, l.Remove(ctx, rent.ID))
	assert.Equal(t, "1000", db.Balance().String())
	assert.Equal(t, 1, db.TransactionCount())
	assert.Equal(t, 2, db.CategoryCount(), "removal keeps categories")

	kinds := recorder.Kinds()
	assert.Equal(t, events.TransactionRemoved, kinds[len(kinds)-1])
}

func TestRemoveUnknownID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l, recorder := newTestLedger(t, db.Storage)
	mustAdmit(t, l, "Salary", "income", "1000", "Work")

	err := l.Remove(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.NotErrorIs(t, err, common.ErrPersistence)

	assert.Equal(t, "1000", db.Balance().String())
	assert.Equal(t, 1, db.TransactionCount())
	assert.Len(t, recorder.Messages(), 1)

	assert.ErrorIs(t, l.Remove(context.Background(), " "), common.ErrValidation)
}

func TestRemoveIncomeMayLeaveNegativeBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l, _ := newTestLedger(t, db.Storage)
	ctx := context.Background()

	salary, err := l.Admit(ctx, AdmitRequest{Title: "Salary", Type: "income", Value: dec("100"), Category: "Work"})
	require.NoError(t, err)
	mustAdmit(t, l, "Groceries", "outcome", "80", "Food")

	require.NoError(t, l.Remove(ctx, salary.ID))
	assert.Equal(t, "-80", db.Balance().String())
}

func TestRemovePersistenceFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	failing := testutil.NewFailingStorage(db.Storage)
	l, _ := newTestLedger(t, failing)
	ctx := context.Background()

	txn, err := l.Admit(ctx, AdmitRequest{Title: "Salary", Type: "income", Value: dec("100"), Category: "Work"})
	require.NoError(t, err)

	failing.FailOn(testutil.OpAdjustBalance, nil)
	err = l.Remove(ctx, txn.ID)
	require.ErrorIs(t, err, common.ErrPersistence)

	failing.Reset()
	assert.Equal(t, 1, db.TransactionCount())
	assert.Equal(t, "100", db.Balance().String())
}
