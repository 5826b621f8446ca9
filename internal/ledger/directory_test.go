package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/Veraticus/spice-ledger/internal/testutil"
)

func TestResolveCategory(t *testing.T) {
	db := testutil.SetupTestDB(t, "Work")
	l, _ := newTestLedger(t, db.Storage)
	ctx := context.Background()

	id, err := l.ResolveCategory(ctx, "Work")
	require.NoError(t, err)
	assert.Equal(t, db.MustGetCategory("Work").ID, id)

	again, err := l.ResolveCategory(ctx, "Work")
	require.NoError(t, err)
	assert.Equal(t, id, again)

	other, err := l.ResolveCategory(ctx, "work")
	require.NoError(t, err)
	assert.NotEqual(t, id, other)

	_, err = l.ResolveCategory(ctx, "")
	assert.ErrorIs(t, err, common.ErrValidation)

	assert.Equal(t, 2, db.CategoryCount())
}

func TestResolveUsesInjectedIDsAndClock(t *testing.T) {
	db := testutil.SetupTestDB(t, "Work")
	l, _ := newTestLedger(t, db.Storage, WithIDGenerator(sequentialIDs("cat")))
	ctx := context.Background()

	id, err := l.ResolveCategory(ctx, "Travel")
	require.NoError(t, err)
	assert.Equal(t, "cat-1", id)

	cats, err := db.Storage.GetCategories(ctx)
	require.NoError(t, err)
	var travel *model.Category
	for i := range cats {
		if cats[i].Title == "Travel" {
			travel = &cats[i]
		}
	}
	require.NotNil(t, travel)
	assert.True(t, fixedNow.Equal(travel.CreatedAt), "created at %s", travel.CreatedAt)

	existing, err := l.ResolveCategory(ctx, "Work")
	require.NoError(t, err)
	assert.Equal(t, db.MustGetCategory("Work").ID, existing)
}

func TestResolveCategoryConcurrently(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l, _ := newTestLedger(t, db.Storage)

	const workers = 16
	ids := make([]string, workers)
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			var err error
			ids[i], err = l.ResolveCategory(context.Background(), "Travel")
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 1, db.CategoryCount())
}

func TestReconcile(t *testing.T) {
	db := testutil.SetupTestDB(t, "Work")
	l, _ := newTestLedger(t, db.Storage, WithIDGenerator(sequentialIDs("cat")))
	ctx := context.Background()

	err := db.WithTransaction(func(tx service.Transaction) error {
		rec, err := l.Directory().Reconcile(ctx, tx, []string{"Housing", "Work", "", "Housing", "Food"})
		require.NoError(t, err)

		assert.Len(t, rec.IDs, 3)
		assert.Equal(t, db.MustGetCategory("Work").ID, rec.IDs["Work"])
		require.Len(t, rec.Created, 2)
		assert.Equal(t, "Housing", rec.Created[0].Title)
		assert.Equal(t, "cat-1", rec.Created[0].ID)
		assert.Equal(t, "Food", rec.Created[1].Title)
		return nil
	})
	require.NoError(t, err)

	// WithTransaction rolls back.
	assert.Equal(t, 1, db.CategoryCount())

	err = db.WithTransaction(func(tx service.Transaction) error {
		rec, err := l.Directory().Reconcile(ctx, tx, nil)
		require.NoError(t, err)
		assert.Empty(t, rec.IDs)
		assert.Empty(t, rec.Created)
		return nil
	})
	require.NoError(t, err)
}
