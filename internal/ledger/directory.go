package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// Directory maps category titles to their canonical category. Titles are
// compared exactly, so "Work" and "work" are different categories.
type Directory struct {
	newID func() string
	now   func() time.Time
}

// NewDirectory creates a Directory that mints ids and timestamps with the
// given functions.
func NewDirectory(newID func() string, now func() time.Time) *Directory {
	return &Directory{newID: newID, now: now}
}

// Resolve returns the id of the category titled title, creating it when it
// does not exist yet. Run it inside the caller's transaction so the category
// and whatever references it commit together.
func (d *Directory) Resolve(ctx context.Context, q service.Queries, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", common.NewValidationError("category", "must not be empty")
	}

	now := d.now()
	cat, err := q.EnsureCategory(ctx, &model.Category{
		ID:        d.newID(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return "", common.Persistence("resolve category", err)
	}
	return cat.ID, nil
}

// Reconciliation is the outcome of resolving a batch of titles at once.
type Reconciliation struct {
	IDs     map[string]string
	Created []model.Category
}

// Reconcile resolves every title with one lookup and at most one batch insert.
// Duplicate and empty titles are ignored.
func (d *Directory) Reconcile(ctx context.Context, q service.Queries, titles []string) (*Reconciliation, error) {
	distinct := make([]string, 0, len(titles))
	seen := make(map[string]struct{}, len(titles))
	for _, title := range titles {
		if title == "" {
			continue
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		distinct = append(distinct, title)
	}

	result := &Reconciliation{IDs: make(map[string]string, len(distinct))}
	if len(distinct) == 0 {
		return result, nil
	}

	existing, err := q.FindCategoriesByTitles(ctx, distinct)
	if err != nil {
		return nil, common.Persistence("find categories", err)
	}
	for _, cat := range existing {
		result.IDs[cat.Title] = cat.ID
	}

	now := d.now()
	for _, title := range distinct {
		if _, ok := result.IDs[title]; ok {
			continue
		}
		result.Created = append(result.Created, model.Category{
			ID:        d.newID(),
			Title:     title,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if len(result.Created) > 0 {
		if err := q.CreateCategories(ctx, result.Created); err != nil {
			return nil, common.Persistence(fmt.Sprintf("create %d categories", len(result.Created)), err)
		}
		for _, cat := range result.Created {
			result.IDs[cat.Title] = cat.ID
		}
	}

	return result, nil
}

// ResolveCategory resolves title in its own transaction.
func (l *Ledger) ResolveCategory(ctx context.Context, title string) (string, error) {
	var id string
	err := service.WithTx(ctx, l.store, func(tx service.Transaction) error {
		var err error
		id, err = l.directory.Resolve(ctx, tx, title)
		return err
	})
	if err != nil {
		return "", common.Persistence("resolve category", err)
	}
	return id, nil
}
