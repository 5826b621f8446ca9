package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// titleLookupChunk keeps IN (...) lists well under SQLite's variable limit.
const titleLookupChunk = 500

func findCategoryByTitle(ctx context.Context, q queryable, title string) (*model.Category, error) {
	if err := validateString(title, "title"); err != nil {
		return nil, err
	}

	var cat model.Category
	err := q.QueryRowContext(ctx, `
		SELECT id, title, created_at, updated_at
		FROM categories
		WHERE title = ?`, title,
	).Scan(&cat.ID, &cat.Title, &cat.CreatedAt, &cat.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Category not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	return &cat, nil
}

func findCategoriesByTitles(ctx context.Context, q queryable, titles []string) ([]model.Category, error) {
	var categories []model.Category

	for start := 0; start < len(titles); start += titleLookupChunk {
		end := min(start+titleLookupChunk, len(titles))
		chunk := titles[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		args := make([]any, len(chunk))
		for i, title := range chunk {
			args[i] = title
		}

		// #nosec G201 - placeholders only contains "?" characters
		query := fmt.Sprintf(`
			SELECT id, title, created_at, updated_at
			FROM categories
			WHERE title IN (%s)`, placeholders)

		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query categories: %w", err)
		}

		found, err := scanCategories(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, found...)
	}

	return categories, nil
}

// ensureCategory inserts category unless its title already exists, then
// returns the stored row. The caller sets the ID and title; zero timestamps
// are filled in place. The UNIQUE constraint on title makes this safe to
// repeat, and the returned row carries the existing ID when the title was
// already taken.
func ensureCategory(ctx context.Context, q queryable, category *model.Category) (*model.Category, error) {
	if category == nil {
		return nil, fmt.Errorf("%w: category", ErrNilParameter)
	}
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	if category.UpdatedAt.IsZero() {
		category.UpdatedAt = category.CreatedAt
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO categories (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(title) DO NOTHING`,
		category.ID, category.Title, category.CreatedAt, category.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	cat, err := findCategoryByTitle(ctx, q, category.Title)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, fmt.Errorf("category %q missing after insert", category.Title)
	}
	return cat, nil
}

// createCategories inserts every category in one pass. IDs and titles must be
// set by the caller; zero timestamps are filled in place.
func createCategories(ctx context.Context, q queryable, categories []model.Category) error {
	if len(categories) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for i := range categories {
		cat := &categories[i]
		if err := validateCategory(cat); err != nil {
			return fmt.Errorf("category at index %d: %w", i, err)
		}
		if cat.CreatedAt.IsZero() {
			cat.CreatedAt = now
		}
		if cat.UpdatedAt.IsZero() {
			cat.UpdatedAt = cat.CreatedAt
		}

		_, err := q.ExecContext(ctx, `
			INSERT INTO categories (id, title, created_at, updated_at)
			VALUES (?, ?, ?, ?)`,
			cat.ID, cat.Title, cat.CreatedAt, cat.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create category %q: %w", cat.Title, err)
		}
	}

	slog.Debug("created categories", "count", len(categories))
	return nil
}

func getCategories(ctx context.Context, q queryable) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, title, created_at, updated_at
		FROM categories
		ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}

	categories, err := scanCategories(rows)
	if err != nil {
		return nil, err
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// deleteCategory removes a category. Transactions referencing it are kept and
// lose their category through ON DELETE SET NULL.
func deleteCategory(ctx context.Context, q queryable, id string) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := q.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("category %s: %w", id, common.ErrNotFound)
	}

	return nil
}

func scanCategories(rows *sql.Rows) ([]model.Category, error) {
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.Title, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}
