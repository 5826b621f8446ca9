package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

const transactionColumns = `
	t.id, t.title, t.type, t.value, t.category_id, COALESCE(c.title, ''),
	t.created_at, t.updated_at`

const insertTransactionSQL = `
	INSERT INTO transactions (id, title, type, value, category_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

func saveTransaction(ctx context.Context, q queryable, txn *model.Transaction) error {
	if err := validateTransaction(txn); err != nil {
		return err
	}
	if txn.UpdatedAt.IsZero() {
		txn.UpdatedAt = txn.CreatedAt
	}

	_, err := q.ExecContext(ctx, insertTransactionSQL,
		txn.ID, txn.Title, string(txn.Type), txn.Value, nullableString(txn.CategoryID),
		txn.CreatedAt, txn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

func saveTransactions(ctx context.Context, q queryable, transactions []model.Transaction) error {
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	for i := range transactions {
		if err := saveTransaction(ctx, q, &transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}

	slog.Debug("saved transactions", "count", len(transactions))
	return nil
}

func getTransactionByID(ctx context.Context, q queryable, id string) (*model.Transaction, error) {
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, `
		SELECT`+transactionColumns+`
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.id = ?`, id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return txn, nil
}

func deleteTransaction(ctx context.Context, q queryable, id string) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}

	return nil
}

func getTransactions(ctx context.Context, q queryable, filter service.TransactionFilter) ([]model.Transaction, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.CategoryID != "" {
		conditions = append(conditions, "t.category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.Type != "" {
		conditions = append(conditions, "t.type = ?")
		args = append(args, string(filter.Type))
	}

	query := `
		SELECT` + transactionColumns + `
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.created_at DESC, t.rowid DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

func getTransactionCount(ctx context.Context, q queryable) (int, error) {
	var count int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (*model.Transaction, error) {
	var (
		txn        model.Transaction
		txnType    string
		categoryID sql.NullString
	)

	err := s.Scan(
		&txn.ID, &txn.Title, &txnType, &txn.Value, &categoryID, &txn.CategoryTitle,
		&txn.CreatedAt, &txn.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	txn.Type = model.TransactionType(txnType)
	if categoryID.Valid {
		txn.CategoryID = &categoryID.String
	}

	return &txn, nil
}

func sumTransactions(ctx context.Context, q queryable) (model.Balance, error) {
	balance := model.Balance{Income: decimal.Zero, Outcome: decimal.Zero, Total: decimal.Zero}

	rows, err := q.QueryContext(ctx, `SELECT type, value FROM transactions`)
	if err != nil {
		return balance, fmt.Errorf("failed to query transaction values: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var txn model.Transaction
		var txnType string
		if err := rows.Scan(&txnType, &txn.Value); err != nil {
			return balance, fmt.Errorf("failed to scan transaction value: %w", err)
		}
		txn.Type = model.TransactionType(txnType)
		balance.Add(&txn)
	}

	if err := rows.Err(); err != nil {
		return balance, fmt.Errorf("error iterating transaction values: %w", err)
	}

	return balance, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
