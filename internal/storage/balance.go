package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// The running total lives in a single row so admission can check it without
// scanning every transaction.

func getBalance(ctx context.Context, q queryable) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := q.QueryRowContext(ctx, `SELECT total FROM ledger_balance WHERE id = 1`).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to read balance: %w", err)
	}
	return total, nil
}

func adjustBalance(ctx context.Context, q queryable, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}

	total, err := getBalance(ctx, q)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		UPDATE ledger_balance
		SET total = ?, updated_at = ?
		WHERE id = 1`,
		total.Add(delta), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	return nil
}
