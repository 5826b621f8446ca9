package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// CurrentBalance returns total income minus total outcome over every
// committed transaction.
func (l *Ledger) CurrentBalance(ctx context.Context) (decimal.Decimal, error) {
	balance, err := l.store.GetBalance(ctx)
	if err != nil {
		return decimal.Zero, common.Persistence("read balance", err)
	}
	return balance, nil
}

// Summary returns the income and outcome totals behind the balance.
func (l *Ledger) Summary(ctx context.Context) (model.Balance, error) {
	sum, err := l.store.SumTransactions(ctx)
	if err != nil {
		return model.Balance{}, common.Persistence("sum transactions", err)
	}
	return sum, nil
}

// VerifyBalance recomputes the balance from the transactions and compares it
// with the stored running total. A mismatch returns ErrBalanceDrift along
// with the recomputed breakdown.
func (l *Ledger) VerifyBalance(ctx context.Context) (model.Balance, error) {
	var (
		sum    model.Balance
		stored decimal.Decimal
	)

	err := service.WithTx(ctx, l.store, func(tx service.Transaction) error {
		var err error
		if sum, err = tx.SumTransactions(ctx); err != nil {
			return err
		}
		stored, err = tx.GetBalance(ctx)
		return err
	})
	if err != nil {
		return model.Balance{}, common.Persistence("verify balance", err)
	}

	if !stored.Equal(sum.Total) {
		return sum, fmt.Errorf("%w: stored %s, transactions sum to %s", common.ErrBalanceDrift, stored, sum.Total)
	}
	return sum, nil
}

// RecomputeBalance rewrites the stored running total from the transactions
// and returns the corrected value.
func (l *Ledger) RecomputeBalance(ctx context.Context) (decimal.Decimal, error) {
	var (
		total decimal.Decimal
		drift decimal.Decimal
	)

	err := service.WithTx(ctx, l.store, func(tx service.Transaction) error {
		sum, err := tx.SumTransactions(ctx)
		if err != nil {
			return err
		}
		stored, err := tx.GetBalance(ctx)
		if err != nil {
			return err
		}

		total = sum.Total
		drift = total.Sub(stored)
		return tx.AdjustBalance(ctx, drift)
	})
	if err != nil {
		return decimal.Zero, common.Persistence("recompute balance", err)
	}

	if !drift.IsZero() {
		slog.WarnContext(ctx, "corrected balance drift",
			"drift", drift.String(),
			"balance", total.String())
	}
	return total, nil
}
