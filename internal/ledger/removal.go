package ledger

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/events"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// Remove deletes the transaction with the given id and takes its
// contribution out of the balance. An unknown id returns ErrNotFound.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return common.NewValidationError("id", "must not be empty")
	}

	var balance decimal.Decimal
	err := service.WithTx(ctx, l.store, func(tx service.Transaction) error {
		txn, err := tx.GetTransactionByID(ctx, id)
		if err != nil {
			return common.Persistence("find transaction", err)
		}

		if err := tx.DeleteTransaction(ctx, id); err != nil {
			return common.Persistence("delete transaction", err)
		}
		if err := tx.AdjustBalance(ctx, txn.Signed().Neg()); err != nil {
			return common.Persistence("adjust balance", err)
		}

		balance, err = tx.GetBalance(ctx)
		if err != nil {
			return common.Persistence("read balance", err)
		}
		return nil
	})
	if err != nil {
		return common.Persistence("remove transaction", err)
	}

	slog.InfoContext(ctx, "transaction removed",
		"transaction_id", id,
		"balance", balance.String())

	l.publish(ctx, events.NewRemovedMessage(id, balance.String()))
	return nil
}
