package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/events"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// AdmitRequest describes a transaction to admit.
type AdmitRequest struct {
	Value    decimal.Decimal
	Title    string
	Type     string
	Category string
}

// ParseAdmitRequest builds an AdmitRequest from raw text fields, reporting a
// malformed value as a validation error.
func ParseAdmitRequest(title, typ, value, category string) (AdmitRequest, error) {
	v, err := model.ParseValue(value)
	if err != nil {
		return AdmitRequest{}, common.NewValidationError("value", err.Error())
	}
	return AdmitRequest{Title: title, Type: typ, Value: v, Category: category}, nil
}

type admission struct {
	value    decimal.Decimal
	title    string
	category string
	typ      model.TransactionType
}

func (r AdmitRequest) validate() (admission, error) {
	a := admission{
		title:    strings.TrimSpace(r.Title),
		category: strings.TrimSpace(r.Category),
		value:    r.Value,
	}

	if a.title == "" {
		return a, common.NewValidationError("title", "must not be empty")
	}
	typ, err := model.ParseTransactionType(r.Type)
	if err != nil {
		return a, common.NewValidationError("type", "must be income or outcome")
	}
	a.typ = typ
	if err := model.CheckValue(a.value); err != nil {
		return a, common.NewValidationError("value", err.Error())
	}
	if a.category == "" {
		return a, common.NewValidationError("category", "must not be empty")
	}

	return a, nil
}

// Admit validates and commits a single transaction. An outcome larger than
// the current balance is rejected with ErrInsufficientBalance and nothing is
// written. The returned transaction is durable and already counted in
// CurrentBalance.
func (l *Ledger) Admit(ctx context.Context, req AdmitRequest) (*model.Transaction, error) {
	a, err := req.validate()
	if err != nil {
		return nil, err
	}

	var (
		txn     *model.Transaction
		balance decimal.Decimal
	)

	err = service.WithTx(ctx, l.store, func(tx service.Transaction) error {
		current, err := tx.GetBalance(ctx)
		if err != nil {
			return common.Persistence("read balance", err)
		}

		if a.typ == model.TypeOutcome && a.value.GreaterThan(current) {
			return fmt.Errorf("%w: outcome of %s exceeds balance of %s",
				common.ErrInsufficientBalance, a.value, current)
		}

		categoryID, err := l.directory.Resolve(ctx, tx, a.category)
		if err != nil {
			return err
		}

		now := l.now()
		txn = &model.Transaction{
			ID:            l.newID(),
			Title:         a.title,
			Type:          a.typ,
			Value:         a.value,
			CategoryID:    &categoryID,
			CategoryTitle: a.category,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := tx.SaveTransaction(ctx, txn); err != nil {
			return common.Persistence("save transaction", err)
		}
		if err := tx.AdjustBalance(ctx, txn.Signed()); err != nil {
			return common.Persistence("adjust balance", err)
		}

		balance = current.Add(txn.Signed())
		return nil
	})
	if err != nil {
		return nil, common.Persistence("admit transaction", err)
	}

	slog.InfoContext(ctx, "transaction admitted",
		"transaction_id", txn.ID,
		"type", txn.Type,
		"value", txn.Value.String(),
		"category", a.category,
		"balance", balance.String())

	l.publish(ctx, events.NewAdmittedMessage(txn, balance.String()))
	return txn, nil
}
