package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/events"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/Veraticus/spice-ledger/internal/source"
)

// BalanceCheck selects how an import is held to the no-overdraft rule.
type BalanceCheck string

const (
	// BalanceCheckNone imports regardless of the resulting balance.
	BalanceCheckNone BalanceCheck = "none"
	// BalanceCheckNet requires the balance after the whole batch to be non-negative.
	BalanceCheckNet BalanceCheck = "net"
	// BalanceCheckRunning requires every outcome, in source order, to fit the
	// balance accumulated up to that row.
	BalanceCheckRunning BalanceCheck = "running"
)

// ParseBalanceCheck converts a configuration value to a BalanceCheck.
// The empty string means BalanceCheckNone.
func ParseBalanceCheck(s string) (BalanceCheck, error) {
	switch c := BalanceCheck(s); c {
	case "":
		return BalanceCheckNone, nil
	case BalanceCheckNone, BalanceCheckNet, BalanceCheckRunning:
		return c, nil
	default:
		return "", fmt.Errorf("%w: balance check %q (want none, net or running)", common.ErrInvalidConfig, s)
	}
}

// ImportOptions tunes a bulk import.
type ImportOptions struct {
	BalanceCheck BalanceCheck
	// Strict fails the import on the first malformed row instead of skipping it.
	Strict bool
	// KeepSource leaves a discardable source in place after a successful import.
	KeepSource bool
}

// SkippedRecord is a source row left out of the import.
type SkippedRecord struct {
	Reason string
	Line   int
}

// ImportResult describes a committed import.
type ImportResult struct {
	Balance       decimal.Decimal
	Transactions  []model.Transaction
	Skipped       []SkippedRecord
	NewCategories []model.Category
}

type candidate struct {
	value    decimal.Decimal
	title    string
	category string
	typ      model.TransactionType
	line     int
}

// Import reads every record from src and commits the resulting transactions
// in one storage transaction together with any categories they introduce.
// Either all candidates are committed or none are. Reading the source happens
// before the storage transaction opens.
func (l *Ledger) Import(ctx context.Context, src source.Source, opts ImportOptions) (*ImportResult, error) {
	if src == nil {
		return nil, common.NewValidationError("source", "must not be nil")
	}
	check, err := ParseBalanceCheck(string(opts.BalanceCheck))
	if err != nil {
		return nil, common.NewValidationError("balance_check", err.Error())
	}

	candidates, skipped, err := l.collect(ctx, src, opts.Strict)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Skipped: skipped}

	if len(candidates) > 0 {
		if err := l.commitImport(ctx, candidates, check, result); err != nil {
			return nil, common.Persistence("import transactions", err)
		}
	} else {
		balance, err := l.CurrentBalance(ctx)
		if err != nil {
			return nil, err
		}
		result.Balance = balance
	}

	if d, ok := src.(source.Discarder); ok && !opts.KeepSource {
		if err := d.Discard(); err != nil {
			slog.WarnContext(ctx, "failed to discard import source", "error", err)
		}
	}

	slog.InfoContext(ctx, "import committed",
		"imported", len(result.Transactions),
		"skipped", len(result.Skipped),
		"new_categories", len(result.NewCategories),
		"balance", result.Balance.String())

	if len(result.Transactions) > 0 {
		l.publish(ctx, events.NewImportedMessage(result.Transactions, len(result.NewCategories), result.Balance.String()))
	}
	return result, nil
}

// collect drains src into candidates. Rows missing a title, type or value, or
// carrying one that does not parse, are skipped unless strict is set.
func (l *Ledger) collect(ctx context.Context, src source.Source, strict bool) ([]candidate, []SkippedRecord, error) {
	var (
		candidates []candidate
		skipped    []SkippedRecord
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read import source: %w", err)
		}

		c, reason := parseRecord(rec)
		if reason == "" {
			candidates = append(candidates, c)
			continue
		}

		if strict {
			return nil, nil, common.NewValidationError(fmt.Sprintf("line %d", rec.Line), reason)
		}
		slog.WarnContext(ctx, "skipping import record", "line", rec.Line, "reason", reason)
		skipped = append(skipped, SkippedRecord{Line: rec.Line, Reason: reason})
	}

	return candidates, skipped, nil
}

// parseRecord returns a non-empty reason when rec cannot become a transaction.
func parseRecord(rec source.Record) (candidate, string) {
	c := candidate{title: rec.Title, category: rec.Category, line: rec.Line}

	switch {
	case rec.Title == "":
		return c, "missing title"
	case rec.Type == "":
		return c, "missing type"
	case rec.Value == "":
		return c, "missing value"
	}

	typ, err := model.ParseTransactionType(rec.Type)
	if err != nil {
		return c, err.Error()
	}
	value, err := model.ParseValue(rec.Value)
	if err != nil {
		return c, err.Error()
	}

	c.typ = typ
	c.value = value
	return c, ""
}

func (l *Ledger) commitImport(ctx context.Context, candidates []candidate, check BalanceCheck, result *ImportResult) error {
	titles := make([]string, len(candidates))
	for i, c := range candidates {
		titles[i] = c.category
	}

	return service.WithTx(ctx, l.store, func(tx service.Transaction) error {
		current, err := tx.GetBalance(ctx)
		if err != nil {
			return common.Persistence("read balance", err)
		}

		rec, err := l.directory.Reconcile(ctx, tx, titles)
		if err != nil {
			return err
		}

		txns, err := l.buildTransactions(candidates, rec.IDs)
		if err != nil {
			return err
		}

		next, err := checkImportBalance(current, candidates, txns, check)
		if err != nil {
			return err
		}

		if err := tx.SaveTransactions(ctx, txns); err != nil {
			return common.Persistence("save transactions", err)
		}
		if err := tx.AdjustBalance(ctx, next.Sub(current)); err != nil {
			return common.Persistence("adjust balance", err)
		}

		result.Transactions = txns
		result.NewCategories = rec.Created
		result.Balance = next
		return nil
	})
}

// buildTransactions links every candidate to its reconciled category id.
// Candidates without a category stay unlinked.
func (l *Ledger) buildTransactions(candidates []candidate, categoryIDs map[string]string) ([]model.Transaction, error) {
	now := l.now()
	txns := make([]model.Transaction, len(candidates))

	for i, c := range candidates {
		txns[i] = model.Transaction{
			ID:            l.newID(),
			Title:         c.title,
			Type:          c.typ,
			Value:         c.value,
			CategoryTitle: c.category,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if c.category == "" {
			continue
		}

		id, ok := categoryIDs[c.category]
		if !ok {
			return nil, fmt.Errorf("%w: %q on line %d", common.ErrUnresolvedCategory, c.category, c.line)
		}
		txns[i].CategoryID = &id
	}

	return txns, nil
}

// checkImportBalance applies check to the batch and returns the balance the
// batch would leave behind.
func checkImportBalance(current decimal.Decimal, candidates []candidate, txns []model.Transaction, check BalanceCheck) (decimal.Decimal, error) {
	running := current
	for i := range txns {
		if check == BalanceCheckRunning && txns[i].Type == model.TypeOutcome && txns[i].Value.GreaterThan(running) {
			return decimal.Zero, fmt.Errorf("%w: outcome of %s on line %d exceeds balance of %s",
				common.ErrInsufficientBalance, txns[i].Value, candidates[i].line, running)
		}
		running = running.Add(txns[i].Signed())
	}

	if check == BalanceCheckNet && running.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: import would leave a balance of %s", common.ErrInsufficientBalance, running)
	}
	return running, nil
}
