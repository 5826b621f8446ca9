package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups transactions under a unique, case-sensitive title.
type Category struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	ID        string
	Title     string
}

// Balance is the income/outcome breakdown of every committed transaction.
type Balance struct {
	Income  decimal.Decimal
	Outcome decimal.Decimal
	Total   decimal.Decimal
}

// Add folds a transaction into the breakdown.
func (b *Balance) Add(txn *Transaction) {
	switch txn.Type {
	case TypeIncome:
		b.Income = b.Income.Add(txn.Value)
	case TypeOutcome:
		b.Outcome = b.Outcome.Add(txn.Value)
	}
	b.Total = b.Income.Sub(b.Outcome)
}
