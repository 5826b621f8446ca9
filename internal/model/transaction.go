// Package model defines the core domain models used throughout the application.
package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType indicates whether money entered or left the ledger.
type TransactionType string

// Transaction type constants.
const (
	TypeIncome  TransactionType = "income"
	TypeOutcome TransactionType = "outcome"
)

// ParseTransactionType converts a raw string to a TransactionType.
// Surrounding whitespace is ignored; matching is exact otherwise.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.TrimSpace(s)); t {
	case TypeIncome, TypeOutcome:
		return t, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// IsValid reports whether t is one of the known transaction types.
func (t TransactionType) IsValid() bool {
	return t == TypeIncome || t == TypeOutcome
}

// Transaction is a single committed ledger entry.
type Transaction struct {
	CreatedAt  time.Time
	UpdatedAt  time.Time
	CategoryID *string // nil once the category is deleted
	ID         string
	Title      string
	Type       TransactionType
	Value      decimal.Decimal

	// CategoryTitle is populated by list queries that join categories.
	CategoryTitle string
}

// Signed returns the value with the sign it contributes to the balance.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Type == TypeOutcome {
		return t.Value.Neg()
	}
	return t.Value
}

// Bounds on a transaction value.
const (
	MaxValueDigits = 18 // digits before the decimal separator
	MaxValueScale  = 8  // digits after it
)

var valueRegex = regexp.MustCompile(`^(\d+)(?:([.,])(\d+))?$`)

// ParseValue parses a non-negative decimal amount written as plain digits
// with an optional decimal part. Both "12.34" and "12,34" are accepted.
// Exponents, signs and thousands separators are not. A comma followed by
// exactly three digits, as in "1,000", is rejected as ambiguous.
func ParseValue(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errors.New("empty value")
	}
	if strings.HasPrefix(s, "-") {
		return decimal.Zero, fmt.Errorf("value %s is negative", s)
	}

	m := valueRegex.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, fmt.Errorf("invalid value %q", s)
	}
	whole, sep, frac := m[1], m[2], m[3]
	if sep == "," && len(frac) == 3 && strings.TrimLeft(whole, "0") != "" {
		return decimal.Zero, fmt.Errorf("ambiguous value %q: use a dot for decimals, without thousands separators", s)
	}
	if len(strings.TrimLeft(whole, "0")) > MaxValueDigits {
		return decimal.Zero, fmt.Errorf("value %q has more than %d integer digits", s, MaxValueDigits)
	}
	if len(frac) > MaxValueScale {
		return decimal.Zero, fmt.Errorf("value %q has more than %d decimal places", s, MaxValueScale)
	}

	text := whole
	if frac != "" {
		text += "." + frac
	}
	return decimal.NewFromString(text)
}

// CheckValue reports whether v can be stored as a transaction value: not
// negative and within MaxValueDigits and MaxValueScale.
func CheckValue(v decimal.Decimal) error {
	if v.IsNegative() {
		return errors.New("must not be negative")
	}
	// Compare exponents before magnitudes; rescaling a huge exponent is
	// itself unbounded work.
	if v.Exponent() < -MaxValueScale {
		return fmt.Errorf("must have at most %d decimal places", MaxValueScale)
	}
	if v.Exponent() > MaxValueDigits || v.Cmp(maxValue) >= 0 {
		return fmt.Errorf("must have at most %d integer digits", MaxValueDigits)
	}
	return nil
}

var maxValue = decimal.New(1, MaxValueDigits)
