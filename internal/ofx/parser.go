// Package ofx reads OFX/QFX bank and credit card statements.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

var (
	severityRegex   = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	openTagRegex    = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	datePrefixRegex = regexp.MustCompile(`^\d{2}/\d{2}\s+`)
)

// Prefixes card processors put in front of the merchant name.
var namePrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
}

var genericNames = map[string]bool{
	"DEBIT":           true,
	"CREDIT":          true,
	"PURCHASE":        true,
	"PAYMENT":         true,
	"POS TRANSACTION": true,
	"CARD PURCHASE":   true,
}

// Entry is one statement line. Amount keeps the OFX sign: negative for debits.
type Entry struct {
	Posted    time.Time
	Amount    decimal.Decimal
	FiTID     string
	AccountID string
	Name      string
	TrnType   string // e.g. DEBIT, CHECK, INT, FEE, ATM
}

// Parse reads a statement and returns its entries in file order. An entry
// repeating a FITID already seen for the same account is dropped.
func Parse(ctx context.Context, r io.Reader) ([]Entry, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(normalize(string(raw))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	c := collector{seen: make(map[string]bool)}
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			c.add(ctx, stmt.BankTranList, string(stmt.BankAcctFrom.AcctID))
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			c.add(ctx, stmt.BankTranList, string(stmt.CCAcctFrom.AcctID))
		}
	}

	slog.InfoContext(ctx, "Parsed OFX statement",
		"entries", len(c.entries),
		"statements", c.statements,
		"duplicates", c.duplicates)

	return c.entries, nil
}

// normalize repairs the formatting mistakes banks commonly make so ofxgo
// accepts the file.
func normalize(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return openTagRegex.ReplaceAllString(content, "$1>")
}

type collector struct {
	seen       map[string]bool
	entries    []Entry
	statements int
	duplicates int
}

func (c *collector) add(ctx context.Context, list *ofxgo.TransactionList, accountID string) {
	c.statements++
	if list == nil {
		return
	}

	for _, tx := range list.Transactions {
		key := accountID + "\x00" + string(tx.FiTID)
		if tx.FiTID != "" && c.seen[key] {
			c.duplicates++
			continue
		}

		entry, err := newEntry(tx, accountID)
		if err != nil {
			slog.WarnContext(ctx, "Skipping OFX transaction",
				"fitid", string(tx.FiTID),
				"error", err)
			continue
		}
		c.seen[key] = true
		c.entries = append(c.entries, entry)
	}
}

func newEntry(tx ofxgo.Transaction, accountID string) (Entry, error) {
	// TrnAmt is a big.Rat; its decimal string is exact where a float is not.
	amount, err := decimal.NewFromString(tx.TrnAmt.FloatString(8))
	if err != nil {
		return Entry{}, fmt.Errorf("invalid amount: %w", err)
	}

	return Entry{
		Posted:    tx.DtPosted.Time,
		Amount:    amount,
		FiTID:     string(tx.FiTID),
		AccountID: accountID,
		Name:      payee(tx),
		TrnType:   tx.TrnType.String(),
	}, nil
}

// payee picks the most readable merchant name the bank supplied.
func payee(tx ofxgo.Transaction) string {
	if tx.Payee != nil {
		if name := strings.TrimSpace(string(tx.Payee.Name)); name != "" {
			return name
		}
	}

	name := strings.TrimSpace(string(tx.Name))
	if memo := strings.TrimSpace(string(tx.Memo)); memo != "" && genericNames[strings.ToUpper(name)] {
		name = memo
	}

	for _, prefix := range namePrefixes {
		if len(name) >= len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
			name = name[len(prefix):]
			break
		}
	}

	return strings.TrimSpace(datePrefixRegex.ReplaceAllString(name, ""))
}
