package source

import (
	"context"
	"fmt"
	"io"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/ofx"
)

// Categories assigned to OFX entries by transaction type when no explicit
// category applies.
var ofxTypeCategories = map[string]string{
	"INT": "Interest",
	"FEE": "Bank Fees",
	"ATM": "Cash & ATM",
}

// NewOFXSource parses an OFX/QFX statement into a record stream.
// Debits become outcomes and credits incomes, valued at the absolute amount.
// Entries of a known OFX type get that type's category; everything else gets
// category, which may be empty.
func NewOFXSource(ctx context.Context, r io.Reader, category string) (*Slice, error) {
	entries, err := ofx.Parse(ctx, r)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(entries))
	for i, entry := range entries {
		records = append(records, recordFromEntry(entry, category, i+1))
	}
	return FromRecords(records...), nil
}

func recordFromEntry(entry ofx.Entry, category string, line int) Record {
	typ := model.TypeIncome
	if entry.Amount.IsNegative() {
		typ = model.TypeOutcome
	}

	if c, ok := ofxTypeCategories[entry.TrnType]; ok {
		category = c
	}

	title := entry.Name
	if title == "" {
		title = fmt.Sprintf("%s %s", entry.TrnType, entry.FiTID)
	}

	return Record{
		Title:    title,
		Type:     string(typ),
		Value:    entry.Amount.Abs().String(),
		Category: category,
		Line:     line,
	}
}
