package pattern

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/source"
)

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		value     string
		want      string
		rules     []Rule
		typ       model.TransactionType
		wantMatch bool
	}{
		{
			name:      "exact title match is case insensitive",
			rules:     []Rule{{Pattern: "Netflix", Category: "Subscriptions"}},
			title:     "NETFLIX",
			typ:       model.TypeOutcome,
			value:     "15.99",
			want:      "Subscriptions",
			wantMatch: true,
		},
		{
			name:  "exact match needs the whole title",
			rules: []Rule{{Pattern: "Netflix", Category: "Subscriptions"}},
			title: "Netflix gift card",
			typ:   model.TypeOutcome,
			value: "25",
		},
		{
			name:      "regex match",
			rules:     []Rule{{Pattern: `^(whole foods|trader joe)`, Regex: true, Category: "Groceries"}},
			title:     "Trader Joe's #552",
			typ:       model.TypeOutcome,
			value:     "64.10",
			want:      "Groceries",
			wantMatch: true,
		},
		{
			name:  "type filter",
			rules: []Rule{{Pattern: "acme corp", Type: "income", Category: "Salary"}},
			title: "ACME Corp",
			typ:   model.TypeOutcome,
			value: "100",
		},
		{
			name:      "amount below threshold",
			rules:     []Rule{{Condition: "lt", Value: "5", Category: "Small Purchases"}},
			title:     "Vending machine",
			typ:       model.TypeOutcome,
			value:     "2.50",
			want:      "Small Purchases",
			wantMatch: true,
		},
		{
			name:  "amount outside range",
			rules: []Rule{{Condition: "range", Min: "100", Max: "200", Category: "Utilities"}},
			title: "City Power",
			typ:   model.TypeOutcome,
			value: "200.01",
		},
		{
			name:      "range bounds are inclusive",
			rules:     []Rule{{Condition: "range", Min: "100", Max: "200", Category: "Utilities"}},
			title:     "City Power",
			typ:       model.TypeOutcome,
			value:     "200",
			want:      "Utilities",
			wantMatch: true,
		},
		{
			name: "highest priority wins",
			rules: []Rule{
				{Pattern: "amazon", Category: "Shopping", Priority: 1},
				{Pattern: "amazon", Condition: "ge", Value: "500", Category: "Electronics", Priority: 10},
			},
			title:     "Amazon",
			typ:       model.TypeOutcome,
			value:     "899",
			want:      "Electronics",
			wantMatch: true,
		},
		{
			name: "equal priority keeps configured order",
			rules: []Rule{
				{Pattern: "amazon", Category: "Shopping"},
				{Pattern: "amazon", Category: "Books"},
			},
			title:     "amazon",
			typ:       model.TypeOutcome,
			value:     "12",
			want:      "Shopping",
			wantMatch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatcher(tt.rules)
			require.NoError(t, err)

			got, ok := m.Match(tt.title, tt.typ, decimal.RequireFromString(tt.value))
			assert.Equal(t, tt.wantMatch, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatcher_Categorize(t *testing.T) {
	m, err := NewMatcher([]Rule{{Pattern: "coffee", Category: "Food"}})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	var _ source.Categorizer = m

	got, ok := m.Categorize(source.Record{Title: "Coffee", Type: "outcome", Value: "3,50"})
	assert.True(t, ok)
	assert.Equal(t, "Food", got)

	_, ok = m.Categorize(source.Record{Title: "Coffee", Type: "outcome", Value: ""})
	assert.False(t, ok, "rows that will be skipped never match")

	_, ok = m.Categorize(source.Record{Title: "Coffee", Type: "gift", Value: "1"})
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(nil))
	assert.NoError(t, Validate([]Rule{{Pattern: "x", Category: "X"}}))

	tests := []struct {
		name string
		want string
		rule Rule
	}{
		{name: "missing category", rule: Rule{Pattern: "x"}, want: "category"},
		{name: "bad regex", rule: Rule{Pattern: "(", Regex: true, Category: "X"}, want: "invalid regex"},
		{name: "bad type", rule: Rule{Type: "transfer", Category: "X"}, want: "transfer"},
		{name: "unknown condition", rule: Rule{Condition: "about", Category: "X"}, want: "unknown condition"},
		{name: "comparison without value", rule: Rule{Condition: "gt", Category: "X"}, want: "needs a value"},
		{name: "bad value", rule: Rule{Condition: "gt", Value: "ten", Category: "X"}, want: "invalid value"},
		{name: "empty range", rule: Rule{Condition: "range", Category: "X"}, want: "min or a max"},
		{name: "inverted range", rule: Rule{Condition: "range", Min: "10", Max: "1", Category: "X"}, want: "greater than"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]Rule{{Pattern: "ok", Category: "OK"}, tt.rule})
			require.ErrorIs(t, err, ErrInvalidRule)
			assert.Contains(t, err.Error(), "rule 2")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateReportsEveryRule(t *testing.T) {
	_, err := NewMatcher([]Rule{{Pattern: "a"}, {Pattern: "b"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule 1")
	assert.Contains(t, err.Error(), "rule 2")
}
