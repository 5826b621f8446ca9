package pattern

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/source"
)

// Matcher evaluates rows against compiled rules, highest priority first.
// Rules of equal priority keep their configured order.
type Matcher struct {
	rules []compiledRule
}

// NewMatcher compiles rules. Every invalid rule is reported.
func NewMatcher(rules []Rule) (*Matcher, error) {
	compiled, err := compileAll(rules)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].priority > compiled[j].priority
	})
	return &Matcher{rules: compiled}, nil
}

// Len returns the number of rules.
func (m *Matcher) Len() int {
	return len(m.rules)
}

// Match returns the category of the first rule matching the row.
func (m *Matcher) Match(title string, typ model.TransactionType, value decimal.Decimal) (string, bool) {
	title = strings.ToLower(strings.TrimSpace(title))
	for i := range m.rules {
		r := &m.rules[i]
		if r.matchesTitle(title) && r.matchesType(typ) && r.matchesValue(value) {
			return r.category, true
		}
	}
	return "", false
}

// Categorize implements source.Categorizer. Rows whose type or value do not
// parse never match; the import skips them anyway.
func (m *Matcher) Categorize(rec source.Record) (string, bool) {
	typ, err := model.ParseTransactionType(rec.Type)
	if err != nil {
		return "", false
	}
	value, err := model.ParseValue(rec.Value)
	if err != nil {
		return "", false
	}
	return m.Match(rec.Title, typ, value)
}

func (r *compiledRule) matchesTitle(title string) bool {
	if r.re != nil {
		return r.re.MatchString(title)
	}
	if r.pattern == "" {
		return true // No pattern means match all
	}
	return r.pattern == title
}

func (r *compiledRule) matchesType(typ model.TransactionType) bool {
	return r.typ == "" || r.typ == typ
}

func (r *compiledRule) matchesValue(v decimal.Decimal) bool {
	switch r.cond {
	case ConditionLT:
		return v.LessThan(*r.value)
	case ConditionLE:
		return v.LessThanOrEqual(*r.value)
	case ConditionEQ:
		return v.Equal(*r.value)
	case ConditionGE:
		return v.GreaterThanOrEqual(*r.value)
	case ConditionGT:
		return v.GreaterThan(*r.value)
	case ConditionRange:
		if r.min != nil && v.LessThan(*r.min) {
			return false
		}
		if r.max != nil && v.GreaterThan(*r.max) {
			return false
		}
		return true
	default:
		return true
	}
}
