package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// compiledRule is a Rule with its pattern and bounds parsed.
type compiledRule struct {
	re       *regexp.Regexp
	min      *decimal.Decimal
	max      *decimal.Decimal
	value    *decimal.Decimal
	pattern  string
	category string
	typ      model.TransactionType
	cond     Condition
	priority int
}

// Validate reports every problem in rules at once.
func Validate(rules []Rule) error {
	_, err := compileAll(rules)
	return err
}

func compileAll(rules []Rule) ([]compiledRule, error) {
	var (
		compiled = make([]compiledRule, 0, len(rules))
		errs     []error
	)
	for i, r := range rules {
		c, err := compile(r)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w %d: %w", ErrInvalidRule, i+1, err))
			continue
		}
		compiled = append(compiled, c)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return compiled, nil
}

func compile(r Rule) (compiledRule, error) {
	c := compiledRule{
		pattern:  strings.ToLower(strings.TrimSpace(r.Pattern)),
		category: strings.TrimSpace(r.Category),
		priority: r.Priority,
		cond:     Condition(r.Condition),
	}

	if c.category == "" {
		return c, errors.New("category must not be empty")
	}

	if r.Regex {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return c, fmt.Errorf("invalid regex %q: %w", r.Pattern, err)
		}
		c.re = re
	}

	if r.Type != "" {
		typ, err := model.ParseTransactionType(r.Type)
		if err != nil {
			return c, err
		}
		c.typ = typ
	}

	var err error
	switch c.cond {
	case "", ConditionAny:
		c.cond = ConditionAny
	case ConditionLT, ConditionLE, ConditionEQ, ConditionGE, ConditionGT:
		if c.value, err = bound("value", r.Value); err != nil {
			return c, err
		}
		if c.value == nil {
			return c, fmt.Errorf("condition %s needs a value", c.cond)
		}
	case ConditionRange:
		if c.min, err = bound("min", r.Min); err != nil {
			return c, err
		}
		if c.max, err = bound("max", r.Max); err != nil {
			return c, err
		}
		if c.min == nil && c.max == nil {
			return c, errors.New("condition range needs a min or a max")
		}
		if c.min != nil && c.max != nil && c.min.GreaterThan(*c.max) {
			return c, fmt.Errorf("min %s is greater than max %s", c.min, c.max)
		}
	default:
		return c, fmt.Errorf("unknown condition %q", r.Condition)
	}

	return c, nil
}

func bound(name, raw string) (*decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := model.ParseValue(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return &d, nil
}
