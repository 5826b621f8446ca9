// Package pattern assigns categories to import rows that arrive without one,
// by matching their title, type and value against configured rules.
package pattern

import (
	"errors"
)

// ErrInvalidRule marks a rule that cannot be compiled.
var ErrInvalidRule = errors.New("invalid pattern rule")

// Condition compares a row's value with a rule's bounds.
type Condition string

// Amount conditions.
const (
	ConditionAny   Condition = "any"
	ConditionLT    Condition = "lt"
	ConditionLE    Condition = "le"
	ConditionEQ    Condition = "eq"
	ConditionGE    Condition = "ge"
	ConditionGT    Condition = "gt"
	ConditionRange Condition = "range"
)

// Rule maps matching rows to a category. It is read from configuration, so
// numeric bounds are kept as text until the rule is compiled.
//
// Pattern is compared case-insensitively with the whole title unless Regex
// is set, in which case it is matched against the lowercased title. An empty
// Pattern matches every title. An empty Type matches both income and outcome.
type Rule struct {
	Pattern   string `mapstructure:"pattern"`
	Category  string `mapstructure:"category"`
	Type      string `mapstructure:"type"`
	Condition string `mapstructure:"condition"`
	Value     string `mapstructure:"value"`
	Min       string `mapstructure:"min"`
	Max       string `mapstructure:"max"`
	Priority  int    `mapstructure:"priority"`
	Regex     bool   `mapstructure:"regex"`
}
