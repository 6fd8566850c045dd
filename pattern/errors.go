package pattern

import (
	"errors"
	"fmt"
)

// Rule names a safety check. The names are stable and meant for audit logs.
type Rule string

const (
	RuleMaxLength              Rule = "max-length"
	RuleNestedQuantifier       Rule = "nested-quantifier"
	RuleOverlappingAlternation Rule = "overlapping-alternation"
	RuleEmptyGroup             Rule = "empty-group"
	RuleEmptyAlternative       Rule = "empty-alternative"
	RuleAdjacentAlternation    Rule = "adjacent-alternation"
	RuleAdjacentQuantifier     Rule = "adjacent-quantifier"
	RuleMaxNesting             Rule = "max-nesting"
	RuleBackreference          Rule = "backreference"
	RuleLookaround             Rule = "lookaround"
	RuleInvalidSyntax          Rule = "invalid-syntax"
	RuleInputTooLarge          Rule = "input-too-large"
	RuleTimeout                Rule = "timeout"
)

// SecurityError reports a pattern or a match rejected by a safety rule.
//
// Limit and Actual are in the unit of the rule: characters for
// max-length and input-too-large, levels for max-nesting, milliseconds
// for timeout. Both are zero for shape rules.
type SecurityError struct {
	Rule        Rule
	Pattern     string
	Message     string
	Limit       int64
	Actual      int64
	InputLength int
}

func (e *SecurityError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("pattern: %s: %s (limit %d, got %d)", e.Rule, e.Message, e.Limit, e.Actual)
	}
	return fmt.Sprintf("pattern: %s: %s", e.Rule, e.Message)
}

// IsRule reports whether err is a *SecurityError for the given rule.
func IsRule(err error, rule Rule) bool {
	var se *SecurityError
	return errors.As(err, &se) && se.Rule == rule
}
