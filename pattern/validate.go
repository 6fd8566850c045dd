package pattern

import (
	"regexp"
	"strings"
)

// ValidateOptions configures the static checks.
type ValidateOptions struct {
	MaxLength           int // characters; 0 means DefaultMaxLength
	MaxNestingDepth     int // group levels; 0 means DefaultMaxNestingDepth
	AllowBackreferences bool
	AllowLookarounds    bool
}

const (
	DefaultMaxLength       = 100
	DefaultMaxNestingDepth = 3
)

// DefaultValidateOptions returns the default static limits.
func DefaultValidateOptions() ValidateOptions {
	return ValidateOptions{
		MaxLength:       DefaultMaxLength,
		MaxNestingDepth: DefaultMaxNestingDepth,
	}
}

func (o ValidateOptions) withDefaults() ValidateOptions {
	if o.MaxLength <= 0 {
		o.MaxLength = DefaultMaxLength
	}
	if o.MaxNestingDepth <= 0 {
		o.MaxNestingDepth = DefaultMaxNestingDepth
	}
	return o
}

// Shape detectors. These run on untrusted text, so they use the linear-time
// standard engine rather than the backtracking one being guarded.
var (
	alternationLoopRe = regexp.MustCompile(`\([^)]*\|[^)]*\)[*+]`)
	backreferenceRe   = regexp.MustCompile(`\\[1-9]`)
	lookaroundRe      = regexp.MustCompile(`\(\?[=!]|\(\?<[=!]`)
)

type shapeRule struct {
	rule    Rule
	re      *regexp.Regexp
	message string
}

var shapeRules = []shapeRule{
	{RuleLookaround, regexp.MustCompile(`\(\?=`), "positive lookahead"},
	{RuleLookaround, regexp.MustCompile(`\(\?!`), "negative lookahead"},
	{RuleLookaround, regexp.MustCompile(`\(\?<=`), "positive lookbehind"},
	{RuleLookaround, regexp.MustCompile(`\(\?<!`), "negative lookbehind"},
	{RuleEmptyGroup, regexp.MustCompile(`\(\?\)`), "empty group"},
	{RuleEmptyAlternative, regexp.MustCompile(`\([^)]*\|\)`), "empty alternative in group"},
	{RuleAdjacentAlternation, regexp.MustCompile(`\|\|`), "adjacent alternation operators"},
	{RuleAdjacentQuantifier, regexp.MustCompile(`\*\*|\+\+|\?\?`), "adjacent quantifiers"},
}

// Validate checks pattern against the static rules and returns the first
// violation as a *SecurityError. The empty pattern is valid.
func Validate(pattern string, opts ValidateOptions) error {
	opts = opts.withDefaults()

	if n := len([]rune(pattern)); n > opts.MaxLength {
		return &SecurityError{
			Rule:    RuleMaxLength,
			Pattern: pattern,
			Message: "pattern too long",
			Limit:   int64(opts.MaxLength),
			Actual:  int64(n),
		}
	}
	if pattern == "" {
		return nil
	}

	if m := nestedQuantifier(pattern); m != "" {
		return &SecurityError{
			Rule:    RuleNestedQuantifier,
			Pattern: pattern,
			Message: "nested quantifiers in " + m + " can backtrack exponentially",
		}
	}
	// A non-capturing group opener is not a quantifier.
	shape := strings.ReplaceAll(pattern, "(?:", "(")
	if m := alternationLoopRe.FindString(shape); m != "" {
		return &SecurityError{
			Rule:    RuleOverlappingAlternation,
			Pattern: pattern,
			Message: "repeated alternation " + m + " can backtrack exponentially",
		}
	}

	for _, r := range shapeRules {
		if r.rule == RuleLookaround && opts.AllowLookarounds {
			continue
		}
		if m := r.re.FindString(pattern); m != "" {
			return &SecurityError{
				Rule:    r.rule,
				Pattern: pattern,
				Message: r.message + " " + m,
			}
		}
	}

	if depth := NestingDepth(pattern); depth > opts.MaxNestingDepth {
		return &SecurityError{
			Rule:    RuleMaxNesting,
			Pattern: pattern,
			Message: "groups nested too deeply",
			Limit:   int64(opts.MaxNestingDepth),
			Actual:  int64(depth),
		}
	}
	if !opts.AllowBackreferences && backreferenceRe.MatchString(pattern) {
		return &SecurityError{
			Rule:    RuleBackreference,
			Pattern: pattern,
			Message: "backreferences are not allowed",
		}
	}
	if !opts.AllowLookarounds && lookaroundRe.MatchString(pattern) {
		return &SecurityError{
			Rule:    RuleLookaround,
			Pattern: pattern,
			Message: "lookarounds are not allowed",
		}
	}
	return nil
}

// nestedQuantifier returns the first quantified group whose contents,
// nested groups included, hold a quantifier, or "" when there is none.
func nestedQuantifier(pattern string) string {
	type group struct {
		start      int
		quantified bool // contents hold a quantifier
	}
	var stack []group
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\':
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '(':
			stack = append(stack, group{start: i})
			i = skipGroupPrefix(pattern, i) - 1
		case c == ')':
			if len(stack) == 0 {
				return ""
			}
			g := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			repeated := isQuantifierAt(pattern, i+1)
			if repeated && g.quantified {
				return pattern[g.start : i+2]
			}
			if len(stack) > 0 && (repeated || g.quantified) {
				stack[len(stack)-1].quantified = true
			}
		case isQuantifierAt(pattern, i):
			if len(stack) > 0 {
				stack[len(stack)-1].quantified = true
			}
		}
	}
	return ""
}

// skipGroupPrefix returns the index just past the opener of the group at
// pattern[open]: `(`, `(?:`, `(?=`, `(?!`, `(?<=`, `(?<!` or `(?<name>`.
func skipGroupPrefix(pattern string, open int) int {
	i := open + 1
	if i >= len(pattern) || pattern[i] != '?' {
		return i
	}
	i++
	if i >= len(pattern) {
		return i
	}
	switch pattern[i] {
	case ':', '=', '!', '>':
		return i + 1
	case '<':
		i++
		if i < len(pattern) && (pattern[i] == '=' || pattern[i] == '!') {
			return i + 1
		}
		if end := strings.IndexByte(pattern[i:], '>'); end >= 0 {
			return i + end + 1
		}
	}
	return i
}

// isQuantifierAt reports whether a quantifier starts at pattern[i].
// A brace counts only when a digit follows it.
func isQuantifierAt(pattern string, i int) bool {
	if i >= len(pattern) {
		return false
	}
	switch pattern[i] {
	case '+', '*', '?':
		return true
	case '{':
		return i+1 < len(pattern) && pattern[i+1] >= '0' && pattern[i+1] <= '9'
	}
	return false
}

// NestingDepth returns the deepest group nesting in pattern. Escaped
// parentheses and parentheses inside character classes do not count.
// An unbalanced closer stops the scan; the compiler reports it.
func NestingDepth(pattern string) int {
	depth, deepest := 0, 0
	inClass := false
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; {
		case c == '\\':
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '(':
			depth++
			if depth > deepest {
				deepest = depth
			}
		case c == ')':
			depth--
			if depth < 0 {
				return deepest
			}
		}
	}
	return deepest
}

// IsTrivial reports whether pattern has no quantifiers or groups at all.
// Such patterns match in linear time.
func IsTrivial(pattern string) bool {
	return !strings.ContainsAny(pattern, "+*?{(")
}
