package query

import (
	"fmt"

	"github.com/Neumenon/tonl/pattern"
	"github.com/Neumenon/tonl/tonl"
)

// Severity of a diagnostic. Only errors make a path invalid.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Code identifies a validation rule.
type Code string

const (
	CodeSliceStepZero   Code = "slice-step-zero"
	CodeSliceEmpty      Code = "slice-empty"
	CodeMaxDepth        Code = "max-depth"
	CodeFilterMalformed Code = "filter-malformed"
	CodeFilterConstant  Code = "filter-constant"
	CodePatternUnsafe   Code = "pattern-unsafe"
)

// Diagnostic is one validation finding. Segment indexes Path.Segments.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Segment  int
}

// ValidationResult contains validation findings in segment order.
type ValidationResult struct {
	Valid       bool
	Diagnostics []Diagnostic
}

// Errors returns the error-severity diagnostics.
func (r *ValidationResult) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns the warning-severity diagnostics.
func (r *ValidationResult) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

// Err returns a *ValidationError when the result is invalid.
func (r *ValidationResult) Err(expr string) error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Expr: expr, Diagnostics: r.Errors()}
}

// ValidateOptions configures Validate.
type ValidateOptions struct {
	MaxDepth int // segments plus filter nesting; 0 means DefaultMaxDepth
	Pattern  pattern.ValidateOptions
}

// DefaultMaxDepth bounds the depth of a path AST.
const DefaultMaxDepth = 100

// DefaultValidateOptions returns the default validation options.
func DefaultValidateOptions() ValidateOptions {
	return ValidateOptions{
		MaxDepth: DefaultMaxDepth,
		Pattern:  pattern.DefaultValidateOptions(),
	}
}

type validator struct {
	opts   ValidateOptions
	result *ValidationResult
	seg    int
}

// Validate runs the static checks on p. It never fails; problems are
// reported as diagnostics.
func Validate(p *Path, opts ValidateOptions) *ValidationResult {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	v := &validator{opts: opts, result: &ValidationResult{Valid: true}}

	if depth := Analyze(p).Depth; depth > opts.MaxDepth {
		v.errorf(CodeMaxDepth, "path depth %d exceeds maximum %d", depth, opts.MaxDepth)
	}
	for i, seg := range p.Segments {
		v.seg = i
		switch s := seg.(type) {
		case Slice:
			v.slice(s)
		case Filter:
			v.filter(s)
		}
	}
	return v.result
}

func (v *validator) errorf(code Code, format string, args ...any) {
	v.result.Valid = false
	v.result.Diagnostics = append(v.result.Diagnostics, Diagnostic{
		Severity: SeverityError, Code: code, Message: fmt.Sprintf(format, args...), Segment: v.seg,
	})
}

func (v *validator) warnf(code Code, format string, args ...any) {
	v.result.Diagnostics = append(v.result.Diagnostics, Diagnostic{
		Severity: SeverityWarning, Code: code, Message: fmt.Sprintf(format, args...), Segment: v.seg,
	})
}

// slice reports slices that are empty whatever the list length. Bounds of
// opposite sign depend on the length and are never rejected.
func (v *validator) slice(s Slice) {
	step := 1
	if s.Step != nil {
		step = *s.Step
	}
	if step == 0 {
		v.errorf(CodeSliceStepZero, "slice step cannot be zero")
		return
	}
	if s.Start == nil || s.End == nil {
		return
	}
	start, end := *s.Start, *s.End
	if (start < 0) != (end < 0) {
		return
	}
	switch {
	case step > 0 && start > end:
		v.errorf(CodeSliceEmpty, "slice start %d is after end %d with ascending step", start, end)
	case step < 0 && start < end:
		v.errorf(CodeSliceEmpty, "slice start %d is before end %d with descending step", start, end)
	case start == end:
		v.warnf(CodeSliceEmpty, "slice [%d:%d] is always empty", start, end)
	}
}

func (v *validator) filter(f Filter) {
	if f.Expr == nil {
		v.errorf(CodeFilterMalformed, "filter has no predicate")
		return
	}
	if lit, ok := f.Expr.(Literal); ok {
		v.warnf(CodeFilterConstant, "filter predicate is the constant %s", formatLiteral(lit.Value))
	}
	v.expr(f.Expr)
}

func (v *validator) expr(e Expr) {
	switch x := e.(type) {
	case nil:
		v.errorf(CodeFilterMalformed, "missing operand")
	case Logical:
		if x.Op != OpAnd && x.Op != OpOr {
			v.errorf(CodeFilterMalformed, "unknown logical operator")
		}
		v.expr(x.Left)
		v.expr(x.Right)
	case Not:
		v.expr(x.X)
	case Comparison:
		v.comparison(x)
	case Current:
		for _, seg := range x.Segments {
			switch seg.(type) {
			case Child, Index:
			default:
				v.errorf(CodeFilterMalformed, "only member and index access may follow '@'")
			}
		}
	case Literal:
		if x.Value == nil {
			v.errorf(CodeFilterMalformed, "literal has no value")
		}
	}
}

func (v *validator) comparison(c Comparison) {
	if _, ok := compareOpNames[c.Op]; !ok {
		v.errorf(CodeFilterMalformed, "unknown comparison operator")
	}
	if c.Left == nil || c.Right == nil {
		v.errorf(CodeFilterMalformed, "comparison %s is missing an operand", c.Op)
		return
	}
	_, leftLit := c.Left.(Literal)
	rightLit, rightIsLit := c.Right.(Literal)
	if leftLit && rightIsLit {
		v.warnf(CodeFilterConstant, "comparison of two literals is constant")
	}
	v.expr(c.Left)
	v.expr(c.Right)

	if c.Op != OpMatches {
		return
	}
	if !rightIsLit {
		v.errorf(CodeFilterMalformed, "matches needs a string literal pattern")
		return
	}
	pat, ok := rightLit.Value.(tonl.String)
	if !ok {
		v.errorf(CodeFilterMalformed, "matches needs a string literal pattern")
		return
	}
	if err := pattern.Validate(string(pat), v.opts.Pattern); err != nil {
		v.errorf(CodePatternUnsafe, "%v", err)
	}
}
