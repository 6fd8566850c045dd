package tonl

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// SyntaxError reports malformed notation text.
type SyntaxError struct {
	Line    int // 1-based
	Column  int // 1-based, 0 when unknown
	Message string
	Text    string // offending line, trimmed
}

func (e *SyntaxError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("tonl: line %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("tonl: line %d: %s", e.Line, e.Message)
}

// FieldError is one structural problem found while decoding: a value that
// violates its type hint, or a row that does not fit its header.
type FieldError struct {
	Line    int
	Path    string
	Hint    TypeHint
	Message string
}

func (e *FieldError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "line %d", e.Line)
	if e.Path != "" {
		sb.WriteString(" at ")
		sb.WriteString(e.Path)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	return sb.String()
}

// StructuralError aggregates every FieldError of one decode.
type StructuralError struct {
	errs *multierror.Error
}

func (e *StructuralError) Error() string {
	return "tonl: structural errors: " + e.errs.Error()
}

// Unwrap exposes the aggregate so errors.As can reach individual FieldErrors.
func (e *StructuralError) Unwrap() error {
	return e.errs
}

// Fields returns the individual faults in the order they were found.
func (e *StructuralError) Fields() []*FieldError {
	out := make([]*FieldError, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		if fe, ok := err.(*FieldError); ok {
			out = append(out, fe)
		}
	}
	return out
}

// Len returns the number of faults.
func (e *StructuralError) Len() int {
	return e.errs.Len()
}

// faults collects FieldErrors during a decode.
type faults struct {
	errs *multierror.Error
}

func (f *faults) add(fe *FieldError) {
	f.errs = multierror.Append(f.errs, fe)
}

func (f *faults) err() error {
	if f.errs == nil || f.errs.Len() == 0 {
		return nil
	}
	f.errs.ErrorFormat = formatFieldErrors
	return &StructuralError{errs: f.errs}
}

func formatFieldErrors(es []error) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// EncodeError reports a value that cannot be written as notation text.
type EncodeError struct {
	Path    string
	Message string
}

func (e *EncodeError) Error() string {
	if e.Path == "" {
		return "tonl: encode: " + e.Message
	}
	return fmt.Sprintf("tonl: encode %s: %s", e.Path, e.Message)
}
