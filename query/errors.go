package query

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a path syntax error.
type ErrorKind string

const (
	ErrUnexpectedToken    ErrorKind = "unexpected-token"
	ErrUnterminatedString ErrorKind = "unterminated-string"
	ErrInvalidNumber      ErrorKind = "invalid-number"
	ErrEmptyExpression    ErrorKind = "empty-expression"
	ErrUnexpectedEnd      ErrorKind = "unexpected-end"
)

// SyntaxError is a malformed path expression. Pos is a byte offset.
type SyntaxError struct {
	Kind    ErrorKind
	Pos     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("query: %s at offset %d: %s", e.Kind, e.Pos, e.Message)
}

func unexpected(tok Token, want string) *SyntaxError {
	if tok.Type == TokenEOF {
		return &SyntaxError{Kind: ErrUnexpectedEnd, Pos: tok.Pos, Message: want + ", got end of expression"}
	}
	return &SyntaxError{Kind: ErrUnexpectedToken, Pos: tok.Pos, Message: want + ", got " + tok.String()}
}

// ValidationError carries the error-severity diagnostics of a rejected path.
type ValidationError struct {
	Expr        string
	Diagnostics []Diagnostic
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = string(d.Code) + ": " + d.Message
	}
	return fmt.Sprintf("query: invalid path %q: %s", e.Expr, strings.Join(msgs, "; "))
}

// EvalError reports a fault while evaluating a path.
type EvalError struct {
	Segment int
	Message string
	Err     error
}

func (e *EvalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query: segment %d: %s: %v", e.Segment, e.Message, e.Err)
	}
	return fmt.Sprintf("query: segment %d: %s", e.Segment, e.Message)
}

func (e *EvalError) Unwrap() error { return e.Err }
