package query

import (
	"github.com/Neumenon/tonl/tonl"
)

// Path is a parsed path expression. Segments[0] is always Root.
// A Path is immutable once built; Optimize returns a new one.
type Path struct {
	Expr     string // source text, empty for constructed paths
	Segments []Segment
}

// Segment is one step of a path.
type Segment interface {
	isSegment()
}

// Root is the document root, written `$`.
type Root struct{}

// Child selects an object member by name.
type Child struct {
	Name string
}

// Index selects a list element. Negative indices count from the end.
type Index struct {
	Index int
}

// Wildcard selects every list element or object value.
type Wildcard struct{}

// Slice selects a range of list elements with Python semantics.
// Nil bounds take the default for the direction of Step.
type Slice struct {
	Start, End, Step *int
}

// RecursiveDescent selects every value at key Name below the current
// node, or every descendant when Any is set.
type RecursiveDescent struct {
	Name string
	Any  bool
}

// Filter keeps the list elements or object values for which Expr is truthy.
type Filter struct {
	Expr Expr
}

func (Root) isSegment()             {}
func (Child) isSegment()            {}
func (Index) isSegment()            {}
func (Wildcard) isSegment()         {}
func (Slice) isSegment()            {}
func (RecursiveDescent) isSegment() {}
func (Filter) isSegment()           {}

// expands reports whether a segment can produce more than one value.
func expands(s Segment) bool {
	switch s.(type) {
	case Wildcard, Slice, RecursiveDescent, Filter:
		return true
	}
	return false
}

// ============================================================
// Filter expressions
// ============================================================

// Expr is a node of a filter predicate.
type Expr interface {
	isExpr()
}

// LogicalOp joins two predicates.
type LogicalOp uint8

const (
	OpAnd LogicalOp = iota + 1
	OpOr
)

func (op LogicalOp) String() string {
	if op == OpOr {
		return "||"
	}
	return "&&"
}

// CompareOp compares two operands.
type CompareOp uint8

const (
	OpEq CompareOp = iota + 1
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe
	OpContains
	OpStartsWith
	OpEndsWith
	OpMatches
)

var compareOpNames = map[CompareOp]string{
	OpEq:         "==",
	OpNe:         "!=",
	OpGt:         ">",
	OpGe:         ">=",
	OpLt:         "<",
	OpLe:         "<=",
	OpContains:   "contains",
	OpStartsWith: "startsWith",
	OpEndsWith:   "endsWith",
	OpMatches:    "matches",
}

func (op CompareOp) String() string {
	if s, ok := compareOpNames[op]; ok {
		return s
	}
	return "?"
}

var tokenCompareOps = map[TokenType]CompareOp{
	TokenEq:         OpEq,
	TokenNe:         OpNe,
	TokenGt:         OpGt,
	TokenGe:         OpGe,
	TokenLt:         OpLt,
	TokenLe:         OpLe,
	TokenContains:   OpContains,
	TokenStartsWith: OpStartsWith,
	TokenEndsWith:   OpEndsWith,
	TokenMatches:    OpMatches,
}

// Logical is `Left && Right` or `Left || Right`.
type Logical struct {
	Op          LogicalOp
	Left, Right Expr
}

// Not negates the truthiness of X.
type Not struct {
	X Expr
}

// Comparison is `Left Op Right`.
type Comparison struct {
	Op          CompareOp
	Left, Right Expr
}

// Current is `@` followed by Child and Index segments.
type Current struct {
	Segments []Segment
}

// Literal is a constant operand.
type Literal struct {
	Value tonl.Value
}

func (Logical) isExpr()    {}
func (Not) isExpr()        {}
func (Comparison) isExpr() {}
func (Current) isExpr()    {}
func (Literal) isExpr()    {}

func intPtr(n int) *int { return &n }
