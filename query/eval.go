package query

import (
	"math"
	"strconv"
	"strings"

	"github.com/Neumenon/tonl/pattern"
	"github.com/Neumenon/tonl/tonl"
)

// EvalOptions configures evaluation.
type EvalOptions struct {
	// MaxDepth bounds how far recursive descent walks below its start.
	MaxDepth int

	// Pattern configures the `matches` operator.
	Pattern pattern.ExecOptions
}

// DefaultEvalDepth is the default recursive descent bound.
const DefaultEvalDepth = 1000

// DefaultEvalOptions returns the default evaluation options.
func DefaultEvalOptions() EvalOptions {
	return EvalOptions{
		MaxDepth: DefaultEvalDepth,
		Pattern:  pattern.DefaultExecOptions(),
	}
}

// Result is the outcome of evaluating a path.
//
// A path without wildcards, slices, filters or recursive descent is not
// expanding and yields at most one value.
type Result struct {
	Values    []tonl.Value
	Expanding bool
}

// Single returns the value of a non-expanding path.
func (r Result) Single() (tonl.Value, bool) {
	if r.Expanding || len(r.Values) != 1 {
		return nil, false
	}
	return r.Values[0], true
}

// Step is one hop of a Location.
type Step struct {
	Key     string
	Index   int
	IsIndex bool
}

// Location addresses a value from the root.
type Location []Step

// String renders the location as a canonical path such as `$.users[0].id`.
func (l Location) String() string {
	var sb strings.Builder
	sb.WriteString("$")
	for _, s := range l {
		if s.IsIndex {
			sb.WriteString("[")
			sb.WriteString(strconv.Itoa(s.Index))
			sb.WriteString("]")
		} else {
			writeSegment(&sb, Child{Name: s.Key})
		}
	}
	return sb.String()
}

// Match is a located result value.
type Match struct {
	Location Location
	Value    tonl.Value
}

// Evaluate resolves p against root.
func Evaluate(root tonl.Value, p *Path, opts EvalOptions) (Result, error) {
	e := newEvaluator(opts, false)
	nodes, err := e.run(root, p)
	if err != nil {
		return Result{}, err
	}
	res := Result{Values: make([]tonl.Value, len(nodes)), Expanding: Analyze(p).Expanding}
	for i, n := range nodes {
		res.Values[i] = n.value
	}
	return res, nil
}

// Locate resolves p against root and reports where each value lives.
func Locate(root tonl.Value, p *Path, opts EvalOptions) ([]Match, error) {
	e := newEvaluator(opts, true)
	nodes, err := e.run(root, p)
	if err != nil {
		return nil, err
	}
	out := make([]Match, len(nodes))
	for i, n := range nodes {
		out[i] = Match{Location: n.loc, Value: n.value}
	}
	return out, nil
}

// ============================================================
// Evaluator
// ============================================================

type node struct {
	value tonl.Value
	loc   Location
}

type evaluator struct {
	opts     EvalOptions
	track    bool
	seg      int
	matchers map[string]*pattern.Matcher
}

func newEvaluator(opts EvalOptions, track bool) *evaluator {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultEvalDepth
	}
	return &evaluator{opts: opts, track: track}
}

func (e *evaluator) at(n node, s Step, v tonl.Value) node {
	out := node{value: v}
	if e.track {
		out.loc = make(Location, len(n.loc)+1)
		copy(out.loc, n.loc)
		out.loc[len(n.loc)] = s
	}
	return out
}

// children returns the direct children of n in order.
func (e *evaluator) children(n node) []node {
	switch v := n.value.(type) {
	case *tonl.List:
		out := make([]node, len(v.Items))
		for i, item := range v.Items {
			out[i] = e.at(n, Step{Index: i, IsIndex: true}, item)
		}
		return out
	case *tonl.Object:
		members := v.Members()
		out := make([]node, len(members))
		for i, m := range members {
			out[i] = e.at(n, Step{Key: m.Key}, m.Value)
		}
		return out
	}
	return nil
}

// run applies segments left to right. Each segment maps every current
// node independently and the results are concatenated in order.
func (e *evaluator) run(root tonl.Value, p *Path) ([]node, error) {
	cur := []node{{value: root}}
	for i, seg := range p.Segments {
		e.seg = i
		var next []node
		for _, n := range cur {
			out, err := e.apply(seg, n, next)
			if err != nil {
				return nil, err
			}
			next = out
		}
		cur = next
		if len(cur) == 0 {
			return nil, nil
		}
	}
	return cur, nil
}

func (e *evaluator) apply(seg Segment, n node, out []node) ([]node, error) {
	switch s := seg.(type) {
	case Root:
		return append(out, n), nil

	case Child:
		if obj, ok := n.value.(*tonl.Object); ok {
			if v, ok := obj.Get(s.Name); ok {
				out = append(out, e.at(n, Step{Key: s.Name}, v))
			}
		}
		return out, nil

	case Index:
		if list, ok := n.value.(*tonl.List); ok {
			i := s.Index
			if i < 0 {
				i += list.Len()
			}
			if i >= 0 && i < list.Len() {
				out = append(out, e.at(n, Step{Index: i, IsIndex: true}, list.Items[i]))
			}
		}
		return out, nil

	case Wildcard:
		return append(out, e.children(n)...), nil

	case Slice:
		if list, ok := n.value.(*tonl.List); ok {
			for _, i := range sliceIndices(list.Len(), s) {
				out = append(out, e.at(n, Step{Index: i, IsIndex: true}, list.Items[i]))
			}
		}
		return out, nil

	case RecursiveDescent:
		return e.descend(s, n, out)

	case Filter:
		for _, c := range e.children(n) {
			ok, err := e.test(s.Expr, c.value)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, c)
			}
		}
		return out, nil
	}
	return out, nil
}

// descend walks the subtree below n depth-first in pre-order with an
// explicit stack.
func (e *evaluator) descend(s RecursiveDescent, n node, out []node) ([]node, error) {
	type frame struct {
		n     node
		key   string
		isKey bool
		depth int
	}
	var stack []frame
	push := func(parent node, depth int) {
		kids := e.children(parent)
		obj, isObj := parent.value.(*tonl.Object)
		var keys []string
		if isObj {
			keys = obj.Keys()
		}
		for i := len(kids) - 1; i >= 0; i-- {
			f := frame{n: kids[i], depth: depth}
			if isObj {
				f.key, f.isKey = keys[i], true
			}
			stack = append(stack, f)
		}
	}

	push(n, 1)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > e.opts.MaxDepth {
			return nil, &EvalError{
				Segment: e.seg,
				Message: "recursive descent too deep",
				Err:     &tonl.LimitError{Limit: "depth", Max: e.opts.MaxDepth, Actual: f.depth},
			}
		}
		if s.Any || (f.isKey && f.key == s.Name) {
			out = append(out, f.n)
		}
		push(f.n, f.depth+1)
	}
	return out, nil
}

// sliceIndices returns the indices selected by s on a list of length n,
// following Python slice semantics.
func sliceIndices(n int, s Slice) []int {
	step := 1
	if s.Step != nil {
		step = *s.Step
	}
	if step == 0 || n == 0 {
		return nil
	}

	norm := func(i, lo, hi int) int {
		if i < 0 {
			i += n
		}
		if i < lo {
			return lo
		}
		if i > hi {
			return hi
		}
		return i
	}

	var out []int
	if step > 0 {
		start, end := 0, n
		if s.Start != nil {
			start = norm(*s.Start, 0, n)
		}
		if s.End != nil {
			end = norm(*s.End, 0, n)
		}
		for i := start; i < end; i += step {
			out = append(out, i)
		}
		return out
	}

	start, end := n-1, -1
	if s.Start != nil {
		start = norm(*s.Start, -1, n-1)
	}
	if s.End != nil {
		end = norm(*s.End, -1, n-1)
	}
	for i := start; i > end; i += step {
		out = append(out, i)
	}
	return out
}

// ============================================================
// Filter predicates
// ============================================================

// operand is an expression result. ok is false when a field is missing.
type operand struct {
	value tonl.Value
	ok    bool
}

func (e *evaluator) test(x Expr, current tonl.Value) (bool, error) {
	v, err := e.eval(x, current)
	if err != nil {
		return false, err
	}
	return v.ok && truthy(v.value), nil
}

func (e *evaluator) eval(x Expr, current tonl.Value) (operand, error) {
	switch ex := x.(type) {
	case Literal:
		return operand{value: ex.Value, ok: ex.Value != nil}, nil

	case Current:
		return resolveCurrent(current, ex.Segments), nil

	case Not:
		b, err := e.test(ex.X, current)
		if err != nil {
			return operand{}, err
		}
		return operand{value: tonl.Bool(!b), ok: true}, nil

	case Logical:
		left, err := e.test(ex.Left, current)
		if err != nil {
			return operand{}, err
		}
		if (ex.Op == OpAnd && !left) || (ex.Op == OpOr && left) {
			return operand{value: tonl.Bool(left), ok: true}, nil
		}
		right, err := e.test(ex.Right, current)
		if err != nil {
			return operand{}, err
		}
		return operand{value: tonl.Bool(right), ok: true}, nil

	case Comparison:
		l, err := e.eval(ex.Left, current)
		if err != nil {
			return operand{}, err
		}
		r, err := e.eval(ex.Right, current)
		if err != nil {
			return operand{}, err
		}
		if ex.Op == OpMatches {
			ok, err := e.matches(l, r)
			return operand{value: tonl.Bool(ok), ok: true}, err
		}
		return operand{value: tonl.Bool(compare(ex.Op, l, r)), ok: true}, nil
	}
	return operand{}, &EvalError{Segment: e.seg, Message: "malformed filter expression"}
}

func resolveCurrent(v tonl.Value, segs []Segment) operand {
	for _, seg := range segs {
		switch s := seg.(type) {
		case Child:
			obj, ok := v.(*tonl.Object)
			if !ok {
				return operand{}
			}
			if v, ok = obj.Get(s.Name); !ok {
				return operand{}
			}
		case Index:
			list, ok := v.(*tonl.List)
			if !ok {
				return operand{}
			}
			i := s.Index
			if i < 0 {
				i += list.Len()
			}
			if i < 0 || i >= list.Len() {
				return operand{}
			}
			v = list.Items[i]
		default:
			return operand{}
		}
	}
	return operand{value: v, ok: true}
}

// matches runs a pattern through the safety layer. Compiled patterns are
// reused for the rest of the evaluation.
func (e *evaluator) matches(l, r operand) (bool, error) {
	pat, ok := r.value.(tonl.String)
	if !r.ok || !ok {
		return false, &EvalError{Segment: e.seg, Message: "matches needs a string pattern"}
	}
	m, ok := e.matchers[string(pat)]
	if !ok {
		var err error
		m, err = pattern.Compile(string(pat), e.opts.Pattern)
		if err != nil {
			return false, &EvalError{Segment: e.seg, Message: "pattern rejected", Err: err}
		}
		if e.matchers == nil {
			e.matchers = make(map[string]*pattern.Matcher)
		}
		e.matchers[string(pat)] = m
	}
	s, ok := l.value.(tonl.String)
	if !l.ok || !ok {
		return false, nil
	}
	matched, err := m.Match(string(s))
	if err != nil {
		return false, &EvalError{Segment: e.seg, Message: "pattern match failed", Err: err}
	}
	return matched, nil
}

// compare applies a non-pattern operator. Two numbers compare
// numerically; other kinds are never converted.
func compare(op CompareOp, l, r operand) bool {
	if !l.ok || !r.ok {
		switch op {
		case OpEq:
			return !l.ok && !r.ok
		case OpNe:
			return l.ok != r.ok
		}
		return false
	}
	a, b := l.value, r.value

	if tonl.IsNumber(a) && tonl.IsNumber(b) {
		c, ok := compareNumbers(a, b)
		if !ok {
			return op == OpNe
		}
		switch op {
		case OpEq:
			return c == 0
		case OpNe:
			return c != 0
		case OpGt:
			return c > 0
		case OpGe:
			return c >= 0
		case OpLt:
			return c < 0
		case OpLe:
			return c <= 0
		}
		return false
	}

	switch op {
	case OpEq:
		return equalValues(a, b)
	case OpNe:
		return !equalValues(a, b)
	case OpGt, OpGe, OpLt, OpLe:
		as, aok := a.(tonl.String)
		bs, bok := b.(tonl.String)
		if !aok || !bok {
			return false
		}
		c := strings.Compare(string(as), string(bs))
		switch op {
		case OpGt:
			return c > 0
		case OpGe:
			return c >= 0
		case OpLt:
			return c < 0
		}
		return c <= 0
	case OpContains:
		switch av := a.(type) {
		case tonl.String:
			bs, ok := b.(tonl.String)
			return ok && strings.Contains(string(av), string(bs))
		case *tonl.List:
			for _, item := range av.Items {
				if equalValues(item, b) {
					return true
				}
			}
		case *tonl.Object:
			bs, ok := b.(tonl.String)
			return ok && av.Has(string(bs))
		}
		return false
	case OpStartsWith, OpEndsWith:
		as, aok := a.(tonl.String)
		bs, bok := b.(tonl.String)
		if !aok || !bok {
			return false
		}
		if op == OpStartsWith {
			return strings.HasPrefix(string(as), string(bs))
		}
		return strings.HasSuffix(string(as), string(bs))
	}
	return false
}

// compareNumbers orders two numbers. Two integers compare exactly.
// ok is false when either side is NaN.
func compareNumbers(a, b tonl.Value) (int, bool) {
	ai, aInt := a.(tonl.Int)
	bi, bInt := b.(tonl.Int)
	if aInt && bInt {
		switch {
		case ai < bi:
			return -1, true
		case ai > bi:
			return 1, true
		}
		return 0, true
	}
	af, _ := tonl.AsFloat(a)
	bf, _ := tonl.AsFloat(b)
	if math.IsNaN(af) || math.IsNaN(bf) {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	}
	return 0, true
}

func equalValues(a, b tonl.Value) bool {
	if tonl.IsNumber(a) && tonl.IsNumber(b) {
		c, ok := compareNumbers(a, b)
		return ok && c == 0
	}
	return tonl.Equal(a, b)
}

// truthy: null, false, zero, NaN and the empty string are false.
func truthy(v tonl.Value) bool {
	switch val := v.(type) {
	case nil, tonl.Null:
		return false
	case tonl.Bool:
		return bool(val)
	case tonl.Int:
		return val != 0
	case tonl.Float:
		return val != 0 && !math.IsNaN(float64(val))
	case tonl.String:
		return val != ""
	}
	return true
}
