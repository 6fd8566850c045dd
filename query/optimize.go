package query

import (
	"github.com/Neumenon/tonl/tonl"
)

// Optimize returns a simplified copy of p. Constant comparisons and
// logical identities are folded and a filter that is constantly truthy
// becomes a wildcard. p is not modified and results are unchanged.
func Optimize(p *Path) *Path {
	out := &Path{Expr: p.Expr, Segments: make([]Segment, len(p.Segments))}
	for i, seg := range p.Segments {
		f, ok := seg.(Filter)
		if !ok {
			out.Segments[i] = seg
			continue
		}
		expr := fold(f.Expr)
		if lit, ok := expr.(Literal); ok && truthy(lit.Value) {
			out.Segments[i] = Wildcard{}
			continue
		}
		out.Segments[i] = Filter{Expr: expr}
	}
	return out
}

func fold(e Expr) Expr {
	switch x := e.(type) {
	case Logical:
		left, right := fold(x.Left), fold(x.Right)
		if lit, ok := left.(Literal); ok {
			t := truthy(lit.Value)
			switch {
			case x.Op == OpAnd && !t:
				return Literal{Value: tonl.Bool(false)}
			case x.Op == OpOr && t:
				return Literal{Value: tonl.Bool(true)}
			default:
				return asPredicate(right)
			}
		}
		if lit, ok := right.(Literal); ok {
			t := truthy(lit.Value)
			// the left side still runs first; it may only be dropped when
			// it cannot fail
			switch {
			case x.Op == OpAnd && !t && !hasMatches(left):
				return Literal{Value: tonl.Bool(false)}
			case x.Op == OpOr && t && !hasMatches(left):
				return Literal{Value: tonl.Bool(true)}
			case (x.Op == OpAnd) == t:
				return asPredicate(left)
			}
		}
		return Logical{Op: x.Op, Left: left, Right: right}

	case Not:
		inner := fold(x.X)
		switch in := inner.(type) {
		case Literal:
			return Literal{Value: tonl.Bool(!truthy(in.Value))}
		case Not:
			return asPredicate(in.X)
		}
		return Not{X: inner}

	case Comparison:
		left, right := fold(x.Left), fold(x.Right)
		ll, lok := left.(Literal)
		rl, rok := right.(Literal)
		if lok && rok && x.Op != OpMatches {
			return Literal{Value: tonl.Bool(compare(x.Op, operand{value: ll.Value, ok: true}, operand{value: rl.Value, ok: true}))}
		}
		return Comparison{Op: x.Op, Left: left, Right: right}
	}
	return e
}

// asPredicate keeps the truthiness of e when it replaces a logical node,
// whose result is always a boolean.
func asPredicate(e Expr) Expr {
	switch x := e.(type) {
	case Literal:
		return Literal{Value: tonl.Bool(truthy(x.Value))}
	case Current:
		return Not{X: Not{X: x}}
	}
	return e
}

// hasMatches reports whether e contains a matches comparison, the only
// filter operation that can fail at evaluation time.
func hasMatches(e Expr) bool {
	switch x := e.(type) {
	case Logical:
		return hasMatches(x.Left) || hasMatches(x.Right)
	case Not:
		return hasMatches(x.X)
	case Comparison:
		return x.Op == OpMatches || hasMatches(x.Left) || hasMatches(x.Right)
	}
	return false
}
