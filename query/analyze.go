package query

// Analysis summarizes the shape and cost of a path.
type Analysis struct {
	Depth        int // segments plus the deepest filter expression
	Segments     int // excluding Root
	Expanding    bool
	HasFilter    bool
	HasRecursive bool
	HasWildcard  bool
	HasSlice     bool
	Complexity   int // relative evaluation cost
}

// Analyze inspects p without evaluating it.
func Analyze(p *Path) Analysis {
	var a Analysis
	exprDepth := 0
	for _, seg := range p.Segments {
		switch s := seg.(type) {
		case Root:
			continue
		case Child, Index:
			a.Complexity++
		case Wildcard:
			a.HasWildcard = true
			a.Complexity += 2
		case Slice:
			a.HasSlice = true
			a.Complexity += 2
		case RecursiveDescent:
			a.HasRecursive = true
			a.Complexity += 5
		case Filter:
			a.HasFilter = true
			d, cost := exprCost(s.Expr)
			if d > exprDepth {
				exprDepth = d
			}
			a.Complexity += 3 + cost
		}
		a.Segments++
		if expands(seg) {
			a.Expanding = true
		}
	}
	a.Depth = a.Segments + exprDepth
	return a
}

// exprCost returns the depth of e and a cost weighting pattern matches.
func exprCost(e Expr) (depth, cost int) {
	switch x := e.(type) {
	case Logical:
		ld, lc := exprCost(x.Left)
		rd, rc := exprCost(x.Right)
		return 1 + max(ld, rd), 1 + lc + rc
	case Not:
		d, c := exprCost(x.X)
		return 1 + d, 1 + c
	case Comparison:
		ld, lc := exprCost(x.Left)
		rd, rc := exprCost(x.Right)
		cost = 1 + lc + rc
		if x.Op == OpMatches {
			cost += 5
		}
		return 1 + max(ld, rd), cost
	case Current:
		return 1, len(x.Segments)
	case Literal:
		return 1, 0
	}
	return 0, 0
}
