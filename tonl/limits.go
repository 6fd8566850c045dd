package tonl

import "fmt"

// Default size and complexity gates.
const (
	DefaultMaxInputBytes = 10 * 1024 * 1024
	DefaultMaxDepth      = 100
	DefaultMaxNodes      = 1_000_000
	DefaultMaxProperties = 100_000

	// MaxIndentLevel and MaxIndentSpaces bound MakeIndent.
	MaxIndentLevel  = 1000
	MaxIndentSpaces = 16
)

// Limits bounds the work done on a single input.
// Zero fields fall back to the defaults.
type Limits struct {
	MaxInputBytes int // raw input size, checked before parsing
	MaxDepth      int // nesting depth of lists and objects
	MaxNodes      int // total values in the tree
	MaxProperties int // members of a single object
}

// DefaultLimits returns the default gates.
func DefaultLimits() Limits {
	return Limits{
		MaxInputBytes: DefaultMaxInputBytes,
		MaxDepth:      DefaultMaxDepth,
		MaxNodes:      DefaultMaxNodes,
		MaxProperties: DefaultMaxProperties,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxInputBytes <= 0 {
		l.MaxInputBytes = d.MaxInputBytes
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = d.MaxDepth
	}
	if l.MaxNodes <= 0 {
		l.MaxNodes = d.MaxNodes
	}
	if l.MaxProperties <= 0 {
		l.MaxProperties = d.MaxProperties
	}
	return l
}

// LimitError reports input rejected by a size or complexity gate.
type LimitError struct {
	Limit  string // input-bytes, depth, nodes, properties, indent-level, indent-spaces
	Max    int
	Actual int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("tonl: %s limit exceeded: %d > %d", e.Limit, e.Actual, e.Max)
}

// guard counts nodes and tracks depth while a tree is being built.
type guard struct {
	limits Limits
	nodes  int
}

func newGuard(l Limits) *guard {
	return &guard{limits: l.withDefaults()}
}

func (g *guard) node() error {
	g.nodes++
	if g.nodes > g.limits.MaxNodes {
		return &LimitError{Limit: "nodes", Max: g.limits.MaxNodes, Actual: g.nodes}
	}
	return nil
}

func (g *guard) depth(d int) error {
	if d > g.limits.MaxDepth {
		return &LimitError{Limit: "depth", Max: g.limits.MaxDepth, Actual: d}
	}
	return nil
}

func (g *guard) properties(n int) error {
	if n > g.limits.MaxProperties {
		return &LimitError{Limit: "properties", Max: g.limits.MaxProperties, Actual: n}
	}
	return nil
}

func (g *guard) input(n int) error {
	if n > g.limits.MaxInputBytes {
		return &LimitError{Limit: "input-bytes", Max: g.limits.MaxInputBytes, Actual: n}
	}
	return nil
}

// Depth returns the nesting depth of v. Scalars have depth 0.
func Depth(v Value) int {
	type frame struct {
		v Value
		d int
	}
	deepest := 0
	stack := []frame{{v, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch c := f.v.(type) {
		case *List:
			if f.d+1 > deepest {
				deepest = f.d + 1
			}
			for _, item := range c.Items {
				stack = append(stack, frame{item, f.d + 1})
			}
		case *Object:
			if f.d+1 > deepest {
				deepest = f.d + 1
			}
			for _, m := range c.members {
				stack = append(stack, frame{m.Value, f.d + 1})
			}
		}
	}
	return deepest
}
