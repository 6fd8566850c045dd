package query

import (
	"testing"

	"github.com/Neumenon/tonl/tonl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func segs(s ...Segment) []Segment {
	return append([]Segment{Root{}}, s...)
}

func TestParse_Segments(t *testing.T) {
	tests := []struct {
		expr string
		want []Segment
	}{
		{"$", segs()},
		{"$.a.b", segs(Child{"a"}, Child{"b"})},
		{"a.b", segs(Child{"a"}, Child{"b"})},
		{"null.x", segs(Child{"null"}, Child{"x"})},
		{"[0]", segs(Index{0})},
		{"$['a b'][\"c\"]", segs(Child{"a b"}, Child{"c"})},
		{"$.items[-1]", segs(Child{"items"}, Index{-1})},
		{"$.items[*]", segs(Child{"items"}, Wildcard{})},
		{"$.items.*", segs(Child{"items"}, Wildcard{})},
		{"$[1:3]", segs(Slice{Start: intPtr(1), End: intPtr(3)})},
		{"$[:3]", segs(Slice{End: intPtr(3)})},
		{"$[2:]", segs(Slice{Start: intPtr(2)})},
		{"$[::-1]", segs(Slice{Step: intPtr(-1)})},
		{"$[5:2:-1]", segs(Slice{Start: intPtr(5), End: intPtr(2), Step: intPtr(-1)})},
		{"$..name", segs(RecursiveDescent{Name: "name"})},
		{"$..*", segs(RecursiveDescent{Any: true})},
		{"$..['a b']", segs(RecursiveDescent{Name: "a b"})},
		{"$.a.0", segs(Child{"a"}, Child{"0"})},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Segments)
			assert.Equal(t, tt.expr, p.Expr)
		})
	}
}

func TestParse_Filter(t *testing.T) {
	p, err := Parse(`$.users[?(@.age > 25 && @.role == "admin" || !@.active)]`)
	require.NoError(t, err)
	require.Len(t, p.Segments, 3)

	want := Filter{Expr: Logical{
		Op: OpOr,
		Left: Logical{
			Op:    OpAnd,
			Left:  Comparison{Op: OpGt, Left: Current{Segments: []Segment{Child{"age"}}}, Right: Literal{tonl.Int(25)}},
			Right: Comparison{Op: OpEq, Left: Current{Segments: []Segment{Child{"role"}}}, Right: Literal{tonl.String("admin")}},
		},
		Right: Not{X: Current{Segments: []Segment{Child{"active"}}}},
	}}
	assert.Equal(t, want, p.Segments[2])
}

func TestParse_FilterOperands(t *testing.T) {
	p, err := Parse(`$[?((@['a b'][0] >= -1.5) && @ != null && @.t matches '^x' && @.n contains true)]`)
	require.NoError(t, err)

	f := p.Segments[1].(Filter)
	and := f.Expr.(Logical)
	assert.Equal(t, OpAnd, and.Op)
	last := and.Right.(Comparison)
	assert.Equal(t, OpContains, last.Op)
	assert.Equal(t, Literal{tonl.Bool(true)}, last.Right)

	first := and.Left.(Logical).Left.(Logical).Left.(Comparison)
	assert.Equal(t, OpGe, first.Op)
	assert.Equal(t, Current{Segments: []Segment{Child{"a b"}, Index{0}}}, first.Left)
	assert.Equal(t, Literal{tonl.Float(-1.5)}, first.Right)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		expr string
		kind ErrorKind
		pos  int
	}{
		{"", ErrEmptyExpression, 0},
		{"   ", ErrEmptyExpression, 0},
		{"$.", ErrUnexpectedEnd, 2},
		{"$[", ErrUnexpectedEnd, 2},
		{"$[1", ErrUnexpectedEnd, 3},
		{"$abc", ErrUnexpectedToken, 1},
		{"$[1.5]", ErrInvalidNumber, 2},
		{"$[?(@.a ==)]", ErrUnexpectedToken, 10},
		{"$[?(@.a == 1]", ErrUnexpectedToken, 12},
		{"$..", ErrUnexpectedEnd, 3},
		{"$..[0]", ErrUnexpectedToken, 4},
		{"$[99999999999999999999]", ErrInvalidNumber, 2},
		{"*", ErrUnexpectedToken, 0},
		{`$["x`, ErrUnterminatedString, 2},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Parse(tt.expr)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.kind, se.Kind, se.Error())
			assert.Equal(t, tt.pos, se.Pos, se.Error())
		})
	}
}

func TestParse_DeepNesting(t *testing.T) {
	expr := "$[?("
	for i := 0; i < 300; i++ {
		expr += "!"
	}
	expr += "@.a)]"
	_, err := Parse(expr)
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
}

func TestString_RoundTrip(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"a.b", "$.a.b"},
		{"$['a b'].c", "$['a b'].c"},
		{`$["it's"]`, `$['it\'s']`},
		{"$.items.*", "$.items[*]"},
		{"$[1:3]", "$[1:3]"},
		{"$[::-1]", "$[::-1]"},
		{"$[2:]", "$[2:]"},
		{"$..name", "$..name"},
		{"$..*", "$..*"},
		{"$..['x y']", "$..['x y']"},
		{"$.items[-1]", "$.items[-1]"},
		{`$[?(@.a>1&&@.b=='x')]`, `$[?(@.a > 1 && @.b == "x")]`},
		{`$[?(@.a || @.b && @.c)]`, `$[?(@.a || @.b && @.c)]`},
		{`$[?((@.a || @.b) && @.c)]`, `$[?((@.a || @.b) && @.c)]`},
		{`$[?(!(@.a == 1))]`, `$[?(!(@.a == 1))]`},
		{`$[?(!!@.a)]`, `$[?(!!@.a)]`},
		{`$[?(@['x y'][0] == 2.0)]`, `$[?(@['x y'][0] == 2.0)]`},
		{`$[?(@.s == "a\"b" && @.f == 1e+21 && @.n == null)]`, `$[?(@.s == "a\"b" && @.f == 1e+21 && @.n == null)]`},
		{`$[?(@.name matches '^A')]`, `$[?(@.name matches "^A")]`},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p := MustParse(tt.expr)
			got := String(p)
			assert.Equal(t, tt.want, got)

			again, err := Parse(got)
			require.NoError(t, err)
			assert.Equal(t, p.Segments, again.Segments)
			assert.Equal(t, got, again.String())
		})
	}
}
