package tonl

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, text string) *Object {
	t.Helper()
	v, err := Decode(text)
	require.NoError(t, err)
	obj, ok := v.(*Object)
	require.True(t, ok, "root is %T", v)
	return obj
}

func get(t *testing.T, v Value, keys ...string) Value {
	t.Helper()
	for _, k := range keys {
		obj, ok := v.(*Object)
		require.True(t, ok, "not an object at %q", k)
		v, ok = obj.Get(k)
		require.True(t, ok, "missing key %q", k)
	}
	return v
}

func TestDecode_Primitives(t *testing.T) {
	doc := mustDecode(t, `#version 1.0
s: hello world
q: "a, b"
n: 42
neg: -7
f: 3.0
e: 1.5e3
t: true
nil: null
empty: ""
num: "42"
nan: NaN
inf: -Infinity
dash: -
`)
	assert.Equal(t, String("hello world"), get(t, doc, "s"))
	assert.Equal(t, String("a, b"), get(t, doc, "q"))
	assert.Equal(t, Int(42), get(t, doc, "n"))
	assert.Equal(t, Int(-7), get(t, doc, "neg"))
	assert.Equal(t, Float(3), get(t, doc, "f"))
	assert.Equal(t, Float(1500), get(t, doc, "e"))
	assert.Equal(t, Bool(true), get(t, doc, "t"))
	assert.Equal(t, Null{}, get(t, doc, "nil"))
	assert.Equal(t, String(""), get(t, doc, "empty"))
	assert.Equal(t, String("42"), get(t, doc, "num"))
	assert.True(t, math.IsNaN(float64(get(t, doc, "nan").(Float))))
	assert.Equal(t, Float(math.Inf(-1)), get(t, doc, "inf"))
	assert.Equal(t, String("-"), get(t, doc, "dash"))
	assert.Equal(t, []string{"s", "q", "n", "neg", "f", "e", "t", "nil", "empty", "num", "nan", "inf", "dash"}, doc.Keys())
}

func TestDecode_IntOverflowBecomesFloat(t *testing.T) {
	doc := mustDecode(t, "big: 99999999999999999999\n")
	assert.Equal(t, KindFloat, get(t, doc, "big").Kind())
}

func TestDecode_NestedObjects(t *testing.T) {
	doc := mustDecode(t, `user{name,address}:
  name: Ada
  address{city,zip}:
    city: London
    zip: "01234"
empty{}:
`)
	assert.Equal(t, String("London"), get(t, doc, "user", "address", "city"))
	assert.Equal(t, String("01234"), get(t, doc, "user", "address", "zip"))
	assert.Equal(t, 0, get(t, doc, "empty").(*Object).Len())
}

func TestDecode_Comments(t *testing.T) {
	doc := mustDecode(t, `# leading comment
#version 1.0
a: 1
  # indented comment
b{x}:
  # inside a block
  x: 2
`)
	assert.Equal(t, Int(1), get(t, doc, "a"))
	assert.Equal(t, Int(2), get(t, doc, "b", "x"))
}

func TestDecode_PrimitiveList(t *testing.T) {
	doc := mustDecode(t, `tags[3]: a, "b, c", 3
none[0]:
`)
	tags := get(t, doc, "tags").(*List)
	assert.Equal(t, []Value{String("a"), String("b, c"), Int(3)}, tags.Items)
	assert.Equal(t, 0, get(t, doc, "none").(*List).Len())
}

func TestDecode_ZeroLengthIsAuthoritative(t *testing.T) {
	doc := mustDecode(t, `a[0]: stray, fields
b[0]{id,name}: 1, Alice, 2, Bob
c[1]{id}: 1, 2, 3
`)
	assert.Equal(t, 0, get(t, doc, "a").(*List).Len())
	assert.Equal(t, 0, get(t, doc, "b").(*List).Len())
	assert.Equal(t, 1, get(t, doc, "c").(*List).Len())
}

func TestDecode_InlineTable(t *testing.T) {
	doc := mustDecode(t, `users[2]{id,name}: 1, Alice, 2, Bob
rest[]{id,name}: 1, A, 2, B, 3
`)
	users := get(t, doc, "users").(*List)
	require.Equal(t, 2, users.Len())
	assert.Equal(t, String("Bob"), get(t, users.Items[1], "name"))

	rest := get(t, doc, "rest").(*List)
	assert.Equal(t, 2, rest.Len(), "row count computed from fields when length is absent")
}

func TestDecode_Table(t *testing.T) {
	doc := mustDecode(t, `items[3]{name,status}:
  Alice, -
  Bob, active
  Charlie,
`)
	items := get(t, doc, "items").(*List)
	require.Equal(t, 3, items.Len())
	assert.Equal(t, String("-"), get(t, items.Items[0], "status"))
	assert.Equal(t, String("active"), get(t, items.Items[1], "status"))
	assert.False(t, items.Items[2].(*Object).Has("status"))
}

func TestDecode_TableRowsAtHeaderIndent(t *testing.T) {
	doc := mustDecode(t, "#version 1.0\nusers[2]{id,name,role}:\n1,Alice,admin\n2,Bob,user")
	users := get(t, doc, "users").(*List)
	require.Equal(t, 2, users.Len())
	assert.Equal(t, Int(1), get(t, users.Items[0], "id"))
	assert.Equal(t, String("admin"), get(t, users.Items[0], "role"))
	assert.Equal(t, String("Bob"), get(t, users.Items[1], "name"))

	doc = mustDecode(t, "#version 1.0\nusers[2]{id,name}:\n1,Alice\n2,Bob")
	assert.True(t, Equal(NewList(
		obj(m("id", Int(1)), m("name", String("Alice"))),
		obj(m("id", Int(2)), m("name", String("Bob"))),
	), get(t, doc, "users")))

	// rows stop at the declared length, and at the next header
	doc = mustDecode(t, "cfg{rows,n}:\n  rows[1]{a}:\n  x\n  n: 2\nafter: yes\n")
	assert.Equal(t, 1, get(t, doc, "cfg", "rows").(*List).Len())
	assert.Equal(t, Int(2), get(t, doc, "cfg", "n"))
	assert.Equal(t, String("yes"), get(t, doc, "after"))

	doc = mustDecode(t, "rows[3]{a}:\n1\nnext: 2\n")
	assert.Equal(t, 1, get(t, doc, "rows").(*List).Len())
	assert.Equal(t, Int(2), get(t, doc, "next"))

	opts := DefaultDecodeOptions()
	opts.Strict = true
	_, err := DecodeWithOptions("rows[3]{a}:\n1\nnext: 2\n", opts)
	var se *StructuralError
	require.True(t, errors.As(err, &se))
}

func TestDecode_TableWithHints(t *testing.T) {
	doc := mustDecode(t, `rows[2]{id:u32,score:f64,code:str,ok:bool}:
  1, 2, 007, true
  2, 2.5, abc, false
`)
	rows := get(t, doc, "rows").(*List)
	assert.Equal(t, Int(1), get(t, rows.Items[0], "id"))
	assert.Equal(t, Float(2), get(t, rows.Items[0], "score"))
	assert.Equal(t, String("007"), get(t, rows.Items[0], "code"))
	assert.Equal(t, Bool(false), get(t, rows.Items[1], "ok"))
}

func TestDecode_TabDelimiter(t *testing.T) {
	doc := mustDecode(t, "#version 1.0\n#delimiter \\t\nrows[2]{a,b}:\n  x,y\tz\n  \tonly-b\n")
	rows := get(t, doc, "rows").(*List)
	assert.Equal(t, String("x,y"), get(t, rows.Items[0], "a"))
	assert.Equal(t, String("z"), get(t, rows.Items[0], "b"))
	assert.False(t, rows.Items[1].(*Object).Has("a"))
	assert.Equal(t, String("only-b"), get(t, rows.Items[1], "b"))
}

func TestDecode_MixedList(t *testing.T) {
	doc := mustDecode(t, `events[4]:
  [0]: started
  [1]{at,level}:
    at: 12
    level: warn
  [2][2]: 3, 4
  [3][1]{k}:
    v
`)
	events := get(t, doc, "events").(*List)
	require.Equal(t, 4, events.Len())
	assert.Equal(t, String("started"), events.Items[0])
	assert.Equal(t, String("warn"), get(t, events.Items[1], "level"))
	assert.Equal(t, []Value{Int(3), Int(4)}, events.Items[2].(*List).Items)
	assert.Equal(t, String("v"), get(t, events.Items[3].(*List).Items[0], "k"))
}

func TestDecode_InlineObject(t *testing.T) {
	doc := mustDecode(t, `p{x:f64,label,note}: x: 1 label: two words note: "a: b"`)
	assert.Equal(t, Float(1), get(t, doc, "p", "x"))
	assert.Equal(t, String("two words"), get(t, doc, "p", "label"))
	assert.Equal(t, String("a: b"), get(t, doc, "p", "note"))
}

func TestDecode_QuotedKeys(t *testing.T) {
	doc := mustDecode(t, `"te:st": test1
"": empty key
"a b"{"c,d"}:
  "c,d": 1
`)
	assert.Equal(t, String("test1"), get(t, doc, "te:st"))
	assert.Equal(t, String("empty key"), get(t, doc, ""))
	assert.Equal(t, Int(1), get(t, doc, "a b", "c,d"))
}

func TestDecode_TripleQuoted(t *testing.T) {
	doc := mustDecode(t, "bio: \"\"\"first\n  second \\\"q\\\"\n#not a comment\"\"\"\nnext: 1\n")
	assert.Equal(t, String("first\n  second \"q\"\n#not a comment"), get(t, doc, "bio"))
	assert.Equal(t, Int(1), get(t, doc, "next"))
}

func TestDecode_RootDirective(t *testing.T) {
	v, err := Decode("#version 1.0\n#root\nroot[3]: 1, 2, 3\n")
	require.NoError(t, err)
	assert.Equal(t, NewList(Int(1), Int(2), Int(3)), v)

	v, err = Decode("#root\nroot: hi\n")
	require.NoError(t, err)
	assert.Equal(t, String("hi"), v)

	_, err = Decode("#root\nroot: 1\nother: 2\n")
	assert.Error(t, err)
}

func TestDecode_TypesDirective(t *testing.T) {
	doc := mustDecode(t, "#types zip:str,ratio:f64\nzip: 01234\nratio: 2\n")
	assert.Equal(t, String("01234"), get(t, doc, "zip"))
	assert.Equal(t, Float(2), get(t, doc, "ratio"))
}

func TestDecode_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		line int
	}{
		{"missing colon", "a: 1\nb\n", 2},
		{"missing value", "a: 1\nb:\n", 2},
		{"unterminated string", "a: \"open\n", 1},
		{"unterminated triple", "a: \"\"\"open\nstill\n", 1},
		{"bad indentation", "a{x,y}:\n    x: 1\n  y: 2\n", 3},
		{"item outside list", "[0]: x\n", 1},
		{"bad hint", "a[1]{x:int}:\n  1\n", 1},
		{"bad delimiter", "#delimiter /\na: 1\n", 1},
		{"inline and block", "a: 1\n  b: 2\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Decode(tt.in)
			assert.Nil(t, v)
			var se *SyntaxError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.line, se.Line)
		})
	}
}

func TestDecode_StructuralErrorsAggregate(t *testing.T) {
	v, err := Decode(`rows[3]{id:u32,name:str}:
  -1, a
  2, b
  5000000000, c
flag{on:bool}:
  on: yes
`)
	assert.Nil(t, v, "no partial value on failure")
	var se *StructuralError
	require.True(t, errors.As(err, &se), "got %v", err)
	require.Equal(t, 3, se.Len())

	fields := se.Fields()
	assert.Equal(t, "rows[0].id", fields[0].Path)
	assert.Equal(t, 2, fields[0].Line)
	assert.Equal(t, HintU32, fields[0].Hint)
	assert.Equal(t, "rows[2].id", fields[1].Path)
	assert.Equal(t, "flag.on", fields[2].Path)
	assert.Contains(t, err.Error(), "out of range for u32")
}

func TestDecode_StrictLengths(t *testing.T) {
	text := "a[3]: 1, 2\nb[1]{x}:\n  1\n  2\n"

	doc, err := Decode(text)
	require.NoError(t, err)
	assert.Equal(t, 2, get(t, doc, "a").(*List).Len())
	assert.Equal(t, 1, get(t, doc, "b").(*List).Len())

	opts := DefaultDecodeOptions()
	opts.Strict = true
	_, err = DecodeWithOptions(text, opts)
	var se *StructuralError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Len())
}

func TestDecode_Limits(t *testing.T) {
	var le *LimitError

	_, err := DecodeWithOptions("a: 1\n", DecodeOptions{Limits: Limits{MaxInputBytes: 3}})
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "input-bytes", le.Limit)

	deep := "a{b}:\n  b{c}:\n    c: 1\n"
	_, err = DecodeWithOptions(deep, DecodeOptions{Limits: Limits{MaxDepth: 2}})
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "depth", le.Limit)

	_, err = DecodeWithOptions("a[4]: 1, 2, 3, 4\n", DecodeOptions{Limits: Limits{MaxNodes: 3}})
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "nodes", le.Limit)

	wide := "a: 1\nb: 2\nc: 3\n"
	_, err = DecodeWithOptions(wide, DecodeOptions{Limits: Limits{MaxProperties: 2}})
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "properties", le.Limit)
}

func TestDecodeDocument_Directives(t *testing.T) {
	doc, err := DecodeDocument("#version 2.1\n#delimiter |\n#types id:u32\nids[2]: 1| 2\n", DefaultDecodeOptions())
	require.NoError(t, err)
	assert.Equal(t, "2.1", doc.Version)
	assert.Equal(t, Pipe, doc.Delimiter)
	assert.Equal(t, HintU32, doc.Types["id"])
}

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader(`users[2]{id:u32,"full name"}: rest`)
	require.NoError(t, err)
	assert.Equal(t, "users", h.Key)
	assert.True(t, h.IsArray)
	assert.True(t, h.HasLength)
	assert.Equal(t, 2, h.Length)
	assert.Equal(t, []Column{{Name: "id", Hint: HintU32}, {Name: "full name"}}, h.Columns)
	assert.Equal(t, "rest", h.Rest)
	assert.Equal(t, `users[2]{id:u32,"full name"}:`, h.String())

	h, err = ParseHeader("[3][]:")
	require.NoError(t, err)
	assert.True(t, h.IsItem)
	assert.Equal(t, 3, h.Item)
	assert.True(t, h.IsArray)
	assert.False(t, h.HasLength)

	_, err = ParseHeader("a[x]:")
	assert.Error(t, err)
	_, err = ParseHeader("a{b")
	assert.Error(t, err)
}
