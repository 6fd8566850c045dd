package document

import (
	"errors"
	"testing"

	"github.com/Neumenon/tonl/tonl"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	tests := []struct {
		name string
		src  string
		path string
		v    tonl.Value
		want string
	}{
		{"simple", `{"user":{"name":"Alice"}}`, "user.name", tonl.String("Bob"), `{"user":{"name":"Bob"}}`},
		{"nested", `{"user":{"profile":{"age":30}}}`, "user.profile.age", tonl.Int(31), `{"user":{"profile":{"age":31}}}`},
		{"array element", `{"items":[1,2,3]}`, "items[0]", tonl.Int(10), `{"items":[10,2,3]}`},
		{"element member", `{"users":[{"id":1,"name":"Alice"}]}`, "users[0].name", tonl.String("Bob"), `{"users":[{"id":1,"name":"Bob"}]}`},
		{"negative index", `{"items":[1,2,3]}`, "items[-1]", tonl.Int(99), `{"items":[1,2,99]}`},
		{"pads with null", `{"items":[1]}`, "items[3]", tonl.String("x"), `{"items":[1,null,null,"x"]}`},
		{"appends at length", `{"items":[1]}`, "items[1]", tonl.Int(2), `{"items":[1,2]}`},
		{"intermediate objects", `{}`, "user.profile.age", tonl.Int(30), `{"user":{"profile":{"age":30}}}`},
		{"intermediate list", `{}`, "items[0]", tonl.String("first"), `{"items":["first"]}`},
		{"list then object", `{}`, "rows[0].id", tonl.Int(7), `{"rows":[{"id":7}]}`},
		{"deep", `{}`, "a.b.c.d.e", tonl.String("value"), `{"a":{"b":{"c":{"d":{"e":"value"}}}}}`},
		{"replaces null step", `{"a":null}`, "a.b", tonl.Int(1), `{"a":{"b":1}}`},
		{"null value", `{"v":"x"}`, "v", nil, `{"v":null}`},
		{"object value", `{"data":{}}`, "data", tonl.ObjectOf(tonl.Member{Key: "key", Value: tonl.String("value")}), `{"data":{"key":"value"}}`},
		{"quoted key", `{}`, "['a b'].c", tonl.Bool(true), `{"a b":{"c":true}}`},
		{"root", `{"a":1}`, "$", tonl.NewList(tonl.Int(1)), `[1]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := fromJSON(t, tt.src)
			require.NoError(t, doc.Set(tt.path, tt.v))
			assert.JSONEq(t, tt.want, jsonOf(t, doc))
		})
	}
}

func TestSet_KeepsMemberOrder(t *testing.T) {
	doc := fromJSON(t, `{"a":1,"b":2,"c":3}`)
	require.NoError(t, doc.Set("b", tonl.Int(20)))
	require.NoError(t, doc.Set("d", tonl.Int(4)))
	assert.Equal(t, []string{"a", "b", "c", "d"}, doc.Keys())
}

func TestSet_NullRoot(t *testing.T) {
	doc := FromValue(nil, DefaultOptions())
	require.NoError(t, doc.Set("a.b", tonl.Int(1)))
	assert.JSONEq(t, `{"a":{"b":1}}`, jsonOf(t, doc))

	doc = FromValue(tonl.Null{}, DefaultOptions())
	require.NoError(t, doc.Set("[1]", tonl.Int(1)))
	assert.JSONEq(t, `[null,1]`, jsonOf(t, doc))
}

func TestSet_Failures(t *testing.T) {
	tests := []struct {
		path string
		want error
	}{
		{"users[*].name", ErrNotAddressable},
		{"users[0:1]", ErrNotAddressable},
		{"$..id", ErrNotAddressable},
		{"user.name.first", ErrNotObject},
		{"user[0]", ErrNotList},
		{"users.name", ErrNotObject},
		{"users[-10]", ErrIndexRange},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			doc := sample(t)
			err := doc.Set(tt.path, tonl.Int(1))
			assert.ErrorIs(t, err, tt.want)
			var oe *OpError
			require.True(t, errors.As(err, &oe))
			assert.Equal(t, "set", oe.Op)
			assert.JSONEq(t, sampleJSON, jsonOf(t, doc))
		})
	}
}

func TestSet_FailureLeavesTreeUnchanged(t *testing.T) {
	for _, path := range []string{"x[-1]", "a.b[-1]", "a.b.c[-2].d", "rows[0][-1]"} {
		t.Run(path, func(t *testing.T) {
			doc := fromJSON(t, `{"keep":1}`)
			assert.ErrorIs(t, doc.Set(path, tonl.Int(1)), ErrIndexRange)
			assert.JSONEq(t, `{"keep":1}`, jsonOf(t, doc))
		})
	}
}

func TestSet_GrowthLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.Decode.Limits.MaxNodes = 100
	doc, err := FromJSON([]byte(`{"items":[1]}`), opts)
	require.NoError(t, err)

	require.NoError(t, doc.Set("items[99]", tonl.Int(2)))
	n, err := doc.Query("items[*]")
	require.NoError(t, err)
	assert.Len(t, n, 100)

	err = doc.Set("fresh.list[100]", tonl.Int(3))
	var le *tonl.LimitError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "nodes", le.Limit)
	assert.Equal(t, 100, le.Max)
	assert.Equal(t, 101, le.Actual)
	assert.False(t, doc.Exists("fresh"))

	doc = fromJSON(t, `{}`)
	err = doc.Set("a[50000000]", tonl.Int(1))
	require.True(t, errors.As(err, &le))
	assert.Equal(t, tonl.DefaultMaxNodes, le.Max)
	assert.False(t, doc.Exists("a"))
}

func TestSet_PropertyLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.Decode.Limits.MaxProperties = 2
	doc, err := FromJSON([]byte(`{"a":1,"b":2}`), opts)
	require.NoError(t, err)

	require.NoError(t, doc.Set("b", tonl.Int(20)))
	var le *tonl.LimitError
	require.True(t, errors.As(doc.Set("c", tonl.Int(3)), &le))
	assert.Equal(t, "properties", le.Limit)
	assert.Equal(t, []string{"a", "b"}, doc.Keys())
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		path  string
		count int
		want  string
	}{
		{"member", `{"a":1,"b":2}`, "a", 1, `{"b":2}`},
		{"element", `{"l":[1,2,3]}`, "l[0]", 1, `{"l":[2,3]}`},
		{"negative", `{"l":[1,2,3]}`, "l[-1]", 1, `{"l":[1,2]}`},
		{"missing", `{"a":1}`, "b.c", 0, `{"a":1}`},
		{"filtered", `{"l":[0,1,2,3,4,5]}`, "l[?(@ > 2)]", 3, `{"l":[0,1,2]}`},
		{"reverse slice", `{"l":[0,1,2,3,4,5]}`, "l[::-2]", 3, `{"l":[0,2,4]}`},
		{"every other", `{"l":[0,1,2,3,4,5]}`, "l[::2]", 3, `{"l":[1,3,5]}`},
		{"wildcard", `{"o":{"x":1,"y":2}}`, "o.*", 2, `{"o":{}}`},
		{"recursive", `{"a":{"id":1,"b":[{"id":2,"k":0}]},"id":3}`, "$..id", 3, `{"a":{"b":[{"k":0}]}}`},
		{"nested matches", `{"a":{"a":{"x":1}},"y":2}`, "$..a", 2, `{"y":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := fromJSON(t, tt.src)
			n, err := doc.Delete(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.count, n)
			assert.JSONEq(t, tt.want, jsonOf(t, doc))
		})
	}

	doc := sample(t)
	_, err := doc.Delete("$")
	assert.ErrorIs(t, err, ErrRoot)
}

func TestListOperations(t *testing.T) {
	doc := fromJSON(t, `{"items":[2,3],"name":"x","empty":[]}`)

	n, err := doc.Push("items", tonl.Int(4), tonl.Int(5))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = doc.Unshift("items", tonl.Int(0), tonl.Int(1))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.JSONEq(t, `[0,1,2,3,4,5]`, mustJSON(t, doc, "items"))

	v, err := doc.Pop("items")
	require.NoError(t, err)
	assert.Equal(t, tonl.Int(5), v)

	v, err = doc.Shift("items")
	require.NoError(t, err)
	assert.Equal(t, tonl.Int(0), v)
	assert.JSONEq(t, `[1,2,3,4]`, mustJSON(t, doc, "items"))

	v, err = doc.Pop("empty")
	assert.NoError(t, err)
	assert.Nil(t, v)
	v, err = doc.Shift("empty")
	assert.NoError(t, err)
	assert.Nil(t, v)

	_, err = doc.Push("name", tonl.Int(1))
	assert.ErrorIs(t, err, ErrNotList)
	_, err = doc.Pop("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = doc.Unshift("$.*", tonl.Int(1))
	assert.ErrorIs(t, err, ErrNotAddressable)

	root := fromJSON(t, `[1]`)
	n, err = root.Push("$", tonl.Int(2))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func mustJSON(t *testing.T, doc *Document, path string) string {
	t.Helper()
	v, err := doc.Get(path)
	require.NoError(t, err)
	out, err := tonl.ToJSON(v)
	require.NoError(t, err)
	return string(out)
}

func TestMerge(t *testing.T) {
	doc := sample(t)
	updates := tonl.ObjectOf(
		tonl.Member{Key: "age", Value: tonl.Int(31)},
		tonl.Member{Key: "email", Value: tonl.String("a@example.com")},
	)
	require.NoError(t, doc.Merge("user", updates))
	assert.JSONEq(t, `{"name":"Alice","age":31,"email":"a@example.com"}`, mustJSON(t, doc, "user"))

	u, err := doc.Get("user")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "email"}, u.(*tonl.Object).Keys())

	assert.ErrorIs(t, doc.Merge("users", updates), ErrNotObject)
	assert.ErrorIs(t, doc.Merge("ghost", updates), ErrNotFound)
}

func TestTransform(t *testing.T) {
	doc := sample(t)
	times10 := func(v tonl.Value) tonl.Value { return v.(tonl.Int) * 10 }

	n, err := doc.Transform("users[*].id", times10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.JSONEq(t, `[10,20]`, mustJSON(t, doc, "users[*].id"))

	n, err = doc.Transform("user.age", times10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.JSONEq(t, `300`, mustJSON(t, doc, "user.age"))

	n, err = doc.Transform("user.missing", times10)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = doc.Transform("$", func(tonl.Value) tonl.Value { return tonl.String("gone") })
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, tonl.String("gone"), doc.Value())
}

func TestTransform_NestedMatches(t *testing.T) {
	doc := fromJSON(t, `{"n":{"n":{"v":1}}}`)
	var seen []string
	_, err := doc.Transform("$..n", func(v tonl.Value) tonl.Value {
		out, _ := tonl.ToJSON(v)
		seen = append(seen, string(out))
		return tonl.ObjectOf(tonl.Member{Key: "wrapped", Value: v})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{`{"v":1}`, `{"n":{"wrapped":{"v":1}}}`}, seen)
}

func TestUpdateMany(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	opts := DefaultOptions()
	opts.Logger = logger
	doc, err := FromJSON([]byte(sampleJSON), opts)
	require.NoError(t, err)

	shared := tonl.ObjectOf(tonl.Member{Key: "on", Value: tonl.Bool(true)})
	n := doc.UpdateMany([]string{"flags.a", "flags.b", "users[*].x", "user.name.z", "users["}, shared)
	assert.Equal(t, 2, n)

	require.NoError(t, doc.Set("flags.a.on", tonl.Bool(false)))
	assert.Equal(t, "boolean", doc.TypeOf("flags.b.on"))
	b, err := doc.Get("flags.b.on")
	require.NoError(t, err)
	assert.Equal(t, tonl.Bool(true), b)

	var skipped []string
	for _, e := range hook.AllEntries() {
		if e.Message == "update skipped" {
			skipped = append(skipped, e.Data["path"].(string))
		}
	}
	assert.Equal(t, []string{"users[*].x", "user.name.z", "users["}, skipped)
}

func TestModifications_Chain(t *testing.T) {
	doc := fromJSON(t, `{}`)
	require.NoError(t, doc.Set("list", tonl.NewList()))
	_, err := doc.Push("list", tonl.String("a"), tonl.String("b"))
	require.NoError(t, err)
	require.NoError(t, doc.Set("list[0]", tonl.String("A")))
	_, err = doc.Delete("list[1]")
	require.NoError(t, err)
	require.NoError(t, doc.Set("meta.count", tonl.Int(1)))

	assert.JSONEq(t, `{"list":["A"],"meta":{"count":1}}`, jsonOf(t, doc))

	text, err := doc.Encode()
	require.NoError(t, err)
	back, err := Parse(text, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, tonl.Equal(doc.Value(), back.Value()))
}
