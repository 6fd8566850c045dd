package document

import (
	"testing"

	"github.com/Neumenon/tonl/tonl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isNumber(v tonl.Value) bool { return tonl.IsNumber(v) }

func TestEntriesKeysValues(t *testing.T) {
	doc := sample(t)
	entries := doc.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "user", entries[0].Key)
	assert.Equal(t, []string{"user", "users"}, doc.Keys())
	assert.Len(t, doc.Values(), 2)

	list := fromJSON(t, `["a","b"]`)
	assert.Equal(t, []string{"0", "1"}, list.Keys())
	assert.Equal(t, []tonl.Value{tonl.String("a"), tonl.String("b")}, list.Values())

	scalar := FromValue(tonl.Int(1), DefaultOptions())
	assert.Empty(t, scalar.Entries())
}

func TestDeepEntries(t *testing.T) {
	doc := sample(t)
	assert.Equal(t, []string{
		"user.name", "user.age",
		"users[0].id", "users[0].name",
		"users[1].id", "users[1].name",
	}, doc.DeepKeys())
	assert.Equal(t, Entry{Path: "user.name", Value: tonl.String("Alice")}, doc.DeepEntries()[0])
	assert.Contains(t, doc.DeepValues(), tonl.Int(30))

	odd := fromJSON(t, `{"a b":{"c":1},"e":[],"o":{},"l":[[1]]}`)
	assert.Equal(t, []string{"['a b'].c", "e", "o", "l[0][0]"}, odd.DeepKeys())

	for _, e := range odd.DeepEntries() {
		v, err := odd.Get(e.Path)
		require.NoError(t, err, e.Path)
		assert.True(t, tonl.Equal(e.Value, v), e.Path)
	}
}

func TestWalk(t *testing.T) {
	doc := sample(t)
	var paths []string
	depths := map[string]int{}
	doc.Walk(func(path string, _ tonl.Value, depth int) bool {
		paths = append(paths, path)
		depths[path] = depth
		return true
	})
	assert.Equal(t, []string{
		"user", "user.name", "user.age",
		"users", "users[0]", "users[0].id", "users[0].name",
		"users[1]", "users[1].id", "users[1].name",
	}, paths)
	assert.Equal(t, 1, depths["user"])
	assert.Equal(t, 3, depths["users[1].name"])

	visited := 0
	doc.Walk(func(string, tonl.Value, int) bool {
		visited++
		return visited < 3
	})
	assert.Equal(t, 3, visited)
}

func TestFindAndPredicates(t *testing.T) {
	doc := sample(t)

	v, ok := doc.Find(func(v tonl.Value) bool { return tonl.Equal(v, tonl.String("Bob")) })
	assert.True(t, ok)
	assert.Equal(t, tonl.String("Bob"), v)

	_, ok = doc.Find(func(v tonl.Value) bool { return tonl.Equal(v, tonl.String("Zed")) })
	assert.False(t, ok)

	assert.Equal(t, []tonl.Value{tonl.Int(30), tonl.Int(1), tonl.Int(2)}, doc.FindAll(isNumber))
	assert.True(t, doc.Some(isNumber))
	assert.False(t, doc.Every(isNumber))

	flat := fromJSON(t, `{"a":1,"b":2,"c":3}`)
	assert.True(t, flat.Every(isNumber))
	assert.Equal(t, 4, flat.CountNodes())

	empty := fromJSON(t, `{}`)
	assert.True(t, empty.Every(isNumber))
	assert.False(t, empty.Some(isNumber))
	assert.Equal(t, 1, empty.CountNodes())
}

func TestWalk_DeepTree(t *testing.T) {
	deep := tonl.Value(tonl.Int(1))
	for i := 0; i < 5000; i++ {
		deep = tonl.NewList(deep)
	}
	doc := FromValue(deep, DefaultOptions())
	assert.Equal(t, 5001, doc.CountNodes())
}
