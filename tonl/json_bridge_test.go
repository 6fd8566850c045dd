package tonl

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSON_Kinds(t *testing.T) {
	v, err := FromJSON([]byte(`{"i":12,"neg":-3,"f":1.0,"e":1e3,"big":123456789012345678901,"s":"x","b":true,"n":null,"l":[],"o":{}}`))
	require.NoError(t, err)

	assert.Equal(t, Int(12), get(t, v, "i"))
	assert.Equal(t, Int(-3), get(t, v, "neg"))
	assert.Equal(t, Float(1), get(t, v, "f"))
	assert.Equal(t, Float(1000), get(t, v, "e"))
	assert.Equal(t, KindFloat, get(t, v, "big").Kind())
	assert.Equal(t, String("x"), get(t, v, "s"))
	assert.Equal(t, Bool(true), get(t, v, "b"))
	assert.Equal(t, Null{}, get(t, v, "n"))
	assert.Equal(t, 0, get(t, v, "l").(*List).Len())
	assert.Equal(t, 0, get(t, v, "o").(*Object).Len())
	assert.Equal(t, []string{"i", "neg", "f", "e", "big", "s", "b", "n", "l", "o"}, v.(*Object).Keys())
}

func TestFromJSON_Invalid(t *testing.T) {
	for _, in := range []string{``, `{`, `{"a":}`, `[1,]`, `nope`} {
		_, err := FromJSON([]byte(in))
		assert.ErrorIs(t, err, ErrInvalidJSON, in)
	}
}

func TestFromJSON_Limits(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxDepth = 2
	_, err := FromJSONWithLimits([]byte(`{"a":{"b":{"c":1}}}`), limits)
	var le *LimitError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "depth", le.Limit)

	limits = DefaultLimits()
	limits.MaxInputBytes = 8
	_, err = FromJSONWithLimits([]byte(`{"a":"0123456789"}`), limits)
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "input-bytes", le.Limit)

	limits = DefaultLimits()
	limits.MaxProperties = 2
	_, err = FromJSONWithLimits([]byte(`{"a":1,"b":2,"c":3}`), limits)
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "properties", le.Limit)
}

func TestToJSON(t *testing.T) {
	v := obj(
		m("z", Int(1)),
		m("a", NewList(Float(2), String("q\"<"), Null{}, Bool(false))),
		m("o", obj(m("k", String("v")))),
	)
	out, err := ToJSON(v)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":[2.0,"q\"<",null,false],"o":{"k":"v"}}`, string(out))

	pretty, err := ToJSONIndent(v, "  ")
	require.NoError(t, err)
	assert.JSONEq(t, string(out), string(pretty))
	assert.True(t, strings.HasPrefix(string(pretty), "{\n  \"z\": 1,"))
}

func TestToJSON_NoHTMLEscaping(t *testing.T) {
	out, err := ToJSON(obj(m("<k&>", String("a < b && c > d"))))
	require.NoError(t, err)
	assert.Equal(t, `{"<k&>":"a < b && c > d"}`, string(out))
}

func TestToJSON_NonFinite(t *testing.T) {
	_, err := ToJSON(obj(m("x", NewList(Float(math.Inf(1))))))
	var ee *EncodeError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "x[0]", ee.Path)
}
