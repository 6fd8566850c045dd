package tonl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferTypeFromString(t *testing.T) {
	tests := []struct {
		lit  string
		want TypeHint
	}{
		{"0", HintU32},
		{"42", HintU32},
		{"3000000000", HintU32},
		{"-5", HintI32},
		{"-2147483648", HintI32},
		{"9999999999999", HintF64},
		{"-9999999999999", HintF64},
		{"99999999999999999999999", HintF64},
		{"1.5", HintF64},
		{"1e10", HintF64},
		{"NaN", HintF64},
		{"-Infinity", HintF64},
		{"true", HintBool},
		{"false", HintBool},
		{"hello", HintStr},
		{"1.", HintStr},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferTypeFromString(tt.lit), tt.lit)
	}
}

func TestInferTypeHint(t *testing.T) {
	assert.Equal(t, HintNone, InferTypeHint(Null{}))
	assert.Equal(t, HintU32, InferTypeHint(Int(7)))
	assert.Equal(t, HintI32, InferTypeHint(Int(-7)))
	assert.Equal(t, HintF64, InferTypeHint(Int(1<<40)))
	assert.Equal(t, HintStr, InferTypeHint(String("")))
	assert.Equal(t, HintList, InferTypeHint(NewList()))
	assert.Equal(t, HintObject, InferTypeHint(NewObject()))
}

func TestCheckHint(t *testing.T) {
	ok := []struct {
		hint TypeHint
		v    Value
	}{
		{HintNone, String("anything")},
		{HintU32, Int(4294967295)},
		{HintI32, Int(-2147483648)},
		{HintF64, Int(3)},
		{HintF64, Float(3.5)},
		{HintStr, String("x")},
		{HintBool, Bool(false)},
		{HintList, NewList()},
		{HintObject, NewObject()},
		{HintU32, Null{}},
		{HintObject, Null{}},
	}
	for _, tt := range ok {
		assert.NoError(t, CheckHint(tt.hint, tt.v), "%s %v", tt.hint, tt.v)
	}

	bad := []struct {
		hint TypeHint
		v    Value
	}{
		{HintU32, Int(-1)},
		{HintU32, Int(4294967296)},
		{HintI32, Int(2147483648)},
		{HintU32, Float(1)},
		{HintF64, String("1")},
		{HintStr, Int(1)},
		{HintBool, String("true")},
		{HintList, NewObject()},
		{HintObject, NewList()},
		{TypeHint("u64"), Int(1)},
	}
	for _, tt := range bad {
		assert.Error(t, CheckHint(tt.hint, tt.v), "%s %v", tt.hint, tt.v)
	}
}

func TestParseTypeHint(t *testing.T) {
	h, ok := ParseTypeHint("object")
	assert.True(t, ok)
	assert.Equal(t, HintObject, h)

	_, ok = ParseTypeHint("int")
	assert.False(t, ok)
}

func TestColumnHint(t *testing.T) {
	assert.Equal(t, HintU32, columnHint([]Value{Int(1), Null{}, Int(2)}))
	assert.Equal(t, HintI32, columnHint([]Value{Int(1), Int(-2)}))
	assert.Equal(t, HintNone, columnHint([]Value{Int(1), Int(1 << 40)}))
	assert.Equal(t, HintNone, columnHint([]Value{Int(1), Float(2)}))
	assert.Equal(t, HintNone, columnHint([]Value{Null{}, nil}))
	assert.Equal(t, HintStr, columnHint([]Value{String("a"), nil}))
}
