package tonl

import (
	"fmt"
	"math"
	"sort"
)

// Kind identifies the variant of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindObject
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a node of a TONL value tree.
//
// The set of implementations is closed: Null, Bool, Int, Float, String,
// *List and *Object. Code that switches over a Value should handle all
// seven variants.
type Value interface {
	Kind() Kind
	isValue()
}

// Null is the null value.
type Null struct{}

// Bool is a boolean value.
type Bool bool

// Int is a 64-bit signed integer value.
type Int int64

// Float is a 64-bit floating point value.
type Float float64

// String is a text value.
type String string

func (Null) Kind() Kind    { return KindNull }
func (Bool) Kind() Kind    { return KindBool }
func (Int) Kind() Kind     { return KindInt }
func (Float) Kind() Kind   { return KindFloat }
func (String) Kind() Kind  { return KindString }
func (*List) Kind() Kind   { return KindList }
func (*Object) Kind() Kind { return KindObject }

func (Null) isValue()    {}
func (Bool) isValue()    {}
func (Int) isValue()     {}
func (Float) isValue()   {}
func (String) isValue()  {}
func (*List) isValue()   {}
func (*Object) isValue() {}

// IsPrimitive reports whether v is a scalar (not a list or object).
func IsPrimitive(v Value) bool {
	switch v.(type) {
	case Null, Bool, Int, Float, String:
		return true
	}
	return false
}

// IsNumber reports whether v is an Int or a Float.
func IsNumber(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	}
	return false
}

// AsFloat returns the numeric value of an Int or Float.
func AsFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n), true
	case Float:
		return float64(n), true
	}
	return 0, false
}

// ============================================================
// List
// ============================================================

// List is an ordered sequence of values.
type List struct {
	Items []Value
}

// NewList creates a list holding items.
func NewList(items ...Value) *List {
	l := &List{Items: make([]Value, 0, len(items))}
	l.Items = append(l.Items, items...)
	return l
}

// Len returns the number of items.
func (l *List) Len() int {
	return len(l.Items)
}

// At returns the item at index i. Negative indices count from the end.
func (l *List) At(i int) (Value, bool) {
	if i < 0 {
		i += len(l.Items)
	}
	if i < 0 || i >= len(l.Items) {
		return nil, false
	}
	return l.Items[i], true
}

// Append adds values to the end of the list.
func (l *List) Append(vs ...Value) {
	l.Items = append(l.Items, vs...)
}

// ============================================================
// Object
// ============================================================

// Member is a key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object is a map with unique keys that preserves insertion order.
type Object struct {
	members []Member
	index   map[string]int
}

// NewObject creates an empty object.
func NewObject() *Object {
	return &Object{index: make(map[string]int)}
}

// ObjectOf creates an object from members. Later duplicates replace earlier ones.
func ObjectOf(members ...Member) *Object {
	o := &Object{
		members: make([]Member, 0, len(members)),
		index:   make(map[string]int, len(members)),
	}
	for _, m := range members {
		o.Set(m.Key, m.Value)
	}
	return o
}

// Len returns the number of members.
func (o *Object) Len() int {
	return len(o.members)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}
	return o.members[i].Value, true
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.index[key]
	return ok
}

// Set stores v under key. An existing key keeps its position.
func (o *Object) Set(key string, v Value) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	if i, ok := o.index[key]; ok {
		o.members[i].Value = v
		return
	}
	o.index[key] = len(o.members)
	o.members = append(o.members, Member{Key: key, Value: v})
}

// Delete removes key and reports whether it was present.
func (o *Object) Delete(key string) bool {
	i, ok := o.index[key]
	if !ok {
		return false
	}
	o.members = append(o.members[:i], o.members[i+1:]...)
	delete(o.index, key)
	for j := i; j < len(o.members); j++ {
		o.index[o.members[j].Key] = j
	}
	return true
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.members))
	for i, m := range o.members {
		keys[i] = m.Key
	}
	return keys
}

// Members returns the members in insertion order. The slice must not be modified.
func (o *Object) Members() []Member {
	return o.members
}

// ============================================================
// Equality and copying
// ============================================================

// Equal reports whether a and b are structurally equal.
//
// Object member order is ignored. Int and Float are distinct even when
// numerically equal. NaN is equal to NaN so decoded trees compare equal to
// their sources.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		if !ok {
			return false
		}
		if math.IsNaN(float64(av)) && math.IsNaN(float64(bv)) {
			return true
		}
		return av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case *List:
		bv, ok := b.(*List)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !Equal(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case *Object:
		bv, ok := b.(*Object)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, m := range av.members {
			other, ok := bv.Get(m.Key)
			if !ok || !Equal(m.Value, other) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy of v.
func Clone(v Value) Value {
	switch val := v.(type) {
	case *List:
		out := &List{Items: make([]Value, len(val.Items))}
		for i, item := range val.Items {
			out.Items[i] = Clone(item)
		}
		return out
	case *Object:
		out := &Object{
			members: make([]Member, len(val.members)),
			index:   make(map[string]int, len(val.members)),
		}
		for i, m := range val.members {
			out.members[i] = Member{Key: m.Key, Value: Clone(m.Value)}
			out.index[m.Key] = i
		}
		return out
	}
	return v
}

// ============================================================
// Go interop
// ============================================================

// FromGo converts a native Go value into a Value tree.
//
// Supported inputs are nil, bool, the integer and float kinds, string,
// []any, map[string]any (keys sorted), []Value and Value itself.
func FromGo(x any) (Value, error) {
	return fromGo(x, 0, DefaultLimits())
}

func fromGo(x any, depth int, limits Limits) (Value, error) {
	if depth > limits.MaxDepth {
		return nil, &LimitError{Limit: "depth", Max: limits.MaxDepth, Actual: depth}
	}
	switch v := x.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(v), nil
	case int8:
		return Int(v), nil
	case int16:
		return Int(v), nil
	case int32:
		return Int(v), nil
	case int64:
		return Int(v), nil
	case uint:
		return fromUint(uint64(v)), nil
	case uint8:
		return Int(v), nil
	case uint16:
		return Int(v), nil
	case uint32:
		return Int(v), nil
	case uint64:
		return fromUint(v), nil
	case float32:
		return Float(v), nil
	case float64:
		return Float(v), nil
	case string:
		return String(v), nil
	case []Value:
		return NewList(v...), nil
	case []any:
		l := &List{Items: make([]Value, 0, len(v))}
		for _, item := range v {
			iv, err := fromGo(item, depth+1, limits)
			if err != nil {
				return nil, err
			}
			l.Items = append(l.Items, iv)
		}
		return l, nil
	case []string:
		l := &List{Items: make([]Value, len(v))}
		for i, s := range v {
			l.Items[i] = String(s)
		}
		return l, nil
	case map[string]any:
		if len(v) > limits.MaxProperties {
			return nil, &LimitError{Limit: "properties", Max: limits.MaxProperties, Actual: len(v)}
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		o := NewObject()
		for _, k := range keys {
			mv, err := fromGo(v[k], depth+1, limits)
			if err != nil {
				return nil, err
			}
			o.Set(k, mv)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("tonl: unsupported Go type %T", x)
	}
}

func fromUint(u uint64) Value {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}
	return Int(int64(u))
}

// ToGo converts a Value tree into native Go values: nil, bool, int64,
// float64, string, []any and map[string]any.
func ToGo(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case String:
		return string(val)
	case *List:
		out := make([]any, len(val.Items))
		for i, item := range val.Items {
			out[i] = ToGo(item)
		}
		return out
	case *Object:
		out := make(map[string]any, val.Len())
		for _, m := range val.members {
			out[m.Key] = ToGo(m.Value)
		}
		return out
	}
	return nil
}
