package tonl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// ============================================================
// JSON Bridge
// ============================================================
//
// FromJSON keeps object member order as written, which encoding/json
// cannot do when decoding into map[string]any. Integer literals stay Int
// when they fit in 64 bits; anything with a fraction or exponent is Float.

// ErrInvalidJSON is returned for input that is not well-formed JSON.
var ErrInvalidJSON = errors.New("tonl: invalid JSON")

// FromJSON converts JSON bytes to a value tree with default limits.
func FromJSON(data []byte) (Value, error) {
	return FromJSONWithLimits(data, DefaultLimits())
}

// FromJSONWithLimits converts JSON bytes to a value tree. The input size
// is checked before parsing; depth, node and property counts during the walk.
func FromJSONWithLimits(data []byte, limits Limits) (Value, error) {
	g := newGuard(limits)
	if err := g.input(len(data)); err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	return fromJSONResult(gjson.ParseBytes(data), 0, g)
}

func fromJSONResult(r gjson.Result, depth int, g *guard) (Value, error) {
	if err := g.node(); err != nil {
		return nil, err
	}
	switch r.Type {
	case gjson.Null:
		return Null{}, nil
	case gjson.True:
		return Bool(true), nil
	case gjson.False:
		return Bool(false), nil
	case gjson.String:
		return String(r.Str), nil
	case gjson.Number:
		return jsonNumber(r.Raw), nil
	}

	if err := g.depth(depth + 1); err != nil {
		return nil, err
	}
	var err error
	if r.IsArray() {
		list := &List{}
		r.ForEach(func(_, item gjson.Result) bool {
			var v Value
			v, err = fromJSONResult(item, depth+1, g)
			if err != nil {
				return false
			}
			list.Items = append(list.Items, v)
			return true
		})
		if err != nil {
			return nil, err
		}
		return list, nil
	}

	obj := NewObject()
	r.ForEach(func(key, item gjson.Result) bool {
		var v Value
		v, err = fromJSONResult(item, depth+1, g)
		if err != nil {
			return false
		}
		obj.Set(key.Str, v)
		err = g.properties(obj.Len())
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func jsonNumber(raw string) Value {
	if !strings.ContainsAny(raw, ".eE") {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return Int(n)
		}
	}
	f, _ := strconv.ParseFloat(raw, 64)
	return Float(f)
}

// ToJSON converts a value tree to compact JSON. Object member order is kept.
// NaN and infinities have no JSON form and are rejected.
func ToJSON(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v, ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToJSONIndent converts a value tree to indented JSON.
func ToJSONIndent(v Value, indent string) ([]byte, error) {
	data, err := ToJSON(v)
	if err != nil {
		return nil, err
	}
	return pretty.PrettyOptions(data, &pretty.Options{
		Width:    80,
		Indent:   indent,
		SortKeys: false,
	}), nil
}

func writeJSON(buf *bytes.Buffer, v Value, path string) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &EncodeError{Path: path, Message: fmt.Sprintf("%v has no JSON representation", f)}
		}
		buf.WriteString(formatFloat(f))
	case String:
		writeJSONString(buf, string(val))
	case *List:
		buf.WriteByte('[')
		for i, item := range val.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item, indexPath(path, i)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *Object:
		buf.WriteByte('{')
		for i, m := range val.Members() {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, m.Key)
			buf.WriteByte(':')
			if err := writeJSON(buf, m.Value, joinKey(path, m.Key)); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// writeJSONString writes s as a JSON string without HTML escaping.
func writeJSONString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	buf.Truncate(buf.Len() - 1) // Encode appends a newline
}
