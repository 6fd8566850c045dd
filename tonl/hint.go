package tonl

import (
	"fmt"
	"math"
	"strconv"
)

// TypeHint is a column annotation. It constrains values, it is not a tag
// carried by them. The zero value means "no hint".
type TypeHint string

const (
	HintNone   TypeHint = ""
	HintU32    TypeHint = "u32"
	HintI32    TypeHint = "i32"
	HintF64    TypeHint = "f64"
	HintStr    TypeHint = "str"
	HintBool   TypeHint = "bool"
	HintList   TypeHint = "list"
	HintObject TypeHint = "obj"
)

// ParseTypeHint parses a hint name. "object" is accepted for HintObject.
func ParseTypeHint(s string) (TypeHint, bool) {
	switch s {
	case "u32":
		return HintU32, true
	case "i32":
		return HintI32, true
	case "f64":
		return HintF64, true
	case "str":
		return HintStr, true
	case "bool":
		return HintBool, true
	case "list":
		return HintList, true
	case "obj", "object":
		return HintObject, true
	}
	return HintNone, false
}

// InferTypeHint returns the narrowest hint describing v.
// Null has no hint.
func InferTypeHint(v Value) TypeHint {
	switch val := v.(type) {
	case Bool:
		return HintBool
	case Int:
		switch {
		case val >= 0 && val <= math.MaxUint32:
			return HintU32
		case val >= math.MinInt32 && val <= math.MaxInt32:
			return HintI32
		default:
			return HintF64
		}
	case Float:
		return HintF64
	case String:
		return HintStr
	case *List:
		return HintList
	case *Object:
		return HintObject
	}
	return HintNone
}

// InferTypeFromString infers a hint from a literal's text. Integer
// literals wider than 32 bits are reported as f64.
func InferTypeFromString(lit string) TypeHint {
	switch lit {
	case "true", "false":
		return HintBool
	case "NaN", "Infinity", "-Infinity":
		return HintF64
	}
	if isIntLiteral(lit) {
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return HintF64
		}
		return InferTypeHint(Int(n))
	}
	if isFloatLiteral(lit) {
		return HintF64
	}
	return HintStr
}

// CheckHint reports whether v satisfies hint. Null satisfies every hint.
func CheckHint(hint TypeHint, v Value) error {
	if hint == HintNone {
		return nil
	}
	if _, ok := v.(Null); ok {
		return nil
	}
	switch hint {
	case HintU32:
		n, ok := v.(Int)
		if !ok {
			return fmt.Errorf("expected u32, got %s", v.Kind())
		}
		if n < 0 || n > math.MaxUint32 {
			return fmt.Errorf("value %d out of range for u32", n)
		}
	case HintI32:
		n, ok := v.(Int)
		if !ok {
			return fmt.Errorf("expected i32, got %s", v.Kind())
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return fmt.Errorf("value %d out of range for i32", n)
		}
	case HintF64:
		if !IsNumber(v) {
			return fmt.Errorf("expected f64, got %s", v.Kind())
		}
	case HintStr:
		if v.Kind() != KindString {
			return fmt.Errorf("expected str, got %s", v.Kind())
		}
	case HintBool:
		if v.Kind() != KindBool {
			return fmt.Errorf("expected bool, got %s", v.Kind())
		}
	case HintList:
		if v.Kind() != KindList {
			return fmt.Errorf("expected list, got %s", v.Kind())
		}
	case HintObject:
		if v.Kind() != KindObject {
			return fmt.Errorf("expected obj, got %s", v.Kind())
		}
	default:
		return fmt.Errorf("unknown type hint %q", string(hint))
	}
	return nil
}

// columnHint returns the hint shared by every non-null value, or HintNone.
// A hint is only returned when decoding under it reproduces the values
// exactly, so integer columns wider than i32 get no hint.
func columnHint(values []Value) TypeHint {
	var kind Kind
	seen := false
	allU32, allI32 := true, true
	for _, v := range values {
		if v == nil {
			continue
		}
		if _, ok := v.(Null); ok {
			continue
		}
		if seen && v.Kind() != kind {
			return HintNone
		}
		kind, seen = v.Kind(), true
		if n, ok := v.(Int); ok {
			if n < 0 || n > math.MaxUint32 {
				allU32 = false
			}
			if n < math.MinInt32 || n > math.MaxInt32 {
				allI32 = false
			}
		}
	}
	if !seen {
		return HintNone
	}
	switch kind {
	case KindInt:
		if allU32 {
			return HintU32
		}
		if allI32 {
			return HintI32
		}
		return HintNone
	case KindFloat:
		return HintF64
	case KindString:
		return HintStr
	case KindBool:
		return HintBool
	case KindList:
		return HintList
	case KindObject:
		return HintObject
	}
	return HintNone
}
