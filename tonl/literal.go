package tonl

import (
	"math"
	"strconv"
	"strings"
)

// parseLiteral turns a field into a primitive value.
//
// Hints steer ambiguous literals: under str an unquoted number or boolean
// stays text, under f64 an integer literal becomes a Float. Violations are
// returned as hintErrors so the caller can record them without aborting.
func parseLiteral(f field, hint TypeHint) (Value, error) {
	text := f.text
	if f.quoted {
		s, err := unquoteToken(text)
		if err != nil {
			return nil, &SyntaxError{Column: f.col, Message: err.Error(), Text: text}
		}
		v := String(s)
		if err := CheckHint(hint, v); err != nil {
			return v, &hintError{hint: hint, msg: err.Error()}
		}
		return v, nil
	}

	v := parseBare(text)
	switch hint {
	case HintStr:
		if _, isNull := v.(Null); !isNull {
			return String(text), nil
		}
	case HintF64:
		if n, ok := v.(Int); ok {
			v = Float(float64(n))
		}
	}
	if err := CheckHint(hint, v); err != nil {
		return v, &hintError{hint: hint, msg: err.Error()}
	}
	return v, nil
}

// parseBare interprets unquoted text with no hint applied.
func parseBare(text string) Value {
	switch text {
	case "null", "undefined":
		return Null{}
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	case "NaN":
		return Float(math.NaN())
	case "Infinity":
		return Float(math.Inf(1))
	case "-Infinity":
		return Float(math.Inf(-1))
	}
	if isIntLiteral(text) {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Int(n)
		}
		// Wider than int64: keep the magnitude as a float.
		f, _ := strconv.ParseFloat(text, 64)
		return Float(f)
	}
	if isFloatLiteral(text) {
		// Out-of-range exponents saturate to ±Inf or 0.
		f, _ := strconv.ParseFloat(text, 64)
		return Float(f)
	}
	return String(text)
}

// hintError marks a value that was parsed but violates its hint.
type hintError struct {
	hint TypeHint
	msg  string
}

func (e *hintError) Error() string { return e.msg }

// formatFloat always produces text that parses back as a Float.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	var s string
	if abs := math.Abs(f); abs == 0 || (abs >= 1e-6 && abs < 1e21) {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	} else {
		s = strconv.FormatFloat(f, 'e', -1, 64)
	}
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// formatPrimitive renders a scalar for a field position.
func formatPrimitive(v Value, delim Delimiter) string {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		if val {
			return "true"
		}
		return "false"
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return formatFloat(float64(val))
	case String:
		return FormatString(string(val), delim)
	}
	return ""
}
