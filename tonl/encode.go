package tonl

import (
	"strconv"
	"strings"
)

// EncodeOptions configures the encoder.
type EncodeOptions struct {
	// Delimiter for rows and primitive lists. Zero picks one automatically:
	// the first of comma, pipe, tab, semicolon that no string value contains.
	Delimiter Delimiter

	// IncludeTypes adds a type hint to every column whose values share one.
	IncludeTypes bool

	// Indent is the number of spaces per nesting level (default 2).
	Indent int

	// Version written in the #version directive (default "1.0").
	Version string

	// SingleLinePrimitiveLists writes lists of scalars as `key[N]: a, b`.
	SingleLinePrimitiveLists bool

	// SingleLineObjectMaxKeys writes objects of scalars with at most this
	// many members as `key{a,b}: a: 1 b: 2`. Zero disables it.
	SingleLineObjectMaxKeys int

	// TabularMinRows is the smallest list of objects written as a table.
	TabularMinRows int

	// Limits bounds the depth of the value being written.
	Limits Limits
}

// DefaultEncodeOptions returns the standard layout.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		Indent:                   2,
		Version:                  "1.0",
		SingleLinePrimitiveLists: true,
		TabularMinRows:           1,
		Limits:                   DefaultLimits(),
	}
}

// Encode converts a value tree to notation text with default options.
func Encode(v Value) (string, error) {
	return EncodeWithOptions(v, DefaultEncodeOptions())
}

// EncodeWithOptions converts a value tree to notation text.
// On error no text is returned.
func EncodeWithOptions(v Value, opts EncodeOptions) (string, error) {
	if v == nil {
		return "", &EncodeError{Message: "nil value"}
	}
	limits := opts.Limits.withDefaults()
	if depth := Depth(v); depth > limits.MaxDepth {
		return "", &LimitError{Limit: "depth", Max: limits.MaxDepth, Actual: depth}
	}
	if opts.Indent <= 0 {
		opts.Indent = 2
	}
	if opts.Indent > MaxIndentSpaces {
		return "", &LimitError{Limit: "indent-spaces", Max: MaxIndentSpaces, Actual: opts.Indent}
	}
	if opts.Version == "" {
		opts.Version = "1.0"
	}
	if opts.TabularMinRows <= 0 {
		opts.TabularMinRows = 1
	}

	delim := opts.Delimiter
	switch {
	case delim == 0:
		delim = ChooseDelimiter(v)
	case !delim.Valid():
		return "", &EncodeError{Message: "unsupported delimiter " + strconv.QuoteRune(rune(delim))}
	}

	e := &encoder{opts: opts, delim: delim}
	e.sb.WriteString("#version ")
	e.sb.WriteString(opts.Version)
	e.sb.WriteByte('\n')
	if delim != Comma {
		e.sb.WriteString("#delimiter ")
		e.sb.WriteString(delim.String())
		e.sb.WriteByte('\n')
	}

	if obj, ok := v.(*Object); ok {
		for _, m := range obj.Members() {
			if err := e.value(FormatKey(m.Key), m.Value, 0); err != nil {
				return "", err
			}
		}
	} else {
		e.sb.WriteString("#root\n")
		if err := e.value("root", v, 0); err != nil {
			return "", err
		}
	}
	return e.sb.String(), nil
}

// ChooseDelimiter returns the first delimiter in priority order (comma,
// pipe, tab, semicolon) that appears in no string of v. When every
// candidate collides it returns comma and colliding strings are quoted.
func ChooseDelimiter(v Value) Delimiter {
	var seen [4]bool
	stack := []Value{v}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch c := cur.(type) {
		case String:
			for i, d := range delimiterPriority {
				if !seen[i] && strings.IndexByte(string(c), byte(d)) >= 0 {
					seen[i] = true
				}
			}
		case *List:
			stack = append(stack, c.Items...)
		case *Object:
			for _, m := range c.Members() {
				stack = append(stack, m.Value)
			}
		}
	}
	for i, d := range delimiterPriority {
		if !seen[i] {
			return d
		}
	}
	return Comma
}

type encoder struct {
	sb    strings.Builder
	opts  EncodeOptions
	delim Delimiter
}

func (e *encoder) pad(level int) error {
	ind, err := MakeIndent(level, e.opts.Indent)
	if err != nil {
		return err
	}
	e.sb.WriteString(ind)
	return nil
}

// value writes one block: label, header suffix and body.
func (e *encoder) value(label string, v Value, level int) error {
	if err := e.pad(level); err != nil {
		return err
	}
	e.sb.WriteString(label)
	switch val := v.(type) {
	case *Object:
		return e.object(val, level)
	case *List:
		return e.list(val, level)
	default:
		e.sb.WriteString(": ")
		e.sb.WriteString(formatPrimitive(v, e.delim))
		e.sb.WriteByte('\n')
		return nil
	}
}

func (e *encoder) object(obj *Object, level int) error {
	members := obj.Members()
	cols := make([]Column, len(members))
	for i, m := range members {
		cols[i] = Column{Name: m.Key}
		if e.opts.IncludeTypes {
			cols[i].Hint = columnHint([]Value{m.Value})
		}
	}
	e.columns(cols)
	e.sb.WriteByte(':')

	if len(members) == 0 {
		e.sb.WriteByte('\n')
		return nil
	}
	if e.inlineObject(obj) {
		for _, m := range members {
			e.sb.WriteByte(' ')
			e.sb.WriteString(FormatKey(m.Key))
			e.sb.WriteString(": ")
			e.sb.WriteString(formatPrimitive(m.Value, e.delim))
		}
		e.sb.WriteByte('\n')
		return nil
	}
	e.sb.WriteByte('\n')
	for _, m := range members {
		if err := e.value(FormatKey(m.Key), m.Value, level+1); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) inlineObject(obj *Object) bool {
	if e.opts.SingleLineObjectMaxKeys <= 0 || obj.Len() > e.opts.SingleLineObjectMaxKeys {
		return false
	}
	for _, m := range obj.Members() {
		if !inlinePrimitive(m.Value) {
			return false
		}
	}
	return true
}

func (e *encoder) list(l *List, level int) error {
	e.sb.WriteByte('[')
	e.sb.WriteString(strconv.Itoa(len(l.Items)))
	e.sb.WriteByte(']')

	if len(l.Items) == 0 {
		e.sb.WriteString(":\n")
		return nil
	}
	if e.opts.SingleLinePrimitiveLists && allInlinePrimitive(l.Items) {
		e.sb.WriteString(": ")
		for i, item := range l.Items {
			if i > 0 {
				e.sb.WriteString(e.delim.joiner())
			}
			e.sb.WriteString(formatPrimitive(item, e.delim))
		}
		e.sb.WriteByte('\n')
		return nil
	}
	if len(l.Items) >= e.opts.TabularMinRows {
		if cols, ok := tableColumns(l); ok {
			return e.table(l, cols, level)
		}
	}
	e.sb.WriteString(":\n")
	for i, item := range l.Items {
		if err := e.value("["+strconv.Itoa(i)+"]", item, level+1); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) columns(cols []Column) {
	e.sb.WriteByte('{')
	for i, c := range cols {
		if i > 0 {
			e.sb.WriteByte(',')
		}
		e.sb.WriteString(FormatKey(c.Name))
		if c.Hint != HintNone {
			e.sb.WriteByte(':')
			e.sb.WriteString(string(c.Hint))
		}
	}
	e.sb.WriteByte('}')
}

func inlinePrimitive(v Value) bool {
	if s, ok := v.(String); ok {
		return !strings.Contains(string(s), "\n")
	}
	return v == nil || IsPrimitive(v)
}

func allInlinePrimitive(items []Value) bool {
	for _, item := range items {
		if !inlinePrimitive(item) {
			return false
		}
	}
	return true
}
