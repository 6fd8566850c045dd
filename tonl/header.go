package tonl

import (
	"strconv"
	"strings"
)

// ============================================================
// Block headers
// ============================================================
//
// Header forms:
//   key: value             primitive field
//   key{a,b}:              object, members on the following lines
//   key{a,b}: a: 1 b: 2    single-line object
//   key[3]: x, y, z        primitive list
//   key[2]{id,name}:       tabular list, one row per following line
//   key[]{id,name}: 1, a   single-line tabular list, length from fields
//   [0]: value             list item inside a mixed list

// Column is a header column with an optional type hint.
type Column struct {
	Name string
	Hint TypeHint
}

// Header is a parsed block header line.
type Header struct {
	Key       string
	Item      int  // list item index when IsItem
	IsItem    bool // header starts with [i]
	IsArray   bool
	HasLength bool // [N] present; [] leaves the length unspecified
	Length    int
	HasCols   bool // {...} present, possibly empty
	Columns   []Column
	Rest      string // text after the colon, trimmed
	restCol   int
}

// ParseHeader parses a header line such as `users[2]{id:u32,name}:`.
func ParseHeader(text string) (*Header, error) {
	h := &Header{}
	i := 0
	switch {
	case strings.HasPrefix(text, "["):
		end := strings.IndexByte(text, ']')
		if end < 0 {
			return nil, &SyntaxError{Column: 1, Message: "unterminated item index"}
		}
		n, err := strconv.Atoi(text[1:end])
		if err != nil || n < 0 {
			return nil, &SyntaxError{Column: 2, Message: "invalid item index " + strconv.Quote(text[1:end])}
		}
		h.IsItem, h.Item = true, n
		i = end + 1
	case strings.HasPrefix(text, `"`):
		end := quotedEnd(text, 0)
		if end < 0 {
			return nil, &SyntaxError{Column: 1, Message: "unterminated quoted key"}
		}
		k, err := unquoteToken(text[:end])
		if err != nil {
			return nil, &SyntaxError{Column: 1, Message: "invalid quoted key"}
		}
		h.Key = k
		i = end
	default:
		for i < len(text) && isBareKeyChar(text[i]) {
			i++
		}
		if i == 0 || !isBareKeyStart(text[0]) {
			return nil, &SyntaxError{Column: 1, Message: "expected key"}
		}
		h.Key = text[:i]
	}

	if i < len(text) && text[i] == '[' {
		end := strings.IndexByte(text[i:], ']')
		if end < 0 {
			return nil, &SyntaxError{Column: i + 1, Message: "unterminated array length"}
		}
		h.IsArray = true
		if lenText := strings.TrimSpace(text[i+1 : i+end]); lenText != "" {
			n, err := strconv.Atoi(lenText)
			if err != nil || n < 0 {
				return nil, &SyntaxError{Column: i + 2, Message: "invalid array length " + strconv.Quote(lenText)}
			}
			h.HasLength, h.Length = true, n
		}
		i += end + 1
	}

	if i < len(text) && text[i] == '{' {
		end, cols, err := parseColumns(text, i)
		if err != nil {
			return nil, err
		}
		h.HasCols, h.Columns = true, cols
		i = end
	}

	if i >= len(text) || text[i] != ':' {
		return nil, &SyntaxError{Column: i + 1, Message: "expected ':' after header"}
	}
	i++
	raw := text[i:]
	h.Rest = strings.TrimSpace(raw)
	h.restCol = i + 1 + len(raw) - len(strings.TrimLeft(raw, " "))
	return h, nil
}

// parseColumns parses `{a,b:u32,"c d"}` starting at text[open] and returns
// the index just past the closing brace.
func parseColumns(text string, open int) (int, []Column, error) {
	var cols []Column
	i := open + 1
	for {
		for i < len(text) && text[i] == ' ' {
			i++
		}
		if i < len(text) && text[i] == '}' && len(cols) == 0 {
			return i + 1, cols, nil
		}
		var name string
		if i < len(text) && text[i] == '"' {
			end := quotedEnd(text, i)
			if end < 0 {
				return 0, nil, &SyntaxError{Column: i + 1, Message: "unterminated quoted column"}
			}
			k, err := unquoteToken(text[i:end])
			if err != nil {
				return 0, nil, &SyntaxError{Column: i + 1, Message: "invalid quoted column"}
			}
			name, i = k, end
		} else {
			start := i
			for i < len(text) && isBareKeyChar(text[i]) {
				i++
			}
			if i == start {
				return 0, nil, &SyntaxError{Column: i + 1, Message: "expected column name"}
			}
			name = text[start:i]
		}
		col := Column{Name: name}
		if i < len(text) && text[i] == ':' {
			start := i + 1
			i = start
			for i < len(text) && text[i] != ',' && text[i] != '}' {
				i++
			}
			hint, ok := ParseTypeHint(strings.TrimSpace(text[start:i]))
			if !ok {
				return 0, nil, &SyntaxError{Column: start + 1, Message: "unknown type hint " + strconv.Quote(text[start:i])}
			}
			col.Hint = hint
		}
		cols = append(cols, col)
		for i < len(text) && text[i] == ' ' {
			i++
		}
		if i >= len(text) {
			return 0, nil, &SyntaxError{Column: open + 1, Message: "unterminated column list"}
		}
		switch text[i] {
		case ',':
			i++
		case '}':
			return i + 1, cols, nil
		default:
			return 0, nil, &SyntaxError{Column: i + 1, Message: "unexpected character in column list"}
		}
	}
}

// String renders the header without its rest text.
func (h *Header) String() string {
	var sb strings.Builder
	if h.IsItem {
		sb.WriteString("[")
		sb.WriteString(strconv.Itoa(h.Item))
		sb.WriteString("]")
	} else {
		sb.WriteString(FormatKey(h.Key))
	}
	if h.IsArray {
		sb.WriteString("[")
		if h.HasLength {
			sb.WriteString(strconv.Itoa(h.Length))
		}
		sb.WriteString("]")
	}
	if h.HasCols {
		sb.WriteString("{")
		for i, c := range h.Columns {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(FormatKey(c.Name))
			if c.Hint != HintNone {
				sb.WriteString(":")
				sb.WriteString(string(c.Hint))
			}
		}
		sb.WriteString("}")
	}
	sb.WriteString(":")
	return sb.String()
}

// hintFor returns the hint declared for a column name.
func (h *Header) hintFor(name string) TypeHint {
	for _, c := range h.Columns {
		if c.Name == name {
			return c.Hint
		}
	}
	return HintNone
}
