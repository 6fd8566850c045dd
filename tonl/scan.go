package tonl

import (
	"strings"
)

// ============================================================
// Logical lines
// ============================================================

// line is one logical line of input. A triple-quoted string that spans
// several physical lines is joined back into a single logical line.
type line struct {
	num    int // first physical line, 1-based
	indent int // leading spaces
	text   string
}

func (l line) isComment() bool {
	return strings.HasPrefix(l.text, "#")
}

// splitLines assembles logical lines. Blank lines are dropped. Comment
// lines are kept so the directive pass can see them.
func splitLines(input string) ([]line, error) {
	var out []line
	num := 0
	rest := input
	for len(rest) > 0 {
		num++
		start := num
		phys, tail := cutLine(rest)
		rest = tail

		trimmed := strings.TrimLeft(phys, " ")
		if strings.HasPrefix(trimmed, "#") {
			out = append(out, line{num: start, indent: len(phys) - len(trimmed), text: strings.TrimRight(trimmed, " \r")})
			continue
		}

		logical := phys
		state := scanQuotes(phys, quoteNone)
		for state == quoteTriple {
			if rest == "" {
				return nil, &SyntaxError{Line: start, Message: "unterminated triple-quoted string", Text: strings.TrimSpace(phys)}
			}
			num++
			phys, rest = cutLine(rest)
			logical += "\n" + phys
			state = scanQuotes(phys, quoteTriple)
		}
		if state == quoteSingle {
			return nil, &SyntaxError{Line: start, Message: "unterminated quoted string", Text: strings.TrimSpace(phys)}
		}

		body := strings.TrimLeft(logical, " ")
		body = strings.TrimRight(body, " \t\r")
		if strings.TrimSpace(body) == "" {
			continue
		}
		out = append(out, line{num: start, indent: len(logical) - len(strings.TrimLeft(logical, " ")), text: body})
	}
	return out, nil
}

func cutLine(s string) (string, string) {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

type quoteState uint8

const (
	quoteNone quoteState = iota
	quoteSingle
	quoteTriple
)

// scanQuotes returns the quoting state at the end of s, starting from state.
func scanQuotes(s string, state quoteState) quoteState {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch state {
		case quoteNone:
			if c != '"' {
				continue
			}
			if strings.HasPrefix(s[i:], `"""`) {
				state = quoteTriple
				i += 2
			} else {
				state = quoteSingle
			}
		case quoteSingle:
			if c == '\\' {
				i++
			} else if c == '"' {
				state = quoteNone
			}
		case quoteTriple:
			if c == '\\' {
				i++
			} else if strings.HasPrefix(s[i:], `"""`) {
				state = quoteNone
				i += 2
			}
		}
	}
	return state
}

// quotedEnd returns the index just past the quoted token starting at s[i],
// or -1 when it is not terminated.
func quotedEnd(s string, i int) int {
	if strings.HasPrefix(s[i:], `"""`) {
		for j := i + 3; j < len(s); j++ {
			if s[j] == '\\' {
				j++
				continue
			}
			if strings.HasPrefix(s[j:], `"""`) {
				return j + 3
			}
		}
		return -1
	}
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			return j + 1
		}
	}
	return -1
}

// ============================================================
// Fields
// ============================================================

// field is one delimited cell. An unquoted empty field marks an absent value.
type field struct {
	text   string
	quoted bool
	col    int // 1-based offset into the line text
}

func (f field) missing() bool {
	return !f.quoted && f.text == ""
}

// splitFields splits s on delim, honoring quotes.
func splitFields(s string, delim Delimiter) ([]field, error) {
	var out []field
	d := byte(delim)
	i := 0
	for {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		start := i
		if i < len(s) && s[i] == '"' {
			end := quotedEnd(s, i)
			if end < 0 {
				return nil, &SyntaxError{Column: i + 1, Message: "unterminated quoted field"}
			}
			f := field{text: s[i:end], quoted: true, col: i + 1}
			i = end
			for i < len(s) && s[i] == ' ' {
				i++
			}
			if i < len(s) && s[i] != d {
				return nil, &SyntaxError{Column: i + 1, Message: "unexpected text after quoted field"}
			}
			out = append(out, f)
		} else {
			j := strings.IndexByte(s[i:], d)
			var raw string
			if j < 0 {
				raw = s[i:]
				i = len(s)
			} else {
				raw = s[i : i+j]
				i += j
			}
			out = append(out, field{text: strings.TrimSpace(raw), col: start + 1})
		}
		if i >= len(s) {
			return out, nil
		}
		i++ // delimiter
	}
}

// ============================================================
// Single-line object bodies
// ============================================================

// inlineMember is a key and the raw text of its value.
type inlineMember struct {
	key   string
	value field
}

// splitInlineObject tokenizes `a: 1 b: two words c: "x"`.
//
// A key is a bare key or a quoted string immediately followed by ':'.
// Unquoted values never contain ':' so every such token starts a new
// member and a value runs up to the next key.
func splitInlineObject(s string) ([]inlineMember, error) {
	type keyTok struct {
		key        string
		start, end int // token span including the colon
	}
	var keys []keyTok
	i := 0
	for i < len(s) {
		if s[i] == ' ' {
			i++
			continue
		}
		start := i
		if s[i] == '"' {
			end := quotedEnd(s, i)
			if end < 0 {
				return nil, &SyntaxError{Column: i + 1, Message: "unterminated quoted string"}
			}
			if end < len(s) && s[end] == ':' {
				k, err := unquoteToken(s[i:end])
				if err != nil {
					return nil, &SyntaxError{Column: i + 1, Message: "invalid quoted key"}
				}
				keys = append(keys, keyTok{key: k, start: start, end: end + 1})
				end++
			}
			i = end
			continue
		}
		j := i
		for j < len(s) && s[j] != ' ' && s[j] != '"' {
			j++
		}
		tok := s[i:j]
		if c := strings.IndexByte(tok, ':'); c >= 0 {
			k := tok[:c]
			if k == "" || NeedsKeyQuoting(k) {
				return nil, &SyntaxError{Column: i + 1, Message: "invalid key " + tok}
			}
			keys = append(keys, keyTok{key: k, start: start, end: i + c + 1})
			j = i + c + 1
		}
		i = j
	}
	if len(keys) == 0 {
		return nil, &SyntaxError{Column: 1, Message: "expected key: value"}
	}
	if keys[0].start != strings.IndexFunc(s, func(r rune) bool { return r != ' ' }) {
		return nil, &SyntaxError{Column: 1, Message: "value before first key"}
	}
	out := make([]inlineMember, len(keys))
	for n, k := range keys {
		end := len(s)
		if n+1 < len(keys) {
			end = keys[n+1].start
		}
		raw := s[k.end:end]
		text := strings.TrimSpace(raw)
		col := k.end + 1 + (len(raw) - len(strings.TrimLeft(raw, " ")))
		out[n] = inlineMember{
			key:   k.key,
			value: field{text: text, quoted: strings.HasPrefix(text, `"`), col: col},
		}
	}
	return out, nil
}
