package tonl

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Delimiter separates fields of a row or primitive list.
type Delimiter byte

const (
	Comma     Delimiter = ','
	Pipe      Delimiter = '|'
	Tab       Delimiter = '\t'
	Semicolon Delimiter = ';'
)

// delimiterPriority is the order the encoder tries delimiters in.
var delimiterPriority = []Delimiter{Comma, Pipe, Tab, Semicolon}

// String returns the delimiter as written in a #delimiter directive.
func (d Delimiter) String() string {
	if d == Tab {
		return `\t`
	}
	return string(rune(d))
}

// Valid reports whether d is one of the four supported delimiters.
func (d Delimiter) Valid() bool {
	switch d {
	case Comma, Pipe, Tab, Semicolon:
		return true
	}
	return false
}

// ParseDelimiter parses the argument of a #delimiter directive.
func ParseDelimiter(s string) (Delimiter, bool) {
	switch s {
	case ",":
		return Comma, true
	case "|":
		return Pipe, true
	case ";":
		return Semicolon, true
	case "\t", `\t`, "tab":
		return Tab, true
	}
	return 0, false
}

// joiner is written between fields of a row.
func (d Delimiter) joiner() string {
	if d == Tab {
		return "\t"
	}
	return string(rune(d)) + " "
}

// ============================================================
// Literal shapes
// ============================================================

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// isIntLiteral matches -?\d+
func isIntLiteral(s string) bool {
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// isDecimalLiteral matches -?\d*\.\d+
func isDecimalLiteral(s string) bool {
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	dot := strings.IndexByte(s, '.')
	if dot < 0 || dot == len(s)-1 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if i != dot && !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// isScientificLiteral matches -?\d+\.?\d*e[+-]?\d+ case-insensitively.
func isScientificLiteral(s string) bool {
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == 0 {
		return false
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i >= len(s) || (s[i] != 'e' && s[i] != 'E') {
		return false
	}
	i++
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i > start && i == len(s)
}

func isFloatLiteral(s string) bool {
	return isDecimalLiteral(s) || isScientificLiteral(s)
}

// ============================================================
// Quoting
// ============================================================

// NeedsQuoting reports whether s must be quoted to survive a round trip
// when written with delimiter delim.
func NeedsQuoting(s string, delim Delimiter) bool {
	if s == "" {
		return true
	}
	switch s {
	case "true", "false", "null", "undefined", "NaN", "Infinity", "-Infinity":
		return true
	}
	if isIntLiteral(s) || isFloatLiteral(s) {
		return true
	}
	if strings.IndexByte(s, byte(delim)) >= 0 || strings.ContainsAny(s, ":{}#\"\n\t\r") {
		return true
	}
	first, _ := utf8.DecodeRuneInString(s)
	last, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(first) || unicode.IsSpace(last)
}

// Quote wraps s in double quotes, escaping backslashes then quotes.
func Quote(s string) string {
	return `"` + escape(s) + `"`
}

// QuoteIfNeeded quotes s only when NeedsQuoting says so.
func QuoteIfNeeded(s string, delim Delimiter) string {
	if NeedsQuoting(s, delim) {
		return Quote(s)
	}
	return s
}

// TripleQuote wraps s in triple quotes. Every quote inside is escaped so the
// first unescaped quote always starts the closing delimiter.
func TripleQuote(s string) string {
	return `"""` + escape(s) + `"""`
}

// FormatString renders a string value: triple-quoted when it spans lines,
// otherwise quoted only when needed.
func FormatString(s string, delim Delimiter) string {
	if strings.Contains(s, "\n") {
		return TripleQuote(s)
	}
	return QuoteIfNeeded(s, delim)
}

func escape(s string) string {
	if !strings.ContainsAny(s, `\"`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

var (
	errNotQuoted    = errors.New("not a quoted string")
	errUnterminated = errors.New("unterminated string")
)

// Unquote reverses Quote. Backslashes not followed by a backslash or a
// quote are kept as written.
func Unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", errNotQuoted
	}
	return unescape(s[1 : len(s)-1])
}

// UnquoteTriple reverses TripleQuote.
func UnquoteTriple(s string) (string, error) {
	if len(s) < 6 || !strings.HasPrefix(s, `"""`) || !strings.HasSuffix(s, `"""`) {
		return "", errNotQuoted
	}
	return unescape(s[3 : len(s)-3])
}

func unescape(inner string) (string, error) {
	if strings.IndexByte(inner, '\\') < 0 {
		if strings.IndexByte(inner, '"') >= 0 {
			return "", errUnterminated
		}
		return inner, nil
	}
	var sb strings.Builder
	sb.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case c == '\\' && i+1 < len(inner) && (inner[i+1] == '\\' || inner[i+1] == '"'):
			sb.WriteByte(inner[i+1])
			i++
		case c == '\\' && i+1 == len(inner):
			return "", errUnterminated
		case c == '"':
			return "", errUnterminated
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}

// ============================================================
// Keys
// ============================================================

func isBareKeyStart(c byte) bool {
	return c == '_' || c == '$' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isBareKeyChar(c byte) bool {
	return isBareKeyStart(c) || c == '.' || c == '-'
}

// NeedsKeyQuoting reports whether k must be quoted in a header or field line.
func NeedsKeyQuoting(k string) bool {
	if k == "" || !isBareKeyStart(k[0]) {
		return true
	}
	for i := 1; i < len(k); i++ {
		if !isBareKeyChar(k[i]) {
			return true
		}
	}
	return false
}

// FormatKey renders an object key. Keys spanning lines are triple-quoted.
func FormatKey(k string) string {
	switch {
	case strings.Contains(k, "\n"):
		return TripleQuote(k)
	case NeedsKeyQuoting(k):
		return Quote(k)
	}
	return k
}

// unquoteToken reverses Quote or TripleQuote depending on the token's opening.
func unquoteToken(tok string) (string, error) {
	if len(tok) >= 6 && strings.HasPrefix(tok, `"""`) {
		return UnquoteTriple(tok)
	}
	return Unquote(tok)
}

// MakeIndent returns level*spaces spaces. Both arguments are bounded so a
// hostile nesting level cannot request an enormous allocation.
func MakeIndent(level, spaces int) (string, error) {
	if level < 0 || level > MaxIndentLevel {
		return "", &LimitError{Limit: "indent-level", Max: MaxIndentLevel, Actual: level}
	}
	if spaces < 0 || spaces > MaxIndentSpaces {
		return "", &LimitError{Limit: "indent-spaces", Max: MaxIndentSpaces, Actual: spaces}
	}
	return strings.Repeat(" ", level*spaces), nil
}
