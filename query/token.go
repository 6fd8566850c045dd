package query

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a path token.
type TokenType uint8

const (
	TokenEOF TokenType = iota

	// Path structure
	TokenRoot     // $
	TokenCurrent  // @
	TokenDot      // .
	TokenDotDot   // ..
	TokenLBracket // [
	TokenRBracket // ]
	TokenLParen   // (
	TokenRParen   // )
	TokenStar     // *
	TokenColon    // :
	TokenComma    // ,
	TokenFilter   // ?(

	// Comparison
	TokenEq // ==
	TokenNe // !=
	TokenGt // >
	TokenGe // >=
	TokenLt // <
	TokenLe // <=

	// Logical
	TokenAnd // &&
	TokenOr  // ||
	TokenNot // !

	// Keyword operators
	TokenContains
	TokenStartsWith
	TokenEndsWith
	TokenMatches

	// Literals
	TokenIdent
	TokenInt
	TokenFloat
	TokenString
	TokenTrue
	TokenFalse
	TokenNull
)

var tokenNames = [...]string{
	TokenEOF:        "EOF",
	TokenRoot:       "$",
	TokenCurrent:    "@",
	TokenDot:        ".",
	TokenDotDot:     "..",
	TokenLBracket:   "[",
	TokenRBracket:   "]",
	TokenLParen:     "(",
	TokenRParen:     ")",
	TokenStar:       "*",
	TokenColon:      ":",
	TokenComma:      ",",
	TokenFilter:     "?(",
	TokenEq:         "==",
	TokenNe:         "!=",
	TokenGt:         ">",
	TokenGe:         ">=",
	TokenLt:         "<",
	TokenLe:         "<=",
	TokenAnd:        "&&",
	TokenOr:         "||",
	TokenNot:        "!",
	TokenContains:   "contains",
	TokenStartsWith: "startsWith",
	TokenEndsWith:   "endsWith",
	TokenMatches:    "matches",
	TokenIdent:      "IDENT",
	TokenInt:        "INT",
	TokenFloat:      "FLOAT",
	TokenString:     "STRING",
	TokenTrue:       "true",
	TokenFalse:      "false",
	TokenNull:       "null",
}

// String returns the token type name.
func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return "UNKNOWN"
}

// Precedence returns the binding power of an operator in filter
// expressions. Non-operators return 0.
func Precedence(t TokenType) int {
	switch t {
	case TokenOr:
		return 1
	case TokenAnd:
		return 2
	case TokenEq, TokenNe, TokenGt, TokenGe, TokenLt, TokenLe,
		TokenContains, TokenStartsWith, TokenEndsWith, TokenMatches:
		return 3
	case TokenNot:
		return 4
	}
	return 0
}

// IsComparison reports whether t compares two operands.
func IsComparison(t TokenType) bool {
	return Precedence(t) == 3
}

// IsOperator reports whether t is any filter operator.
func IsOperator(t TokenType) bool {
	return Precedence(t) > 0
}

var keywords = map[string]TokenType{
	"true":       TokenTrue,
	"false":      TokenFalse,
	"null":       TokenNull,
	"contains":   TokenContains,
	"startsWith": TokenStartsWith,
	"endsWith":   TokenEndsWith,
	"matches":    TokenMatches,
}

// Token is a lexed token. Pos is the byte offset of its first character.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// String returns a debug representation of the token.
func (t Token) String() string {
	switch t.Type {
	case TokenIdent, TokenInt, TokenFloat, TokenString:
		return fmt.Sprintf("%s(%q)", t.Type, t.Value)
	}
	return t.Type.String()
}

// ============================================================
// Lexer
// ============================================================

// Lexer tokenizes a path expression.
type Lexer struct {
	input  string
	pos    int
	tokens []Token
}

// NewLexer creates a lexer for expr.
func NewLexer(expr string) *Lexer {
	return &Lexer{input: expr}
}

// Tokenize lexes expr into tokens terminated by TokenEOF.
func Tokenize(expr string) ([]Token, error) {
	return NewLexer(expr).Tokenize()
}

// Tokenize returns all tokens, or the first lexical error.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
		if tok.Type == TokenEOF {
			return l.tokens, nil
		}
	}
}

// afterDot reports whether the previous token makes the next word a
// member name. Member names may start with a digit or spell a keyword.
func (l *Lexer) afterDot() bool {
	if len(l.tokens) == 0 {
		return false
	}
	t := l.tokens[len(l.tokens)-1].Type
	return t == TokenDot || t == TokenDotDot
}

func (l *Lexer) next() (Token, error) {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
	start := l.pos
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: start}, nil
	}

	ch := l.input[l.pos]
	two := ""
	if l.pos+1 < len(l.input) {
		two = l.input[l.pos : l.pos+2]
	}

	switch two {
	case "..":
		l.pos += 2
		return Token{Type: TokenDotDot, Value: two, Pos: start}, nil
	case "?(":
		l.pos += 2
		return Token{Type: TokenFilter, Value: two, Pos: start}, nil
	case "==":
		l.pos += 2
		return Token{Type: TokenEq, Value: two, Pos: start}, nil
	case "!=":
		l.pos += 2
		return Token{Type: TokenNe, Value: two, Pos: start}, nil
	case ">=":
		l.pos += 2
		return Token{Type: TokenGe, Value: two, Pos: start}, nil
	case "<=":
		l.pos += 2
		return Token{Type: TokenLe, Value: two, Pos: start}, nil
	case "&&":
		l.pos += 2
		return Token{Type: TokenAnd, Value: two, Pos: start}, nil
	case "||":
		l.pos += 2
		return Token{Type: TokenOr, Value: two, Pos: start}, nil
	}

	if l.afterDot() && isNameChar(ch) {
		for l.pos < len(l.input) && isNameChar(l.input[l.pos]) {
			l.pos++
		}
		return Token{Type: TokenIdent, Value: l.input[start:l.pos], Pos: start}, nil
	}

	switch ch {
	case '$':
		l.pos++
		return Token{Type: TokenRoot, Value: "$", Pos: start}, nil
	case '@':
		l.pos++
		return Token{Type: TokenCurrent, Value: "@", Pos: start}, nil
	case '.':
		l.pos++
		return Token{Type: TokenDot, Value: ".", Pos: start}, nil
	case '[':
		l.pos++
		return Token{Type: TokenLBracket, Value: "[", Pos: start}, nil
	case ']':
		l.pos++
		return Token{Type: TokenRBracket, Value: "]", Pos: start}, nil
	case '(':
		l.pos++
		return Token{Type: TokenLParen, Value: "(", Pos: start}, nil
	case ')':
		l.pos++
		return Token{Type: TokenRParen, Value: ")", Pos: start}, nil
	case '*':
		l.pos++
		return Token{Type: TokenStar, Value: "*", Pos: start}, nil
	case ':':
		l.pos++
		return Token{Type: TokenColon, Value: ":", Pos: start}, nil
	case ',':
		l.pos++
		return Token{Type: TokenComma, Value: ",", Pos: start}, nil
	case '>':
		l.pos++
		return Token{Type: TokenGt, Value: ">", Pos: start}, nil
	case '<':
		l.pos++
		return Token{Type: TokenLt, Value: "<", Pos: start}, nil
	case '!':
		l.pos++
		return Token{Type: TokenNot, Value: "!", Pos: start}, nil
	case '"', '\'':
		return l.scanString(ch)
	}

	if ch == '-' || isDigit(ch) {
		return l.scanNumber()
	}
	if isIdentStart(ch) {
		for l.pos < len(l.input) && isNameChar(l.input[l.pos]) {
			l.pos++
		}
		word := l.input[start:l.pos]
		if kw, ok := keywords[word]; ok {
			return Token{Type: kw, Value: word, Pos: start}, nil
		}
		return Token{Type: TokenIdent, Value: word, Pos: start}, nil
	}

	return Token{}, &SyntaxError{Kind: ErrUnexpectedToken, Pos: start, Message: fmt.Sprintf("unexpected character %q", ch)}
}

// scanString scans a single- or double-quoted string.
func (l *Lexer) scanString(quote byte) (Token, error) {
	start := l.pos
	l.pos++ // opening quote

	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			return Token{}, &SyntaxError{Kind: ErrUnterminatedString, Pos: start, Message: "unterminated string"}
		}
		ch := l.input[l.pos]
		if ch == quote {
			l.pos++
			break
		}
		if ch == '\\' {
			l.pos++
			if l.pos >= len(l.input) {
				return Token{}, &SyntaxError{Kind: ErrUnterminatedString, Pos: start, Message: "unterminated escape"}
			}
			esc := l.input[l.pos]
			l.pos++
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(esc)
			}
			continue
		}
		sb.WriteByte(ch)
		l.pos++
	}
	return Token{Type: TokenString, Value: sb.String(), Pos: start}, nil
}

// scanNumber scans -?\d+(\.\d+)?([eE][+-]?\d+)?
func (l *Lexer) scanNumber() (Token, error) {
	start := l.pos
	if l.input[l.pos] == '-' {
		l.pos++
	}
	digits := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos == digits {
		return Token{}, &SyntaxError{Kind: ErrInvalidNumber, Pos: start, Message: "expected digits after '-'"}
	}

	isFloat := false
	if l.pos+1 < len(l.input) && l.input[l.pos] == '.' && isDigit(l.input[l.pos+1]) {
		isFloat = true
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		isFloat = true
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.pos++
		}
		exp := l.pos
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
		if l.pos == exp {
			return Token{}, &SyntaxError{Kind: ErrInvalidNumber, Pos: start, Message: "malformed exponent in " + l.input[start:l.pos]}
		}
	}
	if l.pos < len(l.input) && isIdentStart(l.input[l.pos]) {
		return Token{}, &SyntaxError{Kind: ErrInvalidNumber, Pos: start, Message: "malformed number " + l.input[start:l.pos+1]}
	}

	typ := TokenInt
	if isFloat {
		typ = TokenFloat
	}
	return Token{Type: typ, Value: l.input[start:l.pos], Pos: start}, nil
}

// Character classification

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch >= 0x80
}

func isNameChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '-' || ch == '$'
}

// ============================================================
// Token stream
// ============================================================

// TokenStream provides a cursor over tokens.
type TokenStream struct {
	tokens []Token
	pos    int
}

// NewTokenStream creates a token stream from tokens.
func NewTokenStream(tokens []Token) *TokenStream {
	return &TokenStream{tokens: tokens}
}

// Peek returns the current token without advancing.
func (ts *TokenStream) Peek() Token {
	if ts.pos >= len(ts.tokens) {
		end := 0
		if n := len(ts.tokens); n > 0 {
			end = ts.tokens[n-1].Pos
		}
		return Token{Type: TokenEOF, Pos: end}
	}
	return ts.tokens[ts.pos]
}

// Advance moves to the next token and returns the current one.
func (ts *TokenStream) Advance() Token {
	tok := ts.Peek()
	if ts.pos < len(ts.tokens) {
		ts.pos++
	}
	return tok
}

// Match advances and returns true if the current token has type typ.
func (ts *TokenStream) Match(typ TokenType) bool {
	if ts.Peek().Type == typ {
		ts.Advance()
		return true
	}
	return false
}

// Expect advances if the current token has type typ, otherwise it
// returns a syntax error positioned at the offending token.
func (ts *TokenStream) Expect(typ TokenType) (Token, error) {
	tok := ts.Peek()
	if tok.Type != typ {
		return tok, unexpected(tok, "expected "+typ.String())
	}
	ts.Advance()
	return tok, nil
}

// AtEnd reports whether the stream is exhausted.
func (ts *TokenStream) AtEnd() bool {
	return ts.Peek().Type == TokenEOF
}
