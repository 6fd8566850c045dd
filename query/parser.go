package query

import (
	"strconv"
	"strings"

	"github.com/Neumenon/tonl/tonl"
)

// Parser is a recursive-descent parser over a token stream.
type Parser struct {
	ts    *TokenStream
	expr  string
	depth int
}

// maxExprNesting bounds parser recursion inside filter expressions.
const maxExprNesting = 256

// Parse parses a path expression. A leading `$` is optional, so `a.b`
// and `$.a.b` are the same path.
func Parse(expr string) (*Path, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, &SyntaxError{Kind: ErrEmptyExpression, Message: "empty path expression"}
	}
	tokens, err := Tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &Parser{ts: NewTokenStream(tokens), expr: expr}
	return p.parsePath()
}

// MustParse is like Parse but panics on error.
func MustParse(expr string) *Path {
	p, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Parser) parsePath() (*Path, error) {
	path := &Path{Expr: p.expr, Segments: []Segment{Root{}}}

	switch tok := p.ts.Peek(); tok.Type {
	case TokenRoot:
		p.ts.Advance()
	case TokenIdent, TokenTrue, TokenFalse, TokenNull,
		TokenContains, TokenStartsWith, TokenEndsWith, TokenMatches:
		p.ts.Advance()
		path.Segments = append(path.Segments, Child{Name: tok.Value})
	case TokenLBracket, TokenDot, TokenDotDot:
	default:
		return nil, unexpected(tok, "expected '$' or a member name")
	}

	for !p.ts.AtEnd() {
		seg, err := p.parseSegment()
		if err != nil {
			return nil, err
		}
		path.Segments = append(path.Segments, seg)
	}
	return path, nil
}

func (p *Parser) parseSegment() (Segment, error) {
	tok := p.ts.Advance()
	switch tok.Type {
	case TokenDot:
		next := p.ts.Advance()
		switch next.Type {
		case TokenIdent:
			return Child{Name: next.Value}, nil
		case TokenStar:
			return Wildcard{}, nil
		}
		return nil, unexpected(next, "expected member name after '.'")

	case TokenDotDot:
		next := p.ts.Advance()
		switch next.Type {
		case TokenIdent:
			return RecursiveDescent{Name: next.Value}, nil
		case TokenStar:
			return RecursiveDescent{Any: true}, nil
		case TokenLBracket:
			inner := p.ts.Advance()
			var seg RecursiveDescent
			switch inner.Type {
			case TokenString:
				seg.Name = inner.Value
			case TokenStar:
				seg.Any = true
			default:
				return nil, unexpected(inner, "expected quoted name or '*' after '..['")
			}
			if _, err := p.ts.Expect(TokenRBracket); err != nil {
				return nil, err
			}
			return seg, nil
		}
		return nil, unexpected(next, "expected member name or '*' after '..'")

	case TokenLBracket:
		seg, err := p.parseBracket()
		if err != nil {
			return nil, err
		}
		if _, err := p.ts.Expect(TokenRBracket); err != nil {
			return nil, err
		}
		return seg, nil
	}
	return nil, unexpected(tok, "expected '.', '..' or '['")
}

// parseBracket parses the inside of [...].
func (p *Parser) parseBracket() (Segment, error) {
	tok := p.ts.Peek()
	switch tok.Type {
	case TokenString:
		p.ts.Advance()
		return Child{Name: tok.Value}, nil
	case TokenStar:
		p.ts.Advance()
		return Wildcard{}, nil
	case TokenFilter:
		p.ts.Advance()
		expr, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		if _, err := p.ts.Expect(TokenRParen); err != nil {
			return nil, err
		}
		return Filter{Expr: expr}, nil
	}

	start, err := p.optionalInt()
	if err != nil {
		return nil, err
	}
	if p.ts.Peek().Type != TokenColon {
		if start == nil {
			return nil, unexpected(p.ts.Peek(), "expected index, slice, '*', quoted name or filter")
		}
		return Index{Index: *start}, nil
	}

	p.ts.Advance()
	s := Slice{Start: start}
	if s.End, err = p.optionalInt(); err != nil {
		return nil, err
	}
	if p.ts.Match(TokenColon) {
		if s.Step, err = p.optionalInt(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *Parser) optionalInt() (*int, error) {
	tok := p.ts.Peek()
	switch tok.Type {
	case TokenInt:
		p.ts.Advance()
		n, err := strconv.Atoi(tok.Value)
		if err != nil {
			return nil, &SyntaxError{Kind: ErrInvalidNumber, Pos: tok.Pos, Message: "index out of range: " + tok.Value}
		}
		return &n, nil
	case TokenFloat:
		return nil, &SyntaxError{Kind: ErrInvalidNumber, Pos: tok.Pos, Message: "index must be an integer: " + tok.Value}
	}
	return nil, nil
}

// ============================================================
// Filter expressions
// ============================================================

// parseExpr parses binary operators binding at least as tightly as minPrec.
func (p *Parser) parseExpr(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.ts.Peek()
		prec := Precedence(tok.Type)
		if tok.Type == TokenNot || prec == 0 || prec < minPrec {
			return left, nil
		}
		p.ts.Advance()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenAnd:
			left = Logical{Op: OpAnd, Left: left, Right: right}
		case TokenOr:
			left = Logical{Op: OpOr, Left: left, Right: right}
		default:
			left = Comparison{Op: tokenCompareOps[tok.Type], Left: left, Right: right}
		}
	}
}

func (p *Parser) parseUnary() (Expr, error) {
	tok := p.ts.Advance()
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxExprNesting {
		return nil, &SyntaxError{Kind: ErrUnexpectedToken, Pos: tok.Pos, Message: "filter expression nested too deeply"}
	}
	switch tok.Type {
	case TokenNot:
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not{X: x}, nil
	case TokenLParen:
		x, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		if _, err := p.ts.Expect(TokenRParen); err != nil {
			return nil, err
		}
		return x, nil
	case TokenCurrent:
		return p.parseCurrent()
	case TokenString:
		return Literal{Value: tonl.String(tok.Value)}, nil
	case TokenTrue:
		return Literal{Value: tonl.Bool(true)}, nil
	case TokenFalse:
		return Literal{Value: tonl.Bool(false)}, nil
	case TokenNull:
		return Literal{Value: tonl.Null{}}, nil
	case TokenInt:
		n, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, &SyntaxError{Kind: ErrInvalidNumber, Pos: tok.Pos, Message: "integer out of range: " + tok.Value}
		}
		return Literal{Value: tonl.Int(n)}, nil
	case TokenFloat:
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, &SyntaxError{Kind: ErrInvalidNumber, Pos: tok.Pos, Message: "invalid number: " + tok.Value}
		}
		return Literal{Value: tonl.Float(f)}, nil
	}
	return nil, unexpected(tok, "expected operand")
}

// parseCurrent parses the accessors after `@`.
func (p *Parser) parseCurrent() (Expr, error) {
	var segs []Segment
	for {
		switch p.ts.Peek().Type {
		case TokenDot:
			p.ts.Advance()
			name, err := p.ts.Expect(TokenIdent)
			if err != nil {
				return nil, err
			}
			segs = append(segs, Child{Name: name.Value})
		case TokenLBracket:
			p.ts.Advance()
			tok := p.ts.Advance()
			switch tok.Type {
			case TokenString:
				segs = append(segs, Child{Name: tok.Value})
			case TokenInt:
				n, err := strconv.Atoi(tok.Value)
				if err != nil {
					return nil, &SyntaxError{Kind: ErrInvalidNumber, Pos: tok.Pos, Message: "index out of range: " + tok.Value}
				}
				segs = append(segs, Index{Index: n})
			default:
				return nil, unexpected(tok, "expected quoted name or index after '@['")
			}
			if _, err := p.ts.Expect(TokenRBracket); err != nil {
				return nil, err
			}
		default:
			return Current{Segments: segs}, nil
		}
	}
}
