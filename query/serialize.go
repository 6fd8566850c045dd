package query

import (
	"math"
	"strconv"
	"strings"

	"github.com/Neumenon/tonl/tonl"
)

// String renders p as canonical path text. Parsing the result yields a
// structurally identical path.
func String(p *Path) string {
	var sb strings.Builder
	sb.WriteString("$")
	for _, seg := range p.Segments {
		writeSegment(&sb, seg)
	}
	return sb.String()
}

// String renders the path in canonical form.
func (p *Path) String() string { return String(p) }

func writeSegment(sb *strings.Builder, seg Segment) {
	switch s := seg.(type) {
	case Root:
	case Child:
		if isPlainName(s.Name) {
			sb.WriteString(".")
			sb.WriteString(s.Name)
		} else {
			sb.WriteString("[")
			sb.WriteString(quoteName(s.Name))
			sb.WriteString("]")
		}
	case Index:
		sb.WriteString("[")
		sb.WriteString(strconv.Itoa(s.Index))
		sb.WriteString("]")
	case Wildcard:
		sb.WriteString("[*]")
	case Slice:
		sb.WriteString("[")
		writeBound(sb, s.Start)
		sb.WriteString(":")
		writeBound(sb, s.End)
		if s.Step != nil {
			sb.WriteString(":")
			writeBound(sb, s.Step)
		}
		sb.WriteString("]")
	case RecursiveDescent:
		switch {
		case s.Any:
			sb.WriteString("..*")
		case isPlainName(s.Name):
			sb.WriteString("..")
			sb.WriteString(s.Name)
		default:
			sb.WriteString("..[")
			sb.WriteString(quoteName(s.Name))
			sb.WriteString("]")
		}
	case Filter:
		sb.WriteString("[?(")
		writeExpr(sb, s.Expr, 0)
		sb.WriteString(")]")
	}
}

func writeBound(sb *strings.Builder, n *int) {
	if n != nil {
		sb.WriteString(strconv.Itoa(*n))
	}
}

// isPlainName reports whether name lexes back as a single member name
// after a dot.
func isPlainName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isNameChar(name[i]) {
			return false
		}
	}
	return true
}

func quoteName(name string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for i := 0; i < len(name); i++ {
		switch c := name[i]; c {
		case '\'', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

func exprPrec(e Expr) int {
	switch x := e.(type) {
	case Logical:
		if x.Op == OpOr {
			return 1
		}
		return 2
	case Comparison:
		return 3
	}
	return 4
}

// writeExpr writes e, parenthesized when it binds looser than the context.
func writeExpr(sb *strings.Builder, e Expr, ctx int) {
	prec := exprPrec(e)
	if prec < ctx {
		sb.WriteString("(")
		defer sb.WriteString(")")
	}
	switch x := e.(type) {
	case Logical:
		writeExpr(sb, x.Left, prec)
		sb.WriteString(" " + x.Op.String() + " ")
		writeExpr(sb, x.Right, prec+1)
	case Comparison:
		writeExpr(sb, x.Left, prec+1)
		sb.WriteString(" " + x.Op.String() + " ")
		writeExpr(sb, x.Right, prec+1)
	case Not:
		sb.WriteString("!")
		writeExpr(sb, x.X, 4)
	case Current:
		sb.WriteString("@")
		for _, seg := range x.Segments {
			writeSegment(sb, seg)
		}
	case Literal:
		sb.WriteString(formatLiteral(x.Value))
	}
}

func formatLiteral(v tonl.Value) string {
	switch val := v.(type) {
	case tonl.Null, nil:
		return "null"
	case tonl.Bool:
		return strconv.FormatBool(bool(val))
	case tonl.Int:
		return strconv.FormatInt(int64(val), 10)
	case tonl.Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "null"
		}
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return s
	case tonl.String:
		return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`).Replace(string(val)) + `"`
	}
	return "null"
}
