package tonl

import (
	"strings"
)

// ============================================================
// Tabular lists
// ============================================================
//
// A list of objects whose members are all scalars is written as a table:
//
//   users[3]{id,name,status}:
//     1, Alice, "-"
//     2, Bob, active
//     3, Charlie,
//
// Columns are the union of member keys in first-seen order. A member a
// row does not have is written as an empty unquoted field. Empty strings
// are always quoted, so the two never collide.

// tableColumns returns the column names for l, or false when l cannot be
// written as a table.
func tableColumns(l *List) ([]string, bool) {
	var cols []string
	seen := make(map[string]bool)
	for _, item := range l.Items {
		obj, ok := item.(*Object)
		if !ok || obj.Len() == 0 {
			return nil, false
		}
		for _, m := range obj.Members() {
			if !inlinePrimitive(m.Value) || m.Value == nil {
				return nil, false
			}
			if !seen[m.Key] {
				seen[m.Key] = true
				cols = append(cols, m.Key)
			}
		}
	}
	return cols, len(cols) > 0
}

func (e *encoder) table(l *List, names []string, level int) error {
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name}
		if e.opts.IncludeTypes {
			values := make([]Value, 0, len(l.Items))
			for _, item := range l.Items {
				if v, ok := item.(*Object).Get(name); ok {
					values = append(values, v)
				}
			}
			cols[i].Hint = columnHint(values)
		}
	}
	e.columns(cols)
	e.sb.WriteString(":\n")

	joiner := e.delim.joiner()
	var row strings.Builder
	for _, item := range l.Items {
		obj := item.(*Object)
		row.Reset()
		for i, name := range names {
			if i > 0 {
				row.WriteString(joiner)
			}
			if v, ok := obj.Get(name); ok {
				row.WriteString(formatPrimitive(v, e.delim))
			}
		}
		if err := e.pad(level + 1); err != nil {
			return err
		}
		e.sb.WriteString(strings.TrimRight(row.String(), " "))
		e.sb.WriteByte('\n')
	}
	return nil
}
