package tonl

import (
	"errors"
	"strconv"
	"strings"
)

// DecodeOptions configures the decoder.
type DecodeOptions struct {
	// Delimiter used when the document has no #delimiter directive.
	// Zero means comma.
	Delimiter Delimiter

	// Strict turns declared-length mismatches into structural errors.
	// Otherwise a declared length truncates extra rows and fewer rows are
	// accepted as they are.
	Strict bool

	// Limits bounds input size and tree complexity.
	Limits Limits
}

// DefaultDecodeOptions returns tolerant decoding with default limits.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{
		Delimiter: Comma,
		Limits:    DefaultLimits(),
	}
}

// Document is a decoded text together with its directives.
type Document struct {
	Version   string
	Delimiter Delimiter
	Types     map[string]TypeHint
	Value     Value
}

// Decode parses notation text into a value tree.
func Decode(text string) (Value, error) {
	return DecodeWithOptions(text, DefaultDecodeOptions())
}

// DecodeWithOptions parses notation text with custom options.
//
// On failure the returned value is always nil: a *SyntaxError for
// malformed text, a *StructuralError listing every type-hint or shape
// violation, or a *LimitError when a size gate rejects the input.
func DecodeWithOptions(text string, opts DecodeOptions) (Value, error) {
	doc, err := DecodeDocument(text, opts)
	if err != nil {
		return nil, err
	}
	return doc.Value, nil
}

// DecodeDocument is DecodeWithOptions that also reports the directives.
func DecodeDocument(text string, opts DecodeOptions) (*Document, error) {
	g := newGuard(opts.Limits)
	if err := g.input(len(text)); err != nil {
		return nil, err
	}
	lines, err := splitLines(text)
	if err != nil {
		return nil, err
	}

	d := &decoder{
		lines:  lines,
		delim:  opts.Delimiter,
		strict: opts.Strict,
		types:  make(map[string]TypeHint),
		guard:  g,
	}
	if !d.delim.Valid() {
		d.delim = Comma
	}
	doc := &Document{Version: "1.0"}
	isRoot, err := d.directives(doc)
	if err != nil {
		return nil, err
	}

	root := NewObject()
	if err := d.guard.node(); err != nil {
		return nil, err
	}
	if err := d.members(root, -1, 1, nil, ""); err != nil {
		return nil, err
	}
	if err := d.faults.err(); err != nil {
		return nil, err
	}

	doc.Delimiter = d.delim
	doc.Types = d.types
	doc.Value = root
	if isRoot {
		v, ok := root.Get("root")
		if !ok || root.Len() != 1 {
			return nil, &SyntaxError{Line: 1, Message: "#root document must contain exactly one root block"}
		}
		doc.Value = v
	}
	return doc, nil
}

type decoder struct {
	lines  []line
	pos    int
	delim  Delimiter
	strict bool
	types  map[string]TypeHint
	guard  *guard
	faults faults
}

// directives consumes the leading directive and comment lines.
func (d *decoder) directives(doc *Document) (isRoot bool, err error) {
	for ; d.pos < len(d.lines) && d.lines[d.pos].isComment(); d.pos++ {
		ln := d.lines[d.pos]
		name, arg, _ := strings.Cut(ln.text, " ")
		switch name {
		case "#version":
			doc.Version = strings.TrimSpace(arg)
		case "#delimiter":
			arg = strings.Trim(arg, " ")
			delim, ok := ParseDelimiter(arg)
			if !ok {
				return false, &SyntaxError{Line: ln.num, Message: "unsupported delimiter " + strconv.Quote(arg), Text: ln.text}
			}
			d.delim = delim
		case "#types":
			_, cols, err := parseColumns("{"+strings.TrimSpace(arg)+"}", 0)
			if err != nil {
				return false, d.syntax(ln, err)
			}
			for _, c := range cols {
				d.types[c.Name] = c.Hint
			}
		case "#root":
			isRoot = true
		}
	}
	return isRoot, nil
}

func (d *decoder) skipComments() {
	for d.pos < len(d.lines) && d.lines[d.pos].isComment() {
		d.pos++
	}
}

// hasChildren reports whether the next content line is indented deeper than indent.
func (d *decoder) hasChildren(indent int) bool {
	d.skipComments()
	return d.pos < len(d.lines) && d.lines[d.pos].indent > indent
}

// children returns the content lines nested under indent and advances past them.
func (d *decoder) children(indent int) ([]line, error) {
	var out []line
	level := -1
	for {
		d.skipComments()
		if d.pos >= len(d.lines) || d.lines[d.pos].indent <= indent {
			return out, nil
		}
		ln := d.lines[d.pos]
		if level < 0 {
			level = ln.indent
		} else if ln.indent != level {
			return nil, &SyntaxError{Line: ln.num, Message: "inconsistent indentation", Text: ln.text}
		}
		out = append(out, ln)
		d.pos++
	}
}

func (d *decoder) syntax(ln line, err error) error {
	var se *SyntaxError
	if errors.As(err, &se) {
		out := *se
		out.Line = ln.num
		if out.Column > 0 {
			out.Column += ln.indent
		}
		if out.Text == "" {
			out.Text = ln.text
		}
		return &out
	}
	return &SyntaxError{Line: ln.num, Message: err.Error(), Text: ln.text}
}

func (d *decoder) fault(ln line, path string, hint TypeHint, msg string) {
	d.faults.add(&FieldError{Line: ln.num, Path: path, Hint: hint, Message: msg})
}

// hint resolves the type hint for a member: its parent header first, then #types.
func (d *decoder) hint(parent *Header, name string) TypeHint {
	if parent != nil {
		if h := parent.hintFor(name); h != HintNone {
			return h
		}
	}
	return d.types[name]
}

// members parses the object members nested under indent into obj.
func (d *decoder) members(obj *Object, indent, depth int, parent *Header, path string) error {
	level := -1
	for {
		d.skipComments()
		if d.pos >= len(d.lines) || d.lines[d.pos].indent <= indent {
			return nil
		}
		ln := d.lines[d.pos]
		if level < 0 {
			level = ln.indent
		} else if ln.indent != level {
			return &SyntaxError{Line: ln.num, Message: "inconsistent indentation", Text: ln.text}
		}
		h, err := ParseHeader(ln.text)
		if err != nil {
			return d.syntax(ln, err)
		}
		if h.IsItem {
			return &SyntaxError{Line: ln.num, Message: "list item outside a list", Text: ln.text}
		}
		d.pos++

		childPath := joinKey(path, h.Key)
		if obj.Has(h.Key) {
			d.fault(ln, childPath, HintNone, "duplicate key "+strconv.Quote(h.Key))
		}
		hint := d.hint(parent, h.Key)
		v, err := d.block(h, ln, depth, hint, childPath)
		if err != nil {
			return err
		}
		obj.Set(h.Key, v)
		if err := d.guard.properties(obj.Len()); err != nil {
			return err
		}
	}
}

// block parses the value introduced by header h on line ln.
func (d *decoder) block(h *Header, ln line, depth int, hint TypeHint, path string) (Value, error) {
	nested := d.hasChildren(ln.indent)
	if h.Rest != "" && nested {
		return nil, &SyntaxError{Line: ln.num, Message: "unexpected indented block after inline value", Text: ln.text}
	}

	var v Value
	var err error
	switch {
	case h.IsArray:
		v, err = d.array(h, ln, depth+1, path)
	case h.HasCols && h.Rest != "":
		v, err = d.inlineObject(h, ln, depth+1, path)
	case h.HasCols || nested:
		if err := d.guard.depth(depth + 1); err != nil {
			return nil, err
		}
		obj := NewObject()
		if err := d.members(obj, ln.indent, depth+1, h, path); err != nil {
			return nil, err
		}
		v = obj
	case h.Rest != "":
		return d.literal(field{text: h.Rest, quoted: strings.HasPrefix(h.Rest, `"`), col: h.restCol}, hint, ln, path)
	default:
		return nil, &SyntaxError{Line: ln.num, Message: "missing value after ':'", Text: ln.text}
	}
	if err != nil {
		return nil, err
	}
	if err := d.guard.node(); err != nil {
		return nil, err
	}
	if cerr := CheckHint(hint, v); cerr != nil {
		d.fault(ln, path, hint, cerr.Error())
	}
	return v, nil
}

func (d *decoder) literal(f field, hint TypeHint, ln line, path string) (Value, error) {
	v, err := parseLiteral(f, hint)
	if err != nil {
		var he *hintError
		if !errors.As(err, &he) {
			return nil, d.syntax(ln, err)
		}
		d.fault(ln, path, hint, he.msg)
	}
	if err := d.guard.node(); err != nil {
		return nil, err
	}
	return v, nil
}

// ============================================================
// Arrays
// ============================================================

func (d *decoder) array(h *Header, ln line, depth int, path string) (Value, error) {
	if err := d.guard.depth(depth); err != nil {
		return nil, err
	}
	switch {
	case h.Rest != "" && h.HasCols:
		return d.inlineTable(h, ln, path)
	case h.Rest != "":
		return d.inlineList(h, ln, path)
	case h.HasCols:
		return d.table(h, ln, path)
	default:
		return d.mixed(h, ln, depth, path)
	}
}

// checkLength applies the declared length to n decoded entries and
// returns how many to keep.
func (d *decoder) checkLength(h *Header, ln line, path string, n int) int {
	if !h.HasLength {
		return n
	}
	if n != h.Length && d.strict {
		d.fault(ln, path, HintNone, "declared length "+strconv.Itoa(h.Length)+", found "+strconv.Itoa(n))
	}
	if n > h.Length {
		return h.Length
	}
	return n
}

// inlineList parses `key[N]: a, b, c`.
func (d *decoder) inlineList(h *Header, ln line, path string) (Value, error) {
	fields, err := splitFields(h.Rest, d.delim)
	if err != nil {
		return nil, d.syntax(ln, shiftColumn(err, h.restCol-1))
	}
	n := d.checkLength(h, ln, path, len(fields))
	list := &List{Items: make([]Value, 0, n)}
	for i, f := range fields[:n] {
		if f.missing() {
			return nil, &SyntaxError{Line: ln.num, Column: ln.indent + h.restCol - 1 + f.col, Message: "empty list element", Text: ln.text}
		}
		f.col += h.restCol - 1
		v, err := d.literal(f, HintNone, ln, indexPath(path, i))
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, v)
	}
	return list, nil
}

// inlineTable parses `key[N]{a,b}: 1, x, 2, y`, assigning fields to rows in
// row-major order. A declared length is authoritative, zero included.
func (d *decoder) inlineTable(h *Header, ln line, path string) (Value, error) {
	ncols := len(h.Columns)
	if ncols == 0 {
		return nil, &SyntaxError{Line: ln.num, Message: "tabular list needs at least one column", Text: ln.text}
	}
	fields, err := splitFields(h.Rest, d.delim)
	if err != nil {
		return nil, d.syntax(ln, shiftColumn(err, h.restCol-1))
	}
	rows := len(fields) / ncols
	if h.HasLength {
		if d.strict && len(fields) != h.Length*ncols {
			d.fault(ln, path, HintNone, "declared "+strconv.Itoa(h.Length)+" rows of "+strconv.Itoa(ncols)+" fields, found "+strconv.Itoa(len(fields))+" fields")
		}
		rows = h.Length
	} else if d.strict && len(fields)%ncols != 0 {
		d.fault(ln, path, HintNone, "field count "+strconv.Itoa(len(fields))+" is not a multiple of "+strconv.Itoa(ncols))
	}

	list := &List{Items: make([]Value, 0, rows)}
	for r := 0; r < rows; r++ {
		if r*ncols >= len(fields) {
			break
		}
		end := (r + 1) * ncols
		if end > len(fields) {
			end = len(fields)
		}
		row, err := d.row(h, ln, indexPath(path, r), fields[r*ncols:end], h.restCol-1)
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, row)
	}
	return list, nil
}

// table parses a tabular block with one row per nested line.
func (d *decoder) table(h *Header, ln line, path string) (Value, error) {
	if len(h.Columns) == 0 {
		return nil, &SyntaxError{Line: ln.num, Message: "tabular list needs at least one column", Text: ln.text}
	}
	rows, err := d.children(ln.indent)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 && h.HasLength {
		rows = d.flatRows(ln.indent, h.Length)
	}
	n := d.checkLength(h, ln, path, len(rows))
	list := &List{Items: make([]Value, 0, n)}
	for i, rl := range rows[:n] {
		fields, err := splitFields(rl.text, d.delim)
		if err != nil {
			return nil, d.syntax(rl, err)
		}
		if len(fields) > len(h.Columns) {
			d.fault(rl, indexPath(path, i), HintNone, "row has "+strconv.Itoa(len(fields))+" fields, header declares "+strconv.Itoa(len(h.Columns)))
			fields = fields[:len(h.Columns)]
		}
		row, err := d.row(h, rl, indexPath(path, i), fields, 0)
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, row)
	}
	return list, nil
}

// flatRows collects up to n rows written at the header's own indent, as in
// `users[2]{id,name}:` followed by unindented `1,Alice` lines. A line that
// parses as a header ends the rows.
func (d *decoder) flatRows(indent, n int) []line {
	var out []line
	for len(out) < n {
		d.skipComments()
		if d.pos >= len(d.lines) || d.lines[d.pos].indent != indent {
			break
		}
		ln := d.lines[d.pos]
		if _, err := ParseHeader(ln.text); err == nil {
			break
		}
		out = append(out, ln)
		d.pos++
	}
	return out
}

// row builds one object from fields aligned with the header columns.
// Missing fields leave the member out.
func (d *decoder) row(h *Header, ln line, path string, fields []field, colShift int) (Value, error) {
	obj := NewObject()
	for c, f := range fields {
		if f.missing() {
			continue
		}
		col := h.Columns[c]
		hint := col.Hint
		if hint == HintNone {
			hint = d.types[col.Name]
		}
		f.col += colShift
		v, err := d.literal(f, hint, ln, joinKey(path, col.Name))
		if err != nil {
			return nil, err
		}
		obj.Set(col.Name, v)
	}
	if err := d.guard.node(); err != nil {
		return nil, err
	}
	return obj, nil
}

// mixed parses a list whose items are nested [i] headers.
func (d *decoder) mixed(h *Header, ln line, depth int, path string) (Value, error) {
	list := &List{}
	level := -1
	for {
		d.skipComments()
		if d.pos >= len(d.lines) || d.lines[d.pos].indent <= ln.indent {
			break
		}
		il := d.lines[d.pos]
		if level < 0 {
			level = il.indent
		} else if il.indent != level {
			return nil, &SyntaxError{Line: il.num, Message: "inconsistent indentation", Text: il.text}
		}
		ih, err := ParseHeader(il.text)
		if err != nil {
			return nil, d.syntax(il, err)
		}
		if !ih.IsItem {
			return nil, &SyntaxError{Line: il.num, Message: "expected list item [i]", Text: il.text}
		}
		d.pos++
		itemPath := indexPath(path, len(list.Items))
		if ih.Item != len(list.Items) {
			d.fault(il, itemPath, HintNone, "item index "+strconv.Itoa(ih.Item)+" out of sequence")
		}
		v, err := d.block(ih, il, depth, HintNone, itemPath)
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, v)
	}
	n := d.checkLength(h, ln, path, len(list.Items))
	list.Items = list.Items[:n]
	return list, nil
}

// inlineObject parses `key{a,b}: a: 1 b: two`.
func (d *decoder) inlineObject(h *Header, ln line, depth int, path string) (Value, error) {
	if err := d.guard.depth(depth); err != nil {
		return nil, err
	}
	members, err := splitInlineObject(h.Rest)
	if err != nil {
		return nil, d.syntax(ln, shiftColumn(err, h.restCol-1))
	}
	obj := NewObject()
	for _, m := range members {
		childPath := joinKey(path, m.key)
		if m.value.missing() {
			return nil, &SyntaxError{Line: ln.num, Column: ln.indent + h.restCol - 1 + m.value.col, Message: "missing value for " + strconv.Quote(m.key), Text: ln.text}
		}
		if obj.Has(m.key) {
			d.fault(ln, childPath, HintNone, "duplicate key "+strconv.Quote(m.key))
		}
		m.value.col += h.restCol - 1
		v, err := d.literal(m.value, d.hint(h, m.key), ln, childPath)
		if err != nil {
			return nil, err
		}
		obj.Set(m.key, v)
	}
	if err := d.guard.properties(obj.Len()); err != nil {
		return nil, err
	}
	return obj, nil
}

func shiftColumn(err error, by int) error {
	var se *SyntaxError
	if errors.As(err, &se) && se.Column > 0 {
		out := *se
		out.Column += by
		return &out
	}
	return err
}

// joinKey and indexPath build the diagnostic paths reported in FieldErrors.
func joinKey(path, key string) string {
	if NeedsKeyQuoting(key) || strings.Contains(key, ".") {
		return path + "[" + strconv.Quote(key) + "]"
	}
	if path == "" {
		return key
	}
	return path + "." + key
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
