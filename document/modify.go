package document

import (
	"sort"
	"strconv"

	"github.com/Neumenon/tonl/query"
	"github.com/Neumenon/tonl/tonl"
)

// ============================================================
// Addressing
// ============================================================

// address returns the Child and Index segments of a path that names a
// single location. ok is false when any other segment appears.
func address(p *query.Path) ([]query.Segment, bool) {
	segs := p.Segments[1:]
	for _, seg := range segs {
		switch seg.(type) {
		case query.Child, query.Index:
		default:
			return nil, false
		}
	}
	return segs, true
}

func segName(seg query.Segment) string {
	switch s := seg.(type) {
	case query.Child:
		return s.Name
	case query.Index:
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return "?"
}

// lookup returns the child of v named by seg.
func lookup(v tonl.Value, seg query.Segment) (tonl.Value, bool) {
	switch s := seg.(type) {
	case query.Child:
		if obj, ok := v.(*tonl.Object); ok {
			return obj.Get(s.Name)
		}
	case query.Index:
		if list, ok := v.(*tonl.List); ok {
			return list.At(s.Index)
		}
	}
	return nil, false
}

// emptyFor returns the container a missing step is created as.
func emptyFor(seg query.Segment) tonl.Value {
	if _, ok := seg.(query.Index); ok {
		return tonl.NewList()
	}
	return tonl.NewObject()
}

// assign stores v in parent under seg. With grow set, an index past the
// end pads the list with nulls.
func assign(parent tonl.Value, seg query.Segment, v tonl.Value, grow bool) error {
	switch s := seg.(type) {
	case query.Child:
		obj, ok := parent.(*tonl.Object)
		if !ok {
			return typeError(ErrNotObject, s.Name, parent.Kind())
		}
		obj.Set(s.Name, v)
		return nil
	case query.Index:
		list, ok := parent.(*tonl.List)
		if !ok {
			return typeError(ErrNotList, segName(s), parent.Kind())
		}
		i := s.Index
		if i < 0 {
			i += list.Len()
		}
		switch {
		case i < 0:
			return ErrIndexRange
		case i < list.Len():
			list.Items[i] = v
		case grow:
			for list.Len() < i {
				list.Append(tonl.Null{})
			}
			list.Append(v)
		default:
			return ErrIndexRange
		}
		return nil
	}
	return ErrNotAddressable
}

// target resolves an addressable path that must already exist.
func (d *Document) target(op, path string) (tonl.Value, error) {
	p, err := d.path(op, path)
	if err != nil {
		return nil, err
	}
	segs, ok := address(p)
	if !ok {
		return nil, opError(op, path, ErrNotAddressable)
	}
	v := d.root
	for _, seg := range segs {
		if v, ok = lookup(v, seg); !ok {
			return nil, opError(op, path, ErrNotFound)
		}
	}
	return v, nil
}

func (d *Document) list(op, path string) (*tonl.List, error) {
	v, err := d.target(op, path)
	if err != nil {
		return nil, err
	}
	list, ok := v.(*tonl.List)
	if !ok {
		return nil, opError(op, path, typeError(ErrNotList, path, v.Kind()))
	}
	return list, nil
}

// ============================================================
// Set and Delete
// ============================================================

// Set stores v at path. Missing steps are created: an object, or a list
// when the following step is an index. An index past the end of a list
// pads it with nulls, up to the node limit; a negative index counts from
// the end. Setting `$` replaces the root. A failed Set changes nothing.
func (d *Document) Set(path string, v tonl.Value) error {
	if v == nil {
		v = tonl.Null{}
	}
	p, err := d.path("set", path)
	if err != nil {
		return err
	}
	segs, ok := address(p)
	if !ok {
		return opError("set", path, ErrNotAddressable)
	}
	if len(segs) == 0 {
		d.root = v
		return nil
	}

	if err := d.checkSet(segs); err != nil {
		return opError("set", path, err)
	}

	if _, isNull := d.root.(tonl.Null); isNull {
		d.root = emptyFor(segs[0])
	}
	cur := d.root
	for i, seg := range segs[:len(segs)-1] {
		next, ok := lookup(cur, seg)
		if _, isNull := next.(tonl.Null); !ok || isNull {
			next = emptyFor(segs[i+1])
			if err := assign(cur, seg, next, true); err != nil {
				return opError("set", path, err)
			}
		}
		cur = next
	}
	if err := assign(cur, segs[len(segs)-1], v, true); err != nil {
		return opError("set", path, err)
	}
	return nil
}

// checkSet walks segs the way Set does without changing the tree and
// returns the first error Set would hit. Steps Set would create are
// stood in for by fresh empty containers.
func (d *Document) checkSet(segs []query.Segment) error {
	cur := d.root
	if _, isNull := cur.(tonl.Null); isNull {
		cur = nil
	}
	for i, seg := range segs {
		if cur == nil {
			cur = emptyFor(seg)
		}
		if err := d.checkAssign(cur, seg); err != nil {
			return err
		}
		if i == len(segs)-1 {
			break
		}
		next, ok := lookup(cur, seg)
		if _, isNull := next.(tonl.Null); !ok || isNull {
			next = nil
		}
		cur = next
	}
	return nil
}

// checkAssign reports whether assign(parent, seg, v, true) would fail,
// including growth past the node and property limits.
func (d *Document) checkAssign(parent tonl.Value, seg query.Segment) error {
	limits := d.opts.Decode.Limits
	switch s := seg.(type) {
	case query.Child:
		obj, ok := parent.(*tonl.Object)
		if !ok {
			return typeError(ErrNotObject, s.Name, parent.Kind())
		}
		if !obj.Has(s.Name) && obj.Len() >= limits.MaxProperties {
			return &tonl.LimitError{Limit: "properties", Max: limits.MaxProperties, Actual: obj.Len() + 1}
		}
	case query.Index:
		list, ok := parent.(*tonl.List)
		if !ok {
			return typeError(ErrNotList, segName(s), parent.Kind())
		}
		i := s.Index
		if i < 0 {
			i += list.Len()
		}
		if i < 0 {
			return ErrIndexRange
		}
		if i >= limits.MaxNodes {
			return &tonl.LimitError{Limit: "nodes", Max: limits.MaxNodes, Actual: i + 1}
		}
	default:
		return ErrNotAddressable
	}
	return nil
}

// Delete removes every value path matches and returns how many were
// removed. Deleting a missing value is not an error.
func (d *Document) Delete(path string) (int, error) {
	matches, err := d.Locate(path)
	if err != nil {
		return 0, err
	}
	locs := deepestFirst(matches)
	for _, loc := range locs {
		if len(loc) == 0 {
			return 0, opError("delete", path, ErrRoot)
		}
	}
	for _, loc := range locs {
		parent := d.at(loc[:len(loc)-1])
		last := loc[len(loc)-1]
		if last.IsIndex {
			list := parent.(*tonl.List)
			list.Items = append(list.Items[:last.Index], list.Items[last.Index+1:]...)
		} else {
			parent.(*tonl.Object).Delete(last.Key)
		}
	}
	return len(locs), nil
}

// at follows a location produced by Locate.
func (d *Document) at(loc query.Location) tonl.Value {
	v := d.root
	for _, s := range loc {
		if s.IsIndex {
			v = v.(*tonl.List).Items[s.Index]
		} else {
			v, _ = v.(*tonl.Object).Get(s.Key)
		}
	}
	return v
}

// deepestFirst orders locations so that removing or replacing them one
// at a time never invalidates a location still to come: later list
// items before earlier ones, descendants before their ancestors.
func deepestFirst(matches []query.Match) []query.Location {
	seen := make(map[string]bool, len(matches))
	locs := make([]query.Location, 0, len(matches))
	for _, m := range matches {
		key := m.Location.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		locs = append(locs, m.Location)
	}
	sort.SliceStable(locs, func(i, j int) bool {
		return compareLocations(locs[i], locs[j]) > 0
	})
	return locs
}

func compareLocations(a, b query.Location) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		sa, sb := a[i], b[i]
		switch {
		case sa.IsIndex && sb.IsIndex:
			if sa.Index != sb.Index {
				if sa.Index < sb.Index {
					return -1
				}
				return 1
			}
		case !sa.IsIndex && !sb.IsIndex:
			if sa.Key != sb.Key {
				if sa.Key < sb.Key {
					return -1
				}
				return 1
			}
		}
	}
	return len(a) - len(b)
}

// ============================================================
// List operations
// ============================================================

// Push appends values to the list at path and returns its new length.
func (d *Document) Push(path string, values ...tonl.Value) (int, error) {
	list, err := d.list("push", path)
	if err != nil {
		return 0, err
	}
	list.Append(values...)
	return list.Len(), nil
}

// Pop removes and returns the last item of the list at path. An empty
// list yields nil.
func (d *Document) Pop(path string) (tonl.Value, error) {
	list, err := d.list("pop", path)
	if err != nil || list.Len() == 0 {
		return nil, err
	}
	last := list.Items[list.Len()-1]
	list.Items = list.Items[:list.Len()-1]
	return last, nil
}

// Shift removes and returns the first item of the list at path. An
// empty list yields nil.
func (d *Document) Shift(path string) (tonl.Value, error) {
	list, err := d.list("shift", path)
	if err != nil || list.Len() == 0 {
		return nil, err
	}
	first := list.Items[0]
	list.Items = append(list.Items[:0], list.Items[1:]...)
	return first, nil
}

// Unshift inserts values at the front of the list at path, keeping
// their order, and returns its new length.
func (d *Document) Unshift(path string, values ...tonl.Value) (int, error) {
	list, err := d.list("unshift", path)
	if err != nil {
		return 0, err
	}
	items := make([]tonl.Value, 0, len(values)+list.Len())
	items = append(items, values...)
	list.Items = append(items, list.Items...)
	return list.Len(), nil
}

// ============================================================
// Bulk updates
// ============================================================

// Merge copies the members of updates into the object at path. Existing
// keys are replaced in place and new keys are appended. The merge is
// shallow.
func (d *Document) Merge(path string, updates *tonl.Object) error {
	v, err := d.target("merge", path)
	if err != nil {
		return err
	}
	obj, ok := v.(*tonl.Object)
	if !ok {
		return opError("merge", path, typeError(ErrNotObject, path, v.Kind()))
	}
	for _, m := range updates.Members() {
		obj.Set(m.Key, m.Value)
	}
	return nil
}

// Transform replaces every value path matches with fn applied to it and
// returns the number of values replaced. Matches nested inside other
// matches are replaced first.
func (d *Document) Transform(path string, fn func(tonl.Value) tonl.Value) (int, error) {
	matches, err := d.Locate(path)
	if err != nil {
		return 0, err
	}
	locs := deepestFirst(matches)
	for _, loc := range locs {
		if len(loc) == 0 {
			d.root = orNull(fn(d.root))
			continue
		}
		parent := d.at(loc[:len(loc)-1])
		last := loc[len(loc)-1]
		if last.IsIndex {
			list := parent.(*tonl.List)
			list.Items[last.Index] = orNull(fn(list.Items[last.Index]))
		} else {
			obj := parent.(*tonl.Object)
			old, _ := obj.Get(last.Key)
			obj.Set(last.Key, orNull(fn(old)))
		}
	}
	return len(locs), nil
}

// UpdateMany sets a copy of v at each path and returns how many
// succeeded. Failing paths are skipped and logged at debug level.
func (d *Document) UpdateMany(paths []string, v tonl.Value) int {
	n := 0
	for _, path := range paths {
		if err := d.Set(path, tonl.Clone(orNull(v))); err != nil {
			d.log.WithField("path", path).WithError(err).Debug("update skipped")
			continue
		}
		n++
	}
	return n
}

func orNull(v tonl.Value) tonl.Value {
	if v == nil {
		return tonl.Null{}
	}
	return v
}
