package document

import (
	"strconv"
	"strings"

	"github.com/Neumenon/tonl/query"
	"github.com/Neumenon/tonl/tonl"
)

// Entry is a value together with its path from the root.
type Entry struct {
	Path  string
	Value tonl.Value
}

// Entries returns the top-level members of the root. List items are
// keyed by their index.
func (d *Document) Entries() []tonl.Member {
	switch root := d.root.(type) {
	case *tonl.Object:
		out := make([]tonl.Member, root.Len())
		copy(out, root.Members())
		return out
	case *tonl.List:
		out := make([]tonl.Member, root.Len())
		for i, item := range root.Items {
			out[i] = tonl.Member{Key: strconv.Itoa(i), Value: item}
		}
		return out
	}
	return nil
}

// Keys returns the top-level keys of the root.
func (d *Document) Keys() []string {
	entries := d.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

// Values returns the top-level values of the root.
func (d *Document) Values() []tonl.Value {
	entries := d.Entries()
	out := make([]tonl.Value, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out
}

// DeepEntries returns every leaf with its path, such as `users[0].id`.
// Leaves are primitives and empty lists or objects.
func (d *Document) DeepEntries() []Entry {
	var out []Entry
	d.walk(true, func(loc query.Location, v tonl.Value, _ int) bool {
		if isLeaf(v) {
			out = append(out, Entry{Path: relative(loc), Value: v})
		}
		return true
	})
	return out
}

// DeepKeys returns the path of every leaf.
func (d *Document) DeepKeys() []string {
	entries := d.DeepEntries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

// DeepValues returns every leaf value.
func (d *Document) DeepValues() []tonl.Value {
	entries := d.DeepEntries()
	out := make([]tonl.Value, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out
}

// Walk calls fn for every value below the root in document order with
// its path and depth, top-level members having depth 1. Walk stops when
// fn returns false.
func (d *Document) Walk(fn func(path string, v tonl.Value, depth int) bool) {
	d.walk(true, func(loc query.Location, v tonl.Value, depth int) bool {
		return fn(relative(loc), v, depth)
	})
}

// Find returns the first value below the root, in document order, for
// which pred holds.
func (d *Document) Find(pred func(tonl.Value) bool) (tonl.Value, bool) {
	var found tonl.Value
	d.walk(false, func(_ query.Location, v tonl.Value, _ int) bool {
		if pred(v) {
			found = v
			return false
		}
		return true
	})
	return found, found != nil
}

// FindAll returns every value below the root for which pred holds.
func (d *Document) FindAll(pred func(tonl.Value) bool) []tonl.Value {
	var out []tonl.Value
	d.walk(false, func(_ query.Location, v tonl.Value, _ int) bool {
		if pred(v) {
			out = append(out, v)
		}
		return true
	})
	return out
}

// Some reports whether pred holds for any value below the root.
func (d *Document) Some(pred func(tonl.Value) bool) bool {
	_, ok := d.Find(pred)
	return ok
}

// Every reports whether pred holds for every value below the root.
func (d *Document) Every(pred func(tonl.Value) bool) bool {
	_, failed := d.Find(func(v tonl.Value) bool { return !pred(v) })
	return !failed
}

// CountNodes returns the number of values in the tree, root included.
func (d *Document) CountNodes() int {
	n := 1
	d.walk(false, func(query.Location, tonl.Value, int) bool {
		n++
		return true
	})
	return n
}

// walk visits every value below the root in pre-order.
// Locations are only built when track is set.
func (d *Document) walk(track bool, fn func(loc query.Location, v tonl.Value, depth int) bool) {
	type frame struct {
		loc   query.Location
		v     tonl.Value
		depth int
	}
	var stack []frame
	push := func(loc query.Location, v tonl.Value, depth int) {
		child := func(s query.Step) query.Location {
			if !track {
				return nil
			}
			out := make(query.Location, len(loc)+1)
			copy(out, loc)
			out[len(loc)] = s
			return out
		}
		switch c := v.(type) {
		case *tonl.List:
			for i := c.Len() - 1; i >= 0; i-- {
				stack = append(stack, frame{child(query.Step{Index: i, IsIndex: true}), c.Items[i], depth})
			}
		case *tonl.Object:
			members := c.Members()
			for i := len(members) - 1; i >= 0; i-- {
				stack = append(stack, frame{child(query.Step{Key: members[i].Key}), members[i].Value, depth})
			}
		}
	}

	push(nil, d.root, 1)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.loc, f.v, f.depth) {
			return
		}
		push(f.loc, f.v, f.depth+1)
	}
}

func isLeaf(v tonl.Value) bool {
	switch c := v.(type) {
	case *tonl.List:
		return c.Len() == 0
	case *tonl.Object:
		return c.Len() == 0
	}
	return true
}

// relative renders loc without the leading `$`.
func relative(loc query.Location) string {
	return strings.TrimPrefix(strings.TrimPrefix(loc.String(), "$"), ".")
}
