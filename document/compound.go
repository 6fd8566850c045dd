package document

import (
	"github.com/Neumenon/tonl/query"
	"github.com/Neumenon/tonl/tonl"
)

// CompoundKey evaluates each field path against element, not against any
// enclosing document, and returns the results in order. A missing field
// contributes null; an expanding field path contributes a list of its
// matches.
//
//	key, _ := CompoundKey(user, []string{"name", "profile.age"}, query.DefaultEvalOptions())
func CompoundKey(element tonl.Value, fieldPaths []string, opts query.EvalOptions) (*tonl.List, error) {
	key := tonl.NewList()
	for _, field := range fieldPaths {
		p, err := query.Parse(field)
		if err != nil {
			return nil, opError("compound-key", field, err)
		}
		res, err := query.Evaluate(element, p, opts)
		if err != nil {
			return nil, opError("compound-key", field, err)
		}
		switch v, ok := res.Single(); {
		case res.Expanding:
			key.Append(tonl.NewList(res.Values...))
		case ok:
			key.Append(v)
		default:
			key.Append(tonl.Null{})
		}
	}
	return key, nil
}

// CompoundKeys computes the compound key of every item of the list at
// path, one key per item in list order.
func (d *Document) CompoundKeys(path string, fieldPaths []string) ([]*tonl.List, error) {
	list, err := d.list("compound-keys", path)
	if err != nil {
		return nil, err
	}
	keys := make([]*tonl.List, list.Len())
	for i, item := range list.Items {
		if keys[i], err = CompoundKey(item, fieldPaths, d.opts.Eval); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
