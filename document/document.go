package document

import (
	"io"

	"github.com/Neumenon/tonl/query"
	"github.com/Neumenon/tonl/tonl"
	"github.com/sirupsen/logrus"
)

// Options configures a Document.
type Options struct {
	Decode tonl.DecodeOptions
	Encode tonl.EncodeOptions

	// CacheSize bounds the number of parsed paths kept. Zero means
	// query.DefaultCacheSize.
	CacheSize int

	Eval     query.EvalOptions
	Validate query.ValidateOptions

	// Logger receives cache evictions, skipped updates and pattern
	// security faults. Nil discards.
	Logger logrus.FieldLogger
}

// DefaultOptions returns the default document options.
func DefaultOptions() Options {
	return Options{
		Decode:    tonl.DefaultDecodeOptions(),
		Encode:    tonl.DefaultEncodeOptions(),
		CacheSize: query.DefaultCacheSize,
		Eval:      query.DefaultEvalOptions(),
		Validate:  query.DefaultValidateOptions(),
	}
}

func (o Options) withDefaults() Options {
	if o.Encode == (tonl.EncodeOptions{}) {
		o.Encode = tonl.DefaultEncodeOptions()
	}
	if o.Decode.Limits.MaxNodes <= 0 {
		o.Decode.Limits.MaxNodes = tonl.DefaultMaxNodes
	}
	if o.Decode.Limits.MaxProperties <= 0 {
		o.Decode.Limits.MaxProperties = tonl.DefaultMaxProperties
	}
	if o.CacheSize <= 0 {
		o.CacheSize = query.DefaultCacheSize
	}
	if o.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.Logger = l
	}
	if o.Eval.Pattern.Logger == nil {
		o.Eval.Pattern.Logger = o.Logger
	}
	return o
}

// Document is a value tree with a path cache.
type Document struct {
	root  tonl.Value
	opts  Options
	cache *query.Cache
	log   logrus.FieldLogger
}

// Parse decodes notation text into a document.
func Parse(text string, opts Options) (*Document, error) {
	opts = opts.withDefaults()
	v, err := tonl.DecodeWithOptions(text, opts.Decode)
	if err != nil {
		return nil, withStack(err)
	}
	return newDocument(v, opts), nil
}

// FromJSON builds a document from JSON text. Member order is kept.
func FromJSON(data []byte, opts Options) (*Document, error) {
	opts = opts.withDefaults()
	v, err := tonl.FromJSONWithLimits(data, opts.Decode.Limits)
	if err != nil {
		return nil, withStack(err)
	}
	return newDocument(v, opts), nil
}

// FromValue wraps an existing tree. The tree is used as is, not copied.
// A nil value becomes null.
func FromValue(v tonl.Value, opts Options) *Document {
	if v == nil {
		v = tonl.Null{}
	}
	return newDocument(v, opts.withDefaults())
}

func newDocument(v tonl.Value, opts Options) *Document {
	return &Document{
		root:  v,
		opts:  opts,
		cache: query.NewCacheWithOptions(opts.CacheSize, opts.Validate, opts.Logger),
		log:   opts.Logger,
	}
}

// path returns the cached parse of expr.
func (d *Document) path(op, expr string) (*query.Path, error) {
	p, err := d.cache.Get(expr)
	if err != nil {
		return nil, opError(op, expr, err)
	}
	return p, nil
}

// ============================================================
// Query
// ============================================================

// Get resolves path. A missing value yields nil and no error. An
// expanding path yields a new list holding every match.
func (d *Document) Get(path string) (tonl.Value, error) {
	p, err := d.path("get", path)
	if err != nil {
		return nil, err
	}
	res, err := query.Evaluate(d.root, p, d.opts.Eval)
	if err != nil {
		return nil, opError("get", path, err)
	}
	if res.Expanding {
		return tonl.NewList(res.Values...), nil
	}
	if v, ok := res.Single(); ok {
		return v, nil
	}
	return nil, nil
}

// Query resolves path and returns every match in document order.
func (d *Document) Query(path string) ([]tonl.Value, error) {
	p, err := d.path("query", path)
	if err != nil {
		return nil, err
	}
	res, err := query.Evaluate(d.root, p, d.opts.Eval)
	if err != nil {
		return nil, opError("query", path, err)
	}
	return res.Values, nil
}

// Locate resolves path and reports where each match lives.
func (d *Document) Locate(path string) ([]query.Match, error) {
	p, err := d.path("locate", path)
	if err != nil {
		return nil, err
	}
	matches, err := query.Locate(d.root, p, d.opts.Eval)
	if err != nil {
		return nil, opError("locate", path, err)
	}
	return matches, nil
}

// Exists reports whether path matches at least one value. Invalid paths
// do not exist.
func (d *Document) Exists(path string) bool {
	vals, err := d.Query(path)
	return err == nil && len(vals) > 0
}

// TypeOf names the type of the value at path: string, number, boolean,
// null, array, object, or undefined when nothing matches.
func (d *Document) TypeOf(path string) string {
	v, err := d.Get(path)
	if err != nil || v == nil {
		return "undefined"
	}
	return typeName(v)
}

func typeName(v tonl.Value) string {
	switch v.(type) {
	case tonl.Null:
		return "null"
	case tonl.Bool:
		return "boolean"
	case tonl.Int, tonl.Float:
		return "number"
	case tonl.String:
		return "string"
	case *tonl.List:
		return "array"
	case *tonl.Object:
		return "object"
	}
	return "undefined"
}

// ============================================================
// Export
// ============================================================

// Value returns the root of the tree. Changes to it are visible to the
// document.
func (d *Document) Value() tonl.Value { return d.root }

// Encode renders the document as notation text.
func (d *Document) Encode() (string, error) {
	text, err := tonl.EncodeWithOptions(d.root, d.opts.Encode)
	return text, withStack(err)
}

// ToJSON renders the document as compact JSON.
func (d *Document) ToJSON() ([]byte, error) {
	out, err := tonl.ToJSON(d.root)
	return out, withStack(err)
}

// Size returns the length of the encoded text in bytes.
func (d *Document) Size() (int, error) {
	text, err := d.Encode()
	if err != nil {
		return 0, err
	}
	return len(text), nil
}

// Stats summarizes the tree.
type Stats struct {
	SizeBytes      int
	NodeCount      int
	MaxDepth       int
	ArrayCount     int
	ObjectCount    int
	PrimitiveCount int
}

// Stats counts the nodes of the tree and measures its encoded size.
func (d *Document) Stats() (Stats, error) {
	size, err := d.Size()
	if err != nil {
		return Stats{}, err
	}
	s := Stats{SizeBytes: size, MaxDepth: tonl.Depth(d.root)}
	count := func(v tonl.Value) {
		s.NodeCount++
		switch v.(type) {
		case *tonl.List:
			s.ArrayCount++
		case *tonl.Object:
			s.ObjectCount++
		default:
			s.PrimitiveCount++
		}
	}
	count(d.root)
	d.walk(false, func(_ query.Location, v tonl.Value, _ int) bool {
		count(v)
		return true
	})
	return s, nil
}

// CacheStats reports path cache activity.
func (d *Document) CacheStats() query.CacheStats { return d.cache.Stats() }
