// Package query evaluates Mongo style queries against documents.
//
// A query is an object whose keys are field paths or query operators:
//
//	{"age": {"$gte": 18}, "tags": "admin", "$or": [{"a": 1}, {"b": 2}]}
//
// Field values are either exact match values, compared by deep equality,
// or operator expressions whose keys are all expression operators. Paths
// are resolved through arrays: if any component of a path reaches an
// array, the rest of the path is tried against every element.
//
// Queries are normalized and validated by New. Matches may then be called
// concurrently; Condense, TransformQueriedFields and SubstituteVars
// rewrite the query in place and must not run concurrently with anything
// else on the same Query.
package query

import (
	"fmt"

	"github.com/signadot/mquery/debug"
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
	"github.com/signadot/mquery/schema"
)

type config struct {
	skipValidate      bool
	fieldPrefix       string
	vars              map[string]*ir.Node
	ignoreMissingVars bool
	schema            *schema.Schema
	allowUnknown      bool
	factory           *Factory
}

type Option func(*config)

// SkipValidate skips normalization and validation at construction. The
// behavior of Matches on a malformed query is then unspecified: it may
// return errors or wrong results.
func SkipValidate() Option {
	return func(c *config) { c.skipValidate = true }
}

// FieldPrefix is prepended to the field paths of the query when looking up
// schemas and when reporting fields. It does not affect matching.
func FieldPrefix(p string) Option {
	return func(c *config) { c.fieldPrefix = p }
}

// Vars substitutes {"$var": name} placeholders at construction.
func Vars(vars map[string]*ir.Node) Option {
	return func(c *config) { c.vars = vars }
}

// IgnoreMissingVars leaves placeholders with no value in Vars in place
// instead of failing.
func IgnoreMissingVars() Option {
	return func(c *config) { c.ignoreMissingVars = true }
}

// WithSchema normalizes values against s and resolves paths through it.
func WithSchema(s *schema.Schema) Option {
	return func(c *config) { c.schema = s }
}

// AllowUnknownFields accepts fields the schema does not know.
func AllowUnknownFields() Option {
	return func(c *config) { c.allowUnknown = true }
}

func WithFactory(f *Factory) Option {
	return func(c *config) { c.factory = f }
}

// Query is a parsed query.
type Query struct {
	spec *ir.Node
	cfg  config
}

// New builds a query from spec, which is copied.
func New(spec *ir.Node, opts ...Option) (*Query, error) {
	q := &Query{}
	for _, o := range opts {
		o(&q.cfg)
	}
	if q.cfg.factory == nil {
		q.cfg.factory = DefaultFactory()
	}
	if spec == nil {
		spec = ir.Object()
	}
	if spec.Type != ir.ObjectType {
		return nil, mqerr.Query("Query must be an object", "", spec.JSON())
	}
	q.spec = spec.Clone()
	q.spec.Parent = nil
	if q.cfg.vars != nil {
		if err := q.SubstituteVars(q.cfg.vars, q.cfg.ignoreMissingVars); err != nil {
			return nil, err
		}
	}
	if q.cfg.skipValidate {
		return q, nil
	}
	if err := q.Normalize(); err != nil {
		return nil, err
	}
	return q, nil
}

// MustNew is New for queries known to be valid.
func MustNew(spec string, opts ...Option) *Query {
	q, err := New(ir.MustJSON(spec), opts...)
	if err != nil {
		panic(err)
	}
	return q
}

// Spec returns the query tree. It must not be modified.
func (q *Query) Spec() *ir.Node {
	return q.spec
}

func (q *Query) String() string {
	return q.spec.JSON()
}

// Normalize normalizes the query in place, then validates it.
func (q *Query) Normalize() error {
	if debug.Normalize() {
		debug.Logf("normalize query %v\n", q.spec)
	}
	n := &normalizer{q: q}
	if err := q.Traverse(n.visitor()); err != nil {
		return fmt.Errorf("normalizing query: %w", err)
	}
	return nil
}

// Validate checks the query without changing it.
func (q *Query) Validate() error {
	n := &normalizer{q: q, validateOnly: true}
	return q.Traverse(n.visitor())
}

func (q *Query) subschema(field string) (*schema.Node, error) {
	if q.cfg.schema == nil {
		return nil, nil
	}
	sub, _, err := q.cfg.schema.PathSubschema(field, q.cfg.allowUnknown)
	if err != nil {
		return nil, &mqerr.ValidationError{Kind: mqerr.QueryKind, Reason: "Unknown field", Path: field, Err: err}
	}
	return sub, nil
}
