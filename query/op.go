package query

import (
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
	"github.com/signadot/mquery/schema"
)

// QueryOperator evaluates against the whole value currently being matched,
// like $and.
type QueryOperator interface {
	Name() string
	Matches(value, arg *ir.Node, mc *MatchContext) (bool, error)
	// Normalize returns the normalized form of arg, which may be arg
	// itself.
	Normalize(arg *ir.Node, nc *NormalizeContext) (*ir.Node, error)
	Validate(arg *ir.Node, nc *NormalizeContext) error
	// Traverse walks the sub-queries of arg, if any.
	Traverse(arg *ir.Node, field string, t *Traversal) error
}

// ExprOperator evaluates against the value found at a field path, like
// $gt. The value is nil when the field is absent.
type ExprOperator interface {
	Name() string
	// Matches evaluates the operator. expr is the operator expression
	// holding it, for operators which consult their siblings.
	Matches(value, arg, expr *ir.Node, mc *MatchContext) (bool, error)
	Normalize(arg *ir.Node, nc *NormalizeContext) (*ir.Node, error)
	Validate(arg *ir.Node, nc *NormalizeContext) error
	Traverse(arg *ir.Node, field string, t *Traversal) error
	// NewQueryContext reports whether the sub-queries of this operator
	// apply to a different value than the enclosing query, as with
	// $elemMatch.
	NewQueryContext() bool
}

// ValueOperator is an ExprOperator without Matches, which tests single
// values. Flat turns it into an ExprOperator.
type ValueOperator interface {
	Name() string
	MatchesValue(value, arg, expr *ir.Node, mc *MatchContext) (bool, error)
	Normalize(arg *ir.Node, nc *NormalizeContext) (*ir.Node, error)
	Validate(arg *ir.Node, nc *NormalizeContext) error
	Traverse(arg *ir.Node, field string, t *Traversal) error
	NewQueryContext() bool
}

// Flat gives op array flattening semantics: an array value matches if any
// of its elements does. Within one operator expression, all flattened
// operators must be satisfied by the same element.
func Flat(op ValueOperator) ExprOperator {
	return flat{op}
}

type flat struct {
	ValueOperator
}

func (f flat) Matches(value, arg, expr *ir.Node, mc *MatchContext) (bool, error) {
	if value == nil || value.Type != ir.ArrayType {
		return f.MatchesValue(value, arg, expr, mc)
	}
	for _, elt := range value.Values {
		ok, err := f.MatchesValue(elt, arg, expr, mc)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// base provides the defaults for operators without sub-queries and
// without normalization.
type base struct {
	name string
}

func (b base) Name() string {
	return b.name
}

func (b base) Normalize(arg *ir.Node, _ *NormalizeContext) (*ir.Node, error) {
	return arg, nil
}

func (b base) Validate(*ir.Node, *NormalizeContext) error {
	return nil
}

func (b base) Traverse(*ir.Node, string, *Traversal) error {
	return nil
}

func (b base) NewQueryContext() bool {
	return false
}

// NormalizeContext is passed to operator normalization and validation.
type NormalizeContext struct {
	// Field is the field the operator applies to, including any field
	// prefix. It is empty for operators at the root of a query.
	Field string
	// Expr is the operator expression holding the operator, nil for query
	// operators.
	Expr *ir.Node
	// Subschema is the schema of Field, nil if there is no schema or the
	// field is unknown to it.
	Subschema *schema.Node
	Factory   *Factory
}

// Value normalizes v as a value of Field. Scalars compared against an
// array field are normalized with the element schema.
func (nc *NormalizeContext) Value(v *ir.Node) (*ir.Node, error) {
	sub := nc.Subschema
	if sub == nil || v == nil {
		return v, nil
	}
	if _, isVar := VarName(v); isVar {
		return v, nil
	}
	if sub.Type == schema.ArrayType && v.Type != ir.ArrayType {
		sub = sub.Elements
	}
	res, err := schema.Normalize(sub, v.Clone())
	if err != nil {
		return nil, &mqerr.ValidationError{Kind: mqerr.QueryKind, Reason: "Invalid value for field", Path: ir.PathString(nc.Field), Value: v.JSON(), Err: err}
	}
	return res, nil
}

func (nc *NormalizeContext) errorf(op, reason string, arg *ir.Node) error {
	path := op
	if nc.Field != "" {
		path = nc.Field + " " + op
	}
	var v any
	if arg != nil {
		v = arg.JSON()
	}
	return mqerr.Query(reason, path, v)
}
