package query

import (
	"strconv"

	"github.com/signadot/mquery/dpath"
	"github.com/signadot/mquery/ir"
)

// Action tells the traversal whether to descend into a node.
type Action int

const (
	Continue Action = iota
	// Stop skips the children of the node, such as the sub-queries of a
	// query operator.
	Stop
)

// Visitor holds the callbacks of a traversal. Nil callbacks are skipped.
//
// Field arguments are dotted field paths including the field prefix of the
// traversal. Sub-queries of operators which start a new query context
// extend the field with dpath.Wildcard.
//
// The operator callbacks also receive where q or expr sits: the object or
// array holding it and its key or index there. Both are empty at the root.
type Visitor struct {
	// OnQuery is called for every query object, before its keys.
	OnQuery func(q *ir.Node, field string) (Action, error)
	// OnQueryOperator is called for query operators such as $and. The
	// operator is the key name of q.
	OnQueryOperator func(arg *ir.Node, name string, q *ir.Node, field string, parent *ir.Node, key string) (Action, error)
	// OnExprOperator is called for every operator of an operator
	// expression; the operator is the key name of expr.
	OnExprOperator func(arg *ir.Node, field, name string, expr *ir.Node, parent *ir.Node, key string) (Action, error)
	// OnExactMatch is called for exact match values; v is the value of key
	// in parent.
	OnExactMatch func(v *ir.Node, field string, parent *ir.Node, key string) (Action, error)
}

// Traversal walks a query tree calling a Visitor. Operators recurse
// through it in their Traverse methods.
type Traversal struct {
	v Visitor
	f *Factory
}

func NewTraversal(f *Factory, v Visitor) *Traversal {
	if f == nil {
		f = DefaultFactory()
	}
	return &Traversal{v: v, f: f}
}

// Query walks the query q whose fields are relative to field.
func (t *Traversal) Query(q *ir.Node, field string) error {
	if q == nil || q.Type != ir.ObjectType {
		return nil
	}
	if t.v.OnQuery != nil {
		act, err := t.v.OnQuery(q, field)
		if err != nil || act == Stop {
			return err
		}
	}
	for i := 0; i < len(q.Fields); i++ {
		key := q.Fields[i].String
		if !IsOperator(key) {
			if err := t.Value(q.Values[i], dpath.Join(field, key), q, key); err != nil {
				return err
			}
			continue
		}
		if !t.f.Query.Has(key) && t.f.Expr.Has(key) {
			// an expression operator at the root of a query applies to
			// the value being matched.
			if err := t.exprOp(q, i, field); err != nil {
				return err
			}
			continue
		}
		op, err := t.f.Query.Lookup(key)
		if err != nil {
			return err
		}
		if t.v.OnQueryOperator != nil {
			parent, pkey := location(q)
			act, err := t.v.OnQueryOperator(q.Values[i], key, q, field, parent, pkey)
			if err != nil {
				return err
			}
			if act == Stop {
				continue
			}
		}
		if err := op.Traverse(q.Values[i], field, t); err != nil {
			return err
		}
	}
	return nil
}

// Value walks the value v of a field, key in parent.
func (t *Traversal) Value(v *ir.Node, field string, parent *ir.Node, key string) error {
	kind, err := Classify(v, field)
	if err != nil {
		return err
	}
	if kind == OperatorExpression {
		return t.Expr(v, field)
	}
	if t.v.OnExactMatch != nil {
		_, err := t.v.OnExactMatch(v, field, parent, key)
		return err
	}
	return nil
}

// Expr walks the operator expression expr applying to field.
func (t *Traversal) Expr(expr *ir.Node, field string) error {
	if expr == nil || expr.Type != ir.ObjectType {
		return nil
	}
	for i := 0; i < len(expr.Fields); i++ {
		if err := t.exprOp(expr, i, field); err != nil {
			return err
		}
	}
	return nil
}

func (t *Traversal) exprOp(expr *ir.Node, i int, field string) error {
	name := expr.Fields[i].String
	op, err := t.f.Expr.Lookup(name)
	if err != nil {
		return err
	}
	if t.v.OnExprOperator != nil {
		parent, key := location(expr)
		act, err := t.v.OnExprOperator(expr.Values[i], field, name, expr, parent, key)
		if err != nil || act == Stop {
			return err
		}
	}
	return op.Traverse(expr.Values[i], field, t)
}

// location returns the container of n and the key or index of n in it.
func location(n *ir.Node) (*ir.Node, string) {
	p := n.Parent
	switch {
	case p == nil:
		return nil, ""
	case p.Type == ir.ArrayType:
		return p, strconv.Itoa(n.ParentIndex)
	}
	return p, n.ParentField
}

// Traverse walks the query with v.
func (q *Query) Traverse(v Visitor) error {
	return NewTraversal(q.cfg.factory, v).Query(q.spec, q.cfg.fieldPrefix)
}
