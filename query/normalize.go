package query

import (
	"github.com/signadot/mquery/debug"
	"github.com/signadot/mquery/ir"
)

// normalizer normalizes and validates operator arguments and exact match
// values as a traversal.
type normalizer struct {
	q            *Query
	validateOnly bool
}

func (n *normalizer) visitor() Visitor {
	return Visitor{
		OnQueryOperator: n.onQueryOperator,
		OnExprOperator:  n.onExprOperator,
		OnExactMatch:    n.onExactMatch,
	}
}

func (n *normalizer) context(field string, expr *ir.Node) (*NormalizeContext, error) {
	sub, err := n.q.subschema(field)
	if err != nil {
		return nil, err
	}
	return &NormalizeContext{Field: field, Expr: expr, Subschema: sub, Factory: n.q.cfg.factory}, nil
}

func (n *normalizer) onQueryOperator(arg *ir.Node, name string, q *ir.Node, field string, _ *ir.Node, _ string) (Action, error) {
	op, err := n.q.cfg.factory.Query.Lookup(name)
	if err != nil {
		return Stop, err
	}
	nc, err := n.context(field, nil)
	if err != nil {
		return Stop, err
	}
	if !n.validateOnly {
		res, err := op.Normalize(arg, nc)
		if err != nil {
			return Stop, err
		}
		if res != arg {
			q.Set(name, res)
			arg = res
		}
	}
	return Continue, op.Validate(arg, nc)
}

func (n *normalizer) onExprOperator(arg *ir.Node, field, name string, expr *ir.Node, _ *ir.Node, _ string) (Action, error) {
	if _, isVar := VarName(arg); isVar {
		return Stop, nil
	}
	op, err := n.q.cfg.factory.Expr.Lookup(name)
	if err != nil {
		return Stop, err
	}
	nc, err := n.context(field, expr)
	if err != nil {
		return Stop, err
	}
	if !n.validateOnly {
		res, err := op.Normalize(arg, nc)
		if err != nil {
			return Stop, err
		}
		if res != arg {
			if debug.Normalize() {
				debug.Logf("normalized %s %s: %v -> %v\n", field, name, arg, res)
			}
			expr.Set(name, res)
			arg = res
		}
	}
	return Continue, op.Validate(arg, nc)
}

func (n *normalizer) onExactMatch(v *ir.Node, field string, parent *ir.Node, key string) (Action, error) {
	if n.validateOnly {
		return Continue, nil
	}
	nc, err := n.context(field, nil)
	if err != nil {
		return Stop, err
	}
	res, err := nc.Value(v)
	if err != nil {
		return Stop, err
	}
	if res != v {
		parent.Set(key, res)
	}
	return Continue, nil
}
