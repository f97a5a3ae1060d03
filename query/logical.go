package query

import (
	"github.com/signadot/mquery/ir"
)

type logicalKind int

const (
	andKind logicalKind = iota
	orKind
	norKind
)

var (
	andOp = &logical{base: base{name: "$and"}, kind: andKind}
	orOp  = &logical{base: base{name: "$or"}, kind: orKind}
	norOp = &logical{base: base{name: "$nor"}, kind: norKind}
)

// And matches if every sub-query matches.
func And() QueryOperator { return andOp }

// Or matches if some sub-query matches.
func Or() QueryOperator { return orOp }

// Nor matches if no sub-query matches.
func Nor() QueryOperator { return norOp }

type logical struct {
	base
	kind logicalKind
}

func (o *logical) Matches(value, arg *ir.Node, mc *MatchContext) (bool, error) {
	for _, sub := range arg.Values {
		ok, err := mc.MatchQuery(value, sub)
		if err != nil {
			return false, err
		}
		switch {
		case o.kind == andKind && !ok:
			return false, nil
		case o.kind == orKind && ok:
			return true, nil
		case o.kind == norKind && ok:
			return false, nil
		}
	}
	return o.kind != orKind, nil
}

func (o *logical) Validate(arg *ir.Node, nc *NormalizeContext) error {
	if arg.Type != ir.ArrayType {
		return nc.errorf(o.name, "Argument must be an array", arg)
	}
	for _, sub := range arg.Values {
		if sub.Type != ir.ObjectType {
			return nc.errorf(o.name, "Argument must be an array of queries", arg)
		}
	}
	return nil
}

func (o *logical) Traverse(arg *ir.Node, field string, t *Traversal) error {
	if arg.Type != ir.ArrayType {
		return nil
	}
	for _, sub := range arg.Values {
		if err := t.Query(sub, field); err != nil {
			return err
		}
	}
	return nil
}
