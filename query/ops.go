package query

import (
	"strings"

	"github.com/signadot/mquery/dpath"
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/schema"
)

var (
	existsOp    = &existsOperator{base{name: "$exists"}}
	notOp       = &notOperator{base{name: "$not"}}
	elemMatchOp = &elemMatchOperator{base{name: "$elemMatch"}}
	inOp        = &inOperator{base{name: "$in"}}
	ninOp       = &negated{&inOperator{base{name: "$nin"}}}
	allOp       = &allOperator{inOperator{base{name: "$all"}}}
	sizeOp      = &sizeOperator{base{name: "$size"}}
)

// Exists matches present fields, including null ones, with true and absent
// fields with false.
func Exists() ExprOperator { return existsOp }

// Not negates an operator expression.
func Not() ExprOperator { return notOp }

// ElemMatch matches arrays with an element matching a query.
func ElemMatch() ExprOperator { return elemMatchOp }

// In matches values exactly matching one of a list.
func In() ExprOperator { return inOp }

// Nin is In negated.
func Nin() ExprOperator { return ninOp }

// All matches values exactly matching every element of a list.
func All() ExprOperator { return allOp }

// Size matches arrays of a given length.
func Size() ExprOperator { return sizeOp }

type existsOperator struct{ base }

func (o *existsOperator) Matches(value, arg, _ *ir.Node, _ *MatchContext) (bool, error) {
	return (value != nil) == arg.Bool, nil
}

func (o *existsOperator) Normalize(arg *ir.Node, nc *NormalizeContext) (*ir.Node, error) {
	switch arg.Type {
	case ir.BoolType:
		return arg, nil
	case ir.NumberType, ir.NullType:
		return ir.FromBool(ir.Truth(arg)), nil
	case ir.StringType:
		switch strings.ToLower(arg.String) {
		case "true", "yes", "1":
			return ir.FromBool(true), nil
		case "false", "no", "0", "":
			return ir.FromBool(false), nil
		}
	}
	return arg, nil
}

func (o *existsOperator) Validate(arg *ir.Node, nc *NormalizeContext) error {
	if arg.Type != ir.BoolType {
		return nc.errorf(o.name, "Argument must be a boolean", arg)
	}
	return nil
}

type notOperator struct{ base }

func (o *notOperator) Matches(value, arg, _ *ir.Node, mc *MatchContext) (bool, error) {
	ok, err := mc.MatchExpr(value, arg)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (o *notOperator) Validate(arg *ir.Node, nc *NormalizeContext) error {
	if kind, err := Classify(arg, nc.Field); err != nil || kind != OperatorExpression {
		return nc.errorf(o.name, "Argument must be an operator expression", arg)
	}
	return nil
}

func (o *notOperator) Traverse(arg *ir.Node, field string, t *Traversal) error {
	return t.Expr(arg, field)
}

type elemMatchOperator struct{ base }

func (o *elemMatchOperator) Matches(value, arg, _ *ir.Node, mc *MatchContext) (bool, error) {
	if value == nil || value.Type != ir.ArrayType {
		return false, nil
	}
	for _, elt := range value.Values {
		ok, err := mc.MatchQuery(elt, arg)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (o *elemMatchOperator) Validate(arg *ir.Node, nc *NormalizeContext) error {
	if arg.Type != ir.ObjectType {
		return nc.errorf(o.name, "Argument must be a query", arg)
	}
	return nil
}

func (o *elemMatchOperator) Traverse(arg *ir.Node, field string, t *Traversal) error {
	return t.Query(arg, dpath.Join(field, dpath.Wildcard))
}

func (o *elemMatchOperator) NewQueryContext() bool {
	return true
}

type inOperator struct{ base }

func (o *inOperator) Matches(value, arg, _ *ir.Node, _ *MatchContext) (bool, error) {
	for _, v := range arg.Values {
		ok, err := ExactMatches(value, v)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (o *inOperator) Normalize(arg *ir.Node, nc *NormalizeContext) (*ir.Node, error) {
	if arg.Type != ir.ArrayType {
		return arg, nil
	}
	res := arg
	for i, v := range arg.Values {
		nv, err := nc.Value(v)
		if err != nil {
			return nil, err
		}
		if nv != v {
			if res == arg {
				res = arg.Clone()
			}
			res.SetIndex(i, nv)
		}
	}
	return res, nil
}

func (o *inOperator) Validate(arg *ir.Node, nc *NormalizeContext) error {
	if arg.Type != ir.ArrayType {
		return nc.errorf(o.name, "Argument must be an array", arg)
	}
	return nil
}

type allOperator struct{ inOperator }

func (o *allOperator) Matches(value, arg, _ *ir.Node, _ *MatchContext) (bool, error) {
	if len(arg.Values) == 0 {
		return false, nil
	}
	for _, v := range arg.Values {
		ok, err := ExactMatches(value, v)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

type sizeOperator struct{ base }

func (o *sizeOperator) Matches(value, arg, _ *ir.Node, _ *MatchContext) (bool, error) {
	if value == nil || value.Type != ir.ArrayType {
		return false, nil
	}
	n, _ := arg.Int()
	return int64(len(value.Values)) == n, nil
}

func (o *sizeOperator) Normalize(arg *ir.Node, _ *NormalizeContext) (*ir.Node, error) {
	return coerce(schema.IntegerType, arg), nil
}

func (o *sizeOperator) Validate(arg *ir.Node, nc *NormalizeContext) error {
	if n, ok := arg.Int(); !ok || n < 0 {
		return nc.errorf(o.name, "Argument must be a non-negative integer", arg)
	}
	return nil
}

// negated is an operator matching when another does not.
type negated struct {
	ExprOperator
}

func (o *negated) Matches(value, arg, expr *ir.Node, mc *MatchContext) (bool, error) {
	ok, err := o.ExprOperator.Matches(value, arg, expr, mc)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// coerce normalizes arg to the schema type typ, returning arg unchanged if
// it cannot be.
func coerce(typ string, arg *ir.Node) *ir.Node {
	res, err := schema.Normalize(&schema.Node{Type: typ}, arg)
	if err != nil {
		return arg
	}
	return res
}
