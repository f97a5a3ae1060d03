package query

import (
	"strings"

	"github.com/signadot/mquery/ir"
)

type cmpKind int

const (
	gtKind cmpKind = iota
	gteKind
	ltKind
	lteKind
)

var (
	gtOp  = Flat(&cmpOperator{base{name: "$gt"}, gtKind})
	gteOp = Flat(&cmpOperator{base{name: "$gte"}, gteKind})
	ltOp  = Flat(&cmpOperator{base{name: "$lt"}, ltKind})
	lteOp = Flat(&cmpOperator{base{name: "$lte"}, lteKind})
	neOp  = &neOperator{base{name: "$ne"}}
)

func Gt() ExprOperator  { return gtOp }
func Gte() ExprOperator { return gteOp }
func Lt() ExprOperator  { return ltOp }
func Lte() ExprOperator { return lteOp }

// Ne matches values which do not exactly match its argument.
func Ne() ExprOperator { return neOp }

// cmpOperator compares numbers with numbers, strings with strings and
// booleans with booleans. Values of other kinds never match.
type cmpOperator struct {
	base
	kind cmpKind
}

func (o *cmpOperator) MatchesValue(value, arg, _ *ir.Node, _ *MatchContext) (bool, error) {
	c, ok := compareScalars(value, arg)
	if !ok {
		return false, nil
	}
	switch o.kind {
	case gtKind:
		return c > 0, nil
	case gteKind:
		return c >= 0, nil
	case ltKind:
		return c < 0, nil
	default:
		return c <= 0, nil
	}
}

func compareScalars(a, b *ir.Node) (int, bool) {
	if a == nil || b == nil || a.Type != b.Type {
		return 0, false
	}
	switch a.Type {
	case ir.NumberType, ir.BoolType, ir.NullType:
		return ir.Compare(a, b), true
	case ir.StringType:
		return strings.Compare(a.String, b.String), true
	}
	return 0, false
}

func (o *cmpOperator) Normalize(arg *ir.Node, nc *NormalizeContext) (*ir.Node, error) {
	return nc.Value(arg)
}

func (o *cmpOperator) Validate(arg *ir.Node, nc *NormalizeContext) error {
	if !arg.Type.IsLeaf() {
		return nc.errorf(o.name, "Argument must be a scalar", arg)
	}
	return nil
}

type neOperator struct{ base }

func (o *neOperator) Matches(value, arg, _ *ir.Node, _ *MatchContext) (bool, error) {
	ok, err := ExactMatches(value, arg)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (o *neOperator) Normalize(arg *ir.Node, nc *NormalizeContext) (*ir.Node, error) {
	return nc.Value(arg)
}
