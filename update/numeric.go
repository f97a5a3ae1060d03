package update

import (
	"math"
	"strings"

	"github.com/signadot/mquery/dpath"
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
	"github.com/signadot/mquery/schema"
)

var (
	incOp = &arithOperator{base: base{name: "$inc"}, identity: identityOperand, op: add}
	mulOp = &arithOperator{base: base{name: "$mul"}, identity: identityZero, op: mul}
	minOp = &boundOperator{base: base{name: "$min"}, keep: func(c int) bool { return c < 0 }}
	maxOp = &boundOperator{base: base{name: "$max"}, keep: func(c int) bool { return c > 0 }}
)

// Inc returns the $inc operator. An absent field is set to the operand.
func Inc() Operator { return incOp }

// Mul returns the $mul operator. An absent field is set to zero.
func Mul() Operator { return mulOp }

// Min returns the $min operator, which sets a field when the operand is
// smaller than its value or the field is absent.
func Min() Operator { return minOp }

// Max is Min for larger operands.
func Max() Operator { return maxOp }

// Results of integer arithmetic stay integers while they are well within
// the int64 range.
const intLimit = 1 << 62

func numOp(a, b *ir.Node, iop func(x, y int64) int64, fop func(x, y float64) float64) *ir.Node {
	fa, _ := a.Num()
	fb, _ := b.Num()
	f := fop(fa, fb)
	if a.Int64 != nil && b.Int64 != nil && math.Abs(f) < intLimit {
		return ir.FromInt(iop(*a.Int64, *b.Int64))
	}
	return ir.FromFloat(f)
}

func add(a, b *ir.Node) *ir.Node {
	return numOp(a, b,
		func(x, y int64) int64 { return x + y },
		func(x, y float64) float64 { return x + y })
}

func mul(a, b *ir.Node) *ir.Node {
	return numOp(a, b,
		func(x, y int64) int64 { return x * y },
		func(x, y float64) float64 { return x * y })
}

func isZero(n *ir.Node) bool {
	f, ok := n.Num()
	return ok && f == 0
}

type identityKind int

const (
	identityOperand identityKind = iota
	identityZero
)

type arithOperator struct {
	base
	identity identityKind
	op       func(a, b *ir.Node) *ir.Node
}

func (o *arithOperator) Normalize(param *ir.Node, _ *NormalizeContext) (*ir.Node, error) {
	res, err := schema.Normalize(&schema.Node{Type: schema.NumberType}, param)
	if err != nil {
		return param, nil
	}
	return res, nil
}

func (o *arithOperator) Validate(param *ir.Node, nc *NormalizeContext) error {
	if param.Type != ir.NumberType {
		return nc.errorf(o.name, "Argument must be a number", param)
	}
	return nil
}

func (o *arithOperator) Apply(doc, arg *ir.Node, ac *ApplyContext) error {
	return eachField(arg, ac, func(field string, param *ir.Node) error {
		cur := dpath.Get(doc, field)
		var res *ir.Node
		switch {
		case cur == nil && o.identity == identityZero:
			res = o.op(ir.FromInt(0), param)
		case cur == nil:
			res = param.Clone()
		case cur.Type != ir.NumberType:
			return mqerr.ObjectMatch("Cannot apply "+o.name+" to a non-numeric value", field, cur.JSON())
		default:
			res = o.op(cur, param)
		}
		if err := dpath.Set(doc, field, res); err != nil {
			return err
		}
		ac.Modified(field, res)
		return nil
	})
}

// Compose sums $inc operands, dropping a zero sum, and multiplies $mul
// operands.
func (o *arithOperator) Compose(earlier, later *ir.Node, _ *ComposeContext) (*ir.Node, error) {
	res := o.op(earlier, later)
	if o.identity == identityOperand && isZero(res) {
		return nil, nil
	}
	return res, nil
}

type boundOperator struct {
	base
	keep func(cmp int) bool
}

// compareBounds compares numbers with numbers and strings, such as
// normalized dates, with strings.
func compareBounds(a, b *ir.Node) (int, bool) {
	switch {
	case a.Type == ir.NumberType && b.Type == ir.NumberType:
		return ir.Compare(a, b), true
	case a.Type == ir.StringType && b.Type == ir.StringType:
		return strings.Compare(a.String, b.String), true
	}
	return 0, false
}

func (o *boundOperator) Normalize(param *ir.Node, nc *NormalizeContext) (*ir.Node, error) {
	return nc.Value(param)
}

func (o *boundOperator) Validate(param *ir.Node, nc *NormalizeContext) error {
	if param.Type != ir.NumberType && param.Type != ir.StringType {
		return nc.errorf(o.name, "Argument must be a number or a date", param)
	}
	return nil
}

func (o *boundOperator) Apply(doc, arg *ir.Node, ac *ApplyContext) error {
	return eachField(arg, ac, func(field string, param *ir.Node) error {
		cur := dpath.Get(doc, field)
		if cur != nil {
			c, ok := compareBounds(param, cur)
			if !ok {
				return mqerr.ObjectMatch("Cannot apply "+o.name+" to a value of a different type", field, cur.JSON())
			}
			if !o.keep(c) {
				return nil
			}
		}
		v := param.Clone()
		if err := dpath.Set(doc, field, v); err != nil {
			return err
		}
		ac.Modified(field, v)
		return nil
	})
}

// Compose keeps the more restrictive bound.
func (o *boundOperator) Compose(earlier, later *ir.Node, cc *ComposeContext) (*ir.Node, error) {
	c, ok := compareBounds(later, earlier)
	if !ok {
		return nil, &mqerr.ComposeUpdateError{Reason: "bounds of different types", Op: o.name, Path: cc.Field}
	}
	if o.keep(c) {
		return later, nil
	}
	return earlier, nil
}
