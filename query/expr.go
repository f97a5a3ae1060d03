package query

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/signadot/mquery/dpath"
	"github.com/signadot/mquery/geo"
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
)

var exprOp = &exprOperator{base: base{name: "$expr"}}

// Expr matches if an expr-lang expression over the value being matched
// yields true. The fields of an object value are variables of the
// expression, "this" is the whole value, and
//
//	getpath(path)      returns the value at a dotted path or nil
//	haspath(path)      reports whether a dotted path is present
//	distance(p1, p2)   returns the distance in meters between two points
//
// are available as functions.
func Expr() QueryOperator { return exprOp }

type exprOperator struct {
	base
	programs sync.Map
}

func exprOpts() []expr.Option {
	return []expr.Option{
		expr.AllowUndefinedVariables(),
		expr.Function("distance", func(params ...any) (any, error) {
			var pts [2]geo.Point
			for i := range pts {
				n, err := ir.FromAny(params[i])
				if err != nil {
					return nil, err
				}
				pts[i], err = geo.ParsePoint(n)
				if err != nil {
					return nil, err
				}
			}
			return geo.Distance(pts[0], pts[1]), nil
		},
			new(func(any, any) float64)),
	}
}

func (o *exprOperator) program(src string) (*vm.Program, error) {
	if p, ok := o.programs.Load(src); ok {
		return p.(*vm.Program), nil
	}
	prg, err := expr.Compile(src, exprOpts()...)
	if err != nil {
		return nil, err
	}
	o.programs.Store(src, prg)
	return prg, nil
}

func (o *exprOperator) Matches(value, arg *ir.Node, mc *MatchContext) (bool, error) {
	prg, err := o.program(arg.String)
	if err != nil {
		return false, mqerr.Query("Invalid expression", o.name, arg.String)
	}
	res, err := expr.Run(prg, exprEnv(value))
	if err != nil {
		return false, mqerr.ObjectMatch(fmt.Sprintf("expression failed: %v", err), o.name, arg.String)
	}
	b, ok := res.(bool)
	if !ok {
		return false, mqerr.ObjectMatch(fmt.Sprintf("expression returned %T, not bool", res), o.name, arg.String)
	}
	return b, nil
}

func exprEnv(value *ir.Node) map[string]any {
	env := map[string]any{}
	if value != nil && value.Type == ir.ObjectType {
		for i, f := range value.Fields {
			env[f.String] = ir.ToAny(value.Values[i])
		}
	}
	env["this"] = ir.ToAny(value)
	env["getpath"] = func(p string) any {
		return ir.ToAny(dpath.Get(value, p))
	}
	env["haspath"] = func(p string) bool {
		return dpath.Get(value, p) != nil
	}
	return env
}

func (o *exprOperator) Validate(arg *ir.Node, nc *NormalizeContext) error {
	if arg.Type != ir.StringType {
		return nc.errorf(o.name, "Argument must be a string", arg)
	}
	if _, err := o.program(arg.String); err != nil {
		return &mqerr.ValidationError{Kind: mqerr.QueryKind, Reason: "Invalid expression", Path: o.name, Value: arg.String, Err: err}
	}
	return nil
}
