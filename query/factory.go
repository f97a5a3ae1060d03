package query

import (
	"strings"
	"sync"

	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
	"github.com/signadot/mquery/opreg"
)

// Factory holds the operator registries a Query dispatches through.
type Factory struct {
	Query *opreg.Registry[QueryOperator]
	Expr  *opreg.Registry[ExprOperator]
}

// NewFactory returns a factory with the built in operators registered.
// Custom operators may be registered on the result before it is used.
func NewFactory() *Factory {
	return &Factory{
		Query: opreg.New(mqerr.QueryKind, "query",
			And(), Or(), Nor(), Expr(),
		),
		Expr: opreg.New(mqerr.QueryKind, "expression",
			Exists(), Not(), ElemMatch(), In(), Nin(), All(), Size(),
			Text(), Wildcard(), Regex(), Options(),
			Gt(), Gte(), Lt(), Lte(), Ne(),
			Near(), GeoIntersects(),
		),
	}
}

var DefaultFactory = sync.OnceValue(NewFactory)

// IsOperator reports whether a query key names an operator.
func IsOperator(key string) bool {
	return strings.HasPrefix(key, "$")
}

// ValueKind classifies the value of a field in a query.
type ValueKind int

const (
	ExactMatch ValueKind = iota
	OperatorExpression
)

// Classify tells whether v, the value of field in a query, is an exact
// match value or an operator expression. Objects mixing operator and
// non-operator keys are a validation error.
func Classify(v *ir.Node, field string) (ValueKind, error) {
	if v == nil || v.Type != ir.ObjectType || len(v.Fields) == 0 {
		return ExactMatch, nil
	}
	if _, isVar := VarName(v); isVar {
		return ExactMatch, nil
	}
	ops := 0
	for _, f := range v.Fields {
		if IsOperator(f.String) {
			ops++
		}
	}
	switch ops {
	case 0:
		return ExactMatch, nil
	case len(v.Fields):
		return OperatorExpression, nil
	}
	return ExactMatch, mqerr.Query("Cannot mix operators and non-operators", ir.PathString(field), v.JSON())
}
