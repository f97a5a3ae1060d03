package query

import (
	"maps"

	"github.com/signadot/mquery/debug"
	"github.com/signadot/mquery/dpath"
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
)

// Props are properties set by operators while matching, such as the
// distance computed by $near.
type Props map[string]any

// MatchContext is the state of one evaluation of a query.
type MatchContext struct {
	f     *Factory
	Props Props
}

func NewMatchContext(f *Factory) *MatchContext {
	if f == nil {
		f = DefaultFactory()
	}
	return &MatchContext{f: f}
}

// SetProp sets a match property.
func (mc *MatchContext) SetProp(key string, v any) {
	if mc.Props == nil {
		mc.Props = Props{}
	}
	mc.Props[key] = v
}

// Matches reports whether doc matches the query.
func (q *Query) Matches(doc *ir.Node) (bool, error) {
	ok, _, err := q.MatchesProps(doc)
	return ok, err
}

// MatchesProps is Matches which also returns the match properties.
func (q *Query) MatchesProps(doc *ir.Node) (bool, Props, error) {
	mc := NewMatchContext(q.cfg.factory)
	ok, err := mc.matchQuery(doc, q.spec)
	if debug.Match() {
		debug.Logf("query %v on %v: %t %v\n", q.spec, doc, ok, err)
	}
	if err != nil || !ok {
		return false, nil, err
	}
	return true, mc.Props, nil
}

// MatchQuery evaluates the query q against value in a sub-evaluation
// whose properties are merged into mc if it matches.
func (mc *MatchContext) MatchQuery(value, q *ir.Node) (bool, error) {
	sub := NewMatchContext(mc.f)
	ok, err := sub.matchQuery(value, q)
	if err != nil || !ok {
		return false, err
	}
	if len(sub.Props) != 0 {
		if mc.Props == nil {
			mc.Props = Props{}
		}
		maps.Copy(mc.Props, sub.Props)
	}
	return true, nil
}

func (mc *MatchContext) matchQuery(value, q *ir.Node) (bool, error) {
	if q == nil || q.Type != ir.ObjectType {
		return false, mqerr.Query("Query must be an object", "", q.JSON())
	}
	rootExpr := false
	for i, f := range q.Fields {
		key := f.String
		arg := q.Values[i]
		var (
			ok  bool
			err error
		)
		switch {
		case !IsOperator(key):
			ok, err = mc.matchPath(value, dpath.Split(key), arg)
		case mc.f.Query.Has(key):
			op, _ := mc.f.Query.Lookup(key)
			ok, err = op.Matches(value, arg, mc)
		default:
			rootExpr = true
			continue
		}
		if err != nil || !ok {
			return false, err
		}
	}
	if !rootExpr {
		return true, nil
	}
	return mc.matchExpr(value, q, func(key string) bool {
		return IsOperator(key) && !mc.f.Query.Has(key)
	})
}

// valueMatcher is implemented by operators with array flattening
// semantics.
type valueMatcher interface {
	MatchesValue(value, arg, expr *ir.Node, mc *MatchContext) (bool, error)
}

// MatchExpr reports whether value satisfies every operator of the
// operator expression expr.
//
// If value is an array, the operators with array flattening semantics must
// all be satisfied by one element: {"$gt": 10, "$lt": 20} matches [5, 15]
// but not [5, 25]. The other operators apply to the array itself.
func (mc *MatchContext) MatchExpr(value, expr *ir.Node) (bool, error) {
	return mc.matchExpr(value, expr, func(string) bool { return true })
}

func (mc *MatchContext) matchExpr(value, expr *ir.Node, include func(string) bool) (bool, error) {
	var elementwise []int
	for i, f := range expr.Fields {
		name := f.String
		if !include(name) {
			continue
		}
		op, err := mc.f.Expr.Lookup(name)
		if err != nil {
			return false, err
		}
		if err := missingVar(expr.Values[i]); err != nil {
			return false, err
		}
		if _, ok := op.(valueMatcher); ok && value != nil && value.Type == ir.ArrayType {
			elementwise = append(elementwise, i)
			continue
		}
		ok, err := op.Matches(value, expr.Values[i], expr, mc)
		if debug.Op() {
			debug.Logf("%s %v on %v: %t %v\n", name, expr.Values[i], value, ok, err)
		}
		if err != nil || !ok {
			return false, err
		}
	}
	if len(elementwise) == 0 {
		return true, nil
	}
	for _, elt := range value.Values {
		ok, err := mc.matchElement(elt, expr, elementwise)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (mc *MatchContext) matchElement(elt, expr *ir.Node, ops []int) (bool, error) {
	for _, i := range ops {
		op, _ := mc.f.Expr.Lookup(expr.Fields[i].String)
		ok, err := op.(valueMatcher).MatchesValue(elt, expr.Values[i], expr, mc)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// MatchValue matches value, the value of a field, against cond, an exact
// match value or an operator expression.
func (mc *MatchContext) MatchValue(value, cond *ir.Node) (bool, error) {
	kind, err := Classify(cond, "")
	if err != nil {
		return false, err
	}
	if kind == OperatorExpression {
		return mc.MatchExpr(value, cond)
	}
	return ExactMatches(value, cond)
}

// matchPath resolves the path parts from cur and matches the value found
// against cond.
//
// When cur is an array, the remaining path is tried against every element
// and, if the next component is numeric, against the indexed element. A
// branch failing with an ObjectMatchError does not match. An empty array
// followed by a non-numeric component is treated as an absent value.
func (mc *MatchContext) matchPath(cur *ir.Node, parts []string, cond *ir.Node) (bool, error) {
	if len(parts) == 0 {
		return mc.MatchValue(cur, cond)
	}
	if cur == nil {
		return mc.matchPath(nil, parts[1:], cond)
	}
	switch cur.Type {
	case ir.ObjectType:
		return mc.matchPath(cur.Get(parts[0]), parts[1:], cond)
	case ir.ArrayType:
	default:
		return mc.matchPath(nil, parts[1:], cond)
	}
	idx, isIndex := dpath.Index(parts[0])
	if isIndex {
		var elt *ir.Node
		if idx < len(cur.Values) {
			elt = cur.Values[idx]
		}
		ok, err := mc.branch(elt, parts[1:], cond)
		if err != nil || ok {
			return ok, err
		}
	} else if len(cur.Values) == 0 {
		return mc.branch(nil, nil, cond)
	}
	for _, elt := range cur.Values {
		if isIndex && elt.Type != ir.ObjectType && elt.Type != ir.ArrayType {
			continue
		}
		ok, err := mc.branch(elt, parts, cond)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (mc *MatchContext) branch(cur *ir.Node, parts []string, cond *ir.Node) (bool, error) {
	ok, err := mc.matchPath(cur, parts, cond)
	if mqerr.IsObjectMatch(err) {
		return false, nil
	}
	return ok, err
}

// ExactMatches reports whether value, the value of a field, matches the
// exact match value v: value deep equals v, value is an array with an
// element deep equal to v, or v is null and value is absent.
func ExactMatches(value, v *ir.Node) (bool, error) {
	if err := missingVar(v); err != nil {
		return false, err
	}
	if value == nil {
		return v.Type == ir.NullType, nil
	}
	if ir.Equal(value, v) {
		return true, nil
	}
	if value.Type == ir.ArrayType {
		for _, elt := range value.Values {
			if ir.Equal(elt, v) {
				return true, nil
			}
		}
	}
	return false, nil
}
