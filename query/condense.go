package query

import (
	"slices"

	"github.com/signadot/mquery/ir"
)

// Condense simplifies the query in place.
//
// Always true clauses are removed from $and, always false ones from $or
// and $nor, and $and and $or with a single clause are inlined into their
// parent; keys colliding on inlining are moved to single key clauses of an
// $and. A query which can never match becomes {"$nor": [{}]} and one which
// always matches becomes {}.
func (q *Query) Condense() {
	condense(q.spec)
}

func isLogical(key string) bool {
	switch key {
	case "$and", "$or", "$nor":
		return true
	}
	return false
}

func clauses(q *ir.Node, key string) (*ir.Node, bool) {
	v := q.Get(key)
	if v == nil || v.Type != ir.ArrayType {
		return nil, false
	}
	return v, true
}

// tautology reports whether q always matches.
func tautology(q *ir.Node) bool {
	if q.Type != ir.ObjectType {
		return false
	}
	for _, k := range q.Keys() {
		if !isLogical(k) {
			return false
		}
	}
	if or, ok := clauses(q, "$or"); ok && !slices.ContainsFunc(or.Values, tautology) {
		return false
	}
	if and, ok := clauses(q, "$and"); ok && !allOf(and.Values, tautology) {
		return false
	}
	if nor, ok := clauses(q, "$nor"); ok && !allOf(nor.Values, contradiction) {
		return false
	}
	return true
}

// contradiction reports whether q never matches.
func contradiction(q *ir.Node) bool {
	if q.Type != ir.ObjectType {
		return false
	}
	if or, ok := clauses(q, "$or"); ok && len(or.Values) == 0 {
		return true
	}
	if nor, ok := clauses(q, "$nor"); ok && slices.ContainsFunc(nor.Values, tautology) {
		return true
	}
	if and, ok := clauses(q, "$and"); ok && slices.ContainsFunc(and.Values, contradiction) {
		return true
	}
	return false
}

func allOf(ns []*ir.Node, f func(*ir.Node) bool) bool {
	for _, n := range ns {
		if !f(n) {
			return false
		}
	}
	return true
}

func condense(q *ir.Node) {
	for _, k := range []string{"$and", "$or", "$nor"} {
		if cs, ok := clauses(q, k); ok {
			for _, c := range cs.Values {
				if c.Type == ir.ObjectType {
					condense(c)
				}
			}
		}
	}
	for changed := true; changed; {
		changed = strip(q, "$and", tautology)
		changed = strip(q, "$or", contradiction) || changed
		changed = strip(q, "$nor", contradiction) || changed
		if contradiction(q) {
			break
		}
		changed = dropTrueOr(q) || changed
		changed = inline(q, "$and") || changed
		changed = inline(q, "$or") || changed
	}
	switch {
	case contradiction(q):
		q.Replace(ir.MustJSON(`{"$nor":[{}]}`))
	case tautology(q):
		q.Replace(ir.Object())
	}
}

// strip removes clauses satisfying f from q[key], removing an $and or $nor
// left empty.
func strip(q *ir.Node, key string, f func(*ir.Node) bool) bool {
	cs, ok := clauses(q, key)
	if !ok {
		return false
	}
	n := len(cs.Values)
	if key == "$or" && n > 0 && allOf(cs.Values, f) {
		// an $or of only false clauses is itself false.
		q.Set(key, ir.FromSlice([]*ir.Node{}))
		return true
	}
	kept := slices.DeleteFunc(slices.Clone(cs.Values), f)
	if len(kept) == n {
		return false
	}
	if len(kept) == 0 && key != "$or" {
		q.Delete(key)
		return true
	}
	q.Set(key, ir.FromSlice(kept))
	return true
}

// dropTrueOr removes an $or with an always true clause.
func dropTrueOr(q *ir.Node) bool {
	or, ok := clauses(q, "$or")
	if !ok || !slices.ContainsFunc(or.Values, tautology) {
		return false
	}
	q.Delete("$or")
	return true
}

// inline replaces a single clause $and or $or by the keys of its clause.
func inline(q *ir.Node, key string) bool {
	cs, ok := clauses(q, key)
	if !ok || len(cs.Values) != 1 || cs.Values[0].Type != ir.ObjectType {
		return false
	}
	clause := cs.Values[0]
	q.Delete(key)
	var promoted []*ir.Node
	for i, f := range clause.Fields {
		k, v := f.String, clause.Values[i]
		cur := q.Get(k)
		switch {
		case cur == nil:
			q.Set(k, v)
		case k == "$and" && cur.Type == ir.ArrayType && v.Type == ir.ArrayType:
			cur.Append(v.Values...)
		default:
			q.Delete(k)
			promoted = append(promoted,
				ir.FromKeyVals([]ir.KeyVal{{Key: k, Val: cur}}),
				ir.FromKeyVals([]ir.KeyVal{{Key: k, Val: v}}))
		}
	}
	if len(promoted) == 0 {
		return true
	}
	and := q.Get("$and")
	if and == nil || and.Type != ir.ArrayType {
		and = ir.FromSlice([]*ir.Node{})
		q.Set("$and", and)
	}
	and.Append(promoted...)
	return true
}
