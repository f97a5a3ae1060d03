package query

import (
	"github.com/signadot/mquery/dpath"
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/schema"
)

// ExactMatchResult holds field values every matching document must have.
type ExactMatchResult struct {
	// Matches maps fields to the scalar each matching document has there.
	Matches map[string]*ir.Node
	// OnlyExact is true if matching Matches is also sufficient for the
	// query to match.
	OnlyExact bool
	// NoWildcard is the subset of Matches whose fields do not go through
	// an array according to the schema.
	NoWildcard map[string]*ir.Node
	// OnlyExactNoWildcard is OnlyExact for NoWildcard.
	OnlyExactNoWildcard bool
}

type exactAcc struct {
	s         *schema.Schema
	matches   map[string]*ir.Node
	conflicts map[string]bool
	onlyExact bool
	unsat     bool
}

// ExactMatches computes the exact matches of the query.
//
// $and clauses are merged, a single clause $or or $and counts as its
// clause (a single clause $or still makes the result inexact), and any
// other operator, operator expression or non-scalar value makes the result
// inexact. A field given two different values is dropped and makes the
// result inexact. An empty $or makes the query unsatisfiable: the result
// is then empty and inexact.
func (q *Query) ExactMatches() ExactMatchResult {
	acc := &exactAcc{
		s:         q.cfg.schema,
		matches:   map[string]*ir.Node{},
		conflicts: map[string]bool{},
		onlyExact: true,
	}
	acc.query(q.spec, q.cfg.fieldPrefix)
	res := ExactMatchResult{
		Matches:    map[string]*ir.Node{},
		NoWildcard: map[string]*ir.Node{},
	}
	if acc.unsat {
		return res
	}
	res.OnlyExact = acc.onlyExact
	res.OnlyExactNoWildcard = acc.onlyExact
	for f, v := range acc.matches {
		res.Matches[f] = v
		if acc.wildcard(f) {
			res.OnlyExactNoWildcard = false
			continue
		}
		res.NoWildcard[f] = v
	}
	return res
}

func (acc *exactAcc) query(q *ir.Node, prefix string) {
	if q == nil || q.Type != ir.ObjectType {
		acc.onlyExact = false
		return
	}
	for i, f := range q.Fields {
		key, v := f.String, q.Values[i]
		switch {
		case key == "$and" && v.Type == ir.ArrayType:
			for _, c := range v.Values {
				acc.query(c, prefix)
			}
		case key == "$or" && v.Type == ir.ArrayType:
			switch len(v.Values) {
			case 0:
				acc.unsat = true
			case 1:
				acc.query(v.Values[0], prefix)
				acc.onlyExact = false
			default:
				acc.onlyExact = false
			}
		case IsOperator(key):
			acc.onlyExact = false
		default:
			acc.value(dpath.Join(prefix, key), v)
		}
	}
}

func (acc *exactAcc) value(field string, v *ir.Node) {
	kind, err := Classify(v, field)
	if err != nil || kind == OperatorExpression || !v.Type.IsLeaf() {
		acc.onlyExact = false
		return
	}
	if acc.conflicts[field] {
		return
	}
	cur, ok := acc.matches[field]
	if !ok {
		acc.matches[field] = v
		return
	}
	if !ir.Equal(cur, v) {
		delete(acc.matches, field)
		acc.conflicts[field] = true
		acc.onlyExact = false
	}
}

// wildcard reports whether field goes through an array.
func (acc *exactAcc) wildcard(field string) bool {
	if dpath.HasWildcard(field) {
		return true
	}
	if acc.s == nil {
		return false
	}
	sub, resolved, err := acc.s.PathSubschema(field, true)
	if err != nil {
		return true
	}
	return dpath.HasWildcard(resolved) || (sub != nil && sub.Type == schema.ArrayType)
}
