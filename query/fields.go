package query

import (
	"slices"

	"github.com/signadot/mquery/dpath"
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
)

type fieldCollector struct {
	seen map[string]bool
}

func (c *fieldCollector) add(field string) {
	if field != "" {
		c.seen[field] = true
	}
}

func (c *fieldCollector) onExprOperator(_ *ir.Node, field, _ string, _, _ *ir.Node, _ string) (Action, error) {
	c.add(field)
	return Continue, nil
}

func (c *fieldCollector) onExactMatch(_ *ir.Node, field string, _ *ir.Node, _ string) (Action, error) {
	c.add(field)
	return Continue, nil
}

// QueriedFields returns the sorted field paths the query constrains.
// Fields of $elemMatch sub-queries are reported below a wildcard
// component, as in "items.$.sku".
func (q *Query) QueriedFields() ([]string, error) {
	c := &fieldCollector{seen: map[string]bool{}}
	err := q.Traverse(Visitor{
		OnExprOperator: c.onExprOperator,
		OnExactMatch:   c.onExactMatch,
	})
	if err != nil {
		return nil, err
	}
	res := make([]string, 0, len(c.seen))
	for f := range c.seen {
		res = append(res, f)
	}
	slices.Sort(res)
	return res, nil
}

type opCollector struct {
	seen map[string]bool
}

func (c *opCollector) onQueryOperator(_ *ir.Node, name string, _ *ir.Node, _ string, _ *ir.Node, _ string) (Action, error) {
	c.seen[name] = true
	return Continue, nil
}

func (c *opCollector) onExprOperator(_ *ir.Node, _, name string, _, _ *ir.Node, _ string) (Action, error) {
	c.seen[name] = true
	return Continue, nil
}

// Operators returns the sorted names of the operators used in the query.
func (q *Query) Operators() ([]string, error) {
	c := &opCollector{seen: map[string]bool{}}
	err := q.Traverse(Visitor{
		OnQueryOperator: c.onQueryOperator,
		OnExprOperator:  c.onExprOperator,
	})
	if err != nil {
		return nil, err
	}
	res := make([]string, 0, len(c.seen))
	for name := range c.seen {
		res = append(res, name)
	}
	slices.Sort(res)
	return res, nil
}

type fieldTransformer struct {
	q  *Query
	fn func(string) string
}

func (tr *fieldTransformer) onQuery(q *ir.Node, _ string) (Action, error) {
	keys := q.Keys()
	for _, k := range keys {
		if IsOperator(k) {
			continue
		}
		to := tr.fn(k)
		if to == k {
			continue
		}
		if q.Has(to) {
			return Stop, mqerr.Query("Transformed field collides with another field", to, k)
		}
		q.Rename(k, to)
	}
	return Continue, nil
}

func (tr *fieldTransformer) onExprOperator(_ *ir.Node, _, name string, _, _ *ir.Node, _ string) (Action, error) {
	op, err := tr.q.cfg.factory.Expr.Lookup(name)
	if err != nil {
		return Stop, err
	}
	if op.NewQueryContext() {
		return Stop, nil
	}
	return Continue, nil
}

// TransformQueriedFields renames the fields of the query in place with fn,
// which receives each field path as written in the query. Sub-queries
// applying to other values, such as those of $elemMatch, are left alone.
func (q *Query) TransformQueriedFields(fn func(field string) string) error {
	tr := &fieldTransformer{q: q, fn: fn}
	return q.Traverse(Visitor{
		OnQuery:        tr.onQuery,
		OnExprOperator: tr.onExprOperator,
	})
}

// FieldsUnder reports whether every queried field lies at or below one of
// prefixes.
func (q *Query) FieldsUnder(prefixes ...string) (bool, error) {
	fields, err := q.QueriedFields()
	if err != nil {
		return false, err
	}
	for _, f := range fields {
		if !slices.ContainsFunc(prefixes, func(p string) bool { return dpath.HasPrefix(f, p) }) {
			return false, nil
		}
	}
	return true, nil
}
