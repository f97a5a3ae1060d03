package query

import (
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
)

// VarName returns the variable name of a {"$var": name} placeholder.
func VarName(v *ir.Node) (string, bool) {
	if v == nil || v.Type != ir.ObjectType || len(v.Fields) != 1 || v.Fields[0].String != "$var" {
		return "", false
	}
	name := v.Values[0]
	if name.Type != ir.StringType {
		return "", false
	}
	return name.String, true
}

// SubstituteVars replaces placeholders anywhere in the query with copies
// of their values in vars. A placeholder with no value is a
// MissingQueryVarError unless ignoreMissing is set, in which case it is
// left in place.
func (q *Query) SubstituteVars(vars map[string]*ir.Node, ignoreMissing bool) error {
	return substitute(q.spec, vars, ignoreMissing)
}

func substitute(n *ir.Node, vars map[string]*ir.Node, ignoreMissing bool) error {
	for i, v := range n.Values {
		name, isVar := VarName(v)
		if !isVar {
			if err := substitute(v, vars, ignoreMissing); err != nil {
				return err
			}
			continue
		}
		val, ok := vars[name]
		if !ok {
			if ignoreMissing {
				continue
			}
			return &mqerr.MissingQueryVarError{Var: name}
		}
		val = val.Clone()
		if n.Type == ir.ObjectType {
			n.Set(n.Fields[i].String, val)
		} else {
			n.SetIndex(i, val)
		}
	}
	return nil
}

func missingVar(v *ir.Node) error {
	if name, isVar := VarName(v); isVar {
		return &mqerr.MissingQueryVarError{Var: name}
	}
	return nil
}
