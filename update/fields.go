package update

import (
	"github.com/signadot/mquery/dpath"
	"github.com/signadot/mquery/ir"
)

var (
	setOp    = &setOperator{base{name: "$set"}}
	unsetOp  = &unsetOperator{base{name: "$unset"}}
	renameOp = &renameOperator{base{name: "$rename"}}
)

// Set returns the $set operator, which overwrites fields.
func Set() Operator { return setOp }

// Unset returns the $unset operator, which removes fields. Removing an
// array element sets it to null.
func Unset() Operator { return unsetOp }

// Rename returns the $rename operator. All the old values are captured
// before any field is written, so {"a": "b", "b": "a"} swaps a and b.
func Rename() Operator { return renameOp }

type setOperator struct{ base }

func (o *setOperator) Normalize(param *ir.Node, nc *NormalizeContext) (*ir.Node, error) {
	return nc.Value(param)
}

func (o *setOperator) Apply(doc, arg *ir.Node, ac *ApplyContext) error {
	return eachField(arg, ac, func(field string, param *ir.Node) error {
		v := param.Clone()
		if err := dpath.Set(doc, field, v); err != nil {
			return err
		}
		ac.Modified(field, v)
		return nil
	})
}

type unsetOperator struct{ base }

func (o *unsetOperator) Apply(doc, arg *ir.Node, ac *ApplyContext) error {
	return eachField(arg, ac, func(field string, _ *ir.Node) error {
		if dpath.Delete(doc, field) {
			ac.Modified(field, nil)
		}
		return nil
	})
}

type renameOperator struct{ base }

func (o *renameOperator) Fields(arg *ir.Node) []string {
	res := arg.Keys()
	for _, v := range arg.Values {
		if v.Type == ir.StringType {
			res = append(res, v.String)
		}
	}
	return res
}

func (o *renameOperator) Validate(param *ir.Node, nc *NormalizeContext) error {
	if param.Type != ir.StringType || param.String == "" {
		return nc.errorf(o.name, "Target must be a non-empty string", param)
	}
	to := param.String
	if dpath.HasPrefix(to, nc.Field) || dpath.HasPrefix(nc.Field, to) {
		return nc.errorf(o.name, "Cannot rename a field to itself, a parent or a subfield", param)
	}
	if dpath.HasWildcard(to) || isOperator(to) {
		return nc.errorf(o.name, "Invalid field name", param)
	}
	_, err := nc.Lookup(to)
	return err
}

type move struct {
	from, to string
	v        *ir.Node
}

func (o *renameOperator) Apply(doc, arg *ir.Node, ac *ApplyContext) error {
	var moves []move
	for i, f := range arg.Fields {
		from, to := f.String, arg.Values[i].String
		if ac.Skip(from) || ac.Skip(to) {
			continue
		}
		if v := dpath.Get(doc, from); v != nil {
			moves = append(moves, move{from: from, to: to, v: v.Clone()})
		}
	}
	for _, m := range moves {
		if dpath.Delete(doc, m.from) {
			ac.Modified(m.from, nil)
		}
	}
	for _, m := range moves {
		if err := dpath.Set(doc, m.to, m.v); err != nil {
			return err
		}
		ac.Modified(m.to, m.v)
	}
	return nil
}
