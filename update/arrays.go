package update

import (
	"slices"

	"github.com/signadot/mquery/dpath"
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
	"github.com/signadot/mquery/schema"
)

var (
	addToSetOp = &arrayOperator{base: base{name: "$addToSet"}, unique: true}
	pushOp     = &arrayOperator{base: base{name: "$push"}, slice: true}
	popOp      = &popOperator{base{name: "$pop"}}
)

// AddToSet returns the $addToSet operator, which appends a value, or each
// value of {"$each": [...]}, not already in the array. An absent field
// starts out empty.
func AddToSet() Operator { return addToSetOp }

// Push returns the $push operator, which appends a value, or each value of
// {"$each": [...]}. With "$slice": n the result is cut to its first n
// elements, or its last -n when n is negative. The field must hold an
// array.
func Push() Operator { return pushOp }

// Pop returns the $pop operator, which removes the last element of an
// array for 1 and the first for -1. An absent field becomes empty.
func Pop() Operator { return popOp }

const (
	eachKey  = "$each"
	sliceKey = "$slice"
)

type arrayOperator struct {
	base
	unique bool
	slice  bool
}

// modifiers reports whether param is a modifier object such as
// {"$each": [...]}.
func modifiers(param *ir.Node) bool {
	return param.Type == ir.ObjectType && slices.ContainsFunc(param.Keys(), isOperator)
}

// values returns the values param appends.
func values(param *ir.Node) []*ir.Node {
	if !modifiers(param) {
		return []*ir.Node{param}
	}
	if each := param.Get(eachKey); each != nil {
		return each.Values
	}
	return nil
}

func (o *arrayOperator) Normalize(param *ir.Node, nc *NormalizeContext) (*ir.Node, error) {
	if !modifiers(param) {
		return nc.Element(param)
	}
	res := param.Clone()
	if each := res.Get(eachKey); each != nil && each.Type == ir.ArrayType {
		for i, v := range each.Values {
			nv, err := nc.Element(v)
			if err != nil {
				return nil, err
			}
			if nv != v {
				each.SetIndex(i, nv)
			}
		}
	}
	if s := res.Get(sliceKey); s != nil {
		if n, err := schema.Normalize(&schema.Node{Type: schema.IntegerType}, s); err == nil {
			res.Set(sliceKey, n)
		}
	}
	return res, nil
}

func (o *arrayOperator) Validate(param *ir.Node, nc *NormalizeContext) error {
	if !modifiers(param) {
		return nil
	}
	for i, f := range param.Fields {
		v := param.Values[i]
		switch {
		case f.String == eachKey:
			if v.Type != ir.ArrayType {
				return nc.errorf(o.name, "$each must be an array", v)
			}
		case f.String == sliceKey && o.slice:
			if _, ok := v.Int(); !ok {
				return nc.errorf(o.name, "$slice must be an integer", v)
			}
		default:
			return nc.errorf(o.name, "Unrecognized modifier "+f.String, param)
		}
	}
	if !param.Has(eachKey) {
		return nc.errorf(o.name, "Modifiers require $each", param)
	}
	return nil
}

func (o *arrayOperator) Apply(doc, arg *ir.Node, ac *ApplyContext) error {
	return eachField(arg, ac, func(field string, param *ir.Node) error {
		cur := dpath.Get(doc, field)
		switch {
		case cur == nil && o.unique:
			cur = &ir.Node{Type: ir.ArrayType}
			if err := dpath.Set(doc, field, cur); err != nil {
				return err
			}
		case cur == nil:
			return mqerr.ObjectMatch("Cannot apply "+o.name+" to a missing field", field, nil)
		case cur.Type != ir.ArrayType:
			return mqerr.ObjectMatch("Cannot apply "+o.name+" to a non-array value", field, cur.JSON())
		}
		for _, v := range values(param) {
			if o.unique && slices.ContainsFunc(cur.Values, func(e *ir.Node) bool { return ir.Equal(e, v) }) {
				continue
			}
			cur.Append(v.Clone())
		}
		if o.slice && modifiers(param) {
			if n, ok := param.Get(sliceKey).Int(); ok {
				sliceArray(cur, int(n))
			}
		}
		ac.Modified(field, cur)
		return nil
	})
}

func sliceArray(arr *ir.Node, n int) {
	l := len(arr.Values)
	switch {
	case n >= 0 && n < l:
		arr.Truncate(0, n)
	case n < 0 && -n < l:
		arr.Truncate(l+n, l)
	}
}

// Compose concatenates the appended values into one $each list. A $slice
// is only kept from the later update: an earlier one would apply before
// the later values are appended.
func (o *arrayOperator) Compose(earlier, later *ir.Node, cc *ComposeContext) (*ir.Node, error) {
	if modifiers(earlier) && earlier.Has(sliceKey) {
		return nil, &mqerr.ComposeUpdateError{Reason: "earlier $push has a $slice", Op: o.name, Path: cc.Field}
	}
	each := &ir.Node{Type: ir.ArrayType}
	for _, v := range values(earlier) {
		each.Append(v.Clone())
	}
	for _, v := range values(later) {
		each.Append(v.Clone())
	}
	res := ir.FromKeyVals([]ir.KeyVal{{Key: eachKey, Val: each}})
	if modifiers(later) && later.Has(sliceKey) {
		res.Set(sliceKey, later.Get(sliceKey).Clone())
	}
	return res, nil
}

type popOperator struct{ base }

func (o *popOperator) Normalize(param *ir.Node, _ *NormalizeContext) (*ir.Node, error) {
	res, err := schema.Normalize(&schema.Node{Type: schema.IntegerType}, param)
	if err != nil {
		return param, nil
	}
	return res, nil
}

func (o *popOperator) Validate(param *ir.Node, nc *NormalizeContext) error {
	if n, ok := param.Int(); !ok || (n != 1 && n != -1) {
		return nc.errorf(o.name, "Argument must be 1 or -1", param)
	}
	return nil
}

func (o *popOperator) Apply(doc, arg *ir.Node, ac *ApplyContext) error {
	return eachField(arg, ac, func(field string, param *ir.Node) error {
		cur := dpath.Get(doc, field)
		switch {
		case cur == nil:
			cur = &ir.Node{Type: ir.ArrayType}
			if err := dpath.Set(doc, field, cur); err != nil {
				return err
			}
			ac.Modified(field, cur)
			return nil
		case cur.Type != ir.ArrayType:
			return mqerr.ObjectMatch("Cannot apply $pop to a non-array value", field, cur.JSON())
		}
		l := len(cur.Values)
		if l == 0 {
			return nil
		}
		if n, _ := param.Int(); n < 0 {
			cur.Truncate(1, l)
		} else {
			cur.Truncate(0, l-1)
		}
		ac.Modified(field, cur)
		return nil
	})
}

// Compose fails: two pops of one field cannot be expressed as one.
func (o *popOperator) Compose(earlier, later *ir.Node, cc *ComposeContext) (*ir.Node, error) {
	reason := "field popped twice"
	if !ir.Equal(earlier, later) {
		reason = "conflicting $pop directions"
	}
	return nil, &mqerr.ComposeUpdateError{Reason: reason, Op: o.name, Path: cc.Field}
}
