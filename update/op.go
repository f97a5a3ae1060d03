package update

import (
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
	"github.com/signadot/mquery/schema"
)

// Operator is an update operator such as $set. Its argument in an update
// is an object mapping fields to parameters.
type Operator interface {
	Name() string
	// Fields returns the fields arg writes.
	Fields(arg *ir.Node) []string
	// Normalize normalizes the parameter of the field nc.Field.
	Normalize(param *ir.Node, nc *NormalizeContext) (*ir.Node, error)
	// Validate checks a normalized parameter.
	Validate(param *ir.Node, nc *NormalizeContext) error
	// Apply applies arg to doc in place.
	Apply(doc, arg *ir.Node, ac *ApplyContext) error
	// Compose merges the parameters two updates give the same field,
	// earlier first. A nil result drops the field.
	Compose(earlier, later *ir.Node, cc *ComposeContext) (*ir.Node, error)
}

type base struct {
	name string
}

func (b base) Name() string {
	return b.name
}

func (b base) Fields(arg *ir.Node) []string {
	return arg.Keys()
}

func (b base) Normalize(param *ir.Node, _ *NormalizeContext) (*ir.Node, error) {
	return param, nil
}

func (b base) Validate(*ir.Node, *NormalizeContext) error {
	return nil
}

func (b base) Compose(_, _ *ir.Node, cc *ComposeContext) (*ir.Node, error) {
	return nil, &mqerr.ComposeUpdateError{Reason: "operator applied twice", Op: b.name, Path: cc.Field}
}

// NormalizeContext is passed to operator normalization and validation.
type NormalizeContext struct {
	// Field is the field the parameter applies to.
	Field string
	// Subschema is the schema of Field, nil if there is no schema or the
	// field is unknown to it.
	Subschema *schema.Node

	schema       *schema.Schema
	allowUnknown bool
}

// Lookup returns the subschema of field, or an error if the schema does
// not know it.
func (nc *NormalizeContext) Lookup(field string) (*schema.Node, error) {
	if nc.schema == nil {
		return nil, nil
	}
	sub, _, err := nc.schema.PathSubschema(field, nc.allowUnknown)
	if err != nil {
		return nil, &mqerr.ValidationError{Kind: mqerr.UpdateKind, Reason: "Unknown field", Path: field, Err: err}
	}
	return sub, nil
}

// Value normalizes v as a value of Field. Null is left alone.
func (nc *NormalizeContext) Value(v *ir.Node) (*ir.Node, error) {
	return nc.normalize(nc.Subschema, v)
}

// Element normalizes v as an element of the array Field.
func (nc *NormalizeContext) Element(v *ir.Node) (*ir.Node, error) {
	sub := nc.Subschema
	if sub != nil && sub.Type == schema.ArrayType {
		return nc.normalize(sub.Elements, v)
	}
	return nc.normalize(nil, v)
}

func (nc *NormalizeContext) normalize(sub *schema.Node, v *ir.Node) (*ir.Node, error) {
	if sub == nil || v == nil || v.Type == ir.NullType {
		return v, nil
	}
	res, err := schema.Normalize(sub, v.Clone())
	if err != nil {
		return nil, &mqerr.ValidationError{Kind: mqerr.UpdateKind, Reason: "Invalid value for field", Path: ir.PathString(nc.Field), Value: v.JSON(), Err: err}
	}
	return res, nil
}

func (nc *NormalizeContext) errorf(op, reason string, param *ir.Node) error {
	var v any
	if param != nil {
		v = param.JSON()
	}
	return mqerr.Update(reason, nc.Field+" "+op, v)
}

// ApplyContext carries the apply options to operators.
type ApplyContext struct {
	skip       func(field string) bool
	globs      []string
	onModified func(field string, v *ir.Node)
}

// Skip reports whether field must be left alone.
func (ac *ApplyContext) Skip(field string) bool {
	if ac.skip != nil && ac.skip(field) {
		return true
	}
	return matchGlobs(ac.globs, field)
}

// Modified reports a change of field to v, nil if it was removed.
func (ac *ApplyContext) Modified(field string, v *ir.Node) {
	if ac.onModified != nil {
		ac.onModified(field, v)
	}
}

// ComposeContext is passed to Operator.Compose.
type ComposeContext struct {
	Field string
}

// Field globs are doublestar patterns over dotted paths: '.' plays the
// part of '/'.
func toGlob(field string) string {
	b := []byte(field)
	for i := range b {
		if b[i] == '.' {
			b[i] = '/'
		}
	}
	return string(b)
}

func validGlob(p string) bool {
	return doublestar.ValidatePattern(toGlob(p))
}

func matchGlobs(globs []string, field string) bool {
	return slices.ContainsFunc(globs, func(g string) bool {
		ok, _ := doublestar.Match(toGlob(g), toGlob(field))
		return ok
	})
}

// eachField calls f on the fields of arg which are not skipped.
func eachField(arg *ir.Node, ac *ApplyContext, f func(field string, param *ir.Node) error) error {
	for i, k := range arg.Fields {
		if ac.Skip(k.String) {
			continue
		}
		if err := f(k.String, arg.Values[i]); err != nil {
			return err
		}
	}
	return nil
}
