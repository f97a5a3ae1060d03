package schema

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/signadot/mquery/ir"
)

const (
	ObjectType  = "object"
	ArrayType   = "array"
	MapType     = "map"
	StringType  = "string"
	NumberType  = "number"
	IntegerType = "integer"
	BooleanType = "boolean"
	DateType    = "date"
	MixedType   = "mixed"
)

var ErrNormalize = errors.New("cannot normalize value")

// Type is the behavior of a schema type name.
type Type interface {
	Name() string
	// FieldSubschema returns the subschema of field within a value of this
	// type.
	FieldSubschema(sub *Node, field string) (*Node, bool)
	// Normalize coerces v to this type, returning a new node or v itself.
	Normalize(sub *Node, v *ir.Node) (*ir.Node, error)
}

func normErr(v *ir.Node, t string) error {
	return fmt.Errorf("%w: %s to %s", ErrNormalize, v.JSON(), t)
}

type leaf struct{}

func (leaf) FieldSubschema(*Node, string) (*Node, bool) { return nil, false }

type objectType struct{}

func (objectType) Name() string { return ObjectType }

func (objectType) FieldSubschema(sub *Node, field string) (*Node, bool) {
	if p, ok := sub.Properties[field]; ok {
		return p, true
	}
	if sub.AdditionalProperties {
		return Mixed(), true
	}
	return nil, false
}

func (objectType) Normalize(sub *Node, v *ir.Node) (*ir.Node, error) {
	if v.Type != ir.ObjectType {
		return nil, normErr(v, ObjectType)
	}
	for i, f := range v.Fields {
		p, ok := sub.Properties[f.String]
		if !ok {
			continue
		}
		nv, err := Normalize(p, v.Values[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.String, err)
		}
		if nv != v.Values[i] {
			v.Set(f.String, nv)
		}
	}
	return v, nil
}

type arrayType struct{}

func (arrayType) Name() string { return ArrayType }

func (arrayType) FieldSubschema(sub *Node, field string) (*Node, bool) {
	if sub.Elements == nil {
		return Mixed(), true
	}
	return sub.Elements, true
}

func (arrayType) Normalize(sub *Node, v *ir.Node) (*ir.Node, error) {
	if v.Type != ir.ArrayType {
		return nil, normErr(v, ArrayType)
	}
	for i, elt := range v.Values {
		nv, err := Normalize(sub.Elements, elt)
		if err != nil {
			return nil, fmt.Errorf("%d: %w", i, err)
		}
		if nv != elt {
			v.SetIndex(i, nv)
		}
	}
	return v, nil
}

type mapType struct{}

func (mapType) Name() string { return MapType }

func (mapType) FieldSubschema(sub *Node, field string) (*Node, bool) {
	if sub.Values == nil {
		return Mixed(), true
	}
	return sub.Values, true
}

func (mapType) Normalize(sub *Node, v *ir.Node) (*ir.Node, error) {
	if v.Type != ir.ObjectType {
		return nil, normErr(v, MapType)
	}
	for i, f := range v.Fields {
		nv, err := Normalize(sub.Values, v.Values[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.String, err)
		}
		if nv != v.Values[i] {
			v.Set(f.String, nv)
		}
	}
	return v, nil
}

type stringType struct{ leaf }

func (stringType) Name() string { return StringType }

func (stringType) Normalize(_ *Node, v *ir.Node) (*ir.Node, error) {
	switch v.Type {
	case ir.StringType, ir.NullType:
		return v, nil
	case ir.NumberType:
		return ir.FromString(v.NumberString()), nil
	case ir.BoolType:
		return ir.FromString(strconv.FormatBool(v.Bool)), nil
	}
	return nil, normErr(v, StringType)
}

type numberType struct{ leaf }

func (numberType) Name() string { return NumberType }

func (numberType) Normalize(_ *Node, v *ir.Node) (*ir.Node, error) {
	switch v.Type {
	case ir.NumberType, ir.NullType:
		return v, nil
	case ir.StringType:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.String), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, normErr(v, NumberType)
		}
		return ir.FromNumber(f), nil
	}
	return nil, normErr(v, NumberType)
}

type integerType struct{ leaf }

func (integerType) Name() string { return IntegerType }

func (integerType) Normalize(_ *Node, v *ir.Node) (*ir.Node, error) {
	switch v.Type {
	case ir.NullType:
		return v, nil
	case ir.NumberType:
		if v.Int64 != nil {
			return v, nil
		}
		if i, ok := v.Int(); ok {
			return ir.FromInt(i), nil
		}
	case ir.StringType:
		i, err := strconv.ParseInt(strings.TrimSpace(v.String), 10, 64)
		if err == nil {
			return ir.FromInt(i), nil
		}
	}
	return nil, normErr(v, IntegerType)
}

type booleanType struct{ leaf }

func (booleanType) Name() string { return BooleanType }

func (booleanType) Normalize(_ *Node, v *ir.Node) (*ir.Node, error) {
	switch v.Type {
	case ir.BoolType, ir.NullType:
		return v, nil
	case ir.NumberType:
		if f, _ := v.Num(); f == 0 || f == 1 {
			return ir.FromBool(f == 1), nil
		}
	case ir.StringType:
		switch strings.ToLower(strings.TrimSpace(v.String)) {
		case "true", "yes", "1":
			return ir.FromBool(true), nil
		case "false", "no", "0":
			return ir.FromBool(false), nil
		}
	}
	return nil, normErr(v, BooleanType)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type dateType struct{ leaf }

func (dateType) Name() string { return DateType }

// Normalize formats dates as RFC 3339 in UTC. Numbers are taken as
// milliseconds since the epoch.
func (dateType) Normalize(_ *Node, v *ir.Node) (*ir.Node, error) {
	switch v.Type {
	case ir.NullType:
		return v, nil
	case ir.NumberType:
		ms, _ := v.Num()
		t := time.UnixMilli(int64(ms)).UTC()
		return ir.FromString(t.Format(time.RFC3339Nano)), nil
	case ir.StringType:
		for _, layout := range dateLayouts {
			t, err := time.Parse(layout, strings.TrimSpace(v.String))
			if err == nil {
				return ir.FromString(t.UTC().Format(time.RFC3339Nano)), nil
			}
		}
	}
	return nil, normErr(v, DateType)
}

type mixedType struct{}

func (mixedType) Name() string { return MixedType }

func (mixedType) FieldSubschema(*Node, string) (*Node, bool) {
	return Mixed(), true
}

func (mixedType) Normalize(_ *Node, v *ir.Node) (*ir.Node, error) {
	return v, nil
}
