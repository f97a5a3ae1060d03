package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
)

// MarshalJSON encodes the node as plain JSON.
func (y *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToAny(y))
}

// UnmarshalJSON decodes plain JSON into the node.
func (y *Node) UnmarshalJSON(d []byte) error {
	res, err := FromJSON(d)
	if err != nil {
		return err
	}
	*y = *res
	for _, v := range y.Values {
		v.Parent = y
	}
	for _, f := range y.Fields {
		f.Parent = y
	}
	return nil
}

// FromJSON parses a JSON document. Integral numbers which fit in an int64
// become Int64 nodes, other numbers Float64 nodes.
func FromJSON(d []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(d))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrParse)
	}
	return FromAny(v)
}

// MustJSON is FromJSON for literals known to be valid.
func MustJSON(s string) *Node {
	res, err := FromJSON([]byte(s))
	if err != nil {
		panic(err)
	}
	return res
}

// FromAny converts a decoded JSON/YAML value into a node.
func FromAny(v any) (*Node, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case *Node:
		return x.Clone(), nil
	case bool:
		return FromBool(x), nil
	case string:
		return FromString(x), nil
	case json.Number:
		if i, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return FromInt(i), nil
		}
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q", ErrParse, x)
		}
		return FromFloat(f), nil
	case int:
		return FromInt(int64(x)), nil
	case int8:
		return FromInt(int64(x)), nil
	case int16:
		return FromInt(int64(x)), nil
	case int32:
		return FromInt(int64(x)), nil
	case int64:
		return FromInt(x), nil
	case uint:
		return fromUint(uint64(x)), nil
	case uint8:
		return FromInt(int64(x)), nil
	case uint16:
		return FromInt(int64(x)), nil
	case uint32:
		return FromInt(int64(x)), nil
	case uint64:
		return fromUint(x), nil
	case float32:
		return FromFloat(float64(x)), nil
	case float64:
		return FromFloat(x), nil
	case []any:
		vals := make([]*Node, len(x))
		for i := range x {
			n, err := FromAny(x[i])
			if err != nil {
				return nil, err
			}
			vals[i] = n
		}
		return FromSlice(vals), nil
	case map[string]any:
		res := Object()
		for _, k := range slices.Sorted(maps.Keys(x)) {
			n, err := FromAny(x[k])
			if err != nil {
				return nil, err
			}
			res.Set(k, n)
		}
		return res, nil
	case map[any]any:
		res := Object()
		keys := make([]string, 0, len(x))
		byKey := make(map[string]any, len(x))
		for k, v := range x {
			ks := fmt.Sprint(k)
			keys = append(keys, ks)
			byKey[ks] = v
		}
		slices.Sort(keys)
		for _, k := range keys {
			n, err := FromAny(byKey[k])
			if err != nil {
				return nil, err
			}
			res.Set(k, n)
		}
		return res, nil
	default:
		return nil, fmt.Errorf("%w: unsupported value type %T", ErrParse, v)
	}
}

func fromUint(u uint64) *Node {
	if u > math.MaxInt64 {
		return FromFloat(float64(u))
	}
	return FromInt(int64(u))
}

// ToAny converts a node into plain Go values (map[string]any, []any,
// string, float64/int64, bool, nil). A nil node converts to nil.
func ToAny(node *Node) any {
	if node == nil {
		return nil
	}
	switch node.Type {
	case ObjectType:
		n := len(node.Fields)
		res := make(map[string]any, n)
		for i := range n {
			res[node.Fields[i].String] = ToAny(node.Values[i])
		}
		return res
	case ArrayType:
		res := make([]any, len(node.Values))
		for i, elt := range node.Values {
			res[i] = ToAny(elt)
		}
		return res
	case StringType:
		return node.String
	case NumberType:
		if node.Int64 != nil {
			return *node.Int64
		}
		if node.Float64 != nil {
			return *node.Float64
		}
		return 0
	case BoolType:
		return node.Bool
	case NullType:
		return nil
	default:
		panic("impossible production")
	}
}

// JSON renders the node as compact JSON, for messages and logs.
func (y *Node) JSON() string {
	d, err := json.Marshal(ToAny(y))
	if err != nil {
		return fmt.Sprintf("<%s>", y.Type)
	}
	return string(d)
}
