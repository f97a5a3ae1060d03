package ir

import (
	"maps"
	"math"
	"slices"
	"strconv"
)

// Node is a document value: an object, array or scalar.
//
// For ObjectType, Fields[i] is the (string typed) key of Values[i]. For
// ArrayType only Values is used. Numbers carry exactly one of Int64 and
// Float64.
type Node struct {
	Type        Type
	Parent      *Node
	ParentIndex int
	ParentField string
	Fields      []*Node
	Values      []*Node

	String  string
	Bool    bool
	Float64 *float64
	Int64   *int64
}

func (y *Node) Clone() *Node {
	if y == nil {
		return nil
	}
	res := &Node{}
	return y.CloneTo(res)
}

func (y *Node) CloneTo(dst *Node) *Node {
	dst.Parent = y.Parent
	dst.ParentIndex = y.ParentIndex
	dst.ParentField = y.ParentField
	dst.Type = y.Type
	dst.Values = nil
	dst.Fields = nil
	if y.Values != nil {
		dst.Values = make([]*Node, len(y.Values))
	}
	if y.Fields != nil {
		dst.Fields = make([]*Node, len(y.Fields))
	}
	for i, yv := range y.Values {
		dstI := &Node{}
		yv.CloneTo(dstI)
		dstI.Parent = dst
		dstI.ParentIndex = i
		dst.Values[i] = dstI
	}
	for i, yf := range y.Fields {
		dstI := &Node{}
		yf.CloneTo(dstI)
		dstI.Parent = dst
		dstI.ParentIndex = i
		dstI.ParentField = yf.String
		dst.Fields[i] = dstI
	}
	dst.String = y.String
	if y.Float64 != nil {
		f := *y.Float64
		dst.Float64 = &f
	}
	if y.Int64 != nil {
		i := *y.Int64
		dst.Int64 = &i
	}
	dst.Bool = y.Bool
	return dst
}

func FromString(v string) *Node {
	return &Node{Type: StringType, String: v}
}

func FromInt(v int64) *Node {
	return &Node{
		Type:  NumberType,
		Int64: &v,
	}
}

func FromFloat(f float64) *Node {
	return &Node{
		Type:    NumberType,
		Float64: &f,
	}
}

// FromNumber returns an int node when f is integral and fits, a float node
// otherwise.
func FromNumber(f float64) *Node {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return FromInt(int64(f))
	}
	return FromFloat(f)
}

func FromBool(v bool) *Node {
	return &Node{
		Type: BoolType,
		Bool: v,
	}
}

func Null() *Node {
	return &Node{Type: NullType}
}

func Object() *Node {
	return &Node{Type: ObjectType, Fields: []*Node{}, Values: []*Node{}}
}

func FromMap(yMap map[string]*Node) *Node {
	res := &Node{}
	res.Type = ObjectType
	res.Fields = make([]*Node, len(yMap))
	res.Values = make([]*Node, len(yMap))
	keys := slices.Sorted(maps.Keys(yMap))
	for i, key := range keys {
		y := yMap[key]
		y.Parent = res
		y.ParentIndex = i
		y.ParentField = key
		res.Fields[i] = &Node{
			Parent:      res,
			ParentIndex: i,
			ParentField: key,
			Type:        StringType,
			String:      key,
		}
		res.Values[i] = y
	}
	return res
}

type KeyVal struct {
	Key string
	Val *Node
}

// FromKeyVals builds an object preserving the order of kvs.
func FromKeyVals(kvs []KeyVal) *Node {
	res := Object()
	for _, kv := range kvs {
		res.Set(kv.Key, kv.Val)
	}
	return res
}

func FromSlice(ySlice []*Node) *Node {
	res := &Node{
		Type: ArrayType,
	}
	res.Values = make([]*Node, len(ySlice))
	for i, y := range ySlice {
		res.Values[i] = y
		y.Parent = res
		y.ParentIndex = i
		y.ParentField = ""
	}
	return res
}

func Get(y *Node, field string) *Node {
	if y == nil || y.Type != ObjectType {
		return nil
	}
	n := len(y.Fields)
	for i := range n {
		if y.Fields[i].String == field {
			return y.Values[i]
		}
	}
	return nil
}

// Get returns the value of field in an object node, or nil.
func (y *Node) Get(field string) *Node {
	return Get(y, field)
}

// Has reports whether an object node has field.
func (y *Node) Has(field string) bool {
	return y.index(field) != -1
}

func (y *Node) index(field string) int {
	if y == nil || y.Type != ObjectType {
		return -1
	}
	for i := range y.Fields {
		if y.Fields[i].String == field {
			return i
		}
	}
	return -1
}

// Keys returns the field names of an object node in order.
func (y *Node) Keys() []string {
	if y == nil || y.Type != ObjectType {
		return nil
	}
	res := make([]string, len(y.Fields))
	for i, f := range y.Fields {
		res[i] = f.String
	}
	return res
}

// Set sets field to v in an object node, replacing any existing value in
// place and appending otherwise.
func (y *Node) Set(field string, v *Node) {
	if v == nil {
		v = Null()
	}
	v.Parent = y
	v.ParentField = field
	if i := y.index(field); i != -1 {
		v.ParentIndex = i
		y.Values[i] = v
		return
	}
	i := len(y.Fields)
	v.ParentIndex = i
	y.Fields = append(y.Fields, &Node{
		Parent:      y,
		ParentIndex: i,
		ParentField: field,
		Type:        StringType,
		String:      field,
	})
	y.Values = append(y.Values, v)
}

// Rename renames field from to to, keeping its position. Any existing
// field named to is removed first.
func (y *Node) Rename(from, to string) bool {
	if from == to {
		return y.Has(from)
	}
	if y.index(from) == -1 {
		return false
	}
	y.Delete(to)
	i := y.index(from)
	y.Fields[i].String = to
	y.Fields[i].ParentField = to
	y.Values[i].ParentField = to
	return true
}

// Delete removes field from an object node and reports whether it was present.
func (y *Node) Delete(field string) bool {
	i := y.index(field)
	if i == -1 {
		return false
	}
	y.Fields = slices.Delete(y.Fields, i, i+1)
	y.Values = slices.Delete(y.Values, i, i+1)
	y.reindex(i)
	return true
}

// Append appends v to an array node.
func (y *Node) Append(vs ...*Node) {
	for _, v := range vs {
		v.Parent = y
		v.ParentIndex = len(y.Values)
		v.ParentField = ""
		y.Values = append(y.Values, v)
	}
}

// SetIndex sets element i of an array node, padding with nulls.
func (y *Node) SetIndex(i int, v *Node) {
	for len(y.Values) <= i {
		y.Append(Null())
	}
	v.Parent = y
	v.ParentIndex = i
	v.ParentField = ""
	y.Values[i] = v
}

// Truncate keeps elements [from, to) of an array node.
func (y *Node) Truncate(from, to int) {
	y.Values = y.Values[from:to]
	y.reindex(0)
}

// Replace overwrites y in place with the contents of o, keeping y's
// position in its parent.
func (y *Node) Replace(o *Node) {
	p, pi, pf := y.Parent, y.ParentIndex, y.ParentField
	o.CloneTo(y)
	y.Parent, y.ParentIndex, y.ParentField = p, pi, pf
}

func (y *Node) reindex(from int) {
	for i := from; i < len(y.Values); i++ {
		y.Values[i].ParentIndex = i
		if y.Type == ObjectType {
			y.Fields[i].ParentIndex = i
		}
	}
}

// Len returns the number of elements or fields of a container node.
func (y *Node) Len() int {
	if y == nil {
		return 0
	}
	return len(y.Values)
}

// Num returns the numeric value of a number node as a float64.
func (y *Node) Num() (float64, bool) {
	if y == nil || y.Type != NumberType {
		return 0, false
	}
	if y.Int64 != nil {
		return float64(*y.Int64), true
	}
	if y.Float64 != nil {
		return *y.Float64, true
	}
	return 0, false
}

// Int returns the value of an integral number node.
func (y *Node) Int() (int64, bool) {
	if y == nil || y.Type != NumberType {
		return 0, false
	}
	if y.Int64 != nil {
		return *y.Int64, true
	}
	if y.Float64 != nil && *y.Float64 == math.Trunc(*y.Float64) {
		return int64(*y.Float64), true
	}
	return 0, false
}

// NumberString formats a number node.
func (y *Node) NumberString() string {
	if y.Int64 != nil {
		return strconv.FormatInt(*y.Int64, 10)
	}
	if y.Float64 != nil {
		return strconv.FormatFloat(*y.Float64, 'g', -1, 64)
	}
	return "0"
}

