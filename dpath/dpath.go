// Package dpath provides dotted path access to documents.
//
// A path is a sequence of components joined with '.'. A component is an
// object key or, when the value it applies to is an array, a decimal index.
// Resolved paths (see schema.PathSubschema) may also contain Wildcard,
// standing for any array element.
package dpath

import (
	"strconv"
	"strings"

	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
)

// Wildcard is the resolved path component matching any array element.
const Wildcard = "$"

// Split splits a dotted path into its components. The empty path has no
// components.
func Split(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, ".")
}

// Join joins components, skipping empty ones.
func Join(parts ...string) string {
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			res = append(res, p)
		}
	}
	return strings.Join(res, ".")
}

// Index reports whether c is an array index component.
func Index(c string) (int, bool) {
	if c == "" || len(c) > 9 {
		return 0, false
	}
	for i := 0; i < len(c); i++ {
		if c[i] < '0' || c[i] > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(c)
	if err != nil {
		return 0, false
	}
	return i, true
}

// HasWildcard reports whether a resolved path contains Wildcard.
func HasWildcard(p string) bool {
	for _, c := range Split(p) {
		if c == Wildcard {
			return true
		}
	}
	return false
}

// HasPrefix reports whether p equals prefix or lies below it.
func HasPrefix(p, prefix string) bool {
	if prefix == "" {
		return true
	}
	return p == prefix || strings.HasPrefix(p, prefix+".")
}

// Rel returns p relative to prefix, which must be a prefix of p.
func Rel(p, prefix string) string {
	if prefix == "" {
		return p
	}
	if p == prefix {
		return ""
	}
	return strings.TrimPrefix(p, prefix+".")
}

// Get returns the value at path p in doc, or nil if there is none.
// Numeric components index arrays; no wildcard expansion is done.
func Get(doc *ir.Node, p string) *ir.Node {
	cur := doc
	for _, c := range Split(p) {
		cur = child(cur, c)
		if cur == nil {
			return nil
		}
	}
	return cur
}

func child(n *ir.Node, c string) *ir.Node {
	if n == nil {
		return nil
	}
	switch n.Type {
	case ir.ObjectType:
		return n.Get(c)
	case ir.ArrayType:
		i, ok := Index(c)
		if !ok || i >= len(n.Values) {
			return nil
		}
		return n.Values[i]
	}
	return nil
}

// Set sets the value at path p in doc, creating intermediate objects as
// needed. Setting an array index past the end pads the array with nulls.
// Traversing through a scalar is an ObjectMatchError.
func Set(doc *ir.Node, p string, v *ir.Node) error {
	parts := Split(p)
	if len(parts) == 0 {
		if doc.Type != ir.ObjectType || v.Type != ir.ObjectType {
			return mqerr.ObjectMatch("cannot replace document root with non-object", p, v.JSON())
		}
		doc.Replace(v)
		return nil
	}
	cur := doc
	for i, c := range parts {
		last := i == len(parts)-1
		switch cur.Type {
		case ir.ObjectType:
			if last {
				cur.Set(c, v)
				return nil
			}
			next := cur.Get(c)
			if next == nil || next.Type == ir.NullType {
				next = ir.Object()
				cur.Set(c, next)
			}
			cur = next
		case ir.ArrayType:
			idx, ok := Index(c)
			if !ok {
				return mqerr.ObjectMatch("cannot set non-numeric field of array", Join(parts[:i+1]...), c)
			}
			if last {
				cur.SetIndex(idx, v)
				return nil
			}
			var next *ir.Node
			if idx < len(cur.Values) {
				next = cur.Values[idx]
			}
			if next == nil || next.Type == ir.NullType {
				next = ir.Object()
				cur.SetIndex(idx, next)
			}
			cur = next
		default:
			return mqerr.ObjectMatch("cannot set field of "+cur.Type.String(), Join(parts[:i]...), cur.JSON())
		}
	}
	return nil
}

// Delete removes the value at path p and reports whether there was one.
// Deleting an array element sets it to null so that sibling indexes stay
// stable.
func Delete(doc *ir.Node, p string) bool {
	parts := Split(p)
	if len(parts) == 0 {
		return false
	}
	parent := doc
	for _, c := range parts[:len(parts)-1] {
		parent = child(parent, c)
		if parent == nil {
			return false
		}
	}
	c := parts[len(parts)-1]
	switch parent.Type {
	case ir.ObjectType:
		return parent.Delete(c)
	case ir.ArrayType:
		i, ok := Index(c)
		if !ok || i >= len(parent.Values) {
			return false
		}
		parent.SetIndex(i, ir.Null())
		return true
	}
	return false
}

// Leaf is one entry of a flattened object.
type Leaf struct {
	Path  string
	Value *ir.Node
}

// Flatten lists the dotted paths of the leaves of obj. Arrays, scalars and
// empty objects are leaves.
func Flatten(obj *ir.Node) []Leaf {
	return flatten(nil, "", obj)
}

func flatten(dst []Leaf, prefix string, n *ir.Node) []Leaf {
	if n.Type != ir.ObjectType || (len(n.Fields) == 0 && prefix != "") {
		return append(dst, Leaf{Path: prefix, Value: n})
	}
	for i, f := range n.Fields {
		dst = flatten(dst, Join(prefix, f.String), n.Values[i])
	}
	return dst
}
