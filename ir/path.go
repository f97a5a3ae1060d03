package ir

import (
	"strconv"
	"strings"
)

// Path returns the dotted path of y from the root of its tree, "" for the
// root itself.
func (y *Node) Path() string {
	if y.Parent == nil {
		return ""
	}
	var seg string
	switch y.Parent.Type {
	case ObjectType:
		seg = y.ParentField
	case ArrayType:
		seg = strconv.Itoa(y.ParentIndex)
	default:
		panic("parent but not in container")
	}
	prefix := y.Parent.Path()
	if prefix == "" {
		return seg
	}
	return prefix + "." + seg
}

// PathString returns a display form of a dotted path, using "$" for the
// root.
func PathString(p string) string {
	if p == "" {
		return "$"
	}
	if strings.IndexAny(p, " \t\n") == -1 {
		return p
	}
	return strconv.Quote(p)
}
