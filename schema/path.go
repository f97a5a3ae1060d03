package schema

import (
	"github.com/signadot/mquery/dpath"
	"github.com/signadot/mquery/mqerr"
)

// PathSubschema returns the subschema at the dotted path p together with
// the resolved form of p.
//
// At an array subschema a numeric component is consumed as an index. Any
// other component is resolved against the element schema after inserting
// dpath.Wildcard into the resolved path, so "tags.name" on an array of
// objects resolves to "tags.$.name".
//
// A field with no subschema is an ObjectMatchError unless allowUnknown is
// set, in which case the returned subschema is nil and the rest of p is
// copied to the resolved path as is.
//
// Directly nested arrays and object keys which are numeric strings are
// ambiguous here: a numeric component at an array of arrays is taken as an
// index into the outer array only, and a numeric key of an object below an
// array is taken as an index.
func (s *Schema) PathSubschema(p string, allowUnknown bool) (*Node, string, error) {
	parts := dpath.Split(p)
	resolved := make([]string, 0, len(parts)+1)
	cur := s.Root
	for i := 0; i < len(parts); {
		c := parts[i]
		if cur.Type == ArrayType {
			_, isIndex := dpath.Index(c)
			if isIndex || c == dpath.Wildcard {
				i++
			}
			if isIndex {
				resolved = append(resolved, c)
			} else {
				resolved = append(resolved, dpath.Wildcard)
			}
			cur = cur.Elements
			if cur == nil {
				cur = Mixed()
			}
			continue
		}
		t, err := LookupType(cur.Type)
		if err != nil {
			return nil, "", err
		}
		next, ok := t.FieldSubschema(cur, c)
		if !ok {
			if allowUnknown {
				resolved = append(resolved, parts[i:]...)
				return nil, dpath.Join(resolved...), nil
			}
			return nil, "", mqerr.ObjectMatch("no subschema for field", dpath.Join(parts[:i+1]...), c)
		}
		resolved = append(resolved, c)
		cur = next
		i++
	}
	return cur, dpath.Join(resolved...), nil
}
