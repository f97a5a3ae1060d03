// Package schema describes the expected shape of documents.
//
// A Schema is a tree of subschemas (Node), each with a type name looked up
// in the type registry (see Register). Types know how to find the subschema
// of a field and how to coerce a value into their shape. The query and
// update engines use schemas to resolve dotted paths through arrays and to
// normalize operator arguments.
//
// Schemas are loaded from a subset of JSON Schema:
//
//	{"type": "object", "properties": {"tags": {"type": "array", "items": {"type": "string"}}}}
//
// "format": "date" or "date-time" on a string gives the date type, an object
// with an additionalProperties schema and no properties gives the map type,
// and a missing or multiple "type" gives the mixed type.
package schema

import (
	"fmt"

	"github.com/signadot/mquery/ir"
	"github.com/xeipuuv/gojsonschema"
)

// Schema is a parsed document schema.
type Schema struct {
	Root *Node

	compiled *gojsonschema.Schema
}

// Node is a subschema.
type Node struct {
	Type string
	// Properties are the known fields of an object.
	Properties map[string]*Node
	// AdditionalProperties allows fields not in Properties.
	AdditionalProperties bool
	// Elements is the element schema of an array.
	Elements *Node
	// Values is the value schema of a map.
	Values *Node
	Format string
}

// Mixed is the subschema accepting anything.
func Mixed() *Node {
	return &Node{Type: MixedType}
}

// Parse builds a Schema from a JSON Schema document.
func Parse(doc *ir.Node) (*Schema, error) {
	root, err := parseNode(doc, "")
	if err != nil {
		return nil, err
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(ir.ToAny(doc)))
	if err != nil {
		return nil, fmt.Errorf("invalid json schema: %w", err)
	}
	return &Schema{Root: root, compiled: compiled}, nil
}

// FromNode returns a Schema with root as its root subschema. Such schemas
// resolve paths and normalize values but do not validate documents.
func FromNode(root *Node) *Schema {
	return &Schema{Root: root}
}

func parseNode(doc *ir.Node, at string) (*Node, error) {
	if doc.Type == ir.BoolType {
		return Mixed(), nil
	}
	if doc.Type != ir.ObjectType {
		return nil, fmt.Errorf("schema at %s: expected object, got %s", ir.PathString(at), doc.Type)
	}
	res := &Node{}
	if f := doc.Get("format"); f != nil && f.Type == ir.StringType {
		res.Format = f.String
	}
	tn := doc.Get("type")
	if tn == nil || tn.Type != ir.StringType {
		res.Type = MixedType
		return res, nil
	}
	switch tn.String {
	case "object":
		props := doc.Get("properties")
		ap := doc.Get("additionalProperties")
		if props == nil && ap != nil && ap.Type == ir.ObjectType {
			vals, err := parseNode(ap, join(at, "additionalProperties"))
			if err != nil {
				return nil, err
			}
			res.Type = MapType
			res.Values = vals
			return res, nil
		}
		res.Type = ObjectType
		res.Properties = map[string]*Node{}
		res.AdditionalProperties = ap == nil || ir.Truth(ap)
		if props == nil {
			return res, nil
		}
		if props.Type != ir.ObjectType {
			return nil, fmt.Errorf("schema at %s: properties must be an object", ir.PathString(at))
		}
		for i, f := range props.Fields {
			sub, err := parseNode(props.Values[i], join(at, f.String))
			if err != nil {
				return nil, err
			}
			res.Properties[f.String] = sub
		}
	case "array":
		res.Type = ArrayType
		res.Elements = Mixed()
		if items := doc.Get("items"); items != nil {
			elts, err := parseNode(items, join(at, "items"))
			if err != nil {
				return nil, err
			}
			res.Elements = elts
		}
	case "string":
		res.Type = StringType
		if res.Format == "date" || res.Format == "date-time" {
			res.Type = DateType
		}
	case "number", "integer", "boolean":
		res.Type = tn.String
	case "null":
		res.Type = MixedType
	default:
		return nil, fmt.Errorf("schema at %s: unknown type %q", ir.PathString(at), tn.String)
	}
	return res, nil
}

func join(a, b string) string {
	if a == "" {
		return b
	}
	return a + "." + b
}

// Validate checks doc against the JSON Schema the Schema was parsed from.
func (s *Schema) Validate(doc *ir.Node) error {
	if s.compiled == nil {
		return nil
	}
	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(ir.ToAny(doc)))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	verr := &ValidationError{}
	for _, desc := range result.Errors() {
		verr.Errors = append(verr.Errors, desc.String())
	}
	return verr
}

// ValidationError lists the ways a document does not fit a schema.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document invalid against schema: %v", e.Errors)
}

// Normalize coerces v into the shape of sub using the registered type of
// sub. A nil sub leaves v unchanged.
func Normalize(sub *Node, v *ir.Node) (*ir.Node, error) {
	if sub == nil || v == nil {
		return v, nil
	}
	t, err := LookupType(sub.Type)
	if err != nil {
		return nil, err
	}
	return t.Normalize(sub, v)
}
