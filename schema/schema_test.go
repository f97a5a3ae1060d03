package schema

import (
	"errors"
	"testing"

	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
)

const testSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string"},
    "age": {"type": "integer"},
    "score": {"type": "number"},
    "ok": {"type": "boolean"},
    "born": {"type": "string", "format": "date-time"},
    "tags": {"type": "array", "items": {"type": "string"}},
    "items": {"type": "array", "items": {
      "type": "object",
      "properties": {"sku": {"type": "string"}, "qty": {"type": "integer"}}
    }},
    "attrs": {"type": "object", "additionalProperties": {"type": "number"}},
    "any": {}
  }
}`

func mustSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := Parse(ir.MustJSON(testSchema))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestPathSubschema(t *testing.T) {
	s := mustSchema(t)
	for _, tc := range []struct {
		path     string
		typ      string
		resolved string
	}{
		{"name", StringType, "name"},
		{"tags", ArrayType, "tags"},
		{"tags.0", StringType, "tags.0"},
		{"items.sku", StringType, "items.$.sku"},
		{"items.2.qty", IntegerType, "items.2.qty"},
		{"items.$.qty", IntegerType, "items.$.qty"},
		{"attrs.height", NumberType, "attrs.height"},
		{"any.x.y", MixedType, "any.x.y"},
		{"born", DateType, "born"},
		{"", ObjectType, ""},
	} {
		sub, resolved, err := s.PathSubschema(tc.path, false)
		if err != nil {
			t.Errorf("%q: %v", tc.path, err)
			continue
		}
		if sub.Type != tc.typ || resolved != tc.resolved {
			t.Errorf("%q: got %s %q, want %s %q", tc.path, sub.Type, resolved, tc.typ, tc.resolved)
		}
	}
}

func TestPathSubschemaUnknown(t *testing.T) {
	s := mustSchema(t)
	_, _, err := s.PathSubschema("items.nope", false)
	if !mqerr.IsObjectMatch(err) {
		t.Fatalf("expected object match error, got %v", err)
	}
	sub, resolved, err := s.PathSubschema("items.nope.x", true)
	if err != nil || sub != nil || resolved != "items.$.nope.x" {
		t.Errorf("got %v %q %v", sub, resolved, err)
	}
}

func TestNormalize(t *testing.T) {
	for _, tc := range []struct {
		typ  string
		in   string
		want string
	}{
		{NumberType, `"2.5"`, `2.5`},
		{NumberType, `"3"`, `3`},
		{IntegerType, `"7"`, `7`},
		{IntegerType, `7.0`, `7`},
		{BooleanType, `"yes"`, `true`},
		{BooleanType, `0`, `false`},
		{StringType, `12`, `"12"`},
		{StringType, `true`, `"true"`},
		{DateType, `"2024-01-02"`, `"2024-01-02T00:00:00Z"`},
		{DateType, `"2024-01-02T03:04:05+01:00"`, `"2024-01-02T02:04:05Z"`},
		{DateType, `0`, `"1970-01-01T00:00:00Z"`},
		{MixedType, `{"a":1}`, `{"a":1}`},
	} {
		got, err := Normalize(&Node{Type: tc.typ}, ir.MustJSON(tc.in))
		if err != nil {
			t.Errorf("%s %s: %v", tc.typ, tc.in, err)
			continue
		}
		if !ir.Equal(got, ir.MustJSON(tc.want)) {
			t.Errorf("%s %s: got %s want %s", tc.typ, tc.in, got.JSON(), tc.want)
		}
	}
	for _, tc := range []struct{ typ, in string }{
		{NumberType, `"x"`},
		{IntegerType, `1.5`},
		{BooleanType, `"maybe"`},
		{DateType, `"yesterday"`},
		{StringType, `[1]`},
	} {
		_, err := Normalize(&Node{Type: tc.typ}, ir.MustJSON(tc.in))
		if !errors.Is(err, ErrNormalize) {
			t.Errorf("%s %s: expected ErrNormalize, got %v", tc.typ, tc.in, err)
		}
	}
}

func TestNormalizeNested(t *testing.T) {
	s := mustSchema(t)
	doc := ir.MustJSON(`{"age":"40","items":[{"qty":"2"}],"attrs":{"h":"1.5"}}`)
	got, err := Normalize(s.Root, doc)
	if err != nil {
		t.Fatal(err)
	}
	want := ir.MustJSON(`{"age":40,"items":[{"qty":2}],"attrs":{"h":1.5}}`)
	if !ir.Equal(got, want) {
		t.Errorf("got %s", got.JSON())
	}
}

func TestValidate(t *testing.T) {
	s := mustSchema(t)
	if err := s.Validate(ir.MustJSON(`{"name":"x","tags":["a"]}`)); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	err := s.Validate(ir.MustJSON(`{"name":1,"extra":true}`))
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Errors) != 2 {
		t.Errorf("expected 2 validation errors, got %v", err)
	}
	if err := FromNode(Mixed()).Validate(ir.MustJSON(`1`)); err != nil {
		t.Errorf("node schemas do not validate, got %v", err)
	}
}

func TestTypeRegistry(t *testing.T) {
	if err := Register(mixedType{}); err == nil {
		t.Errorf("expected duplicate registration error")
	}
	if _, err := LookupType("nope"); err == nil {
		t.Errorf("expected unknown type error")
	}
	if len(TypeNames()) != 9 {
		t.Errorf("got %v", TypeNames())
	}
}
