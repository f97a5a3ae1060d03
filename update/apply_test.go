package update

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
	"github.com/signadot/mquery/schema"
)

type applyTest struct {
	doc, update, want string
}

func runApplyTests(t *testing.T, tests []applyTest, opts ...Option) {
	t.Helper()
	for _, tc := range tests {
		u, err := New(ir.MustJSON(tc.update), opts...)
		if err != nil {
			t.Errorf("%s: %v", tc.update, err)
			continue
		}
		doc := ir.MustJSON(tc.doc)
		if err := u.Apply(doc); err != nil {
			t.Errorf("%s on %s: %v", tc.update, tc.doc, err)
			continue
		}
		if want := ir.MustJSON(tc.want); !ir.Equal(want, doc) {
			t.Errorf("%s on %s: got %s want %s", tc.update, tc.doc, doc.JSON(), tc.want)
		}
	}
}

func TestApply(t *testing.T) {
	runApplyTests(t, []applyTest{
		{`{"a":1}`, `{"$set":{"b.c":2}}`, `{"a":1,"b":{"c":2}}`},
		{`{"l":[1]}`, `{"$set":{"l.3":4}}`, `{"l":[1,null,null,4]}`},
		{`{"a":1,"b":[1,2]}`, `{"$unset":{"a":"","b.0":"","z":""}}`, `{"b":[null,2]}`},
		{`{"n":1,"f":1.5}`, `{"$inc":{"n":2,"f":1,"m":3}}`, `{"n":3,"f":2.5,"m":3}`},
		{`{"n":3}`, `{"$mul":{"n":2,"m":5}}`, `{"n":6,"m":0}`},
		{`{"lo":5,"hi":5}`, `{"$min":{"lo":3,"x":1},"$max":{"hi":9,"y":2}}`, `{"lo":3,"hi":9,"x":1,"y":2}`},
		{`{"lo":5,"hi":5}`, `{"$min":{"lo":7},"$max":{"hi":1}}`, `{"lo":5,"hi":5}`},
		{`{"d":"2024-01-01"}`, `{"$max":{"d":"2024-02-01"}}`, `{"d":"2024-02-01"}`},
		{`{"a":1,"b":2}`, `{"$rename":{"a":"b","b":"a"}}`, `{"a":2,"b":1}`},
		{`{"a":{"x":1}}`, `{"$rename":{"a.x":"b.y"}}`, `{"a":{},"b":{"y":1}}`},
		{`{"a":1}`, `{"$rename":{"z":"a"}}`, `{"a":1}`},
		{`{"t":["a"]}`, `{"$addToSet":{"t":{"$each":["a","b","b"]},"u":"x"}}`, `{"t":["a","b"],"u":["x"]}`},
		{`{"t":[{"k":1}]}`, `{"$addToSet":{"t":{"k":1}}}`, `{"t":[{"k":1}]}`},
		{`{"l":[1,2]}`, `{"$push":{"l":3}}`, `{"l":[1,2,3]}`},
		{`{"l":[1,2]}`, `{"$push":{"l":{"$each":[3,4],"$slice":-3}}}`, `{"l":[2,3,4]}`},
		{`{"l":[1,2]}`, `{"$push":{"l":{"$each":[],"$slice":1}}}`, `{"l":[1]}`},
		{`{"l":[1,2]}`, `{"$push":{"l":[3]}}`, `{"l":[1,2,[3]]}`},
		{`{"l":[1,2,3]}`, `{"$pop":{"l":1}}`, `{"l":[1,2]}`},
		{`{"l":[1,2,3]}`, `{"$pop":{"l":-1,"m":1}}`, `{"l":[2,3],"m":[]}`},
		{`{"l":[]}`, `{"$pop":{"l":1}}`, `{"l":[]}`},
		{`{"a":1}`, `{"$rename":{"a":"b"},"$inc":{"b":1}}`, `{"b":2}`},
		{`{"a":1}`, `{"$unset":{"a":""},"$set":{"a":2}}`, `{"a":2}`},
		{`{"a":{"b":1},"c":2}`, `{"a":{"x":1}}`, `{"a":{"b":1,"x":1},"c":2}`},
		{`{"a":1}`, `{}`, `{"a":1}`},
	})
}

func TestApplyErrors(t *testing.T) {
	for _, tc := range []struct{ doc, update string }{
		{`{"s":"x"}`, `{"$inc":{"s":1}}`},
		{`{"s":"x"}`, `{"$mul":{"s":1}}`},
		{`{"s":"x"}`, `{"$set":{"s.t":1}}`},
		{`{}`, `{"$push":{"l":1}}`},
		{`{"l":1}`, `{"$push":{"l":1}}`},
		{`{"l":1}`, `{"$addToSet":{"l":1}}`},
		{`{"l":{}}`, `{"$pop":{"l":1}}`},
		{`{"n":"x"}`, `{"$min":{"n":1}}`},
		{`{"a":{"b":[1]}}`, `{"$set":{"a.b.c":1}}`},
	} {
		err := MustNew(tc.update).Apply(ir.MustJSON(tc.doc))
		if !mqerr.IsObjectMatch(err) {
			t.Errorf("%s on %s: expected object match error, got %v", tc.update, tc.doc, err)
		}
	}
	if err := MustNew(`{"$set":{"a":1}}`).Apply(ir.MustJSON(`[1]`)); !errors.Is(err, mqerr.ErrObjectMatch) {
		t.Errorf("expected object match error for array document, got %v", err)
	}
}

func TestFullReplace(t *testing.T) {
	u, err := New(ir.MustJSON(`{"name":"y","nested":{"a":1,"c":3},"sys_ver":9}`),
		AllowFullReplace(), InternalFields("_id", "sys_*"))
	if err != nil {
		t.Fatal(err)
	}
	if !u.IsReplacement() {
		t.Fatal("expected replacement")
	}
	doc := ir.MustJSON(`{"_id":1,"sys_ver":3,"name":"x","old":true,"nested":{"a":1,"b":2}}`)
	var modified []string
	err = u.Apply(doc, OnFieldModified(func(field string, _ *ir.Node) {
		modified = append(modified, field)
	}))
	if err != nil {
		t.Fatal(err)
	}
	want := ir.MustJSON(`{"_id":1,"sys_ver":3,"name":"y","nested":{"a":1,"c":3}}`)
	if !ir.Equal(want, doc) {
		t.Errorf("got %s", doc.JSON())
	}
	if d := cmp.Diff([]string{"old", "name", "nested.b", "nested.c"}, modified); d != "" {
		t.Error(d)
	}

	w := MustNew(`{"a":{"b":1}}`)
	if w.IsReplacement() || w.String() != `{"$set":{"a.b":1}}` {
		t.Errorf("expected $set wrapping, got %s", w)
	}
}

func TestSkipFields(t *testing.T) {
	u := MustNew(`{"$set":{"a":1,"b":2,"secret.k":3},"$inc":{"c":1}}`)
	doc := ir.Object()
	var modified []string
	err := u.Apply(doc,
		SkipFields(func(f string) bool { return f == "b" }),
		SkipFieldGlobs("secret.*"),
		OnFieldModified(func(field string, v *ir.Node) {
			modified = append(modified, field+"="+v.JSON())
		}))
	if err != nil {
		t.Fatal(err)
	}
	if !ir.Equal(ir.MustJSON(`{"a":1,"c":1}`), doc) {
		t.Errorf("got %s", doc.JSON())
	}
	if d := cmp.Diff([]string{"a=1", "c=1"}, modified); d != "" {
		t.Error(d)
	}
}

const testSchema = `{
  "type": "object",
  "properties": {
    "age": {"type": "integer"},
    "name": {"type": "string"},
    "born": {"type": "string", "format": "date"},
    "tags": {"type": "array", "items": {"type": "string"}}
  },
  "additionalProperties": false
}`

func mustSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Parse(ir.MustJSON(testSchema))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNormalize(t *testing.T) {
	s := mustSchema(t)
	for _, tc := range []struct{ in, want string }{
		{`{"$set":{"age":"4","name":5}}`, `{"$set":{"age":4,"name":"5"}}`},
		{`{"$inc":{"age":"2"}}`, `{"$inc":{"age":2}}`},
		{`{"$push":{"tags":{"$each":[1],"$slice":"2"}}}`, `{"$push":{"tags":{"$each":["1"],"$slice":2}}}`},
		{`{"$addToSet":{"tags":2}}`, `{"$addToSet":{"tags":"2"}}`},
		{`{"$pop":{"tags":"-1"}}`, `{"$pop":{"tags":-1}}`},
		{`{"$min":{"born":"2024-01-02"}}`, `{"$min":{"born":"2024-01-02T00:00:00Z"}}`},
		{`{"$set":{"tags":["a",1],"name":null}}`, `{"$set":{"tags":["a","1"],"name":null}}`},
		{`{"age":"7"}`, `{"$set":{"age":7}}`},
	} {
		u, err := New(ir.MustJSON(tc.in), WithSchema(s))
		if err != nil {
			t.Errorf("%s: %v", tc.in, err)
			continue
		}
		if !ir.Equal(ir.MustJSON(tc.want), u.Spec()) {
			t.Errorf("%s: got %s want %s", tc.in, u, tc.want)
		}
	}
}

func TestValidationErrors(t *testing.T) {
	s := mustSchema(t)
	for _, tc := range []struct {
		update string
		reason string
		opts   []Option
	}{
		{`{"$foo":{"a":1}}`, "Unrecognized update operator", nil},
		{`{"$set":1}`, "Argument must be an object", nil},
		{`{"$set":{"a":1},"b":2}`, "Cannot mix operators and non-operators", nil},
		{`{"$set":{"$a":1}}`, "Invalid field name", nil},
		{`{"$inc":{"a":"x"}}`, "Argument must be a number", nil},
		{`{"$min":{"a":true}}`, "Argument must be a number or a date", nil},
		{`{"$pop":{"a":2}}`, "Argument must be 1 or -1", nil},
		{`{"$rename":{"a":1}}`, "Target must be a non-empty string", nil},
		{`{"$rename":{"a":"a.b"}}`, "Cannot rename a field to itself, a parent or a subfield", nil},
		{`{"$push":{"a":{"$each":1}}}`, "$each must be an array", nil},
		{`{"$push":{"a":{"$each":[],"$slice":"x"}}}`, "$slice must be an integer", nil},
		{`{"$push":{"a":{"$slice":1}}}`, "Modifiers require $each", nil},
		{`{"$addToSet":{"a":{"$each":[],"$slice":1}}}`, "Unrecognized modifier $slice", nil},
		{`{"$set":{"a":1}}`, "Invalid internal field pattern", []Option{InternalFields("[")}},
		{`{"$set":{"nope":1}}`, "Unknown field", []Option{WithSchema(s)}},
		{`{"$rename":{"age":"nope"}}`, "Unknown field", []Option{WithSchema(s)}},
		{`{"$set":{"age":"x"}}`, "Invalid value for field", []Option{WithSchema(s)}},
	} {
		_, err := New(ir.MustJSON(tc.update), tc.opts...)
		var ve *mqerr.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%s: expected validation error, got %v", tc.update, err)
			continue
		}
		if ve.Kind != mqerr.UpdateKind || ve.Reason != tc.reason {
			t.Errorf("%s: got %v", tc.update, ve)
		}
	}
	if _, err := New(ir.MustJSON(`{"$set":{"nope":1}}`), WithSchema(s), AllowUnknownFields()); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	if _, err := New(ir.MustJSON(`{"$inc":{"a":"x"}}`), SkipValidate()); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestFields(t *testing.T) {
	u := MustNew(`{"$set":{"b":1},"$rename":{"a":"c"},"$inc":{"b":1}}`)
	got, err := u.Fields()
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{"a", "b", "c"}, got); d != "" {
		t.Error(d)
	}
}
