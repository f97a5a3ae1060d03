package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
)

func TestQueriedFields(t *testing.T) {
	q := MustNew(`{
		"a": 1,
		"b.c": {"$gt": 1},
		"$or": [{"d": 1}, {"a": 2}],
		"items": {"$elemMatch": {"sku": "x", "$or": [{"qty": {"$lt": 2}}]}},
		"$expr": "true"
	}`)
	got, err := q.QueriedFields()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b.c", "d", "items", "items.$.qty", "items.$.sku"}
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}

	p := MustNew(`{"a":1,"$gt":1}`, FieldPrefix("x"))
	got, err = p.QueriedFields()
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{"x", "x.a"}, got); d != "" {
		t.Error(d)
	}
}

func TestOperators(t *testing.T) {
	q := MustNew(`{"a":{"$gt":1,"$not":{"$in":[1]}},"$or":[{"b":{"$elemMatch":{"c":{"$exists":true}}}}]}`)
	got, err := q.Operators()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"$elemMatch", "$exists", "$gt", "$in", "$not", "$or"}
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}
}

func TestTransformQueriedFields(t *testing.T) {
	q := MustNew(`{"a":1,"b":{"$gt":1},"$and":[{"c.d":1}],"e":{"$elemMatch":{"f":1}}}`)
	err := q.TransformQueriedFields(func(f string) string {
		return "data." + f
	})
	if err != nil {
		t.Fatal(err)
	}
	want := ir.MustJSON(`{"data.a":1,"data.b":{"$gt":1},"$and":[{"data.c.d":1}],"data.e":{"$elemMatch":{"f":1}}}`)
	if !ir.Equal(want, q.Spec()) {
		t.Errorf("got %s", q)
	}
	ok, err := q.Matches(ir.MustJSON(`{"data":{"a":1,"b":2,"c":{"d":1},"e":[{"f":1}]}}`))
	if err != nil || !ok {
		t.Errorf("got %t %v", ok, err)
	}

	c := MustNew(`{"a":1,"A":2}`)
	err = c.TransformQueriedFields(strings.ToLower)
	if !errors.Is(err, mqerr.ErrValidation) {
		t.Errorf("expected collision error, got %v", err)
	}
}

func TestFieldsUnder(t *testing.T) {
	q := MustNew(`{"a.b":1,"$or":[{"a.c":1},{"d":1}]}`)
	for _, tc := range []struct {
		prefixes []string
		want     bool
	}{
		{[]string{"a"}, false},
		{[]string{"a", "d"}, true},
		{[]string{"a.b", "a.c", "d"}, true},
		{nil, false},
	} {
		got, err := q.FieldsUnder(tc.prefixes...)
		if err != nil || got != tc.want {
			t.Errorf("%v: got %t %v", tc.prefixes, got, err)
		}
	}
}
