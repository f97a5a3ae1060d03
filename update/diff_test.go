package update

import (
	"testing"

	"github.com/signadot/mquery/ir"
)

func TestCreateFromDiff(t *testing.T) {
	from := ir.MustJSON(`{"a":1,"b":{"c":1,"d":2},"l":[1,2,3],"gone":true}`)
	to := ir.MustJSON(`{"a":2,"b":{"c":1,"e":3},"l":[1,5],"new":"x"}`)
	u, err := CreateFromDiff(from, to)
	if err != nil {
		t.Fatal(err)
	}
	want := ir.MustJSON(`{
		"$unset": {"b.d": true, "gone": true},
		"$set": {"a": 2, "b.e": 3, "l.1": 5, "new": "x"},
		"$push": {"l": {"$each": [], "$slice": 2}}
	}`)
	if !ir.Equal(want, u.Spec()) {
		t.Errorf("got %s", u)
	}
	doc := from.Clone()
	if err := u.Apply(doc); err != nil {
		t.Fatal(err)
	}
	if !ir.Equal(to, doc) {
		t.Errorf("got %s", doc.JSON())
	}
}

func TestDiffRoundTrip(t *testing.T) {
	pairs := [][2]string{
		{`{}`, `{}`},
		{`{}`, `{"a":{"b":[1,{"c":2}]}}`},
		{`{"a":{"b":[1,{"c":2}]}}`, `{}`},
		{`{"a":1}`, `{"a":"1"}`},
		{`{"a":{"x":1}}`, `{"a":[1]}`},
		{`{"a":[1]}`, `{"a":{"x":1}}`},
		{`{"a":{}}`, `{"a":{"b":{}}}`},
		{`{"a":{"b":1}}`, `{"a":{}}`},
		{`{"l":[{"k":1,"v":1},{"k":2}]}`, `{"l":[{"k":1},{"k":2,"v":2},{"k":3}]}`},
		{`{"l":[[1,2],[3]]}`, `{"l":[[1],[3,4]]}`},
		{`{"l":[1,2,3,4]}`, `{"l":[]}`},
		{`{"l":[1,null]}`, `{"l":[null,1]}`},
		{`{"n":1,"f":1.5,"s":"x","b":true,"z":null}`, `{"n":1.0,"f":2,"s":"y","b":false,"z":0}`},
	}
	policies := []ArrayPolicy{ArraysNone, ArraysAll, ArraysEqual, ArraysDifferent, ArraysSmaller, ArraysLarger}
	for _, p := range pairs {
		for _, policy := range policies {
			from, to := ir.MustJSON(p[0]), ir.MustJSON(p[1])
			u, err := CreateFromDiff(from, to, ReplaceArrays(policy))
			if err != nil {
				t.Fatal(err)
			}
			doc := from.Clone()
			if err := u.Apply(doc); err != nil {
				t.Errorf("%s -> %s (%s): %v", p[0], p[1], policy, err)
				continue
			}
			if !ir.Equal(to, doc) {
				t.Errorf("%s -> %s (%s): patch %s gave %s", p[0], p[1], policy, u, doc.JSON())
			}
		}
	}
}

func TestDiffArrayPolicy(t *testing.T) {
	for _, tc := range []struct {
		from, to string
		policy   ArrayPolicy
		want     string
	}{
		{`{"l":[1,2,3]}`, `{"l":[1,2]}`, ArraysNone, `{"$push":{"l":{"$each":[],"$slice":2}}}`},
		{`{"l":[1,2,3]}`, `{"l":[1,2]}`, ArraysSmaller, `{"$set":{"l":[1,2]}}`},
		{`{"l":[1,2,3]}`, `{"l":[1,2]}`, ArraysLarger, `{"$push":{"l":{"$each":[],"$slice":2}}}`},
		{`{"l":[1,2]}`, `{"l":[1,2,3]}`, ArraysLarger, `{"$set":{"l":[1,2,3]}}`},
		{`{"l":[1,2]}`, `{"l":[1,2,3]}`, ArraysDifferent, `{"$set":{"l":[1,2,3]}}`},
		{`{"l":[1,2]}`, `{"l":[1,3]}`, ArraysDifferent, `{"$set":{"l.1":3}}`},
		{`{"l":[1,2]}`, `{"l":[1,3]}`, ArraysEqual, `{"$set":{"l":[1,3]}}`},
		{`{"l":[1,2]}`, `{"l":[1,3]}`, ArraysAll, `{"$set":{"l":[1,3]}}`},
		{`{"l":[1,2]}`, `{"l":[1,2]}`, ArraysAll, `{}`},
	} {
		u, err := CreateFromDiff(ir.MustJSON(tc.from), ir.MustJSON(tc.to), ReplaceArrays(tc.policy))
		if err != nil {
			t.Fatal(err)
		}
		if !ir.Equal(ir.MustJSON(tc.want), u.Spec()) {
			t.Errorf("%s -> %s (%s): got %s want %s", tc.from, tc.to, tc.policy, u, tc.want)
		}
	}
}

func TestParseArrayPolicy(t *testing.T) {
	for _, p := range []ArrayPolicy{ArraysNone, ArraysAll, ArraysEqual, ArraysDifferent, ArraysSmaller, ArraysLarger} {
		got, err := ParseArrayPolicy(p.String())
		if err != nil || got != p {
			t.Errorf("%s: got %s %v", p, got, err)
		}
	}
	if _, err := ParseArrayPolicy("some"); err == nil {
		t.Error("expected error")
	}
}

func TestDiffNonObject(t *testing.T) {
	if _, err := CreateFromDiff(ir.MustJSON(`[1]`), ir.Object()); err == nil {
		t.Error("expected error")
	}
}

func TestMergePatch(t *testing.T) {
	from := ir.MustJSON(`{"a":1,"b":{"c":1,"d":2}}`)
	to := ir.MustJSON(`{"a":1,"b":{"c":2},"e":[1]}`)
	patch, err := MergePatch(from, to)
	if err != nil {
		t.Fatal(err)
	}
	if want := ir.MustJSON(`{"b":{"c":2,"d":null},"e":[1]}`); !ir.Equal(want, patch) {
		t.Errorf("got %s", patch.JSON())
	}
	doc := from.Clone()
	if err := ApplyMergePatch(doc, patch); err != nil {
		t.Fatal(err)
	}
	if !ir.Equal(to, doc) {
		t.Errorf("got %s", doc.JSON())
	}
}
