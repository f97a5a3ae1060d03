package query

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/mquery/ir"
)

type visit struct {
	Name, Key, Parent string
}

func TestTraverseLocations(t *testing.T) {
	q := MustNew(`{
		"a": {"$gt": 1},
		"$or": [{"$and": [{"x": 1}, {"y": 2}]}, {"b": {"$in": [1]}}]
	}`, SkipValidate())
	var got []visit
	record := func(name string, parent *ir.Node, key string) {
		v := visit{Name: name, Key: key, Parent: "<nil>"}
		switch {
		case parent == q.Spec():
			v.Parent = "<root>"
		case parent != nil:
			v.Parent = parent.JSON()
		}
		got = append(got, v)
	}
	err := q.Traverse(Visitor{
		OnQueryOperator: func(_ *ir.Node, name string, _ *ir.Node, _ string, parent *ir.Node, key string) (Action, error) {
			record(name, parent, key)
			return Continue, nil
		},
		OnExprOperator: func(_ *ir.Node, _, name string, _, parent *ir.Node, key string) (Action, error) {
			record(name, parent, key)
			return Continue, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []visit{
		{Name: "$gt", Key: "a", Parent: "<root>"},
		{Name: "$or", Key: "", Parent: "<nil>"},
		{Name: "$and", Key: "0", Parent: `[{"$and":[{"x":1},{"y":2}]},{"b":{"$in":[1]}}]`},
		{Name: "$in", Key: "b", Parent: `{"b":{"$in":[1]}}`},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
