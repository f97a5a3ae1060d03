package query

import (
	"errors"
	"testing"

	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
)

func TestVars(t *testing.T) {
	vars := map[string]*ir.Node{
		"min":  ir.FromInt(18),
		"tags": ir.MustJSON(`["a","b"]`),
	}
	q, err := New(ir.MustJSON(`{"age":{"$gte":{"$var":"min"}},"tag":{"$in":{"$var":"tags"}}}`), Vars(vars))
	if err != nil {
		t.Fatal(err)
	}
	want := ir.MustJSON(`{"age":{"$gte":18},"tag":{"$in":["a","b"]}}`)
	if !ir.Equal(want, q.Spec()) {
		t.Errorf("got %s", q)
	}
	ok, err := q.Matches(ir.MustJSON(`{"age":20,"tag":"b"}`))
	if err != nil || !ok {
		t.Errorf("got %t %v", ok, err)
	}

	_, err = New(ir.MustJSON(`{"a":{"$var":"nope"}}`), Vars(vars))
	var mv *mqerr.MissingQueryVarError
	if !errors.As(err, &mv) || mv.Var != "nope" {
		t.Errorf("expected missing var, got %v", err)
	}

	q, err = New(ir.MustJSON(`{"a":{"$var":"nope"},"b":{"$var":"min"}}`), Vars(vars), IgnoreMissingVars())
	if err != nil {
		t.Fatal(err)
	}
	if !ir.Equal(ir.MustJSON(`{"a":{"$var":"nope"},"b":18}`), q.Spec()) {
		t.Errorf("got %s", q)
	}
	if err := q.SubstituteVars(map[string]*ir.Node{"nope": ir.FromString("x")}, false); err != nil {
		t.Fatal(err)
	}
	ok, err = q.Matches(ir.MustJSON(`{"a":"x","b":18}`))
	if err != nil || !ok {
		t.Errorf("got %t %v", ok, err)
	}
}

func TestUnresolvedVarInOperator(t *testing.T) {
	q := MustNew(`{"a":{"$gt":{"$var":"x"}}}`)
	_, err := q.Matches(ir.MustJSON(`{"a":1}`))
	if !errors.Is(err, mqerr.ErrMissingVar) {
		t.Errorf("expected missing var, got %v", err)
	}
}
