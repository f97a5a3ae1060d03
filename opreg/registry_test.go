package opreg

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/mquery/mqerr"
)

type testOp string

func (o testOp) Name() string { return string(o) }

func TestRegistry(t *testing.T) {
	r := New(mqerr.QueryKind, "expression", testOp("$gt"), testOp("$lt"))
	if r.Family() != "expression" {
		t.Errorf("family %q", r.Family())
	}
	op, err := r.Lookup("$gt")
	if err != nil || op != "$gt" {
		t.Fatalf("lookup: %v %v", op, err)
	}
	_, err = r.Lookup("$foo")
	var ve *mqerr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Reason != "Unrecognized expression operator" || ve.Path != "$foo" || ve.Kind != mqerr.QueryKind {
		t.Errorf("bad error %+v", ve)
	}
	if err := r.Register(testOp("$gt")); !errors.Is(err, ErrOpExists) {
		t.Errorf("expected ErrOpExists, got %v", err)
	}
	if err := r.Register(testOp("bad")); err == nil {
		t.Errorf("expected error for name without '$'")
	}
	if err := r.Register(testOp("$eq")); err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{"$eq", "$gt", "$lt"}, r.Names()); d != "" {
		t.Error(d)
	}
	if !r.Has("$eq") || r.Has("$ne") {
		t.Errorf("bad Has")
	}
}

func TestNewDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic")
		}
	}()
	New(mqerr.UpdateKind, "update", testOp("$set"), testOp("$set"))
}
