package libdiff

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/mquery/ir"
)

func TestAlignKeys(t *testing.T) {
	from := ir.MustJSON(`{"c":3,"a":1,"b":2}`)
	to := ir.MustJSON(`{"d":4,"b":5,"a":1}`)
	var got []string
	for _, e := range AlignKeys(from, to) {
		s := e.Op.String() + e.Key
		if e.From != nil {
			s += " " + e.From.JSON()
		}
		if e.To != nil {
			s += " " + e.To.JSON()
		}
		got = append(got, s)
	}
	want := []string{"=a 1 1", "=b 2 5", "-c 3", "+d 4"}
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}
}

func TestAlignKeysEmpty(t *testing.T) {
	if got := AlignKeys(ir.Object(), ir.Object()); len(got) != 0 {
		t.Errorf("got %v", got)
	}
	got := AlignKeys(ir.Object(), ir.MustJSON(`{"x":1,"y":2}`))
	if len(got) != 2 || got[0].Op != Insert || got[1].Key != "y" {
		t.Errorf("got %v", got)
	}
}
