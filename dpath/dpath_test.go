package dpath

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
)

func TestSplitJoin(t *testing.T) {
	if got := Split(""); got != nil {
		t.Errorf("expected no components, got %v", got)
	}
	if d := cmp.Diff([]string{"a", "0", "b"}, Split("a.0.b")); d != "" {
		t.Error(d)
	}
	parts := []string{"a", "", "b"}
	if got := Join(parts...); got != "a.b" {
		t.Errorf("got %q", got)
	}
	if parts[1] != "" {
		t.Errorf("join modified its argument")
	}
}

func TestIndex(t *testing.T) {
	for _, tc := range []struct {
		in string
		i  int
		ok bool
	}{
		{"0", 0, true},
		{"12", 12, true},
		{"-1", 0, false},
		{"1a", 0, false},
		{"", 0, false},
		{"1234567890", 0, false},
	} {
		i, ok := Index(tc.in)
		if i != tc.i || ok != tc.ok {
			t.Errorf("Index(%q) = %d, %t", tc.in, i, ok)
		}
	}
}

func TestPrefix(t *testing.T) {
	if !HasPrefix("a.b", "a") || !HasPrefix("a", "a") || HasPrefix("ab", "a") {
		t.Errorf("bad HasPrefix")
	}
	if got := Rel("a.b.c", "a"); got != "b.c" {
		t.Errorf("got %q", got)
	}
	if !HasWildcard("a.$.b") || HasWildcard("a.b") {
		t.Errorf("bad HasWildcard")
	}
}

func TestGet(t *testing.T) {
	doc := ir.MustJSON(`{"a":{"b":[{"c":1},{"c":2}]},"n":null}`)
	for _, tc := range []struct {
		path string
		want string
	}{
		{"a.b.1.c", "2"},
		{"a.b.0", `{"c":1}`},
		{"n", "null"},
		{"", `{"a":{"b":[{"c":1},{"c":2}]},"n":null}`},
	} {
		got := Get(doc, tc.path)
		if got == nil || got.JSON() != tc.want {
			t.Errorf("Get(%q) = %v, want %s", tc.path, got, tc.want)
		}
	}
	for _, p := range []string{"x", "a.b.c", "a.b.5", "n.x"} {
		if got := Get(doc, p); got != nil {
			t.Errorf("Get(%q) = %s, want absent", p, got.JSON())
		}
	}
}

func TestSet(t *testing.T) {
	doc := ir.MustJSON(`{"a":{"b":[1]},"s":"x","n":null}`)
	steps := []struct {
		path string
		val  string
	}{
		{"a.c", `true`},
		{"x.y.z", `1`},
		{"a.b.3", `4`},
		{"n.m", `"v"`},
	}
	for _, s := range steps {
		if err := Set(doc, s.path, ir.MustJSON(s.val)); err != nil {
			t.Fatalf("Set(%q): %v", s.path, err)
		}
	}
	want := ir.MustJSON(`{"a":{"b":[1,null,null,4],"c":true},"s":"x","n":{"m":"v"},"x":{"y":{"z":1}}}`)
	if !ir.Equal(want, doc) {
		t.Errorf("got %s", doc.JSON())
	}

	for _, p := range []string{"s.t", "a.b.x"} {
		err := Set(doc, p, ir.FromInt(1))
		if !mqerr.IsObjectMatch(err) {
			t.Errorf("Set(%q): expected object match error, got %v", p, err)
		}
	}
}

func TestDelete(t *testing.T) {
	doc := ir.MustJSON(`{"a":{"b":[1,2,3]},"c":1}`)
	if !Delete(doc, "a.b.1") {
		t.Fatal("expected delete")
	}
	if !Delete(doc, "c") {
		t.Fatal("expected delete")
	}
	if Delete(doc, "c") || Delete(doc, "a.x.y") {
		t.Errorf("deleted absent path")
	}
	if got := doc.JSON(); got != `{"a":{"b":[1,null,3]}}` {
		t.Errorf("got %s", got)
	}
}

func TestFlatten(t *testing.T) {
	doc := ir.MustJSON(`{"a":{"b":1,"c":[1,2],"d":{}},"e":"x"}`)
	var got []string
	for _, l := range Flatten(doc) {
		got = append(got, l.Path+"="+l.Value.JSON())
	}
	want := []string{"a.b=1", "a.c=[1,2]", "a.d={}", "e=\"x\""}
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}
}
