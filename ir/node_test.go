package ir

import (
	"testing"
)

func TestObjectMutation(t *testing.T) {
	obj := MustJSON(`{"a":1,"b":2,"c":3}`)
	obj.Set("b", FromString("x"))
	obj.Set("d", FromBool(true))
	if !obj.Delete("a") {
		t.Fatalf("expected a to be deleted")
	}
	if obj.Delete("a") {
		t.Errorf("a deleted twice")
	}
	if got := obj.JSON(); got != `{"b":"x","c":3,"d":true}` {
		t.Errorf("got %s", got)
	}
	for i, v := range obj.Values {
		if v.ParentIndex != i || v.Parent != obj || v.ParentField != obj.Fields[i].String {
			t.Errorf("bad parent links at %d", i)
		}
	}
	if !obj.Rename("c", "b") {
		t.Fatalf("rename failed")
	}
	if got := obj.JSON(); got != `{"b":3,"d":true}` {
		t.Errorf("after rename got %s", got)
	}
}

func TestArrayMutation(t *testing.T) {
	arr := MustJSON(`[1,2]`)
	arr.SetIndex(4, FromInt(5))
	if got := arr.JSON(); got != `[1,2,null,null,5]` {
		t.Errorf("got %s", got)
	}
	arr.Truncate(1, 3)
	if got := arr.JSON(); got != `[2,null]` {
		t.Errorf("got %s", got)
	}
	if arr.Values[1].ParentIndex != 1 {
		t.Errorf("bad reindex")
	}
}

func TestPath(t *testing.T) {
	doc := MustJSON(`{"a":{"b":[{"c":1}]}}`)
	c := doc.Get("a").Get("b").Values[0].Get("c")
	if got := c.Path(); got != "a.b.0.c" {
		t.Errorf("got %q", got)
	}
}

func TestYAML(t *testing.T) {
	y, err := FromYAML([]byte("a: 1\nb:\n- x\n- 2.5\nc: null\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(y, MustJSON(`{"a":1,"b":["x",2.5],"c":null}`)) {
		t.Errorf("got %s", y.JSON())
	}
}

func TestClone(t *testing.T) {
	doc := MustJSON(`{"a":[1,{"b":2}]}`)
	cl := doc.Clone()
	cl.Get("a").Values[1].Set("b", FromInt(3))
	if doc.Get("a").Values[1].Get("b").JSON() != "2" {
		t.Errorf("clone shares structure")
	}
}
