package query

import (
	"testing"

	"github.com/signadot/mquery/ir"
)

func TestCondense(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{`{"$and":[{"foo":1}]}`, `{"foo":1}`},
		{`{"$or":[]}`, `{"$nor":[{}]}`},
		{`{"$and":[{},{"a":1}]}`, `{"a":1}`},
		{`{"$and":[{}]}`, `{}`},
		{`{"$and":[{"$and":[{"x":1}]}]}`, `{"x":1}`},
		{`{"$or":[{"a":1}]}`, `{"a":1}`},
		{`{"a":1,"$and":[{"a":2}]}`, `{"$and":[{"a":1},{"a":2}]}`},
		{`{"$and":[{"b":1}],"$or":[{"b":2}]}`, `{"$and":[{"b":1},{"b":2}]}`},
		{`{"$and":[{"x":1}],"$or":[{"$and":[{"y":1},{"z":1}]}]}`, `{"x":1,"$and":[{"y":1},{"z":1}]}`},
		{`{"a":1,"$or":[{"$or":[]},{"b":1}]}`, `{"a":1,"b":1}`},
		{`{"a":1,"$or":[{"$or":[]}]}`, `{"$nor":[{}]}`},
		{`{"a":1,"$or":[{},{"b":1}]}`, `{"a":1}`},
		{`{"$nor":[{"$or":[]}]}`, `{}`},
		{`{"$nor":[{"a":1},{}]}`, `{"$nor":[{}]}`},
		{`{"$and":[{"a":1},{"$or":[]}]}`, `{"$nor":[{}]}`},
		{`{"$or":[{"a":1},{"b":1}]}`, `{"$or":[{"a":1},{"b":1}]}`},
		{`{"a":{"$gt":1}}`, `{"a":{"$gt":1}}`},
		{`{"$nor":[{}]}`, `{"$nor":[{}]}`},
		{`{}`, `{}`},
	} {
		q := MustNew(tc.in)
		q.Condense()
		if !ir.Equal(q.Spec(), ir.MustJSON(tc.want)) {
			t.Errorf("%s: got %s want %s", tc.in, q, tc.want)
		}
	}
}

func TestCondensePreservesMatching(t *testing.T) {
	queries := []string{
		`{"a":1,"$and":[{"a":{"$gt":0}}]}`,
		`{"$or":[{"$and":[{"a":1}]},{"$or":[]}]}`,
		`{"$and":[{"$or":[{"a":1},{"b":1}]}],"$or":[{"c":1}]}`,
	}
	docs := []string{`{}`, `{"a":1}`, `{"b":1,"c":1}`, `{"a":1,"c":1}`, `{"a":2}`}
	for _, qs := range queries {
		q, c := MustNew(qs), MustNew(qs)
		c.Condense()
		for _, d := range docs {
			doc := ir.MustJSON(d)
			want, err := q.Matches(doc)
			if err != nil {
				t.Fatal(err)
			}
			got, err := c.Matches(doc)
			if err != nil {
				t.Fatal(err)
			}
			if got != want {
				t.Errorf("%s condensed to %s on %s: got %t want %t", qs, c, d, got, want)
			}
		}
	}
}
