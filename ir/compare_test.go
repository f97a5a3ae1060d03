package ir

import (
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *Node
		expected int
	}{
		// Type Ranking: Null < Bool < Number < String < Array < Object
		{"Null < Bool", Null(), FromBool(false), -1},
		{"Bool < Number", FromBool(true), FromInt(1), -1},
		{"Number < String", FromInt(1), FromString("a"), -1},
		{"String < Array", FromString("a"), FromSlice(nil), -1},
		{"Array < Object", FromSlice(nil), Object(), -1},

		{"false < true", FromBool(false), FromBool(true), -1},
		{"true > false", FromBool(true), FromBool(false), 1},
		{"true == true", FromBool(true), FromBool(true), 0},

		// numbers compare by value
		{"Int == Float", FromInt(1), FromFloat(1.0), 0},
		{"Int < Float", FromInt(1), FromFloat(1.5), -1},
		{"Int < Int", FromInt(1), FromInt(2), -1},
		{"Float < Float", FromFloat(1.0), FromFloat(2.0), -1},

		{"String < String", FromString("a"), FromString("b"), -1},

		{"Empty Array == Empty Array", FromSlice(nil), FromSlice(nil), 0},
		{"Short Array < Long Array", FromSlice([]*Node{FromInt(1)}), FromSlice([]*Node{FromInt(1), FromInt(2)}), -1},
		{"Array Element Comparison", FromSlice([]*Node{FromInt(1)}), FromSlice([]*Node{FromInt(2)}), -1},

		{"Empty Object == Empty Object", Object(), Object(), 0},
		{"Key order is irrelevant", MustJSON(`{"a":1,"b":2}`), FromKeyVals([]KeyVal{{"b", FromInt(2)}, {"a", FromInt(1)}}), 0},
		{"Object Key Comparison", MustJSON(`{"a":1}`), MustJSON(`{"b":1}`), -1},
		{"Object Value Comparison", MustJSON(`{"a":1}`), MustJSON(`{"a":2}`), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.expected {
				t.Errorf("Compare() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b string
		eq   bool
	}{
		{`1`, `1.0`, true},
		{`"1"`, `1`, false},
		{`null`, `null`, true},
		{`{"a":[1,{"b":null}]}`, `{"a":[1,{"b":null}]}`, true},
		{`{"a":[1,{"b":null}]}`, `{"a":[1,{}]}`, false},
		{`[1,2]`, `[2,1]`, false},
		{`{"x":1,"y":2}`, `{"y":2,"x":1}`, true},
	}
	for _, tt := range tests {
		if got := Equal(MustJSON(tt.a), MustJSON(tt.b)); got != tt.eq {
			t.Errorf("Equal(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.eq)
		}
	}
	if Equal(nil, Null()) {
		t.Errorf("absent must not equal null")
	}
}
