package update

import (
	"fmt"
	"strconv"

	"github.com/signadot/mquery/debug"
	"github.com/signadot/mquery/dpath"
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/libdiff"
	"github.com/signadot/mquery/mqerr"
)

// ArrayPolicy tells CreateFromDiff when to $set a changed array as a whole
// instead of diffing it index by index.
type ArrayPolicy int

const (
	// ArraysNone always diffs arrays by index.
	ArraysNone ArrayPolicy = iota
	// ArraysAll always replaces changed arrays.
	ArraysAll
	// ArraysEqual replaces changed arrays whose length did not change.
	ArraysEqual
	// ArraysDifferent replaces arrays whose length changed.
	ArraysDifferent
	// ArraysSmaller replaces arrays which shrank.
	ArraysSmaller
	// ArraysLarger replaces arrays which grew.
	ArraysLarger
)

var arrayPolicyNames = []string{"none", "all", "equal", "different", "smaller", "larger"}

func (p ArrayPolicy) String() string {
	if p < 0 || int(p) >= len(arrayPolicyNames) {
		return "ArrayPolicy(" + strconv.Itoa(int(p)) + ")"
	}
	return arrayPolicyNames[p]
}

// ParseArrayPolicy parses the String form of a policy.
func ParseArrayPolicy(s string) (ArrayPolicy, error) {
	for i, name := range arrayPolicyNames {
		if name == s {
			return ArrayPolicy(i), nil
		}
	}
	return ArraysNone, fmt.Errorf("unknown array policy %q", s)
}

func (p ArrayPolicy) replaces(from, to int) bool {
	switch p {
	case ArraysAll:
		return true
	case ArraysEqual:
		return from == to
	case ArraysDifferent:
		return from != to
	case ArraysSmaller:
		return to < from
	case ArraysLarger:
		return to > from
	}
	return false
}

type diffConfig struct {
	arrays ArrayPolicy
}

type DiffOpt func(*diffConfig)

// ReplaceArrays sets the array policy, ArraysNone by default.
func ReplaceArrays(p ArrayPolicy) DiffOpt {
	return func(c *diffConfig) { c.arrays = p }
}

type differ struct {
	cfg   diffConfig
	set   *ir.Node
	unset *ir.Node
	push  *ir.Node
}

// CreateFromDiff returns an update turning the object from into the
// object to. Removed fields are unset, new and changed fields are set and
// nested objects are diffed recursively. Arrays are diffed by index unless
// the policy replaces them; an array which shrank is cut with
// {"$push": {field: {"$each": [], "$slice": n}}}.
func CreateFromDiff(from, to *ir.Node, opts ...DiffOpt) (*Update, error) {
	if from == nil || to == nil || from.Type != ir.ObjectType || to.Type != ir.ObjectType {
		return nil, mqerr.ObjectMatch("Cannot diff non-object documents", "", nil)
	}
	d := &differ{set: ir.Object(), unset: ir.Object(), push: ir.Object()}
	for _, o := range opts {
		o(&d.cfg)
	}
	d.object("", from, to)
	spec := ir.Object()
	for _, kv := range []ir.KeyVal{{Key: "$unset", Val: d.unset}, {Key: "$set", Val: d.set}, {Key: "$push", Val: d.push}} {
		if len(kv.Val.Fields) != 0 {
			spec.Set(kv.Key, kv.Val)
		}
	}
	if debug.Diff() {
		debug.Logf("diff %v -> %v: %v\n", from, to, spec)
	}
	return &Update{spec: spec, cfg: config{factory: DefaultFactory()}}, nil
}

func (d *differ) object(prefix string, from, to *ir.Node) {
	for _, e := range libdiff.AlignKeys(from, to) {
		field := dpath.Join(prefix, e.Key)
		switch e.Op {
		case libdiff.Delete:
			d.unset.Set(field, ir.FromBool(true))
		case libdiff.Insert:
			d.set.Set(field, e.To.Clone())
		case libdiff.Equal:
			d.value(field, e.From, e.To)
		}
	}
}

func (d *differ) value(field string, from, to *ir.Node) {
	switch {
	case ir.Equal(from, to):
	case from.Type == ir.ObjectType && to.Type == ir.ObjectType:
		d.object(field, from, to)
	case from.Type == ir.ArrayType && to.Type == ir.ArrayType:
		d.array(field, from, to)
	default:
		d.set.Set(field, to.Clone())
	}
}

func (d *differ) array(field string, from, to *ir.Node) {
	nf, nt := len(from.Values), len(to.Values)
	if d.cfg.arrays.replaces(nf, nt) {
		d.set.Set(field, to.Clone())
		return
	}
	for i := range min(nf, nt) {
		d.value(dpath.Join(field, strconv.Itoa(i)), from.Values[i], to.Values[i])
	}
	for i := nf; i < nt; i++ {
		d.set.Set(dpath.Join(field, strconv.Itoa(i)), to.Values[i].Clone())
	}
	if nt < nf {
		d.push.Set(field, ir.FromKeyVals([]ir.KeyVal{
			{Key: eachKey, Val: &ir.Node{Type: ir.ArrayType}},
			{Key: sliceKey, Val: ir.FromInt(int64(nt))},
		}))
	}
}
