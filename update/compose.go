package update

import (
	"fmt"

	"github.com/signadot/mquery/debug"
	"github.com/signadot/mquery/dpath"
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
)

// Compose returns an update whose application equals applying a then b.
// Neither a nor b is modified.
func Compose(a, b *Update) (*Update, error) {
	res := &Update{spec: a.spec.Clone(), cfg: a.cfg}
	if err := res.Compose(b); err != nil {
		return nil, err
	}
	return res, nil
}

// Compose merges later into u, so that applying u equals applying u then
// later. Operators the two updates give the same field merge by the rules
// of the operator. Besides:
//
//   - a later $set or $unset discards earlier operators on the field and
//     its subfields, unless a $unset of a nested field would then lose
//     the parents those operators create;
//   - any later operator below, or other than $set and $unset at, a field
//     an earlier $set or $unset fixes is folded with every earlier
//     operator below the fixed field into one $set of it;
//   - a later $rename of the target of an earlier one keeps the earlier
//     source.
//
// Any other combination touching related fields, such as a $push and a
// $pop of one field, is a ComposeUpdateError. On error u is unchanged.
func (u *Update) Compose(later *Update) error {
	if u.IsReplacement() || later.IsReplacement() {
		return &mqerr.ComposeUpdateError{Reason: "full replacement updates cannot be composed"}
	}
	c := &composer{f: u.cfg.factory, spec: u.spec.Clone()}
	if err := c.compose(later.spec); err != nil {
		return err
	}
	if debug.Compose() {
		debug.Logf("compose %v with %v: %v\n", u.spec, later.spec, c.spec)
	}
	u.spec = c.spec
	return nil
}

type composer struct {
	f    *Factory
	spec *ir.Node
}

type entry struct {
	op, field string
}

func (c *composer) entries() []entry {
	var res []entry
	for i, f := range c.spec.Fields {
		for _, k := range c.spec.Values[i].Keys() {
			res = append(res, entry{op: f.String, field: k})
		}
	}
	return res
}

func (c *composer) get(op, field string) *ir.Node {
	return c.spec.Get(op).Get(field)
}

func (c *composer) put(op, field string, param *ir.Node) {
	arg := c.spec.Get(op)
	if arg == nil {
		arg = ir.Object()
		c.spec.Set(op, arg)
	}
	arg.Set(field, param)
}

func (c *composer) del(op, field string) {
	arg := c.spec.Get(op)
	if arg == nil {
		return
	}
	arg.Delete(field)
	if len(arg.Fields) == 0 {
		c.spec.Delete(op)
	}
}

// related reports whether a and b are the same field or one is below the
// other.
func related(a, b string) bool {
	return dpath.HasPrefix(a, b) || dpath.HasPrefix(b, a)
}

func fixes(op string) bool {
	return op == "$set" || op == "$unset"
}

func (c *composer) compose(later *ir.Node) error {
	for _, name := range c.f.Order() {
		arg := later.Get(name)
		if arg == nil {
			continue
		}
		if _, err := c.f.Update.Lookup(name); err != nil {
			return err
		}
		if name == "$rename" {
			if err := c.rename(arg); err != nil {
				return err
			}
			continue
		}
		for i, f := range arg.Fields {
			param := arg.Values[i].Clone()
			var err error
			if fixes(name) {
				err = c.fix(name, f.String, param)
			} else {
				err = c.merge(name, f.String, param)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// fix composes a later $set or $unset.
func (c *composer) fix(op, field string, param *ir.Node) error {
	for _, e := range c.entries() {
		if e.op == "$rename" || fixes(e.op) || e.field == field || !dpath.HasPrefix(field, e.field) {
			continue
		}
		return &mqerr.ComposeUpdateError{Reason: "parent field modified by " + e.op, Op: op, Path: field}
	}
	if root, ok := c.fixedAt(field, true); ok {
		return c.refold(root, op, field, param)
	}
	var dropped []entry
	for _, e := range c.entries() {
		if e.op != "$rename" && dpath.HasPrefix(e.field, field) {
			dropped = append(dropped, e)
		}
	}
	// An earlier operator below field also created the parents of field,
	// which a $unset alone does not.
	if op == "$unset" && len(dpath.Split(field)) > 1 {
		for _, e := range dropped {
			if e.op != "$unset" {
				return &mqerr.ComposeUpdateError{Reason: "earlier " + e.op + " creates parents of unset field", Op: op, Path: field}
			}
		}
	}
	for _, e := range dropped {
		c.del(e.op, e.field)
	}
	c.put(op, field, param)
	return nil
}

// fixedAt returns the outermost earlier $set or $unset of field or of a
// parent, only parents when strict.
func (c *composer) fixedAt(field string, strict bool) (entry, bool) {
	var res entry
	found := false
	for _, e := range c.entries() {
		if !fixes(e.op) || !dpath.HasPrefix(field, e.field) || (strict && e.field == field) {
			continue
		}
		if !found || len(e.field) < len(res.field) {
			res, found = e, true
		}
	}
	return res, found
}

// merge composes a later operator other than $set, $unset and $rename.
func (c *composer) merge(op, field string, param *ir.Node) error {
	if root, ok := c.fixedAt(field, false); ok {
		for _, e := range c.entries() {
			if e.op != "$rename" && e.field != root.field && dpath.HasPrefix(root.field, e.field) {
				return &mqerr.ComposeUpdateError{Reason: "parent field modified by " + e.op, Op: op, Path: field}
			}
		}
		return c.refold(root, op, field, param)
	}
	for _, e := range c.entries() {
		if e.op == "$rename" || !related(e.field, field) || (e.op == op && e.field == field) {
			continue
		}
		reason := "field modified by " + e.op
		if (op == "$push" && e.op == "$pop") || (op == "$pop" && e.op == "$push") {
			reason = "field both pushed and popped"
		}
		return &mqerr.ComposeUpdateError{Reason: reason, Op: op, Path: field}
	}
	earlier := c.get(op, field)
	if earlier == nil {
		c.put(op, field, param)
		return nil
	}
	o, err := c.f.Update.Lookup(op)
	if err != nil {
		return err
	}
	res, err := o.Compose(earlier, param, &ComposeContext{Field: field})
	if err != nil {
		return err
	}
	if res == nil {
		c.del(op, field)
		return nil
	}
	c.put(op, field, res)
	return nil
}

// refold recomputes the field an earlier $set or $unset fixes. Whatever
// the document held there is overwritten, so the earlier operators at or
// below root followed by the later one give its value from nothing. The
// result replaces those operators with one $set, or a $unset when the
// field ends up absent.
func (c *composer) refold(root entry, op, field string, param *ir.Node) error {
	var region []entry
	for _, e := range c.entries() {
		if e.op != "$rename" && dpath.HasPrefix(e.field, root.field) {
			region = append(region, e)
		}
	}
	scratch := ir.Object()
	for _, name := range c.f.Order() {
		arg := ir.Object()
		for _, e := range region {
			if e.op == name {
				arg.Set(e.field, c.get(e.op, e.field).Clone())
			}
		}
		if len(arg.Fields) == 0 {
			continue
		}
		if err := c.apply(scratch, name, arg); err != nil {
			return fmt.Errorf("%w: %w", &mqerr.ComposeUpdateError{Reason: "cannot fold into earlier " + root.op, Op: name, Path: root.field}, err)
		}
	}
	if err := c.apply(scratch, op, ir.FromKeyVals([]ir.KeyVal{{Key: field, Val: param}})); err != nil {
		return fmt.Errorf("%w: %w", &mqerr.ComposeUpdateError{Reason: "cannot fold into earlier " + root.op, Op: op, Path: field}, err)
	}
	unset := ir.FromBool(true)
	if root.op == "$unset" {
		unset = c.get("$unset", root.field)
	}
	for _, e := range region {
		c.del(e.op, e.field)
	}
	if v := dpath.Get(scratch, root.field); v != nil {
		c.put("$set", root.field, v.Clone())
	} else {
		c.put("$unset", root.field, unset)
	}
	return nil
}

func (c *composer) apply(doc *ir.Node, op string, arg *ir.Node) error {
	o, err := c.f.Update.Lookup(op)
	if err != nil {
		return err
	}
	return o.Apply(doc, arg, &ApplyContext{})
}

// rename composes a later $rename.
func (c *composer) rename(arg *ir.Node) error {
	var earlier []entry
	if ren := c.spec.Get("$rename"); ren != nil {
		for i, f := range ren.Fields {
			earlier = append(earlier, entry{op: f.String, field: ren.Values[i].String})
		}
	}
	for i, f := range arg.Fields {
		from, to := f.String, arg.Values[i].String
		chained := false
		for _, e := range earlier {
			// e.op is the source of the earlier rename, e.field its target.
			switch {
			case e.field == from && !related(e.op, to):
				c.del("$rename", e.op)
				c.put("$rename", e.op, ir.FromString(to))
				chained = true
			case related(e.op, from) || related(e.op, to) || related(e.field, from) || related(e.field, to):
				return &mqerr.ComposeUpdateError{Reason: "field renamed by earlier update", Op: "$rename", Path: from}
			}
		}
		var err error
		if chained {
			err = c.checkUnrelated(to)
		} else {
			err = c.renameFixed(from, to)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// checkUnrelated fails if an earlier operator other than $rename touches
// field: renames apply first.
func (c *composer) checkUnrelated(field string) error {
	for _, e := range c.entries() {
		if e.op != "$rename" && related(e.field, field) {
			return &mqerr.ComposeUpdateError{Reason: "field modified by " + e.op, Op: "$rename", Path: field}
		}
	}
	return nil
}

// renameFixed composes a later rename of from to to which does not chain
// with an earlier rename.
func (c *composer) renameFixed(from, to string) error {
	var rel []entry
	for _, e := range c.entries() {
		if e.op != "$rename" && related(e.field, from) {
			rel = append(rel, e)
		}
	}
	switch {
	case len(rel) == 0:
		if err := c.checkUnrelated(to); err != nil {
			return err
		}
		c.put("$rename", from, ir.FromString(to))
		return nil
	case len(rel) == 1 && rel[0] == (entry{op: "$unset", field: from}):
		// renaming an absent field does nothing
		return nil
	case len(rel) == 1 && rel[0] == (entry{op: "$set", field: from}):
		v := c.get("$set", from)
		c.del("$set", from)
		c.put("$unset", from, ir.FromBool(true))
		return c.fix("$set", to, v)
	}
	return &mqerr.ComposeUpdateError{Reason: "field modified by " + rel[0].op, Op: "$rename", Path: from}
}
