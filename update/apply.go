package update

import (
	"fmt"

	"github.com/signadot/mquery/debug"
	"github.com/signadot/mquery/dpath"
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
)

type ApplyOpt func(*ApplyContext)

// SkipFields leaves the fields for which f returns true alone.
func SkipFields(f func(field string) bool) ApplyOpt {
	return func(ac *ApplyContext) {
		prev := ac.skip
		if prev == nil {
			ac.skip = f
			return
		}
		ac.skip = func(field string) bool { return prev(field) || f(field) }
	}
}

// SkipFieldGlobs leaves the fields matching any of the doublestar patterns
// over dotted paths alone.
func SkipFieldGlobs(globs ...string) ApplyOpt {
	return func(ac *ApplyContext) { ac.globs = append(ac.globs, globs...) }
}

// OnFieldModified calls f with each field written by Apply and its new
// value, nil when the field was removed.
func OnFieldModified(f func(field string, v *ir.Node)) ApplyOpt {
	return func(ac *ApplyContext) { ac.onModified = f }
}

// Apply applies the update to doc in place. The operators apply in the
// order $rename, $unset, $set, $inc, $mul, $min, $max, $addToSet, $push,
// $pop. On error doc may be partially updated.
func (u *Update) Apply(doc *ir.Node, opts ...ApplyOpt) error {
	if doc == nil || doc.Type != ir.ObjectType {
		return mqerr.ObjectMatch("Document must be an object", "", doc.JSON())
	}
	ac := &ApplyContext{}
	for _, o := range opts {
		o(ac)
	}
	if debug.Apply() {
		debug.Logf("apply %v to %v\n", u.spec, doc)
	}
	if u.IsReplacement() {
		u.replace(doc, u.spec, "", ac)
		return nil
	}
	for _, name := range u.cfg.factory.Order() {
		arg := u.spec.Get(name)
		if arg == nil {
			continue
		}
		op, err := u.cfg.factory.Update.Lookup(name)
		if err != nil {
			return err
		}
		if err := op.Apply(doc, arg, ac); err != nil {
			return fmt.Errorf("applying %s: %w", name, err)
		}
	}
	return nil
}

func (u *Update) internal(field string) bool {
	return matchGlobs(u.cfg.internal, field)
}

// replace makes dst equal to src in place, leaving internal and skipped
// fields alone.
func (u *Update) replace(dst, src *ir.Node, prefix string, ac *ApplyContext) {
	for _, k := range dst.Keys() {
		field := dpath.Join(prefix, k)
		if src.Has(k) || u.internal(field) || ac.Skip(field) {
			continue
		}
		dst.Delete(k)
		ac.Modified(field, nil)
	}
	for i, f := range src.Fields {
		field := dpath.Join(prefix, f.String)
		if u.internal(field) || ac.Skip(field) {
			continue
		}
		v, cur := src.Values[i], dst.Get(f.String)
		if cur != nil && cur.Type == ir.ObjectType && v.Type == ir.ObjectType {
			u.replace(cur, v, field, ac)
			continue
		}
		if cur != nil && ir.Equal(cur, v) {
			continue
		}
		nv := v.Clone()
		dst.Set(f.String, nv)
		ac.Modified(field, nv)
	}
}
