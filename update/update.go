// Package update applies, diffs and composes Mongo style updates.
//
// An update is an object whose keys are update operators, each mapping
// dotted field paths to a parameter:
//
//	{"$set": {"name": "x"}, "$inc": {"stats.visits": 1}, "$unset": {"tmp": ""}}
//
// An update without operators is a replacement document. Unless full
// replacement is allowed it is applied as a $set of its flattened fields,
// so that a plain object never wipes the fields it does not mention.
package update

import (
	"fmt"
	"slices"

	"github.com/signadot/mquery/debug"
	"github.com/signadot/mquery/dpath"
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
	"github.com/signadot/mquery/schema"
)

type config struct {
	skipValidate     bool
	allowFullReplace bool
	internal         []string
	schema           *schema.Schema
	allowUnknown     bool
	factory          *Factory
}

type Option func(*config)

// SkipValidate skips normalization and validation at construction.
func SkipValidate() Option {
	return func(c *config) { c.skipValidate = true }
}

// AllowFullReplace makes an update without operators replace the whole
// document, except for internal fields.
func AllowFullReplace() Option {
	return func(c *config) { c.allowFullReplace = true }
}

// InternalFields gives doublestar patterns over dotted paths, such as
// "_id" or "meta.**", of fields a full replacement leaves alone.
func InternalFields(globs ...string) Option {
	return func(c *config) { c.internal = append(c.internal, globs...) }
}

// WithSchema normalizes parameters against s and checks updated fields are
// known to it.
func WithSchema(s *schema.Schema) Option {
	return func(c *config) { c.schema = s }
}

// AllowUnknownFields accepts fields the schema does not know.
func AllowUnknownFields() Option {
	return func(c *config) { c.allowUnknown = true }
}

func WithFactory(f *Factory) Option {
	return func(c *config) { c.factory = f }
}

// Update is a parsed update.
type Update struct {
	spec *ir.Node
	cfg  config
}

// New builds an update from spec, which is copied.
func New(spec *ir.Node, opts ...Option) (*Update, error) {
	u := &Update{}
	for _, o := range opts {
		o(&u.cfg)
	}
	if u.cfg.factory == nil {
		u.cfg.factory = DefaultFactory()
	}
	if spec == nil {
		spec = ir.Object()
	}
	if spec.Type != ir.ObjectType {
		return nil, mqerr.Update("Update must be an object", "", spec.JSON())
	}
	for _, g := range u.cfg.internal {
		if !validGlob(g) {
			return nil, mqerr.Update("Invalid internal field pattern", g, nil)
		}
	}
	ops := 0
	for _, f := range spec.Fields {
		if isOperator(f.String) {
			ops++
		}
	}
	if ops != 0 && ops != len(spec.Fields) {
		return nil, mqerr.Update("Cannot mix operators and non-operators", "", spec.JSON())
	}
	u.spec = spec.Clone()
	u.spec.Parent = nil
	if ops == 0 && !u.cfg.allowFullReplace {
		u.spec = wrapSet(u.spec)
	}
	if u.cfg.skipValidate {
		return u, nil
	}
	if err := u.Normalize(); err != nil {
		return nil, err
	}
	return u, nil
}

// MustNew is New for updates known to be valid.
func MustNew(spec string, opts ...Option) *Update {
	u, err := New(ir.MustJSON(spec), opts...)
	if err != nil {
		panic(err)
	}
	return u
}

func wrapSet(doc *ir.Node) *ir.Node {
	leaves := dpath.Flatten(doc)
	if len(leaves) == 0 {
		return ir.Object()
	}
	set := ir.Object()
	for _, l := range leaves {
		set.Set(l.Path, l.Value)
	}
	return ir.FromKeyVals([]ir.KeyVal{{Key: "$set", Val: set}})
}

// Spec returns the update tree. It must not be modified.
func (u *Update) Spec() *ir.Node {
	return u.spec
}

func (u *Update) String() string {
	return u.spec.JSON()
}

// IsReplacement reports whether u replaces whole documents.
func (u *Update) IsReplacement() bool {
	if !u.cfg.allowFullReplace {
		return false
	}
	return !slices.ContainsFunc(u.spec.Keys(), isOperator)
}

// Fields returns the sorted fields the update writes.
func (u *Update) Fields() ([]string, error) {
	var res []string
	if u.IsReplacement() {
		for _, l := range dpath.Flatten(u.spec) {
			res = append(res, l.Path)
		}
		slices.Sort(res)
		return res, nil
	}
	for i, f := range u.spec.Fields {
		op, err := u.cfg.factory.Update.Lookup(f.String)
		if err != nil {
			return nil, err
		}
		res = append(res, op.Fields(u.spec.Values[i])...)
	}
	slices.Sort(res)
	return slices.Compact(res), nil
}

// Normalize normalizes the update in place, then validates it.
func (u *Update) Normalize() error {
	if debug.Normalize() {
		debug.Logf("normalize update %v\n", u.spec)
	}
	if err := u.walk(false); err != nil {
		return fmt.Errorf("normalizing update: %w", err)
	}
	return nil
}

// Validate checks the update without changing it.
func (u *Update) Validate() error {
	return u.walk(true)
}

func (u *Update) walk(validateOnly bool) error {
	if u.IsReplacement() {
		return u.walkReplacement(validateOnly)
	}
	for i, f := range u.spec.Fields {
		name := f.String
		op, err := u.cfg.factory.Update.Lookup(name)
		if err != nil {
			return err
		}
		arg := u.spec.Values[i]
		if arg.Type != ir.ObjectType {
			return mqerr.Update("Argument must be an object", name, arg.JSON())
		}
		for j := 0; j < len(arg.Fields); j++ {
			field := arg.Fields[j].String
			if field == "" || isOperator(field) {
				return mqerr.Update("Invalid field name", name, field)
			}
			nc, err := u.context(field)
			if err != nil {
				return err
			}
			param := arg.Values[j]
			if !validateOnly {
				res, err := op.Normalize(param, nc)
				if err != nil {
					return err
				}
				if res != param {
					arg.Set(field, res)
					param = res
				}
			}
			if err := op.Validate(param, nc); err != nil {
				return err
			}
		}
	}
	return nil
}

func (u *Update) walkReplacement(validateOnly bool) error {
	if u.cfg.schema == nil {
		return nil
	}
	for _, l := range dpath.Flatten(u.spec) {
		if _, err := u.context(l.Path); err != nil {
			return err
		}
	}
	if validateOnly {
		return nil
	}
	nc := &NormalizeContext{Subschema: u.cfg.schema.Root}
	res, err := nc.Value(u.spec)
	if err != nil {
		return err
	}
	u.spec = res
	return nil
}

func (u *Update) context(field string) (*NormalizeContext, error) {
	nc := &NormalizeContext{
		Field:        field,
		schema:       u.cfg.schema,
		allowUnknown: u.cfg.allowUnknown,
	}
	sub, err := nc.Lookup(field)
	if err != nil {
		return nil, err
	}
	nc.Subschema = sub
	return nc, nil
}
