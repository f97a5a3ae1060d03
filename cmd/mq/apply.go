package main

import (
	"fmt"
	"strings"

	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/update"

	"github.com/scott-cotton/cli"
)

func apply(cfg *ApplyConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Apply.Parse(cc, args)
	if err != nil {
		cfg.Apply.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: apply requires at least 1 argument, an update", cli.ErrUsage)
	}
	spec, err := getish(cfg.MainConfig, cfg.String, cfg.File, cc, args[0])
	if err != nil {
		return err
	}
	opts := cfg.updateOpts()
	if cfg.Full {
		opts = append(opts, update.AllowFullReplace())
	}
	if globs := splitGlobs(cfg.Internal); len(globs) != 0 {
		opts = append(opts, update.InternalFields(globs...))
	}
	u, err := update.New(spec, opts...)
	if err != nil {
		return fmt.Errorf("error building update: %w", err)
	}
	enc := cfg.encOpts(cc.Out)
	return docsArgs(cfg.MainConfig, cc, args[1:], func(_ int, doc *ir.Node) error {
		modified := ir.Object()
		aOpts := []update.ApplyOpt{
			update.OnFieldModified(func(field string, v *ir.Node) {
				if v == nil {
					v = ir.Null()
				}
				modified.Set(field, v.Clone())
			}),
		}
		if globs := splitGlobs(cfg.Skip); len(globs) != 0 {
			aOpts = append(aOpts, update.SkipFieldGlobs(globs...))
		}
		if err := u.Apply(doc, aOpts...); err != nil {
			return err
		}
		if cfg.Modified {
			return enc.encode(cc.Out, modified)
		}
		return enc.encode(cc.Out, doc)
	})
}

func splitGlobs(s string) []string {
	var res []string
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			res = append(res, g)
		}
	}
	return res
}
