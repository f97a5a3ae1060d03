package main

import (
	"fmt"
	"slices"

	"github.com/signadot/mquery/dpath"
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/query"

	"github.com/scott-cotton/cli"
)

func match(cfg *MatchConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Command.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: match requires at least 1 argument, a query", cli.ErrUsage)
	}
	spec, err := getish(cfg.MainConfig, cfg.String, cfg.File, cc, args[0])
	if err != nil {
		return err
	}
	opts := cfg.MainConfig.queryOpts()
	if len(cfg.Vars) != 0 {
		opts = append(opts, query.Vars(cfg.Vars))
	}
	if cfg.Missing {
		opts = append(opts, query.IgnoreMissingVars())
	}
	q, err := query.New(spec, opts...)
	if err != nil {
		return fmt.Errorf("error building query: %w", err)
	}
	var keep []string
	if cfg.Trim {
		keep, err = trimPaths(q)
		if err != nil {
			return err
		}
	}
	enc := cfg.encOpts(cc.Out)
	return docsArgs(cfg.MainConfig, cc, args[1:], func(_ int, doc *ir.Node) error {
		ok, props, err := q.MatchesProps(doc)
		if err != nil {
			return fmt.Errorf("error matching: %w", err)
		}
		if !ok {
			return nil
		}
		if cfg.Props {
			p, err := ir.FromAny(map[string]any(props))
			if err != nil {
				return fmt.Errorf("error encoding match properties: %w", err)
			}
			return enc.encode(cc.Out, p)
		}
		if cfg.Trim {
			doc = trim(keep, doc)
		}
		return enc.encode(cc.Out, doc)
	})
}

// trimPaths returns the queried fields cut before any array wildcard.
func trimPaths(q *query.Query) ([]string, error) {
	fields, err := q.QueriedFields()
	if err != nil {
		return nil, err
	}
	var res []string
	for _, f := range fields {
		parts := dpath.Split(f)
		if i := slices.Index(parts, dpath.Wildcard); i != -1 {
			parts = parts[:i]
		}
		if len(parts) == 0 {
			continue
		}
		res = append(res, dpath.Join(parts...))
	}
	slices.Sort(res)
	return slices.Compact(res), nil
}

func trim(paths []string, doc *ir.Node) *ir.Node {
	res := ir.Object()
	for _, p := range paths {
		v := dpath.Get(doc, p)
		if v == nil {
			continue
		}
		// fails only below a scalar copied for a shorter path
		_ = dpath.Set(res, p, v.Clone())
	}
	return res
}
