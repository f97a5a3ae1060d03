package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/query"

	"github.com/scott-cotton/cli"
)

func getQuery(cfg *QueryConfig, cc *cli.Context, args []string, name string) (*query.Query, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: %s requires 1 argument, a query", cli.ErrUsage, name)
	}
	spec, err := getish(cfg.MainConfig, cfg.String, cfg.File, cc, args[0])
	if err != nil {
		return nil, err
	}
	q, err := query.New(spec, cfg.queryOpts()...)
	if err != nil {
		return nil, fmt.Errorf("error building query: %w", err)
	}
	return q, nil
}

func condense(cfg *QueryConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Command.Parse(cc, args)
	if err != nil {
		return err
	}
	q, err := getQuery(cfg, cc, args, "condense")
	if err != nil {
		return err
	}
	q.Condense()
	return cfg.encOpts(cc.Out).encode(cc.Out, q.Spec())
}

func exact(cfg *QueryConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Command.Parse(cc, args)
	if err != nil {
		return err
	}
	q, err := getQuery(cfg, cc, args, "exact")
	if err != nil {
		return err
	}
	res := q.ExactMatches()
	out := ir.FromKeyVals([]ir.KeyVal{
		{Key: "matches", Val: fromFields(res.Matches)},
		{Key: "onlyExact", Val: ir.FromBool(res.OnlyExact)},
		{Key: "noWildcard", Val: fromFields(res.NoWildcard)},
		{Key: "onlyExactNoWildcard", Val: ir.FromBool(res.OnlyExactNoWildcard)},
	})
	return cfg.encOpts(cc.Out).encode(cc.Out, out)
}

func fromFields(m map[string]*ir.Node) *ir.Node {
	res := ir.Object()
	for _, k := range slices.Sorted(maps.Keys(m)) {
		res.Set(k, m[k])
	}
	return res
}

func fields(cfg *QueryConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Command.Parse(cc, args)
	if err != nil {
		return err
	}
	q, err := getQuery(cfg, cc, args, "fields")
	if err != nil {
		return err
	}
	fs, err := q.QueriedFields()
	if err != nil {
		return err
	}
	ops, err := q.Operators()
	if err != nil {
		return err
	}
	out := ir.FromKeyVals([]ir.KeyVal{
		{Key: "fields", Val: fromStrings(fs)},
		{Key: "operators", Val: fromStrings(ops)},
	})
	return cfg.encOpts(cc.Out).encode(cc.Out, out)
}

func fromStrings(ss []string) *ir.Node {
	vals := make([]*ir.Node, len(ss))
	for i, s := range ss {
		vals[i] = ir.FromString(s)
	}
	return ir.FromSlice(vals)
}
