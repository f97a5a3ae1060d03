package main

import (
	"fmt"

	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/update"

	"github.com/scott-cotton/cli"
)

// diff exits 1 when the documents differ, like diff(1).
func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		cfg.Diff.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff requires 2 args, got %v", cli.ErrUsage, args)
	}
	policy, err := update.ParseArrayPolicy(cfg.Arrays)
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	a, err := getObjFile(cfg.MainConfig, cc, args[0])
	if err != nil {
		return fmt.Errorf("error decoding %s: %w", args[0], err)
	}
	b, err := getObjFile(cfg.MainConfig, cc, args[1])
	if err != nil {
		return fmt.Errorf("error decoding %s: %w", args[1], err)
	}
	var d *ir.Node
	if cfg.Merge {
		d, err = update.MergePatch(a, b)
	} else {
		var u *update.Update
		u, err = update.CreateFromDiff(a, b, update.ReplaceArrays(policy))
		if u != nil {
			d = u.Spec()
		}
	}
	if err != nil {
		return err
	}
	if d.Len() == 0 {
		return nil
	}
	if err := cfg.encOpts(cc.Out).encode(cc.Out, d); err != nil {
		return err
	}
	return cli.ExitCodeErr(1)
}
