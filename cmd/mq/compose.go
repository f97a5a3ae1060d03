package main

import (
	"fmt"

	"github.com/signadot/mquery/update"

	"github.com/scott-cotton/cli"
)

func compose(cfg *ComposeConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Compose.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: compose requires at least 2 updates", cli.ErrUsage)
	}
	var res *update.Update
	for _, arg := range args {
		spec, err := getish(cfg.MainConfig, cfg.String, !cfg.String, cc, arg)
		if err != nil {
			return err
		}
		u, err := update.New(spec, cfg.updateOpts()...)
		if err != nil {
			return fmt.Errorf("error building update %s: %w", arg, err)
		}
		if res == nil {
			res = u
			continue
		}
		if err := res.Compose(u); err != nil {
			return fmt.Errorf("error composing %s: %w", arg, err)
		}
	}
	return cfg.encOpts(cc.Out).encode(cc.Out, res.Spec())
}
