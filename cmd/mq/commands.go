package main

import (
	"github.com/scott-cotton/cli"
	"github.com/signadot/mquery/ir"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts := append(sOpts, []*cli.Opt{
		&cli.Opt{
			Name:        "o",
			Description: "output file (default stdout)",
			Type:        cli.NamedFuncOpt(cfg.outOpt, "(filepath)"),
		},
		&cli.Opt{
			Name:        "schema",
			Description: "JSON schema to normalize queries and updates against",
			Type:        cli.NamedFuncOpt(cfg.schemaOpt, "(filepath)"),
		}}...)

	return cli.NewCommandAt(&cfg.Main, "mq").
		WithSynopsis("mq [opts] command [opts]").
		WithDescription("mq matches documents against queries and builds, applies and composes updates.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return mqMain(cfg, cc, args)
		}).
		WithSubs(
			MatchCommand(cfg),
			CondenseCommand(cfg),
			ExactCommand(cfg),
			FieldsCommand(cfg),
			ApplyCommand(cfg),
			DiffCommand(cfg),
			ComposeCommand(cfg),
			OpsCommand(cfg))
}

func MatchCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &MatchConfig{MainConfig: mainCfg, Vars: map[string]*ir.Node{}}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts = append(opts,
		&cli.Opt{
			Name:        "e",
			Description: "set query var",
			Type:        cli.NamedFuncOpt(cli.FuncOpt(varOptTypeFunc(cfg.Vars)), "(name=val)"),
		})
	return cli.NewCommandAt(&cfg.Command, "match").
		WithAliases("m").
		WithSynopsis("match [opts] <query> [files]").
		WithDescription("output the documents matching a query").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return match(cfg, cc, args)
		})
}

func varOptTypeFunc(vars map[string]*ir.Node) func(cc *cli.Context, a string) (any, error) {
	return func(cc *cli.Context, a string) (any, error) {
		if err := varFunc(vars, a); err != nil {
			return nil, err
		}
		return 0, nil
	}
}

func CondenseCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &QueryConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Command, "condense").
		WithAliases("c").
		WithSynopsis("condense [opts] <query>").
		WithDescription("simplify a query without changing what it matches").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return condense(cfg, cc, args)
		})
}

func ExactCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &QueryConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Command, "exact").
		WithAliases("x").
		WithSynopsis("exact [opts] <query>").
		WithDescription("show the field values every matching document has").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return exact(cfg, cc, args)
		})
}

func FieldsCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &QueryConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Command, "fields").
		WithAliases("f").
		WithSynopsis("fields [opts] <query>").
		WithDescription("list the fields and operators a query uses").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return fields(cfg, cc, args)
		})
}

func ApplyCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ApplyConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("apply").
		WithAliases("a", "ap").
		WithSynopsis("apply [opts] <update> [files]").
		WithDescription("apply an update to documents").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return apply(cfg, cc, args)
		})
	cfg.Apply = cmd
	return cmd
}

func DiffCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DiffConfig{MainConfig: mainCfg, Arrays: "none"}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("diff").
		WithAliases("d", "di").
		WithOpts(opts...).
		WithSynopsis("diff [opts] a b").
		WithDescription("create the update taking document a to document b").
		WithRun(func(cc *cli.Context, args []string) error {
			return diff(cfg, cc, args)
		})
	cfg.Diff = cmd
	return cmd
}

func ComposeCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ComposeConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Compose, "compose").
		WithSynopsis("compose [opts] <update> <update> [updates]").
		WithDescription("compose updates into one equivalent update").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return compose(cfg, cc, args)
		})
}

func OpsCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &OpsConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Ops, "ops").
		WithSynopsis("ops").
		WithDescription("list the available operators").
		WithRun(func(cc *cli.Context, args []string) error {
			return ops(cfg, cc, args)
		})
}
