package main

import (
	"fmt"

	"github.com/signadot/mquery/query"
	"github.com/signadot/mquery/update"

	"github.com/scott-cotton/cli"
)

func ops(cfg *OpsConfig, cc *cli.Context, args []string) error {
	if _, err := cfg.Ops.Parse(cc, args); err != nil {
		return err
	}
	qf := query.DefaultFactory()
	uf := update.DefaultFactory()
	for _, reg := range []struct {
		name  string
		names []string
	}{
		{"query operators", qf.Query.Names()},
		{"expression operators", qf.Expr.Names()},
		{"update operators (in apply order)", uf.Order()},
	} {
		fmt.Fprintf(cc.Out, "%s:\n", reg.name)
		for _, n := range reg.names {
			fmt.Fprintf(cc.Out, "\t- %s\n", n)
		}
	}
	return nil
}
