package main

import (
	"fmt"
	"io"
	"os"

	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/query"
	"github.com/signadot/mquery/schema"
	"github.com/signadot/mquery/update"

	"github.com/scott-cotton/cli"

	"github.com/mattn/go-isatty"
)

type MainConfig struct {
	Color   bool `cli:"name=color desc='encode with color'"`
	Compact bool `cli:"name=wire desc='output in compact format'"`
	J       bool `cli:"name=j aliases=json desc='do i/o in json'"`
	Y       bool `cli:"name=y aliases=yaml desc='do i/o in yaml'"`
	Unknown bool `cli:"name=unknown desc='allow fields unknown to the schema'"`

	Schema *schema.Schema

	Out      string
	CloseOut func() error

	Main *cli.Command
}

func (cfg *MainConfig) schemaOpt(cc *cli.Context, a string) (any, error) {
	doc, err := getObjFile(cfg, cc, a)
	if err != nil {
		return nil, fmt.Errorf("error reading schema %s: %w", a, err)
	}
	s, err := schema.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	cfg.Schema = s
	return nil, nil
}

func (cfg *MainConfig) queryOpts() []query.Option {
	var res []query.Option
	if cfg.Schema != nil {
		res = append(res, query.WithSchema(cfg.Schema))
	}
	if cfg.Unknown {
		res = append(res, query.AllowUnknownFields())
	}
	return res
}

func (cfg *MainConfig) updateOpts() []update.Option {
	var res []update.Option
	if cfg.Schema != nil {
		res = append(res, update.WithSchema(cfg.Schema))
	}
	if cfg.Unknown {
		res = append(res, update.AllowUnknownFields())
	}
	return res
}

func (cfg *MainConfig) encOpts(w io.Writer) *encoder {
	enc := &encoder{yaml: cfg.Y, compact: cfg.Compact}
	if cfg.Color {
		enc.colors = newColors()
		return enc
	}
	colorsSet := false
	for _, opt := range cfg.Main.Opts {
		if opt.Name != "color" {
			continue
		}
		colorsSet = opt.Value != nil
		break
	}
	if colorsSet {
		return enc
	}
	f, ok := w.(*os.File)
	if !ok {
		return enc
	}
	if isatty.IsTerminal(f.Fd()) {
		enc.colors = newColors()
	}
	return enc
}

type QueryConfig struct {
	*cli.Command
	*MainConfig

	String bool   `cli:"name=s desc='consider query a string argument'"`
	File   bool   `cli:"name=f desc='consider query a file path'"`
	Prefix string `cli:"name=prefix desc='field prefix for schema lookups and reports'"`
}

func (cfg *QueryConfig) queryOpts() []query.Option {
	res := cfg.MainConfig.queryOpts()
	if cfg.Prefix != "" {
		res = append(res, query.FieldPrefix(cfg.Prefix))
	}
	return res
}

type MatchConfig struct {
	*cli.Command
	*MainConfig
	Vars map[string]*ir.Node

	Trim    bool `cli:"name=trim desc='trim the results to the queried fields'"`
	Props   bool `cli:"name=props desc='output match properties instead of documents'"`
	Missing bool `cli:"name=missing desc='leave vars with no value in place'"`
	String  bool `cli:"name=s desc='consider query a string argument'"`
	File    bool `cli:"name=f desc='consider query a file path'"`
}

type ApplyConfig struct {
	*MainConfig
	Full     bool   `cli:"name=full desc='allow full document replacement'"`
	Internal string `cli:"name=internal desc='comma separated globs of fields a replacement keeps'"`
	Skip     string `cli:"name=skip desc='comma separated globs of fields not to modify'"`
	Modified bool   `cli:"name=modified desc='output the modified fields instead of documents'"`
	String   bool   `cli:"name=s desc='update arg as string'"`
	File     bool   `cli:"name=f desc='update arg as file'"`

	Apply *cli.Command
}

type DiffConfig struct {
	*MainConfig
	Arrays string `cli:"name=arrays desc='when to replace arrays: none, all, equal, different, smaller, larger'"`
	Merge  bool   `cli:"name=merge desc='output a JSON merge patch'"`

	Diff *cli.Command
}

type ComposeConfig struct {
	*MainConfig
	String bool `cli:"name=s desc='updates are string arguments'"`

	Compose *cli.Command
}

type OpsConfig struct {
	*MainConfig
	Ops *cli.Command
}
