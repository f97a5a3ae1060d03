package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/signadot/mquery/ir"

	"github.com/scott-cotton/cli"
)

func (cfg *MainConfig) parse(d []byte) (*ir.Node, error) {
	if cfg.J {
		return ir.FromJSON(d)
	}
	return ir.FromYAML(d)
}

func getObjFile(cfg *MainConfig, cc *cli.Context, path string) (*ir.Node, error) {
	var r io.Reader
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	} else {
		r = cc.In
	}
	d, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading %q: %w", path, err)
	}
	return cfg.parse(d)
}

// getish reads a query or update argument: a literal with -s, a file with
// -f, and a literal otherwise.
func getish(cfg *MainConfig, s, f bool, cc *cli.Context, arg string) (*ir.Node, error) {
	if s && f {
		return nil, fmt.Errorf("%w: only one of -s, -f may be specified", cli.ErrUsage)
	}
	if f {
		res, err := getObjFile(cfg, cc, arg)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", arg, err)
		}
		return res, nil
	}
	res, err := cfg.parse([]byte(arg))
	if err != nil {
		return nil, fmt.Errorf("%w: error decoding %q: %w", cli.ErrUsage, arg, err)
	}
	return res, nil
}

// docsArgs calls f on each document of each file in args, or of the
// command input if there are none.
func docsArgs(cfg *MainConfig, cc *cli.Context, args []string, f func(i int, doc *ir.Node) error) error {
	if len(args) == 0 {
		args = []string{"-"}
	}
	for _, arg := range args {
		var r io.Reader
		if arg == "-" {
			r = cc.In
		} else {
			file, err := os.Open(arg)
			if err != nil {
				return fmt.Errorf("error opening %s: %w", arg, err)
			}
			defer file.Close()
			r = file
		}
		if err := docsReader(cfg, r, f); err != nil {
			return fmt.Errorf("error processing %s: %w", arg, err)
		}
	}
	return nil
}

func docsReader(cfg *MainConfig, r io.Reader, f func(i int, doc *ir.Node) error) error {
	in, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("error reading: %w", err)
	}
	in = bytes.TrimPrefix(in, []byte("---\n"))
	for i, d := range bytes.Split(in, []byte("\n---\n")) {
		if strings.TrimSpace(string(d)) == "" {
			continue
		}
		doc, err := cfg.parse(d)
		if err != nil {
			return fmt.Errorf("error decoding document %d: %w", i, err)
		}
		if err := f(i, doc); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
	}
	return nil
}
