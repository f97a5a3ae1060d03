package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/signadot/mquery/ir"

	"github.com/fatih/color"
)

type colors struct {
	field, op, str, num, lit, sep func(string, ...any) string
}

func newColors() *colors {
	return &colors{
		field: color.RGB(128, 168, 196).SprintfFunc(),
		op:    color.RGB(196, 168, 128).SprintfFunc(),
		str:   color.RGB(8, 196, 16).SprintfFunc(),
		num:   color.RGB(128, 216, 236).SprintfFunc(),
		lit:   color.CyanString,
		sep:   color.RGB(255, 0, 196).SprintfFunc(),
	}
}

type encoder struct {
	yaml    bool
	compact bool
	colors  *colors
	n       int
}

// encode writes doc, preceded by a document separator if it is not the
// first.
func (e *encoder) encode(w io.Writer, doc *ir.Node) error {
	if e.n > 0 {
		if _, err := io.WriteString(w, "---\n"); err != nil {
			return err
		}
	}
	e.n++
	if e.yaml {
		d, err := ir.ToYAML(doc)
		if err != nil {
			return fmt.Errorf("error encoding yaml: %w", err)
		}
		_, err = w.Write(d)
		return err
	}
	bw := bufio.NewWriter(w)
	e.node(bw, doc, 0)
	bw.WriteByte('\n')
	return bw.Flush()
}

func (e *encoder) paint(f func(string, ...any) string, s string) string {
	if e.colors == nil {
		return s
	}
	return f("%s", s)
}

func (e *encoder) node(w *bufio.Writer, n *ir.Node, depth int) {
	switch n.Type {
	case ir.ObjectType:
		if len(n.Fields) == 0 {
			w.WriteString("{}")
			return
		}
		w.WriteByte('{')
		for i, f := range n.Fields {
			if i > 0 {
				w.WriteByte(',')
			}
			e.indent(w, depth+1)
			c := e.colors
			if c != nil {
				fc := c.field
				if strings.HasPrefix(f.String, "$") {
					fc = c.op
				}
				w.WriteString(fc("%s", quote(f.String)))
			} else {
				w.WriteString(quote(f.String))
			}
			w.WriteString(e.sepString())
			e.node(w, n.Values[i], depth+1)
		}
		e.indent(w, depth)
		w.WriteByte('}')
	case ir.ArrayType:
		if len(n.Values) == 0 {
			w.WriteString("[]")
			return
		}
		w.WriteByte('[')
		for i, v := range n.Values {
			if i > 0 {
				w.WriteByte(',')
			}
			e.indent(w, depth+1)
			e.node(w, v, depth+1)
		}
		e.indent(w, depth)
		w.WriteByte(']')
	default:
		s := n.JSON()
		if e.colors == nil {
			w.WriteString(s)
			return
		}
		switch n.Type {
		case ir.StringType:
			w.WriteString(e.paint(e.colors.str, s))
		case ir.NumberType:
			w.WriteString(e.paint(e.colors.num, s))
		default:
			w.WriteString(e.paint(e.colors.lit, s))
		}
	}
}

func (e *encoder) sepString() string {
	sep := ":"
	if !e.compact {
		sep = ": "
	}
	if e.colors == nil {
		return sep
	}
	return e.colors.sep("%s", sep)
}

func (e *encoder) indent(w *bufio.Writer, depth int) {
	if e.compact {
		return
	}
	w.WriteByte('\n')
	for range depth {
		w.WriteString("  ")
	}
}

func quote(s string) string {
	d, _ := json.Marshal(s)
	return string(d)
}
