package query

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
)

var (
	textOp     = Flat(&textOperator{base{name: "$text"}})
	wildcardOp = Flat(&wildcardOperator{base{name: "$wildcard"}})
	regexOp    = Flat(&regexOperator{base{name: "$regex"}})
	optionsOp  = &optionsOperator{base{name: "$options"}}
)

// Text matches strings containing every whitespace separated term of its
// argument, ignoring case.
func Text() ExprOperator { return textOp }

// Wildcard matches whole strings against a pattern where '*' matches any
// run of characters and '?' any one character, ignoring case.
func Wildcard() ExprOperator { return wildcardOp }

// Regex matches strings against a regular expression, with the flags of a
// sibling $options.
func Regex() ExprOperator { return regexOp }

// Options holds the flags of $regex and matches everything.
func Options() ExprOperator { return optionsOp }

var reCache sync.Map

func compile(src string) (*regexp.Regexp, error) {
	if re, ok := reCache.Load(src); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, err
	}
	reCache.Store(src, re)
	return re, nil
}

// toString is the normalization of string operators.
func toString(arg *ir.Node) *ir.Node {
	switch arg.Type {
	case ir.NumberType:
		return ir.FromString(arg.NumberString())
	case ir.BoolType:
		return ir.FromString(fmt.Sprint(arg.Bool))
	}
	return arg
}

func validateString(name string, arg *ir.Node, nc *NormalizeContext) error {
	if arg.Type != ir.StringType {
		return nc.errorf(name, "Argument must be a string", arg)
	}
	return nil
}

type textOperator struct{ base }

func (o *textOperator) MatchesValue(value, arg, _ *ir.Node, _ *MatchContext) (bool, error) {
	if value == nil || value.Type != ir.StringType {
		return false, nil
	}
	s := strings.ToLower(value.String)
	for _, term := range strings.Fields(strings.ToLower(arg.String)) {
		if !strings.Contains(s, term) {
			return false, nil
		}
	}
	return true, nil
}

func (o *textOperator) Normalize(arg *ir.Node, _ *NormalizeContext) (*ir.Node, error) {
	return toString(arg), nil
}

func (o *textOperator) Validate(arg *ir.Node, nc *NormalizeContext) error {
	return validateString(o.name, arg, nc)
}

type wildcardOperator struct{ base }

// wildcardRegexp converts a wildcard pattern to an anchored case
// insensitive regular expression.
func wildcardRegexp(pattern string) string {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, c := range pattern {
		switch c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return b.String()
}

func (o *wildcardOperator) MatchesValue(value, arg, _ *ir.Node, _ *MatchContext) (bool, error) {
	if value == nil || value.Type != ir.StringType {
		return false, nil
	}
	re, err := compile(wildcardRegexp(arg.String))
	if err != nil {
		return false, mqerr.Query("Invalid wildcard", o.name, arg.String)
	}
	return re.MatchString(value.String), nil
}

func (o *wildcardOperator) Normalize(arg *ir.Node, _ *NormalizeContext) (*ir.Node, error) {
	return toString(arg), nil
}

func (o *wildcardOperator) Validate(arg *ir.Node, nc *NormalizeContext) error {
	return validateString(o.name, arg, nc)
}

type regexOperator struct{ base }

// regexSource returns the Go regular expression for pattern with the
// $options flags of expr.
func regexSource(pattern string, expr *ir.Node) string {
	opts := ""
	if o := expr.Get("$options"); o != nil && o.Type == ir.StringType {
		opts = o.String
	}
	flags := ""
	for _, c := range opts {
		switch c {
		case 'i', 'm', 's':
			flags += string(c)
		case 'x':
			pattern = stripExtended(pattern)
		}
	}
	if flags == "" {
		return pattern
	}
	return "(?" + flags + ")" + pattern
}

// stripExtended removes unescaped whitespace and '#' comments from an
// extended regular expression.
func stripExtended(p string) string {
	var b strings.Builder
	esc, comment := false, false
	for _, c := range p {
		switch {
		case comment:
			comment = c != '\n'
			continue
		case esc:
			esc = false
		case c == '\\':
			esc = true
		case c == '#':
			comment = true
			continue
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (o *regexOperator) MatchesValue(value, arg, expr *ir.Node, _ *MatchContext) (bool, error) {
	if value == nil || value.Type != ir.StringType {
		return false, nil
	}
	re, err := compile(regexSource(arg.String, expr))
	if err != nil {
		return false, mqerr.Query("Invalid regular expression", o.name, arg.String)
	}
	return re.MatchString(value.String), nil
}

// Normalize unwraps regular expression literals, /pattern/flags, into
// pattern text with inline flags.
func (o *regexOperator) Normalize(arg *ir.Node, _ *NormalizeContext) (*ir.Node, error) {
	arg = toString(arg)
	if arg.Type != ir.StringType {
		return arg, nil
	}
	s := arg.String
	if len(s) < 2 || s[0] != '/' {
		return arg, nil
	}
	end := strings.LastIndexByte(s, '/')
	if end == 0 {
		return arg, nil
	}
	flags := s[end+1:]
	if strings.Trim(flags, "ims") != "" {
		return arg, nil
	}
	pattern := s[1:end]
	if flags != "" {
		pattern = "(?" + flags + ")" + pattern
	}
	return ir.FromString(pattern), nil
}

func (o *regexOperator) Validate(arg *ir.Node, nc *NormalizeContext) error {
	if err := validateString(o.name, arg, nc); err != nil {
		return err
	}
	if _, err := regexp.Compile(regexSource(arg.String, nc.Expr)); err != nil {
		return &mqerr.ValidationError{Kind: mqerr.QueryKind, Reason: "Invalid regular expression", Path: o.name, Value: arg.String, Err: err}
	}
	return nil
}

type optionsOperator struct{ base }

func (o *optionsOperator) Matches(_, _, _ *ir.Node, _ *MatchContext) (bool, error) {
	return true, nil
}

func (o *optionsOperator) Validate(arg *ir.Node, nc *NormalizeContext) error {
	if err := validateString(o.name, arg, nc); err != nil {
		return err
	}
	if strings.Trim(arg.String, "imsx") != "" {
		return nc.errorf(o.name, "Options must be a subset of imsx", arg)
	}
	if nc.Expr != nil && nc.Expr.Get("$regex") == nil {
		return nc.errorf(o.name, "$options requires $regex", arg)
	}
	return nil
}
