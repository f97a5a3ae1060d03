package debug

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/signadot/mquery/ir"
)

var out io.Writer = os.Stderr

// Logf writes a debug message to stderr. *ir.Node and plain JSON-like
// arguments are rendered as JSON.
func Logf(msg string, args ...any) {
	for i := range args {
		a := args[i]
		switch x := a.(type) {
		case map[string]any, []any, json.Number:
			d, err := json.MarshalIndent(a, "   |", "  ")
			if err != nil {
				args[i] = fmt.Sprintf("%v", a)
				continue
			}
			args[i] = string(d)
		case *ir.Node:
			if x == nil {
				args[i] = "<absent>"
				continue
			}
			args[i] = x.JSON()
		case bool, string, float64, int:

		default:
		}
	}
	fmt.Fprintf(out, msg, args...)
}
