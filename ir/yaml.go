package ir

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

// FromYAML parses a YAML document. JSON is a subset of YAML so this also
// accepts JSON input.
func FromYAML(d []byte) (*Node, error) {
	var v any
	if err := yaml.Unmarshal(d, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return FromAny(v)
}

// ToYAML encodes the node as YAML.
func ToYAML(node *Node) ([]byte, error) {
	return yaml.Marshal(ToAny(node))
}
