// Package libdiff aligns the keys of two objects for structural diffs.
package libdiff

import (
	"slices"

	"github.com/signadot/mquery/ir"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Op is the kind of an Edit.
type Op int

const (
	Equal Op = iota
	Delete
	Insert
)

func (o Op) String() string {
	switch o {
	case Equal:
		return "="
	case Delete:
		return "-"
	case Insert:
		return "+"
	}
	return "?"
}

// Edit is one step of a key alignment. From and To are the values of Key
// in the two objects; From is nil for an Insert and To is nil for a Delete.
type Edit struct {
	Op   Op
	Key  string
	From *ir.Node
	To   *ir.Node
}

// AlignKeys aligns the keys of the objects from and to, both taken in
// sorted order, and returns the edits turning the keys of from into those
// of to. Keys present in both objects are Equal edits, whether or not
// their values differ.
func AlignKeys(from, to *ir.Node) []Edit {
	fromKeys, toKeys := sortedKeys(from), sortedKeys(to)
	keyMap := map[string]rune{}
	runeMap := map[rune]string{}
	fromRunes := mapKeysTo(keyMap, runeMap, fromKeys)
	toRunes := mapKeysTo(keyMap, runeMap, toKeys)
	diffCfg := diffpatch.New()
	diffs := diffCfg.DiffMainRunes(fromRunes, toRunes, false)
	res := make([]Edit, 0, max(len(fromKeys), len(toKeys)))
	for i := range diffs {
		diff := &diffs[i]
		for _, r := range diff.Text {
			key := runeMap[r]
			switch diff.Type {
			case diffpatch.DiffDelete:
				res = append(res, Edit{Op: Delete, Key: key, From: from.Get(key)})
			case diffpatch.DiffEqual:
				res = append(res, Edit{Op: Equal, Key: key, From: from.Get(key), To: to.Get(key)})
			case diffpatch.DiffInsert:
				res = append(res, Edit{Op: Insert, Key: key, To: to.Get(key)})
			}
		}
	}
	return res
}

func sortedKeys(n *ir.Node) []string {
	if n == nil || n.Type != ir.ObjectType {
		return nil
	}
	keys := n.Keys()
	slices.Sort(keys)
	return keys
}

// keys are mapped to runes from the private use area so that the
// diff never sees surrogates.
const runeBase = 0xE000

func mapKeysTo(m map[string]rune, im map[rune]string, keys []string) []rune {
	rs := make([]rune, len(keys))
	for i, k := range keys {
		r, ok := m[k]
		if !ok {
			r = rune(runeBase + len(m))
			m[k] = r
			im[r] = k
		}
		rs[i] = r
	}
	return rs
}
