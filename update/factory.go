package update

import (
	"slices"
	"strings"
	"sync"

	"github.com/signadot/mquery/mqerr"
	"github.com/signadot/mquery/opreg"
)

// Factory holds the operator registry an Update dispatches through.
type Factory struct {
	Update *opreg.Registry[Operator]
}

// NewFactory returns a factory with the built in operators registered.
func NewFactory() *Factory {
	return &Factory{
		Update: opreg.New(mqerr.UpdateKind, "update",
			Rename(), Unset(), Set(), Inc(), Mul(), Min(), Max(),
			AddToSet(), Push(), Pop(),
		),
	}
}

var DefaultFactory = sync.OnceValue(NewFactory)

// applyOrder is the order in which the operators of one update apply.
var applyOrder = []string{
	"$rename", "$unset", "$set", "$inc", "$mul", "$min", "$max",
	"$addToSet", "$push", "$pop",
}

// Order returns the operator names in apply order: the built in operators
// first, then any others by name.
func (f *Factory) Order() []string {
	res := slices.Clone(applyOrder)
	for _, name := range f.Update.Names() {
		if !slices.Contains(applyOrder, name) {
			res = append(res, name)
		}
	}
	return res
}

func isOperator(key string) bool {
	return strings.HasPrefix(key, "$")
}
