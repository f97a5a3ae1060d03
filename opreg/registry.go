// Package opreg holds named operator registries.
//
// Each operator family (query, expression, update) has its own Registry,
// filled once when its factory is built. Lookups are safe for concurrent
// use.
package opreg

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/signadot/mquery/mqerr"
)

var ErrOpExists = errors.New("operator exists")

// Operator is anything with a name starting with '$'.
type Operator interface {
	Name() string
}

type Registry[T Operator] struct {
	family string
	kind   mqerr.Kind

	mu sync.RWMutex
	d  map[string]T
}

// New returns a registry for family holding ops. It panics if two ops share
// a name.
func New[T Operator](kind mqerr.Kind, family string, ops ...T) *Registry[T] {
	r := &Registry[T]{family: family, kind: kind, d: make(map[string]T, len(ops))}
	for _, op := range ops {
		if err := r.Register(op); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry[T]) Family() string {
	return r.family
}

func (r *Registry[T]) Register(op T) error {
	key := op.Name()
	if !strings.HasPrefix(key, "$") || strings.Contains(key, ".") {
		return fmt.Errorf("%s operator %q must start with '$' and not contain '.'", r.family, key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, present := r.d[key]; present {
		return fmt.Errorf("%s: %w", key, ErrOpExists)
	}
	r.d[key] = op
	return nil
}

// Lookup returns the operator called name, or a validation error naming
// the family.
func (r *Registry[T]) Lookup(name string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.d[name]
	if !ok {
		return op, &mqerr.ValidationError{
			Kind:   r.kind,
			Reason: fmt.Sprintf("Unrecognized %s operator", r.family),
			Path:   name,
		}
	}
	return op, nil
}

func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.d[name]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]string, 0, len(r.d))
	for k := range r.d {
		res = append(res, k)
	}
	slices.Sort(res)
	return res
}
