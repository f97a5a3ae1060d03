package schema

import (
	"fmt"
	"slices"
	"sync"
)

var (
	mu    sync.RWMutex
	types = make(map[string]Type)
)

func init() {
	for _, t := range []Type{
		objectType{}, arrayType{}, mapType{}, stringType{}, numberType{},
		integerType{}, booleanType{}, dateType{}, mixedType{},
	} {
		if err := Register(t); err != nil {
			panic(err)
		}
	}
}

// Register registers a schema type.
func Register(t Type) error {
	if t == nil {
		return fmt.Errorf("cannot register nil schema type")
	}
	if t.Name() == "" {
		return fmt.Errorf("schema type must have a name")
	}

	mu.Lock()
	defer mu.Unlock()

	if _, exists := types[t.Name()]; exists {
		return fmt.Errorf("schema type %q already registered", t.Name())
	}
	types[t.Name()] = t
	return nil
}

// LookupType looks up a schema type by name.
func LookupType(name string) (Type, error) {
	mu.RLock()
	defer mu.RUnlock()
	t, ok := types[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema type %q", name)
	}
	return t, nil
}

// TypeNames returns the names of all registered schema types.
func TypeNames() []string {
	mu.RLock()
	defer mu.RUnlock()
	res := make([]string, 0, len(types))
	for k := range types {
		res = append(res, k)
	}
	slices.Sort(res)
	return res
}
