package ecs

import (
	"fmt"
	"reflect"
	"sync"
)

// Capability types are Go interfaces that features may implement so that
// siblings and components can look them up without knowing the concrete type.
// They are registered once at startup; the set of capabilities satisfied by a
// concrete feature type is computed on first use and cached.
var capabilities = struct {
	sync.RWMutex
	types []reflect.Type
	gen   int
	cache map[reflect.Type]capabilitySet
}{
	cache: make(map[reflect.Type]capabilitySet),
}

type capabilitySet struct {
	gen   int
	types []reflect.Type
}

// RegisterCapability declares the interface T as a capability. It panics if T
// is not an interface type. Registering the same type twice is a no-op.
// The return value lets callers register from a package-level var.
func RegisterCapability[T any]() reflect.Type {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Interface {
		panic(fmt.Sprintf("ecs: capability %s is not an interface", t))
	}

	capabilities.Lock()
	defer capabilities.Unlock()
	for _, known := range capabilities.types {
		if known == t {
			return t
		}
	}
	capabilities.types = append(capabilities.types, t)
	capabilities.gen++
	return t
}

// keysOf returns the concrete type of v followed by every registered
// capability it implements.
func keysOf(v any) []reflect.Type {
	concrete := reflect.TypeOf(v)

	capabilities.RLock()
	set, ok := capabilities.cache[concrete]
	gen := capabilities.gen
	capabilities.RUnlock()
	if ok && set.gen == gen {
		return set.types
	}

	capabilities.Lock()
	defer capabilities.Unlock()
	keys := []reflect.Type{concrete}
	for _, c := range capabilities.types {
		if concrete.Implements(c) {
			keys = append(keys, c)
		}
	}
	capabilities.cache[concrete] = capabilitySet{gen: capabilities.gen, types: keys}
	return keys
}
