package introspect

import (
	"reflect"
	"sort"
	"sync/atomic"
)

// Registry is a frozen table of type descriptors. It is safe for concurrent use.
type Registry struct {
	types    []*TypeDescriptor
	byName   map[string]*TypeDescriptor
	byGoType map[reflect.Type]*TypeDescriptor
	packages map[string]map[Kind]any

	resolver     *Resolver
	constructors *ConstructorResolver
}

func newRegistry() *Registry {
	registry := &Registry{
		byName:   make(map[string]*TypeDescriptor),
		byGoType: make(map[reflect.Type]*TypeDescriptor),
		packages: make(map[string]map[Kind]any),
	}
	registry.resolver = &Resolver{registry: registry}
	registry.constructors = &ConstructorResolver{registry: registry}
	return registry
}

// Resolver returns the metadata resolver of the registry.
func (registry *Registry) Resolver() *Resolver {
	return registry.resolver
}

// Constructors returns the constructor resolver of the registry.
func (registry *Registry) Constructors() *ConstructorResolver {
	return registry.constructors
}

// Root returns the universal root type.
func (registry *Registry) Root() *TypeDescriptor {
	return registry.types[RootID]
}

// Len returns the number of types, builtins and the root included.
func (registry *Registry) Len() int {
	return len(registry.types)
}

// Type returns the descriptor with the given id.
func (registry *Registry) Type(id TypeID) (*TypeDescriptor, bool) {
	if id < 0 || int(id) >= len(registry.types) {
		return nil, false
	}
	return registry.types[id], true
}

// TypeByName returns the descriptor with the given qualified name.
func (registry *Registry) TypeByName(qualified string) (*TypeDescriptor, bool) {
	descriptor, ok := registry.byName[qualified]
	return descriptor, ok
}

// TypeOf returns the descriptor linked to a Go type. Pointers to declared struct
// types resolve to the struct.
func (registry *Registry) TypeOf(goType reflect.Type) (*TypeDescriptor, bool) {
	if goType == nil {
		return nil, false
	}
	if descriptor, ok := registry.byGoType[goType]; ok {
		return descriptor, true
	}
	if goType.Kind() == reflect.Ptr {
		if descriptor, ok := registry.byGoType[goType.Elem()]; ok && descriptor.kind == KindStruct {
			return descriptor, true
		}
	}
	return nil, false
}

// TypeOfValue returns the descriptor of the dynamic type of value.
func (registry *Registry) TypeOfValue(value any) (*TypeDescriptor, bool) {
	return registry.TypeOf(reflect.TypeOf(value))
}

// Types returns every declared struct and interface type, sorted by qualified name.
func (registry *Registry) Types() []*TypeDescriptor {
	declared := make([]*TypeDescriptor, 0, len(registry.types))
	for _, descriptor := range registry.types {
		if descriptor.kind == KindStruct || descriptor.kind == KindInterface {
			declared = append(declared, descriptor)
		}
	}
	sort.Slice(declared, func(i, j int) bool {
		return declared[i].qualified < declared[j].qualified
	})
	return declared
}

// PackageMetadata returns the metadata of kind declared on a package.
func (registry *Registry) PackageMetadata(pkg string, kind Kind) (any, bool) {
	value, ok := registry.packages[pkg][kind]
	return value, ok
}

var defaultRegistry atomic.Pointer[Registry]

func init() {
	defaultRegistry.Store(NewBuilder().MustBuild())
}

// Default returns the process-wide registry. It starts out holding only the root
// and builtin types.
func Default() *Registry {
	return defaultRegistry.Load()
}

// SetDefault replaces the process-wide registry and returns the previous one. A nil
// registry is ignored.
func SetDefault(registry *Registry) *Registry {
	if registry == nil {
		return Default()
	}
	return defaultRegistry.Swap(registry)
}
