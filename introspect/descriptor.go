package introspect

import (
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
)

// TypeID is the stable index of a type within one Registry.
type TypeID int

// RootID is the universal root type every type is assignable to.
const RootID TypeID = 0

// Visibility orders access levels from most to least restrictive.
type Visibility int

const (
	Private Visibility = iota
	PackagePrivate
	Protected
	Public
)

var visibilityNames = [...]string{"private", "package", "protected", "public"}

func (visibility Visibility) String() string {
	if visibility < Private || visibility > Public {
		return "unknown"
	}
	return visibilityNames[visibility]
}

// Modifier is a set of member flags.
type Modifier uint8

const (
	Static Modifier = 1 << iota
	Abstract
	Deprecated
)

// Has reports whether every flag of other is set.
func (modifier Modifier) Has(other Modifier) bool {
	return modifier&other == other
}

func (modifier Modifier) String() string {
	var names []string
	if modifier.Has(Static) {
		names = append(names, "static")
	}
	if modifier.Has(Abstract) {
		names = append(names, "abstract")
	}
	if modifier.Has(Deprecated) {
		names = append(names, "deprecated")
	}
	return strings.Join(names, " ")
}

// TypeKind separates concrete types from interfaces.
type TypeKind int

const (
	// KindStruct is a concrete type that may have one ancestor.
	KindStruct TypeKind = iota
	// KindInterface is a capability set. Interfaces have no ancestor, only other
	// interfaces.
	KindInterface
	// KindBuiltin is a primitive or its boxed pointer form.
	KindBuiltin
	// KindOpaque is a type referenced by a member but never declared.
	KindOpaque
)

var typeKindNames = [...]string{"struct", "interface", "builtin", "opaque"}

func (kind TypeKind) String() string {
	if kind < KindStruct || kind > KindOpaque {
		return "unknown"
	}
	return typeKindNames[kind]
}

// MemberKind separates methods, fields and constructors.
type MemberKind int

const (
	Method MemberKind = iota
	Field
	Constructor
)

var memberKindNames = [...]string{"method", "field", "constructor"}

func (kind MemberKind) String() string {
	if kind < Method || kind > Constructor {
		return "unknown"
	}
	return memberKindNames[kind]
}

// Factory instantiates a type from constructor arguments, in parameter order.
type Factory func(args ...any) (any, error)

// TypeDescriptor describes one type of a Registry. There is exactly one descriptor
// per type, so descriptors can be compared by pointer.
type TypeDescriptor struct {
	registry *Registry

	id         TypeID
	kind       TypeKind
	simpleName string
	pkg        string
	readable   string
	qualified  string
	goType     reflect.Type
	static     bool

	ancestor   *TypeDescriptor
	interfaces []*TypeDescriptor
	enclosing  *TypeDescriptor
	boxed      *TypeDescriptor

	members      []*MemberDescriptor
	constructors []*MemberDescriptor
	metadata     map[Kind]any

	ancestorsOnce sync.Once
	ancestors     []*TypeDescriptor
	closureOnce   sync.Once
	closure       []*TypeDescriptor
	methodsOnce   sync.Once
	methods       []*MemberDescriptor
	fields        []*MemberDescriptor

	resolved    sync.Map
	resolvedAll sync.Map

	lastConstructor atomic.Pointer[MemberDescriptor]
}

// ID returns the registry index of the type.
func (descriptor *TypeDescriptor) ID() TypeID {
	return descriptor.id
}

// Kind returns whether the type is a struct, interface, builtin or opaque reference.
func (descriptor *TypeDescriptor) Kind() TypeKind {
	return descriptor.kind
}

// IsRoot reports whether this is the universal root type.
func (descriptor *TypeDescriptor) IsRoot() bool {
	return descriptor.id == RootID
}

// IsInterface reports whether the type is a capability set.
func (descriptor *TypeDescriptor) IsInterface() bool {
	return descriptor.kind == KindInterface
}

// SimpleName is the bare declared name, e.g. "Inner".
func (descriptor *TypeDescriptor) SimpleName() string {
	return descriptor.simpleName
}

// Package is the declaring package path. Empty for builtins.
func (descriptor *TypeDescriptor) Package() string {
	return descriptor.pkg
}

// ReadableName is the name with enclosing types, e.g. "Outer.Inner".
func (descriptor *TypeDescriptor) ReadableName() string {
	return descriptor.readable
}

// QualifiedName is the registry-unique name, e.g. "example.com/shapes.Outer.Inner".
func (descriptor *TypeDescriptor) QualifiedName() string {
	return descriptor.qualified
}

// GoType is the Go type the descriptor was derived from or linked to, if any.
func (descriptor *TypeDescriptor) GoType() reflect.Type {
	return descriptor.goType
}

// Enclosing returns the type this one is nested in.
func (descriptor *TypeDescriptor) Enclosing() (*TypeDescriptor, bool) {
	return descriptor.enclosing, descriptor.enclosing != nil
}

// IsInner reports whether constructors of this type take a leading enclosing
// instance.
func (descriptor *TypeDescriptor) IsInner() bool {
	return descriptor.enclosing != nil && !descriptor.static
}

// Ancestor returns the immediate ancestor, never the root.
func (descriptor *TypeDescriptor) Ancestor() (*TypeDescriptor, bool) {
	return descriptor.ancestor, descriptor.ancestor != nil
}

// Ancestors returns the ancestor chain, nearest first, excluding the root.
func (descriptor *TypeDescriptor) Ancestors() []*TypeDescriptor {
	descriptor.ancestorsOnce.Do(func() {
		chain := make([]*TypeDescriptor, 0)
		for current := descriptor.ancestor; current != nil; current = current.ancestor {
			chain = append(chain, current)
		}
		descriptor.ancestors = chain
	})
	return copyTypes(descriptor.ancestors)
}

// Interfaces returns the interfaces declared directly on the type, in declaration
// order.
func (descriptor *TypeDescriptor) Interfaces() []*TypeDescriptor {
	return copyTypes(descriptor.interfaces)
}

/*
InterfaceClosure returns every interface the type implements, nearest first: the
declared interfaces of the type, then those declared on each ancestor, then their
super-interfaces breadth first. Each interface appears once.
*/
func (descriptor *TypeDescriptor) InterfaceClosure() []*TypeDescriptor {
	descriptor.closureOnce.Do(func() {
		queue := append([]*TypeDescriptor(nil), descriptor.interfaces...)
		for current := descriptor.ancestor; current != nil; current = current.ancestor {
			queue = append(queue, current.interfaces...)
		}

		visited := map[TypeID]bool{descriptor.id: true}
		closure := make([]*TypeDescriptor, 0, len(queue))
		for len(queue) > 0 {
			next := queue[0]
			queue = queue[1:]
			if visited[next.id] {
				continue
			}
			visited[next.id] = true
			closure = append(closure, next)
			queue = append(queue, next.interfaces...)
		}
		descriptor.closure = closure
	})
	return copyTypes(descriptor.closure)
}

// IsAssignableFrom reports whether a value of other can be used where this type is
// expected: identity, ancestry, interface closure, the root, or primitive and boxed
// equivalence.
func (descriptor *TypeDescriptor) IsAssignableFrom(other *TypeDescriptor) bool {
	if descriptor.id == RootID {
		return true
	}
	if other == nil {
		return false
	}
	if descriptor == other {
		return true
	}
	if descriptor.boxed != nil && descriptor.boxed == other {
		return true
	}

	if !descriptor.IsInterface() {
		for current := other.ancestor; current != nil; current = current.ancestor {
			if current == descriptor {
				return true
			}
		}
		return false
	}

	// Ensure the closure is populated before reading it.
	other.InterfaceClosure()
	for _, implemented := range other.closure {
		if implemented == descriptor {
			return true
		}
	}
	return false
}

// Members returns every declared member, constructors included, ordered by name then
// by parameter type names. Methods, Fields and Constructors split them by kind.
func (descriptor *TypeDescriptor) Members() []*MemberDescriptor {
	members := make([]*MemberDescriptor, len(descriptor.members))
	copy(members, descriptor.members)
	return members
}

// Methods returns the declared methods in member order.
func (descriptor *TypeDescriptor) Methods() []*MemberDescriptor {
	descriptor.splitMembers()
	return copyMembers(descriptor.methods)
}

// Fields returns the declared fields in member order.
func (descriptor *TypeDescriptor) Fields() []*MemberDescriptor {
	descriptor.splitMembers()
	return copyMembers(descriptor.fields)
}

// Constructors returns the declared constructors in declaration order.
func (descriptor *TypeDescriptor) Constructors() []*MemberDescriptor {
	return copyMembers(descriptor.constructors)
}

// Method returns the declared method with the given signature, e.g. "Area()" or
// "Scale(float64)".
func (descriptor *TypeDescriptor) Method(signature string) (*MemberDescriptor, bool) {
	descriptor.splitMembers()
	for _, method := range descriptor.methods {
		if method.Signature() == signature {
			return method, true
		}
	}
	return nil, false
}

// Field returns the declared field with the given name.
func (descriptor *TypeDescriptor) Field(name string) (*MemberDescriptor, bool) {
	descriptor.splitMembers()
	for _, field := range descriptor.fields {
		if field.name == name {
			return field, true
		}
	}
	return nil, false
}

// Declared returns the metadata of kind declared directly on the type.
func (descriptor *TypeDescriptor) Declared(kind Kind) (any, bool) {
	value, ok := descriptor.metadata[kind]
	return value, ok
}

func (descriptor *TypeDescriptor) String() string {
	return descriptor.qualified
}

func (descriptor *TypeDescriptor) splitMembers() {
	descriptor.methodsOnce.Do(func() {
		for _, member := range descriptor.members {
			switch member.kind {
			case Method:
				descriptor.methods = append(descriptor.methods, member)
			case Field:
				descriptor.fields = append(descriptor.fields, member)
			}
		}
	})
}

// MemberDescriptor describes a method, field or constructor.
type MemberDescriptor struct {
	kind       MemberKind
	name       string
	owner      *TypeDescriptor
	params     []*TypeDescriptor
	fieldType  *TypeDescriptor
	visibility Visibility
	modifiers  Modifier
	factory    Factory
	metadata   map[Kind]any
	order      int
	synthetic  int
	signature  string

	resolved    sync.Map
	resolvedAll sync.Map
}

// Kind reports whether the member is a method, field or constructor.
func (member *MemberDescriptor) Kind() MemberKind {
	return member.kind
}

// Name of the member. Constructors are named after their type.
func (member *MemberDescriptor) Name() string {
	return member.name
}

// DeclaringType returns the type that declares the member.
func (member *MemberDescriptor) DeclaringType() *TypeDescriptor {
	return member.owner
}

// Params returns every parameter type, including a synthetic enclosing instance.
func (member *MemberDescriptor) Params() []*TypeDescriptor {
	return copyTypes(member.params)
}

// EffectiveParams returns the parameters a caller supplies, without the synthetic
// enclosing instance of an inner type constructor.
func (member *MemberDescriptor) EffectiveParams() []*TypeDescriptor {
	return copyTypes(member.params[member.synthetic:])
}

// FieldType returns the type of a field member.
func (member *MemberDescriptor) FieldType() (*TypeDescriptor, bool) {
	return member.fieldType, member.fieldType != nil
}

// Visibility of the member.
func (member *MemberDescriptor) Visibility() Visibility {
	return member.visibility
}

// Modifiers of the member.
func (member *MemberDescriptor) Modifiers() Modifier {
	return member.modifiers
}

// Order is the declaration index of the member within its type.
func (member *MemberDescriptor) Order() int {
	return member.order
}

// Signature is the name and parameter type names, e.g. "Scale(float64)". Fields
// have no parentheses.
func (member *MemberDescriptor) Signature() string {
	return member.signature
}

// Declared returns the metadata of kind declared directly on the member.
func (member *MemberDescriptor) Declared(kind Kind) (any, bool) {
	value, ok := member.metadata[kind]
	return value, ok
}

// New invokes the constructor's factory. args are the effective parameters, in
// order.
func (member *MemberDescriptor) New(args ...any) (any, error) {
	if member.kind != Constructor || member.factory == nil {
		return nil, newNoFactoryError(member)
	}
	return member.factory(args...)
}

func (member *MemberDescriptor) String() string {
	return member.owner.qualified + "." + member.signature
}

func buildSignature(kind MemberKind, name string, params []*TypeDescriptor) string {
	if kind == Field {
		return name
	}
	names := make([]string, len(params))
	for i, param := range params {
		names[i] = param.qualified
	}
	return name + "(" + strings.Join(names, ",") + ")"
}

func copyTypes(types []*TypeDescriptor) []*TypeDescriptor {
	copied := make([]*TypeDescriptor, len(types))
	copy(copied, types)
	return copied
}

func copyMembers(members []*MemberDescriptor) []*MemberDescriptor {
	copied := make([]*MemberDescriptor, len(members))
	copy(copied, members)
	return copied
}
