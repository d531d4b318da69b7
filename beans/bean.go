package beans

import (
	"reflect"

	"github.com/illuscio-dev/spanmarshal-go/introspect"
	"golang.org/x/xerrors"
)

var (
	// ErrNotBean is returned for a value whose type is not a struct in the registry.
	ErrNotBean = xerrors.New("beans: not a registered struct type")
	// ErrUnknownProperty is returned by Populate for a name the type does not expose.
	ErrUnknownProperty = xerrors.New("beans: unknown property")
	// ErrPropertyType is returned when a value cannot be stored in a property.
	ErrPropertyType = xerrors.New("beans: value does not fit property")
	// ErrNoConstructor is returned when a type has no constructor and no Go type to
	// allocate.
	ErrNoConstructor = xerrors.New("beans: type cannot be instantiated")
)

type property struct {
	name  string
	field *introspect.MemberDescriptor
}

// TypeName returns the bean name of a type: a string declared on the type itself, or
// the result of an inherited NameFunc, or the simple name.
func TypeName(registry *introspect.Registry, owner *introspect.TypeDescriptor) string {
	entry, ok := registry.Resolver().Resolve(owner, KindTypeName)
	if !ok {
		return owner.SimpleName()
	}
	if name, isString := entry.Value.(string); isString && entry.Location == introspect.OnThis {
		return name
	}
	if nameFunc, isFunc := asNameFunc(entry.Value); isFunc {
		return nameFunc(owner.SimpleName())
	}
	return owner.SimpleName()
}

// Lookup finds a type by qualified name, then by bean name or simple name among
// the declared types in qualified name order.
func Lookup(registry *introspect.Registry, name string) (*introspect.TypeDescriptor, bool) {
	if descriptor, ok := registry.TypeByName(name); ok {
		return descriptor, true
	}
	for _, descriptor := range registry.Types() {
		if TypeName(registry, descriptor) == name {
			return descriptor, true
		}
	}
	for _, descriptor := range registry.Types() {
		if descriptor.SimpleName() == name {
			return descriptor, true
		}
	}
	return nil, false
}

// PropertyNames returns the property names of a type in order.
func PropertyNames(registry *introspect.Registry, owner *introspect.TypeDescriptor) []string {
	collected := collect(registry, owner)
	names := make([]string, len(collected))
	for i, prop := range collected {
		names[i] = prop.name
	}
	return names
}

func propertyName(resolver *introspect.Resolver, field *introspect.MemberDescriptor) string {
	entry, ok := resolver.ResolveMember(field, KindPropertyName)
	if !ok {
		return field.Name()
	}
	name, isString := entry.Value.(string)
	if isString && (entry.Location == introspect.OnMember ||
		entry.Location == introspect.OnOverridden) {
		return name
	}
	if nameFunc, isFunc := asNameFunc(entry.Value); isFunc {
		return nameFunc(field.Name())
	}
	return field.Name()
}

func ignored(
	resolver *introspect.Resolver,
	owner *introspect.TypeDescriptor,
	field *introspect.MemberDescriptor,
	name string,
) bool {
	entry, ok := resolver.ResolveMember(field, KindIgnore)
	if ok && (entry.Location == introspect.OnMember ||
		entry.Location == introspect.OnOverridden) {
		if ignore, isBool := entry.Value.(bool); isBool {
			return ignore
		}
	}

	for _, entry := range resolver.ResolveAll(owner, KindIgnore, introspect.ChildFirst) {
		names, isList := entry.Value.([]string)
		if !isList {
			continue
		}
		for _, listed := range names {
			if listed == name || listed == field.Name() {
				return true
			}
		}
	}
	return false
}

/*
Public fields of owner and its ancestors, furthest ancestor first. A field redeclared
by a nearer type replaces the inherited one. Ignored fields are dropped, and when
KindProperties resolves, only the listed properties remain, in listed order.
*/
func collect(registry *introspect.Registry, owner *introspect.TypeDescriptor) []property {
	resolver := registry.Resolver()

	ancestors := owner.Ancestors()
	chain := make([]*introspect.TypeDescriptor, 0, len(ancestors)+1)
	for i := len(ancestors) - 1; i >= 0; i-- {
		chain = append(chain, ancestors[i])
	}
	chain = append(chain, owner)

	var fields []*introspect.MemberDescriptor
	for _, declaring := range chain {
		for _, field := range declaring.Fields() {
			if field.Visibility() != introspect.Public {
				continue
			}
			fields = removeField(fields, field.Name())
			fields = append(fields, field)
		}
	}

	collected := make([]property, 0, len(fields))
	for _, field := range fields {
		name := propertyName(resolver, field)
		if ignored(resolver, owner, field, name) {
			continue
		}
		collected = append(collected, property{name: name, field: field})
	}

	listed, ok := resolver.Value(owner, KindProperties)
	if !ok {
		return collected
	}
	names, isList := listed.([]string)
	if !isList {
		return collected
	}

	ordered := make([]property, 0, len(names))
	for _, name := range names {
		for _, prop := range collected {
			if prop.name == name || prop.field.Name() == name {
				ordered = append(ordered, prop)
				break
			}
		}
	}
	return ordered
}

func removeField(
	fields []*introspect.MemberDescriptor, name string,
) []*introspect.MemberDescriptor {
	for i, field := range fields {
		if field.Name() == name {
			return append(fields[:i], fields[i+1:]...)
		}
	}
	return fields
}

// Dereferences value down to a struct and finds its descriptor.
func structOf(
	registry *introspect.Registry, value any,
) (reflect.Value, *introspect.TypeDescriptor, error) {
	reflected := reflect.ValueOf(value)
	for reflected.Kind() == reflect.Ptr {
		if reflected.IsNil() {
			return reflect.Value{}, nil, xerrors.Errorf("nil %T: %w", value, ErrNotBean)
		}
		reflected = reflected.Elem()
	}
	if reflected.Kind() != reflect.Struct {
		return reflect.Value{}, nil, xerrors.Errorf("%T: %w", value, ErrNotBean)
	}

	descriptor, ok := registry.TypeOf(reflected.Type())
	if !ok || descriptor.Kind() != introspect.KindStruct {
		return reflect.Value{}, nil, xerrors.Errorf("%T: %w", value, ErrNotBean)
	}
	return reflected, descriptor, nil
}

// Reads a possibly promoted field. A nil embedded pointer on the way reads as
// invalid.
func fieldValue(structValue reflect.Value, name string) reflect.Value {
	structField, ok := structValue.Type().FieldByName(name)
	if !ok {
		return reflect.Value{}
	}
	found, err := structValue.FieldByIndexErr(structField.Index)
	if err != nil {
		return reflect.Value{}
	}
	return found
}

// ToMap reads the properties of a struct value, or pointer to one, whose type is
// registered in registry.
func ToMap(registry *introspect.Registry, value any) (*Properties, error) {
	structValue, descriptor, err := structOf(registry, value)
	if err != nil {
		return nil, err
	}

	properties := NewProperties(TypeName(registry, descriptor))
	for _, prop := range collect(registry, descriptor) {
		field := fieldValue(structValue, prop.field.Name())
		if !field.IsValid() {
			properties.Set(prop.name, nil)
			continue
		}
		properties.Set(prop.name, field.Interface())
	}
	return properties, nil
}

/*
Populate stores values into the properties of target, which must be a pointer to a
registered struct. Names are property names. Values are converted the way
constructor arguments are, and maps are populated into nested registered structs.
*/
func Populate(registry *introspect.Registry, target any, values map[string]any) error {
	if reflect.ValueOf(target).Kind() != reflect.Ptr {
		return xerrors.Errorf("%T is not a pointer: %w", target, ErrNotBean)
	}
	structValue, descriptor, err := structOf(registry, target)
	if err != nil {
		return err
	}

	byName := make(map[string]property)
	for _, prop := range collect(registry, descriptor) {
		byName[prop.name] = prop
	}

	for name, value := range values {
		prop, ok := byName[name]
		if !ok {
			return xerrors.Errorf("%q on %v: %w", name, descriptor, ErrUnknownProperty)
		}

		structField, _ := structValue.Type().FieldByName(prop.field.Name())
		field, err := structValue.FieldByIndexErr(structField.Index)
		if err != nil {
			return xerrors.Errorf("%q on %v: %w", name, descriptor, ErrPropertyType)
		}

		converted, err := convertValue(registry, value, field.Type())
		if err != nil {
			return xerrors.Errorf("property %q: %w", name, err)
		}
		field.Set(converted)
	}
	return nil
}

// Build instantiates owner with the constructor FindFuzzy picks for args. A struct
// type without constructors is allocated zeroed. The result is always a pointer.
func Build(
	registry *introspect.Registry, owner *introspect.TypeDescriptor, args ...any,
) (any, error) {
	constructors := registry.Constructors()

	constructor, ok := constructors.FindFuzzy(owner, introspect.Public, args...)
	if !ok {
		goType := owner.GoType()
		if goType == nil || goType.Kind() != reflect.Struct {
			return nil, xerrors.Errorf("%v: %w", owner, ErrNoConstructor)
		}
		return reflect.New(goType).Interface(), nil
	}

	built, err := constructor.New(constructors.Arrange(constructor, args...)...)
	if err != nil {
		return nil, xerrors.Errorf("%v: %w", constructor, err)
	}

	reflected := reflect.ValueOf(built)
	if reflected.Kind() == reflect.Ptr || !reflected.IsValid() {
		return built, nil
	}
	pointer := reflect.New(reflected.Type())
	pointer.Elem().Set(reflected)
	return pointer.Interface(), nil
}

// FromMap builds owner from args, then populates it with values.
func FromMap(
	registry *introspect.Registry,
	owner *introspect.TypeDescriptor,
	values map[string]any,
	args ...any,
) (any, error) {
	built, err := Build(registry, owner, args...)
	if err != nil {
		return nil, err
	}
	if err := Populate(registry, built, values); err != nil {
		return nil, err
	}
	return built, nil
}
