package introspect

import (
	"reflect"

	"golang.org/x/xerrors"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ReflectOption adds declarations reflection cannot discover.
type ReflectOption func(*reflectConfig)

type reflectConfig struct {
	metadata     []metadataDecl
	constructors []any
}

type metadataDecl struct {
	kind  Kind
	value any
}

// WithMetadata declares metadata directly on the reflected type.
func WithMetadata(kind Kind, value any) ReflectOption {
	return func(config *reflectConfig) {
		config.metadata = append(config.metadata, metadataDecl{kind: kind, value: value})
	}
}

// WithConstructor declares a public constructor from a func returning the type, or
// the type and an error. Parameters are taken from the func signature.
func WithConstructor(constructor any) ReflectOption {
	return func(config *reflectConfig) {
		config.constructors = append(config.constructors, constructor)
	}
}

/*
Reflect declares a Go type, unwrapping pointers down to the named type:

  - the first embedded struct becomes the ancestor, and is reflected too
  - embedded interfaces become declared interfaces, followed by every interface
    already reflected on this builder that the type implements
  - fields become Field members, exported ones public, the rest private; struct
    tags registered with WithTag become field metadata
  - the method set of the pointer type becomes Method members, minus methods
    promoted from embedded fields

Reflecting the same type twice returns the first declaration with the options of
the second applied.
*/
func (builder *Builder) Reflect(goType reflect.Type, opts ...ReflectOption) (*TypeBuilder, error) {
	if goType == nil {
		return nil, xerrors.Errorf("nil type: %w", ErrUnnamedType)
	}
	for goType.Kind() == reflect.Ptr {
		goType = goType.Elem()
	}
	if goType.Name() == "" {
		return nil, xerrors.Errorf("%v: %w", goType, ErrUnnamedType)
	}

	config := reflectConfig{}
	for _, opt := range opts {
		opt(&config)
	}

	typeBuilder, err := builder.reflectType(goType)
	if err != nil {
		return nil, err
	}

	for _, decl := range config.metadata {
		typeBuilder.Annotate(decl.kind, decl.value)
	}
	for _, constructor := range config.constructors {
		if err := typeBuilder.reflectConstructor(goType, constructor); err != nil {
			return nil, err
		}
	}

	return typeBuilder, nil
}

func (builder *Builder) reflectType(goType reflect.Type) (*TypeBuilder, error) {
	if decl, ok := builder.byGoType[goType]; ok {
		return &TypeBuilder{builder: builder, decl: decl}, nil
	}
	if builder.reflecting[goType] {
		return nil, xerrors.Errorf("%v embeds itself: %w", goType, ErrAncestorCycle)
	}
	builder.reflecting[goType] = true
	defer delete(builder.reflecting, goType)

	spec := TypeSpec{
		Name:      goType.Name(),
		Package:   goType.PkgPath(),
		Interface: goType.Kind() == reflect.Interface,
		GoType:    goType,
	}

	var embedded []reflect.Type
	if goType.Kind() == reflect.Struct {
		for i := 0; i < goType.NumField(); i++ {
			field := goType.Field(i)
			if !field.Anonymous {
				continue
			}

			fieldType := field.Type
			for fieldType.Kind() == reflect.Ptr {
				fieldType = fieldType.Elem()
			}
			if fieldType.Name() == "" {
				continue
			}

			switch {
			case fieldType.Kind() == reflect.Struct && spec.Ancestor == "":
				ancestor, err := builder.reflectType(fieldType)
				if err != nil {
					return nil, err
				}
				spec.Ancestor = ancestor.Name()
				embedded = append(embedded, field.Type)
			case fieldType.Kind() == reflect.Interface:
				implemented, err := builder.reflectType(fieldType)
				if err != nil {
					return nil, err
				}
				spec.Interfaces = append(spec.Interfaces, implemented.Name())
				embedded = append(embedded, field.Type)
			}
		}

		spec.Interfaces = append(spec.Interfaces, builder.implemented(goType, spec.Interfaces)...)
	}

	typeBuilder := builder.DeclareType(spec)

	if goType.Kind() == reflect.Struct {
		builder.reflectFields(typeBuilder, goType, embedded)
	}
	builder.reflectMethods(typeBuilder, goType, embedded)

	return typeBuilder, nil
}

// Interfaces already declared on the builder, in declaration order, that goType
// implements and that are not in listed.
func (builder *Builder) implemented(goType reflect.Type, listed []string) []string {
	seen := make(map[string]bool, len(listed))
	for _, name := range listed {
		seen[name] = true
	}

	pointer := reflect.PointerTo(goType)
	var names []string
	for _, decl := range builder.decls {
		declared := decl.spec.GoType
		if !decl.spec.Interface || declared == nil || declared.Kind() != reflect.Interface {
			continue
		}
		if seen[decl.qualified] || !pointer.Implements(declared) {
			continue
		}
		names = append(names, decl.qualified)
	}
	return names
}

func (builder *Builder) reflectFields(
	typeBuilder *TypeBuilder, goType reflect.Type, embedded []reflect.Type,
) {
	for i := 0; i < goType.NumField(); i++ {
		field := goType.Field(i)
		if field.Anonymous && containsType(embedded, field.Type) {
			continue
		}

		visibility := Private
		if field.IsExported() {
			visibility = Public
		}

		member := typeBuilder.Field(field.Name, goTypeName(field.Type), visibility, 0)
		member.decl.paramGoTypes = []reflect.Type{field.Type}

		for _, tag := range builder.tags {
			value, ok := field.Tag.Lookup(tag.key)
			if !ok {
				continue
			}
			for kind, decoded := range tag.decode(value) {
				member.Annotate(kind, decoded)
			}
		}
	}
}

func (builder *Builder) reflectMethods(
	typeBuilder *TypeBuilder, goType reflect.Type, embedded []reflect.Type,
) {
	methodSet := goType
	first := 0
	modifiers := Abstract
	if goType.Kind() != reflect.Interface {
		methodSet = reflect.PointerTo(goType)
		first = 1
		modifiers = 0
	}

	for i := 0; i < methodSet.NumMethod(); i++ {
		method := methodSet.Method(i)
		if promoted(method.Name, embedded) {
			continue
		}

		funcType := method.Type
		params := make([]string, 0, funcType.NumIn()-first)
		goTypes := make([]reflect.Type, 0, funcType.NumIn()-first)
		for in := first; in < funcType.NumIn(); in++ {
			params = append(params, goTypeName(funcType.In(in)))
			goTypes = append(goTypes, funcType.In(in))
		}

		member := typeBuilder.Method(method.Name, Public, modifiers, params...)
		member.decl.paramGoTypes = goTypes
	}
}

func (typeBuilder *TypeBuilder) reflectConstructor(goType reflect.Type, constructor any) error {
	if constructor == nil {
		return xerrors.Errorf("nil func: %w", ErrInvalidConstructor)
	}
	funcValue := reflect.ValueOf(constructor)
	funcType := funcValue.Type()

	if funcType.Kind() != reflect.Func || funcType.IsVariadic() {
		return xerrors.Errorf(
			"%T is not a plain func: %w", constructor, ErrInvalidConstructor,
		)
	}
	if funcType.NumOut() < 1 || funcType.NumOut() > 2 {
		return xerrors.Errorf(
			"%v must return one or two values: %w", funcType, ErrInvalidConstructor,
		)
	}
	if funcType.NumOut() == 2 && funcType.Out(1) != errorType {
		return xerrors.Errorf(
			"second result of %v is not error: %w", funcType, ErrInvalidConstructor,
		)
	}
	result := funcType.Out(0)
	for result.Kind() == reflect.Ptr {
		result = result.Elem()
	}
	if result != goType {
		return xerrors.Errorf(
			"%v does not return %v: %w", funcType, goType, ErrInvalidConstructor,
		)
	}

	params := make([]string, funcType.NumIn())
	goTypes := make([]reflect.Type, funcType.NumIn())
	for i := range params {
		params[i] = goTypeName(funcType.In(i))
		goTypes[i] = funcType.In(i)
	}

	member := typeBuilder.Constructor(Public, reflectFactory(funcValue), params...)
	member.decl.paramGoTypes = goTypes
	return nil
}

func reflectFactory(funcValue reflect.Value) Factory {
	funcType := funcValue.Type()

	return func(args ...any) (any, error) {
		if len(args) != funcType.NumIn() {
			return nil, xerrors.Errorf(
				"got %d arguments for %v: %w", len(args), funcType, ErrInvalidArgument,
			)
		}

		in := make([]reflect.Value, len(args))
		for i, arg := range args {
			value, err := convertArg(arg, funcType.In(i))
			if err != nil {
				return nil, err
			}
			in[i] = value
		}

		out := funcValue.Call(in)
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	}
}

// Converts arg to want, treating a value and a pointer to it as equivalent. A nil
// arg becomes the zero value.
func convertArg(arg any, want reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(want), nil
	}

	value := reflect.ValueOf(arg)
	switch {
	case value.Type().AssignableTo(want):
		return value, nil
	case value.Kind() == reflect.Ptr && value.Type().Elem().AssignableTo(want):
		if value.IsNil() {
			return reflect.Zero(want), nil
		}
		return value.Elem(), nil
	case want.Kind() == reflect.Ptr && value.Type().AssignableTo(want.Elem()):
		boxed := reflect.New(want.Elem())
		boxed.Elem().Set(value)
		return boxed, nil
	case isNumeric(value.Kind()) && isNumeric(want.Kind()):
		return value.Convert(want), nil
	}

	return reflect.Value{}, xerrors.Errorf(
		"%v is not assignable to %v: %w", value.Type(), want, ErrInvalidArgument,
	)
}

func isNumeric(kind reflect.Kind) bool {
	return kind >= reflect.Int && kind <= reflect.Float64
}

// Qualified name a Go type is referenced by: builtins by name, named types by
// package path and name, anything else by its Go spelling.
func goTypeName(goType reflect.Type) string {
	if goType.Kind() == reflect.Interface && goType.NumMethod() == 0 && goType.Name() == "" {
		return "any"
	}
	if goType.Kind() == reflect.Ptr && goType.Elem().PkgPath() == "" && goType.Elem().Name() != "" {
		return "*" + goType.Elem().Name()
	}
	if goType.Kind() == reflect.Ptr && goType.Elem().Name() != "" {
		goType = goType.Elem()
	}
	if goType.Name() != "" {
		return qualify(goType.PkgPath(), goType.Name())
	}
	return goType.String()
}

// Methods an embedded field provides are inherited, not declared.
func promoted(name string, embedded []reflect.Type) bool {
	for _, embeddedType := range embedded {
		if _, ok := embeddedType.MethodByName(name); ok {
			return true
		}
		if embeddedType.Kind() != reflect.Ptr && embeddedType.Kind() != reflect.Interface {
			if _, ok := reflect.PointerTo(embeddedType).MethodByName(name); ok {
				return true
			}
		}
	}
	return false
}

func containsType(types []reflect.Type, goType reflect.Type) bool {
	for _, candidate := range types {
		if candidate == goType {
			return true
		}
	}
	return false
}
