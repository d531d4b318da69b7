package introspect

import (
	"reflect"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

// TypeSpec declares one type. Type references are qualified names.
type TypeSpec struct {
	Name      string
	Package   string
	Interface bool

	// Ancestor is the qualified name of the immediate ancestor, if any.
	Ancestor string
	// Interfaces are the qualified names of the directly implemented interfaces.
	Interfaces []string

	// Enclosing is the qualified name of the type this one is nested in. It must be
	// declared first.
	Enclosing string
	// Static nested types take no enclosing instance in their constructors.
	Static bool

	// GoType links the descriptor to a Go type for TypeOf lookups.
	GoType reflect.Type
}

type typeDecl struct {
	spec      TypeSpec
	readable  string
	qualified string
	metadata  map[Kind]any
	members   []*memberDecl
}

type memberDecl struct {
	kind         MemberKind
	name         string
	params       []string
	paramGoTypes []reflect.Type
	visibility   Visibility
	modifiers    Modifier
	factory      Factory
	metadata     map[Kind]any
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used while building.
func WithLogger(logger *zap.Logger) Option {
	return func(builder *Builder) {
		if logger != nil {
			builder.logger = logger
		}
	}
}

// TagDecoder turns a struct tag value into field metadata.
type TagDecoder func(tag string) map[Kind]any

// WithTag makes Reflect decode the struct tag key of every field into metadata.
func WithTag(key string, decode TagDecoder) Option {
	return func(builder *Builder) {
		builder.tags = append(builder.tags, tagDecl{key: key, decode: decode})
	}
}

type tagDecl struct {
	key    string
	decode TagDecoder
}

/*
Builder collects type, member and package declarations and freezes them into a
Registry. Declaration errors are collected and the first one is returned by Build.
A Builder is not safe for concurrent use.
*/
type Builder struct {
	logger *zap.Logger
	tags   []tagDecl

	decls      []*typeDecl
	byName     map[string]*typeDecl
	byGoType   map[reflect.Type]*typeDecl
	reflecting map[reflect.Type]bool
	packages   map[string]map[Kind]any
	errs       []error
}

// NewBuilder returns an empty builder.
func NewBuilder(opts ...Option) *Builder {
	builder := &Builder{
		logger:     zap.NewNop(),
		byName:     make(map[string]*typeDecl),
		byGoType:   make(map[reflect.Type]*typeDecl),
		reflecting: make(map[reflect.Type]bool),
		packages:   make(map[string]map[Kind]any),
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder
}

func (builder *Builder) fail(err error) {
	builder.errs = append(builder.errs, err)
}

// DeclareType adds a type. A type with a name already declared is reported by
// Build.
func (builder *Builder) DeclareType(spec TypeSpec) *TypeBuilder {
	decl := &typeDecl{spec: spec, readable: spec.Name, metadata: make(map[Kind]any)}

	if spec.Enclosing != "" {
		enclosing, ok := builder.byName[spec.Enclosing]
		if !ok {
			builder.fail(xerrors.Errorf(
				"enclosing type %q of %q: %w", spec.Enclosing, spec.Name, ErrUnknownType,
			))
		} else {
			decl.readable = enclosing.readable + "." + spec.Name
			if decl.spec.Package == "" {
				decl.spec.Package = enclosing.spec.Package
			}
		}
	}
	decl.qualified = qualify(decl.spec.Package, decl.readable)

	if _, exists := builder.byName[decl.qualified]; exists {
		builder.fail(xerrors.Errorf("%q: %w", decl.qualified, ErrDuplicateType))
	} else {
		builder.byName[decl.qualified] = decl
	}
	if spec.GoType != nil {
		builder.byGoType[spec.GoType] = decl
	}
	builder.decls = append(builder.decls, decl)

	return &TypeBuilder{builder: builder, decl: decl}
}

// AnnotatePackage declares metadata on a package.
func (builder *Builder) AnnotatePackage(pkg string, kind Kind, value any) *Builder {
	metadata, ok := builder.packages[pkg]
	if !ok {
		metadata = make(map[Kind]any)
		builder.packages[pkg] = metadata
	}
	builder.annotate(metadata, kind, value, "package "+pkg)
	return builder
}

func (builder *Builder) annotate(metadata map[Kind]any, kind Kind, value any, owner string) {
	if _, exists := metadata[kind]; exists {
		builder.fail(xerrors.Errorf("%q on %s: %w", kind, owner, ErrDuplicateMetadata))
		return
	}
	metadata[kind] = value
}

// TypeBuilder adds members and metadata to a declared type.
type TypeBuilder struct {
	builder *Builder
	decl    *typeDecl
}

// Name returns the qualified name of the type.
func (typeBuilder *TypeBuilder) Name() string {
	return typeBuilder.decl.qualified
}

// Annotate declares metadata directly on the type.
func (typeBuilder *TypeBuilder) Annotate(kind Kind, value any) *TypeBuilder {
	typeBuilder.builder.annotate(typeBuilder.decl.metadata, kind, value, typeBuilder.decl.qualified)
	return typeBuilder
}

// Method declares a method. params are qualified type names.
func (typeBuilder *TypeBuilder) Method(
	name string, visibility Visibility, modifiers Modifier, params ...string,
) *MemberBuilder {
	return typeBuilder.addMember(&memberDecl{
		kind: Method, name: name, params: params, visibility: visibility, modifiers: modifiers,
	})
}

// Field declares a field of type fieldType.
func (typeBuilder *TypeBuilder) Field(
	name string, fieldType string, visibility Visibility, modifiers Modifier,
) *MemberBuilder {
	return typeBuilder.addMember(&memberDecl{
		kind:       Field,
		name:       name,
		params:     []string{fieldType},
		visibility: visibility,
		modifiers:  modifiers,
	})
}

// Constructor declares a constructor taking params, built by factory. The
// enclosing instance of an inner type is added automatically.
func (typeBuilder *TypeBuilder) Constructor(
	visibility Visibility, factory Factory, params ...string,
) *MemberBuilder {
	return typeBuilder.addMember(&memberDecl{
		kind:       Constructor,
		name:       typeBuilder.decl.spec.Name,
		params:     params,
		visibility: visibility,
		factory:    factory,
	})
}

func (typeBuilder *TypeBuilder) addMember(decl *memberDecl) *MemberBuilder {
	decl.metadata = make(map[Kind]any)
	typeBuilder.decl.members = append(typeBuilder.decl.members, decl)
	return &MemberBuilder{typeBuilder: typeBuilder, decl: decl}
}

// MemberBuilder adds metadata to a declared member.
type MemberBuilder struct {
	typeBuilder *TypeBuilder
	decl        *memberDecl
}

// Annotate declares metadata directly on the member.
func (memberBuilder *MemberBuilder) Annotate(kind Kind, value any) *MemberBuilder {
	memberBuilder.typeBuilder.builder.annotate(
		memberBuilder.decl.metadata,
		kind,
		value,
		memberBuilder.typeBuilder.decl.qualified+"."+memberBuilder.decl.name,
	)
	return memberBuilder
}

// Type returns the builder of the declaring type, for chaining.
func (memberBuilder *MemberBuilder) Type() *TypeBuilder {
	return memberBuilder.typeBuilder
}

// MustBuild is Build that panics on error.
func (builder *Builder) MustBuild() *Registry {
	registry, err := builder.Build()
	if err != nil {
		panic(err)
	}
	return registry
}

// Build freezes the declarations into a Registry. The builder may keep being used
// to build further registries.
func (builder *Builder) Build() (*Registry, error) {
	if len(builder.errs) > 0 {
		return nil, builder.errs[0]
	}

	registry := newRegistry()
	addBuiltins(registry)

	descriptors := make([]*TypeDescriptor, len(builder.decls))
	for i, decl := range builder.decls {
		if _, exists := registry.byName[decl.qualified]; exists {
			return nil, xerrors.Errorf("%q: %w", decl.qualified, ErrDuplicateType)
		}

		kind := KindStruct
		if decl.spec.Interface {
			kind = KindInterface
		}
		descriptor := &TypeDescriptor{
			kind:       kind,
			simpleName: decl.spec.Name,
			pkg:        decl.spec.Package,
			readable:   decl.readable,
			qualified:  decl.qualified,
			goType:     decl.spec.GoType,
			static:     decl.spec.Static,
			metadata:   copyMetadata(decl.metadata),
		}
		registry.add(descriptor)
		descriptors[i] = descriptor
	}

	for i, decl := range builder.decls {
		if err := linkHierarchy(registry, descriptors[i], decl.spec); err != nil {
			return nil, err
		}
	}
	for _, descriptor := range descriptors {
		if err := checkAncestorCycle(descriptor, len(registry.types)); err != nil {
			return nil, err
		}
	}

	for i, decl := range builder.decls {
		if err := linkMembers(registry, descriptors[i], decl); err != nil {
			return nil, err
		}
	}

	for pkg, metadata := range builder.packages {
		registry.packages[pkg] = copyMetadata(metadata)
	}

	builder.logger.Debug(
		"introspection registry built",
		zap.Int("types", len(registry.types)),
		zap.Int("declared", len(descriptors)),
		zap.Int("packages", len(registry.packages)),
	)

	return registry, nil
}

func (registry *Registry) add(descriptor *TypeDescriptor) {
	descriptor.registry = registry
	descriptor.id = TypeID(len(registry.types))
	registry.types = append(registry.types, descriptor)
	registry.byName[descriptor.qualified] = descriptor
	if descriptor.goType != nil {
		if _, exists := registry.byGoType[descriptor.goType]; !exists {
			registry.byGoType[descriptor.goType] = descriptor
		}
	}
}

func linkHierarchy(registry *Registry, descriptor *TypeDescriptor, spec TypeSpec) error {
	if spec.Ancestor != "" {
		if descriptor.IsInterface() {
			return xerrors.Errorf(
				"interface %q declares ancestor %q: %w",
				descriptor.qualified, spec.Ancestor, ErrInvalidHierarchy,
			)
		}
		ancestor, ok := registry.byName[spec.Ancestor]
		if !ok {
			return xerrors.Errorf(
				"ancestor %q of %q: %w", spec.Ancestor, descriptor.qualified, ErrUnknownType,
			)
		}
		if ancestor.kind != KindStruct {
			return xerrors.Errorf(
				"%q cannot be the ancestor of %q: %w",
				ancestor.qualified, descriptor.qualified, ErrInvalidHierarchy,
			)
		}
		descriptor.ancestor = ancestor
	}

	for _, name := range spec.Interfaces {
		implemented, ok := registry.byName[name]
		if !ok {
			return xerrors.Errorf(
				"interface %q of %q: %w", name, descriptor.qualified, ErrUnknownType,
			)
		}
		if !implemented.IsInterface() {
			return xerrors.Errorf(
				"%q is not an interface of %q: %w",
				name, descriptor.qualified, ErrInvalidHierarchy,
			)
		}
		descriptor.interfaces = append(descriptor.interfaces, implemented)
	}

	if spec.Enclosing != "" {
		descriptor.enclosing = registry.byName[spec.Enclosing]
	}
	return nil
}

func checkAncestorCycle(descriptor *TypeDescriptor, limit int) error {
	steps := 0
	for current := descriptor.ancestor; current != nil; current = current.ancestor {
		if current == descriptor || steps > limit {
			return xerrors.Errorf("%q: %w", descriptor.qualified, ErrAncestorCycle)
		}
		steps++
	}
	return nil
}

func linkMembers(registry *Registry, descriptor *TypeDescriptor, decl *typeDecl) error {
	signatures := make(map[string]bool, len(decl.members))

	for order, memberDecl := range decl.members {
		member := &MemberDescriptor{
			kind:       memberDecl.kind,
			name:       memberDecl.name,
			owner:      descriptor,
			visibility: memberDecl.visibility,
			modifiers:  memberDecl.modifiers,
			factory:    memberDecl.factory,
			metadata:   copyMetadata(memberDecl.metadata),
			order:      order,
		}

		params := make([]*TypeDescriptor, len(memberDecl.params))
		for i, name := range memberDecl.params {
			var goType reflect.Type
			if i < len(memberDecl.paramGoTypes) {
				goType = memberDecl.paramGoTypes[i]
			}
			params[i] = registry.reference(name, goType)
		}

		if member.kind == Field {
			member.fieldType = params[0]
			params = nil
		}
		if member.kind == Constructor && descriptor.IsInner() {
			params = append([]*TypeDescriptor{descriptor.enclosing}, params...)
			member.synthetic = 1
		}
		member.params = params
		member.signature = buildSignature(member.kind, member.name, params)

		if signatures[member.signature] {
			return xerrors.Errorf(
				"%s.%s: %w", descriptor.qualified, member.signature, ErrDuplicateMember,
			)
		}
		signatures[member.signature] = true

		descriptor.members = append(descriptor.members, member)
		if member.kind == Constructor {
			descriptor.constructors = append(descriptor.constructors, member)
		}
	}

	sort.SliceStable(descriptor.members, func(i, j int) bool {
		left, right := descriptor.members[i], descriptor.members[j]
		if left.name != right.name {
			return left.name < right.name
		}
		return joinParams(left.params) < joinParams(right.params)
	})
	return nil
}

// Returns the named type, declaring an opaque type for names never declared.
func (registry *Registry) reference(name string, goType reflect.Type) *TypeDescriptor {
	if descriptor, ok := registry.byName[name]; ok {
		return descriptor
	}

	simple, pkg := name, ""
	if dot := strings.LastIndexByte(name, '.'); dot > 0 && !strings.ContainsAny(name, "[]*(") {
		pkg, simple = name[:dot], name[dot+1:]
	}
	descriptor := &TypeDescriptor{
		kind:       KindOpaque,
		simpleName: simple,
		pkg:        pkg,
		readable:   simple,
		qualified:  name,
		goType:     goType,
	}
	registry.add(descriptor)
	return descriptor
}

func joinParams(params []*TypeDescriptor) string {
	names := make([]string, len(params))
	for i, param := range params {
		names[i] = param.qualified
	}
	return strings.Join(names, ",")
}

func copyMetadata(metadata map[Kind]any) map[Kind]any {
	copied := make(map[Kind]any, len(metadata))
	for kind, value := range metadata {
		copied[kind] = value
	}
	return copied
}

func qualify(pkg string, readable string) string {
	if pkg == "" {
		return readable
	}
	return pkg + "." + readable
}

var builtinTypes = []reflect.Type{
	reflect.TypeOf(false),
	reflect.TypeOf(int(0)),
	reflect.TypeOf(int8(0)),
	reflect.TypeOf(int16(0)),
	reflect.TypeOf(int32(0)),
	reflect.TypeOf(int64(0)),
	reflect.TypeOf(uint(0)),
	reflect.TypeOf(uint8(0)),
	reflect.TypeOf(uint16(0)),
	reflect.TypeOf(uint32(0)),
	reflect.TypeOf(uint64(0)),
	reflect.TypeOf(float32(0)),
	reflect.TypeOf(float64(0)),
	reflect.TypeOf(""),
}

// The root gets TypeID 0. Each primitive is followed by its boxed pointer form, and
// the two are treated as equivalent for assignment.
func addBuiltins(registry *Registry) {
	registry.add(&TypeDescriptor{
		kind:       KindBuiltin,
		simpleName: "any",
		readable:   "any",
		qualified:  "any",
		goType:     reflect.TypeOf((*any)(nil)).Elem(),
	})

	for _, goType := range builtinTypes {
		plain := &TypeDescriptor{
			kind:       KindBuiltin,
			simpleName: goType.Name(),
			readable:   goType.Name(),
			qualified:  goType.Name(),
			goType:     goType,
		}
		boxed := &TypeDescriptor{
			kind:       KindBuiltin,
			simpleName: "*" + goType.Name(),
			readable:   "*" + goType.Name(),
			qualified:  "*" + goType.Name(),
			goType:     reflect.PointerTo(goType),
		}
		plain.boxed = boxed
		boxed.boxed = plain
		registry.add(plain)
		registry.add(boxed)
	}
}
