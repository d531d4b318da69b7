package introspect_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"runtime"
	"sync"
	"testing"

	"github.com/illuscio-dev/spanmarshal-go/introspect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const zoo = "example.com/zoo"

const (
	kindTag     introspect.Kind = "tag"
	kindSound   introspect.Kind = "sound"
	kindHabitat introspect.Kind = "habitat"
	kindOrigin  introspect.Kind = "origin"
	kindGait    introspect.Kind = "gait"
	kindMissing introspect.Kind = "missing"
)

/*
Animal <- Mammal (Walker, Runner) <- Dog (Swimmer) <- Puppy

Every type and interface carries kindTag, and so does the package.
*/
func buildZoo(test *testing.T) *introspect.Registry {
	builder := introspect.NewBuilder()
	builder.AnnotatePackage(zoo, kindTag, "zoo")
	builder.AnnotatePackage(zoo, kindOrigin, "africa")

	builder.DeclareType(introspect.TypeSpec{Name: "Walker", Package: zoo, Interface: true}).
		Annotate(kindTag, "walker").
		Annotate(kindGait, "walk").
		Method("Walk", introspect.Public, introspect.Abstract).
		Annotate(kindGait, "stride")

	builder.DeclareType(introspect.TypeSpec{Name: "Runner", Package: zoo, Interface: true}).
		Annotate(kindGait, "run")

	builder.DeclareType(introspect.TypeSpec{Name: "Swimmer", Package: zoo, Interface: true}).
		Annotate(kindTag, "swimmer").
		Annotate(kindHabitat, "water")

	builder.DeclareType(introspect.TypeSpec{Name: "Animal", Package: zoo}).
		Annotate(kindTag, "animal").
		Method("Speak", introspect.Public, 0).
		Annotate(kindSound, "generic")

	builder.DeclareType(introspect.TypeSpec{
		Name:       "Mammal",
		Package:    zoo,
		Ancestor:   zoo + ".Animal",
		Interfaces: []string{zoo + ".Walker", zoo + ".Runner"},
	}).
		Annotate(kindTag, "mammal").
		Method("Walk", introspect.Public, 0)

	builder.DeclareType(introspect.TypeSpec{
		Name:       "Dog",
		Package:    zoo,
		Ancestor:   zoo + ".Mammal",
		Interfaces: []string{zoo + ".Swimmer"},
	}).
		Annotate(kindTag, "dog").
		Annotate(kindSound, "woof").
		Method("Speak", introspect.Public, 0)

	builder.DeclareType(introspect.TypeSpec{
		Name:     "Puppy",
		Package:  zoo,
		Ancestor: zoo + ".Dog",
	}).
		Annotate(kindTag, "puppy").
		Method("Speak", introspect.Public, 0).
		Annotate(kindSound, "yip")

	registry, err := builder.Build()
	require.NoError(test, err)
	return registry
}

func mustType(test *testing.T, registry *introspect.Registry, name string) *introspect.TypeDescriptor {
	descriptor, ok := registry.TypeByName(name)
	require.True(test, ok, name)
	return descriptor
}

func values(entries []introspect.Entry) []any {
	found := make([]any, len(entries))
	for i, entry := range entries {
		found[i] = entry.Value
	}
	return found
}

func names(types []*introspect.TypeDescriptor) []string {
	found := make([]string, len(types))
	for i, descriptor := range types {
		found[i] = descriptor.SimpleName()
	}
	return found
}

func TestHierarchyLists(test *testing.T) {
	assert := assert.New(test)
	registry := buildZoo(test)
	puppy := mustType(test, registry, zoo+".Puppy")

	assert.Equal([]string{"Dog", "Mammal", "Animal"}, names(puppy.Ancestors()))
	assert.Empty(puppy.Interfaces())
	assert.Equal([]string{"Swimmer", "Walker", "Runner"}, names(puppy.InterfaceClosure()))

	// Same descriptor, same lists.
	again := mustType(test, registry, zoo+".Puppy")
	assert.Same(puppy, again)
	assert.Equal(puppy.Ancestors(), again.Ancestors())
	assert.Equal(puppy.InterfaceClosure(), again.InterfaceClosure())
	assert.Equal(puppy.Members(), again.Members())

	assert.Equal("Puppy", puppy.ReadableName())
	assert.Equal(zoo+".Puppy", puppy.QualifiedName())
	assert.Equal(zoo, puppy.Package())
}

func TestResolveDirectBeatsAncestor(test *testing.T) {
	assert := assert.New(test)
	registry := buildZoo(test)
	resolver := registry.Resolver()

	dog := mustType(test, registry, zoo+".Dog")
	puppy := mustType(test, registry, zoo+".Puppy")

	entry, ok := resolver.Resolve(puppy, kindTag)
	assert.True(ok)
	assert.Equal("puppy", entry.Value)
	assert.Equal(introspect.OnThis, entry.Location)
	assert.Same(puppy, entry.Type)

	entry, ok = resolver.Resolve(puppy, kindSound)
	assert.True(ok)
	assert.Equal("woof", entry.Value)
	assert.Equal(introspect.OnAncestor, entry.Location)
	assert.Same(dog, entry.Type)
}

func TestResolveInterfacesAndPackage(test *testing.T) {
	assert := assert.New(test)
	registry := buildZoo(test)
	resolver := registry.Resolver()

	puppy := mustType(test, registry, zoo+".Puppy")
	mammal := mustType(test, registry, zoo+".Mammal")

	// Dog declares Swimmer.
	entry, ok := resolver.Resolve(puppy, kindHabitat)
	assert.True(ok)
	assert.Equal("water", entry.Value)
	assert.Equal(introspect.OnInterface, entry.Location)
	assert.Equal("Swimmer", entry.Type.SimpleName())

	// First declared interface wins.
	value, ok := resolver.Value(mammal, kindGait)
	assert.True(ok)
	assert.Equal("walk", value)

	entry, ok = resolver.Resolve(puppy, kindOrigin)
	assert.True(ok)
	assert.Equal(introspect.OnPackage, entry.Location)
	assert.Equal(zoo, entry.Package)
	assert.Equal(zoo, entry.Declarer())
	assert.Nil(entry.Type)

	_, ok = resolver.Resolve(puppy, kindMissing)
	assert.False(ok)
	_, ok = resolver.Resolve(puppy, kindMissing)
	assert.False(ok)
}

const (
	aviary = "example.com/aviary"
	nests  = "example.com/nests"
)

/*
nests.Nest is the ancestor of aviary.Lone and aviary.Perch; aviary.Perch also
implements aviary.Roost. Only the nests package carries kindTag.
*/
func buildAviary(test *testing.T) *introspect.Registry {
	builder := introspect.NewBuilder()
	builder.AnnotatePackage(nests, kindTag, "nests")
	builder.AnnotatePackage(nests, kindOrigin, "nests-origin")
	builder.AnnotatePackage(aviary, kindOrigin, "aviary-origin")

	builder.DeclareType(introspect.TypeSpec{Name: "Nest", Package: nests})
	builder.DeclareType(introspect.TypeSpec{Name: "Roost", Package: aviary, Interface: true}).
		Annotate(kindTag, "roost")
	builder.DeclareType(introspect.TypeSpec{
		Name: "Lone", Package: aviary, Ancestor: nests + ".Nest",
	})
	builder.DeclareType(introspect.TypeSpec{
		Name:       "Perch",
		Package:    aviary,
		Ancestor:   nests + ".Nest",
		Interfaces: []string{aviary + ".Roost"},
	})

	registry, err := builder.Build()
	require.NoError(test, err)
	return registry
}

func TestResolveAncestorPackage(test *testing.T) {
	assert := assert.New(test)
	registry := buildAviary(test)
	resolver := registry.Resolver()

	lone := mustType(test, registry, aviary+".Lone")
	perch := mustType(test, registry, aviary+".Perch")

	entry, ok := resolver.Resolve(lone, kindTag)
	assert.True(ok)
	assert.Equal("nests", entry.Value)
	assert.Equal(introspect.OnPackage, entry.Location)
	assert.Equal(nests, entry.Package)

	// The ancestor's resolution, package included, comes before the interfaces.
	entry, ok = resolver.Resolve(perch, kindTag)
	assert.True(ok)
	assert.Equal("nests", entry.Value)
	assert.Equal(nests, entry.Declarer())

	// The ancestor's package also beats the owner's own package.
	value, ok := resolver.Value(perch, kindOrigin)
	assert.True(ok)
	assert.Equal("nests-origin", value)

	assert.Equal(
		[]any{"roost", "nests"},
		values(resolver.ResolveAll(perch, kindTag, introspect.ChildFirst)),
	)
	assert.Equal(
		[]any{"aviary-origin", "nests-origin"},
		values(resolver.ResolveAll(perch, kindOrigin, introspect.ChildFirst)),
	)
	assert.Equal(
		[]any{"nests-origin", "aviary-origin"},
		values(resolver.ResolveAll(perch, kindOrigin, introspect.ParentFirst)),
	)
}

func TestResolveAllOrders(test *testing.T) {
	assert := assert.New(test)
	registry := buildZoo(test)
	resolver := registry.Resolver()
	puppy := mustType(test, registry, zoo+".Puppy")

	childFirst := resolver.ResolveAll(puppy, kindTag, introspect.ChildFirst)
	assert.Equal(
		[]any{"puppy", "dog", "mammal", "animal", "swimmer", "walker", "zoo"},
		values(childFirst),
	)
	assert.Equal(introspect.OnThis, childFirst[0].Location)
	assert.Equal(introspect.OnAncestor, childFirst[1].Location)
	assert.Equal(introspect.OnInterface, childFirst[4].Location)
	assert.Equal(introspect.OnPackage, childFirst[6].Location)

	parentFirst := resolver.ResolveAll(puppy, kindTag, introspect.ParentFirst)
	assert.Equal(
		[]any{"zoo", "walker", "swimmer", "animal", "mammal", "dog", "puppy"},
		values(parentFirst),
	)

	for i := range childFirst {
		assert.Equal(childFirst[i], parentFirst[len(parentFirst)-1-i])
	}

	// Cached results are copies.
	childFirst[0].Value = "changed"
	assert.Equal("puppy", resolver.ResolveAll(puppy, kindTag, introspect.ChildFirst)[0].Value)

	assert.Empty(resolver.ResolveAll(puppy, kindMissing, introspect.ChildFirst))
}

func TestResolveMember(test *testing.T) {
	assert := assert.New(test)
	registry := buildZoo(test)
	resolver := registry.Resolver()

	dog := mustType(test, registry, zoo+".Dog")
	puppy := mustType(test, registry, zoo+".Puppy")
	mammal := mustType(test, registry, zoo+".Mammal")

	puppySpeak, ok := puppy.Method("Speak()")
	require.True(test, ok)
	dogSpeak, ok := dog.Method("Speak()")
	require.True(test, ok)
	mammalWalk, ok := mammal.Method("Walk()")
	require.True(test, ok)

	entry, ok := resolver.ResolveMember(puppySpeak, kindSound)
	assert.True(ok)
	assert.Equal("yip", entry.Value)
	assert.Equal(introspect.OnMember, entry.Location)

	// Dog.Speak redeclares nothing, so it inherits from Animal.Speak before Dog's
	// own type-level entry.
	entry, ok = resolver.ResolveMember(dogSpeak, kindSound)
	assert.True(ok)
	assert.Equal("generic", entry.Value)
	assert.Equal(introspect.OnOverridden, entry.Location)
	assert.Equal("Animal", entry.Member.DeclaringType().SimpleName())

	entry, ok = resolver.ResolveMember(mammalWalk, kindGait)
	assert.True(ok)
	assert.Equal("stride", entry.Value)
	assert.Equal("Walker", entry.Type.SimpleName())

	// Falls through to the declaring type.
	entry, ok = resolver.ResolveMember(dogSpeak, kindTag)
	assert.True(ok)
	assert.Equal("dog", entry.Value)
	assert.Equal(introspect.OnThis, entry.Location)

	all := resolver.ResolveAllMember(puppySpeak, kindSound, introspect.ChildFirst)
	assert.Equal([]any{"yip", "generic", "woof"}, values(all))
	reversed := resolver.ResolveAllMember(puppySpeak, kindSound, introspect.ParentFirst)
	assert.Equal([]any{"woof", "generic", "yip"}, values(reversed))
}

func TestInterfaceCycleTerminates(test *testing.T) {
	assert := assert.New(test)

	builder := introspect.NewBuilder()
	builder.DeclareType(introspect.TypeSpec{
		Name: "Left", Package: zoo, Interface: true, Interfaces: []string{zoo + ".Right"},
	})
	builder.DeclareType(introspect.TypeSpec{
		Name: "Right", Package: zoo, Interface: true, Interfaces: []string{zoo + ".Left"},
	}).Annotate(kindTag, "right")
	builder.DeclareType(introspect.TypeSpec{
		Name: "Node", Package: zoo, Interfaces: []string{zoo + ".Left"},
	})

	registry, err := builder.Build()
	require.NoError(test, err)

	node := mustType(test, registry, zoo+".Node")
	left := mustType(test, registry, zoo+".Left")

	assert.Equal([]string{"Left", "Right"}, names(node.InterfaceClosure()))
	assert.Equal([]string{"Right"}, names(left.InterfaceClosure()))

	_, ok := registry.Resolver().Resolve(node, kindMissing)
	assert.False(ok)

	entry, ok := registry.Resolver().Resolve(node, kindTag)
	assert.True(ok)
	assert.Equal("right", entry.Value)

	assert.Equal(
		[]any{"right"}, values(registry.Resolver().ResolveAll(node, kindTag, introspect.ChildFirst)),
	)
}

func TestBuildErrors(test *testing.T) {
	testCases := []struct {
		name    string
		declare func(builder *introspect.Builder)
		err     error
	}{
		{
			name: "duplicate type",
			declare: func(builder *introspect.Builder) {
				builder.DeclareType(introspect.TypeSpec{Name: "A", Package: zoo})
				builder.DeclareType(introspect.TypeSpec{Name: "A", Package: zoo})
			},
			err: introspect.ErrDuplicateType,
		},
		{
			name: "builtin name",
			declare: func(builder *introspect.Builder) {
				builder.DeclareType(introspect.TypeSpec{Name: "string"})
			},
			err: introspect.ErrDuplicateType,
		},
		{
			name: "duplicate metadata",
			declare: func(builder *introspect.Builder) {
				builder.DeclareType(introspect.TypeSpec{Name: "A", Package: zoo}).
					Annotate(kindTag, "one").
					Annotate(kindTag, "two")
			},
			err: introspect.ErrDuplicateMetadata,
		},
		{
			name: "duplicate member",
			declare: func(builder *introspect.Builder) {
				typeBuilder := builder.DeclareType(introspect.TypeSpec{Name: "A", Package: zoo})
				typeBuilder.Method("Do", introspect.Public, 0, "int")
				typeBuilder.Method("Do", introspect.Private, 0, "int")
			},
			err: introspect.ErrDuplicateMember,
		},
		{
			name: "unknown ancestor",
			declare: func(builder *introspect.Builder) {
				builder.DeclareType(introspect.TypeSpec{Name: "A", Package: zoo, Ancestor: "B"})
			},
			err: introspect.ErrUnknownType,
		},
		{
			name: "unknown enclosing",
			declare: func(builder *introspect.Builder) {
				builder.DeclareType(introspect.TypeSpec{Name: "A", Enclosing: zoo + ".Outer"})
			},
			err: introspect.ErrUnknownType,
		},
		{
			name: "interface ancestor",
			declare: func(builder *introspect.Builder) {
				builder.DeclareType(introspect.TypeSpec{Name: "I", Package: zoo, Interface: true})
				builder.DeclareType(introspect.TypeSpec{Name: "A", Package: zoo, Ancestor: zoo + ".I"})
			},
			err: introspect.ErrInvalidHierarchy,
		},
		{
			name: "struct as interface",
			declare: func(builder *introspect.Builder) {
				builder.DeclareType(introspect.TypeSpec{Name: "B", Package: zoo})
				builder.DeclareType(introspect.TypeSpec{
					Name: "A", Package: zoo, Interfaces: []string{zoo + ".B"},
				})
			},
			err: introspect.ErrInvalidHierarchy,
		},
		{
			name: "ancestor cycle",
			declare: func(builder *introspect.Builder) {
				builder.DeclareType(introspect.TypeSpec{Name: "A", Package: zoo, Ancestor: zoo + ".B"})
				builder.DeclareType(introspect.TypeSpec{Name: "B", Package: zoo, Ancestor: zoo + ".A"})
			},
			err: introspect.ErrAncestorCycle,
		},
	}

	for _, thisCase := range testCases {
		test.Run(thisCase.name, func(test *testing.T) {
			builder := introspect.NewBuilder()
			thisCase.declare(builder)

			registry, err := builder.Build()
			assert.Nil(test, registry)
			assert.ErrorIs(test, err, thisCase.err)
		})
	}
}

func TestDefaultRegistry(test *testing.T) {
	assert := assert.New(test)

	initial := introspect.Default()
	assert.NotNil(initial)
	assert.True(initial.Root().IsRoot())

	registry := buildZoo(test)
	previous := introspect.SetDefault(registry)
	defer introspect.SetDefault(previous)

	assert.Same(initial, previous)
	assert.Same(registry, introspect.Default())
	assert.Same(registry, introspect.SetDefault(nil))
}

func TestConcurrentResolution(test *testing.T) {
	registry := buildZoo(test)
	resolver := registry.Resolver()
	puppy := mustType(test, registry, zoo+".Puppy")
	speak, ok := puppy.Method("Speak()")
	require.True(test, ok)

	expected := []any{"puppy", "dog", "mammal", "animal", "swimmer", "walker", "zoo"}

	wg := sync.WaitGroup{}
	workers := runtime.GOMAXPROCS(0) * 4
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if entry, ok := resolver.Resolve(puppy, kindHabitat); !ok || entry.Value != "water" {
					test.Errorf("unexpected habitat resolution %v %v", entry.Value, ok)
					return
				}
				if entry, ok := resolver.ResolveMember(speak, kindSound); !ok || entry.Value != "yip" {
					test.Errorf("unexpected sound resolution %v %v", entry.Value, ok)
					return
				}
				all := values(resolver.ResolveAll(puppy, kindTag, introspect.ChildFirst))
				if len(all) != len(expected) || all[0] != expected[0] || all[6] != expected[6] {
					test.Errorf("unexpected tag order %v", all)
					return
				}
			}
		}()
	}
	wg.Wait()
}
