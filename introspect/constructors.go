package introspect

import (
	"reflect"
)

// ConstructorResolver picks constructors by argument types (exact mode) or by
// argument values in any order (fuzzy mode).
type ConstructorResolver struct {
	registry *Registry
}

/*
Find returns the first declared constructor of owner whose effective parameters
accept argTypes position by position, and whose visibility is at least visibility.
A nil argument type only matches a parameter of the root type.

The last constructor found for an owner is remembered and reused while the
argument types still match it and no constructor declared before it does, so the
answer never depends on earlier calls.
*/
func (resolver *ConstructorResolver) Find(
	owner *TypeDescriptor, visibility Visibility, argTypes ...*TypeDescriptor,
) (*MemberDescriptor, bool) {
	if cached := owner.lastConstructor.Load(); cached != nil &&
		exactMatch(cached, visibility, argTypes) &&
		!matchedBefore(owner, cached, visibility, argTypes) {
		return cached, true
	}

	for _, constructor := range owner.constructors {
		if exactMatch(constructor, visibility, argTypes) {
			owner.lastConstructor.Store(constructor)
			return constructor, true
		}
	}
	return nil, false
}

// FindGo is Find with Go types, mapped through the registry.
func (resolver *ConstructorResolver) FindGo(
	owner *TypeDescriptor, visibility Visibility, argTypes ...reflect.Type,
) (*MemberDescriptor, bool) {
	descriptors := make([]*TypeDescriptor, len(argTypes))
	for i, argType := range argTypes {
		descriptors[i], _ = resolver.registry.TypeOf(argType)
	}
	return resolver.Find(owner, visibility, descriptors...)
}

func matchedBefore(
	owner *TypeDescriptor, cached *MemberDescriptor, visibility Visibility, argTypes []*TypeDescriptor,
) bool {
	for _, constructor := range owner.constructors {
		if constructor == cached {
			return false
		}
		if exactMatch(constructor, visibility, argTypes) {
			return true
		}
	}
	return false
}

func exactMatch(
	constructor *MemberDescriptor, visibility Visibility, argTypes []*TypeDescriptor,
) bool {
	if constructor.visibility < visibility {
		return false
	}

	params := constructor.params[constructor.synthetic:]
	if len(params) != len(argTypes) {
		return false
	}
	for i, param := range params {
		if !param.IsAssignableFrom(argTypes[i]) {
			return false
		}
	}
	return true
}

/*
FindFuzzy scores every constructor of owner visible at visibility by how many of
args can be placed in some parameter slot, each argument in at most one slot and
each slot taking at most one argument, regardless of order. The highest score wins;
ties go to the earliest declared constructor. Nil arguments are ignored.
*/
func (resolver *ConstructorResolver) FindFuzzy(
	owner *TypeDescriptor, visibility Visibility, args ...any,
) (*MemberDescriptor, bool) {
	argTypes := resolver.valueTypes(args)

	var best *MemberDescriptor
	bestScore := -1
	for _, constructor := range owner.constructors {
		if constructor.visibility < visibility {
			continue
		}
		score, _ := assignSlots(constructor.params[constructor.synthetic:], argTypes)
		if score > bestScore {
			best = constructor
			bestScore = score
		}
	}
	return best, best != nil
}

// Arrange places args into the effective parameter slots of constructor the same
// way FindFuzzy scored it. Slots no argument fits are left nil.
func (resolver *ConstructorResolver) Arrange(constructor *MemberDescriptor, args ...any) []any {
	argTypes := resolver.valueTypes(args)
	params := constructor.params[constructor.synthetic:]

	_, slotArgs := assignSlots(params, argTypes)
	arranged := make([]any, len(params))
	for slot, arg := range slotArgs {
		if arg >= 0 {
			arranged[slot] = args[arg]
		}
	}
	return arranged
}

// Nil values are marked skipped; values of unregistered Go types map to a nil
// descriptor, which only the root accepts.
type argType struct {
	descriptor *TypeDescriptor
	skip       bool
}

func (resolver *ConstructorResolver) valueTypes(args []any) []argType {
	argTypes := make([]argType, len(args))
	for i, arg := range args {
		if arg == nil {
			argTypes[i].skip = true
			continue
		}
		argTypes[i].descriptor, _ = resolver.registry.TypeOf(reflect.TypeOf(arg))
	}
	return argTypes
}

/*
Maximum bipartite matching of arguments to parameter slots (augmenting paths).
Arguments are offered in order and slots are tried in order, so the assignment is
deterministic. Returns the number of placed arguments and, per slot, the index of
its argument or -1.
*/
func assignSlots(params []*TypeDescriptor, argTypes []argType) (int, []int) {
	slotArgs := make([]int, len(params))
	for i := range slotArgs {
		slotArgs[i] = -1
	}

	var augment func(arg int, seen []bool) bool
	augment = func(arg int, seen []bool) bool {
		for slot, param := range params {
			if seen[slot] || !param.IsAssignableFrom(argTypes[arg].descriptor) {
				continue
			}
			seen[slot] = true
			if slotArgs[slot] < 0 || augment(slotArgs[slot], seen) {
				slotArgs[slot] = arg
				return true
			}
		}
		return false
	}

	score := 0
	for arg := range argTypes {
		if argTypes[arg].skip {
			continue
		}
		if augment(arg, make([]bool, len(params))) {
			score++
		}
	}
	return score, slotArgs
}
