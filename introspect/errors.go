package introspect

import (
	"golang.org/x/xerrors"
)

var (
	// ErrDuplicateType is returned when two types share a qualified name.
	ErrDuplicateType = xerrors.New("introspect: duplicate type")
	// ErrDuplicateMember is returned when a type declares the same signature twice.
	ErrDuplicateMember = xerrors.New("introspect: duplicate member")
	// ErrDuplicateMetadata is returned when one owner declares a kind twice.
	ErrDuplicateMetadata = xerrors.New("introspect: metadata kind declared twice")
	// ErrUnknownType is returned for an ancestor, interface or enclosing type that
	// was never declared.
	ErrUnknownType = xerrors.New("introspect: unknown type")
	// ErrInvalidHierarchy is returned for an interface ancestor, a non-interface
	// implemented as an interface, or an interface with an ancestor.
	ErrInvalidHierarchy = xerrors.New("introspect: invalid hierarchy")
	// ErrAncestorCycle is returned when a type is its own ancestor.
	ErrAncestorCycle = xerrors.New("introspect: ancestor cycle")
	// ErrUnnamedType is returned when reflecting a type with no name.
	ErrUnnamedType = xerrors.New("introspect: type has no name")
	// ErrInvalidConstructor is returned for a constructor func of the wrong shape.
	ErrInvalidConstructor = xerrors.New("introspect: invalid constructor func")
	// ErrInvalidArgument is returned when a factory argument cannot be converted to
	// its parameter type.
	ErrInvalidArgument = xerrors.New("introspect: invalid constructor argument")
	// ErrNoFactory is returned when invoking a constructor declared without a
	// factory.
	ErrNoFactory = xerrors.New("introspect: constructor has no factory")
)

func newNoFactoryError(member *MemberDescriptor) error {
	return xerrors.Errorf("%v: %w", member, ErrNoFactory)
}
