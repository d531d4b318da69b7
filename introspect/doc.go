/*
Package introspect is an explicit, build-once table of type information and the
declarative metadata attached to types, members and packages.

Types are declared on a Builder, either by hand with DeclareType or derived from Go
types with Reflect, and frozen into a Registry. Every type gets a stable integer
TypeID; TypeID 0 is the universal root "any", which is never reported as an ancestor.

# Metadata Precedence

A single-result lookup for a kind on a type returns, in order: the entry declared on
the type, the resolution of its ancestor, the first non-empty resolution among its
declared interfaces, the entry declared on the type's package. The ancestor and
interface resolutions are full lookups, so the package of an ancestor declared
elsewhere is consulted before the type's own interfaces. A method first checks
itself, then methods with the same signature on ancestors and interfaces, then falls
through to its declaring type.

The all-results lookup walks the type, its ancestors nearest first, its interface
closure nearest first, its package and finally the other packages of those types in
the same order (ChildFirst). ParentFirst is the exact reverse.

Interface graphs may contain cycles. A type already visited during one lookup
contributes nothing the second time.

Results are cached per owner and kind, including negative results, so a Registry
is safe for unlimited concurrent readers once built.
*/
package introspect
