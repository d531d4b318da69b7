package introspect

// Kind identifies a kind of declarative metadata, e.g. "custom type name".
type Kind string

// Location records where a resolved entry was declared, relative to the owner the
// lookup started from.
type Location int

const (
	// OnThis is an entry declared directly on the owner type.
	OnThis Location = iota
	// OnAncestor is an entry declared on an ancestor type.
	OnAncestor
	// OnInterface is an entry declared on an implemented interface.
	OnInterface
	// OnPackage is an entry declared on the package of the owner or of a type in its
	// hierarchy.
	OnPackage
	// OnMember is an entry declared directly on the owner member.
	OnMember
	// OnOverridden is an entry declared on a method the owner member overrides.
	OnOverridden
)

var locationNames = [...]string{
	"this", "ancestor", "interface", "package", "member", "overridden",
}

func (location Location) String() string {
	if location < OnThis || location > OnOverridden {
		return "unknown"
	}
	return locationNames[location]
}

// Order is the traversal direction of ResolveAll.
type Order int

const (
	// ChildFirst starts at the owner and ends at its package.
	ChildFirst Order = iota
	// ParentFirst is the exact reverse of ChildFirst.
	ParentFirst
)

func (order Order) String() string {
	if order == ParentFirst {
		return "parent-first"
	}
	return "child-first"
}

// Entry is one resolved piece of metadata.
type Entry struct {
	Kind     Kind
	Value    any
	Location Location

	// Type is the declaring type. Nil for package entries.
	Type *TypeDescriptor
	// Member is the declaring member for OnMember and OnOverridden entries.
	Member *MemberDescriptor
	// Package is the declaring package for OnPackage entries.
	Package string
}

// Declarer names where the entry was declared, for logs and descriptions.
func (entry Entry) Declarer() string {
	switch {
	case entry.Member != nil:
		return entry.Member.String()
	case entry.Type != nil:
		return entry.Type.qualified
	default:
		return entry.Package
	}
}

type resolution struct {
	entry Entry
	found bool
}

type allKey struct {
	kind  Kind
	order Order
}

// Resolver answers metadata lookups over one Registry. Results are cached on the
// descriptors themselves.
type Resolver struct {
	registry *Registry
}

// Resolve returns the single applicable entry of kind for a type.
func (resolver *Resolver) Resolve(owner *TypeDescriptor, kind Kind) (Entry, bool) {
	if cached, ok := owner.resolved.Load(kind); ok {
		result := cached.(resolution)
		return result.entry, result.found
	}

	entry, found := resolver.resolveHierarchy(owner, owner, kind, map[TypeID]bool{})

	// Concurrent first lookups converge on whichever answer was stored first.
	actual, _ := owner.resolved.LoadOrStore(kind, resolution{entry: entry, found: found})
	result := actual.(resolution)
	return result.entry, result.found
}

// Value is a shortcut for Resolve that returns only the metadata value.
func (resolver *Resolver) Value(owner *TypeDescriptor, kind Kind) (any, bool) {
	entry, ok := resolver.Resolve(owner, kind)
	return entry.Value, ok
}

// Full resolution of owner, ending with its own package.
func (resolver *Resolver) resolveHierarchy(
	origin *TypeDescriptor, owner *TypeDescriptor, kind Kind, visited map[TypeID]bool,
) (Entry, bool) {
	if owner.IsRoot() || visited[owner.id] {
		return Entry{}, false
	}
	visited[owner.id] = true

	if value, ok := owner.metadata[kind]; ok {
		return Entry{
			Kind:     kind,
			Value:    value,
			Location: typeLocation(origin, owner),
			Type:     owner,
		}, true
	}

	if owner.ancestor != nil {
		if entry, ok := resolver.resolveHierarchy(origin, owner.ancestor, kind, visited); ok {
			return entry, true
		}
	}

	for _, implemented := range owner.interfaces {
		if entry, ok := resolver.resolveHierarchy(origin, implemented, kind, visited); ok {
			return entry, true
		}
	}

	return resolver.resolvePackage(owner.pkg, kind)
}

func (resolver *Resolver) resolvePackage(pkg string, kind Kind) (Entry, bool) {
	if pkg == "" {
		return Entry{}, false
	}
	value, ok := resolver.registry.packages[pkg][kind]
	if !ok {
		return Entry{}, false
	}
	return Entry{Kind: kind, Value: value, Location: OnPackage, Package: pkg}, true
}

func typeLocation(origin *TypeDescriptor, declarer *TypeDescriptor) Location {
	switch {
	case declarer == origin:
		return OnThis
	case declarer.IsInterface():
		return OnInterface
	default:
		return OnAncestor
	}
}

// ResolveAll returns every entry of kind that applies to a type, in the requested
// order. The returned slice is a copy.
func (resolver *Resolver) ResolveAll(owner *TypeDescriptor, kind Kind, order Order) []Entry {
	key := allKey{kind: kind, order: order}
	if cached, ok := owner.resolvedAll.Load(key); ok {
		return copyEntries(cached.([]Entry))
	}

	entries := resolver.collectType(owner, kind)
	if order == ParentFirst {
		reverseEntries(entries)
	}

	actual, _ := owner.resolvedAll.LoadOrStore(key, entries)
	return copyEntries(actual.([]Entry))
}

func (resolver *Resolver) collectType(owner *TypeDescriptor, kind Kind) []Entry {
	entries := make([]Entry, 0)

	chain := append([]*TypeDescriptor{owner}, owner.Ancestors()...)
	chain = append(chain, owner.InterfaceClosure()...)

	for _, declarer := range chain {
		if declarer.IsRoot() {
			continue
		}
		if value, ok := declarer.metadata[kind]; ok {
			entries = append(entries, Entry{
				Kind:     kind,
				Value:    value,
				Location: typeLocation(owner, declarer),
				Type:     declarer,
			})
		}
	}

	// The owner's package, then the other packages of the hierarchy in chain order.
	seen := make(map[string]bool)
	for _, declarer := range chain {
		if declarer.IsRoot() || seen[declarer.pkg] {
			continue
		}
		seen[declarer.pkg] = true
		if entry, ok := resolver.resolvePackage(declarer.pkg, kind); ok {
			entries = append(entries, entry)
		}
	}

	return entries
}

// ResolveMember returns the single applicable entry of kind for a member. A method
// inherits from the method it overrides unless it declares its own.
func (resolver *Resolver) ResolveMember(member *MemberDescriptor, kind Kind) (Entry, bool) {
	if cached, ok := member.resolved.Load(kind); ok {
		result := cached.(resolution)
		return result.entry, result.found
	}

	var entry Entry
	found := false

	if value, ok := member.metadata[kind]; ok {
		entry = Entry{
			Kind: kind, Value: value, Location: OnMember, Type: member.owner, Member: member,
		}
		found = true
	}

	if !found && member.kind == Method {
		for _, overridden := range overriddenMethods(member) {
			if value, ok := overridden.metadata[kind]; ok {
				entry = Entry{
					Kind:     kind,
					Value:    value,
					Location: OnOverridden,
					Type:     overridden.owner,
					Member:   overridden,
				}
				found = true
				break
			}
		}
	}

	if !found {
		entry, found = resolver.Resolve(member.owner, kind)
	}

	actual, _ := member.resolved.LoadOrStore(kind, resolution{entry: entry, found: found})
	result := actual.(resolution)
	return result.entry, result.found
}

// ResolveAllMember returns every entry of kind that applies to a member: the member,
// the methods it overrides nearest first, then the child-first entries of its
// declaring type. ParentFirst is the exact reverse.
func (resolver *Resolver) ResolveAllMember(
	member *MemberDescriptor, kind Kind, order Order,
) []Entry {
	key := allKey{kind: kind, order: order}
	if cached, ok := member.resolvedAll.Load(key); ok {
		return copyEntries(cached.([]Entry))
	}

	entries := make([]Entry, 0)
	if value, ok := member.metadata[kind]; ok {
		entries = append(entries, Entry{
			Kind: kind, Value: value, Location: OnMember, Type: member.owner, Member: member,
		})
	}
	if member.kind == Method {
		for _, overridden := range overriddenMethods(member) {
			if value, ok := overridden.metadata[kind]; ok {
				entries = append(entries, Entry{
					Kind:     kind,
					Value:    value,
					Location: OnOverridden,
					Type:     overridden.owner,
					Member:   overridden,
				})
			}
		}
	}
	entries = append(entries, resolver.collectType(member.owner, kind)...)

	if order == ParentFirst {
		reverseEntries(entries)
	}

	actual, _ := member.resolvedAll.LoadOrStore(key, entries)
	return copyEntries(actual.([]Entry))
}

// Methods with the same signature on the ancestors, nearest first, then on the
// interface closure.
func overriddenMethods(member *MemberDescriptor) []*MemberDescriptor {
	overridden := make([]*MemberDescriptor, 0)
	owner := member.owner

	candidates := append(owner.Ancestors(), owner.InterfaceClosure()...)
	for _, candidate := range candidates {
		if method, ok := candidate.Method(member.signature); ok {
			overridden = append(overridden, method)
		}
	}
	return overridden
}

func copyEntries(entries []Entry) []Entry {
	copied := make([]Entry, len(entries))
	copy(copied, entries)
	return copied
}

func reverseEntries(entries []Entry) {
	for left, right := 0, len(entries)-1; left < right; left, right = left+1, right-1 {
		entries[left], entries[right] = entries[right], entries[left]
	}
}
