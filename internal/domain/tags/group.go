package tags

import (
	"slices"
)

// GroupRegistry identifies the namespace a Group was found in.
type GroupRegistry int

const (
	// RegistryItems holds the host's built-in item groups.
	RegistryItems GroupRegistry = iota
	// RegistryBlocks holds the host's built-in block groups.
	RegistryBlocks
	// RegistryUser holds tags defined by this system's own documents.
	RegistryUser
)

// String returns a human-readable representation of the registry.
func (r GroupRegistry) String() string {
	switch r {
	case RegistryItems:
		return "items"
	case RegistryBlocks:
		return "blocks"
	case RegistryUser:
		return "user"
	default:
		return "unknown"
	}
}

// ParseGroupRegistry maps "items" or "blocks" to a built-in registry.
func ParseGroupRegistry(s string) (GroupRegistry, bool) {
	switch s {
	case "items":
		return RegistryItems, true
	case "blocks":
		return RegistryBlocks, true
	default:
		return 0, false
	}
}

// Group is a named set of item keys a tag can reference.
type Group interface {
	Key() Key
	Registry() GroupRegistry
	// Values returns every item key in the group, sorted.
	Values() []Key
	Contains(id Key) bool
}

// BuiltinGroup is an immutable group supplied by the host catalog.
type BuiltinGroup struct {
	key      Key
	registry GroupRegistry
	values   []Key
	index    map[Key]struct{}
}

// NewBuiltinGroup builds a group; duplicate values are collapsed.
func NewBuiltinGroup(registry GroupRegistry, key Key, values ...Key) *BuiltinGroup {
	index := make(map[Key]struct{}, len(values))
	for _, v := range values {
		index[v] = struct{}{}
	}
	return &BuiltinGroup{
		key:      key,
		registry: registry,
		values:   sortedKeys(index),
		index:    index,
	}
}

// Key returns the group key.
func (g *BuiltinGroup) Key() Key { return g.key }

// Registry returns the built-in registry the group belongs to.
func (g *BuiltinGroup) Registry() GroupRegistry { return g.registry }

// Values returns a copy of the group members.
func (g *BuiltinGroup) Values() []Key { return slices.Clone(g.values) }

// Contains reports whether id is a member.
func (g *BuiltinGroup) Contains(id Key) bool {
	_, ok := g.index[id]
	return ok
}

func sortedKeys(set map[Key]struct{}) []Key {
	keys := make([]Key, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

func compareGroups(a, b Group) int {
	if a.Registry() != b.Registry() {
		return int(a.Registry()) - int(b.Registry())
	}
	return compareKeys(a.Key(), b.Key())
}

type groupID struct {
	registry GroupRegistry
	key      Key
}

func idOf(g Group) groupID {
	return groupID{registry: g.Registry(), key: g.Key()}
}
