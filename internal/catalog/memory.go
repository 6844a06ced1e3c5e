package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/zjrosen/tagset/internal/domain/tags"
)

// ErrInvalidSeed is returned when a seed contains malformed keys.
var ErrInvalidSeed = errors.New("invalid catalog seed")

// Memory is an immutable in-memory catalog. It is safe for concurrent use.
type Memory struct {
	items  map[tags.Key]struct{}
	groups map[tags.GroupRegistry]map[tags.Key]*tags.BuiltinGroup
}

// NewMemory validates seed and builds a catalog from it.
func NewMemory(seed Seed) (*Memory, error) {
	m := &Memory{
		items: make(map[tags.Key]struct{}, len(seed.Items)),
		groups: map[tags.GroupRegistry]map[tags.Key]*tags.BuiltinGroup{
			tags.RegistryItems:  {},
			tags.RegistryBlocks: {},
		},
	}

	for _, item := range seed.Items {
		key, err := tags.ParseKey(item)
		if err != nil {
			return nil, fmt.Errorf("%w: item %q: %v", ErrInvalidSeed, item, err)
		}
		m.items[key] = struct{}{}
	}

	if err := m.addGroups(tags.RegistryItems, seed.Groups.Items); err != nil {
		return nil, err
	}
	if err := m.addGroups(tags.RegistryBlocks, seed.Groups.Blocks); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Memory) addGroups(registry tags.GroupRegistry, groups map[string][]string) error {
	for name, members := range groups {
		key, err := tags.ParseKey(name)
		if err != nil {
			return fmt.Errorf("%w: %s group %q: %v", ErrInvalidSeed, registry, name, err)
		}
		values := make([]tags.Key, 0, len(members))
		for _, member := range members {
			v, err := tags.ParseKey(member)
			if err != nil {
				return fmt.Errorf("%w: %s group %q member %q: %v", ErrInvalidSeed, registry, name, member, err)
			}
			values = append(values, v)
		}
		m.groups[registry][key] = tags.NewBuiltinGroup(registry, key, values...)
	}
	return nil
}

// ItemExists implements tags.Catalog.
func (m *Memory) ItemExists(id tags.Key) bool {
	_, ok := m.items[id]
	return ok
}

// LookupGroup implements tags.Catalog.
func (m *Memory) LookupGroup(registry tags.GroupRegistry, key tags.Key) (tags.Group, bool) {
	g, ok := m.groups[registry][key]
	if !ok {
		return nil, false
	}
	return g, true
}

// Items returns every known item key, sorted.
func (m *Memory) Items() []tags.Key {
	items := make([]tags.Key, 0, len(m.items))
	for k := range m.items {
		items = append(items, k)
	}
	slices.SortFunc(items, func(a, b tags.Key) int {
		return strings.Compare(a.String(), b.String())
	})
	return items
}

// Stats returns the number of items and groups per registry.
func (m *Memory) Stats() (items, itemGroups, blockGroups int) {
	return len(m.items), len(m.groups[tags.RegistryItems]), len(m.groups[tags.RegistryBlocks])
}

var _ tags.Catalog = (*Memory)(nil)
