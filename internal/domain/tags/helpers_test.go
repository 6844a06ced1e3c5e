package tags

import (
	"errors"
	"os"
)

// fakeCatalog is an in-memory Catalog that counts lookups.
type fakeCatalog struct {
	items  map[Key]struct{}
	groups map[GroupRegistry]map[Key]Group
	calls  int
}

func newFakeCatalog(items ...string) *fakeCatalog {
	c := &fakeCatalog{
		items:  make(map[Key]struct{}),
		groups: make(map[GroupRegistry]map[Key]Group),
	}
	for _, item := range items {
		c.items[MustParseKey(item)] = struct{}{}
	}
	return c
}

func (c *fakeCatalog) withGroup(registry GroupRegistry, key string, values ...string) *fakeCatalog {
	members := make([]Key, len(values))
	for i, v := range values {
		members[i] = MustParseKey(v)
	}
	if c.groups[registry] == nil {
		c.groups[registry] = make(map[Key]Group)
	}
	k := MustParseKey(key)
	c.groups[registry][k] = NewBuiltinGroup(registry, k, members...)
	return c
}

func (c *fakeCatalog) ItemExists(id Key) bool {
	c.calls++
	_, ok := c.items[id]
	return ok
}

func (c *fakeCatalog) LookupGroup(registry GroupRegistry, key Key) (Group, bool) {
	c.calls++
	g, ok := c.groups[registry][key]
	return g, ok
}

// mapSource serves documents from memory and counts reads.
type mapSource struct {
	docs  map[Key]string
	reads int
}

func (s *mapSource) Read(key Key) ([]byte, error) {
	s.reads++
	doc, ok := s.docs[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(doc), nil
}

var errBoom = errors.New("boom")

func keysOf(ss ...string) []Key {
	keys := make([]Key, len(ss))
	for i, s := range ss {
		keys[i] = MustParseKey(s)
	}
	return keys
}
