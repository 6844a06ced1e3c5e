package tags

// Catalog answers questions about the host's concrete items and built-in
// groups. Implementations must be safe for concurrent reads.
type Catalog interface {
	// ItemExists reports whether id names a known concrete item.
	ItemExists(id Key) bool

	// LookupGroup returns the built-in group key in registry, which must be
	// RegistryItems or RegistryBlocks. Keys are case-sensitive.
	LookupGroup(registry GroupRegistry, key Key) (Group, bool)
}

// TagLookup finds user-defined tags by uppercased local name.
type TagLookup interface {
	// Namespace returns the namespace all tags in the lookup belong to.
	Namespace() string

	// Lookup returns the tag whose uppercased local name is upperName.
	Lookup(upperName string) (*Tag, bool)
}

// Source supplies the raw JSON document of a tag.
type Source interface {
	Read(key Key) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(key Key) ([]byte, error)

// Read implements Source.
func (f SourceFunc) Read(key Key) ([]byte, error) {
	return f(key)
}

// Compile-time check that Registry implements TagLookup.
var _ TagLookup = (*Registry)(nil)
