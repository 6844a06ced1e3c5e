package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tagset/internal/catalog"
)

// Builder accumulates a catalog seed and tag documents for a test.
type Builder struct {
	t    *testing.T
	seed catalog.Seed
	docs map[string]string
}

// NewBuilder creates an empty builder.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{
		t: t,
		seed: catalog.Seed{Groups: catalog.SeedGroups{
			Items:  map[string][]string{},
			Blocks: map[string][]string{},
		}},
		docs: map[string]string{},
	}
}

// WithItems adds known concrete items.
func (b *Builder) WithItems(ids ...string) *Builder {
	b.seed.Items = append(b.seed.Items, ids...)
	return b
}

// WithItemGroup adds a built-in item group.
func (b *Builder) WithItemGroup(key string, members ...string) *Builder {
	b.seed.Groups.Items[key] = append(b.seed.Groups.Items[key], members...)
	return b
}

// WithBlockGroup adds a built-in block group.
func (b *Builder) WithBlockGroup(key string, members ...string) *Builder {
	b.seed.Groups.Blocks[key] = append(b.seed.Groups.Blocks[key], members...)
	return b
}

// WithRawTag adds a tag document verbatim.
func (b *Builder) WithRawTag(name, doc string) *Builder {
	b.docs[name] = doc
	return b
}

// WithTag adds a tag document whose values are built from entries. Use
// plain strings for required references and Optional/Required for objects.
func (b *Builder) WithTag(name string, entries ...any) *Builder {
	b.t.Helper()
	if entries == nil {
		entries = []any{}
	}
	data, err := json.Marshal(map[string]any{"values": entries})
	require.NoError(b.t, err)
	b.docs[name] = string(data)
	return b
}

// Seed returns the accumulated catalog seed.
func (b *Builder) Seed() catalog.Seed {
	return b.seed
}

// Catalog builds an in-memory catalog from the seed.
func (b *Builder) Catalog() *catalog.Memory {
	b.t.Helper()
	c, err := catalog.NewMemory(b.seed)
	require.NoError(b.t, err)
	return c
}

// FS returns the tag documents as <name>.json files.
func (b *Builder) FS() fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, doc := range b.docs {
		fsys[name+".json"] = &fstest.MapFile{Data: []byte(doc)}
	}
	return fsys
}

// Dir writes the tag documents into a fresh temp directory and returns it.
func (b *Builder) Dir() string {
	b.t.Helper()
	dir := b.t.TempDir()
	for name, doc := range b.docs {
		require.NoError(b.t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(doc), 0o600))
	}
	return dir
}

// SeedFile writes the catalog seed as YAML and returns its path.
func (b *Builder) SeedFile() string {
	b.t.Helper()
	data, err := b.seed.Marshal()
	require.NoError(b.t, err)
	path := filepath.Join(b.t.TempDir(), "catalog.yaml")
	require.NoError(b.t, os.WriteFile(path, data, 0o600))
	return path
}
