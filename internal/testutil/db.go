// Package testutil provides fixture builders for catalogs, tag documents and
// catalog databases.
package testutil

import (
	"context"
	"path/filepath"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tagset/internal/infrastructure/sqlite"
)

// NewCatalogDB opens a migrated catalog database in a temp directory,
// imports the builder's seed, and closes it when the test ends.
func (b *Builder) NewCatalogDB() *sqlite.DB {
	b.t.Helper()
	db, err := sqlite.NewDB(filepath.Join(b.t.TempDir(), "catalog.db"))
	require.NoError(b.t, err)
	b.t.Cleanup(func() { _ = db.Close() })

	_, err = db.CatalogStore().ImportSeed(context.Background(), "testutil", b.seed)
	require.NoError(b.t, err)
	return db
}
