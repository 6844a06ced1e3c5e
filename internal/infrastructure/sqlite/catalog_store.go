package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/tagset/internal/catalog"
	"github.com/zjrosen/tagset/internal/log"
)

// ImportRecord describes one completed catalog import.
type ImportRecord struct {
	ID         string
	Source     string
	Items      int
	Groups     int
	ImportedAt time.Time
}

// CatalogStore reads and writes the catalog tables.
type CatalogStore struct {
	db  *sql.DB
	now func() time.Time
}

func newCatalogStore(db *sql.DB) *CatalogStore {
	return &CatalogStore{db: db, now: time.Now}
}

var _ catalog.SeedLoader = (*CatalogStore)(nil)

// ImportSeed replaces the stored catalog with seed in a single transaction.
// The seed is validated first so a malformed seed never reaches the tables.
func (s *CatalogStore) ImportSeed(ctx context.Context, source string, seed catalog.Seed) (*ImportRecord, error) {
	if _, err := catalog.NewMemory(seed); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{`DELETE FROM group_members`, `DELETE FROM builtin_groups`, `DELETE FROM items`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to clear catalog: %w", err)
		}
	}

	items := 0
	for _, id := range seed.Items {
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO items (id) VALUES (?)`, id)
		if err != nil {
			return nil, fmt.Errorf("failed to insert item %s: %w", id, err)
		}
		n, _ := res.RowsAffected()
		items += int(n)
	}

	groups := 0
	for registry, members := range map[string]map[string][]string{
		"items":  seed.Groups.Items,
		"blocks": seed.Groups.Blocks,
	} {
		for key, values := range members {
			if _, err := tx.ExecContext(ctx, `INSERT INTO builtin_groups (registry, name) VALUES (?, ?)`, registry, key); err != nil {
				return nil, fmt.Errorf("failed to insert group %s %s: %w", registry, key, err)
			}
			groups++
			for _, member := range values {
				if _, err := tx.ExecContext(ctx,
					`INSERT OR IGNORE INTO group_members (registry, group_key, member) VALUES (?, ?, ?)`,
					registry, key, member,
				); err != nil {
					return nil, fmt.Errorf("failed to insert member %s of %s: %w", member, key, err)
				}
			}
		}
	}

	record := &ImportRecord{
		ID:         uuid.NewString(),
		Source:     source,
		Items:      items,
		Groups:     groups,
		ImportedAt: s.now(),
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO imports (id, source, items, group_count, imported_at) VALUES (?, ?, ?, ?, ?)`,
		record.ID, record.Source, record.Items, record.Groups, record.ImportedAt.Unix(),
	); err != nil {
		return nil, fmt.Errorf("failed to record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	log.Info(log.CatDB, "Catalog imported", "id", record.ID, "items", items, "groups", groups)
	return record, nil
}

// LoadSeed reads the stored catalog back as a Seed.
func (s *CatalogStore) LoadSeed(ctx context.Context) (catalog.Seed, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return catalog.Seed{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT g.registry, g.name, m.member
		FROM builtin_groups g LEFT JOIN group_members m ON m.registry = g.registry AND m.group_key = g.name
		ORDER BY g.registry, g.name, m.member`)
	if err != nil {
		return catalog.Seed{}, fmt.Errorf("failed to query groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	seed := catalog.Seed{
		Items: items,
		Groups: catalog.SeedGroups{
			Items:  map[string][]string{},
			Blocks: map[string][]string{},
		},
	}
	for rows.Next() {
		var (
			registry, key string
			member        sql.NullString
		)
		if err := rows.Scan(&registry, &key, &member); err != nil {
			return catalog.Seed{}, fmt.Errorf("failed to scan group row: %w", err)
		}
		target := seed.Groups.Items
		if registry == "blocks" {
			target = seed.Groups.Blocks
		}
		if _, ok := target[key]; !ok {
			target[key] = []string{}
		}
		if member.Valid {
			target[key] = append(target[key], member.String)
		}
	}
	if err := rows.Err(); err != nil {
		return catalog.Seed{}, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return seed, nil
}

// ListItems returns every stored item identifier in ascending order.
func (s *CatalogStore) ListItems(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, id)
	}
	return items, rows.Err()
}

// LastImport returns the most recent import record, or nil when the catalog
// has never been imported.
func (s *CatalogStore) LastImport(ctx context.Context) (*ImportRecord, error) {
	var (
		rec        ImportRecord
		importedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, items, group_count, imported_at FROM imports ORDER BY imported_at DESC, rowid DESC LIMIT 1`,
	).Scan(&rec.ID, &rec.Source, &rec.Items, &rec.Groups, &importedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last import: %w", err)
	}
	rec.ImportedAt = time.Unix(importedAt, 0)
	return &rec, nil
}
