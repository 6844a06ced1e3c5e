package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/zjrosen/tagset/internal/catalog"
	"github.com/zjrosen/tagset/internal/config"
	"github.com/zjrosen/tagset/internal/infrastructure/sqlite"
	"github.com/zjrosen/tagset/internal/log"
	"github.com/zjrosen/tagset/internal/pubsub"
	"github.com/zjrosen/tagset/internal/tagservice"
	"github.com/zjrosen/tagset/internal/tracing"
)

// app bundles the collaborators every tag command needs.
type app struct {
	catalog *catalog.Memory
	service *tagservice.Service
	tracer  *tracing.Provider
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tracer.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatTrace, "Failed to flush spans", err)
	}
}

// newApp loads the configured catalog and builds the tag service over the
// tags directory.
func newApp(ctx context.Context, broker *pubsub.Broker[tagservice.TagEvent]) (*app, error) {
	mem, err := loadCatalog(ctx, cfg.Catalog)
	if err != nil {
		return nil, err
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("creating tracer: %w", err)
	}

	opts := []tagservice.Option{tagservice.WithTracer(provider.Tracer())}
	if broker != nil {
		opts = append(opts, tagservice.WithBroker(broker))
	}
	svc, err := tagservice.New(mem, tagservice.NewFSSource(os.DirFS(cfg.Tags.Dir)), cfg.Tags.Namespace, opts...)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, fmt.Errorf("loading tags from %s: %w", cfg.Tags.Dir, err)
	}

	return &app{catalog: mem, service: svc, tracer: provider}, nil
}

// loadCatalog reads the catalog from the YAML seed or the SQLite store.
func loadCatalog(ctx context.Context, cat config.CatalogConfig) (*catalog.Memory, error) {
	var (
		seed catalog.Seed
		err  error
	)
	switch cat.Source {
	case config.CatalogSourceSQLite:
		seed, err = loadStoredSeed(ctx, cat.DBPath)
	default:
		seed, err = catalog.LoadSeedFile(cat.Seed)
	}
	if err != nil {
		return nil, err
	}

	mem, err := catalog.NewMemory(seed)
	if err != nil {
		return nil, err
	}
	items, itemGroups, blockGroups := mem.Stats()
	log.Debug(log.CatCatalog, "Catalog loaded",
		"source", cat.Source, "items", items, "item_groups", itemGroups, "block_groups", blockGroups)
	return mem, nil
}

func loadStoredSeed(ctx context.Context, path string) (catalog.Seed, error) {
	db, err := sqlite.NewDB(path)
	if err != nil {
		return catalog.Seed{}, fmt.Errorf("opening catalog database: %w", err)
	}
	defer func() { _ = db.Close() }()

	last, err := db.CatalogStore().LastImport(ctx)
	if err != nil {
		return catalog.Seed{}, err
	}
	if last == nil {
		return catalog.Seed{}, fmt.Errorf("catalog database %s is empty, run 'tagset catalog:import' first", path)
	}
	return db.CatalogStore().LoadSeed(ctx)
}
