package settings

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/zjrosen/tagset/internal/domain/tags"
	"github.com/zjrosen/tagset/internal/log"
)

// TagResolver resolves a user tag by name. *tagservice.Service satisfies it.
type TagResolver interface {
	Resolve(ctx context.Context, name string) (*tags.Tag, error)
}

// Settings builds MaterialTagSettings on demand. A setting key names the
// user tag its default comes from; overrides are keyed the same way.
type Settings struct {
	resolver  TagResolver
	catalog   tags.Catalog
	overrides map[string][]string
}

// New creates a Settings view over resolver. overrides is usually the
// settings section of the config file.
func New(resolver TagResolver, catalog tags.Catalog, overrides map[string][]string) *Settings {
	return &Settings{
		resolver:  resolver,
		catalog:   catalog,
		overrides: overrides,
	}
}

// Get resolves the tag named key and returns its setting with any
// configured override applied.
func (s *Settings) Get(ctx context.Context, key string) (*MaterialTagSetting, error) {
	tag, err := s.resolver.Resolve(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("setting %s: %w", key, err)
	}
	setting := NewMaterialTagSetting(key, tag, s.catalog)
	if override, ok := s.overrides[key]; ok {
		if err := setting.Set(override); err != nil {
			return nil, err
		}
	}
	return setting, nil
}

// Keys returns the keys of every configured override, sorted.
func (s *Settings) Keys() []string {
	return slices.Sorted(maps.Keys(s.overrides))
}

// Validate checks every configured override. The error joins one entry per
// invalid setting.
func (s *Settings) Validate(ctx context.Context) error {
	var errs []error
	for _, key := range s.Keys() {
		if _, err := s.Get(ctx, key); err != nil {
			log.Warn(log.CatConfig, "Invalid setting override", "setting", key, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
