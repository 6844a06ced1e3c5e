// Package settings provides configurable item settings whose defaults come
// from resolved tags.
package settings

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/zjrosen/tagset/internal/domain/tags"
)

// Validation errors.
var (
	ErrNilInput        = errors.New("setting value must not be nil")
	ErrUnknownMaterial = errors.New("unknown material")
)

// MaterialTagSetting is a list of item identifiers that defaults to the
// flattened values of a tag. Users may override it with any list of items
// the catalog knows.
type MaterialTagSetting struct {
	key        string
	defaultTag tags.Group
	catalog    tags.Catalog

	defaults []string
	override []string
}

// NewMaterialTagSetting creates a setting keyed by key whose default is the
// sorted item list of defaultTag. defaultTag should already be resolved.
func NewMaterialTagSetting(key string, defaultTag tags.Group, catalog tags.Catalog) *MaterialTagSetting {
	values := defaultTag.Values()
	defaults := make([]string, len(values))
	for i, v := range values {
		defaults[i] = v.String()
	}
	return &MaterialTagSetting{
		key:        key,
		defaultTag: defaultTag,
		catalog:    catalog,
		defaults:   defaults,
	}
}

// Key returns the setting key.
func (s *MaterialTagSetting) Key() string { return s.key }

// DefaultTag returns the tag the default value was derived from.
func (s *MaterialTagSetting) DefaultTag() tags.Group { return s.defaultTag }

// Default returns the default item list.
func (s *MaterialTagSetting) Default() []string { return slices.Clone(s.defaults) }

// Validate reports whether input is an acceptable value. Identifiers are
// matched case-insensitively.
func (s *MaterialTagSetting) Validate(input []string) error {
	if input == nil {
		return ErrNilInput
	}
	for _, value := range input {
		key, err := tags.ParseKey(strings.ToLower(value))
		if err != nil || !s.catalog.ItemExists(key) {
			return fmt.Errorf("%w: %q", ErrUnknownMaterial, value)
		}
	}
	return nil
}

// Set validates input and stores it as the override.
func (s *MaterialTagSetting) Set(input []string) error {
	if err := s.Validate(input); err != nil {
		return fmt.Errorf("setting %s: %w", s.key, err)
	}
	normalized := make([]string, len(input))
	for i, v := range input {
		normalized[i] = strings.ToLower(v)
	}
	s.override = normalized
	return nil
}

// Reset drops the override.
func (s *MaterialTagSetting) Reset() { s.override = nil }

// Overridden reports whether a user value is set.
func (s *MaterialTagSetting) Overridden() bool { return s.override != nil }

// Value returns the override, or the default when none is set.
func (s *MaterialTagSetting) Value() []string {
	if s.override != nil {
		return slices.Clone(s.override)
	}
	return s.Default()
}
