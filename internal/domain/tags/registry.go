package tags

import (
	"errors"
	"slices"
	"strings"
)

// Registry errors
var (
	ErrDuplicateTag = errors.New("duplicate tag name")
	ErrTagNotFound  = errors.New("tag not found")
)

// Registry owns the tags of one namespace. It is populated during an
// initialization phase and only read afterwards; it does not lock.
type Registry struct {
	namespace string
	tags      map[string]*Tag
}

// NewRegistry creates an empty registry for namespace.
func NewRegistry(namespace string) *Registry {
	return &Registry{
		namespace: namespace,
		tags:      make(map[string]*Tag),
	}
}

// Namespace returns the namespace of every tag in the registry.
func (r *Registry) Namespace() string {
	return r.namespace
}

// Add creates an unresolved tag for name. Names are case-insensitive.
func (r *Registry) Add(name string) (*Tag, error) {
	key, err := ParseKey(r.namespace + ":" + strings.ToLower(name))
	if err != nil {
		return nil, err
	}
	upper := strings.ToUpper(key.Name)
	if _, exists := r.tags[upper]; exists {
		return nil, ErrDuplicateTag
	}
	tag := NewTag(key)
	r.tags[upper] = tag
	return tag, nil
}

// Lookup returns the tag whose uppercased local name is upperName.
func (r *Registry) Lookup(upperName string) (*Tag, bool) {
	tag, ok := r.tags[upperName]
	return tag, ok
}

// Get returns the tag for key. The key namespace must match the registry.
func (r *Registry) Get(key Key) (*Tag, error) {
	if key.Namespace != r.namespace {
		return nil, ErrTagNotFound
	}
	tag, ok := r.tags[strings.ToUpper(key.Name)]
	if !ok {
		return nil, ErrTagNotFound
	}
	return tag, nil
}

// List returns every tag, sorted by key.
func (r *Registry) List() []*Tag {
	list := make([]*Tag, 0, len(r.tags))
	for _, tag := range r.tags {
		list = append(list, tag)
	}
	slices.SortFunc(list, func(a, b *Tag) int { return compareKeys(a.key, b.key) })
	return list
}

// Len returns the number of tags.
func (r *Registry) Len() int {
	return len(r.tags)
}
