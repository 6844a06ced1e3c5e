package tags

import "strings"

// Resolved is the outcome of resolving one reference: either a concrete
// Material or a Group (built-in group or user tag), never both.
type Resolved struct {
	Kind     ReferenceKind
	Material Key
	Group    Group
}

// Resolver resolves classified references against a Catalog and a
// TagLookup. It holds no mutable state.
type Resolver struct {
	catalog Catalog
	tags    TagLookup
}

// NewResolver creates a resolver. tags may be nil when no user tags exist.
func NewResolver(catalog Catalog, tags TagLookup) *Resolver {
	return &Resolver{catalog: catalog, tags: tags}
}

// ResolveReference classifies raw and resolves it.
func (r *Resolver) ResolveReference(raw string) (Resolved, error) {
	kind, err := Classify(raw)
	if err != nil {
		return Resolved{}, err
	}
	return r.Resolve(kind, raw)
}

// Resolve resolves raw, which must already have been classified as kind.
func (r *Resolver) Resolve(kind ReferenceKind, raw string) (Resolved, error) {
	switch kind {
	case ReferenceMaterial:
		return r.resolveMaterial(raw)
	case ReferenceBuiltinGroup:
		return r.resolveBuiltinGroup(raw)
	case ReferenceUserTag:
		return r.resolveUserTag(raw)
	default:
		return Resolved{}, causef(UnrecognizedReference, raw, "could not recognize value '%s'", raw)
	}
}

func (r *Resolver) resolveMaterial(raw string) (Resolved, error) {
	key, err := ParseKey(raw)
	if err != nil || r.catalog == nil || !r.catalog.ItemExists(key) {
		return Resolved{}, causef(UnresolvedReference, raw, "unknown item '%s'", raw)
	}
	return Resolved{Kind: ReferenceMaterial, Material: key}, nil
}

func (r *Resolver) resolveBuiltinGroup(raw string) (Resolved, error) {
	key, err := ParseKey(strings.TrimPrefix(raw, string(BuiltinGroupSigil)))
	if err == nil && r.catalog != nil {
		// Item groups take priority over block groups of the same name.
		for _, registry := range []GroupRegistry{RegistryItems, RegistryBlocks} {
			if group, ok := r.catalog.LookupGroup(registry, key); ok {
				return Resolved{Kind: ReferenceBuiltinGroup, Group: group}, nil
			}
		}
	}
	return Resolved{}, causef(UnresolvedReference, raw, "no such built-in group '%s'", raw)
}

func (r *Resolver) resolveUserTag(raw string) (Resolved, error) {
	key, err := ParseKey(strings.TrimPrefix(raw, string(UserTagSigil)))
	if err == nil && r.tags != nil && key.Namespace == r.tags.Namespace() {
		if tag, ok := r.tags.Lookup(strings.ToUpper(key.Name)); ok {
			return Resolved{Kind: ReferenceUserTag, Group: tag}, nil
		}
	}
	return Resolved{}, causef(UnresolvedReference, raw, "no such user tag '%s'", raw)
}
