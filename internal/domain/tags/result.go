package tags

import "slices"

// Result is the pair of sets produced by resolving one tag document. Both
// slices are sorted and free of duplicates.
type Result struct {
	Materials []Key
	Tags      []Group
}

// IsEmpty reports whether neither set has members.
func (r Result) IsEmpty() bool {
	return len(r.Materials) == 0 && len(r.Tags) == 0
}

// resultBuilder accumulates resolved references with set semantics.
type resultBuilder struct {
	materials map[Key]struct{}
	groups    map[groupID]Group
}

func newResultBuilder() *resultBuilder {
	return &resultBuilder{
		materials: make(map[Key]struct{}),
		groups:    make(map[groupID]Group),
	}
}

func (b *resultBuilder) add(r Resolved) {
	if r.Group != nil {
		b.groups[idOf(r.Group)] = r.Group
		return
	}
	b.materials[r.Material] = struct{}{}
}

func (b *resultBuilder) build() Result {
	groups := make([]Group, 0, len(b.groups))
	for _, g := range b.groups {
		groups = append(groups, g)
	}
	slices.SortFunc(groups, compareGroups)
	return Result{
		Materials: sortedKeys(b.materials),
		Tags:      groups,
	}
}

func (r Result) clone() Result {
	return Result{
		Materials: slices.Clone(r.Materials),
		Tags:      slices.Clone(r.Tags),
	}
}
