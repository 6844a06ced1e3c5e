package tags

import (
	"sync/atomic"
)

// Tag is a named, lazily resolved set of item keys and group references.
// Its resolved state is published with a single atomic store, so readers
// observe either nothing or the complete result.
type Tag struct {
	key   Key
	state atomic.Pointer[resolution]
}

type resolution struct {
	result    Result
	materials map[Key]struct{}
}

// NewTag creates an unresolved tag.
func NewTag(key Key) *Tag {
	return &Tag{key: key}
}

// Key returns the tag key.
func (t *Tag) Key() Key { return t.key }

// Registry implements Group; tags always live in RegistryUser.
func (t *Tag) Registry() GroupRegistry { return RegistryUser }

// Resolved reports whether the tag has been resolved successfully.
func (t *Tag) Resolved() bool {
	return t.state.Load() != nil
}

// Result returns the resolved sets, or ok=false if the tag is unresolved.
func (t *Tag) Result() (Result, bool) {
	res := t.state.Load()
	if res == nil {
		return Result{}, false
	}
	return res.result.clone(), true
}

// Materials returns the concrete items listed directly in the tag.
func (t *Tag) Materials() []Key {
	res, _ := t.Result()
	return res.Materials
}

// Tags returns the groups referenced directly by the tag.
func (t *Tag) Tags() []Group {
	res, _ := t.Result()
	return res.Tags
}

// Resolve reads the tag's document from src and evaluates it. A resolved tag
// returns its cached result without touching src or the evaluator.
func (t *Tag) Resolve(src Source, evaluator *Evaluator) (Result, error) {
	if res := t.state.Load(); res != nil {
		return res.result.clone(), nil
	}

	data, err := src.Read(t.key)
	if err != nil {
		return Result{}, &MisconfigurationError{
			Tag:   t.key,
			Kind:  SourceReadFailure,
			Cause: err.Error(),
			Err:   err,
		}
	}

	result, err := evaluator.EvaluateDocument(t.key, data)
	if err != nil {
		return Result{}, err
	}

	return t.publish(result), nil
}

// publish stores result unless another resolution won, in which case the
// winner's result is returned.
func (t *Tag) publish(result Result) Result {
	materials := make(map[Key]struct{}, len(result.Materials))
	for _, m := range result.Materials {
		materials[m] = struct{}{}
	}
	if !t.state.CompareAndSwap(nil, &resolution{result: result, materials: materials}) {
		return t.state.Load().result.clone()
	}
	return result.clone()
}

// Values flattens the tag: its own materials plus the values of every
// referenced group, recursively. Cycles between tags are visited once.
func (t *Tag) Values() []Key {
	out := make(map[Key]struct{})
	t.collect(out, make(map[*Tag]struct{}))
	return sortedKeys(out)
}

func (t *Tag) collect(out map[Key]struct{}, visited map[*Tag]struct{}) {
	if _, seen := visited[t]; seen {
		return
	}
	visited[t] = struct{}{}

	res := t.state.Load()
	if res == nil {
		return
	}
	for _, m := range res.result.Materials {
		out[m] = struct{}{}
	}
	for _, g := range res.result.Tags {
		if sub, ok := g.(*Tag); ok {
			sub.collect(out, visited)
			continue
		}
		for _, v := range g.Values() {
			out[v] = struct{}{}
		}
	}
}

// Contains reports whether id is a member of the flattened tag.
func (t *Tag) Contains(id Key) bool {
	return t.contains(id, make(map[*Tag]struct{}))
}

func (t *Tag) contains(id Key, visited map[*Tag]struct{}) bool {
	if _, seen := visited[t]; seen {
		return false
	}
	visited[t] = struct{}{}

	res := t.state.Load()
	if res == nil {
		return false
	}
	if _, ok := res.materials[id]; ok {
		return true
	}
	for _, g := range res.result.Tags {
		if sub, ok := g.(*Tag); ok {
			if sub.contains(id, visited) {
				return true
			}
			continue
		}
		if g.Contains(id) {
			return true
		}
	}
	return false
}

var _ Group = (*Tag)(nil)
