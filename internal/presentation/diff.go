package presentation

import (
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// MembershipDiff lists the members added to and removed from a tag between
// two generations.
type MembershipDiff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// Empty reports whether nothing changed.
func (d MembershipDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// DiffMembers compares two member lists. Both are sorted and deduplicated
// first, so the result does not depend on input order.
func DiffMembers(before, after []string) MembershipDiff {
	oldText := joinMembers(before)
	newText := joinMembers(after)

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	result := MembershipDiff{Added: []string{}, Removed: []string{}}
	for _, d := range diffs {
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			if line == "" {
				continue
			}
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				result.Added = append(result.Added, line)
			case diffmatchpatch.DiffDelete:
				result.Removed = append(result.Removed, line)
			}
		}
	}
	return result
}

func joinMembers(members []string) string {
	sorted := slices.Clone(members)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	if len(sorted) == 0 {
		return ""
	}
	return strings.Join(sorted, "\n") + "\n"
}
