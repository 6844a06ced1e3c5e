package tags

import "regexp"

// Sigils that distinguish group references from concrete item keys.
const (
	BuiltinGroupSigil = '#'
	UserTagSigil      = '$'
)

// ReferenceKind is the shape of a textual reference.
type ReferenceKind int

const (
	ReferenceMaterial ReferenceKind = iota + 1
	ReferenceBuiltinGroup
	ReferenceUserTag
)

func (k ReferenceKind) String() string {
	switch k {
	case ReferenceMaterial:
		return "material"
	case ReferenceBuiltinGroup:
		return "builtin-group"
	case ReferenceUserTag:
		return "user-tag"
	default:
		return "unknown"
	}
}

var (
	materialPattern     = regexp.MustCompile(`^[a-z0-9_.-]+:[a-z0-9_./-]+$`)
	builtinGroupPattern = regexp.MustCompile(`^#[a-z0-9_.-]+:[a-z0-9_./-]+$`)
	userTagPattern      = regexp.MustCompile(`^\$[a-z0-9_.-]+:[a-z0-9_./-]+$`)
)

// Classify matches ref against the material, built-in group and user tag
// grammars, in that order.
func Classify(ref string) (ReferenceKind, error) {
	switch {
	case materialPattern.MatchString(ref):
		return ReferenceMaterial, nil
	case builtinGroupPattern.MatchString(ref):
		return ReferenceBuiltinGroup, nil
	case userTagPattern.MatchString(ref):
		return ReferenceUserTag, nil
	default:
		return 0, causef(UnrecognizedReference, ref, "could not recognize value '%s'", ref)
	}
}
