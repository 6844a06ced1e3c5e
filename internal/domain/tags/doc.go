// Package tags implements the domain layer of the tag resolution engine.
//
// The package contains only standard library code. It knows nothing about
// where tag documents live, how the identifier catalog is stored, or how
// results are logged; those concerns are injected through the Catalog,
// TagLookup and Source interfaces.
//
// # Core Types
//
// Key is a namespaced identifier ("namespace:name") used for items, built-in
// groups and tags alike.
//
// Tag is a named set that is resolved lazily from a JSON document. Once
// resolved it holds a deduplicated set of concrete item keys and a
// deduplicated set of Group references. A Tag is itself a Group, so tags can
// reference each other.
//
// Registry owns every Tag of one namespace and serves lookups by uppercased
// local name.
//
// # Resolution Pipeline
//
//	ParseDocument  JSON text -> []Entry (BareReference | AnnotatedReference)
//	Classify       reference -> ReferenceKind (by sigil and shape)
//	Resolver       (kind, reference) -> Resolved
//	Evaluator      required/optional semantics over all entries -> Result
//
// Every failure that leaves the pipeline is a *MisconfigurationError naming
// the tag being resolved, the offending entry and a cause.
//
// # Reference Grammar
//
//	minecraft:stone      concrete item
//	#minecraft:wool      built-in group (item groups first, then block groups)
//	$slimefun:ores       user-defined tag
package tags
