package tracing

// Span names.
const (
	SpanLoadAll = "tags.load_all"
	SpanResolve = "tags.resolve"
	SpanReload  = "tags.reload"
	SpanFilter  = "filter.permits"
)

// Span attribute keys.
const (
	AttrRunID        = "tagset.run.id"
	AttrTagKey       = "tag.key"
	AttrTagEntries   = "tag.entries"
	AttrTagMaterials = "tag.materials"
	AttrTagSubtags   = "tag.subtags"
	AttrTagsLoaded   = "tags.loaded"
	AttrTagsFailed   = "tags.failed"
	AttrItemID       = "item.id"
	AttrCacheHit     = "cache.hit"
	AttrErrorKind    = "error.kind"
)

// Span event names.
const (
	EventEntrySkipped  = "entry.skipped"
	EventEntryFailed   = "entry.failed"
	EventEntryResolved = "entry.resolved"
)
