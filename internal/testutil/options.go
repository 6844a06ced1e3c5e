package testutil

// AnnotatedEntry is the object form of a tag document entry.
type AnnotatedEntry struct {
	ID       string `json:"id"`
	Required bool   `json:"required"`
}

// Optional returns an entry that is skipped when it cannot be resolved.
func Optional(id string) AnnotatedEntry {
	return AnnotatedEntry{ID: id, Required: false}
}

// Required returns an object entry that must resolve.
func Required(id string) AnnotatedEntry {
	return AnnotatedEntry{ID: id, Required: true}
}
