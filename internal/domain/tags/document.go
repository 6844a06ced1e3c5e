package tags

import (
	"bytes"
	"encoding/json"
)

// Entry is one element of a document's "values" array. It is either a
// BareReference or an AnnotatedReference.
type Entry interface {
	// Reference returns the raw textual reference.
	Reference() string
	entry()
}

// BareReference is a plain string entry. It is always required.
type BareReference string

// Reference implements Entry.
func (b BareReference) Reference() string { return string(b) }

func (BareReference) entry() {}

// AnnotatedReference is an object entry carrying its own required flag.
type AnnotatedReference struct {
	ID       string
	Required bool
}

// Reference implements Entry.
func (a AnnotatedReference) Reference() string { return a.ID }

func (AnnotatedReference) entry() {}

// ParseDocument parses a tag document of the form {"values": [...]}. Extra
// top-level fields and extra fields on object entries are ignored. Failures
// are *CauseError values of kind MalformedInput.
func ParseDocument(data []byte) ([]Entry, error) {
	var root json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, causef(MalformedInput, "", "invalid JSON: %v", err)
	}
	if jsonKind(root) != "object" {
		return nil, causef(MalformedInput, "", "expected a JSON object but found %s", jsonKind(root))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(root, &fields); err != nil {
		return nil, causef(MalformedInput, "", "invalid JSON: %v", err)
	}

	values, ok := fields["values"]
	if !ok || jsonKind(values) != "array" {
		return nil, causef(MalformedInput, "", "no values array specified")
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(values, &elements); err != nil {
		return nil, causef(MalformedInput, "", "invalid values array: %v", err)
	}

	entries := make([]Entry, 0, len(elements))
	for _, element := range elements {
		e, err := parseEntry(element)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseEntry(element json.RawMessage) (Entry, error) {
	switch jsonKind(element) {
	case "string":
		var s string
		if err := json.Unmarshal(element, &s); err != nil {
			return nil, causef(MalformedInput, "", "invalid string value: %v", err)
		}
		return BareReference(s), nil
	case "object":
		return parseAnnotated(element)
	default:
		text := string(bytes.TrimSpace(element))
		return nil, causef(MalformedInput, text, "unexpected value format: %s - %s", jsonKind(element), text)
	}
}

func parseAnnotated(element json.RawMessage) (Entry, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(element, &fields); err != nil {
		return nil, causef(MalformedInput, "", "invalid object value: %v", err)
	}

	id, hasID := fields["id"]
	required, hasRequired := fields["required"]
	if !hasID || !hasRequired || jsonKind(id) != "string" || jsonKind(required) != "boolean" {
		return nil, causef(MalformedInput, string(bytes.TrimSpace(element)), "found a JSON object value without an id")
	}

	var entry AnnotatedReference
	if err := json.Unmarshal(id, &entry.ID); err != nil {
		return nil, causef(MalformedInput, "", "invalid id: %v", err)
	}
	if err := json.Unmarshal(required, &entry.Required); err != nil {
		return nil, causef(MalformedInput, "", "invalid required flag: %v", err)
	}
	return entry, nil
}

// jsonKind names the JSON type of an already-validated value.
func jsonKind(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "empty"
	}
	switch trimmed[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
