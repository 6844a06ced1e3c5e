package tags

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidKey is returned when a string is not a valid namespaced key.
var ErrInvalidKey = errors.New("invalid key format")

var (
	namespacePattern = regexp.MustCompile(`^[a-z0-9_.-]+$`)
	namePattern      = regexp.MustCompile(`^[a-z0-9_./-]+$`)
)

// Key is a namespaced identifier such as "minecraft:stone".
type Key struct {
	Namespace string
	Name      string
}

// NewKey builds a key without validation.
func NewKey(namespace, name string) Key {
	return Key{Namespace: namespace, Name: name}
}

// ParseKey parses "namespace:name". Both parts must be non-empty lowercase
// identifiers.
func ParseKey(s string) (Key, error) {
	namespace, name, ok := strings.Cut(s, ":")
	if !ok || !namespacePattern.MatchString(namespace) || !namePattern.MatchString(name) {
		return Key{}, ErrInvalidKey
	}
	return Key{Namespace: namespace, Name: name}, nil
}

// MustParseKey is like ParseKey but panics on invalid input.
func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic("tags: invalid key " + s)
	}
	return k
}

// String returns "namespace:name".
func (k Key) String() string {
	return k.Namespace + ":" + k.Name
}

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool {
	return k.Namespace == "" && k.Name == ""
}

func compareKeys(a, b Key) int {
	if c := strings.Compare(a.Namespace, b.Namespace); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}
