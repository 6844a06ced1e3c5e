package tagservice

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/zjrosen/tagset/internal/domain/tags"
	"github.com/zjrosen/tagset/internal/log"
)

const documentExt = ".json"

// DocumentSource reads tag documents and enumerates the tags it holds.
type DocumentSource interface {
	tags.Source
	Names() ([]string, error)
}

// FSSource serves tag documents stored as <name>.json at the root of an
// fs.FS. Only the local name of a key is used; the namespace is implied by
// the registry.
type FSSource struct {
	fsys fs.FS
}

var _ DocumentSource = (*FSSource)(nil)

// NewFSSource creates a source over fsys, typically os.DirFS(tagsDir).
func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// Read returns the document for key.
func (s *FSSource) Read(key tags.Key) ([]byte, error) {
	data, err := fs.ReadFile(s.fsys, key.Name+documentExt)
	if err != nil {
		return nil, fmt.Errorf("read %s%s: %w", key.Name, documentExt, err)
	}
	return data, nil
}

// Names lists the tag names with a document in the source, sorted. Files
// whose base name is not a valid lowercase tag name are skipped, as are
// names containing dots: tag names double as config keys and viper splits
// keys on dots.
func (s *FSSource) Names() ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("list tag documents: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != documentExt || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), documentExt)
		if _, err := tags.ParseKey("tagset:" + name); err != nil || strings.Contains(name, ".") {
			log.Warn(log.CatTags, "Skipping tag document with invalid name", "file", e.Name())
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
