package source

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed specs/*.json
var embeddedSpecs embed.FS

// Embedded serves the spec blobs compiled into the binary.
type Embedded struct {
	fsys fs.FS
}

// NewEmbedded returns a source backed by the built-in spec set.
func NewEmbedded() *Embedded {
	return &Embedded{fsys: embeddedSpecs}
}

// LoadBlob implements Source.
func (e *Embedded) LoadBlob(name string) ([]byte, error) {
	name = strings.ToLower(name)
	data, err := fs.ReadFile(e.fsys, "specs/"+name+".json")
	if err != nil {
		return nil, ErrNotFound
	}
	return data, nil
}

// List implements Source.
func (e *Embedded) List() []string {
	entries, err := fs.ReadDir(e.fsys, "specs")
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(names)
	return names
}
