package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dir serves spec blobs from a user-managed directory, one
// <command>.json per file. Useful for specs compiled locally before
// they land in the embedded set.
type Dir struct {
	dir string
}

// NewDir returns a source reading blobs from dir.
func NewDir(dir string) *Dir {
	return &Dir{dir: dir}
}

// LoadBlob implements Source.
func (d *Dir) LoadBlob(name string) ([]byte, error) {
	name = strings.ToLower(name)
	// Spec names come straight off the command line; never let one
	// escape the spec directory.
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, "/\\") {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(filepath.Join(d.dir, name+".json"))
	if err != nil {
		return nil, ErrNotFound
	}
	return data, nil
}

// List implements Source.
func (d *Dir) List() []string {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.ToLower(strings.TrimSuffix(entry.Name(), ".json")))
	}
	sort.Strings(names)
	return names
}
