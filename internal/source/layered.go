package source

import "sort"

// Layered combines sources with earlier entries taking precedence, so
// a user spec directory can shadow the embedded set.
type Layered struct {
	sources []Source
}

// NewLayered returns a source that consults sources in order.
func NewLayered(sources ...Source) *Layered {
	return &Layered{sources: sources}
}

// LoadBlob implements Source.
func (l *Layered) LoadBlob(name string) ([]byte, error) {
	for _, src := range l.sources {
		data, err := src.LoadBlob(name)
		if err == nil {
			return data, nil
		}
	}
	return nil, ErrNotFound
}

// List implements Source.
func (l *Layered) List() []string {
	seen := make(map[string]struct{})
	for _, src := range l.sources {
		for _, name := range src.List() {
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
