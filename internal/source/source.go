// Package source supplies raw spec blobs to the registry. A source is
// the boundary to the build-time spec compiler: it hands out opaque
// bytes and knows nothing about their content.
package source

import "errors"

// ErrNotFound is returned when a source has no blob for a name.
var ErrNotFound = errors.New("spec blob not found")

// Source provides spec blobs by command name. Implementations must be
// safe for concurrent use and cheap to call; the registry caches the
// decoded result, not the blob.
type Source interface {
	// LoadBlob returns the raw spec blob for name, or ErrNotFound.
	LoadBlob(name string) ([]byte, error)

	// List returns the names of all available specs, sorted.
	List() []string
}
