// Package registry caches decoded completion specs.
//
// The registry is the only shared mutable state in the daemon. Reads of
// a cached entry take a read lock and never block other readers; the
// first miss for a name deserializes the blob exactly once, with
// concurrent misses for the same name coalesced through singleflight.
// Eviction is least-recently-used by an atomic recency tick, so a hit
// never takes the exclusive lock. Specs are immutable, so an evicted
// entry stays valid for requests already holding the pointer.
package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/compd-sh/compd/internal/cerrors"
	"github.com/compd-sh/compd/internal/logger"
	"github.com/compd-sh/compd/internal/source"
	"github.com/compd-sh/compd/internal/spec"
)

// DefaultMaxEntries bounds the cache when no size is configured.
const DefaultMaxEntries = 50

type entry struct {
	spec     *spec.Spec
	lastUsed atomic.Int64
}

// Registry is a bounded, thread-safe spec cache over a blob source.
type Registry struct {
	src        source.Source
	maxEntries int
	log        *logger.Logger

	clock atomic.Int64

	mu      sync.RWMutex
	entries map[string]*entry

	flight singleflight.Group
}

// New creates a registry over src. maxEntries <= 0 selects the default.
func New(src source.Source, maxEntries int, log *logger.Logger) *Registry {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Registry{
		src:        src,
		maxEntries: maxEntries,
		log:        log,
		entries:    make(map[string]*entry),
	}
}

// Get returns the decoded spec for name, deserializing on first access.
// A canceled context abandons the wait but lets an in-flight decode
// finish for the remaining waiters.
func (r *Registry) Get(ctx context.Context, name string) (*spec.Spec, error) {
	name = strings.ToLower(name)

	if s, ok := r.lookup(name); ok {
		return s, nil
	}

	ch := r.flight.DoChan(name, func() (interface{}, error) {
		return r.load(name)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*spec.Spec), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// lookup is the hot path: a read-locked map hit plus an atomic recency
// bump, so concurrent hits never contend.
func (r *Registry) lookup(name string) (*spec.Spec, bool) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	e.lastUsed.Store(r.clock.Add(1))
	return e.spec, true
}

func (r *Registry) load(name string) (*spec.Spec, error) {
	// Another flight may have populated the cache while we queued.
	if s, ok := r.lookup(name); ok {
		return s, nil
	}

	blob, err := r.src.LoadBlob(name)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return nil, cerrors.NewSpecNotFoundError(name)
		}
		return nil, cerrors.NewSpecCorruptError(name, "spec source failed", err)
	}

	s, err := spec.Decode(name, blob)
	if err != nil {
		return nil, err
	}

	r.insert(name, s)
	return s, nil
}

func (r *Registry) insert(name string, s *spec.Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[name]; ok {
		e.spec = s
		e.lastUsed.Store(r.clock.Add(1))
		return
	}

	e := &entry{spec: s}
	e.lastUsed.Store(r.clock.Add(1))
	r.entries[name] = e

	// Evict the stalest entries. The cache is small, so a scan on the
	// miss path is cheaper than maintaining list order on every hit.
	for len(r.entries) > r.maxEntries {
		victim := ""
		oldest := int64(0)
		for n, e := range r.entries {
			if t := e.lastUsed.Load(); victim == "" || t < oldest {
				victim, oldest = n, t
			}
		}
		delete(r.entries, victim)
		if r.log != nil {
			r.log.Debug().Str("spec", victim).Msg("evicted spec from cache")
		}
	}
}

// Known returns the names of all completable commands, cached or not.
func (r *Registry) Known() []string {
	return r.src.List()
}

// Len returns the number of cached entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
