// Package registry owns model lifecycle: each weights artifact is loaded at
// most once per process and the resulting handle is shared by every caller.
package registry

import (
	"sync"

	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/detections"
)

// Loader materializes a weights artifact into an inference-ready handle.
type Loader func(weightsPath string) (detections.Model, error)

// Registry caches model handles keyed by weights path. Concurrent first
// calls for the same path merge onto a single load; later calls return the
// cached handle without touching storage. Failed loads are not cached, so a
// retry after fixing the artifact works.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	loader  Loader
}

type entry struct {
	once  sync.Once
	model detections.Model
	err   error
}

// New builds a registry around the given loader.
func New(loader Loader) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		loader:  loader,
	}
}

// Get returns the handle for weightsPath, loading it on first use. Every
// error is a *ModelLoadError carrying the offending path.
func (r *Registry) Get(weightsPath string) (detections.Model, error) {
	r.mu.Lock()
	e, ok := r.entries[weightsPath]
	if !ok {
		e = &entry{}
		r.entries[weightsPath] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		e.model, e.err = r.loader(weightsPath)
		if e.err != nil {
			// Drop the failed entry so a later call can retry the load.
			r.mu.Lock()
			if r.entries[weightsPath] == e {
				delete(r.entries, weightsPath)
			}
			r.mu.Unlock()
		}
	})

	if e.err != nil {
		if mlErr, ok := e.err.(*ModelLoadError); ok {
			return nil, mlErr
		}
		return nil, &ModelLoadError{Path: weightsPath, Cause: e.err}
	}
	return e.model, nil
}

// Len reports how many models are currently cached.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
