package cache

import "sync"

// Registry remembers segment paths validated by this process. A registered
// segment is read without the lock and without staleness checks.
type Registry struct {
	mu    sync.RWMutex
	paths map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{paths: make(map[string]struct{})}
}

func (r *Registry) Has(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.paths[path]
	return ok
}

func (r *Registry) Add(path string) {
	r.mu.Lock()
	r.paths[path] = struct{}{}
	r.mu.Unlock()
}

func (r *Registry) Forget(path string) {
	r.mu.Lock()
	delete(r.paths, path)
	r.mu.Unlock()
}

// Len is the number of registered segments.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.paths)
}
