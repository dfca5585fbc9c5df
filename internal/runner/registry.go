package runner

import (
	"context"
	"sort"
	"sync"
)

// TaskFunc is a job body invoked by the runner at trigger time.
type TaskFunc func(ctx context.Context) error

// TaskInfo describes one registered task function.
type TaskInfo struct {
	Name        string
	Description string
}

// Registry maps stable string keys (e.g. "jobs.daily_menu") to task
// functions. It is populated once at process start, so a lookup miss is a
// checked condition rather than a nil dereference at trigger time.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]TaskFunc
	descs map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		funcs: map[string]TaskFunc{},
		descs: map[string]string{},
	}
}

// Register binds a task function to its key. Later registrations under the
// same key win.
func (r *Registry) Register(key, description string, fn TaskFunc) {
	r.mu.Lock()
	r.funcs[key] = fn
	r.descs[key] = description
	r.mu.Unlock()
}

// Lookup resolves a task function by key.
func (r *Registry) Lookup(key string) (TaskFunc, bool) {
	r.mu.RLock()
	fn, ok := r.funcs[key]
	r.mu.RUnlock()
	return fn, ok
}

// Tasks lists the registered task functions sorted by key.
func (r *Registry) Tasks() []TaskInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TaskInfo, 0, len(r.funcs))
	for name := range r.funcs {
		out = append(out, TaskInfo{Name: name, Description: r.descs[name]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
