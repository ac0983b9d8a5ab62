package lint

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDuplicateLint is returned when a lint name is registered twice.
var ErrDuplicateLint = errors.New("lint already registered")

// Registry holds the known lints by name.
type Registry struct {
	mu    sync.RWMutex
	lints map[string]Lint
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{lints: make(map[string]Lint)}
}

// DefaultRegistry returns a fresh registry with every built-in lint.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	if err := r.Register(AsyncFnInTrait); err != nil {
		panic(err)
	}
	return r
}

// Register adds l.
func (r *Registry) Register(l Lint) error {
	if l.Name == "" {
		return errors.New("lint: empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.lints[l.Name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateLint, l.Name)
	}
	r.lints[l.Name] = l
	return nil
}

// Lookup finds a lint by name.
func (r *Registry) Lookup(name string) (Lint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lints[name]
	return l, ok
}

// All returns the registered lints sorted by name.
func (r *Registry) All() []Lint {
	r.mu.RLock()
	out := make([]Lint, 0, len(r.lints))
	for _, l := range r.lints {
		out = append(out, l)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
