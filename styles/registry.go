package styles

import (
	"context"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
)

// Registry holds every currently-registered Style Binding, generalizing
// the teacher's connection-set registration pattern (one administrative
// mutation path, read-mostly lookups) to bindings whose values own live
// renderer pools rather than database connections (spec.md §3 lifecycle).
type Registry struct {
	mu        sync.RWMutex
	bindings  map[string]*Binding
	defaultID string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[string]*Binding)}
}

// Register runs the Style Loader and, only if it succeeds, publishes the
// resulting Binding into the registry under p.ID, replacing (and closing)
// any prior binding with the same id. A partially-constructed binding is
// never visible to readers: Register either fully succeeds or leaves the
// registry untouched.
func (reg *Registry) Register(ctx context.Context, p RegisterParams) (*Binding, errorsx.Error) {
	binding, err := Register(ctx, p)
	if err != nil {
		return nil, err
	}

	reg.mu.Lock()
	previous := reg.bindings[p.ID]
	reg.bindings[p.ID] = binding
	if reg.defaultID == "" {
		reg.defaultID = p.ID
	}
	reg.mu.Unlock()

	if previous != nil {
		_ = previous.Close(ctx)
	}

	return binding, nil
}

// Remove deletes id from the registry and closes its pools. Deletion
// happens under the write lock; closing happens after release so
// in-flight requests that already captured the binding pointer can run
// to completion (spec.md §5).
func (reg *Registry) Remove(ctx context.Context, id string) errorsx.Error {
	reg.mu.Lock()
	binding, ok := reg.bindings[id]
	if ok {
		delete(reg.bindings, id)
		if reg.defaultID == id {
			reg.defaultID = ""
		}
	}
	reg.mu.Unlock()

	if !ok {
		return errorsx.Errorf("no style registered with id %q", id)
	}

	if err := binding.Close(ctx); err != nil {
		return errorsx.Wrap(err, "style", id)
	}
	return nil
}

// Get returns the binding for id, or (nil, false) if unregistered.
func (reg *Registry) Get(id string) (*Binding, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	binding, ok := reg.bindings[id]
	return binding, ok
}

// GetDefault returns the default binding, for callers that don't require
// a specific id. The default is the first binding registered while no
// default is set; removing the default binding clears it, and the next
// binding registered after that becomes the default.
func (reg *Registry) GetDefault() (*Binding, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	if reg.defaultID == "" {
		return nil, false
	}
	binding, ok := reg.bindings[reg.defaultID]
	return binding, ok
}

// IDs returns every currently-registered style id.
func (reg *Registry) IDs() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	ids := make([]string, 0, len(reg.bindings))
	for id := range reg.bindings {
		ids = append(ids, id)
	}
	return ids
}

// Close removes and closes every registered binding (server shutdown).
func (reg *Registry) Close(ctx context.Context) error {
	reg.mu.Lock()
	bindings := reg.bindings
	reg.bindings = make(map[string]*Binding)
	reg.defaultID = ""
	reg.mu.Unlock()

	var firstErr error
	for _, binding := range bindings {
		if err := binding.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
