package bind

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Object is the host-facing view of an Instance.
type Object interface {
	Name() string
	Methods() []string
	Call(ctx context.Context, method string, args ...any) (any, error)
}

// Host is the external runtime as seen by bound methods: the only way back
// into objects, and therefore the source of re-entrant calls.
type Host interface {
	Invoke(ctx context.Context, object, method string, args ...any) (any, error)
}

// Registry resolves host calls to registered objects. It implements Host.
//
// The registry only indexes objects; it does not own their lifetime.
type Registry struct {
	mu      sync.RWMutex
	objects map[string]Object
}

var _ Host = (*Registry)(nil)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{objects: make(map[string]Object)}
}

// Register adds obj under its name.
func (r *Registry) Register(obj Object) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.objects[obj.Name()]; ok {
		return fmt.Errorf("register %s: %w", obj.Name(), ErrDuplicate)
	}
	r.objects[obj.Name()] = obj
	return nil
}

// Unregister removes the object named name, reporting whether it existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.objects[name]
	delete(r.objects, name)
	return ok
}

// Lookup returns the object named name.
func (r *Registry) Lookup(name string) (Object, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.objects[name]
	return obj, ok
}

// Names returns the registered object names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.objects))
	for name := range r.objects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Invoke calls method on the named object.
func (r *Registry) Invoke(ctx context.Context, object, method string, args ...any) (any, error) {
	obj, ok := r.Lookup(object)
	if !ok {
		return nil, &CallError{Object: object, Method: method, Err: ErrUnknownObject}
	}
	return obj.Call(ctx, method, args...)
}
