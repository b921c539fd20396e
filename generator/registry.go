package generator

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrDuplicateType is returned when a type id is already registered.
var ErrDuplicateType = errors.New("duplicate generator type")

// Registry maps type handles and string ids to generator types. Types are
// never removed, so a handle stays valid for the registry's lifetime even
// after its id was rebound to a newer type.
type Registry struct {
	mu     sync.RWMutex
	types  []*Type
	backed []bool
	ids    map[string]TypeHandle
	images []io.Closer
	closed bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]TypeHandle)}
}

// Register validates t and assigns it the next handle.
func (r *Registry) Register(t Type) (TypeHandle, error) {
	return r.register(t, nil)
}

// RegisterImage registers t and takes ownership of the image that backs
// it. The image is closed by Close, or right away if registration fails.
func (r *Registry) RegisterImage(t Type, image io.Closer) (TypeHandle, error) {
	h, err := r.register(t, image)
	if err != nil && image != nil {
		image.Close()
	}
	return h, err
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(t Type) TypeHandle {
	h, err := r.Register(t)
	if err != nil {
		panic("generator registry: " + err.Error())
	}
	return h
}

// Rebind registers t backed by image and points its id at the new handle.
// Handles of the previous type stay valid. Ids of types registered without
// an image are reserved and can't be rebound. The image is closed if
// registration fails.
func (r *Registry) Rebind(t Type, image io.Closer) (TypeHandle, error) {
	h, err := r.add(t, image, true)
	if err != nil && image != nil {
		image.Close()
	}
	return h, err
}

// Reserved reports whether id belongs to a type registered without an
// image.
func (r *Registry) Reserved(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.ids[id]
	return ok && !r.backed[h]
}

func (r *Registry) register(t Type, image io.Closer) (TypeHandle, error) {
	return r.add(t, image, false)
}

func (r *Registry) add(t Type, image io.Closer, rebind bool) (TypeHandle, error) {
	if err := t.Validate(); err != nil {
		return InvalidType, err
	}
	t = t.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.ids[t.ID]; ok && (!rebind || !r.backed[h]) {
		return InvalidType, fmt.Errorf("%w: %s", ErrDuplicateType, t.ID)
	}
	h := TypeHandle(len(r.types))
	r.types = append(r.types, &t)
	r.backed = append(r.backed, image != nil)
	r.ids[t.ID] = h
	if image != nil {
		r.images = append(r.images, image)
	}
	return h, nil
}

// Type returns the type registered under h.
func (r *Registry) Type(h TypeHandle) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !h.Valid() || int(h) >= len(r.types) {
		return nil, false
	}
	return r.types[h], true
}

// Lookup returns the handle for id or InvalidType.
func (r *Registry) Lookup(id string) TypeHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.ids[id]; ok {
		return h
	}
	return InvalidType
}

// Handles returns every handle in registration order.
func (r *Registry) Handles() []TypeHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handles := make([]TypeHandle, len(r.types))
	for i := range handles {
		handles[i] = TypeHandle(i)
	}
	return handles
}

// Len returns number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// Close releases every owned image exactly once. Types stay resolvable but
// rendering a type backed by a closed image is undefined.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	var errs []error
	for _, image := range r.images {
		if err := image.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.images = nil
	return errors.Join(errs...)
}
