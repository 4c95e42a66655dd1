package headlessconsole

import "sync"

// Registration is a handle to a registered handler or listener.
type Registration interface {
	// Remove unregisters the handler. Calling it again has no effect.
	Remove()
}

type registration struct {
	once   sync.Once
	remove func()
}

func (r *registration) Remove() {
	r.once.Do(r.remove)
}

type registryEntry[T any] struct {
	id    uint64
	value T
}

// registry keeps entries in registration order.
// Lookups walk it most-recently-registered first.
type registry[T any] struct {
	mu      sync.RWMutex
	nextID  uint64
	entries []registryEntry[T]
}

func (r *registry[T]) add(v T) Registration {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.entries = append(r.entries, registryEntry[T]{id: id, value: v})
	r.mu.Unlock()

	return &registration{remove: func() { r.remove(id) }}
}

func (r *registry[T]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return
		}
	}
}

// newestFirst returns a copy of the entries, most recent first, so callers
// can run handlers that register or remove other handlers.
func (r *registry[T]) newestFirst() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, len(r.entries))
	for i, e := range r.entries {
		out[len(r.entries)-1-i] = e.value
	}
	return out
}

// inOrder returns a copy of the entries in registration order.
func (r *registry[T]) inOrder() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.value
	}
	return out
}

func (r *registry[T]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
