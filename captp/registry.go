package captp

import (
	"sync"

	"github.com/google/uuid"
)

// BootstrapRegistry maps swiss numbers to the local objects a bootstrap
// object will fetch by them, per spec §4.7 / §6.2's sturdy-ref suffix.
// Swiss numbers are generated with a UUID so callers never need to pick
// their own unguessable identifiers.
type BootstrapRegistry struct {
	mu      sync.Mutex
	bySwiss map[string]Object
}

// NewBootstrapRegistry builds an empty registry.
func NewBootstrapRegistry() *BootstrapRegistry {
	return &BootstrapRegistry{bySwiss: make(map[string]Object)}
}

// Register generates a fresh swiss number for obj and returns it.
func (r *BootstrapRegistry) Register(obj Object) []byte {
	id := uuid.New()
	swiss := id[:]
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySwiss[string(swiss)] = obj
	return swiss
}

// RegisterAt associates obj with an already-known swiss number, for
// sturdy-refs minted out of band.
func (r *BootstrapRegistry) RegisterAt(swiss []byte, obj Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySwiss[string(swiss)] = obj
}

// Lookup returns the object registered under swiss, if any.
func (r *BootstrapRegistry) Lookup(swiss []byte) (Object, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.bySwiss[string(swiss)]
	return obj, ok
}
