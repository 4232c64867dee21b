// Package registry keeps the in-memory catalog of registered agents.
package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/taskmesh/taskmesh/pkg/domain"
)

// Registry is a threadsafe, insertion-ordered catalog of agent descriptors.
// It is read by selection during batch execution and mutated by
// register/unregister calls; readers always work against copy-on-read
// snapshots so an in-flight batch never observes a half-applied mutation.
type Registry struct {
	mu     sync.RWMutex
	agents map[uuid.UUID]domain.AgentDescriptor
	order  []uuid.UUID
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{agents: make(map[uuid.UUID]domain.AgentDescriptor)}
}

// Register inserts or replaces a descriptor by ID. Replacing keeps the
// descriptor's original position in iteration order.
func (r *Registry) Register(desc domain.AgentDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[desc.ID]; !exists {
		r.order = append(r.order, desc.ID)
	}
	r.agents[desc.ID] = desc
}

// Unregister removes a descriptor by ID and returns it. Removing an unknown
// ID is a no-op.
func (r *Registry) Unregister(id uuid.UUID) (domain.AgentDescriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	desc, ok := r.agents[id]
	if !ok {
		return domain.AgentDescriptor{}, false
	}
	delete(r.agents, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return desc, true
}

// Get returns the descriptor registered under id.
func (r *Registry) Get(id uuid.UUID) (domain.AgentDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.agents[id]
	return desc, ok
}

// LookupByType returns the first enabled descriptor of the given type in
// registration order.
func (r *Registry) LookupByType(agentType domain.AgentType) (domain.AgentDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		desc := r.agents[id]
		if desc.Type == agentType && desc.Enabled {
			return desc, true
		}
	}
	return domain.AgentDescriptor{}, false
}

// SetEnabled flips the enabled flag of a registered descriptor, the only
// mutation allowed after construction.
func (r *Registry) SetEnabled(id uuid.UUID, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	desc, ok := r.agents[id]
	if !ok {
		return false
	}
	desc.Enabled = enabled
	r.agents[id] = desc
	return true
}

// Snapshot returns all descriptors in registration order. The slice is a
// copy; callers may iterate it while the registry keeps changing.
func (r *Registry) Snapshot() []domain.AgentDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.AgentDescriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.agents[id])
	}
	return out
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// ActiveCount returns the number of enabled agents.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := 0
	for _, desc := range r.agents {
		if desc.Enabled {
			active++
		}
	}
	return active
}
