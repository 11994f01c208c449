// SPDX-License-Identifier: EPL-2.0

package model

import "sync"

// Registry is the central mapping from model ids to their owning handles.
// Inter-model references (source, alignment, reference) are stored as ids
// and validated here on lookup, so the model graph carries no pointer
// cycles and a released model can never dangle.
type Registry struct {
	mtx    sync.Mutex
	models map[ID]Model
}

func NewRegistry() *Registry {
	return &Registry{
		models: make(map[ID]Model),
	}
}

// Register adds m to the registry and returns its id.
func (r *Registry) Register(m Model) ID {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.models[m.ID()] = m
	return m.ID()
}

// Lookup resolves an id; ok is false when the id is zero, unknown, or
// already released.
func (r *Registry) Lookup(id ID) (Model, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	m, ok := r.models[id]
	return m, ok
}

// Release fires the model's AboutToBeDeleted notification and removes it
// from the registry. Releasing an unknown id is a no-op.
func (r *Registry) Release(id ID) {
	r.mtx.Lock()
	m, ok := r.models[id]
	if ok {
		delete(r.models, id)
	}
	r.mtx.Unlock()

	if !ok {
		return
	}

	if b, ok := m.(interface{ EmitAboutToBeDeleted() }); ok {
		b.EmitAboutToBeDeleted()
	}
}

// Count returns the number of live models.
func (r *Registry) Count() int {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return len(r.models)
}
