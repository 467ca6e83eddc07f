// README: In-memory itinerary repository for the terminal demo and service tests.
package itinerary

import (
	"context"
	"slices"
	"sync"

	"voyage/internal/types"
)

var _ Repository = (*MemoryStore)(nil)

type MemoryStore struct {
	mu    sync.RWMutex
	plans map[types.ID]Plan
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{plans: make(map[types.ID]Plan)}
}

func (m *MemoryStore) Create(_ context.Context, p *Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = p.Clone()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, ownerID, id types.ID) (*Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[id]
	if !ok || p.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	out := p.Clone()
	return &out, nil
}

func (m *MemoryStore) ListByOwner(_ context.Context, ownerID types.ID) ([]*Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	plans := []*Plan{}
	for _, p := range m.plans {
		if p.OwnerID == ownerID {
			c := p.Clone()
			plans = append(plans, &c)
		}
	}
	slices.SortFunc(plans, func(a, b *Plan) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return plans, nil
}

func (m *MemoryStore) Update(_ context.Context, p *Plan, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.plans[p.ID]
	if !ok || cur.OwnerID != p.OwnerID || cur.Version != expectedVersion {
		return ErrConflict
	}
	p.Version = expectedVersion + 1
	p.CreatedAt = cur.CreatedAt
	m.plans[p.ID] = p.Clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, ownerID, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok || p.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(m.plans, id)
	return nil
}
