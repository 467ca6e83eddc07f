// README: In-process conversation log for the terminal demo and tests.
package conversation

import (
	"context"
	"sync"

	"voyage/internal/types"
)

var _ Log = (*MemoryStore)(nil)

type MemoryStore struct {
	mu    sync.Mutex
	limit int
	turns map[types.ID][]Turn
}

func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &MemoryStore{limit: limit, turns: make(map[types.ID][]Turn)}
}

func (m *MemoryStore) Append(_ context.Context, ownerID types.ID, turns ...Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	log := append(m.turns[ownerID], turns...)
	if over := len(log) - m.limit; over > 0 {
		log = append([]Turn(nil), log[over:]...)
	}
	m.turns[ownerID] = log
	return nil
}

func (m *MemoryStore) GetAll(_ context.Context, ownerID types.ID) ([]Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Turn(nil), m.turns[ownerID]...), nil
}

func (m *MemoryStore) Clear(_ context.Context, ownerID types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.turns, ownerID)
	return nil
}
