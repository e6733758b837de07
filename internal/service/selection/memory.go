package selection

import (
	"context"
	"sort"
	"sync"

	"github.com/Domenick1991/metroreserve/internal/domain"
)

// MemoryStore is a process-local Store. Selections never expire.
type MemoryStore struct {
	mu   sync.Mutex
	sets map[string]map[domain.SeatID]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string]map[domain.SeatID]struct{})}
}

func (m *MemoryStore) SelectionMembers(ctx context.Context, passengerID string) ([]domain.SeatID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]domain.SeatID, 0, len(m.sets[passengerID]))
	for id := range m.sets[passengerID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return domain.SeatLess(ids[i], ids[j]) })
	return ids, nil
}

func (m *MemoryStore) InSelection(ctx context.Context, passengerID string, seat domain.SeatID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sets[passengerID][seat]
	return ok, nil
}

func (m *MemoryStore) AddToSelection(ctx context.Context, passengerID string, seat domain.SeatID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[passengerID]
	if !ok {
		set = make(map[domain.SeatID]struct{})
		m.sets[passengerID] = set
	}
	set[seat] = struct{}{}
	return nil
}

func (m *MemoryStore) RemoveFromSelection(ctx context.Context, passengerID string, seats ...domain.SeatID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range seats {
		delete(m.sets[passengerID], id)
	}
	return nil
}

func (m *MemoryStore) ClearSelection(ctx context.Context, passengerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sets, passengerID)
	return nil
}

var _ Store = (*MemoryStore)(nil)
