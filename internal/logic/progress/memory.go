package progress

import (
	"context"
	"sync"
)

// MemoryProgressStore 进程内实现，用于回放工具与测试
type MemoryProgressStore struct {
	mu         sync.Mutex
	slots      map[uint64]SlotStatus
	checkpoint uint64
	saved      bool
}

func NewMemoryProgressStore() *MemoryProgressStore {
	return &MemoryProgressStore{slots: make(map[uint64]SlotStatus)}
}

func (m *MemoryProgressStore) GetSlotStatus(_ context.Context, slot uint64) (SlotStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[slot], nil
}

func (m *MemoryProgressStore) MarkSlotStatus(_ context.Context, slot uint64, status SlotStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = status
	return nil
}

func (m *MemoryProgressStore) LoadCheckpoint(context.Context) (uint64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkpoint, m.saved, nil
}

func (m *MemoryProgressStore) SaveCheckpoint(_ context.Context, slot uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved || slot > m.checkpoint {
		m.checkpoint = slot
		m.saved = true
	}
	return m.checkpoint, nil
}
