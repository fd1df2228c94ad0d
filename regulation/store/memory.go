// Package store provides RuleStore implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/curbside/generic"
	"github.com/warp/curbside/regulation"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	slots   map[regulation.SlotID]regulation.Slot
	records map[regulation.SlotID][]regulation.RawRuleRecord
}

var _ regulation.RuleStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		slots:   make(map[regulation.SlotID]regulation.Slot),
		records: make(map[regulation.SlotID][]regulation.RawRuleRecord),
	}
}

func (m *Memory) SaveSlot(_ context.Context, slot regulation.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.slots[slot.ID]; ok {
		slot.CreatedAt = existing.CreatedAt
	} else if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}
	m.slots[slot.ID] = slot
	return nil
}

func (m *Memory) GetSlot(_ context.Context, id regulation.SlotID) (*regulation.Slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slot, ok := m.slots[id]
	if !ok {
		return nil, generic.ErrSlotNotFound
	}
	return &slot, nil
}

func (m *Memory) ListSlots(_ context.Context) ([]regulation.Slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slots := make([]regulation.Slot, 0, len(m.slots))
	for _, s := range m.slots {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].ID < slots[j].ID })
	return slots, nil
}

func (m *Memory) DeleteSlot(_ context.Context, id regulation.SlotID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.slots[id]; !ok {
		return generic.ErrSlotNotFound
	}
	delete(m.slots, id)
	delete(m.records, id)
	return nil
}

// ReplaceRecords swaps the slot's records. Records without an ID get one.
func (m *Memory) ReplaceRecords(_ context.Context, id regulation.SlotID, records []regulation.RawRuleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.slots[id]; !ok {
		return generic.ErrSlotNotFound
	}

	stored := make([]regulation.RawRuleRecord, len(records))
	for i, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		stored[i] = r
	}
	m.records[id] = stored
	return nil
}

func (m *Memory) LoadRecords(_ context.Context, id regulation.SlotID) ([]regulation.RawRuleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.slots[id]; !ok {
		return nil, generic.ErrSlotNotFound
	}
	result := make([]regulation.RawRuleRecord, len(m.records[id]))
	copy(result, m.records[id])
	return result, nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots = make(map[regulation.SlotID]regulation.Slot)
	m.records = make(map[regulation.SlotID][]regulation.RawRuleRecord)
	return nil
}
