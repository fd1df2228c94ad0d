/*
store.go - Persistence interface for slots and their raw rule records

PURPOSE:
  Defines the boundary between the restriction engine and the database.
  The engine itself never persists anything: it consumes raw records
  loaded from a RuleStore and produces consolidated rules that callers
  may cache.

REPLACE SEMANTICS:
  Rules for a slot are written as a whole. ReplaceRecords() swaps the
  complete record set atomically, preserving the given order, because
  grouping order and take-last reduction depend on it.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - regulation/store/memory.go: In-memory for testing

SEE ALSO:
  - group.go: consumes LoadRecords() output
  - cache/: consolidated-rule caches
*/
package regulation

import (
	"context"
	"time"
)

// Slot is a curb segment whose rules are evaluated together.
type Slot struct {
	ID          SlotID
	Name        string
	Description string
	CreatedAt   time.Time
}

// RuleStore handles persistence of slots and their raw records.
type RuleStore interface {
	// SaveSlot creates or updates a slot.
	SaveSlot(ctx context.Context, slot Slot) error

	// GetSlot returns generic.ErrSlotNotFound when the slot doesn't exist.
	GetSlot(ctx context.Context, id SlotID) (*Slot, error)

	// ListSlots returns every slot ordered by ID.
	ListSlots(ctx context.Context) ([]Slot, error)

	// DeleteSlot removes a slot and all of its records.
	DeleteSlot(ctx context.Context, id SlotID) error

	// ReplaceRecords atomically swaps the records of a slot.
	ReplaceRecords(ctx context.Context, id SlotID, records []RawRuleRecord) error

	// LoadRecords returns a slot's records in the order they were saved.
	LoadRecords(ctx context.Context, id SlotID) ([]RawRuleRecord, error)

	// Reset removes every slot and record (demo scenarios, tests).
	Reset(ctx context.Context) error
}

// LoadRules loads a slot's records and consolidates them.
func LoadRules(ctx context.Context, store RuleStore, id SlotID) ([]ConsolidatedRule, error) {
	records, err := store.LoadRecords(ctx, id)
	if err != nil {
		return nil, err
	}
	return GroupRules(records)
}
