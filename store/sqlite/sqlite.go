/*
Package sqlite provides a SQLite-backed implementation of regulation.RuleStore.

PURPOSE:
  Persists parking slots and the raw rule records imported for them.
  Consolidated rules are never stored: they are rebuilt from the records
  with regulation.GroupRules and cached by the cache package.

KEY TABLES:
  slots:        Curb segments (id, name, description)
  rule_records: One row per raw record, ordered by position within a slot

ORDERING:
  Grouping emits rules in first-occurrence order and takes descriptive
  fields from the last record of a group, so record order is data. Each
  row stores its position and LoadRecords() reads them back in that order.

NUMERICS:
  Hours and max-stay minutes are decimals stored as TEXT (NULL = absent),
  so 8.5 comes back as exactly 8.5.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The pool is capped at one
  connection so that ":memory:" databases are shared by every query.

USAGE:
  store, err := sqlite.New("./data/curbside.db")
  if err != nil {
      log.Fatal().Err(err).Msg("open store")
  }
  defer store.Close()

  rules, err := regulation.LoadRules(ctx, store, "rue-st-denis-4200")

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - regulation/store.go: Interface definition
  - regulation/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/curbside/generic"
	"github.com/warp/curbside/regulation"
)

// Store implements regulation.RuleStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ regulation.RuleStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection (used by /healthz).
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS slots (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rule_records (
		id TEXT PRIMARY KEY,
		slot_id TEXT NOT NULL REFERENCES slots(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		code TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		season_start TEXT NOT NULL DEFAULT '',
		season_end TEXT NOT NULL DEFAULT '',
		max_stay_minutes TEXT,
		start_hour TEXT,
		end_hour TEXT,
		duration_hours TEXT,
		weekdays INTEGER NOT NULL DEFAULT 0, -- bit 0 = Monday .. bit 6 = Sunday
		daily BOOLEAN NOT NULL DEFAULT FALSE,
		special_days TEXT NOT NULL DEFAULT '',
		restrict_type TEXT NOT NULL DEFAULT '',
		permit_no TEXT NOT NULL DEFAULT '',
		UNIQUE(slot_id, position)
	);

	-- Hot path: load a slot's records in order
	CREATE INDEX IF NOT EXISTS idx_rule_records_slot_position
		ON rule_records(slot_id, position);

	-- Lookup of slots affected by a rule code
	CREATE INDEX IF NOT EXISTS idx_rule_records_code
		ON rule_records(code);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SLOTS
// =============================================================================

// SaveSlot creates or updates a slot. The creation time of an existing slot is kept.
func (s *Store) SaveSlot(ctx context.Context, slot regulation.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO slots (id, name, description, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description
	`

	createdAt := slot.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, query,
		string(slot.ID), slot.Name, slot.Description, createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save slot %s: %w", slot.ID, err)
	}
	return nil
}

// GetSlot retrieves a slot by ID.
func (s *Store) GetSlot(ctx context.Context, id regulation.SlotID) (*regulation.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var slot regulation.Slot
	var slotID, createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, created_at FROM slots WHERE id = ?",
		string(id),
	).Scan(&slotID, &slot.Name, &slot.Description, &createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}

	slot.ID = regulation.SlotID(slotID)
	if slot.CreatedAt, err = parseCreatedAt(slotID, createdAt); err != nil {
		return nil, err
	}
	return &slot, nil
}

func parseCreatedAt(slotID, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("slot %s: created_at: %w", slotID, err)
	}
	return t, nil
}

// ListSlots returns all slots ordered by ID.
func (s *Store) ListSlots(ctx context.Context) ([]regulation.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, description, created_at FROM slots ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []regulation.Slot
	for rows.Next() {
		var slot regulation.Slot
		var slotID, createdAt string
		if err := rows.Scan(&slotID, &slot.Name, &slot.Description, &createdAt); err != nil {
			return nil, err
		}
		slot.ID = regulation.SlotID(slotID)
		if slot.CreatedAt, err = parseCreatedAt(slotID, createdAt); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// DeleteSlot removes a slot; its records go with it (ON DELETE CASCADE).
func (s *Store) DeleteSlot(ctx context.Context, id regulation.SlotID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM slots WHERE id = ?", string(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrSlotNotFound
	}
	return nil
}

// =============================================================================
// RULE RECORDS
// =============================================================================

// ReplaceRecords swaps all records of a slot in one transaction.
// Records without an ID are given a fresh UUID.
func (s *Store) ReplaceRecords(ctx context.Context, id regulation.SlotID, records []regulation.RawRuleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM slots WHERE id = ?", string(id)).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return generic.ErrSlotNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM rule_records WHERE slot_id = ?", string(id)); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	query := `
		INSERT INTO rule_records
		(id, slot_id, position, code, description, season_start, season_end,
		 max_stay_minutes, start_hour, end_hour, duration_hours, weekdays, daily,
		 special_days, restrict_type, permit_no)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, r := range records {
		recID := r.ID
		if recID == "" {
			recID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx, query,
			recID, string(id), i, r.Code, r.Description, r.SeasonStart, r.SeasonEnd,
			nullDecimal(r.MaxStayMinutes), nullDecimal(r.StartHour), nullDecimal(r.EndHour), nullDecimal(r.DurationHours),
			weekdayMask(r), r.Daily, r.SpecialDays, string(r.RestrictType), r.PermitNo,
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("record %s (rule %s): duplicate id", recID, r.Code)
			}
			return fmt.Errorf("failed to insert record %d (rule %s): %w", i, r.Code, err)
		}
	}

	return tx.Commit()
}

// LoadRecords returns a slot's records in saved order.
func (s *Store) LoadRecords(ctx context.Context, id regulation.SlotID) ([]regulation.RawRuleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM slots WHERE id = ?", string(id)).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, generic.ErrSlotNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, description, season_start, season_end,
		       max_stay_minutes, start_hour, end_hour, duration_hours,
		       weekdays, daily, special_days, restrict_type, permit_no
		FROM rule_records
		WHERE slot_id = ?
		ORDER BY position ASC
	`, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []regulation.RawRuleRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (regulation.RawRuleRecord, error) {
	var r regulation.RawRuleRecord
	var maxStay, start, end, duration sql.NullString
	var mask int
	var restrictType string

	if err := rows.Scan(&r.ID, &r.Code, &r.Description, &r.SeasonStart, &r.SeasonEnd,
		&maxStay, &start, &end, &duration,
		&mask, &r.Daily, &r.SpecialDays, &restrictType, &r.PermitNo,
	); err != nil {
		return r, err
	}

	r.RestrictType = regulation.RestrictType(restrictType)
	for i, wd := range generic.Weekdays {
		r.SetWeekday(wd, mask&(1<<i) != 0)
	}

	var err error
	if r.MaxStayMinutes, err = parseDecimal(maxStay); err != nil {
		return r, generic.NewDataIntegrityError(r.Code, "max_stay_minutes", err)
	}
	if r.StartHour, err = parseDecimal(start); err != nil {
		return r, generic.NewDataIntegrityError(r.Code, "start_hour", err)
	}
	if r.EndHour, err = parseDecimal(end); err != nil {
		return r, generic.NewDataIntegrityError(r.Code, "end_hour", err)
	}
	if r.DurationHours, err = parseDecimal(duration); err != nil {
		return r, generic.NewDataIntegrityError(r.Code, "duration_hours", err)
	}
	return r, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"rule_records", "slots"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// SlotsWithRule returns the IDs of slots carrying at least one record with the given code.
func (s *Store) SlotsWithRule(ctx context.Context, code string) ([]regulation.SlotID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT slot_id FROM rule_records WHERE code = ? ORDER BY slot_id", code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []regulation.SlotID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, regulation.SlotID(id))
	}
	return ids, rows.Err()
}

// Helper functions

func weekdayMask(r regulation.RawRuleRecord) int {
	flags := [7]bool{r.Monday, r.Tuesday, r.Wednesday, r.Thursday, r.Friday, r.Saturday, r.Sunday}
	mask := 0
	for i, set := range flags {
		if set {
			mask |= 1 << i
		}
	}
	return mask
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseDecimal(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
