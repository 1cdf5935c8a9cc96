package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// timeLayout keeps the wall-clock offset the entry was recorded with.
const timeLayout = time.RFC3339Nano

// Append inserts a new entry and returns it with its assigned ID. The ID on
// the argument is ignored.
func (s *Store) Append(e TimeEntry) (*TimeEntry, error) {
	res, err := s.db.Exec(
		`INSERT INTO times (time_in, time_out, synced) VALUES (?, ?, ?)`,
		e.TimeIn.Format(timeLayout), formatOptional(e.TimeOut), boolToInt(e.Synced),
	)
	if err != nil {
		return nil, wrap("append entry", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, wrap("append entry", err)
	}
	e.ID = id
	return &e, nil
}

// GetAll returns every entry in insertion order.
func (s *Store) GetAll() ([]TimeEntry, error) {
	return s.list(`SELECT id, time_in, time_out, synced FROM times ORDER BY id`)
}

// Unsynced returns entries not yet reconciled, in insertion order.
func (s *Store) Unsynced() ([]TimeEntry, error) {
	return s.list(`SELECT id, time_in, time_out, synced FROM times WHERE synced = 0 ORDER BY id`)
}

// Last returns the most recently inserted entry, or nil when the store is empty.
func (s *Store) Last() (*TimeEntry, error) {
	row := s.db.QueryRow(`SELECT id, time_in, time_out, synced FROM times ORDER BY id DESC LIMIT 1`)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get last entry", err)
	}
	return e, nil
}

// Get returns the entry with the given ID.
func (s *Store) Get(id int64) (*TimeEntry, error) {
	row := s.db.QueryRow(`SELECT id, time_in, time_out, synced FROM times WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get entry %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, wrap(fmt.Sprintf("get entry %d", id), err)
	}
	return e, nil
}

// Update replaces the mutable fields (time_out, synced) of the entry with
// e.ID. TimeIn is never rewritten. The row is only written while its
// time_out is unset or equal to e.TimeOut, checked in the same statement as
// the write.
func (s *Store) Update(e TimeEntry) error {
	out := formatOptional(e.TimeOut)
	res, err := s.db.Exec(
		`UPDATE times SET time_out = ?, synced = ?
		 WHERE id = ? AND (time_out IS NULL OR time_out = ?)`,
		out, boolToInt(e.Synced), e.ID, out,
	)
	if err != nil {
		return wrap(fmt.Sprintf("update entry %d", e.ID), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(fmt.Sprintf("update entry %d", e.ID), err)
	}
	if n > 0 {
		return nil
	}

	// Nothing matched: either the row is gone or its time_out is already set.
	if _, err := s.Get(e.ID); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return fmt.Errorf("update entry %d: %w", e.ID, ErrImmutable)
}

func (s *Store) list(query string, args ...any) ([]TimeEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrap("list entries", err)
	}
	defer rows.Close()

	entries := []TimeEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, wrap("list entries", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list entries", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*TimeEntry, error) {
	e := &TimeEntry{}
	var timeIn string
	var timeOut sql.NullString
	var synced int
	if err := row.Scan(&e.ID, &timeIn, &timeOut, &synced); err != nil {
		return nil, err
	}

	t, err := time.Parse(timeLayout, timeIn)
	if err != nil {
		return nil, fmt.Errorf("entry %d: parse time_in: %w", e.ID, err)
	}
	e.TimeIn = t
	if timeOut.Valid {
		t, err := time.Parse(timeLayout, timeOut.String)
		if err != nil {
			return nil, fmt.Errorf("entry %d: parse time_out: %w", e.ID, err)
		}
		e.TimeOut = &t
	}
	e.Synced = synced == 1
	return e, nil
}

func formatOptional(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(timeLayout), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
