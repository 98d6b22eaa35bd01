package savedb

import (
	"database/sql"
	"errors"
	"time"

	"geocoin.ai/internal/sim/world"
)

// SessionStore is one named save slot.
type SessionStore struct {
	db   *DB
	slot string
}

var _ world.SessionStore = (*SessionStore)(nil)

func (s *DB) SessionStore(slot string) *SessionStore {
	if slot == "" {
		slot = "default"
	}
	return &SessionStore{db: s, slot: slot}
}

func (s *SessionStore) Slot() string { return s.slot }

func (s *SessionStore) Save(blob string) error {
	_, err := s.db.db.Exec(
		`INSERT OR REPLACE INTO saves(slot,blob,saved_at) VALUES(?,?,?)`,
		s.slot, blob, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *SessionStore) Load() (string, bool, error) {
	var blob string
	err := s.db.db.QueryRow(`SELECT blob FROM saves WHERE slot=?`, s.slot).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return blob, true, nil
}

func (s *SessionStore) Delete() error {
	_, err := s.db.db.Exec(`DELETE FROM saves WHERE slot=?`, s.slot)
	return err
}

type SlotInfo struct {
	Slot    string
	SavedAt time.Time
	Bytes   int
}

func (s *DB) Slots() ([]SlotInfo, error) {
	rows, err := s.db.Query(`SELECT slot,saved_at,length(blob) FROM saves ORDER BY slot`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SlotInfo
	for rows.Next() {
		var si SlotInfo
		var ts string
		if err := rows.Scan(&si.Slot, &ts, &si.Bytes); err != nil {
			return nil, err
		}
		si.SavedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, si)
	}
	return out, rows.Err()
}
