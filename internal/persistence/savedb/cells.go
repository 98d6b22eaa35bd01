package savedb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"geocoin.ai/internal/persistence/snapshot"
	"geocoin.ai/internal/sim/world"
)

// CellStore persists departed cells in the cells table, one JSON item list per key.
type CellStore struct {
	db *DB
}

var _ world.CellStore = (*CellStore)(nil)

func (s *DB) CellStore() *CellStore { return &CellStore{db: s} }

func (s *CellStore) Get(key string) ([]snapshot.ItemV1, bool, error) {
	var raw string
	err := s.db.db.QueryRow(`SELECT items FROM cells WHERE key=?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	items, err := decodeItems(raw)
	if err != nil {
		return nil, false, fmt.Errorf("%w: cell %s: %v", world.ErrDeserialization, key, err)
	}
	return items, true, nil
}

func (s *CellStore) Put(key string, items []snapshot.ItemV1) error {
	if items == nil {
		items = []snapshot.ItemV1{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	_, err = s.db.db.Exec(`INSERT OR REPLACE INTO cells(key,items) VALUES(?,?)`, key, string(b))
	return err
}

func (s *CellStore) Delete(key string) error {
	_, err := s.db.db.Exec(`DELETE FROM cells WHERE key=?`, key)
	return err
}

// Range reads every row before calling fn so fn may use the store itself.
func (s *CellStore) Range(fn func(key string, items []snapshot.ItemV1) bool) error {
	rows, err := s.db.db.Query(`SELECT key,items FROM cells ORDER BY key`)
	if err != nil {
		return err
	}
	type row struct {
		key string
		raw string
	}
	var all []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.key, &r.raw); err != nil {
			_ = rows.Close()
			return err
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, r := range all {
		items, err := decodeItems(r.raw)
		if err != nil {
			return fmt.Errorf("cell %s: %w", r.key, err)
		}
		if !fn(r.key, items) {
			return nil
		}
	}
	return nil
}

func (s *CellStore) Len() (int, error) {
	var n int
	err := s.db.db.QueryRow(`SELECT COUNT(*) FROM cells`).Scan(&n)
	return n, err
}

func (s *CellStore) Reset() error {
	_, err := s.db.db.Exec(`DELETE FROM cells`)
	return err
}

func decodeItems(raw string) ([]snapshot.ItemV1, error) {
	items := []snapshot.ItemV1{}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return items, nil
}
